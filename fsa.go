package kimmo

import (
	"fmt"
	"sort"
	"strings"
)

// label is an FSA edge label: either an epsilon transition or a symbol
// pair. Pairs on edges may name subsets; matching against concrete
// symbols happens at traversal time.
type label struct {
	eps  bool
	pair Pair
}

// FSA is a finite-state automaton over symbol pairs. It starts out
// nondeterministic (epsilon edges, several targets per label) and is
// turned into a DFA with Determinize before being used for context
// matching.
type FSA struct {
	start       int
	next        int
	transitions map[int]map[label][]int
	finals      map[int]bool
	sigma       map[Pair]bool
}

// NewFSA returns an automaton with a single start state and no edges.
func NewFSA() *FSA {
	f := &FSA{
		transitions: make(map[int]map[label][]int),
		finals:      make(map[int]bool),
		sigma:       make(map[Pair]bool),
	}
	f.start = f.NewState()
	return f
}

// Start returns the start state.
func (f *FSA) Start() int { return f.start }

// NewState allocates a fresh state and returns its id.
func (f *FSA) NewState() int {
	s := f.next
	f.next++
	f.transitions[s] = make(map[label][]int)
	return s
}

// Insert adds an edge from s1 to s2 labelled with the pair p.
func (f *FSA) Insert(s1 int, p Pair, s2 int) {
	l := label{pair: p}
	f.transitions[s1][l] = append(f.transitions[s1][l], s2)
	f.sigma[p] = true
}

// InsertEpsilon adds an epsilon edge from s1 to s2.
func (f *FSA) InsertEpsilon(s1, s2 int) {
	l := label{eps: true}
	f.transitions[s1][l] = append(f.transitions[s1][l], s2)
}

// SetFinal marks the given states as accepting.
func (f *FSA) SetFinal(states ...int) {
	for _, s := range states {
		f.finals[s] = true
	}
}

// IsFinal reports whether s is an accepting state.
func (f *FSA) IsFinal(s int) bool { return f.finals[s] }

// Sigma returns the pairs appearing on edges, sorted.
func (f *FSA) Sigma() []Pair {
	pairs := make([]Pair, 0, len(f.sigma))
	for p := range f.sigma {
		pairs = append(pairs, p)
	}
	sortPairs(pairs)
	return pairs
}

// eClosure expands a state set with everything reachable over epsilon
// edges.
func (f *FSA) eClosure(states map[int]bool) map[int]bool {
	closure := make(map[int]bool, len(states))
	stack := make([]int, 0, len(states))
	for s := range states {
		closure[s] = true
		stack = append(stack, s)
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, t := range f.transitions[s][label{eps: true}] {
			if !closure[t] {
				closure[t] = true
				stack = append(stack, t)
			}
		}
	}
	return closure
}

// move returns the states reachable from the set over edges labelled
// exactly p, before epsilon closure.
func (f *FSA) move(states map[int]bool, p Pair) map[int]bool {
	out := make(map[int]bool)
	for s := range states {
		for _, t := range f.transitions[s][label{pair: p}] {
			out[t] = true
		}
	}
	return out
}

// Determinize builds an equivalent DFA by subset construction over the
// automaton's own pair alphabet. A subset containing an accepting state
// becomes an accepting DFA state.
func (f *FSA) Determinize() *FSA {
	sigma := f.Sigma()
	dfa := NewFSA()

	startSet := f.eClosure(map[int]bool{f.start: true})
	ids := map[string]int{stateSetKey(startSet): dfa.start}
	if f.anyFinal(startSet) {
		dfa.SetFinal(dfa.start)
	}

	queue := []map[int]bool{startSet}
	keys := []string{stateSetKey(startSet)}
	for len(queue) > 0 {
		set := queue[0]
		key := keys[0]
		queue, keys = queue[1:], keys[1:]
		from := ids[key]
		for _, p := range sigma {
			target := f.eClosure(f.move(set, p))
			if len(target) == 0 {
				continue
			}
			tkey := stateSetKey(target)
			to, seen := ids[tkey]
			if !seen {
				to = dfa.NewState()
				ids[tkey] = to
				if f.anyFinal(target) {
					dfa.SetFinal(to)
				}
				queue = append(queue, target)
				keys = append(keys, tkey)
			}
			dfa.Insert(from, p, to)
		}
	}
	return dfa
}

func (f *FSA) anyFinal(states map[int]bool) bool {
	for s := range states {
		if f.finals[s] {
			return true
		}
	}
	return false
}

func stateSetKey(states map[int]bool) string {
	ids := make([]int, 0, len(states))
	for s := range states {
		ids = append(ids, s)
	}
	sort.Ints(ids)
	var b strings.Builder
	for i, s := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", s)
	}
	return b.String()
}

// Prune removes states that are unreachable from the start or cannot
// reach an accepting state, together with their edges.
func (f *FSA) Prune() {
	forward := map[int]bool{f.start: true}
	stack := []int{f.start}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, targets := range f.transitions[s] {
			for _, t := range targets {
				if !forward[t] {
					forward[t] = true
					stack = append(stack, t)
				}
			}
		}
	}

	reverse := make(map[int][]int)
	for s, edges := range f.transitions {
		for _, targets := range edges {
			for _, t := range targets {
				reverse[t] = append(reverse[t], s)
			}
		}
	}
	backward := make(map[int]bool)
	for s := range f.finals {
		if !backward[s] {
			backward[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, t := range reverse[s] {
			if !backward[t] {
				backward[t] = true
				stack = append(stack, t)
			}
		}
	}

	keep := func(s int) bool { return forward[s] && backward[s] }
	for s, edges := range f.transitions {
		if !keep(s) && s != f.start {
			delete(f.transitions, s)
			delete(f.finals, s)
			continue
		}
		for l, targets := range edges {
			kept := targets[:0]
			for _, t := range targets {
				if keep(t) {
					kept = append(kept, t)
				}
			}
			if len(kept) == 0 {
				delete(edges, l)
			} else {
				edges[l] = kept
			}
		}
	}
}

// Advance moves a state set over one concrete (in, out) symbol pair,
// matching edge labels with subset awareness. It returns the successor
// states sorted, and whether any of them is accepting.
func (f *FSA) Advance(states []int, in, out string, subsets Subsets) ([]int, bool) {
	seen := make(map[int]bool)
	halt := false
	for _, s := range states {
		for l, targets := range f.transitions[s] {
			if l.eps || !l.pair.Matches(in, out, subsets) {
				continue
			}
			for _, t := range targets {
				if !seen[t] {
					seen[t] = true
					if f.finals[t] {
						halt = true
					}
				}
			}
		}
	}
	next := make([]int, 0, len(seen))
	for s := range seen {
		next = append(next, s)
	}
	sort.Ints(next)
	return next, halt
}

// Transition is one edge of the automaton, for display.
type Transition struct {
	From  int
	Label string
	To    int
	Final bool
}

// Transitions lists the edges sorted by source state then label, with
// Final set on edges entering an accepting state.
func (f *FSA) Transitions() []Transition {
	var out []Transition
	for s, edges := range f.transitions {
		for l, targets := range edges {
			name := l.pair.String()
			if l.eps {
				name = "ε"
			}
			for _, t := range targets {
				out = append(out, Transition{From: s, Label: name, To: t, Final: f.finals[t]})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].To < out[j].To
	})
	return out
}

func sortPairs(pairs []Pair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].In != pairs[j].In {
			return pairs[i].In < pairs[j].In
		}
		return pairs[i].Out < pairs[j].Out
	})
}
