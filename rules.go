package kimmo

import (
	"fmt"
	"regexp"
	"sort"
	"sync"
)

// verdict is the outcome of advancing a rule's right-context state over
// one pair.
type verdict int

const (
	// vContinue keeps the rule active with the returned states.
	vContinue verdict = iota
	// vDead means no state survived the pair.
	vDead
	// vSatisfied means the right context matched completely.
	vSatisfied
)

// Rule is a compiled two-level rule. Both variants advance through the
// same interface, so the search engine never inspects which kind it
// holds.
type Rule interface {
	Name() string
	// Pairs returns the pairs the rule mentions; the concrete ones feed
	// the pair alphabet.
	Pairs() []Pair
	// RightAdvance moves the active state set over one concrete pair.
	RightAdvance(states []int, in, out string, subsets Subsets) ([]int, verdict)
	// InitialStates returns the start states and whether the rule is
	// active from the beginning of the word.
	InitialStates() ([]int, bool)
	// FinalTruth reports whether ending the word in the given states
	// satisfies the rule.
	FinalTruth(states []int) bool
}

// Rule-body tokenizer: multi-character arrows first, then symbols
// (optionally subset-negated), then single-character operators.
var reRuleTokens = regexp.MustCompile("<=>|==>|<==|/<=|~?[a-zA-Z0-9+'\\-#@$%!^`}{]+|[:()\\[\\]?&*_]")

var specialTokens = map[string]bool{
	":": true, "(": true, ")": true, "[": true, "]": true,
	"?": true, "&": true, "*": true, "_": true,
	"<=>": true, "==>": true, "<==": true, "/<=": true,
}

var arrowTokens = map[string]bool{"<=>": true, "==>": true, "<==": true, "/<=": true}

// ArrowRule is a declarative rule "pair ARROW leftcontext _ rightcontext".
// Contexts are regular expressions over pairs, compiled to DFAs; the left
// context is compiled in reverse token order so it can be checked
// backwards against the pairs already consumed.
type ArrowRule struct {
	name   string
	arrow  string
	center Pair
	left   *FSA
	right  *FSA
	pairs  []Pair
}

// NewArrowRule compiles a rule body such as "e:0 <=> C _ +:0 V".
func NewArrowRule(name, description string) (*ArrowRule, error) {
	r := &ArrowRule{name: name}
	tokens := reRuleTokens.FindAllString(description, -1)
	p := &ruleParser{rule: name, tokens: tokens}

	var err error
	if r.center, err = p.parsePair(); err != nil {
		return nil, err
	}
	r.pairs = append(r.pairs, r.center)
	if r.arrow, err = p.parseArrow(); err != nil {
		return nil, err
	}

	leftTree, err := p.parseList(true)
	if err != nil {
		return nil, err
	}
	if err := p.expect("_"); err != nil {
		return nil, err
	}
	rightTree, err := p.parseList(true)
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("unexpected token after right context")
	}

	r.left = r.compileContext(leftTree, true)
	r.right = r.compileContext(rightTree, false)
	return r, nil
}

// compileContext builds the NFA for a context tree, determinizes and
// prunes it. reverse flips sequence order for the left context.
func (r *ArrowRule) compileContext(tree ctxNode, reverse bool) *FSA {
	if tree == nil {
		return nil
	}
	collectPairs(tree, &r.pairs)
	nfa := NewFSA()
	exit := tree.build(nfa, nfa.Start(), reverse)
	nfa.SetFinal(exit)
	dfa := nfa.Determinize()
	dfa.Prune()
	return dfa
}

func (r *ArrowRule) Name() string   { return r.name }
func (r *ArrowRule) Arrow() string  { return r.arrow }
func (r *ArrowRule) Center() Pair   { return r.center }
func (r *ArrowRule) LeftFSA() *FSA  { return r.left }
func (r *ArrowRule) RightFSA() *FSA { return r.right }
func (r *ArrowRule) Pairs() []Pair  { return r.pairs }

// Matches tests a concrete pair against the center and arrow direction.
// required is the truth value the contexts must then produce; applies is
// false when the rule says nothing about this pair.
func (r *ArrowRule) Matches(in, out string, subsets Subsets) (required, applies bool) {
	switch r.arrow {
	case "==>":
		if r.center.Matches(in, out, subsets) {
			return true, true
		}
	case "<==":
		if r.center.MatchesNegatedOutput(in, out, subsets) {
			return false, true
		}
	case "/<=":
		if r.center.Matches(in, out, subsets) {
			return false, true
		}
	case "<=>":
		if r.center.Matches(in, out, subsets) {
			return true, true
		}
		if r.center.MatchesNegatedOutput(in, out, subsets) {
			return false, true
		}
	}
	return false, false
}

// RightAdvance moves the right-context DFA. Reaching an accepting state
// settles the rule.
func (r *ArrowRule) RightAdvance(states []int, in, out string, subsets Subsets) ([]int, verdict) {
	next, halt := r.right.Advance(states, in, out, subsets)
	if halt {
		return nil, vSatisfied
	}
	if len(next) == 0 {
		return nil, vDead
	}
	return next, vContinue
}

// InitialStates: arrow rules only become active when their center pair
// is seen.
func (r *ArrowRule) InitialStates() ([]int, bool) { return nil, false }

// FinalTruth: an arrow rule still active at the end of the word never
// completed its right context.
func (r *ArrowRule) FinalTruth([]int) bool { return false }

// TableRow is one row of an FSA-table rule: its state number, whether
// the state accepts, and the successor per pair column (0 rejects).
type TableRow struct {
	State int
	Final bool
	Next  []int
}

// TableRule is a rule given as an explicit transition table over pair
// columns. It is active for the whole word and must end in an accepting
// state.
type TableRule struct {
	name   string
	pairs  []Pair
	rows   []TableRow
	start  int
	finals map[int]bool
	moves  map[int][]int

	orderOnce sync.Once
	order     []int
}

// NewTableRule builds a table rule. The first row's state is the start
// state; every row must have one successor per pair column.
func NewTableRule(name string, pairs []Pair, rows []TableRow) (*TableRule, error) {
	if len(rows) == 0 {
		return nil, &GrammarError{Rule: name, Msg: "table has no rows"}
	}
	t := &TableRule{
		name:   name,
		pairs:  pairs,
		rows:   rows,
		start:  rows[0].State,
		finals: make(map[int]bool),
		moves:  make(map[int][]int),
	}
	for _, row := range rows {
		if len(row.Next) != len(pairs) {
			return nil, &GrammarError{
				Rule: name,
				Msg:  fmt.Sprintf("row %d has %d transitions, want %d", row.State, len(row.Next), len(pairs)),
			}
		}
		if _, dup := t.moves[row.State]; dup {
			return nil, &GrammarError{Rule: name, Msg: fmt.Sprintf("duplicate row for state %d", row.State)}
		}
		t.moves[row.State] = row.Next
		if row.Final {
			t.finals[row.State] = true
		}
	}
	return t, nil
}

func (t *TableRule) Name() string     { return t.name }
func (t *TableRule) Pairs() []Pair    { return t.pairs }
func (t *TableRule) Rows() []TableRow { return t.rows }

// columnOrder sorts the pair columns by ascending subset cardinality,
// input side first. More specific pairs shadow more general ones: only
// the first matching column per state is taken.
func (t *TableRule) columnOrder(subsets Subsets) []int {
	t.orderOnce.Do(func() {
		t.order = make([]int, len(t.pairs))
		for i := range t.order {
			t.order[i] = i
		}
		sort.SliceStable(t.order, func(a, b int) bool {
			pa, pb := t.pairs[t.order[a]], t.pairs[t.order[b]]
			if sa, sb := subsets.Size(pa.In), subsets.Size(pb.In); sa != sb {
				return sa < sb
			}
			return subsets.Size(pa.Out) < subsets.Size(pb.Out)
		})
	})
	return t.order
}

// RightAdvance moves every active state along its first matching column.
// Transitions to undeclared states (0 in the file format) reject.
func (t *TableRule) RightAdvance(states []int, in, out string, subsets Subsets) ([]int, verdict) {
	order := t.columnOrder(subsets)
	seen := make(map[int]bool)
	var next []int
	for _, s := range states {
		row, ok := t.moves[s]
		if !ok {
			continue
		}
		for _, idx := range order {
			if !t.pairs[idx].Matches(in, out, subsets) {
				continue
			}
			target := row[idx]
			if _, declared := t.moves[target]; declared && !seen[target] {
				seen[target] = true
				next = append(next, target)
			}
			break
		}
	}
	if len(next) == 0 {
		return nil, vDead
	}
	sort.Ints(next)
	return next, vContinue
}

func (t *TableRule) InitialStates() ([]int, bool) { return []int{t.start}, true }

func (t *TableRule) FinalTruth(states []int) bool {
	for _, s := range states {
		if t.finals[s] {
			return true
		}
	}
	return false
}

// Context expression trees. build wires the node into the NFA starting
// at entry and returns the exit state.
type ctxNode interface {
	build(f *FSA, entry int, reverse bool) int
}

type pairNode struct{ p Pair }

func (n pairNode) build(f *FSA, entry int, reverse bool) int {
	exit := f.NewState()
	f.Insert(entry, n.p, exit)
	return exit
}

type seqNode struct{ first, second ctxNode }

func (n seqNode) build(f *FSA, entry int, reverse bool) int {
	a, b := n.first, n.second
	if reverse {
		a, b = b, a
	}
	return b.build(f, a.build(f, entry, reverse), reverse)
}

type altNode struct{ left, right ctxNode }

func (n altNode) build(f *FSA, entry int, reverse bool) int {
	entryA := f.NewState()
	f.InsertEpsilon(entry, entryA)
	exitA := n.left.build(f, entryA, reverse)
	entryB := f.NewState()
	f.InsertEpsilon(entry, entryB)
	exitB := n.right.build(f, entryB, reverse)
	exit := f.NewState()
	f.InsertEpsilon(exitA, exit)
	f.InsertEpsilon(exitB, exit)
	return exit
}

type plusNode struct{ inner ctxNode }

func (n plusNode) build(f *FSA, entry int, reverse bool) int {
	exit := n.inner.build(f, entry, reverse)
	f.InsertEpsilon(exit, entry)
	return exit
}

type starNode struct{ inner ctxNode }

func (n starNode) build(f *FSA, entry int, reverse bool) int {
	exit := plusNode{n.inner}.build(f, entry, reverse)
	f.InsertEpsilon(entry, exit)
	return exit
}

type optNode struct{ inner ctxNode }

func (n optNode) build(f *FSA, entry int, reverse bool) int {
	exit := n.inner.build(f, entry, reverse)
	f.InsertEpsilon(entry, exit)
	return exit
}

func collectPairs(n ctxNode, out *[]Pair) {
	switch v := n.(type) {
	case pairNode:
		*out = append(*out, v.p)
	case seqNode:
		collectPairs(v.first, out)
		collectPairs(v.second, out)
	case altNode:
		collectPairs(v.left, out)
		collectPairs(v.right, out)
	case plusNode:
		collectPairs(v.inner, out)
	case starNode:
		collectPairs(v.inner, out)
	case optNode:
		collectPairs(v.inner, out)
	}
}

// ruleParser is a recursive-descent parser over a rule body's tokens.
type ruleParser struct {
	rule   string
	tokens []string
	i      int
}

func (p *ruleParser) done() bool { return p.i >= len(p.tokens) }

func (p *ruleParser) peek() (string, bool) {
	if p.done() {
		return "", false
	}
	return p.tokens[p.i], true
}

func (p *ruleParser) errorf(format string, args ...any) error {
	e := &GrammarError{Rule: p.rule, Pos: p.i, Msg: fmt.Sprintf(format, args...)}
	if t, ok := p.peek(); ok {
		e.Token = t
	}
	return e
}

func (p *ruleParser) expect(tok string) error {
	if t, ok := p.peek(); !ok || t != tok {
		return p.errorf("expected %q", tok)
	}
	p.i++
	return nil
}

// parsePair reads "sym" or "sym : sym" at the current position.
func (p *ruleParser) parsePair() (Pair, error) {
	t, ok := p.peek()
	if !ok || specialTokens[t] {
		return Pair{}, p.errorf("expected a symbol")
	}
	p.i++
	if next, ok := p.peek(); !ok || next != ":" {
		return Pair{In: t, Out: t}, nil
	}
	p.i++
	out, ok := p.peek()
	if !ok || specialTokens[out] {
		return Pair{}, p.errorf("expected a symbol after colon")
	}
	p.i++
	return Pair{In: t, Out: out}, nil
}

func (p *ruleParser) parseArrow() (string, error) {
	t, ok := p.peek()
	if !ok || !arrowTokens[t] {
		return "", p.errorf("expected an arrow (==>, <==, <=>, /<=)")
	}
	p.i++
	return t, nil
}

// parseList reads a possibly empty run of singletons, combined as a
// sequence (seq) or an alternation. An empty run returns nil.
func (p *ruleParser) parseList(seq bool) (ctxNode, error) {
	t, ok := p.peek()
	if !ok || t == ")" || t == "]" || t == "_" || arrowTokens[t] {
		return nil, nil
	}
	head, err := p.parseSingleton()
	if err != nil {
		return nil, err
	}
	rest, err := p.parseList(seq)
	if err != nil {
		return nil, err
	}
	if rest == nil {
		return head, nil
	}
	if seq {
		return seqNode{head, rest}, nil
	}
	return altNode{head, rest}, nil
}

// parseSingleton reads one item: a pair, a "(...)" sequence group or a
// "[...]" alternation group, with optional *, & or ? suffixes.
func (p *ruleParser) parseSingleton() (ctxNode, error) {
	t, ok := p.peek()
	if !ok {
		return nil, p.errorf("unexpected end of rule")
	}
	var node ctxNode
	switch {
	case t == "(":
		p.i++
		inner, err := p.parseList(true)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			return nil, p.errorf("empty group")
		}
		if err := p.expect(")"); err != nil {
			return nil, &GrammarError{Rule: p.rule, Pos: p.i, Msg: "unbalanced parenthesis, expected \")\""}
		}
		node = inner
	case t == "[":
		p.i++
		inner, err := p.parseList(false)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			return nil, p.errorf("empty alternation")
		}
		if err := p.expect("]"); err != nil {
			return nil, &GrammarError{Rule: p.rule, Pos: p.i, Msg: "unbalanced bracket, expected \"]\""}
		}
		node = inner
	case specialTokens[t]:
		return nil, p.errorf("unexpected token")
	default:
		pair, err := p.parsePair()
		if err != nil {
			return nil, err
		}
		node = pairNode{pair}
	}

	for {
		t, ok := p.peek()
		if !ok {
			return node, nil
		}
		switch t {
		case "*":
			node = starNode{node}
		case "&":
			node = plusNode{node}
		case "?":
			node = optNode{node}
		default:
			return node, nil
		}
		p.i++
	}
}
