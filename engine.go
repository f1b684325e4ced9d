package kimmo

import (
	"iter"
	"strings"

	"github.com/rs/zerolog"
)

// RuleSet holds the compiled rules, the subsets they refer to and the
// concrete pair alphabet the search explores. It is immutable after
// construction and safe for concurrent queries.
type RuleSet struct {
	subsets  Subsets
	rules    []Rule
	arrows   []*ArrowRule
	alphabet []Pair
	null     string
	boundary string
	log      zerolog.Logger
}

// NewRuleSet compiles the alphabet from the default pairs plus every
// concrete pair a rule mentions. Defaults must be concrete; a default
// naming a subset is rejected.
func NewRuleSet(subsets Subsets, defaults []Pair, rules []Rule, null, boundary string) (*RuleSet, error) {
	if null == "" {
		null = "0"
	}
	s := &RuleSet{
		subsets:  subsets,
		rules:    rules,
		null:     null,
		boundary: boundary,
		log:      zerolog.Nop(),
	}
	seen := make(map[Pair]bool)
	for _, p := range defaults {
		if s.isSubsetName(p.In) || s.isSubsetName(p.Out) {
			return nil, &GrammarError{Msg: "default pair " + p.String() + " names a subset"}
		}
		if !seen[p] {
			seen[p] = true
			s.alphabet = append(s.alphabet, p)
		}
	}
	for _, r := range rules {
		if ar, ok := r.(*ArrowRule); ok {
			s.arrows = append(s.arrows, ar)
		}
		for _, p := range r.Pairs() {
			if s.isSubsetName(p.In) || s.isSubsetName(p.Out) {
				continue
			}
			if !seen[p] {
				seen[p] = true
				s.alphabet = append(s.alphabet, p)
			}
		}
	}
	sortPairs(s.alphabet)
	return s, nil
}

func (s *RuleSet) isSubsetName(sym string) bool {
	return strings.HasPrefix(sym, "~") || s.subsets.Has(sym)
}

// SetLogger installs a logger for per-step search traces, emitted at
// debug level. The default logger discards everything.
func (s *RuleSet) SetLogger(l zerolog.Logger) { s.log = l }

// Rules returns the compiled rules.
func (s *RuleSet) Rules() []Rule { return s.rules }

// Alphabet returns the concrete pair alphabet, sorted.
func (s *RuleSet) Alphabet() []Pair { return s.alphabet }

// Subsets returns the declared subsets.
func (s *RuleSet) Subsets() Subsets { return s.subsets }

// ruleState is one active rule on a search branch: the rule, its current
// right-context states, the position it was activated at, and the truth
// value its contexts must produce.
type ruleState struct {
	start    int
	rule     Rule
	states   []int
	required bool
}

// Generate lazily enumerates the surface forms of a lexical token
// sequence. The sequence restarts the search each time it is ranged
// over, and stops as soon as the consumer does.
func (s *RuleSet) Generate(tokens []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		s.search(searchFrame{tokens: tokens, rules: s.initialRuleStates()}, nil, false,
			func(result string, _ []*Word) bool { return yield(result) })
	}
}

// Recognize lazily enumerates the analyses of a surface token sequence
// against the lexicon.
func (s *RuleSet) Recognize(tokens []string, m *Morphology) iter.Seq[Recognition] {
	return func(yield func(Recognition) bool) {
		frame := searchFrame{
			tokens:   tokens,
			rules:    s.initialRuleStates(),
			frontier: m.InitialState(),
		}
		if len(frame.frontier) == 0 {
			s.log.Warn().Str("start", m.start).Msg("empty initial morphological state")
			return
		}
		s.search(frame, m, true, func(result string, words []*Word) bool {
			return yield(Recognition{Lexical: result, Words: words})
		})
	}
}

// searchFrame is the state of one branch of the depth-first search.
type searchFrame struct {
	tokens   []string
	pos      int
	rules    []ruleState
	frontier []*trieNode
	input    []string
	output   []string
	result   string
	words    []*Word
}

func (s *RuleSet) initialRuleStates() []ruleState {
	states := make([]ruleState, 0, len(s.rules))
	for _, r := range s.rules {
		if init, active := r.InitialStates(); active {
			states = append(states, ruleState{rule: r, states: init, required: true})
		}
	}
	return states
}

// search explores every pair of the alphabet at the current position.
// Branch rejection is ordinary control flow; the return value is false
// only when the consumer stopped the enumeration.
func (s *RuleSet) search(fr searchFrame, m *Morphology, invert bool, yield func(string, []*Word) bool) bool {
	if fr.pos >= len(fr.tokens) {
		return s.finish(fr, m, yield)
	}

	var possible map[string]bool
	if fr.frontier != nil {
		possible = m.PossibleNextChars(fr.frontier)
	}

	for _, pair := range s.alphabet {
		if fr.frontier != nil && pair.In != s.null && !possible[pair.In] {
			continue
		}
		compare := pair.In
		if invert {
			compare = pair.Out
		}
		if compare != s.null && compare != fr.tokens[fr.pos] {
			continue
		}

		next, blocker := s.advanceRules(fr, pair)
		if blocker == "" {
			next, blocker = s.activateRules(fr, pair, next)
		}
		if blocker != "" {
			s.log.Debug().Int("pos", fr.pos).Stringer("pair", pair).
				Str("rule", blocker).Msg("blocked")
			continue
		}
		s.log.Debug().Int("pos", fr.pos).Stringer("pair", pair).
			Int("active", len(next)).Msg("step")

		nf := searchFrame{
			tokens:   fr.tokens,
			pos:      fr.pos,
			rules:    next,
			frontier: fr.frontier,
			input:    appendCopy(fr.input, pair.In),
			output:   appendCopy(fr.output, pair.Out),
			result:   fr.result,
			words:    fr.words,
		}
		if pair.In != s.null {
			if invert {
				nf.result += pair.In
			} else {
				nf.pos++
			}
		}
		if pair.Out != s.null {
			if invert {
				nf.pos++
			} else {
				nf.result += pair.Out
			}
		}

		if fr.frontier != nil && pair.In != s.null {
			for _, adv := range m.Advance(fr.frontier, pair.In) {
				branch := nf
				branch.frontier = adv.State
				branch.words = appendWords(fr.words, adv.Words)
				if !s.search(branch, m, invert, yield) {
					return false
				}
			}
		} else if !s.search(nf, m, invert, yield) {
			return false
		}
	}
	return true
}

// advanceRules moves every active rule over the pair. It returns the
// surviving rule states, or the name of the rule that rejected the
// branch.
func (s *RuleSet) advanceRules(fr searchFrame, pair Pair) ([]ruleState, string) {
	next := make([]ruleState, 0, len(fr.rules))
	for _, rs := range fr.rules {
		states, v := rs.rule.RightAdvance(rs.states, pair.In, pair.Out, s.subsets)
		switch v {
		case vSatisfied:
			if !rs.required {
				return nil, rs.rule.Name()
			}
			// requirement met, rule retires
		case vDead:
			if rs.required {
				return nil, rs.rule.Name()
			}
		default:
			next = append(next, ruleState{start: rs.start, rule: rs.rule, states: states, required: rs.required})
		}
	}
	return next, ""
}

// activateRules starts tracking every arrow rule whose center matches
// the pair. A rule demanding this realization whose left context is
// absent, or forbidding it with no right context left to fail, rejects
// the branch.
func (s *RuleSet) activateRules(fr searchFrame, pair Pair, next []ruleState) ([]ruleState, string) {
	for _, ar := range s.arrows {
		required, applies := ar.Matches(pair.In, pair.Out, s.subsets)
		if !applies {
			continue
		}
		if !s.leftContextMatches(ar, fr.input, fr.output) {
			if required {
				return nil, ar.Name()
			}
			continue
		}
		if right := ar.RightFSA(); right != nil {
			next = append(next, ruleState{start: fr.pos, rule: ar, states: []int{right.Start()}, required: required})
		} else if !required {
			return nil, ar.Name()
		}
	}
	return next, ""
}

// leftContextMatches runs the reversed left-context DFA backwards over
// the pairs consumed so far. A DFA whose start state accepts matches the
// empty context, including at the very start of the word.
func (s *RuleSet) leftContextMatches(ar *ArrowRule, input, output []string) bool {
	left := ar.LeftFSA()
	if left == nil {
		return true
	}
	if left.IsFinal(left.Start()) {
		return true
	}
	states := []int{left.Start()}
	for i := len(input) - 1; i >= 0; i-- {
		next, halt := left.Advance(states, input[i], output[i], s.subsets)
		if halt {
			return true
		}
		if len(next) == 0 {
			return false
		}
		states = next
	}
	return false
}

// finish handles an exhausted token sequence. Recognition completes the
// word through a null or boundary character in the lexicon; generation
// checks every still-active rule for its required truth value.
func (s *RuleSet) finish(fr searchFrame, m *Morphology, yield func(string, []*Word) bool) bool {
	if fr.frontier != nil {
		chars := m.PossibleNextChars(fr.frontier)
		for _, end := range []string{s.null, s.boundary} {
			if end == "" || !chars[end] {
				continue
			}
			for _, adv := range m.Advance(fr.frontier, end) {
				if !yield(fr.result, appendWords(fr.words, adv.Words)) {
					return false
				}
			}
			return true
		}
		return true
	}
	for _, rs := range fr.rules {
		if rs.rule.FinalTruth(rs.states) != rs.required {
			s.log.Debug().Str("rule", rs.rule.Name()).Msg("unsatisfied at end of word")
			return true
		}
	}
	return yield(fr.result, fr.words)
}

// appendCopy appends without sharing backing arrays between branches.
func appendCopy(xs []string, x string) []string {
	return append(xs[:len(xs):len(xs)], x)
}

func appendWords(words []*Word, more []*Word) []*Word {
	if len(more) == 0 {
		return words
	}
	return append(words[:len(words):len(words)], more...)
}
