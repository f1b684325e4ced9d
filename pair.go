package kimmo

import (
	"fmt"
	"regexp"
	"strings"
)

// Pair is a lexical/surface symbol pair, the alphabet element of the
// two-level formalism. Either side is a literal symbol or the name of a
// declared subset, optionally negated with a leading "~".
type Pair struct {
	// In is the lexical (input) side.
	In string
	// Out is the surface (output) side.
	Out string
}

// NewPair builds a Pair from a lexical and a surface symbol.
func NewPair(in, out string) Pair {
	return Pair{In: in, Out: out}
}

// ParsePair reads a single "sym" or "sym:sym" description.
func ParsePair(text string) (Pair, error) {
	pairs, err := ParsePairSequence(text, true)
	if err != nil {
		return Pair{}, err
	}
	if len(pairs) != 1 {
		return Pair{}, fmt.Errorf("expected a single pair in %q, got %d", text, len(pairs))
	}
	return pairs[0], nil
}

func (p Pair) String() string {
	return p.In + ":" + p.Out
}

// Subsets maps a subset name to the literal symbols it contains.
// Built once when a grammar is compiled, read-only afterwards.
type Subsets map[string][]string

// Contains reports whether subset name includes the literal symbol sym.
func (s Subsets) Contains(name, sym string) bool {
	for _, member := range s[name] {
		if member == sym {
			return true
		}
	}
	return false
}

// Has reports whether a subset with the given name is declared.
func (s Subsets) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Size returns the cardinality a symbol contributes when ordering
// candidate pairs: the subset size for subset names, 1 for literals.
func (s Subsets) Size(sym string) int {
	if members, ok := s[sym]; ok {
		return len(members)
	}
	return 1
}

// Matches reports whether the pair admits the concrete (in, out) symbols.
// A side matches literally, or by membership in the subset it names
// (negated membership for "~" sides). An unknown subset name never
// matches.
func (p Pair) Matches(in, out string, subsets Subsets) bool {
	return sideMatches(p.In, in, subsets) && sideMatches(p.Out, out, subsets)
}

// MatchesNegatedOutput is Matches with the output-side test inverted,
// used by <== and <=> rules to detect a center pair realized as
// something other than its declared output.
func (p Pair) MatchesNegatedOutput(in, out string, subsets Subsets) bool {
	return sideMatches(p.In, in, subsets) && !sideMatches(p.Out, out, subsets)
}

func sideMatches(side, sym string, subsets Subsets) bool {
	if side == sym {
		return true
	}
	if name, negated := strings.CutPrefix(side, "~"); negated {
		if !subsets.Has(name) {
			return false
		}
		return !subsets.Contains(name, sym)
	}
	if !subsets.Has(side) {
		return false
	}
	return subsets.Contains(side, sym)
}

// Symbol tokenizers. Rule bodies restrict the symbol character set; FSA
// table columns allow any non-whitespace symbol except the colon.
var (
	reSymbols    = regexp.MustCompile(`[a-zA-Z0-9+'\-#@$%!^` + "`" + `}{]+|:`)
	reSymbolsFSA = regexp.MustCompile(`[^:\s]+|:`)
)

// ParsePairSequence reads a whitespace-separated description of pairs,
// each "sym" (same symbol on both sides) or "sym:sym". fsa selects the
// permissive tokenizer used for table columns.
func ParsePairSequence(description string, fsa bool) ([]Pair, error) {
	re := reSymbols
	if fsa {
		re = reSymbolsFSA
	}
	tokens := re.FindAllString(description, -1)

	var pairs []Pair
	prev := ""
	havePrev := false
	colon := false
	for _, tok := range tokens {
		switch {
		case tok == ":":
			if colon {
				return nil, fmt.Errorf("two colons in a row in %q", description)
			}
			if !havePrev {
				return nil, fmt.Errorf("colon must follow a symbol in %q", description)
			}
			colon = true
		case colon:
			pairs = append(pairs, Pair{In: prev, Out: tok})
			havePrev = false
			colon = false
		default:
			if havePrev {
				pairs = append(pairs, Pair{In: prev, Out: prev})
			}
			prev = tok
			havePrev = true
		}
	}
	if colon {
		return nil, fmt.Errorf("colon with no following symbol in %q", description)
	}
	if havePrev {
		pairs = append(pairs, Pair{In: prev, Out: prev})
	}
	return pairs, nil
}
