// Package kimmo is a two-level morphological analyzer and generator in
// the PC-KIMMO tradition: surface and lexical strings are related by a
// set of parallel symbol-pair rules, and recognition is additionally
// constrained by a lexicon organized as alternations over word groups.
package kimmo

import (
	"fmt"
	"iter"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Control couples a compiled rule set with a compiled lexicon. It is
// built once from grammar text and then queried; queries are safe to
// run concurrently.
type Control struct {
	rules    *RuleSet
	morph    *Morphology
	boundary string
}

// NewControl compiles lexicon and rule text. Any malformed declaration
// fails the whole construction.
func NewControl(lexiconText, ruleText string) (*Control, error) {
	rf, err := parseRuleText(ruleText)
	if err != nil {
		return nil, err
	}
	lexicons, alternations, err := parseLexiconText(lexiconText)
	if err != nil {
		return nil, err
	}
	rules, err := NewRuleSet(rf.subsets, rf.defaults, rf.rules, rf.null, rf.boundary)
	if err != nil {
		return nil, err
	}
	return &Control{
		rules:    rules,
		morph:    NewMorphology(lexicons, alternations, ""),
		boundary: rf.boundary,
	}, nil
}

// NewControlFromFiles compiles a .lex and a .rul file.
func NewControlFromFiles(lexiconPath, rulePath string) (*Control, error) {
	lex, err := os.ReadFile(lexiconPath)
	if err != nil {
		return nil, fmt.Errorf("open lexicon %s: %w", lexiconPath, err)
	}
	rul, err := os.ReadFile(rulePath)
	if err != nil {
		return nil, fmt.Errorf("open rules %s: %w", rulePath, err)
	}
	return NewControl(string(lex), string(rul))
}

// RuleSet returns the compiled rules.
func (c *Control) RuleSet() *RuleSet { return c.rules }

// Morphology returns the compiled lexicon.
func (c *Control) Morphology() *Morphology { return c.morph }

// SetLogger installs a logger for search traces.
func (c *Control) SetLogger(l zerolog.Logger) { c.rules.SetLogger(l) }

// Generate lazily enumerates the surface forms of a lexical word such
// as "cat+s". The boundary character, when declared, is appended before
// the search and stripped from the results.
func (c *Control) Generate(word string) iter.Seq[string] {
	return func(yield func(string) bool) {
		w := word + c.boundary
		for result := range c.rules.Generate(splitSymbols(w)) {
			if c.boundary != "" {
				result = strings.ReplaceAll(result, c.boundary, "")
			}
			if !yield(result) {
				return
			}
		}
	}
}

// Recognize lazily enumerates the analyses of a surface word such as
// "cats" against the lexicon.
func (c *Control) Recognize(word string) iter.Seq[Recognition] {
	return c.rules.Recognize(splitSymbols(word), c.morph)
}

func splitSymbols(word string) []string {
	tokens := make([]string, 0, len(word))
	for _, r := range word {
		tokens = append(tokens, string(r))
	}
	return tokens
}
