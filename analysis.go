package kimmo

import (
	"iter"
	"strings"
)

// Recognition is one analysis of a surface form: the underlying lexical
// string and the lexicon entries traversed. Ambiguous segmentations can
// produce the same recognition more than once.
type Recognition struct {
	Lexical string
	Words   []*Word
}

// Gloss joins the entry glosses of the recognition.
func (r Recognition) Gloss() string {
	parts := make([]string, 0, len(r.Words))
	for _, w := range r.Words {
		if w.Gloss != "" {
			parts = append(parts, w.Gloss)
		}
	}
	return strings.Join(parts, " ")
}

// Take collects up to limit elements of a sequence; limit <= 0 collects
// everything.
func Take[T any](seq iter.Seq[T], limit int) []T {
	var out []T
	for v := range seq {
		out = append(out, v)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
