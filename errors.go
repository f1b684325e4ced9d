package kimmo

import "fmt"

// GrammarError reports a malformed rule file or rule body. Pos and Token
// locate the offending token inside the rule when known.
type GrammarError struct {
	Rule  string
	Line  int
	Pos   int
	Token string
	Msg   string
}

func (e *GrammarError) Error() string {
	switch {
	case e.Rule != "" && e.Token != "":
		return fmt.Sprintf("grammar: rule %s: %s at token %d (%q)", e.Rule, e.Msg, e.Pos, e.Token)
	case e.Rule != "":
		return fmt.Sprintf("grammar: rule %s: %s", e.Rule, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("grammar: line %d: %s", e.Line, e.Msg)
	default:
		return "grammar: " + e.Msg
	}
}

// LexiconError reports a malformed lexicon file.
type LexiconError struct {
	Line int
	Text string
	Msg  string
}

func (e *LexiconError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("lexicon: line %d: %s (%q)", e.Line, e.Msg, e.Text)
	}
	return "lexicon: " + e.Msg
}
