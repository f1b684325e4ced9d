package kimmo

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ruleFile is the parsed content of a .rul file.
type ruleFile struct {
	subsets  Subsets
	defaults []Pair
	rules    []Rule
	alphabet []string
	any      string
	null     string
	boundary string
}

// parseRuleText reads the line-oriented rule format: SUBSET, ALPHABET,
// ANY, NULL, BOUNDARY, DEFAULT, ARROWRULE and RULE transition tables.
// Lines starting with "#" or ";" are comments unless that character was
// declared as the boundary.
func parseRuleText(text string) (*ruleFile, error) {
	rf := &ruleFile{subsets: make(Subsets)}

	var (
		tableName string
		rowCount  int
		colCount  int
		columns   []Pair
		rows      []TableRow
		headerRow []string
	)
	resetTable := func() {
		tableName = ""
		rowCount, colCount = 0, 0
		columns, rows, headerRow = nil, nil, nil
	}

	lineno := 0
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if (line[0] == '#' && rf.boundary != "#") || (line[0] == ';' && rf.boundary != ";") {
			continue
		}
		items := strings.Fields(line)

		switch items[0] {
		case "SUBSET":
			if len(items) < 3 {
				return nil, &GrammarError{Line: lineno, Msg: "SUBSET needs a name and members"}
			}
			name := items[1]
			if name == "ALL" {
				name = "@"
			}
			rf.subsets[name] = items[2:]
		case "ALPHABET":
			rf.alphabet = items[1:]
		case "ANY":
			if len(items) < 2 {
				return nil, &GrammarError{Line: lineno, Msg: "ANY needs a symbol"}
			}
			rf.any = items[1]
		case "NULL":
			if len(items) < 2 {
				return nil, &GrammarError{Line: lineno, Msg: "NULL needs a symbol"}
			}
			rf.null = items[1]
		case "BOUNDARY":
			if len(items) < 2 {
				return nil, &GrammarError{Line: lineno, Msg: "BOUNDARY needs a symbol"}
			}
			rf.boundary = items[1]
		case "DEFAULT":
			pairs, err := ParsePairSequence(strings.Join(items[1:], " "), false)
			if err != nil {
				return nil, &GrammarError{Line: lineno, Msg: err.Error()}
			}
			rf.defaults = append(rf.defaults, pairs...)
		case "ARROWRULE":
			if len(items) < 3 {
				return nil, &GrammarError{Line: lineno, Msg: "ARROWRULE needs a name and a body"}
			}
			r, err := NewArrowRule(items[1], strings.Join(items[2:], " "))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineno, err)
			}
			rf.rules = append(rf.rules, r)
		case "RULE":
			if tableName != "" {
				return nil, &GrammarError{Line: lineno, Msg: "previous RULE table not finished"}
			}
			if len(items) < 4 {
				return nil, &GrammarError{Line: lineno, Msg: "RULE needs a name, a row count and a column count"}
			}
			var err error
			if rowCount, err = strconv.Atoi(items[len(items)-2]); err != nil {
				return nil, &GrammarError{Line: lineno, Msg: "bad RULE row count"}
			}
			if colCount, err = strconv.Atoi(items[len(items)-1]); err != nil {
				return nil, &GrammarError{Line: lineno, Msg: "bad RULE column count"}
			}
			tableName = strings.Join(items[1:len(items)-2], " ")
		default:
			if tableName == "" {
				return nil, &GrammarError{Line: lineno, Msg: "unknown directive " + items[0]}
			}
			state, final, ok := parseRowHeader(items[0])
			switch {
			case ok:
				if columns == nil {
					return nil, &GrammarError{Line: lineno, Msg: "table row before pair columns"}
				}
				if len(items)-1 != colCount {
					return nil, &GrammarError{
						Line: lineno,
						Msg:  fmt.Sprintf("row %d has %d transitions, want %d", state, len(items)-1, colCount),
					}
				}
				next := make([]int, colCount)
				for i, tok := range items[1:] {
					n, err := strconv.Atoi(tok)
					if err != nil {
						return nil, &GrammarError{Line: lineno, Msg: "bad transition " + tok}
					}
					next[i] = n
				}
				rows = append(rows, TableRow{State: state, Final: final, Next: next})
				if state == rowCount {
					rule, err := NewTableRule(tableName, columns, rows)
					if err != nil {
						return nil, err
					}
					rf.rules = append(rf.rules, rule)
					resetTable()
				}
			case len(items) == colCount:
				// two symbol lines, lexical then surface, give the columns
				if headerRow == nil {
					headerRow = items
					continue
				}
				var err error
				if columns, err = pairColumns(headerRow, items); err != nil {
					return nil, &GrammarError{Line: lineno, Msg: err.Error()}
				}
				headerRow = nil
			default:
				return nil, &GrammarError{Line: lineno, Msg: "unexpected line in RULE table"}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	if tableName != "" {
		return nil, &GrammarError{Rule: tableName, Msg: "RULE table not finished"}
	}

	// an old-style ALPHABET plus ANY declares the wildcard subset
	if rf.any != "" && len(rf.alphabet) > 0 {
		members := append([]string{}, rf.alphabet...)
		if rf.null != "" {
			members = append(members, rf.null)
		}
		if rf.boundary != "" {
			members = append(members, rf.boundary)
		}
		rf.subsets[rf.any] = members
	}
	return rf, nil
}

// parseRowHeader recognizes "3:" (accepting) and "3." (non-accepting)
// table row leaders.
func parseRowHeader(tok string) (state int, final bool, ok bool) {
	if len(tok) < 2 {
		return 0, false, false
	}
	switch tok[len(tok)-1] {
	case ':':
		final = true
	case '.':
		final = false
	default:
		return 0, false, false
	}
	n, err := strconv.Atoi(tok[:len(tok)-1])
	if err != nil {
		return 0, false, false
	}
	return n, final, true
}

// pairColumns combines the two column-symbol lines into pairs, writing
// "x" for identical sides and "x:y" otherwise, then reparses the result
// with the permissive table tokenizer.
func pairColumns(from, to []string) ([]Pair, error) {
	cols := make([]string, len(from))
	for i := range from {
		if from[i] == to[i] {
			cols[i] = from[i]
		} else {
			cols[i] = from[i] + ":" + to[i]
		}
	}
	return ParsePairSequence(strings.Join(cols, " "), true)
}

// parseLexiconText reads the lexicon format: "Name:" starts a word
// group; a line with an interior colon is an alternation; any other
// line inside a group is an entry "letters next gloss" (gloss optional,
// quoted fields allowed, None for an absent field).
func parseLexiconText(text string) ([]*Lexicon, []*Alternation, error) {
	var (
		lexicons []*Lexicon
		group    string
		words    []*Word
		altText  []string
	)
	flush := func() {
		if group != "" && len(words) > 0 {
			lexicons = append(lexicons, NewLexicon(group, words))
		}
		words = nil
	}

	lineno := 0
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		lineno++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		switch {
		case strings.HasSuffix(line, ":"):
			flush()
			group = strings.TrimSuffix(line, ":")
		case strings.Contains(line, ":"):
			altText = append(altText, line)
		case group != "":
			w, err := parseLexiconEntry(line)
			if err != nil {
				return nil, nil, &LexiconError{Line: lineno, Text: line, Msg: err.Error()}
			}
			words = append(words, w)
		default:
			return nil, nil, &LexiconError{Line: lineno, Text: line, Msg: "entry outside a lexicon group"}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("read lexicon: %w", err)
	}
	flush()

	alternations, err := parseAlternations(altText)
	if err != nil {
		return nil, nil, err
	}
	return lexicons, alternations, nil
}

// parseLexiconEntry reads "letters next gloss" or "letters next".
func parseLexiconEntry(line string) (*Word, error) {
	fields, err := splitQuoted(line)
	if err != nil {
		return nil, err
	}
	for i, f := range fields {
		fields[i] = unquoteField(f)
	}
	switch len(fields) {
	case 3:
		return &Word{Letters: fields[0], Next: fields[1], Gloss: fields[2]}, nil
	case 2:
		return &Word{Letters: fields[0], Next: fields[1]}, nil
	default:
		return nil, fmt.Errorf("expected 2 or 3 fields, got %d", len(fields))
	}
}

// splitQuoted splits on whitespace but keeps a double-quoted run of
// fields together.
func splitQuoted(line string) ([]string, error) {
	raw := strings.Fields(line)
	var fields []string
	for i := 0; i < len(raw); i++ {
		f := raw[i]
		if strings.HasPrefix(f, `"`) && !(len(f) > 1 && strings.HasSuffix(f, `"`)) {
			j := i + 1
			for ; j < len(raw); j++ {
				if strings.HasSuffix(raw[j], `"`) {
					break
				}
			}
			if j == len(raw) {
				return nil, fmt.Errorf("unterminated quote")
			}
			f = strings.Join(raw[i:j+1], " ")
			i = j
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// unquoteField strips surrounding quotes and maps the None and ''
// sentinels to the empty string.
func unquoteField(f string) string {
	if f == "None" || f == "''" || f == `""` {
		return ""
	}
	if len(f) >= 2 {
		if (f[0] == '"' && f[len(f)-1] == '"') || (f[0] == '\'' && f[len(f)-1] == '\'') {
			return f[1 : len(f)-1]
		}
	}
	return f
}

// parseAlternations turns the collected alternation lines into groups:
// a token containing a colon names a new group, every following plain
// token joins it.
func parseAlternations(lines []string) ([]*Alternation, error) {
	var (
		alternations []*Alternation
		group        string
		names        []string
	)
	flush := func() {
		if group != "" && len(names) > 0 {
			alternations = append(alternations, NewAlternation(group, names))
		}
		names = nil
	}
	for _, line := range lines {
		for _, tok := range strings.Fields(line) {
			if strings.Contains(tok, ":") {
				flush()
				group = strings.TrimSuffix(tok, ":")
				if strings.Contains(group, ":") {
					return nil, &LexiconError{Text: line, Msg: "bad alternation name " + tok}
				}
				continue
			}
			names = append(names, unquoteField(tok))
		}
	}
	flush()
	return alternations, nil
}
