package kimmo

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlGrammar is the single-document grammar format: subsets map to
// space-separated symbol lists, rules map names to either an arrow-rule
// body or a block starting with "FSA" holding a transition table, and
// the lexicon is inline lexicon text.
type yamlGrammar struct {
	Lexicon  string            `yaml:"lexicon"`
	Subsets  map[string]string `yaml:"subsets"`
	Defaults string            `yaml:"defaults"`
	Null     string            `yaml:"null"`
	Boundary string            `yaml:"boundary"`
	Rules    map[string]string `yaml:"rules"`
}

// LoadYAML compiles a whole grammar from one YAML document.
func LoadYAML(data []byte) (*Control, error) {
	var g yamlGrammar
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}
	if g.Null == "" {
		g.Null = "0"
	}
	if g.Boundary == "" {
		g.Boundary = "#"
	}

	subsets := make(Subsets, len(g.Subsets))
	for name, members := range g.Subsets {
		subsets[name] = strings.Fields(members)
	}
	defaults, err := ParsePairSequence(g.Defaults, false)
	if err != nil {
		return nil, &GrammarError{Msg: "defaults: " + err.Error()}
	}

	names := make([]string, 0, len(g.Rules))
	for name := range g.Rules {
		names = append(names, name)
	}
	sort.Strings(names)
	rules := make([]Rule, 0, len(names))
	for _, name := range names {
		body := strings.TrimSpace(g.Rules[name])
		var r Rule
		if strings.HasPrefix(body, "FSA") {
			r, err = parseFSABlock(name, body)
		} else {
			r, err = NewArrowRule(name, body)
		}
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}

	ruleSet, err := NewRuleSet(subsets, defaults, rules, g.Null, g.Boundary)
	if err != nil {
		return nil, err
	}
	lexicons, alternations, err := parseLexiconText(g.Lexicon)
	if err != nil {
		return nil, err
	}
	return &Control{
		rules:    ruleSet,
		morph:    NewMorphology(lexicons, alternations, ""),
		boundary: g.Boundary,
	}, nil
}

// parseFSABlock reads the "FSA" table form: two symbol lines (lexical
// then surface) followed by one line per state, with row and column
// counts inferred from the block itself.
func parseFSABlock(name, body string) (*TableRule, error) {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 4 || lines[0] != "FSA" {
		return nil, &GrammarError{Rule: name, Msg: "FSA block needs two symbol lines and at least one state row"}
	}
	from := strings.Fields(lines[1])
	to := strings.Fields(lines[2])
	if len(from) != len(to) {
		return nil, &GrammarError{Rule: name, Msg: "symbol lines differ in length"}
	}
	columns, err := pairColumns(from, to)
	if err != nil {
		return nil, &GrammarError{Rule: name, Msg: err.Error()}
	}

	var rows []TableRow
	for _, line := range lines[3:] {
		items := strings.Fields(line)
		state, final, ok := parseRowHeader(items[0])
		if !ok {
			return nil, &GrammarError{Rule: name, Msg: "bad state row " + items[0]}
		}
		if len(items)-1 != len(columns) {
			return nil, &GrammarError{
				Rule: name,
				Msg:  fmt.Sprintf("row %d has %d transitions, want %d", state, len(items)-1, len(columns)),
			}
		}
		next := make([]int, len(columns))
		for i, tok := range items[1:] {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return nil, &GrammarError{Rule: name, Msg: "bad transition " + tok}
			}
			next[i] = n
		}
		rows = append(rows, TableRow{State: state, Final: final, Next: next})
	}
	return NewTableRule(name, columns, rows)
}
