package kimmo

import (
	"errors"
	"strings"
	"testing"
)

func TestArrowRuleParse(t *testing.T) {
	r, err := NewArrowRule("elision", "e:0 <=> C _ +:0 V")
	if err != nil {
		t.Fatalf("NewArrowRule: %v", err)
	}
	if r.Arrow() != "<=>" {
		t.Errorf("arrow = %q, want <=>", r.Arrow())
	}
	if r.Center() != (Pair{"e", "0"}) {
		t.Errorf("center = %v, want e:0", r.Center())
	}
	if r.LeftFSA() == nil || r.RightFSA() == nil {
		t.Error("both contexts should compile to automata")
	}
	pairs := make(map[string]bool)
	for _, p := range r.Pairs() {
		pairs[p.String()] = true
	}
	for _, want := range []string{"e:0", "C:C", "+:0", "V:V"} {
		if !pairs[want] {
			t.Errorf("rule pairs missing %s (have %v)", want, r.Pairs())
		}
	}
}

func TestArrowRuleParseVariants(t *testing.T) {
	bodies := []string{
		"0:e ==> [Csib (c h) (s h) y:i] +:0 _ s [+:0 #]",
		"y:i <=> @:C +:0? _ +:0 ~I",
		"e:0 <== V C* _ +:0",
		"a /<= b _ c",
		"x:y ==> _",
	}
	for _, body := range bodies {
		if _, err := NewArrowRule("r", body); err != nil {
			t.Errorf("NewArrowRule(%q): %v", body, err)
		}
	}
}

func TestArrowRuleUnbalancedBracket(t *testing.T) {
	_, err := NewArrowRule("bad", "a <== [b c _ d")
	if err == nil {
		t.Fatal("unbalanced bracket should fail")
	}
	var ge *GrammarError
	if !errors.As(err, &ge) {
		t.Fatalf("want *GrammarError, got %T: %v", err, err)
	}
	if !strings.Contains(ge.Msg, "bracket") {
		t.Errorf("error should name the bracket: %v", ge)
	}
	t.Logf("error: %v", ge)
}

func TestArrowRuleParseErrors(t *testing.T) {
	bodies := []string{
		"a b _ c",         // no arrow
		"==> a _ b",       // no center pair
		"a <== b _ c d )", // stray token
		"a <== (b _ c",    // unbalanced parenthesis
	}
	for _, body := range bodies {
		if _, err := NewArrowRule("bad", body); err == nil {
			t.Errorf("NewArrowRule(%q) should fail", body)
		}
	}
}

func TestArrowRuleMatches(t *testing.T) {
	tests := []struct {
		body              string
		in, out           string
		required, applies bool
	}{
		{"e:0 ==> a _ b", "e", "0", true, true},
		{"e:0 ==> a _ b", "e", "e", false, false},
		{"e:0 <== a _ b", "e", "e", false, true},
		{"e:0 <== a _ b", "e", "0", false, false},
		{"e:0 <=> a _ b", "e", "0", true, true},
		{"e:0 <=> a _ b", "e", "e", false, true},
		{"e:0 <=> a _ b", "a", "a", false, false},
		{"e:0 /<= a _ b", "e", "0", false, true},
		{"e:0 /<= a _ b", "e", "e", false, false},
	}
	for _, tt := range tests {
		r, err := NewArrowRule("r", tt.body)
		if err != nil {
			t.Fatalf("NewArrowRule(%q): %v", tt.body, err)
		}
		required, applies := r.Matches(tt.in, tt.out, testSubsets)
		if required != tt.required || applies != tt.applies {
			t.Errorf("%q on (%s, %s): required=%v applies=%v, want %v %v",
				tt.body, tt.in, tt.out, required, applies, tt.required, tt.applies)
		}
	}
}

func TestArrowRuleRightAdvance(t *testing.T) {
	r, err := NewArrowRule("r", "e:0 <=> _ +:0 V")
	if err != nil {
		t.Fatalf("NewArrowRule: %v", err)
	}
	states := []int{r.RightFSA().Start()}

	states, v := r.RightAdvance(states, "+", "0", testSubsets)
	if v != vContinue {
		t.Fatalf("after +:0 verdict = %v, want continue", v)
	}
	if _, v = r.RightAdvance(states, "a", "a", testSubsets); v != vSatisfied {
		t.Errorf("after a vowel the right context should be satisfied, got %v", v)
	}
	if _, v = r.RightAdvance(states, "s", "s", testSubsets); v != vDead {
		t.Errorf("a consonant should kill the right context, got %v", v)
	}
}

func newTestTableRule(t *testing.T) *TableRule {
	t.Helper()
	pairs, err := ParsePairSequence("b a:c @", true)
	if err != nil {
		t.Fatalf("pairs: %v", err)
	}
	rule, err := NewTableRule("toy", pairs, []TableRow{
		{State: 1, Final: true, Next: []int{2, 1, 1}},
		{State: 2, Final: false, Next: []int{0, 1, 2}},
	})
	if err != nil {
		t.Fatalf("NewTableRule: %v", err)
	}
	return rule
}

func TestTableRuleAdvance(t *testing.T) {
	subsets := Subsets{"@": {"a", "b", "c"}}
	rule := newTestTableRule(t)

	states, v := rule.RightAdvance([]int{1}, "b", "b", subsets)
	if v != vContinue || len(states) != 1 || states[0] != 2 {
		t.Fatalf("1 --b--> got %v (%v)", states, v)
	}
	// from state 2 a b transitions to 0, which rejects
	if _, v = rule.RightAdvance(states, "b", "b", subsets); v != vDead {
		t.Errorf("transition to state 0 should reject, got %v", v)
	}
	if !rule.FinalTruth([]int{1}) {
		t.Error("state 1 is accepting")
	}
	if rule.FinalTruth([]int{2}) {
		t.Error("state 2 is not accepting")
	}
}

// Specific pairs shadow subset columns: a:c must win over @:@ for the
// input a even though @ also covers it.
func TestTableRuleColumnOrdering(t *testing.T) {
	subsets := Subsets{"@": {"a", "b", "c"}}
	rule := newTestTableRule(t)

	states, v := rule.RightAdvance([]int{2}, "a", "c", subsets)
	if v != vContinue || len(states) != 1 || states[0] != 1 {
		t.Errorf("a:c from state 2 should use the a:c column to state 1, got %v (%v)", states, v)
	}
	// a:a only matches the @ column
	states, v = rule.RightAdvance([]int{2}, "a", "a", subsets)
	if v != vContinue || len(states) != 1 || states[0] != 2 {
		t.Errorf("a:a from state 2 should fall through to the @ column, got %v (%v)", states, v)
	}
}

func TestTableRuleValidation(t *testing.T) {
	pairs := []Pair{{"a", "a"}}
	if _, err := NewTableRule("bad", pairs, []TableRow{{State: 1, Final: true, Next: []int{1, 2}}}); err == nil {
		t.Error("row width mismatch should fail")
	}
	if _, err := NewTableRule("bad", pairs, nil); err == nil {
		t.Error("empty table should fail")
	}
	if _, err := NewTableRule("bad", pairs, []TableRow{
		{State: 1, Final: true, Next: []int{1}},
		{State: 1, Final: false, Next: []int{1}},
	}); err == nil {
		t.Error("duplicate state row should fail")
	}
}
