package kimmo

import "testing"

var testSubsets = Subsets{
	"V": {"a", "e", "i", "o", "u"},
	"C": {"b", "c", "d", "f", "g", "h", "j", "k", "l", "m", "n", "p", "q", "r", "s", "t", "v", "w", "x", "y", "z"},
}

func TestPairMatchesLiteral(t *testing.T) {
	p := NewPair("e", "0")
	if !p.Matches("e", "0", testSubsets) {
		t.Error("e:0 should match (e, 0)")
	}
	if p.Matches("e", "e", testSubsets) {
		t.Error("e:0 should not match (e, e)")
	}
	if p.Matches("a", "0", testSubsets) {
		t.Error("e:0 should not match (a, 0)")
	}
}

func TestPairMatchesSubset(t *testing.T) {
	p := NewPair("V", "V")
	for _, sym := range []string{"a", "e", "u"} {
		if !p.Matches(sym, sym, testSubsets) {
			t.Errorf("V:V should match (%s, %s)", sym, sym)
		}
	}
	if p.Matches("k", "k", testSubsets) {
		t.Error("V:V should not match (k, k)")
	}
}

func TestPairMatchesNegatedSubset(t *testing.T) {
	p := NewPair("~V", "~V")
	if !p.Matches("k", "k", testSubsets) {
		t.Error("~V:~V should match a consonant")
	}
	if p.Matches("a", "a", testSubsets) {
		t.Error("~V:~V should not match a vowel")
	}
}

func TestPairUnknownSubsetFailsClosed(t *testing.T) {
	if NewPair("X", "X").Matches("a", "a", testSubsets) {
		t.Error("unknown subset name X should never match")
	}
	if NewPair("~X", "~X").Matches("a", "a", testSubsets) {
		t.Error("negation of an unknown subset should never match")
	}
}

func TestPairMatchesNegatedOutput(t *testing.T) {
	p := NewPair("e", "0")
	if !p.MatchesNegatedOutput("e", "e", testSubsets) {
		t.Error("e:0 negated-output should match (e, e)")
	}
	if p.MatchesNegatedOutput("e", "0", testSubsets) {
		t.Error("e:0 negated-output should not match (e, 0)")
	}
	if p.MatchesNegatedOutput("a", "e", testSubsets) {
		t.Error("negated output must still require the input side to match")
	}
}

// Growing a subset can only grow the set of symbols a subset-named pair
// admits.
func TestSubsetMonotonicity(t *testing.T) {
	small := Subsets{"S": {"a", "b"}}
	large := Subsets{"S": {"a", "b", "c"}}
	p := NewPair("S", "S")
	for _, sym := range []string{"a", "b"} {
		if p.Matches(sym, sym, small) && !p.Matches(sym, sym, large) {
			t.Errorf("enlarging S dropped the match for %q", sym)
		}
	}
	if !p.Matches("c", "c", large) {
		t.Error("S:S should match the added member c")
	}
}

func TestParsePairSequence(t *testing.T) {
	tests := []struct {
		desc string
		want []Pair
	}{
		{"a b c", []Pair{{"a", "a"}, {"b", "b"}, {"c", "c"}}},
		{"e:0 +:0 #", []Pair{{"e", "0"}, {"+", "0"}, {"#", "#"}}},
		{"y:i s", []Pair{{"y", "i"}, {"s", "s"}}},
		{"a : b", []Pair{{"a", "b"}}},
	}
	for _, tt := range tests {
		got, err := ParsePairSequence(tt.desc, false)
		if err != nil {
			t.Errorf("ParsePairSequence(%q): %v", tt.desc, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("ParsePairSequence(%q) = %v, want %v", tt.desc, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ParsePairSequence(%q)[%d] = %v, want %v", tt.desc, i, got[i], tt.want[i])
			}
		}
	}
}

func TestParsePairSequenceErrors(t *testing.T) {
	for _, desc := range []string{"a : : b", ": b", "a :"} {
		if _, err := ParsePairSequence(desc, false); err == nil {
			t.Errorf("ParsePairSequence(%q) should fail", desc)
		}
	}
}

func TestParsePairSequenceFSATokens(t *testing.T) {
	// the table tokenizer admits symbols the rule tokenizer rejects
	got, err := ParsePairSequence("ç:é", true)
	if err != nil {
		t.Fatalf("ParsePairSequence fsa: %v", err)
	}
	if len(got) != 1 || got[0] != (Pair{"ç", "é"}) {
		t.Errorf("got %v, want [ç:é]", got)
	}
}
