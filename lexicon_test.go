package kimmo

import "testing"

func testMorphology() *Morphology {
	like := &Word{Letters: "like", Gloss: "VERB like", Next: "Suffix"}
	love := &Word{Letters: "love", Gloss: "VERB love", Next: "Suffix"}
	verbs := NewLexicon("Verb", []*Word{like, love})
	suffixes := NewLexicon("Suffix", []*Word{
		{Letters: "+s", Gloss: "+3SG", Next: "End"},
		{Letters: "+ed", Gloss: "+PAST", Next: "End"},
	})
	end := NewLexicon("End", []*Word{{Letters: "#"}})
	begin := NewAlternation("Begin", []string{"Verb"})
	return NewMorphology([]*Lexicon{verbs, suffixes, end}, []*Alternation{begin}, "")
}

func TestTrieSharesPrefixes(t *testing.T) {
	lex := NewLexicon("L", []*Word{
		{Letters: "cat"},
		{Letters: "car"},
		{Letters: "dog"},
	})
	if len(lex.root.edges) != 2 {
		t.Fatalf("root should branch on c and d, got %d edges", len(lex.root.edges))
	}
	c := lex.root.edges["c"]
	if c == nil || len(c.edges) != 1 {
		t.Fatal("cat and car should share the c-a prefix")
	}
	a := c.edges["a"]
	if a == nil || len(a.edges) != 2 {
		t.Fatalf("after 'ca' the trie should branch on t and r")
	}
}

func TestTrieTerminalWords(t *testing.T) {
	lex := NewLexicon("L", []*Word{
		{Letters: "a", Gloss: "short"},
		{Letters: "ab", Gloss: "long"},
	})
	n := lex.root.edges["a"]
	if n == nil || len(n.words) != 1 || n.words[0].Gloss != "short" {
		t.Fatal("'a' should be terminal one step down")
	}
	if n.edges["b"] == nil || len(n.edges["b"].words) != 1 {
		t.Fatal("'ab' should be terminal two steps down")
	}
}

func TestMorphologyInitialState(t *testing.T) {
	m := testMorphology()
	state := m.InitialState()
	if len(state) != 1 {
		t.Fatalf("Begin resolves to one trie root, got %d", len(state))
	}
}

// An alternation naming a missing sublexicon resolves to the empty
// frontier, not an error.
func TestUnknownAlternationResolvesEmpty(t *testing.T) {
	begin := NewAlternation("Begin", []string{"NoSuchLexicon"})
	m := NewMorphology(nil, []*Alternation{begin}, "")
	if state := m.InitialState(); len(state) != 0 {
		t.Errorf("unknown sublexicon should resolve to an empty state, got %d nodes", len(state))
	}
}

// A cyclic alternation chain resolves to its non-cyclic part instead of
// diverging.
func TestCyclicAlternation(t *testing.T) {
	lex := NewLexicon("Noun", []*Word{{Letters: "cat", Gloss: "NOUN"}})
	begin := NewAlternation("Begin", []string{"Begin", "Noun"})
	m := NewMorphology([]*Lexicon{lex}, []*Alternation{begin}, "")
	state := m.InitialState()
	if len(state) != 1 {
		t.Fatalf("cyclic Begin should still resolve Noun, got %d nodes", len(state))
	}
}

func TestPossibleNextChars(t *testing.T) {
	m := testMorphology()
	chars := m.PossibleNextChars(m.InitialState())
	if !chars["l"] {
		t.Errorf("expected l as a possible first character, got %v", chars)
	}
	if chars["s"] {
		t.Errorf("s should not start any verb, got %v", chars)
	}
}

// PossibleNextChars looks through a completed entry into its
// continuation lexicon.
func TestPossibleNextCharsThroughWord(t *testing.T) {
	m := testMorphology()
	state := m.InitialState()
	for _, c := range []string{"l", "i", "k", "e"} {
		advs := m.Advance(state, c)
		if len(advs) == 0 {
			t.Fatalf("no advance on %q", c)
		}
		state = advs[len(advs)-1].State
	}
	chars := m.PossibleNextChars(state)
	if !chars["+"] {
		t.Errorf("after 'like' the suffix lexicon should offer +, got %v", chars)
	}
}

func TestAdvanceCollectsWords(t *testing.T) {
	m := testMorphology()
	state := m.InitialState()
	var collected []*Word
	for _, c := range []string{"l", "i", "k", "e", "+", "s"} {
		advs := m.Advance(state, c)
		if len(advs) == 0 {
			t.Fatalf("no advance on %q", c)
		}
		adv := advs[len(advs)-1]
		state = adv.State
		collected = append(collected, adv.Words...)
	}
	// consuming '+' crosses the end of "like" and records it
	found := false
	for _, w := range collected {
		if w.Gloss == "VERB like" {
			found = true
		}
	}
	if !found {
		t.Errorf("advancing through like+s should record the verb entry, got %v", collected)
	}
}

// Entries without a gloss pass through silently.
func TestAdvanceSkipsUnglossedWords(t *testing.T) {
	inner := NewLexicon("Inner", []*Word{{Letters: "x", Gloss: "X"}})
	outer := NewLexicon("Outer", []*Word{{Letters: "a", Next: "Inner"}})
	begin := NewAlternation("Begin", []string{"Outer"})
	m := NewMorphology([]*Lexicon{inner, outer}, []*Alternation{begin}, "")

	state := m.InitialState()
	advs := m.Advance(state, "a")
	if len(advs) == 0 {
		t.Fatal("no advance on a")
	}
	state = advs[len(advs)-1].State
	for _, adv := range m.Advance(state, "x") {
		for _, w := range adv.Words {
			if w.Gloss == "" {
				t.Errorf("unglossed entry %q should not be recorded", w.Letters)
			}
		}
	}
}
