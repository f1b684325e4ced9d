package kimmo

// Morphology is the compiled lexicon component: the named lexicons, the
// alternations linking them, and the start alternation. A search state is
// a frontier of trie nodes, one per lexicon branch still compatible with
// the lexical characters consumed so far.
type Morphology struct {
	lexicons     map[string]*Lexicon
	alternations map[string]*Alternation
	start        string
}

// DefaultStart is the alternation a recognition begins at.
const DefaultStart = "Begin"

// NewMorphology assembles the lexicon component. start defaults to
// DefaultStart when empty.
func NewMorphology(lexicons []*Lexicon, alternations []*Alternation, start string) *Morphology {
	if start == "" {
		start = DefaultStart
	}
	m := &Morphology{
		lexicons:     make(map[string]*Lexicon, len(lexicons)),
		alternations: make(map[string]*Alternation, len(alternations)),
		start:        start,
	}
	for _, l := range lexicons {
		m.lexicons[l.name] = l
	}
	for _, a := range alternations {
		m.alternations[a.name] = a
	}
	return m
}

// MorphAdvance is one way a frontier can consume a lexical character:
// the successor frontier plus the glossed entries completed on the way.
type MorphAdvance struct {
	State []*trieNode
	Words []*Word
}

// InitialState resolves the start alternation. An unknown name resolves
// to an empty frontier rather than an error.
func (m *Morphology) InitialState() []*trieNode {
	return m.resolve(m.start, make(map[string]bool))
}

// resolve collects the trie roots a name stands for. Lexicon names map
// to their root; alternation names expand recursively; unknown names map
// to nothing. seen breaks alternation cycles by skipping a name already
// on the expansion path.
func (m *Morphology) resolve(name string, seen map[string]bool) []*trieNode {
	if name == "" || seen[name] {
		return nil
	}
	if l, ok := m.lexicons[name]; ok {
		return []*trieNode{l.root}
	}
	a, ok := m.alternations[name]
	if !ok {
		return nil
	}
	seen[name] = true
	var nodes []*trieNode
	for _, sub := range a.names {
		nodes = append(nodes, m.resolve(sub, seen)...)
	}
	delete(seen, name)
	return nodes
}

// PossibleNextChars returns every lexical character some branch of the
// frontier can consume next, looking through completed entries into
// their continuation lexicons.
func (m *Morphology) PossibleNextChars(state []*trieNode) map[string]bool {
	chars := make(map[string]bool)
	m.nextChars(state, chars, make(map[*trieNode]bool))
	return chars
}

func (m *Morphology) nextChars(state []*trieNode, chars map[string]bool, visited map[*trieNode]bool) {
	for _, node := range state {
		if visited[node] {
			continue
		}
		visited[node] = true
		for c := range node.edges {
			chars[c] = true
		}
		for _, w := range node.words {
			m.nextChars(m.resolve(w.Next, make(map[string]bool)), chars, visited)
		}
	}
}

// Advance consumes one lexical character. Each completed entry opens its
// continuation lexicons and yields a separate advance carrying the entry
// (when glossed); the surviving subtries of the frontier itself merge
// into one final advance.
func (m *Morphology) Advance(state []*trieNode, char string) []MorphAdvance {
	var out []MorphAdvance
	var merged []*trieNode
	for _, node := range state {
		for _, w := range node.words {
			for _, adv := range m.Advance(m.resolve(w.Next, make(map[string]bool)), char) {
				if w.Gloss != "" {
					words := make([]*Word, 0, len(adv.Words)+1)
					words = append(words, w)
					words = append(words, adv.Words...)
					adv = MorphAdvance{State: adv.State, Words: words}
				}
				out = append(out, adv)
			}
		}
		if sub, ok := node.edges[char]; ok {
			merged = append(merged, sub)
		}
	}
	if len(merged) > 0 {
		out = append(out, MorphAdvance{State: merged})
	}
	return out
}
