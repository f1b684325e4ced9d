package kimmo

// Word is one lexicon entry: its lexical spelling, the gloss recorded
// when the word is recognized (empty glosses are not recorded), and the
// name of the lexicon or alternation that may follow it (empty when the
// word ends the form).
type Word struct {
	Letters string
	Gloss   string
	Next    string
}

// trieNode is a node of a lexicon's prefix trie: the entries whose
// spelling ends exactly here, plus one child per next character.
type trieNode struct {
	words []*Word
	edges map[string]*trieNode
}

// Lexicon is a named group of words sharing a prefix trie.
type Lexicon struct {
	name  string
	words []*Word
	root  *trieNode
}

// NewLexicon builds the trie over the given entries.
func NewLexicon(name string, words []*Word) *Lexicon {
	runes := make([][]string, len(words))
	for i, w := range words {
		for _, r := range w.Letters {
			runes[i] = append(runes[i], string(r))
		}
	}
	return &Lexicon{name: name, words: words, root: buildTrie(words, runes, 0)}
}

func (l *Lexicon) Name() string { return l.name }

// buildTrie groups entries by their character at position pos. Entries
// exhausted at pos become terminal words of this node; shared prefixes
// share subtries.
func buildTrie(words []*Word, runes [][]string, pos int) *trieNode {
	node := &trieNode{edges: make(map[string]*trieNode)}
	grouped := make(map[string][]*Word)
	groupedRunes := make(map[string][][]string)
	var order []string
	for i, w := range words {
		if len(runes[i]) == pos {
			node.words = append(node.words, w)
			continue
		}
		c := runes[i][pos]
		if _, ok := grouped[c]; !ok {
			order = append(order, c)
		}
		grouped[c] = append(grouped[c], w)
		groupedRunes[c] = append(groupedRunes[c], runes[i])
	}
	for _, c := range order {
		node.edges[c] = buildTrie(grouped[c], groupedRunes[c], pos+1)
	}
	return node
}

// Alternation names a set of lexicons (or further alternations) that may
// continue a form.
type Alternation struct {
	name  string
	names []string
}

// NewAlternation builds an alternation over the given continuation names.
func NewAlternation(name string, names []string) *Alternation {
	return &Alternation{name: name, names: names}
}

func (a *Alternation) Name() string    { return a.name }
func (a *Alternation) Names() []string { return a.names }
