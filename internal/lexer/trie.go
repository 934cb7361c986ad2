package lexer

import "pascalc/internal/token"

// Trie is a decision tree over operator spellings. Each node is labelled
// with the operator prefix consumed to reach it; a node accepts when it
// has a child under the empty key.
//
// For {"<", "<=", ":="} the tree is
//
//	"": { "<": { "": {}, "<=": { "": {} } }, ":": { ":=": { "": {} } } }
type Trie struct {
	Label    string
	children map[string]*Trie
}

// operators is built once from the full alphabet and only read afterwards.
var operators = NewTrie(token.Operators)

// NewTrie builds the decision tree for the given spellings.
func NewTrie(spellings []string) *Trie {
	root := &Trie{children: make(map[string]*Trie)}
	for _, s := range spellings {
		if s == "" {
			continue
		}
		cur := root
		for _, ch := range s {
			key := string(ch)
			next, ok := cur.children[key]
			if !ok {
				next = &Trie{Label: cur.Label + key, children: make(map[string]*Trie)}
				cur.children[key] = next
			}
			cur = next
		}
		cur.children[""] = &Trie{Label: cur.Label}
	}
	return root
}

// Child returns the node reached by consuming ch.
func (t *Trie) Child(ch rune) (*Trie, bool) {
	next, ok := t.children[string(ch)]
	if !ok || next == nil {
		return nil, false
	}
	return next, true
}

// Accepting reports whether the prefix spelled by this node is an operator.
func (t *Trie) Accepting() bool {
	_, ok := t.children[""]
	return ok
}

// Starts reports whether some operator begins with ch.
func (t *Trie) Starts(ch rune) bool {
	_, ok := t.Child(ch)
	return ok
}

// Match reports whether s is exactly one of the spellings.
func (t *Trie) Match(s string) bool {
	cur := t
	for _, ch := range s {
		next, ok := cur.Child(ch)
		if !ok {
			return false
		}
		cur = next
	}
	return cur != t && cur.Accepting()
}

// Longest walks s greedily, the way the lexer does, and returns the
// consumed prefix. ok is false when the walk stops on a node that does not
// accept.
func (t *Trie) Longest(s string) (prefix string, ok bool) {
	cur := t
	for _, ch := range s {
		next, found := cur.Child(ch)
		if !found {
			break
		}
		cur = next
	}
	return cur.Label, cur != t && cur.Accepting()
}
