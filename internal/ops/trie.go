// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package ops

// Trie accepts operator symbols by longest match.
type Trie struct {
	children map[byte]*Trie
	terminal bool
}

// NewTrie creates an empty trie.
func NewTrie() *Trie {
	return &Trie{children: make(map[byte]*Trie)}
}

// Insert adds sym to the trie.
func (t *Trie) Insert(sym string) {
	node := t
	for i := 0; i < len(sym); i++ {
		next, ok := node.children[sym[i]]
		if !ok {
			next = NewTrie()
			node.children[sym[i]] = next
		}
		node = next
	}
	node.terminal = true
}

// Match returns the longest symbol starting at src[at:], or "".
func (t *Trie) Match(src string, at int) string {
	node := t
	longest := 0
	for i := at; i < len(src); i++ {
		next, ok := node.children[src[i]]
		if !ok {
			break
		}
		node = next
		if node.terminal {
			longest = i - at + 1
		}
	}
	return src[at : at+longest]
}

// HasPrefix reports whether some symbol starts with byte b.
func (t *Trie) HasPrefix(b byte) bool {
	_, ok := t.children[b]
	return ok
}
