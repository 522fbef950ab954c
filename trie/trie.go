// Package trie implements the Aho-Corasick automaton the candidate
// generator runs input text through: an append-only node arena built
// during dictionary import, frozen by a single breadth-first failure-link
// pass before any lookup.
package trie

import "github.com/hangul-morph/hangul-morph/morpheme"

// nodeID indexes into Trie.nodes. 0 is always the root.
type nodeID int32

const root nodeID = 0

// Trie is an arena-backed Aho-Corasick automaton keyed by the packed
// jamo alphabet (see package hnorm). It is append-only until FillFail
// runs; after that it is read-only and safe for concurrent lookups.
type Trie struct {
	nodes  []node
	filled bool
}

type node struct {
	children map[byte]nodeID
	fail     nodeID
	depth    int32
	// forms lists every form whose key ends at this node.
	forms []morpheme.FormID
}

// New creates an empty trie with just the root node.
func New() *Trie {
	t := &Trie{}
	t.nodes = append(t.nodes, node{children: make(map[byte]nodeID)})
	return t
}

// Insert adds key to the trie, tagging its terminal node with formID.
// Insert must not be called after FillFail.
func (t *Trie) Insert(key []byte, formID morpheme.FormID) {
	if t.filled {
		panic("trie: Insert called after FillFail")
	}
	cur := root
	for _, b := range key {
		next, ok := t.nodes[cur].children[b]
		if !ok {
			next = nodeID(len(t.nodes))
			t.nodes = append(t.nodes, node{
				children: make(map[byte]nodeID),
				depth:    t.nodes[cur].depth + 1,
			})
			t.nodes[cur].children[b] = next
		}
		cur = next
	}
	t.nodes[cur].forms = append(t.nodes[cur].forms, formID)
}

// FillFail computes every node's failure link with a single breadth-first
// pass. It must be called exactly once, after every form has been
// inserted and before any call to Split.
func (t *Trie) FillFail() {
	if t.filled {
		panic("trie: FillFail called twice")
	}
	queue := make([]nodeID, 0, len(t.nodes))
	for _, child := range t.nodes[root].children {
		t.nodes[child].fail = root
		queue = append(queue, child)
	}
	for i := 0; i < len(queue); i++ {
		cur := queue[i]
		for b, child := range t.nodes[cur].children {
			queue = append(queue, child)
			f := t.nodes[cur].fail
			for {
				if down, ok := t.nodes[f].children[b]; ok {
					f = down
					break
				}
				if f == root {
					break
				}
				f = t.nodes[f].fail
			}
			t.nodes[child].fail = f
		}
	}
	t.filled = true
}

// Filled reports whether FillFail has run.
func (t *Trie) Filled() bool { return t.filled }

// Edge is a single candidate span Split emits: Form matches
// text[Start:End].
type Edge struct {
	Start, End int
	Form       morpheme.FormID
}

// UnknownForm is the sentinel FormID Split emits for unmatched runs. It
// never collides with a real form ID since the store's form arena is
// dense from 0 and never grows anywhere near this value.
const UnknownForm morpheme.FormID = 0xFFFFFFFF

// Split walks the automaton over text, emitting one Edge per matched
// form at every position and a fallback Edge tagged UnknownForm for any
// run of text with no match at all. text is the packed-jamo byte string
// (see package hnorm); Split panics if FillFail has not run.
func (t *Trie) Split(text []byte) []Edge {
	if !t.filled {
		panic("trie: Split called before FillFail")
	}
	var edges []Edge
	cur := root
	unknownStart := -1

	for i, b := range text {
		for cur != root {
			if _, ok := t.nodes[cur].children[b]; ok {
				break
			}
			cur = t.nodes[cur].fail
		}
		if next, ok := t.nodes[cur].children[b]; ok {
			cur = next
		} else {
			cur = root
		}

		minStart := i + 1
		for n := cur; ; n = t.nodes[n].fail {
			if len(t.nodes[n].forms) > 0 {
				start := i + 1 - int(t.nodes[n].depth)
				if start < minStart {
					minStart = start
				}
				for _, f := range t.nodes[n].forms {
					edges = append(edges, Edge{Start: start, End: i + 1, Form: f})
				}
			}
			if n == root {
				break
			}
		}

		if minStart < i+1 {
			// A match ending here can reach back past the start of the
			// run currently tracked as unmatched -- a fail-link walk
			// can surface a longer match whose start predates positions
			// that had no terminal of their own (e.g. keys "ab" and
			// "abcde" on text "abcde": nothing terminates at positions
			// 2-4, but the length-5 match starts at 0). When that
			// happens the supposed gap is entirely covered by the
			// match, so only emit the unknown edge for the portion of
			// the run the match doesn't reach.
			if unknownStart >= 0 && minStart > unknownStart {
				edges = append(edges, Edge{Start: unknownStart, End: minStart, Form: UnknownForm})
			}
			unknownStart = -1
		} else if unknownStart < 0 {
			unknownStart = i
		}
	}
	if unknownStart >= 0 {
		edges = append(edges, Edge{Start: unknownStart, End: len(text), Form: UnknownForm})
	}
	return edges
}
