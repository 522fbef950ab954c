package trie

import (
	"reflect"
	"testing"

	"github.com/hangul-morph/hangul-morph/morpheme"
)

func buildTrie(t *testing.T, keys map[string]morpheme.FormID) *Trie {
	t.Helper()
	tr := New()
	for k, id := range keys {
		tr.Insert([]byte(k), id)
	}
	tr.FillFail()
	return tr
}

func TestSplitExactMatch(t *testing.T) {
	tr := buildTrie(t, map[string]morpheme.FormID{"ab": 1})
	edges := tr.Split([]byte("ab"))
	want := []Edge{{Start: 0, End: 2, Form: 1}}
	if !reflect.DeepEqual(edges, want) {
		t.Errorf("Split = %+v, want %+v", edges, want)
	}
}

func TestSplitOverlappingTerminals(t *testing.T) {
	tr := buildTrie(t, map[string]morpheme.FormID{
		"abc": 1,
		"bc":  2,
	})
	edges := tr.Split([]byte("abc"))
	foundAbc, foundBc := false, false
	for _, e := range edges {
		if e.Start == 0 && e.End == 3 && e.Form == 1 {
			foundAbc = true
		}
		if e.Start == 1 && e.End == 3 && e.Form == 2 {
			foundBc = true
		}
	}
	if !foundAbc || !foundBc {
		t.Errorf("Split missed an overlapping terminal: %+v", edges)
	}
}

func TestSplitUnknownFallthrough(t *testing.T) {
	tr := buildTrie(t, map[string]morpheme.FormID{"ab": 1})
	edges := tr.Split([]byte("xxab"))
	if len(edges) == 0 {
		t.Fatal("expected at least one edge")
	}
	var unknown *Edge
	for i := range edges {
		if edges[i].Form == UnknownForm {
			unknown = &edges[i]
		}
	}
	if unknown == nil {
		t.Fatal("expected an UnknownForm edge for the unmatched prefix")
	}
	if unknown.Start != 0 || unknown.End != 2 {
		t.Errorf("unknown edge = %+v, want Start=0 End=2", unknown)
	}
}

func TestSplitAllUnknown(t *testing.T) {
	tr := buildTrie(t, map[string]morpheme.FormID{"ab": 1})
	edges := tr.Split([]byte("zzz"))
	if len(edges) != 1 || edges[0].Form != UnknownForm || edges[0].Start != 0 || edges[0].End != 3 {
		t.Errorf("Split(zzz) = %+v, want single UnknownForm edge spanning the input", edges)
	}
}

// TestSplitLongMatchSubsumesTrackedGap covers a case where a fail-link
// walk surfaces a match whose start predates positions that had no
// terminal of their own: "ab" and "abcde" share a prefix, and nothing
// terminates at positions 2-4 of "abcde" until the full length-5 key
// resolves there, with a start of 0. The gap those middle positions
// seemed to open must not turn into an UnknownForm edge with End before
// Start -- it is fully covered by the "abcde" match instead.
func TestSplitLongMatchSubsumesTrackedGap(t *testing.T) {
	tr := buildTrie(t, map[string]morpheme.FormID{
		"ab":    1,
		"abcde": 2,
	})
	edges := tr.Split([]byte("abcde"))
	for _, e := range edges {
		if e.End < e.Start {
			t.Errorf("Split produced an invalid edge %+v", e)
		}
	}
	foundFull := false
	for _, e := range edges {
		if e.Start == 0 && e.End == 5 && e.Form == 2 {
			foundFull = true
		}
	}
	if !foundFull {
		t.Errorf("expected the full abcde match, got %+v", edges)
	}
}

func TestSplitBeforeFillFailPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling Split before FillFail")
		}
	}()
	tr := New()
	tr.Insert([]byte("a"), 1)
	tr.Split([]byte("a"))
}

func TestFailLinksAreProperSuffixes(t *testing.T) {
	tr := buildTrie(t, map[string]morpheme.FormID{
		"he":  1,
		"she": 2,
		"his": 3,
		"hers": 4,
	})
	// Every non-root node's fail link must point at a node whose depth
	// is strictly less than its own -- a proper suffix is always
	// shorter than the string it is a suffix of.
	for i, n := range tr.nodes {
		if nodeID(i) == root {
			continue
		}
		failNode := tr.nodes[n.fail]
		if n.fail != root && failNode.depth >= n.depth {
			t.Errorf("node %d (depth %d) has fail link to node %d (depth %d), not a proper suffix", i, n.depth, n.fail, failNode.depth)
		}
	}
}
