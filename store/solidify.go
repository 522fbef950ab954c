package store

import (
	"fmt"

	"github.com/hangul-morph/hangul-morph/morpheme"
	"github.com/hangul-morph/hangul-morph/trie"
)

// Solidify materializes the trie over every form's key and validates the
// chunk-reference invariant. After the first call the store is safe to
// share for concurrent reads; the post-load extension points
// (AddUserWord/AddUserRule, via InternForm/AddMorpheme) remain legal
// afterward and Solidify may be called again — once per user-word batch
// — to fold the addition into a freshly rebuilt trie: user words added
// after load go through the same solidify fixup as the original build.
func (s *Store) Solidify() (*trie.Trie, error) {
	for id, m := range s.morphemes {
		if morpheme.IsBoundary(morpheme.ID(id)) {
			continue
		}
		for _, ref := range m.Chunks {
			if int(ref) >= id {
				return nil, fmt.Errorf("store: morpheme %d has a chunk reference %d that is not strictly smaller", id, ref)
			}
		}
	}

	t := trie.New()
	for id, f := range s.forms {
		t.Insert(f.Key, morpheme.FormID(id))
		if len(f.Key) > 0 {
			f.AddSuffix(f.Key[len(f.Key)-1])
		}
	}
	t.FillFail()

	s.formIndex = nil
	s.solidified = true
	return t, nil
}

// ensureIndex lazily rebuilds the key-to-FormID index from the form
// arena when it is missing -- true right after Load, which never
// populates it since the binary format has no use for it, and right
// after Solidify, which drops it.
func (s *Store) ensureIndex() {
	if s.formIndex != nil {
		return
	}
	s.formIndex = make(map[string]morpheme.FormID, len(s.forms))
	for i, f := range s.forms {
		s.formIndex[string(f.Key)] = morpheme.FormID(i)
	}
}
