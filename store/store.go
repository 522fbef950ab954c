// Package store builds and serializes the form/morpheme arena: the
// index-based graph that accumulates during dictionary import and over
// which Solidify builds the lookup trie. Forms and morphemes refer to
// each other by integer ID before and after Solidify.
package store

import (
	"fmt"

	"github.com/hangul-morph/hangul-morph/hnorm"
	"github.com/hangul-morph/hangul-morph/morpheme"
	"github.com/hangul-morph/hangul-morph/postag"
)

// Store owns every form and morpheme in the dictionary. After Solidify it
// is safe for concurrent reads from multiple goroutines while nothing is
// being added; forms and morphemes may still be added afterward (see
// Solidify), and such an addition is not safe alongside concurrent reads.
type Store struct {
	forms     []*morpheme.Form
	morphemes []*morpheme.Morpheme

	// formIndex maps a packed form key to its FormID during build. It
	// is the build-time index map Solidify drops.
	formIndex map[string]morpheme.FormID

	solidified bool
}

// New creates an empty store pre-populated with the <s>/</s> boundary
// sentinels at IDs 0 and 1 and one unknown-word sentinel per POS tag at
// IDs [2, 2+postag.NumTags()).
func New() *Store {
	s := &Store{
		formIndex: make(map[string]morpheme.FormID),
	}
	s.morphemes = append(s.morphemes,
		&morpheme.Morpheme{Surface: "<s>", Tag: postag.BOS},
		&morpheme.Morpheme{Surface: "</s>", Tag: postag.EOS},
	)
	for i := 0; i < postag.NumTags(); i++ {
		s.morphemes = append(s.morphemes, &morpheme.Morpheme{
			Surface: "",
			Tag:     postag.Tag(i),
		})
	}
	return s
}

// Forms returns the form arena as it currently stands.
func (s *Store) Forms() []*morpheme.Form { return s.forms }

// Morphemes returns the morpheme arena as it currently stands.
func (s *Store) Morphemes() []*morpheme.Morpheme { return s.morphemes }

// Morpheme resolves an ID to its morpheme.
func (s *Store) Morpheme(id morpheme.ID) *morpheme.Morpheme {
	return s.morphemes[id]
}

// Form resolves a FormID to its form.
func (s *Store) Form(id morpheme.FormID) *morpheme.Form {
	return s.forms[id]
}

// Solidified reports whether Solidify has run.
func (s *Store) Solidified() bool { return s.solidified }

// InternForm returns the FormID for key, creating a new form if one does
// not already exist. It is O(1) expected. Calling it after Solidify is
// legal -- that is how AddUserWord/AddUserRule extend a loaded
// dictionary -- and lazily rebuilds the key index the binary loader
// never populates.
func (s *Store) InternForm(key []byte) morpheme.FormID {
	s.ensureIndex()
	k := string(key)
	if id, ok := s.formIndex[k]; ok {
		return id
	}
	id := morpheme.FormID(len(s.forms))
	s.forms = append(s.forms, &morpheme.Form{Key: append([]byte(nil), key...)})
	s.formIndex[k] = id
	return id
}

// AddMorpheme appends a new morpheme attached to formRef and returns its
// ID. tag, conditions, and the optional chunks/combine socket are copied
// as given; callers resolve vowel/polarity conditions up front with
// morpheme.DeriveVowelCondition / DerivePolarityCondition.
func (s *Store) AddMorpheme(formRef morpheme.FormID, surface string, tag postag.Tag, vowelCond morpheme.VowelCondition, polarityCond morpheme.PolarityCondition, chunks []morpheme.ID, combineSocket uint16, weight float32) morpheme.ID {
	id := morpheme.ID(len(s.morphemes))
	m := &morpheme.Morpheme{
		Surface:       surface,
		Tag:           tag,
		VowelCond:     vowelCond,
		PolarityCond:  polarityCond,
		CombineSocket: combineSocket,
		Chunks:        chunks,
		FormRef:       formRef,
		Weight:        weight,
	}
	s.morphemes = append(s.morphemes, m)
	s.forms[formRef].Candidates = append(s.forms[formRef].Candidates, id)
	return id
}

// AddUserWord registers a single-morpheme post-load extension: surface
// is normalized, interned as a form, and given one morpheme of tag t.
func (s *Store) AddUserWord(surface string, t postag.Tag) (morpheme.ID, error) {
	key, err := hnorm.SplitJamo(surface)
	if err != nil {
		return 0, fmt.Errorf("store: add user word %q: %w", surface, err)
	}
	formRef := s.InternForm(key)
	return s.AddMorpheme(formRef, surface, t, morpheme.VowelAny, morpheme.PolarityNone, nil, 0, lowWeightCutoffFloor), nil
}

// SubMorph names one constituent of an AddUserRule combined entry.
type SubMorph struct {
	Surface string
	Tag     postag.Tag
}

// AddUserRule registers a combined morpheme whose surface is the
// concatenation of subs and whose Chunks are the freshly appended
// sub-morphemes, one per element of subs.
func (s *Store) AddUserRule(surface string, subs []SubMorph) (morpheme.ID, error) {
	key, err := hnorm.SplitJamo(surface)
	if err != nil {
		return 0, fmt.Errorf("store: add user rule %q: %w", surface, err)
	}
	formRef := s.InternForm(key)

	chunks := make([]morpheme.ID, 0, len(subs))
	for _, sub := range subs {
		subKey, err := hnorm.SplitJamo(sub.Surface)
		if err != nil {
			return 0, fmt.Errorf("store: add user rule %q: sub-morpheme %q: %w", surface, sub.Surface, err)
		}
		subFormRef := s.InternForm(subKey)
		id := s.AddMorpheme(subFormRef, sub.Surface, sub.Tag, morpheme.VowelAny, morpheme.PolarityNone, nil, 0, lowWeightCutoffFloor)
		chunks = append(chunks, id)
	}
	return s.AddMorpheme(formRef, surface, subs[len(subs)-1].Tag, morpheme.VowelAny, morpheme.PolarityNone, chunks, 0, lowWeightCutoffFloor), nil
}

// lowWeightCutoffFloor is the import weight given to user-added
// morphemes: comfortably above the inflectional-range discard cutoff so
// user words are never silently dropped.
const lowWeightCutoffFloor = 1000
