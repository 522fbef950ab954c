// Package morpheme defines the data model for forms and morphemes: the
// index-arena types the store builds during load. Forms and morphemes
// refer to each other by integer ID; Solidify builds the lookup trie
// over them before decoding.
package morpheme

import "github.com/hangul-morph/hangul-morph/postag"

// VowelCondition constrains which morphemes may follow a given final
// jamo.
type VowelCondition uint8

const (
	VowelNone VowelCondition = iota
	VowelAny
	VowelCoda
	VowelNoCoda
	VowelVowel
	VowelNoVowel
)

// PolarityCondition constrains attachment by vowel harmony polarity.
type PolarityCondition uint8

const (
	PolarityNone PolarityCondition = iota
	PolarityPositive
	PolarityNonPositive
)

// ID is a stable reference to a morpheme. Indices 0 and 1 are reserved
// for the <s> and </s> boundary sentinels; indices
// [2, 2+postag.NumTags()) are reserved, one per tag, for the unknown-word
// fallback morphemes.
type ID uint32

// FirstUnknownID is the ID of the unknown-word sentinel for postag.Tag(0).
const FirstUnknownID ID = 2

// UnknownID returns the sentinel morpheme ID used when an input token of
// tag t is absent from the dictionary.
func UnknownID(t postag.Tag) ID {
	return FirstUnknownID + ID(t)
}

// FirstUserID is the first ID available for morphemes appended after the
// reserved sentinel range.
func FirstUserID() ID {
	return FirstUnknownID + ID(postag.NumTags())
}

// FormID is a stable reference to a form.
type FormID uint32

// Morpheme is a single dictionary entry.
type Morpheme struct {
	Surface string
	Tag     postag.Tag

	VowelCond    VowelCondition
	PolarityCond PolarityCondition

	// CombineSocket is non-zero when this morpheme may only appear
	// adjacent to a compatible pre-combined counterpart.
	CombineSocket uint16

	// Chunks holds this morpheme's constituent sequence when it is a
	// combined entry; nil for ordinary morphemes. Every referenced ID
	// must be < the enclosing morpheme's own ID, unless the enclosing
	// morpheme is itself a boundary sentinel.
	Chunks []ID

	// CombinedOffset redirects scoring to another morpheme: when
	// non-zero, this morpheme's analysis is equivalent to the morpheme
	// at ID+CombinedOffset.
	CombinedOffset int32

	// FormRef is the owning form's ID, set once at creation.
	FormRef FormID

	// Weight is the dictionary-import frequency weight; retained after
	// solidify for diagnostics, not consulted at decode time.
	Weight float32
}

// IsBoundary reports whether m is one of the <s>/</s> sentinels.
func IsBoundary(id ID) bool { return id == 0 || id == 1 }

// Form is the trie-keyable surface string shared by every morpheme with
// that normalized key.
type Form struct {
	// Key is the jamo-packed normalized surface (see package hnorm).
	Key []byte

	// Candidates lists every morpheme whose surface normalizes to Key.
	Candidates []ID

	// Suffixes is the set of final jamo with which a morpheme ending in
	// this form may attach to a following syllable.
	Suffixes map[byte]bool
}

// AddSuffix records that jm is a valid trailing jamo for this form.
func (f *Form) AddSuffix(jm byte) {
	if f.Suffixes == nil {
		f.Suffixes = make(map[byte]bool)
	}
	f.Suffixes[jm] = true
}

// HasSuffix reports whether jm was recorded as a valid trailing jamo.
func (f *Form) HasSuffix(jm byte) bool {
	return f.Suffixes[jm]
}
