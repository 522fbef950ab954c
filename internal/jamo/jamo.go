// Package jamo wraps the compatibility-jamo primitives the rest of the
// module builds its compact packed alphabet on top of. It is the only
// package allowed to import the third-party Hangul composer; everything
// above it works in terms of the packed byte alphabet defined by hnorm.
package jamo

import (
	hangul "github.com/suapapa/go_hangul"
)

// Split decomposes a precomposed Hangul syllable into its choseong,
// jungseong, and jongseong compatibility jamo. Tail is 0 when the
// syllable has no final consonant.
func Split(syllable rune) (lead, vowel, tail rune) {
	return hangul.Split(syllable)
}

// Join composes a choseong/jungseong/jongseong triple back into a
// precomposed Hangul syllable. Tail may be 0.
func Join(lead, vowel, tail rune) rune {
	return hangul.Join(lead, vowel, tail)
}

// IsSyllable reports whether r is a precomposed Hangul syllable in
// [U+AC00, U+D7A4).
func IsSyllable(r rune) bool {
	return r >= 0xAC00 && r < 0xD7A4
}

// IsHangul reports whether r belongs to any Hangul block recognized by
// the underlying composer (syllables or compatibility jamo).
func IsHangul(r rune) bool {
	return hangul.IsHangul(r)
}

// IsLead reports whether r is a compatibility jamo that can serve as a
// choseong.
func IsLead(r rune) bool {
	return hangul.IsJaeum(r)
}

// IsVowel reports whether r is a compatibility jamo that can serve as a
// jungseong.
func IsVowel(r rune) bool {
	return hangul.IsMoeum(r)
}
