// Package hnorm implements the Hangul normalization contract: packing
// precomposed syllables into a compact jamo alphabet and back, and
// factoring the trailing consonant (coda) out of a syllable without
// losing its identity. It is the normalization front door for every
// downstream package — the trie, the store, and the corpus reader all
// key off the byte strings this package produces.
//
// Inputs must already be restricted to the Hangul Syllables block
// [U+AC00, U+D7A4); callers are expected to pre-split mixed text with
// package segment before calling into hnorm. SplitSyllable, SplitJamo
// and SplitCoda reject a non-Hangul rune with ErrNotSyllable.
package hnorm

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/hangul-morph/hangul-morph/internal/jamo"
)

// ErrNotSyllable is returned when a rune outside the Hangul Syllables
// block is passed to a routine that requires one.
var ErrNotSyllable = fmt.Errorf("hnorm: rune is not a precomposed Hangul syllable")

// SplitSyllable decomposes a single precomposed syllable into 2 or 3
// packed jamo (lead, vowel, and an optional tail). It is the per-rune
// primitive SplitJamo builds on.
func SplitSyllable(s rune) (jm [3]Jamo, n int, err error) {
	if !jamo.IsSyllable(s) {
		return jm, 0, ErrNotSyllable
	}
	t := s - 0xAC00
	jongIdx := t % 28
	jungIdx := (t / 28) % 21
	choIdx := t / 28 / 21

	jm[0] = choPacked[choIdx]
	jm[1] = jungPacked[jungIdx]
	n = 2
	if jongIdx != 0 {
		jm[2] = jongPacked[jongIdx-1]
		n = 3
	}
	return jm, n, nil
}

// SplitJamo packs every syllable of s into the compact alphabet,
// concatenating their jamo in order. s must contain only Hangul
// syllables; NFD-decomposed input (standalone jamo sequences that NFC
// composes back into a syllable) is normalized first, so callers do not
// need to pre-compose text themselves.
func SplitJamo(s string) ([]byte, error) {
	s = norm.NFC.String(s)
	out := make([]byte, 0, len(s)*3)
	for _, r := range s {
		jm, n, err := SplitSyllable(r)
		if err != nil {
			return nil, err
		}
		out = append(out, jm[:n]...)
	}
	return out, nil
}

// SplitCoda factors the jongseong out of a syllable while leaving the
// lead and vowel still combined as a syllable. It returns the syllable
// with its final consonant zeroed (still a valid precomposed syllable)
// and, when the syllable carried a final consonant, the standalone
// combining jongseong codepoint for it; coda is 0 when s has no final.
func SplitCoda(s rune) (base rune, coda rune, err error) {
	if !jamo.IsSyllable(s) {
		return 0, 0, ErrNotSyllable
	}
	jongIdx := (s - 0xAC00) % 28
	base = s - jongIdx
	if jongIdx != 0 {
		coda = 0x11A7 + jongIdx
	}
	return base, coda, nil
}

// PackJamo maps a single compatibility jamo rune (e.g. 'ㄱ', 'ㅏ') to its
// packed byte value. It reports false for any rune that is not a
// choseong/jongseong-capable or jungseong compatibility jamo -- the form
// suffix set the dictionary import lines. 4.2/4.3 needs this to record
// without going through a full syllable.
func PackJamo(r rune) (Jamo, bool) {
	v, ok := runeToPacked[r]
	return v, ok
}

// isJung reports whether a packed jamo value is in the jungseong range.
func isJung(v Jamo) bool { return v >= JungBase }

// JoinJamo is the inverse of SplitJamo. A choseong or jungseong left
// without a matching partner at the end of the stream, or followed by a
// value it cannot combine with, is flushed as its own standalone
// compatibility jamo and the accumulator restarts — it never blocks the
// rest of the stream from composing.
func JoinJamo(jm []byte) string {
	var out []rune
	var lead, vowel Jamo // 0 means empty

	flushLead := func() {
		if lead != 0 {
			out = append(out, packedToRune[lead])
			lead = 0
		}
	}
	flushPair := func() {
		if lead != 0 && vowel != 0 {
			l, v := choRune(lead), jungRune(vowel)
			out = append(out, jamo.Join(l, v, 0))
			lead, vowel = 0, 0
			return
		}
		flushLead()
		if vowel != 0 {
			out = append(out, packedToRune[vowel])
			vowel = 0
		}
	}

	for i := 0; i < len(jm); i++ {
		v := jm[i]
		switch {
		case isJung(v):
			if lead != 0 && vowel == 0 {
				vowel = v
				continue
			}
			// A vowel with no pending lead, or a second vowel in a
			// row: flush whatever is pending and start a bare vowel.
			flushPair()
			vowel = v
		default: // consonant-range value: either a jongseong or the
			// next syllable's choseong.
			if lead == 0 {
				lead = v
				continue
			}
			if vowel == 0 {
				// Two consonants with no vowel between them: the
				// first was never going to combine, flush it alone.
				flushLead()
				lead = v
				continue
			}
			// lead+vowel are a complete syllable. v could close it
			// as a jongseong, or it could be the next syllable's
			// lead — disambiguated by whether a jungseong follows.
			if jongPackedSet[v] && i+1 < len(jm) && isJung(jm[i+1]) {
				// v is about to receive its own vowel: it belongs
				// to the next syllable, not this one's coda.
				flushPair()
				lead = v
				continue
			}
			if jongPackedSet[v] {
				l, vw := choRune(lead), jungRune(vowel)
				out = append(out, jamo.Join(l, vw, packedToRune[v]))
				lead, vowel = 0, 0
				continue
			}
			// Not a valid jongseong at all: flush the syllable and
			// start fresh with v as the next lead.
			flushPair()
			lead = v
		}
	}
	flushPair()
	return string(out)
}

func choRune(v Jamo) rune  { return packedToRune[v] }
func jungRune(v Jamo) rune { return packedToRune[v] }
