package hnorm

// Jamo is a single unit of the packed normalization alphabet: values
// 2-31 are choseong/jongseong (consonant-family) jamo, values 32-52 are
// jungseong (vowel) jamo. 0 is never a valid packed value.
type Jamo = byte

const (
	consonantBase = 0x3130 // one below U+3131 (HANGUL LETTER KIYEOK)
	vowelBase     = 0x314F // U+314F HANGUL LETTER A
	// JungBase is the first packed value used by jungseong jamo. Set one
	// past the highest consonant value (ㅎ packs to 31) so the consonant
	// and vowel ranges stay disjoint.
	JungBase Jamo = 32
)

// choLetters lists the 19 choseong-capable compatibility jamo in the
// order the Unicode syllable decomposition formula enumerates them.
var choLetters = []rune{
	'ㄱ', 'ㄲ', 'ㄴ', 'ㄷ', 'ㄸ', 'ㄹ', 'ㅁ', 'ㅂ', 'ㅃ',
	'ㅅ', 'ㅆ', 'ㅇ', 'ㅈ', 'ㅉ', 'ㅊ', 'ㅋ', 'ㅌ', 'ㅍ', 'ㅎ',
}

// jungLetters lists the 21 jungseong compatibility jamo in syllable
// decomposition order.
var jungLetters = []rune{
	'ㅏ', 'ㅐ', 'ㅑ', 'ㅒ', 'ㅓ', 'ㅔ', 'ㅕ', 'ㅖ', 'ㅗ', 'ㅘ', 'ㅙ',
	'ㅚ', 'ㅛ', 'ㅜ', 'ㅝ', 'ㅞ', 'ㅟ', 'ㅠ', 'ㅡ', 'ㅢ', 'ㅣ',
}

// jongLetters lists the 27 jongseong-capable compatibility jamo (index 0
// is jong value 1, since jong index 0 in the syllable formula means "no
// final" and is handled separately) in syllable decomposition order.
var jongLetters = []rune{
	'ㄱ', 'ㄲ', 'ㄳ', 'ㄴ', 'ㄵ', 'ㄶ', 'ㄷ', 'ㄹ', 'ㄺ', 'ㄻ', 'ㄼ',
	'ㄽ', 'ㄾ', 'ㄿ', 'ㅀ', 'ㅁ', 'ㅂ', 'ㅄ', 'ㅅ', 'ㅆ', 'ㅇ',
	'ㅈ', 'ㅊ', 'ㅋ', 'ㅌ', 'ㅍ', 'ㅎ',
}

var (
	choPacked  [19]Jamo
	jungPacked [21]Jamo
	jongPacked [27]Jamo

	// packedToRune maps a packed value back to its compatibility jamo,
	// used when join flushes an unattached lead or vowel.
	packedToRune = map[Jamo]rune{}
	// runeToPacked is the inverse of packedToRune, used by PackJamo.
	runeToPacked = map[rune]Jamo{}
	// jongPackedSet lets join tell a dangling cho-range value apart from
	// a jongseong continuation candidate.
	jongPackedSet = map[Jamo]bool{}
)

func init() {
	for i, r := range choLetters {
		v := Jamo(r-consonantBase) // offsets run 1..30; the +1 here and in the jong loop packs consonants to 2..31
		choPacked[i] = v + 1
		packedToRune[v+1] = r
		runeToPacked[r] = v + 1
	}
	for i, r := range jungLetters {
		v := Jamo(r - vowelBase)
		jungPacked[i] = v + JungBase
		packedToRune[v+JungBase] = r
		runeToPacked[r] = v + JungBase
	}
	for i, r := range jongLetters {
		v := Jamo(r-consonantBase) + 1
		jongPacked[i] = v
		jongPackedSet[v] = true
		// jong shares the cho range; don't overwrite a cho's own rune.
		if _, ok := packedToRune[v]; !ok {
			packedToRune[v] = r
		}
		if _, ok := runeToPacked[r]; !ok {
			runeToPacked[r] = v
		}
	}
}
