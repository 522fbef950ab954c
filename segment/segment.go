// Package segment splits raw input text into the runs the rest of the
// module requires before anything Hangul-specific can run: contiguous
// Hangul-syllable runs (the only valid input to package hnorm) versus
// everything else, and sentence boundaries for multi-sentence input to
// Model.Analyze. Non-Hangul characters are spec.md's "callers must
// pre-split" contract (§3, §4.1) — this package is that caller-side
// split.
package segment

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/hangul-morph/hangul-morph/internal/jamo"
)

// Run is one maximal span of text sharing the same Hangul classification.
type Run struct {
	Text   string
	Start  int
	End    int
	Hangul bool
}

// SplitRuns partitions s into maximal Hangul-syllable and non-Hangul
// runs. s is NFC-normalized first so NFD-decomposed Hangul (standalone
// jamo sequences) classifies the same as its precomposed form;
// concatenating every Run.Text reconstructs the normalized string, not
// necessarily byte-for-byte the original.
func SplitRuns(s string) []Run {
	s = norm.NFC.String(s)
	var runs []Run
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		isHangul := jamo.IsSyllable(r)
		j := i + size
		for j < len(s) {
			nr, ns := utf8.DecodeRuneInString(s[j:])
			if jamo.IsSyllable(nr) != isHangul {
				break
			}
			j += ns
		}
		runs = append(runs, Run{Text: s[i:j], Start: i, End: j, Hangul: isHangul})
		i = j
	}
	return runs
}

// sentenceEnders are the punctuation runes that can end a sentence.
var sentenceEnders = map[rune]bool{'.': true, '?': true, '!': true, '…': true}

// SplitSentences splits s into sentence spans on runs of '.', '?', '!',
// or the Unicode ellipsis. No abbreviation list is consulted: Korean
// sentence-final endings (EF-tagged morphemes) are unambiguous enough
// at this layer that the analyzer, not the splitter, is where that
// ambiguity belongs.
func SplitSentences(s string) []string {
	var out []string
	start := 0
	i := 0
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !sentenceEnders[r] {
			i += size
			continue
		}
		j := i + size
		for j < len(s) {
			nr, ns := utf8.DecodeRuneInString(s[j:])
			if !sentenceEnders[nr] {
				break
			}
			j += ns
		}
		out = append(out, s[start:j])
		start = j
		i = j
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
