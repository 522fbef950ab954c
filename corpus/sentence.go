package corpus

import (
	"bufio"
	"io"
	"strings"

	"github.com/hangul-morph/hangul-morph/postag"
)

// Token is one tagged corpus token: a surface form and its gold POS
// tag.
type Token struct {
	Surface string
	Tag     postag.Tag
}

// SentenceReader scans tagged corpus lines (tab-separated
// "_ \t surface \t tag \t surface \t tag ..."), accumulating tokens
// until a blank line flushes the sentence. Every returned sentence
// already carries its trailing </s> token.
type SentenceReader struct {
	sc      *bufio.Scanner
	pending []Token
}

// NewSentenceReader wraps r.
func NewSentenceReader(r io.Reader) *SentenceReader {
	return &SentenceReader{sc: bufio.NewScanner(r)}
}

// Next returns the next sentence, or ok=false once the input is
// exhausted (flushing any trailing partial sentence first).
func (sr *SentenceReader) Next() ([]Token, bool) {
	for sr.sc.Scan() {
		line := sr.sc.Text()
		if strings.TrimSpace(line) == "" {
			if len(sr.pending) == 0 {
				continue
			}
			out := append(sr.pending, Token{Tag: postag.EOS, Surface: "</s>"})
			sr.pending = nil
			return out, true
		}
		sr.pending = append(sr.pending, parseCorpusLine(line)...)
	}
	if len(sr.pending) > 0 {
		out := append(sr.pending, Token{Tag: postag.EOS, Surface: "</s>"})
		sr.pending = nil
		return out, true
	}
	return nil, false
}

// parseCorpusLine splits one tagged corpus line into its surface/tag
// pairs, applying substituteEJamo to each (see that function's doc
// comment). The leading "_" field is a line-level placeholder and
// carries no information.
func parseCorpusLine(line string) []Token {
	f := strings.Split(line, "\t")
	if len(f) < 3 {
		return nil
	}
	var out []Token
	for i := 1; i+1 < len(f); i += 2 {
		surface, tagName := f[i], f[i+1]
		tag, ok := postag.Parse(tagName)
		if !ok {
			continue
		}
		out = append(out, Token{Surface: substituteEJamo(surface, tag), Tag: tag})
	}
	return out
}

// eContractedJamo and eCanonicalJamo are UTF-8 runes for the jungseong
// compatibility jamo ㅓ (U+3153) and ㅡ (U+3161).
const (
	eContractedJamo = 'ㅓ'
	eCanonicalJamo  = 'ㅡ'
)

// substituteEJamo performs the vowel contraction a comparison (`==`)
// typo where an assignment was clearly intended once silently skipped.
// The intended behavior is the 어→으
// vowel contraction written back for E-tagged stems (e.g. 쓰어 → 써):
// when tag is in the E* (pre-final/final/connective ending) range and
// the token's first rune is the contracted jungseong ㅓ, it is replaced
// with the canonical ㅡ. Only the first rune is ever touched.
func substituteEJamo(surface string, tag postag.Tag) string {
	if tag != postag.EP && tag != postag.EF && tag != postag.EC && tag != postag.ETN && tag != postag.ETM {
		return surface
	}
	runes := []rune(surface)
	if len(runes) == 0 || runes[0] != eContractedJamo {
		return surface
	}
	runes[0] = eCanonicalJamo
	return string(runes)
}
