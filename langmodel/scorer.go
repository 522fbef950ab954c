package langmodel

import "github.com/hangul-morph/hangul-morph/morpheme"

// idsToTokens widens a trailing morpheme-ID context into the uint32
// token slice the model readers key off. Morpheme IDs are the
// vocabulary directly: there is no separate id space to translate
// through.
func idsToTokens(ctx []morpheme.ID) []uint32 {
	toks := make([]uint32, len(ctx))
	for i, id := range ctx {
		toks[i] = uint32(id)
	}
	return toks
}

// NGramScorer adapts *NGram to package decoder's Scorer interface.
type NGramScorer struct {
	Model *NGram
}

// Score implements decoder.Scorer.
func (s NGramScorer) Score(context []morpheme.ID, next morpheme.ID) float64 {
	return s.Model.LogProb(idsToTokens(context), uint32(next))
}

// SkipBigramScorer adapts *SkipBigram to package decoder's Scorer
// interface, mixing it with a base n-gram model per the §4.6 query
// contract: the skip-bigram table is a sparse correction over the base
// LM estimate, not a replacement for it. The condition token is the
// single most recent morpheme in context; a skip-bigram backend carries
// a one-morpheme context (decoder.New's maxContext == 1).
type SkipBigramScorer struct {
	Model *SkipBigram
	Base  *NGram
}

// Score implements decoder.Scorer.
func (s SkipBigramScorer) Score(context []morpheme.ID, next morpheme.ID) float64 {
	lmBase := s.Base.LogProb(idsToTokens(context), uint32(next))

	var c uint32
	if len(context) > 0 {
		c = uint32(context[len(context)-1])
	}
	return s.Model.LogProb(c, uint32(next), lmBase)
}
