package corpus

import (
	"io"
	"sort"

	"github.com/hangul-morph/hangul-morph/langmodel"
)

// discount is the absolute-discounting constant subtracted from every
// observed count before redistributing the remainder as back-off mass,
// the same fixed-discount simplification of modified Kneser-Ney that
// keeps a back-off language model buildable from a small toy corpus
// without held-out count-of-counts estimation.
const discount = 0.75

// NGramBuilder accumulates token-sequence counts for building a §4.5
// back-off language model directly from tokenized sentences.
type NGramBuilder struct {
	order     int
	vocabSize int
	unigram   map[uint32]int
	contexts  map[string]map[uint32]int
	total     int
}

// NewNGramBuilder creates a builder for an n-gram model of the given
// order and vocabulary size.
func NewNGramBuilder(order, vocabSize int) *NGramBuilder {
	return &NGramBuilder{
		order:     order,
		vocabSize: vocabSize,
		unigram:   make(map[uint32]int),
		contexts:  make(map[string]map[uint32]int),
	}
}

// Add counts every (context, next) pair in tokens for every context
// length from 0 (unigram) to order-1.
func (b *NGramBuilder) Add(tokens []uint32) {
	for i, tok := range tokens {
		b.unigram[tok]++
		b.total++
		for n := 1; n < b.order && n <= i; n++ {
			ctx := tokens[i-n : i]
			key := langmodel.ContextKey(ctx)
			m, ok := b.contexts[key]
			if !ok {
				m = make(map[uint32]int)
				b.contexts[key] = m
			}
			m[tok]++
		}
	}
}

// Build computes discounted log-probabilities and back-off weights for
// every accumulated context and writes the result in package
// langmodel's file format.
func (b *NGramBuilder) Build(w io.Writer) error {
	unigramLog := make(map[uint32]float32, len(b.unigram))
	for tok, c := range b.unigram {
		unigramLog[tok] = logf(float64(c) / float64(b.total))
	}

	contexts := make(map[string][]langmodel.Continuation, len(b.contexts))
	for key, m := range b.contexts {
		contextTotal := 0
		for _, c := range m {
			contextTotal += c
		}
		if contextTotal == 0 {
			continue
		}
		distinct := len(m)
		backoffMass := discount * float64(distinct) / float64(contextTotal)
		backoff := logf(backoffMass)

		toks := make([]uint32, 0, len(m))
		for tok := range m {
			toks = append(toks, tok)
		}
		sort.Slice(toks, func(i, j int) bool { return toks[i] < toks[j] })

		conts := make([]langmodel.Continuation, 0, len(toks))
		for _, tok := range toks {
			c := m[tok]
			p := (float64(c) - discount) / float64(contextTotal)
			if p <= 0 {
				continue
			}
			conts = append(conts, langmodel.Continuation{Next: tok, LogProb: float32(logf(p)), Backoff: float32(backoff)})
		}
		if len(conts) > 0 {
			contexts[key] = conts
		}
	}

	return langmodel.SaveNGramContinuations(w, b.order, b.vocabSize, unigramLog, contexts)
}
