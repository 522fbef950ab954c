// Package langmodel implements the two read-only language models the
// decoder scores candidate morphemes against: an n-gram back-off model
// and a skip-bigram logit table. Both are immutable once loaded and safe
// for concurrent queries.
package langmodel

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// ngramMagic is the little-endian prefix identifying an n-gram model
// file, distinct from the skip-bigram file's own header.
const ngramMagic uint32 = 0x4C4D474E // "NGML"

// continuation is one observed next-token entry under a context.
type continuation struct {
	next    uint32
	logProb float32
}

// NGram is a read-only Kneser-Ney-style back-off language model: for
// each observed context it stores a set of continuations and a back-off
// weight, queried by progressively shortening the context.
type NGram struct {
	order     int
	vocabSize int
	contexts  map[string][]continuation
	backoff   map[string]float32
	unigram   map[uint32]float32
}

// contextKey encodes a context as a comparable map key, most recent
// token last.
func contextKey(ctx []uint32) string {
	buf := make([]byte, 4*len(ctx))
	for i, c := range ctx {
		binary.LittleEndian.PutUint32(buf[i*4:], c)
	}
	return string(buf)
}

// Order returns the n-gram order (maximum context length + 1).
func (m *NGram) Order() int { return m.order }

// LogProb returns log P(next | context), backing off through
// progressively shorter suffixes of context -- which must have length
// at most Order()-1 -- until a stored continuation is found, summing the
// traversed back-off weights. An empty context returns the unigram
// estimate.
func (m *NGram) LogProb(context []uint32, next uint32) float64 {
	total := float64(0)
	ctx := context
	for {
		key := contextKey(ctx)
		if conts, ok := m.contexts[key]; ok {
			for _, c := range conts {
				if c.next == next {
					return total + float64(c.logProb)
				}
			}
			total += float64(m.backoff[key])
		}
		if len(ctx) == 0 {
			break
		}
		ctx = ctx[1:]
	}
	if p, ok := m.unigram[next]; ok {
		return total + float64(p)
	}
	// No observation at all: a uniform floor over the vocabulary keeps
	// the decoder's score total finite instead of propagating -Inf.
	return total + -math.Log(float64(m.vocabSize))
}

// LoadNGram reads an n-gram model written by SaveNGram (or by
// SaveNGramContinuations, which package corpus's NGramBuilder uses). A
// magic mismatch or truncated section is fatal.
func LoadNGram(r io.Reader) (*NGram, error) {
	br := bufio.NewReader(r)
	got, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("langmodel: read ngram magic: %w", err)
	}
	if got != ngramMagic {
		return nil, fmt.Errorf("langmodel: bad ngram magic %#x, want %#x", got, ngramMagic)
	}
	order, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("langmodel: read order: %w", err)
	}
	vocabSize, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("langmodel: read vocabSize: %w", err)
	}
	unigramCount, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("langmodel: read unigram count: %w", err)
	}

	m := &NGram{
		order:     int(order),
		vocabSize: int(vocabSize),
		contexts:  make(map[string][]continuation),
		backoff:   make(map[string]float32),
		unigram:   make(map[uint32]float32, unigramCount),
	}
	for i := uint32(0); i < unigramCount; i++ {
		tok, err := readU32(br)
		if err != nil {
			return nil, fmt.Errorf("langmodel: read unigram %d: %w", i, err)
		}
		p, err := readF32(br)
		if err != nil {
			return nil, fmt.Errorf("langmodel: read unigram %d logprob: %w", i, err)
		}
		m.unigram[tok] = p
	}

	contextCount, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("langmodel: read context count: %w", err)
	}
	for i := uint32(0); i < contextCount; i++ {
		ctxLen, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("langmodel: read context %d length: %w", i, err)
		}
		ctx := make([]uint32, ctxLen)
		for j := range ctx {
			v, err := readU32(br)
			if err != nil {
				return nil, fmt.Errorf("langmodel: read context %d token %d: %w", i, j, err)
			}
			ctx[j] = v
		}
		backoffW, err := readF32(br)
		if err != nil {
			return nil, fmt.Errorf("langmodel: read context %d backoff: %w", i, err)
		}
		contCount, err := readU16(br)
		if err != nil {
			return nil, fmt.Errorf("langmodel: read context %d continuation count: %w", i, err)
		}
		conts := make([]continuation, contCount)
		for j := range conts {
			next, err := readU32(br)
			if err != nil {
				return nil, fmt.Errorf("langmodel: read context %d continuation %d: %w", i, j, err)
			}
			p, err := readF32(br)
			if err != nil {
				return nil, fmt.Errorf("langmodel: read context %d continuation %d logprob: %w", i, j, err)
			}
			conts[j] = continuation{next: next, logProb: p}
		}
		key := contextKey(ctx)
		m.contexts[key] = conts
		m.backoff[key] = backoffW
	}
	return m, nil
}

// SaveNGram writes an n-gram model in the format LoadNGram reads.
func SaveNGram(w io.Writer, order, vocabSize int, unigram map[uint32]float32, contexts map[string][]uint32Continuation) error {
	bw := bufio.NewWriter(w)
	if err := writeU32(bw, ngramMagic); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(order)); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(vocabSize)); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(len(unigram))); err != nil {
		return err
	}
	for tok, p := range unigram {
		if err := writeU32(bw, tok); err != nil {
			return err
		}
		if err := writeF32(bw, p); err != nil {
			return err
		}
	}
	if err := writeU32(bw, uint32(len(contexts))); err != nil {
		return err
	}
	for key, cs := range contexts {
		ctx := []byte(key)
		if len(ctx)%4 != 0 || len(ctx)/4 > 255 {
			return fmt.Errorf("langmodel: context key has invalid length %d", len(ctx))
		}
		if err := bw.WriteByte(byte(len(ctx) / 4)); err != nil {
			return err
		}
		if _, err := bw.Write(ctx); err != nil {
			return err
		}
		if len(cs) == 0 {
			return fmt.Errorf("langmodel: context has no continuations")
		}
		if err := writeF32(bw, cs[0].backoff); err != nil {
			return err
		}
		if err := writeU16(bw, uint16(len(cs))); err != nil {
			return err
		}
		for _, c := range cs {
			if err := writeU32(bw, c.next); err != nil {
				return err
			}
			if err := writeF32(bw, c.logProb); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// uint32Continuation is the build-time shape SaveNGram accepts: the
// back-off weight is carried once per context, repeated on every
// continuation entry -- a flat redundant format over a nested one.
type uint32Continuation struct {
	next    uint32
	logProb float32
	backoff float32
}

// Continuation is the exported counterpart of uint32Continuation, for
// n-gram builders outside this package (package corpus's back-off
// estimator).
type Continuation struct {
	Next    uint32
	LogProb float32
	Backoff float32
}

// ContextKey exposes the context-to-map-key encoding LoadNGram and
// NGram.LogProb use, so an external builder's context map lines up with
// a loaded model's.
func ContextKey(ctx []uint32) string { return contextKey(ctx) }

// SaveNGramContinuations is SaveNGram with the exported Continuation
// type, for builders that live outside this package.
func SaveNGramContinuations(w io.Writer, order, vocabSize int, unigram map[uint32]float32, contexts map[string][]Continuation) error {
	conv := make(map[string][]uint32Continuation, len(contexts))
	for k, cs := range contexts {
		out := make([]uint32Continuation, len(cs))
		for i, c := range cs {
			out[i] = uint32Continuation{next: c.Next, logProb: c.LogProb, backoff: c.Backoff}
		}
		conv[k] = out
	}
	return SaveNGram(w, order, vocabSize, unigram, conv)
}
