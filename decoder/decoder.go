// Package decoder implements the top-K Viterbi-style beam search that
// turns a trie-generated candidate lattice into scored morpheme
// sequences.
package decoder

import (
	"sort"

	"github.com/hangul-morph/hangul-morph/hnorm"
	"github.com/hangul-morph/hangul-morph/morpheme"
	"github.com/hangul-morph/hangul-morph/postag"
	"github.com/hangul-morph/hangul-morph/store"
	"github.com/hangul-morph/hangul-morph/trie"
)

// penalty is the score charged for a condition violation. Violations
// degrade an analysis rather than pruning it, so a sentence with no
// clean parse still returns something recoverable.
const penalty = -20.0

// Scorer supplies the language-model contribution for extending a
// hypothesis with the next morpheme. Both the n-gram and skip-bigram
// backends (see package langmodel) implement it through a small adapter.
type Scorer interface {
	Score(context []morpheme.ID, next morpheme.ID) float64
}

// Analysis is one decoded candidate: the emitted morpheme sequence
// (chunks already expanded) and its accumulated score.
type Analysis struct {
	Sequence []morpheme.ID
	Score    float64
}

// Decoder runs the beam search over a solidified store and trie.
type Decoder struct {
	store      *store.Store
	trie       *trie.Trie
	scorer     Scorer
	beamWidth  int
	maxContext int
}

// New creates a decoder. beamWidth bounds the number of surviving
// hypotheses per lattice position; maxContext bounds how many trailing
// morphemes a hypothesis's LM context carries (the n-gram order minus
// one, or 1 for a skip-bigram backend).
func New(s *store.Store, t *trie.Trie, scorer Scorer, beamWidth, maxContext int) *Decoder {
	return &Decoder{store: s, trie: t, scorer: scorer, beamWidth: beamWidth, maxContext: maxContext}
}

type hypothesis struct {
	context  []morpheme.ID
	seq      []morpheme.ID
	score    float64
	lastByte byte // last jamo of the most recently emitted surface, 0 if none
	positive bool
	hasPol   bool
	socket   uint16
	lastForm morpheme.FormID // form of the most recently consumed edge
	hasForm  bool
}

func contextKey(ctx []morpheme.ID) string {
	b := make([]byte, 4*len(ctx))
	for i, id := range ctx {
		b[4*i] = byte(id)
		b[4*i+1] = byte(id >> 8)
		b[4*i+2] = byte(id >> 16)
		b[4*i+3] = byte(id >> 24)
	}
	return string(b)
}

// Analyze decodes text (already packed by package hnorm) and returns up
// to topK scored analyses ordered best-first. An empty text returns a
// single empty analysis scoring 0; topK == 0 returns no results.
func (d *Decoder) Analyze(text []byte) func(topK int) []Analysis {
	return func(topK int) []Analysis {
		if topK == 0 {
			return nil
		}
		if len(text) == 0 {
			return []Analysis{{Sequence: nil, Score: 0}}
		}

		edgesByStart := make(map[int][]trie.Edge)
		for _, e := range d.trie.Split(text) {
			edgesByStart[e.Start] = append(edgesByStart[e.Start], e)
		}

		beams := make(map[int][]*hypothesis)
		beams[0] = []*hypothesis{{context: nil, seq: nil, score: 0}}

		for p := 0; p <= len(text); p++ {
			cur := pruneBeam(beams[p], d.beamWidth)
			beams[p] = cur
			if len(cur) == 0 {
				continue
			}
			for _, e := range edgesByStart[p] {
				candidateIDs := d.candidatesFor(e)
				for _, h := range cur {
					for _, mid := range candidateIDs {
						nh := d.extend(h, mid, e, text)
						beams[e.End] = append(beams[e.End], nh)
					}
				}
			}
		}

		final := beams[len(text)]
		results := make([]Analysis, 0, len(final))
		for _, h := range final {
			eosScore := h.score + d.scorer.Score(h.context, 1) // 1 = </s>
			seq := append(append([]morpheme.ID(nil), h.seq...), morpheme.ID(1))
			results = append(results, Analysis{Sequence: seq, Score: eosScore})
		}
		sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
		if len(results) > topK {
			results = results[:topK]
		}
		return results
	}
}

// candidatesFor resolves a trie edge to the morpheme IDs it offers. An
// UnknownForm edge offers the generic unknown-tag sentinel.
func (d *Decoder) candidatesFor(e trie.Edge) []morpheme.ID {
	if e.Form == trie.UnknownForm {
		return []morpheme.ID{morpheme.UnknownID(postag.Unknown)}
	}
	return d.store.Form(e.Form).Candidates
}

// extend applies one candidate morpheme matched by edge e to h, expanding
// chunks, checking conditions, and accumulating LM score. combined_offset
// morphemes score as their redirect target. Before anything else, it
// checks the previously emitted form's suffix set (§4.3) against the
// first jamo of e's surface, penalizing an incompatible attachment.
func (d *Decoder) extend(h *hypothesis, mid morpheme.ID, e trie.Edge, text []byte) *hypothesis {
	nh := &hypothesis{
		context:  append([]morpheme.ID(nil), h.context...),
		seq:      append([]morpheme.ID(nil), h.seq...),
		score:    h.score,
		lastByte: h.lastByte,
		positive: h.positive,
		hasPol:   h.hasPol,
		socket:   h.socket,
	}

	if h.hasForm && e.Start < len(text) {
		if !d.store.Form(h.lastForm).HasSuffix(text[e.Start]) {
			nh.score += penalty
		}
	}

	m := d.store.Morpheme(mid)
	chain := []morpheme.ID{mid}
	if len(m.Chunks) > 0 {
		chain = m.Chunks
	}

	for _, cid := range chain {
		cm := d.store.Morpheme(cid)
		nh.applyConditions(cm)

		scoreTarget := cid
		if cm.CombinedOffset != 0 {
			scoreTarget = morpheme.ID(int32(cid) + cm.CombinedOffset)
		}
		nh.score += d.scorer.Score(nh.context, scoreTarget)
		nh.context = pushContext(nh.context, scoreTarget, d.maxContext)
		nh.seq = append(nh.seq, cid)
		nh.socket = cm.CombineSocket
	}

	if e.Form != trie.UnknownForm {
		nh.lastForm = e.Form
		nh.hasForm = true
	} else {
		nh.hasForm = false
	}
	return nh
}

func (h *hypothesis) applyConditions(m *morpheme.Morpheme) {
	if !vowelConditionOK(m.VowelCond, h.lastByte) {
		h.score += penalty
	}
	if h.hasPol && !polarityConditionOK(m.PolarityCond, h.positive) {
		h.score += penalty
	}
	if m.CombineSocket != 0 && h.socket != m.CombineSocket {
		h.score += penalty
	}
	if jm, err := hnorm.SplitJamo(m.Surface); err == nil && len(jm) > 0 {
		h.lastByte = jm[len(jm)-1]
	}
	switch m.PolarityCond {
	case morpheme.PolarityPositive:
		h.positive, h.hasPol = true, true
	case morpheme.PolarityNonPositive:
		h.positive, h.hasPol = false, true
	}
}

// vowelConditionOK classifies lastByte (the packed-jamo alphabet's last
// emitted unit, 0 if nothing precedes) by range: a value in
// [1, hnorm.JungBase) is a jongseong, meaning the previous syllable ends
// in a consonant (coda present); a value >= hnorm.JungBase is a
// jungseong, meaning it ends in a vowel (no coda). lastByte == 0 (start
// of sentence) counts as "no coda"/"no preceding vowel" for both pairs.
func vowelConditionOK(cond morpheme.VowelCondition, lastByte byte) bool {
	hasCoda := lastByte != 0 && lastByte < hnorm.JungBase
	endsInVowel := lastByte >= hnorm.JungBase
	switch cond {
	case morpheme.VowelNone, morpheme.VowelAny:
		return true
	case morpheme.VowelCoda:
		return hasCoda
	case morpheme.VowelNoCoda:
		return !hasCoda
	case morpheme.VowelVowel:
		return endsInVowel
	case morpheme.VowelNoVowel:
		return !endsInVowel
	default:
		return true
	}
}

func polarityConditionOK(cond morpheme.PolarityCondition, positive bool) bool {
	switch cond {
	case morpheme.PolarityPositive:
		return positive
	case morpheme.PolarityNonPositive:
		return !positive
	default:
		return true
	}
}

func pushContext(ctx []morpheme.ID, id morpheme.ID, maxLen int) []morpheme.ID {
	ctx = append(ctx, id)
	if len(ctx) > maxLen {
		ctx = ctx[len(ctx)-maxLen:]
	}
	return ctx
}

// pruneBeam deduplicates hypotheses sharing an identical trailing
// context, keeping the higher-scoring one, then keeps only the top
// beamWidth distinct contexts by score.
func pruneBeam(hs []*hypothesis, beamWidth int) []*hypothesis {
	best := make(map[string]*hypothesis, len(hs))
	for _, h := range hs {
		k := contextKey(h.context)
		if cur, ok := best[k]; !ok || h.score > cur.score {
			best[k] = h
		}
	}
	out := make([]*hypothesis, 0, len(best))
	for _, h := range best {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].score > out[j].score })
	if len(out) > beamWidth {
		out = out[:beamWidth]
	}
	return out
}
