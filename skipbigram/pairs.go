// Package skipbigram collects skip-distance token pairs from tokenized
// corpora, trains a per-condition logit table over them with an
// asynchronous-SGD worker pool, and exports the result for
// package langmodel to query at decode time.
package skipbigram

import (
	"math"
	"sort"
)

// BOS is the token ID substituted for a position that has no predecessor
// within the window (i.e. the sentence start), matching the trainer's
// treatment of X_{i-j} falling before position 0.
const BOS uint32 = 0

// pairKey identifies an (condition, target) skip-bigram.
type pairKey struct{ a, b uint32 }

// PairStats accumulates raw co-occurrence counts across a corpus, the
// input to FilterPairs.
type PairStats struct {
	window     int
	condCount  map[uint32]int
	targCount  map[uint32]int
	coCount    map[pairKey]int
	totalPairs int
}

// NewPairStats creates an empty accumulator for the given window size.
func NewPairStats(window int) *PairStats {
	return &PairStats{
		window:    window,
		condCount: make(map[uint32]int),
		targCount: make(map[uint32]int),
		coCount:   make(map[pairKey]int),
	}
}

// Add folds one tokenized sentence's skip-bigrams into the accumulator:
// for each position i and each j in [1, window], counts the pair
// (X_{i-j} or BOS, X_i).
func (s *PairStats) Add(tokens []uint32) {
	for i := range tokens {
		for j := 1; j <= s.window; j++ {
			a := BOS
			if i-j >= 0 {
				a = tokens[i-j]
			}
			b := tokens[i]
			s.condCount[a]++
			s.targCount[b]++
			s.coCount[pairKey{a, b}]++
			s.totalPairs++
		}
	}
}

// npmi computes the normalized pointwise mutual information of a pair
// observed co times, whose condition and target marginals are condCount
// and targCount respectively, out of total pair observations.
func npmi(co, condCount, targCount, total int) float64 {
	if co <= 0 || total <= 0 {
		return math.Inf(-1)
	}
	pb := float64(targCount) / float64(total)
	ratio := float64(co) / (pb * float64(condCount))
	denom := -math.Log(float64(co) / float64(total))
	if denom == 0 {
		return math.Inf(-1)
	}
	return math.Log(ratio) / denom
}

// candidatePair is one surviving (condition, target) pair ahead of the
// maxDataSize cut.
type candidatePair struct {
	cond, target uint32
	npmi         float64
}

// FilterPairs applies the minimum-count, co-occurrence, and
// normalized-PMI filters described in §4.6; no per-token filter is
// applied to either side of a pair. When more than maxDataSize pairs
// clear the filters, it keeps the maxDataSize pairs with the highest
// normalized PMI, and ties at the cut boundary are resolved inclusively:
// every pair with npmi at least the boundary value survives, so the
// result can hold more than maxDataSize pairs.
func (s *PairStats) FilterPairs(minCnt, minCoCnt, maxDataSize int) map[uint32][]uint32 {
	var candidates []candidatePair
	for k, co := range s.coCount {
		if co < minCoCnt {
			continue
		}
		condCount := s.condCount[k.a]
		targCount := s.targCount[k.b]
		if condCount < minCnt*s.window || targCount < minCnt*s.window {
			continue
		}
		v := npmi(co, condCount, targCount, s.totalPairs)
		if v < 0 {
			continue
		}
		candidates = append(candidates, candidatePair{cond: k.a, target: k.b, npmi: v})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].npmi < candidates[j].npmi })

	if maxDataSize > 0 && len(candidates) > maxDataSize {
		threshold := candidates[len(candidates)-maxDataSize].npmi
		kept := candidates[:0]
		for _, c := range candidates {
			if c.npmi >= threshold {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}

	out := make(map[uint32][]uint32)
	for _, c := range candidates {
		out[c.cond] = append(out[c.cond], c.target)
	}
	for cond, targets := range out {
		sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
		out[cond] = targets
	}
	return out
}
