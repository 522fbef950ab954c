package skipbigram

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// gradientBlockSize is the granularity of the per-block locks guarding
// flushes into the shared logit table.
const gradientBlockSize = 128

// Sample is one training sentence: X0=<s> .. Xn-1=</s> tokenized against
// the morpheme store's vocabulary, plus the base n-gram model's
// log-probability for every position.
type Sample struct {
	Tokens []uint32
	BaseLM []float64
}

// Trainer holds the per-condition skip-bigram logit table being fit.
// Condition c's logits has length len(targets[c])+1; the final entry is
// the implicit "other" slot's logit.
type Trainer struct {
	window              int
	lmInitialBias       float64
	lmRegularizingLimit float64

	targets [][]uint32
	logits  [][]float64

	offsets    []int // flattened start index per condition
	totalSlots int
}

// New builds a trainer over vocabSize conditions. vocabTargets supplies
// each condition's filtered continuation set (see PairStats.FilterPairs);
// a condition absent from vocabTargets gets no targets and only the
// "other" slot: its window contributions all take the base-LM branch,
// and its single logit always receives zero gradient.
func New(vocabSize, window int, vocabTargets map[uint32][]uint32, lmInitialBias, lmRegularizingLimit float64) *Trainer {
	tr := &Trainer{
		window:              window,
		lmInitialBias:       lmInitialBias,
		lmRegularizingLimit: lmRegularizingLimit,
		targets:             make([][]uint32, vocabSize),
		logits:              make([][]float64, vocabSize),
		offsets:             make([]int, vocabSize),
	}
	offset := 0
	for c := 0; c < vocabSize; c++ {
		t := vocabTargets[uint32(c)]
		tr.targets[c] = t
		l := make([]float64, len(t)+1)
		l[len(t)] = lmInitialBias // "other" slot starts biased toward the base LM
		tr.logits[c] = l
		tr.offsets[c] = offset
		offset += len(l)
	}
	tr.totalSlots = offset
	return tr
}

// Logits exposes condition c's current logit vector, read-only.
func (tr *Trainer) Logits(c uint32) []float64 { return tr.logits[c] }

// Targets exposes condition c's sorted continuation set.
func (tr *Trainer) Targets(c uint32) []uint32 { return tr.targets[c] }

func (tr *Trainer) otherIndex(c uint32) int { return len(tr.logits[c]) - 1 }

// branch identifies which logit slot a window contribution landed on.
type branch struct {
	cond, idx int
	logProb   float64
}

// accumulate computes the log-likelihood of sample under the current
// logits and, if grad is non-nil, adds the analytic gradient into it.
// grad must be sized like Trainer.logits (see newGradAccum).
func (tr *Trainer) accumulate(sample Sample, grad [][]float64) float64 {
	n := len(sample.Tokens)
	if n < 2 {
		return 0
	}

	// Pass 1: every source position i contributes to up to window
	// targets ahead; group contributions by target position.
	contribsByTarget := make(map[int][]branch, n)
	sourceSoftmax := make(map[int][]float64, n)
	for i := 0; i < n-1; i++ {
		c := sample.Tokens[i]
		if int(c) >= len(tr.logits) || len(tr.logits[c]) == 0 {
			continue
		}
		ls := logSoftmax(tr.logits[c])
		sourceSoftmax[i] = ls
		targets := tr.targets[c]
		other := tr.otherIndex(c)
		for j := 1; j <= tr.window && i+j < n; j++ {
			t := i + j
			xt := sample.Tokens[t]
			idx := sort.Search(len(targets), func(k int) bool { return targets[k] >= xt })
			if idx < len(targets) && targets[idx] == xt {
				contribsByTarget[t] = append(contribsByTarget[t], branch{cond: i, idx: idx, logProb: ls[idx]})
			} else {
				contribsByTarget[t] = append(contribsByTarget[t], branch{cond: i, idx: other, logProb: ls[other] + sample.BaseLM[t]})
			}
		}
	}

	loglik := 0.0
	for t, branches := range contribsByTarget {
		_ = t
		logProbs := make([]float64, len(branches))
		for k, b := range branches {
			logProbs[k] = b.logProb
		}
		denomLog := logSumExp(logProbs)
		loglik += denomLog - math.Log(float64(len(branches)))

		if grad == nil {
			continue
		}
		for _, b := range branches {
			weight := math.Exp(b.logProb - denomLog)
			c := sample.Tokens[b.cond]
			sm := softmaxFromLog(sourceSoftmax[b.cond])
			for k := range grad[c] {
				onehot := 0.0
				if k == b.idx {
					onehot = 1.0
				}
				grad[c][k] += weight * (onehot - sm[k])
			}
		}
	}

	if grad != nil {
		for i := 0; i < n-1; i++ {
			ls, ok := sourceSoftmax[i]
			if !ok {
				continue
			}
			c := sample.Tokens[i]
			other := tr.otherIndex(c)
			sOther := math.Exp(ls[other])
			if sOther >= tr.lmRegularizingLimit {
				continue
			}
			sm := softmaxFromLog(ls)
			pull := (tr.lmRegularizingLimit - sOther) / tr.lmRegularizingLimit
			for k := range grad[c] {
				onehot := 0.0
				if k == other {
					onehot = 1.0
				}
				grad[c][k] += pull * (onehot - sm[k])
			}
		}
	}

	return loglik
}

func softmaxFromLog(ls []float64) []float64 {
	out := make([]float64, len(ls))
	for i, l := range ls {
		out[i] = math.Exp(l)
	}
	return out
}

func newGradAccum(logits [][]float64) [][]float64 {
	g := make([][]float64, len(logits))
	for i, l := range logits {
		g[i] = make([]float64, len(l))
	}
	return g
}

// applyGrad adds scale*grad into the trainer's logits directly. Used by
// the single-threaded Train; the parallel path instead flushes through
// per-block locks (see parallel.go).
func (tr *Trainer) applyGrad(grad [][]float64, scale float64) {
	for c, g := range grad {
		for k, v := range g {
			if v != 0 {
				tr.logits[c][k] += scale * v
			}
		}
	}
}

// Feeder yields training samples; an empty batch signals clean
// termination (the trainer never treats this as an error).
type Feeder func() []Sample

// Train runs single-threaded asynchronous-free gradient ascent: one
// sample at a time, learning rate decaying linearly from lrStart to
// lrStart*1e-5 over totalSteps. It stops when totalSteps is reached or
// feed returns an empty batch. observe, if non-nil, is called after
// every step with the running log-likelihood.
func Train(tr *Trainer, feed Feeder, rng *rand.Rand, lrStart float64, totalSteps int, observe func(step int, loglik float64)) {
	step := 0
	for step < totalSteps {
		batch := feed()
		if len(batch) == 0 {
			return
		}
		order := rng.Perm(len(batch))
		for _, idx := range order {
			if step >= totalSteps {
				return
			}
			lr := lrStart * math.Max(float64(totalSteps-step)/float64(totalSteps), 1e-5)
			grad := newGradAccum(tr.logits)
			ll := tr.accumulate(batch[idx], grad)
			tr.applyGrad(grad, lr)
			step++
			if observe != nil {
				observe(step, ll)
			}
		}
	}
}

// Evaluate returns the mean per-sample log-likelihood over samples
// without mutating the logits, for monitoring between epochs.
func Evaluate(tr *Trainer, samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range samples {
		total += tr.accumulate(s, nil)
	}
	return total / float64(len(samples))
}

// checkGradShape is a defensive assertion used by tests; it is not on
// the training hot path.
func checkGradShape(tr *Trainer, grad [][]float64) error {
	if len(grad) != len(tr.logits) {
		return fmt.Errorf("skipbigram: gradient has %d conditions, want %d", len(grad), len(tr.logits))
	}
	for c := range grad {
		if len(grad[c]) != len(tr.logits[c]) {
			return fmt.Errorf("skipbigram: gradient condition %d has %d slots, want %d", c, len(grad[c]), len(tr.logits[c]))
		}
	}
	return nil
}
