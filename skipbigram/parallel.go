package skipbigram

import (
	"context"
	"math"
	"math/rand"
	"sync"

	"golang.org/x/sync/errgroup"
)

// blockLocks guards flushes of the trainer's flattened logit array, one
// mutex per gradientBlockSize-sized block. Readers (Evaluate) must not
// overlap with a flush of the same block; callers are responsible for
// scheduling evaluation between training epochs, not during them.
type blockLocks struct {
	mu []sync.Mutex
}

func newBlockLocks(totalSlots int) *blockLocks {
	n := (totalSlots + gradientBlockSize - 1) / gradientBlockSize
	return &blockLocks{mu: make([]sync.Mutex, n)}
}

// trainContext is a worker's private accumulation buffer: a gradient
// delta per condition plus a dirty flag so flush only walks touched
// conditions.
type trainContext struct {
	grad  [][]float64
	dirty []bool
}

func newTrainContext(tr *Trainer) *trainContext {
	return &trainContext{
		grad:  newGradAccum(tr.logits),
		dirty: make([]bool, len(tr.logits)),
	}
}

func (ctx *trainContext) reset() {
	for c, g := range ctx.grad {
		if !ctx.dirty[c] {
			continue
		}
		for k := range g {
			g[k] = 0
		}
		ctx.dirty[c] = false
	}
}

// flush adds ctx's accumulated gradient, scaled by lr, into tr's shared
// logits, locking only the blocks a touched condition's slots fall in.
func (tr *Trainer) flush(ctx *trainContext, locks *blockLocks, lr float64) {
	for c, g := range ctx.grad {
		if !ctx.dirty[c] {
			continue
		}
		offset := tr.offsets[c]
		for k, v := range g {
			if v == 0 {
				continue
			}
			block := (offset + k) / gradientBlockSize
			locks.mu[block].Lock()
			tr.logits[c][k] += lr * v
			locks.mu[block].Unlock()
		}
	}
	ctx.reset()
}

// accumulateInto runs accumulate but marks touched conditions dirty in
// ctx instead of returning a plain grad slice.
func (tr *Trainer) accumulateInto(sample Sample, ctx *trainContext) float64 {
	ll := tr.accumulate(sample, ctx.grad)
	for c, g := range ctx.grad {
		for _, v := range g {
			if v != 0 {
				ctx.dirty[c] = true
				break
			}
		}
	}
	return ll
}

// TrainParallel runs the worker-pool training regime described for
// build/train: workers pulls sentence batches from feed concurrently,
// each accumulating gradient in a private trainContext and flushing its
// dirty blocks into the shared logits every updateInterval samples.
// Learning rate decays linearly from lrStart to lrStart*1e-5 over
// totalSteps, counted across all workers combined. Training stops when
// totalSteps is reached or feed yields an empty batch.
func TrainParallel(ctx context.Context, tr *Trainer, feed Feeder, workers int, updateInterval int, rng *rand.Rand, lrStart float64, totalSteps int) error {
	if workers < 1 {
		workers = 1
	}
	locks := newBlockLocks(tr.totalSlots)

	var stepCount int64
	var mu sync.Mutex // guards stepCount and the shared rng
	lrAt := func(step int64) float64 {
		return lrStart * math.Max(float64(int64(totalSteps)-step)/float64(totalSteps), 1e-5)
	}

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			local := newTrainContext(tr)
			sinceFlush := 0
			lastLR := lrStart
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				mu.Lock()
				if stepCount >= int64(totalSteps) {
					mu.Unlock()
					return nil
				}
				mu.Unlock()

				batch := feed()
				if len(batch) == 0 {
					tr.flush(local, locks, lastLR) // flush whatever is still pending
					return nil
				}

				mu.Lock()
				order := rng.Perm(len(batch))
				mu.Unlock()

				for _, idx := range order {
					sample := batch[idx]
					mu.Lock()
					if stepCount >= int64(totalSteps) {
						mu.Unlock()
						break
					}
					step := stepCount
					stepCount++
					mu.Unlock()

					lr := lrAt(step)
					lastLR = lr
					tr.accumulateInto(sample, local)
					// The per-sample learning rate is folded into the
					// flush scale rather than the accumulation, so
					// flush scales the whole pending delta by the
					// most recent rate each time it fires.
					sinceFlush++
					if sinceFlush >= updateInterval {
						tr.flush(local, locks, lr)
						sinceFlush = 0
					}
				}
			}
		})
	}
	return g.Wait()
}
