// Command train fits a skip-bigram compensation table against a built
// model's vocabulary and a tokenized corpus, then writes skipBigram.bin
// into the model directory alongside morpheme.bin/langMdl.bin. It wraps
// package skipbigram's pair collection, parallel worker-pool training,
// and export behind a model-path-plus-corpus-path entry point.
//
//	go run ./cmd/train -model ./model -corpus ./testdata/mini/corpus.txt
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hangul-morph/hangul-morph/corpus"
	"github.com/hangul-morph/hangul-morph/langmodel"
	"github.com/hangul-morph/hangul-morph/morpheme"
	"github.com/hangul-morph/hangul-morph/postag"
	"github.com/hangul-morph/hangul-morph/skipbigram"
	"github.com/hangul-morph/hangul-morph/store"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var modelDir, corpusPath string
	var window, minCnt, minCoCnt, maxDataSize int
	var lmInitialBias, lmRegularizingLimit, lrStart float64
	var totalSteps, updateInterval, workers int
	var compress bool

	root := &cobra.Command{
		Use:   "train",
		Short: "Train a skip-bigram compensation table and add it to a model directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelDir == "" || corpusPath == "" {
				return fmt.Errorf("train: -model and -corpus are both required")
			}
			if workers <= 0 {
				workers = runtime.NumCPU()
			}
			return run(log, modelDir, corpusPath, window, minCnt, minCoCnt, maxDataSize,
				lmInitialBias, lmRegularizingLimit, lrStart, totalSteps, updateInterval, workers, compress)
		},
	}
	root.Flags().StringVar(&modelDir, "model", "", "model directory containing morpheme.bin and langMdl.bin")
	root.Flags().StringVar(&corpusPath, "corpus", "", "tagged training corpus (§6 sentence format)")
	root.Flags().IntVar(&window, "window", 3, "skip-bigram window size")
	root.Flags().IntVar(&minCnt, "min-cnt", 5, "minimum per-side token count, scaled by window")
	root.Flags().IntVar(&minCoCnt, "min-co-cnt", 3, "minimum co-occurrence count")
	root.Flags().IntVar(&maxDataSize, "max-data-size", 200000, "maximum surviving pairs, ranked by normalized PMI")
	root.Flags().Float64Var(&lmInitialBias, "lm-initial-bias", 2.0, "initial logit bias on the implicit other slot")
	root.Flags().Float64Var(&lmRegularizingLimit, "lm-regularizing-limit", 0.5, "minimum other-slot softmax before the pull-toward-limit term engages")
	root.Flags().Float64Var(&lrStart, "lr", 0.05, "initial learning rate, decaying to lr*1e-5 over total steps")
	root.Flags().IntVar(&totalSteps, "steps", 200000, "total training steps across all workers")
	root.Flags().IntVar(&updateInterval, "update-interval", 16, "samples between a worker's gradient flushes")
	root.Flags().IntVar(&workers, "workers", 0, "worker pool size (default: number of CPUs)")
	root.Flags().BoolVar(&compress, "compress", true, "zstd-compress the exported table")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("train failed")
		os.Exit(1)
	}
}

func run(log zerolog.Logger, modelDir, corpusPath string, window, minCnt, minCoCnt, maxDataSize int,
	lmInitialBias, lmRegularizingLimit, lrStart float64, totalSteps, updateInterval, workers int, compress bool) error {

	s, ngram, err := loadVocab(modelDir)
	if err != nil {
		return err
	}
	loader := corpus.NewLoaderFromStore(s)
	vocabSize := len(s.Morphemes())
	maxContext := ngram.Order() - 1

	f, err := os.Open(corpusPath)
	if err != nil {
		return fmt.Errorf("train: open corpus: %w", err)
	}
	defer f.Close()

	stats := skipbigram.NewPairStats(window)
	var samples []skipbigram.Sample
	sr := corpus.NewSentenceReader(f)
	for {
		sent, ok := sr.Next()
		if !ok {
			break
		}
		tokens, baseLM := tokenizeWithBaseLM(loader, ngram, sent, maxContext)
		stats.Add(tokens)
		samples = append(samples, skipbigram.Sample{Tokens: tokens, BaseLM: baseLM})
	}
	log.Info().Int("sentences", len(samples)).Int("vocab_size", vocabSize).Msg("corpus tokenized")

	vocabTargets := stats.FilterPairs(minCnt, minCoCnt, maxDataSize)
	log.Info().Int("conditions", len(vocabTargets)).Msg("pairs filtered")

	tr := skipbigram.New(vocabSize, window, vocabTargets, lmInitialBias, lmRegularizingLimit)

	rng := rand.New(rand.NewSource(1))
	var feedMu sync.Mutex
	pos := 0
	feed := func() []skipbigram.Sample {
		feedMu.Lock()
		defer feedMu.Unlock()
		if len(samples) == 0 {
			return nil
		}
		end := pos + 64
		if end > len(samples) {
			end = len(samples)
		}
		batch := samples[pos:end]
		pos = end
		if pos >= len(samples) {
			pos = 0 // cycle: TrainParallel stops itself at totalSteps
		}
		return batch
	}

	log.Info().Int("workers", workers).Int("steps", totalSteps).Msg("training")
	if err := skipbigram.TrainParallel(context.Background(), tr, feed, workers, updateInterval, rng, lrStart, totalSteps); err != nil {
		return fmt.Errorf("train: %w", err)
	}

	out, err := os.Create(fmt.Sprintf("%s/skipBigram.bin", modelDir))
	if err != nil {
		return fmt.Errorf("train: create skipBigram.bin: %w", err)
	}
	defer out.Close()
	if err := tr.Export(out, compress); err != nil {
		return fmt.Errorf("train: export: %w", err)
	}
	log.Info().Str("model_dir", modelDir).Msg("skip-bigram table written")
	return nil
}

func loadVocab(modelDir string) (*store.Store, *langmodel.NGram, error) {
	morphF, err := os.Open(fmt.Sprintf("%s/morpheme.bin", modelDir))
	if err != nil {
		return nil, nil, fmt.Errorf("train: open morpheme.bin: %w", err)
	}
	defer morphF.Close()
	s, err := store.Load(morphF)
	if err != nil {
		return nil, nil, fmt.Errorf("train: load morpheme.bin: %w", err)
	}

	ngF, err := os.Open(fmt.Sprintf("%s/langMdl.bin", modelDir))
	if err != nil {
		return nil, nil, fmt.Errorf("train: open langMdl.bin: %w", err)
	}
	defer ngF.Close()
	ngram, err := langmodel.LoadNGram(ngF)
	if err != nil {
		return nil, nil, fmt.Errorf("train: load langMdl.bin: %w", err)
	}
	return s, ngram, nil
}

// tokenizeWithBaseLM resolves a tagged sentence to vocabulary IDs and,
// for each position, the base n-gram model's log-probability under its
// trailing context -- the per-position LM_base term the training
// objective mixes against.
func tokenizeWithBaseLM(loader *corpus.Loader, ngram *langmodel.NGram, sent []corpus.Token, maxContext int) ([]uint32, []float64) {
	ids := make([]uint32, 0, len(sent)+2)
	ids = append(ids, 0) // <s>
	for _, tok := range sent {
		if tok.Tag == postag.EOS {
			ids = append(ids, 1)
			continue
		}
		if id, ok := loader.Lookup(tok.Surface, tok.Tag); ok {
			ids = append(ids, uint32(id))
		} else {
			ids = append(ids, uint32(morpheme.UnknownID(tok.Tag)))
		}
	}
	baseLM := make([]float64, len(ids))
	for i, id := range ids {
		start := i - maxContext
		if start < 0 {
			start = 0
		}
		ctx := make([]uint32, i-start)
		copy(ctx, ids[start:i])
		baseLM[i] = ngram.LogProb(ctx, id)
	}
	return ids, baseLM
}
