// Command analyze loads a built model directory and decodes one
// sentence per line of stdin, writing up to -topk scored analyses per
// line to stdout.
//
//	go run ./cmd/analyze -model ./model -topk 3 < sentences.txt
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	kiwigo "github.com/hangul-morph/hangul-morph"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var modelDir string
	var topK int
	root := &cobra.Command{
		Use:   "analyze",
		Short: "Decode stdin, one sentence per line, against a built model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if modelDir == "" {
				return fmt.Errorf("analyze: -model is required")
			}
			m, err := kiwigo.Load(modelDir)
			if err != nil {
				return fmt.Errorf("analyze: load model: %w", err)
			}
			log.Info().Str("model_dir", modelDir).Int("top_k", topK).Msg("model loaded")
			return runLoop(os.Stdin, os.Stdout, m, topK)
		},
	}
	root.Flags().StringVar(&modelDir, "model", "", "model directory produced by buildmodel")
	root.Flags().IntVar(&topK, "topk", 3, "number of scored analyses to print per line")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("analyze failed")
		os.Exit(1)
	}
}

func runLoop(in *os.File, out *os.File, m *kiwigo.Model, topK int) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	w := bufio.NewWriter(out)
	defer w.Flush()
	for sc.Scan() {
		line := sc.Text()
		results, err := m.Analyze(line, topK)
		if err != nil {
			return fmt.Errorf("analyze: %q: %w", line, err)
		}
		for i, r := range results {
			if i > 0 {
				fmt.Fprint(w, "\t")
			}
			fmt.Fprintf(w, "%.3g\t", r.Score)
			for j, p := range r.Morphs {
				if j > 0 {
					fmt.Fprint(w, " ")
				}
				fmt.Fprintf(w, "%s/%s", p.Surface, p.Tag)
			}
		}
		fmt.Fprintln(w)
	}
	return sc.Err()
}
