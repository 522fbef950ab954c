// Command buildmodel assembles a binary model directory (morpheme.bin
// and langMdl.bin) from the raw text dictionary inputs: dict.txt, and
// optionally combined.txt, precombined.txt, and corpus.txt. It does not
// write skipBigram.bin; cmd/train adds that file to a built directory.
//
//	go run ./cmd/buildmodel -dict-dir ./testdata/mini -out ./model
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	kiwigo "github.com/hangul-morph/hangul-morph"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var dictDir, outDir string
	root := &cobra.Command{
		Use:   "buildmodel",
		Short: "Build a binary morpheme/language model from text dictionaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dictDir == "" || outDir == "" {
				return fmt.Errorf("buildmodel: -dict-dir and -out are both required")
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("buildmodel: create output dir: %w", err)
			}
			log.Info().Str("dict_dir", dictDir).Msg("loading raw dictionary")
			m, err := kiwigo.BuildFromRaw(dictDir)
			if err != nil {
				return fmt.Errorf("buildmodel: %w", err)
			}
			if err := m.Save(outDir); err != nil {
				return fmt.Errorf("buildmodel: save: %w", err)
			}
			log.Info().Str("out_dir", outDir).Msg("model written")
			return nil
		},
	}
	root.Flags().StringVar(&dictDir, "dict-dir", "", "directory containing dict.txt (and optional combined.txt, precombined.txt, corpus.txt)")
	root.Flags().StringVar(&outDir, "out", "", "output directory for morpheme.bin / langMdl.bin")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("buildmodel failed")
		os.Exit(1)
	}
}
