// Package kiwigo is the programmatic surface for the analyzer: build a
// model from raw text dictionaries, load a previously built
// one, extend it with user words, and analyze text into scored
// morpheme sequences. It is the orchestration layer wiring together
// package store (the dictionary), package trie/decoder (candidate
// generation and beam search), and package langmodel (scoring) into a
// single model-manager entry point.
package kiwigo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"unicode"

	"github.com/hangul-morph/hangul-morph/corpus"
	"github.com/hangul-morph/hangul-morph/decoder"
	"github.com/hangul-morph/hangul-morph/hnorm"
	"github.com/hangul-morph/hangul-morph/langmodel"
	"github.com/hangul-morph/hangul-morph/morpheme"
	"github.com/hangul-morph/hangul-morph/postag"
	"github.com/hangul-morph/hangul-morph/segment"
	"github.com/hangul-morph/hangul-morph/store"
	"github.com/hangul-morph/hangul-morph/trie"
)

// File names a model directory carries, on either side of BuildFromRaw.
const (
	morphemeFile     = "morpheme.bin"
	ngramFile        = "langMdl.bin"
	skipBigramFile   = "skipBigram.bin" // optional
	dictTextFile     = "dict.txt"
	combinedTextFile = "combined.txt"   // optional
	preCombinedFile  = "precombined.txt" // optional
	corpusTextFile   = "corpus.txt"
)

// ngramOrder is the back-off model order BuildFromRaw trains at.
const ngramOrder = 3

// defaultBeamWidth bounds the decoder's surviving-hypothesis count at
// each lattice position.
const defaultBeamWidth = 8

// Piece is one morpheme of a decoded analysis.
type Piece struct {
	Surface string
	Tag     postag.Tag
}

// Result is one scored analysis: Analyze returns up to topK of these,
// best first.
type Result struct {
	Morphs []Piece
	Score  float64
}

// Model is the assembled analyzer: an immutable-after-Prepare dictionary
// and language model, safe for concurrent Analyze calls. AddUserWord and
// AddUserRule must not run concurrently with Analyze or with each other;
// callers serialize their own admin-time extensions.
type Model struct {
	mu sync.Mutex

	store *store.Store
	trie  *trie.Trie
	ngram *langmodel.NGram
	skip  *langmodel.SkipBigram

	// ngramRaw/skipRaw retain the exact bytes Load read or BuildFromRaw
	// produced, so Save can round-trip the language model files without
	// package langmodel needing a re-serializer for an already-parsed
	// *NGram/*SkipBigram.
	ngramRaw []byte
	skipRaw  []byte

	beamWidth int
	dirty     bool // true when a user addition needs a fresh trie before decode
}

// scorer returns this model's decoder.Scorer: the skip-bigram table
// mixed with the n-gram base when a skip-bigram model was loaded,
// otherwise the n-gram model alone.
func (m *Model) scorer() decoder.Scorer {
	if m.skip != nil {
		return langmodel.SkipBigramScorer{Model: m.skip, Base: m.ngram}
	}
	return langmodel.NGramScorer{Model: m.ngram}
}

// maxContext is the decoder's trailing-context length: the n-gram
// order minus one, or 1 when scoring is skip-bigram-led (a skip-bigram
// condition is a single token).
func (m *Model) maxContext() int {
	if m.skip != nil {
		return 1
	}
	if m.ngram.Order() > 1 {
		return m.ngram.Order() - 1
	}
	return 1
}

// BuildFromRaw reads the text dictionary inputs (§6) from dir --
// dict.txt, and optionally combined.txt, precombined.txt, corpus.txt --
// and assembles a ready-to-use Model. corpus.txt, when present, trains
// the n-gram back-off model by direct counting (see package corpus's
// NGramBuilder); without it the n-gram model holds no counts and scores
// every morpheme with the same uniform floor, -log(vocabulary size).
func BuildFromRaw(dir string) (*Model, error) {
	s := store.New()
	loader := corpus.NewLoader(s)

	dictF, err := os.Open(filepath.Join(dir, dictTextFile))
	if err != nil {
		return nil, fmt.Errorf("kiwigo: open %s: %w", dictTextFile, err)
	}
	defer dictF.Close()
	if _, err := loader.LoadDict(dictF); err != nil {
		return nil, fmt.Errorf("kiwigo: load %s: %w", dictTextFile, err)
	}

	if f, err := os.Open(filepath.Join(dir, combinedTextFile)); err == nil {
		_, lerr := loader.LoadCombined(f)
		f.Close()
		if lerr != nil {
			return nil, fmt.Errorf("kiwigo: load %s: %w", combinedTextFile, lerr)
		}
	}
	if f, err := os.Open(filepath.Join(dir, preCombinedFile)); err == nil {
		_, lerr := loader.LoadPreCombined(f)
		f.Close()
		if lerr != nil {
			return nil, fmt.Errorf("kiwigo: load %s: %w", preCombinedFile, lerr)
		}
	}

	t, err := s.Solidify()
	if err != nil {
		return nil, fmt.Errorf("kiwigo: solidify: %w", err)
	}

	vocabSize := len(s.Morphemes())
	builder := corpus.NewNGramBuilder(ngramOrder, vocabSize)
	if f, err := os.Open(filepath.Join(dir, corpusTextFile)); err == nil {
		sr := corpus.NewSentenceReader(f)
		for {
			sent, ok := sr.Next()
			if !ok {
				break
			}
			builder.Add(tokenizeSentence(loader, sent))
		}
		f.Close()
	}
	var ngBuf bytes.Buffer
	if err := builder.Build(&ngBuf); err != nil {
		return nil, fmt.Errorf("kiwigo: build n-gram model: %w", err)
	}
	raw := append([]byte(nil), ngBuf.Bytes()...)
	ngram, err := langmodel.LoadNGram(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("kiwigo: reload trained n-gram model: %w", err)
	}

	return &Model{store: s, trie: t, ngram: ngram, ngramRaw: raw, beamWidth: defaultBeamWidth}, nil
}

// tokenizeSentence resolves a tagged corpus sentence to morpheme IDs
// using the loader's surface+tag index, falling back to the unknown
// sentinel for a tag when the exact surface was never added to the
// dictionary.
func tokenizeSentence(loader *corpus.Loader, sent []corpus.Token) []uint32 {
	out := make([]uint32, 0, len(sent)+1)
	out = append(out, 0) // <s>
	for _, tok := range sent {
		if tok.Tag == postag.EOS {
			out = append(out, 1)
			continue
		}
		if id, ok := loader.Lookup(tok.Surface, tok.Tag); ok {
			out = append(out, uint32(id))
		} else {
			out = append(out, uint32(morpheme.UnknownID(tok.Tag)))
		}
	}
	return out
}

// Load reads a previously built model (morpheme.bin, langMdl.bin, and
// an optional skipBigram.bin) from dir. A magic mismatch or truncated
// section in any required file is fatal: no partial Model is returned.
func Load(dir string) (*Model, error) {
	morphF, err := os.Open(filepath.Join(dir, morphemeFile))
	if err != nil {
		return nil, fmt.Errorf("kiwigo: open %s: %w", morphemeFile, err)
	}
	defer morphF.Close()
	s, err := store.Load(morphF)
	if err != nil {
		return nil, fmt.Errorf("kiwigo: load %s: %w", morphemeFile, err)
	}

	t, err := s.Solidify()
	if err != nil {
		return nil, fmt.Errorf("kiwigo: solidify loaded store: %w", err)
	}

	ngRaw, err := os.ReadFile(filepath.Join(dir, ngramFile))
	if err != nil {
		return nil, fmt.Errorf("kiwigo: open %s: %w", ngramFile, err)
	}
	ngram, err := langmodel.LoadNGram(bytes.NewReader(ngRaw))
	if err != nil {
		return nil, fmt.Errorf("kiwigo: load %s: %w", ngramFile, err)
	}

	m := &Model{store: s, trie: t, ngram: ngram, ngramRaw: ngRaw, beamWidth: defaultBeamWidth}

	if sbRaw, err := os.ReadFile(filepath.Join(dir, skipBigramFile)); err == nil {
		skip, serr := langmodel.LoadSkipBigram(bytes.NewReader(sbRaw))
		if serr != nil {
			return nil, fmt.Errorf("kiwigo: load %s: %w", skipBigramFile, serr)
		}
		m.skip = skip
		m.skipRaw = sbRaw
	}

	return m, nil
}

// Save writes the model's dictionary to morpheme.bin, its n-gram model
// to langMdl.bin, and -- when one was loaded -- its skip-bigram model
// to skipBigram.bin, under dir.
func (m *Model) Save(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	morphF, err := os.Create(filepath.Join(dir, morphemeFile))
	if err != nil {
		return fmt.Errorf("kiwigo: create %s: %w", morphemeFile, err)
	}
	defer morphF.Close()
	if err := m.store.Save(morphF); err != nil {
		return fmt.Errorf("kiwigo: save %s: %w", morphemeFile, err)
	}

	if err := os.WriteFile(filepath.Join(dir, ngramFile), m.ngramRaw, 0o644); err != nil {
		return fmt.Errorf("kiwigo: write %s: %w", ngramFile, err)
	}
	if m.skipRaw != nil {
		if err := os.WriteFile(filepath.Join(dir, skipBigramFile), m.skipRaw, 0o644); err != nil {
			return fmt.Errorf("kiwigo: write %s: %w", skipBigramFile, err)
		}
	}
	return nil
}

// AddUserWord registers a single-morpheme post-load extension and marks
// the model dirty so the next Analyze rebuilds the trie.
func (m *Model) AddUserWord(surface string, tag postag.Tag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.store.AddUserWord(surface, tag); err != nil {
		return fmt.Errorf("kiwigo: add user word: %w", err)
	}
	m.dirty = true
	return nil
}

// AddUserRule registers a combined-morpheme post-load extension.
func (m *Model) AddUserRule(surface string, subs []store.SubMorph) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.store.AddUserRule(surface, subs); err != nil {
		return fmt.Errorf("kiwigo: add user rule: %w", err)
	}
	m.dirty = true
	return nil
}

// Prepare folds any pending user-word/user-rule additions into a fresh
// trie. It is a no-op when there is nothing pending. Analyze calls it
// automatically; exposed so a caller can pay the rebuild cost once
// after a batch of additions instead of once per Analyze call.
func (m *Model) Prepare() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prepareLocked()
}

func (m *Model) prepareLocked() error {
	if !m.dirty {
		return nil
	}
	t, err := m.store.Solidify()
	if err != nil {
		return fmt.Errorf("kiwigo: prepare: %w", err)
	}
	m.trie = t
	m.dirty = false
	return nil
}

// Analyze decodes text and returns up to topK scored analyses, best
// first. Input may span multiple sentences and mix Hangul with other
// scripts: package segment splits sentences and Hangul/non-Hangul runs;
// each Hangul run is decoded independently and non-Hangul runs pass
// through as single-morpheme pieces, then every run's alternatives are
// merged and re-pruned to topK, sentence by sentence, left to right.
// topK == 0 returns no results; empty input returns a single empty
// analysis scoring 0.
func (m *Model) Analyze(text string, topK int) ([]Result, error) {
	if topK == 0 {
		return nil, nil
	}
	m.mu.Lock()
	if err := m.prepareLocked(); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	dec := decoder.New(m.store, m.trie, m.scorer(), m.beamWidth, m.maxContext())
	st := m.store
	m.mu.Unlock()

	if text == "" {
		return []Result{{Morphs: nil, Score: 0}}, nil
	}

	sentences := segment.SplitSentences(text)
	partials := []Result{{Score: 0}}
	for _, sent := range sentences {
		partials = extendWithSentence(partials, sent, dec, st, topK)
	}
	sort.Slice(partials, func(i, j int) bool { return partials[i].Score > partials[j].Score })
	if len(partials) > topK {
		partials = partials[:topK]
	}
	return partials, nil
}

// extendWithSentence merges every run's alternatives of one sentence
// into partials, pruning back to topK after each run.
func extendWithSentence(partials []Result, sentence string, dec *decoder.Decoder, st *store.Store, topK int) []Result {
	for _, run := range segment.SplitRuns(sentence) {
		var alts []Result
		if run.Hangul {
			alts = hangulRunAlternatives(run.Text, dec, st, topK)
		} else {
			alts = nonHangulRunAlternatives(run.Text)
		}
		partials = mergePrune(partials, alts, topK)
	}
	return partials
}

func hangulRunAlternatives(text string, dec *decoder.Decoder, st *store.Store, topK int) []Result {
	packed, err := hnorm.SplitJamo(text)
	if err != nil {
		return nonHangulRunAlternatives(text)
	}
	analyses := dec.Analyze(packed)(topK)
	out := make([]Result, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, Result{Morphs: toPieces(a.Sequence, st), Score: a.Score})
	}
	return out
}

// toPieces renders a decoded ID sequence as surface/tag pairs, dropping
// the <s>/</s> boundary sentinels.
func toPieces(seq []morpheme.ID, st *store.Store) []Piece {
	pieces := make([]Piece, 0, len(seq))
	for _, id := range seq {
		if morpheme.IsBoundary(id) {
			continue
		}
		m := st.Morpheme(id)
		pieces = append(pieces, Piece{Surface: m.Surface, Tag: m.Tag})
	}
	return pieces
}

// nonHangulRunAlternatives emits a single pass-through piece for a
// non-Hangul run, tagged by a coarse Unicode class: digits as SN,
// letters as SL (foreign script), everything else as SW (symbol).
func nonHangulRunAlternatives(text string) []Result {
	tag := postag.SW
	switch {
	case allRunes(text, unicode.IsDigit):
		tag = postag.SN
	case allRunes(text, unicode.IsLetter):
		tag = postag.SL
	case allRunes(text, unicode.IsSpace):
		return []Result{{Score: 0}}
	}
	return []Result{{Morphs: []Piece{{Surface: text, Tag: tag}}, Score: 0}}
}

func allRunes(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return len(s) > 0
}

// mergePrune extends every partial by every alternative, then keeps the
// topK best by accumulated score.
func mergePrune(partials, alts []Result, topK int) []Result {
	if len(alts) == 0 {
		return partials
	}
	out := make([]Result, 0, len(partials)*len(alts))
	for _, p := range partials {
		for _, a := range alts {
			out = append(out, Result{
				Morphs: append(append([]Piece(nil), p.Morphs...), a.Morphs...),
				Score:  p.Score + a.Score,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out
}
