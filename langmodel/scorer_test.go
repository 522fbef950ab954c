package langmodel

import (
	"bytes"
	"math"
	"testing"

	"github.com/hangul-morph/hangul-morph/morpheme"
)

func TestNGramScorerMatchesLogProb(t *testing.T) {
	var buf bytes.Buffer
	unigram := map[uint32]float32{10: -2.0}
	contexts := map[string][]uint32Continuation{
		contextKey([]uint32{1, 2}): {{next: 10, logProb: -0.5, backoff: -1.0}},
	}
	if err := SaveNGram(&buf, 3, 100, unigram, contexts); err != nil {
		t.Fatalf("SaveNGram: %v", err)
	}
	m, err := LoadNGram(&buf)
	if err != nil {
		t.Fatalf("LoadNGram: %v", err)
	}
	scorer := NGramScorer{Model: m}
	got := scorer.Score([]morpheme.ID{1, 2}, 10)
	if math.Abs(got-(-0.5)) > 1e-6 {
		t.Errorf("Score = %v, want -0.5", got)
	}
}

func TestSkipBigramScorerFallsBackToBase(t *testing.T) {
	unigram := map[uint32]float32{5: -4.0}
	var ngBuf bytes.Buffer
	if err := SaveNGram(&ngBuf, 2, 50, unigram, nil); err != nil {
		t.Fatalf("SaveNGram: %v", err)
	}
	base, err := LoadNGram(&ngBuf)
	if err != nil {
		t.Fatalf("LoadNGram: %v", err)
	}

	var sbBuf bytes.Buffer
	rows := []SkipBigramCondition{{}} // condition 0: untrained, Valid=false
	if err := SaveSkipBigram(&sbBuf, 4, 2, rows, false); err != nil {
		t.Fatalf("SaveSkipBigram: %v", err)
	}
	sb, err := LoadSkipBigram(&sbBuf)
	if err != nil {
		t.Fatalf("LoadSkipBigram: %v", err)
	}

	scorer := SkipBigramScorer{Model: sb, Base: base}
	got := scorer.Score([]morpheme.ID{0}, 5)
	want := base.LogProb([]uint32{0}, 5)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Score = %v, want %v (base fallback for untrained condition)", got, want)
	}
}
