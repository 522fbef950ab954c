package langmodel

import (
	"bytes"
	"math"
	"testing"
)

func TestNGramLogProbExactContext(t *testing.T) {
	var buf bytes.Buffer
	unigram := map[uint32]float32{10: -2.0}
	contexts := map[string][]uint32Continuation{
		contextKey([]uint32{1, 2}): {
			{next: 10, logProb: -0.5, backoff: -1.0},
		},
	}
	if err := SaveNGram(&buf, 3, 100, unigram, contexts); err != nil {
		t.Fatalf("SaveNGram: %v", err)
	}
	m, err := LoadNGram(&buf)
	if err != nil {
		t.Fatalf("LoadNGram: %v", err)
	}
	got := m.LogProb([]uint32{1, 2}, 10)
	if math.Abs(got-(-0.5)) > 1e-6 {
		t.Errorf("LogProb = %v, want -0.5", got)
	}
}

func TestNGramLogProbBacksOff(t *testing.T) {
	var buf bytes.Buffer
	unigram := map[uint32]float32{10: -3.0}
	contexts := map[string][]uint32Continuation{
		contextKey([]uint32{1, 2}): {
			{next: 99, logProb: -0.1, backoff: -1.5},
		},
	}
	if err := SaveNGram(&buf, 3, 100, unigram, contexts); err != nil {
		t.Fatalf("SaveNGram: %v", err)
	}
	m, err := LoadNGram(&buf)
	if err != nil {
		t.Fatalf("LoadNGram: %v", err)
	}
	// token 10 isn't under context [1,2]; expect the context's backoff
	// weight plus the unigram estimate.
	got := m.LogProb([]uint32{1, 2}, 10)
	want := -1.5 + -3.0
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("LogProb = %v, want %v", got, want)
	}
}

func TestNGramBadMagic(t *testing.T) {
	buf := bytes.NewReader([]byte{1, 2, 3, 4})
	if _, err := LoadNGram(buf); err == nil {
		t.Fatal("expected an error for a file with no valid magic")
	}
}
