package langmodel

import (
	"bytes"
	"math"
	"testing"
)

func TestSaveLoadSkipBigramRoundTrip(t *testing.T) {
	rows := []SkipBigramCondition{
		{Targets: []uint32{3, 9}, Compensation: []float32{-0.2, -1.1}, Discount: -2.0, Valid: true},
		{Targets: nil, Compensation: nil, Discount: 0, Valid: false},
	}
	var buf bytes.Buffer
	if err := SaveSkipBigram(&buf, 4, 2, rows, false); err != nil {
		t.Fatalf("SaveSkipBigram: %v", err)
	}
	m, err := LoadSkipBigram(&buf)
	if err != nil {
		t.Fatalf("LoadSkipBigram: %v", err)
	}
	if m.NumTargets(0) != 2 {
		t.Errorf("NumTargets(0) = %d, want 2", m.NumTargets(0))
	}
	if !m.Valid(0) || m.Valid(1) {
		t.Errorf("Valid = %v,%v want true,false", m.Valid(0), m.Valid(1))
	}
	got := m.LogProb(0, 3, -9.0)
	if math.Abs(got-(-0.2)) > 1e-6 {
		t.Errorf("LogProb(cond 0, target 3) = %v, want -0.2", got)
	}
}

func TestSaveLoadSkipBigramCompressed(t *testing.T) {
	rows := []SkipBigramCondition{
		{Targets: []uint32{1}, Compensation: []float32{-0.5}, Discount: -1.0, Valid: true},
	}
	var buf bytes.Buffer
	if err := SaveSkipBigram(&buf, 4, 2, rows, true); err != nil {
		t.Fatalf("SaveSkipBigram: %v", err)
	}
	m, err := LoadSkipBigram(&buf)
	if err != nil {
		t.Fatalf("LoadSkipBigram (compressed): %v", err)
	}
	got := m.LogProb(0, 1, -9.0)
	if math.Abs(got-(-0.5)) > 1e-6 {
		t.Errorf("LogProb = %v, want -0.5", got)
	}
}
