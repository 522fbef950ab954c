package langmodel

import (
	"bytes"
	"math"
	"testing"
)

// writeTestSkipBigram hand-assembles an uncompressed skip-bigram file
// for one condition with a single target, for exercising LoadSkipBigram
// without going through the trainer's exporter.
func writeTestSkipBigram(t *testing.T, discount, compensation float32) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	if err := writeU32(&buf, skipBigramVersion); err != nil {
		t.Fatal(err)
	}
	if err := writeU32(&buf, 1); err != nil { // vocabSize = 1
		t.Fatal(err)
	}
	buf.WriteByte(4) // keySize
	buf.WriteByte(2) // windowSize
	buf.WriteByte(0) // compressed = false
	buf.WriteByte(0) // pad

	if err := writeU32(&buf, 1); err != nil { // counts[0] = 1 target
		t.Fatal(err)
	}
	if err := writeU32(&buf, 7); err != nil { // targets[0] = token 7
		t.Fatal(err)
	}
	if err := writeF32(&buf, discount); err != nil {
		t.Fatal(err)
	}
	if err := writeF32(&buf, compensation); err != nil {
		t.Fatal(err)
	}
	buf.WriteByte(1) // valid[0] = true
	return &buf
}

func TestSkipBigramLogProbUsesCompensationWhenStronger(t *testing.T) {
	buf := writeTestSkipBigram(t, -5.0, -0.1)
	m, err := LoadSkipBigram(buf)
	if err != nil {
		t.Fatalf("LoadSkipBigram: %v", err)
	}
	got := m.LogProb(0, 7, -10.0) // base LM is much worse than the compensation
	if math.Abs(got-(-0.1)) > 1e-6 {
		t.Errorf("LogProb = %v, want -0.1 (the compensation entry)", got)
	}
}

func TestSkipBigramLogProbFallsBackToDiscountPlusBase(t *testing.T) {
	buf := writeTestSkipBigram(t, -1.0, -20.0)
	m, err := LoadSkipBigram(buf)
	if err != nil {
		t.Fatalf("LoadSkipBigram: %v", err)
	}
	// Token 8 was never observed under condition 0: falls straight to
	// discount + base.
	got := m.LogProb(0, 8, -3.0)
	want := -1.0 + -3.0
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("LogProb = %v, want %v", got, want)
	}
}

func TestSkipBigramInvalidConditionReturnsBase(t *testing.T) {
	buf := writeTestSkipBigram(t, -1.0, -0.1)
	m, err := LoadSkipBigram(buf)
	if err != nil {
		t.Fatalf("LoadSkipBigram: %v", err)
	}
	got := m.LogProb(5, 7, -4.0) // condition 5 is out of range / untrained
	if got != -4.0 {
		t.Errorf("LogProb = %v, want the raw base estimate -4.0", got)
	}
}

func TestSkipBigramBadVersion(t *testing.T) {
	var buf bytes.Buffer
	writeU32(&buf, 99)
	if _, err := LoadSkipBigram(&buf); err == nil {
		t.Fatal("expected an error for an unknown version")
	}
}
