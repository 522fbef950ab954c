package decoder

import (
	"testing"

	"github.com/hangul-morph/hangul-morph/hnorm"
	"github.com/hangul-morph/hangul-morph/morpheme"
	"github.com/hangul-morph/hangul-morph/postag"
	"github.com/hangul-morph/hangul-morph/store"
	"github.com/hangul-morph/hangul-morph/trie"
)

// uniformScorer scores every transition identically, isolating the beam
// mechanics (lattice walking, dedup, top-K) from language-model behavior.
type uniformScorer struct{ logProb float64 }

func (s uniformScorer) Score(ctx []morpheme.ID, next morpheme.ID) float64 { return s.logProb }

// preferScorer scores one specific next ID higher than everything else,
// letting tests steer the beam toward a chosen candidate.
type preferScorer struct {
	preferred morpheme.ID
	high, low float64
}

func (s preferScorer) Score(ctx []morpheme.ID, next morpheme.ID) float64 {
	if next == s.preferred {
		return s.high
	}
	return s.low
}

func buildStore(t *testing.T, surfaces []struct {
	surface string
	tag     postag.Tag
}) (*store.Store, *trie.Trie, map[string]morpheme.ID) {
	t.Helper()
	s := store.New()
	ids := make(map[string]morpheme.ID)
	for _, e := range surfaces {
		key, err := hnorm.SplitJamo(e.surface)
		if err != nil {
			t.Fatalf("SplitJamo(%q): %v", e.surface, err)
		}
		formRef := s.InternForm(key)
		id := s.AddMorpheme(formRef, e.surface, e.tag, morpheme.VowelAny, morpheme.PolarityNone, nil, 0, 1)
		ids[e.surface] = id
	}
	tr, err := s.Solidify()
	if err != nil {
		t.Fatalf("Solidify: %v", err)
	}
	return s, tr, ids
}

func TestAnalyzeEmptyText(t *testing.T) {
	s, tr, _ := buildStore(t, nil)
	d := New(s, tr, uniformScorer{}, 8, 2)
	got := d.Analyze(nil)(4)
	if len(got) != 1 || got[0].Sequence != nil {
		t.Fatalf("empty text: got %+v", got)
	}
}

func TestAnalyzeTopKZero(t *testing.T) {
	s, tr, _ := buildStore(t, nil)
	d := New(s, tr, uniformScorer{}, 8, 2)
	packed, _ := hnorm.SplitJamo("가")
	if got := d.Analyze(packed)(0); got != nil {
		t.Fatalf("topK=0: got %+v, want nil", got)
	}
}

func TestAnalyzeSingleKnownWord(t *testing.T) {
	s, tr, ids := buildStore(t, []struct {
		surface string
		tag     postag.Tag
	}{{"가다", postag.VV}})
	d := New(s, tr, uniformScorer{logProb: -1}, 8, 2)

	packed, err := hnorm.SplitJamo("가다")
	if err != nil {
		t.Fatal(err)
	}
	results := d.Analyze(packed)(3)
	if len(results) == 0 {
		t.Fatal("expected at least one analysis")
	}
	best := results[0]
	found := false
	for _, id := range best.Sequence {
		if id == ids["가다"] {
			found = true
		}
	}
	if !found {
		t.Errorf("expected best sequence to contain the known morpheme, got %v", best.Sequence)
	}
	if best.Sequence[len(best.Sequence)-1] != 1 {
		t.Errorf("expected sequence to end with </s>, got %v", best.Sequence)
	}
}

func TestAnalyzeUnknownRunFallsBackToSentinel(t *testing.T) {
	s, tr, _ := buildStore(t, []struct {
		surface string
		tag     postag.Tag
	}{{"가다", postag.VV}})
	d := New(s, tr, uniformScorer{logProb: -1}, 8, 2)

	packed, err := hnorm.SplitJamo("모름")
	if err != nil {
		t.Fatal(err)
	}
	results := d.Analyze(packed)(1)
	if len(results) != 1 {
		t.Fatalf("expected one analysis, got %d", len(results))
	}
	seq := results[0].Sequence
	wantUnknown := morpheme.UnknownID(postag.Unknown)
	found := false
	for _, id := range seq {
		if id == wantUnknown {
			found = true
		}
	}
	if !found {
		t.Errorf("expected unknown sentinel in sequence, got %v", seq)
	}
}

func TestAnalyzePrefersHigherScoringCandidate(t *testing.T) {
	s, tr, _ := buildStore(t, []struct {
		surface string
		tag     postag.Tag
	}{{"가다", postag.VV}, {"가다", postag.NNG}})

	packed, err := hnorm.SplitJamo("가다")
	if err != nil {
		t.Fatal(err)
	}
	var candidates []morpheme.ID
	for _, f := range s.Forms() {
		if string(f.Key) == string(packed) {
			candidates = f.Candidates
			break
		}
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	preferred := candidates[1]

	d := New(s, tr, preferScorer{preferred: preferred, high: 0, low: -50}, 8, 2)
	results := d.Analyze(packed)(2)
	if len(results) < 1 {
		t.Fatal("expected at least one result")
	}
	best := results[0]
	found := false
	for _, id := range best.Sequence {
		if id == preferred {
			found = true
		}
	}
	if !found {
		t.Errorf("expected preferred candidate in best sequence, got %v", best.Sequence)
	}
	if len(results) > 1 && results[0].Score < results[1].Score {
		t.Errorf("results not sorted best-first: %+v", results)
	}
}

func TestAnalyzeTopKLimitsResultCount(t *testing.T) {
	s, tr, _ := buildStore(t, []struct {
		surface string
		tag     postag.Tag
	}{{"가다", postag.VV}, {"가다", postag.NNG}, {"가다", postag.VA}})
	d := New(s, tr, uniformScorer{logProb: -1}, 8, 2)
	packed, _ := hnorm.SplitJamo("가다")
	results := d.Analyze(packed)(1)
	if len(results) != 1 {
		t.Errorf("expected exactly 1 result for topK=1, got %d", len(results))
	}
}
