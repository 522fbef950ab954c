package store

import (
	"bytes"
	"testing"

	"github.com/hangul-morph/hangul-morph/hnorm"
	"github.com/hangul-morph/hangul-morph/morpheme"
	"github.com/hangul-morph/hangul-morph/postag"
)

func TestSentinelLayout(t *testing.T) {
	s := New()
	if s.Morpheme(0).Tag != postag.BOS {
		t.Errorf("morpheme 0 should be <s>")
	}
	if s.Morpheme(1).Tag != postag.EOS {
		t.Errorf("morpheme 1 should be </s>")
	}
	if got := s.Morpheme(morpheme.UnknownID(postag.NNG)).Tag; got != postag.NNG {
		t.Errorf("unknown sentinel for NNG has tag %v, want NNG", got)
	}
}

func TestInternFormDedups(t *testing.T) {
	s := New()
	key, _ := hnorm.SplitJamo("가")
	id1 := s.InternForm(key)
	id2 := s.InternForm(key)
	if id1 != id2 {
		t.Errorf("InternForm returned different IDs for the same key: %d vs %d", id1, id2)
	}
}

func TestSolidifyRejectsForwardChunkReference(t *testing.T) {
	s := New()
	key, _ := hnorm.SplitJamo("가")
	formRef := s.InternForm(key)
	bad := s.AddMorpheme(formRef, "가", postag.NNG, morpheme.VowelAny, morpheme.PolarityNone, []morpheme.ID{morpheme.ID(99999)}, 0, 100)
	_ = bad
	if _, err := s.Solidify(); err == nil {
		t.Fatal("expected Solidify to reject a chunk reference >= its own ID")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New()
	key, _ := hnorm.SplitJamo("먹다")
	formRef := s.InternForm(key)
	s.AddMorpheme(formRef, "먹다", postag.VV, morpheme.VowelAny, morpheme.PolarityNone, nil, 0, 500)
	if _, err := s.Solidify(); err != nil {
		t.Fatalf("Solidify: %v", err)
	}

	var buf bytes.Buffer
	if err := s.Save(&buf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(&buf)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Forms()) != len(s.Forms()) {
		t.Errorf("form count = %d, want %d", len(loaded.Forms()), len(s.Forms()))
	}
	if len(loaded.Morphemes()) != len(s.Morphemes()) {
		t.Errorf("morpheme count = %d, want %d", len(loaded.Morphemes()), len(s.Morphemes()))
	}
	last := loaded.Morphemes()[len(loaded.Morphemes())-1]
	if last.Surface != "먹다" || last.Tag != postag.VV {
		t.Errorf("round-tripped morpheme = %+v, want Surface=먹다 Tag=VV", last)
	}
}

func TestLoadRejectsBadMagic(t *testing.T) {
	buf := bytes.NewReader([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	if _, err := Load(buf); err == nil {
		t.Fatal("expected an error loading a file with a bad magic number")
	}
}

func TestAddUserRuleChunksReferenceFreshMorphemes(t *testing.T) {
	s := New()
	id, err := s.AddUserRule("꾸미꾸미가", []SubMorph{
		{Surface: "꾸미꾸미", Tag: postag.NNP},
		{Surface: "가", Tag: postag.JKS},
	})
	if err != nil {
		t.Fatalf("AddUserRule: %v", err)
	}
	m := s.Morpheme(id)
	if len(m.Chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(m.Chunks))
	}
	for _, c := range m.Chunks {
		if c >= id {
			t.Errorf("chunk %d is not strictly smaller than enclosing morpheme %d", c, id)
		}
	}
}
