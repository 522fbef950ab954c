package corpus

import (
	"strings"
	"testing"

	"github.com/hangul-morph/hangul-morph/postag"
	"github.com/hangul-morph/hangul-morph/store"
)

func TestParseDictLine(t *testing.T) {
	e, ok := ParseDictLine("먹\tVV\t500\t_\t0.1\t0.9\t0.9\t0.5")
	if !ok {
		t.Fatal("expected ok")
	}
	if e.Form != "먹" || e.Tag != postag.VV || e.Weight != 500 {
		t.Errorf("got %+v", e)
	}
}

func TestParseDictLineTooFewFields(t *testing.T) {
	if _, ok := ParseDictLine("먹\tVV\t500"); ok {
		t.Error("expected ok=false for short line")
	}
}

func TestParseDictLineComment(t *testing.T) {
	if _, ok := ParseDictLine("# comment"); ok {
		t.Error("expected ok=false for comment line")
	}
}

func TestParseCombinedLine(t *testing.T) {
	e, ok := ParseCombinedLine("쓰어\t쓰/VV+어/EC\tnone:none\t0")
	if !ok {
		t.Fatal("expected ok")
	}
	if len(e.Chunks) != 2 || e.Chunks[0].Surface != "쓰" || e.Chunks[1].Tag != postag.EC {
		t.Errorf("got %+v", e)
	}
}

func TestParsePreCombinedLine(t *testing.T) {
	e, ok := ParsePreCombinedLine("하+였다\tEF\tㅏㅓ\t0")
	if !ok {
		t.Fatal("expected ok")
	}
	if e.Left != "하" || e.Right != "였다" || e.Tag != postag.EF {
		t.Errorf("got %+v", e)
	}
}

func TestSentenceReaderFlushesOnBlankLine(t *testing.T) {
	r := strings.NewReader("_\t먹\tVV\t었\tEP\n\n_\t다\tEF\n")
	sr := NewSentenceReader(r)

	sent, ok := sr.Next()
	if !ok {
		t.Fatal("expected first sentence")
	}
	if len(sent) != 3 || sent[2].Tag != postag.EOS {
		t.Errorf("first sentence = %+v", sent)
	}

	sent, ok = sr.Next()
	if !ok {
		t.Fatal("expected second (trailing, unblanked) sentence")
	}
	if len(sent) != 2 || sent[1].Tag != postag.EOS {
		t.Errorf("second sentence = %+v", sent)
	}

	if _, ok := sr.Next(); ok {
		t.Error("expected no third sentence")
	}
}

func TestSubstituteEJamoOnlyForETags(t *testing.T) {
	if got := substituteEJamo("ㅓ다", postag.EF); got == "ㅓ다" {
		t.Error("expected substitution for E-tagged token starting with contracted jamo")
	}
	if got := substituteEJamo("ㅓ다", postag.NNG); got != "ㅓ다" {
		t.Errorf("non-E tag must not be substituted, got %q", got)
	}
}

func TestLoaderLoadDictDiscardsLowWeightInflectional(t *testing.T) {
	s := store.New()
	l := NewLoader(s)
	_, err := l.LoadDict(strings.NewReader("이\tJKS\t5\t_\t0.1\t0.1\t0.1\t0.1\n"))
	if err != nil {
		t.Fatalf("LoadDict: %v", err)
	}
	if _, ok := l.index[key{"이", postag.JKS}]; ok {
		t.Error("expected low-weight inflectional entry to be discarded")
	}
}

func TestLoaderLoadCombinedDiscardsMissingReference(t *testing.T) {
	s := store.New()
	l := NewLoader(s)
	st, err := l.LoadCombined(strings.NewReader("쓰어\t쓰/VV+어/EC\tnone:none\t0\n"))
	if err != nil {
		t.Fatalf("LoadCombined: %v", err)
	}
	if st.CombinedSkipped != 1 {
		t.Errorf("expected the entry to be discarded for a missing reference, got %+v", st)
	}
}
