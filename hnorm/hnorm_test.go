package hnorm

import "testing"

func TestSplitJoinRoundTrip(t *testing.T) {
	for s := rune(0xAC00); s < 0xD7A4; s += 37 { // sample across the block
		jm, err := SplitJamo(string(s))
		if err != nil {
			t.Fatalf("SplitJamo(%q): %v", string(s), err)
		}
		got := JoinJamo(jm)
		if got != string(s) {
			t.Errorf("JoinJamo(SplitJamo(%q)) = %q, want %q", string(s), got, string(s))
		}
	}
}

func TestSplitJoinRoundTripSentence(t *testing.T) {
	const word = "먹었다"
	jm, err := SplitJamo(word)
	if err != nil {
		t.Fatalf("SplitJamo: %v", err)
	}
	if got := JoinJamo(jm); got != word {
		t.Errorf("JoinJamo(SplitJamo(%q)) = %q, want %q", word, got, word)
	}
}

func TestSplitSyllableNoCoda(t *testing.T) {
	jm, n, err := SplitSyllable('가')
	if err != nil {
		t.Fatalf("SplitSyllable: %v", err)
	}
	if n != 2 {
		t.Errorf("n = %d, want 2 for a syllable with no final consonant", n)
	}
	_ = jm
}

func TestSplitSyllableWithCoda(t *testing.T) {
	_, n, err := SplitSyllable('각')
	if err != nil {
		t.Fatalf("SplitSyllable: %v", err)
	}
	if n != 3 {
		t.Errorf("n = %d, want 3 for a syllable with a final consonant", n)
	}
}

func TestSplitSyllableRejectsNonHangul(t *testing.T) {
	if _, _, err := SplitSyllable('A'); err != ErrNotSyllable {
		t.Errorf("SplitSyllable('A') err = %v, want ErrNotSyllable", err)
	}
}

func TestSplitCoda(t *testing.T) {
	base, coda, err := SplitCoda('각')
	if err != nil {
		t.Fatalf("SplitCoda: %v", err)
	}
	if coda == 0 {
		t.Errorf("coda = 0, want non-zero for 각")
	}
	if base == '각' {
		t.Errorf("base should have its final consonant zeroed out, got %q", base)
	}

	base2, coda2, err := SplitCoda('가')
	if err != nil {
		t.Fatalf("SplitCoda: %v", err)
	}
	if coda2 != 0 {
		t.Errorf("coda = %v, want 0 for a syllable with no final", coda2)
	}
	if base2 != '가' {
		t.Errorf("base = %q, want unchanged %q", base2, '가')
	}
}

func TestJoinJamoUnattachedLead(t *testing.T) {
	jm, _ := SplitSyllable('가')
	lone := []byte{jm[0]} // choseong only, no vowel ever arrives
	got := JoinJamo(lone)
	if len(got) == 0 {
		t.Fatal("expected a standalone compatibility jamo, got empty string")
	}
}

func FuzzSplitJamoJoinJamo(f *testing.F) {
	f.Add("먹었다")
	f.Add("가")
	f.Fuzz(func(t *testing.T, s string) {
		var syllables []rune
		for _, r := range s {
			if r >= 0xAC00 && r < 0xD7A4 {
				syllables = append(syllables, r)
			}
		}
		if len(syllables) == 0 {
			return
		}
		word := string(syllables)
		jm, err := SplitJamo(word)
		if err != nil {
			t.Fatalf("SplitJamo(%q): %v", word, err)
		}
		if got := JoinJamo(jm); got != word {
			t.Errorf("round-trip mismatch: JoinJamo(SplitJamo(%q)) = %q", word, got)
		}
	})
}
