package kiwigo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hangul-morph/hangul-morph/postag"
)

func writeRawModel(t *testing.T, dir string) {
	t.Helper()
	dict := "먹\tVV\t500\t_\t0.1\t0.9\t0.9\t0.5\n" +
		"었\tEP\t500\t_\t0.1\t0.1\t0.1\t0.9\n" +
		"다\tEF\t500\t_\t0.1\t0.1\t0.1\t0.5\n" +
		"사람\tNNG\t500\t_\t0.1\t0.9\t0.9\t0.5\n" +
		"이\tJKS\t500\t_\t0.9\t0.1\t0.1\t0.5\n"
	if err := os.WriteFile(filepath.Join(dir, dictTextFile), []byte(dict), 0o644); err != nil {
		t.Fatalf("write dict.txt: %v", err)
	}
}

func TestBuildFromRawAndAnalyzeEmptyInput(t *testing.T) {
	dir := t.TempDir()
	writeRawModel(t, dir)

	m, err := BuildFromRaw(dir)
	if err != nil {
		t.Fatalf("BuildFromRaw: %v", err)
	}

	results, err := m.Analyze("", 3)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(results) != 1 || results[0].Score != 0 || results[0].Morphs != nil {
		t.Errorf("Analyze(\"\") = %+v, want one empty zero-score result", results)
	}
}

func TestAnalyzeTopKZero(t *testing.T) {
	dir := t.TempDir()
	writeRawModel(t, dir)
	m, err := BuildFromRaw(dir)
	if err != nil {
		t.Fatalf("BuildFromRaw: %v", err)
	}
	results, err := m.Analyze("먹었다", 0)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if results != nil {
		t.Errorf("Analyze(topK=0) = %+v, want nil", results)
	}
}

func TestAnalyzeDecodesKnownSentence(t *testing.T) {
	dir := t.TempDir()
	writeRawModel(t, dir)
	m, err := BuildFromRaw(dir)
	if err != nil {
		t.Fatalf("BuildFromRaw: %v", err)
	}

	results, err := m.Analyze("먹었다", 1)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected exactly one result for topK=1, got %d", len(results))
	}
	var tags []postag.Tag
	for _, p := range results[0].Morphs {
		tags = append(tags, p.Tag)
	}
	if len(tags) == 0 {
		t.Errorf("expected a non-empty analysis, got %+v", results[0])
	}
}

func TestAddUserWordIsPickedUpAfterPrepare(t *testing.T) {
	dir := t.TempDir()
	writeRawModel(t, dir)
	m, err := BuildFromRaw(dir)
	if err != nil {
		t.Fatalf("BuildFromRaw: %v", err)
	}
	if err := m.AddUserWord("꾸미꾸미", postag.NNP); err != nil {
		t.Fatalf("AddUserWord: %v", err)
	}

	results, err := m.Analyze("꾸미꾸미가", 1)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(results) != 1 || len(results[0].Morphs) == 0 {
		t.Fatalf("expected a non-empty analysis, got %+v", results)
	}
	if results[0].Morphs[0].Surface != "꾸미꾸미" || results[0].Morphs[0].Tag != postag.NNP {
		t.Errorf("expected the user word to lead the analysis, got %+v", results[0].Morphs)
	}
}

func TestLoadRejectsBadMorphemeMagic(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, morphemeFile), []byte{1, 2, 3, 4}, 0o644); err != nil {
		t.Fatalf("write morpheme.bin: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatal("expected Load to fail on bad magic")
	}
}
