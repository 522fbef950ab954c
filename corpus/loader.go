// Loader wiring: turns the text formats in lines.go into calls against
// package store, deriving conditions per morpheme.DeriveVowelCondition /
// DerivePolarityCondition and applying the low-weight cutoff exactly as
// spec.md §4.2 specifies.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/hangul-morph/hangul-morph/hnorm"
	"github.com/hangul-morph/hangul-morph/morpheme"
	"github.com/hangul-morph/hangul-morph/postag"
	"github.com/hangul-morph/hangul-morph/store"
)

// Stats counts lines skipped during a dictionary load. Build errors
// never abort on a per-line basis (§7); these counters are the only
// record a caller gets of what was dropped.
type Stats struct {
	DictLines, DictSkipped           int
	CombinedLines, CombinedSkipped   int
	PreCombinedLines, PreCombinedSkip int
}

// key identifies a morpheme by surface+tag for combined/pre-combined
// cross-referencing during a single load.
type key struct {
	surface string
	tag     postag.Tag
}

// Loader accumulates surface+tag -> morpheme.ID as it loads dictionary
// files, so later combined-entry and pre-combined lines can resolve
// their constituent references.
type Loader struct {
	Store *store.Store
	index map[key]morpheme.ID
}

// NewLoader creates a Loader writing into s.
func NewLoader(s *store.Store) *Loader {
	return &Loader{Store: s, index: make(map[key]morpheme.ID)}
}

// NewLoaderFromStore rebuilds a surface+tag lookup index over an
// already-solidified store (e.g. one read back with store.Load), for
// callers that need Lookup but did not build the store themselves in
// this process. Earlier IDs win on a surface+tag collision. LoadDict and
// LoadCombined instead let a later line replace an earlier one in their
// index, so a dictionary that repeats a surface+tag pair resolves it to
// a different ID here than during a fresh build.
func NewLoaderFromStore(s *store.Store) *Loader {
	l := &Loader{Store: s, index: make(map[key]morpheme.ID)}
	for id, m := range s.Morphemes() {
		if m.Surface == "" {
			continue
		}
		k := key{m.Surface, m.Tag}
		if _, ok := l.index[k]; ok {
			continue
		}
		l.index[k] = morpheme.ID(id)
	}
	return l
}

// Lookup resolves a surface+tag pair to the morpheme ID it was loaded
// or interned under, for callers (e.g. package kiwigo's corpus
// tokenizer) that need to turn tagged corpus tokens into vocabulary IDs
// after a dictionary load.
func (l *Loader) Lookup(surface string, tag postag.Tag) (morpheme.ID, bool) {
	id, ok := l.index[key{surface, tag}]
	return id, ok
}

func (l *Loader) intern(surface string, tag postag.Tag) (morpheme.ID, error) {
	if id, ok := l.index[key{surface, tag}]; ok {
		return id, nil
	}
	normKey, err := hnorm.SplitJamo(surface)
	if err != nil {
		return 0, err
	}
	formRef := l.Store.InternForm(normKey)
	id := l.Store.AddMorpheme(formRef, surface, tag, morpheme.VowelAny, morpheme.PolarityNone, nil, 0, lowWeightFloor)
	l.index[key{surface, tag}] = id
	return id, nil
}

// lowWeightFloor is the weight given morphemes synthesized here for
// cross-referencing purposes (e.g. a pre-combined entry's right-hand
// counterpart that never appeared in dict.txt). It sits above the
// inflectional discard cutoff.
const lowWeightFloor = 1000

// LoadDict reads a morpheme dictionary file (§6) into l.Store, deriving
// vowel/polarity conditions from the six probability columns and
// discarding inflectional-range entries below the weight cutoff per
// morpheme.DiscardForLowWeight.
func (l *Loader) LoadDict(r io.Reader) (Stats, error) {
	var st Stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" || strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		st.DictLines++
		e, ok := ParseDictLine(line)
		if !ok {
			st.DictSkipped++
			continue
		}
		if morpheme.DiscardForLowWeight(e.Tag.Inflectional(), e.Weight) {
			st.DictSkipped++
			continue
		}
		vowelCond := morpheme.DeriveVowelCondition(e.Vowel, e.Vocalic, e.VocalicH)
		polarityCond := morpheme.DerivePolarityCondition(e.Positive)

		normKey, err := hnorm.SplitJamo(e.Form)
		if err != nil {
			st.DictSkipped++
			continue
		}
		formRef := l.Store.InternForm(normKey)
		id := l.Store.AddMorpheme(formRef, e.Form, e.Tag, vowelCond, polarityCond, nil, 0, e.Weight)
		l.index[key{e.Form, e.Tag}] = id
	}
	return st, sc.Err()
}

// LoadCombined reads combined-entry lines (§6): each becomes one
// combined morpheme whose Chunks are resolved against entries already
// loaded by LoadDict (or earlier combined lines in the same file). A
// chunk referencing an unknown surface+tag pair is a missing morpheme
// reference (§7): the whole entry is discarded and the file continues.
func (l *Loader) LoadCombined(r io.Reader) (Stats, error) {
	var st Stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		st.CombinedLines++
		e, ok := ParseCombinedLine(line)
		if !ok {
			st.CombinedSkipped++
			continue
		}
		chunks := make([]morpheme.ID, 0, len(e.Chunks))
		missing := false
		for _, c := range e.Chunks {
			id, ok := l.index[key{c.Surface, c.Tag}]
			if !ok {
				missing = true
				break
			}
			chunks = append(chunks, id)
		}
		if missing {
			st.CombinedSkipped++
			continue
		}
		vowelCond, polarityCond := parseCondition(e.Condition)
		normKey, err := hnorm.SplitJamo(e.Form)
		if err != nil {
			st.CombinedSkipped++
			continue
		}
		formRef := l.Store.InternForm(normKey)
		lastTag := e.Chunks[len(e.Chunks)-1].Tag
		id := l.Store.AddMorpheme(formRef, e.Form, lastTag, vowelCond, polarityCond, chunks, e.Socket, lowWeightFloor)
		l.index[key{e.Form, lastTag}] = id
	}
	return st, sc.Err()
}

// LoadPreCombined reads pre-combined lines (§6): a surface "left+right"
// whose analysis redirects to its right-hand counterpart via
// combined_offset, and whose suffix set is recorded on its form.
func (l *Loader) LoadPreCombined(r io.Reader) (Stats, error) {
	var st Stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 1<<20), 1<<20)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		st.PreCombinedLines++
		e, ok := ParsePreCombinedLine(line)
		if !ok {
			st.PreCombinedSkip++
			continue
		}
		rightID, err := l.intern(e.Right, e.Tag)
		if err != nil {
			st.PreCombinedSkip++
			continue
		}
		surface := e.Left + e.Right
		normKey, err := hnorm.SplitJamo(surface)
		if err != nil {
			st.PreCombinedSkip++
			continue
		}
		formRef := l.Store.InternForm(normKey)
		id := l.Store.AddMorpheme(formRef, surface, e.Tag, morpheme.VowelAny, morpheme.PolarityNone, nil, e.Socket, lowWeightFloor)
		l.Store.Morphemes()[id].CombinedOffset = int32(rightID) - int32(id)
		for _, r := range e.Suffixes {
			if jm, ok := hnorm.PackJamo(r); ok {
				l.Store.Form(formRef).AddSuffix(jm)
			}
		}
	}
	return st, sc.Err()
}

// parseCondition resolves a combined-entry's "conditions" field, a
// "vowelName:polarityName" pair (either side may be "-" for the
// unconstrained value).
func parseCondition(raw string) (morpheme.VowelCondition, morpheme.PolarityCondition) {
	vowelName, polarityName, _ := strings.Cut(raw, ":")
	return vowelConditionNames[vowelName], polarityConditionNames[polarityName]
}

var vowelConditionNames = map[string]morpheme.VowelCondition{
	"none": morpheme.VowelNone, "any": morpheme.VowelAny, "-": morpheme.VowelAny,
	"coda": morpheme.VowelCoda, "nocoda": morpheme.VowelNoCoda,
	"vowel": morpheme.VowelVowel, "novowel": morpheme.VowelNoVowel,
}

var polarityConditionNames = map[string]morpheme.PolarityCondition{
	"none": morpheme.PolarityNone, "-": morpheme.PolarityNone,
	"positive": morpheme.PolarityPositive, "nonpositive": morpheme.PolarityNonPositive,
}

// String renders Stats for log output.
func (s Stats) String() string {
	return fmt.Sprintf("dict=%d/%d combined=%d/%d precombined=%d/%d (loaded/skipped)",
		s.DictLines-s.DictSkipped, s.DictSkipped,
		s.CombinedLines-s.CombinedSkipped, s.CombinedSkipped,
		s.PreCombinedLines-s.PreCombinedSkip, s.PreCombinedSkip)
}
