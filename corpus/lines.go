// Package corpus parses the build-time text inputs: morpheme dictionary
// lines, combined-entry lines, pre-combined lines, and tagged corpus
// lines. Every parser here is total — a malformed line reports ok=false
// rather than erroring, so a caller scanning a whole file can skip it
// and keep counting; a malformed input line is silently skipped, never
// fatal.
package corpus

import (
	"strconv"
	"strings"

	"github.com/hangul-morph/hangul-morph/postag"
)

// DictEntry is one parsed morpheme dictionary line: form, tag, the
// import frequency weight, and the six probability columns
// morpheme.DeriveVowelCondition/DerivePolarityCondition consume (the
// "_" field in the line is reserved and ignored).
type DictEntry struct {
	Form     string
	Tag      postag.Tag
	Weight   float32
	Vowel    float32
	Vocalic  float32
	VocalicH float32
	Positive float32
}

// ParseDictLine parses one tab-separated dictionary line:
// form, tag, weight, _, vowel, vocalic, vocalicH, positive. Comment
// lines (leading '#'), blank lines, and lines with fewer than eight
// fields report ok=false.
func ParseDictLine(line string) (DictEntry, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || strings.HasPrefix(line, "#") {
		return DictEntry{}, false
	}
	f := strings.Split(line, "\t")
	if len(f) < 8 {
		return DictEntry{}, false
	}
	tag, ok := postag.Parse(f[1])
	if !ok {
		return DictEntry{}, false
	}
	weight, err := strconv.ParseFloat(f[2], 32)
	if err != nil {
		return DictEntry{}, false
	}
	vowel, err1 := strconv.ParseFloat(f[4], 32)
	vocalic, err2 := strconv.ParseFloat(f[5], 32)
	vocalicH, err3 := strconv.ParseFloat(f[6], 32)
	positive, err4 := strconv.ParseFloat(f[7], 32)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return DictEntry{}, false
	}
	return DictEntry{
		Form:     f[0],
		Tag:      tag,
		Weight:   float32(weight),
		Vowel:    float32(vowel),
		Vocalic:  float32(vocalic),
		VocalicH: float32(vocalicH),
		Positive: float32(positive),
	}, true
}

// ChunkSpec names one constituent of a combined-entry's chunkspec:
// sub-surface and its tag.
type ChunkSpec struct {
	Surface string
	Tag     postag.Tag
}

// CombinedEntry is one parsed combined-entry line: a surface that
// expands at decode time into Chunks, plus an optional combine socket.
type CombinedEntry struct {
	Form      string
	Chunks    []ChunkSpec
	Condition string // raw conditions field, resolved by the loader
	Socket    uint16
}

// ParseCombinedLine parses a tab-separated combined-entry line:
// form, chunkspec ("sub/tag(+sub/tag)*"), conditions, and an optional
// trailing socket integer.
func ParseCombinedLine(line string) (CombinedEntry, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || strings.HasPrefix(line, "#") {
		return CombinedEntry{}, false
	}
	f := strings.Split(line, "\t")
	if len(f) < 3 {
		return CombinedEntry{}, false
	}
	parts := strings.Split(f[1], "+")
	chunks := make([]ChunkSpec, 0, len(parts))
	for _, p := range parts {
		sub, tagName, ok := strings.Cut(p, "/")
		if !ok {
			return CombinedEntry{}, false
		}
		tag, ok := postag.Parse(tagName)
		if !ok {
			return CombinedEntry{}, false
		}
		chunks = append(chunks, ChunkSpec{Surface: sub, Tag: tag})
	}
	if len(chunks) == 0 {
		return CombinedEntry{}, false
	}
	var socket uint16
	if len(f) >= 4 && f[3] != "" {
		v, err := strconv.ParseUint(f[3], 10, 16)
		if err != nil {
			return CombinedEntry{}, false
		}
		socket = uint16(v)
	}
	return CombinedEntry{Form: f[0], Chunks: chunks, Condition: f[2], Socket: socket}, true
}

// PreCombinedEntry is one parsed pre-combined line: a surface
// (left+right) whose analysis redirects to its canonical right-hand
// counterpart via combined_offset at load time.
type PreCombinedEntry struct {
	Left, Right string
	Tag         postag.Tag
	Suffixes    string
	Socket      uint16
}

// ParsePreCombinedLine parses a tab-separated pre-combined line:
// surface ("left+right"), tag, suffixes, socket.
func ParsePreCombinedLine(line string) (PreCombinedEntry, bool) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" || strings.HasPrefix(line, "#") {
		return PreCombinedEntry{}, false
	}
	f := strings.Split(line, "\t")
	if len(f) < 4 {
		return PreCombinedEntry{}, false
	}
	left, right, ok := strings.Cut(f[0], "+")
	if !ok {
		return PreCombinedEntry{}, false
	}
	tag, ok := postag.Parse(f[1])
	if !ok {
		return PreCombinedEntry{}, false
	}
	socket, err := strconv.ParseUint(f[3], 10, 16)
	if err != nil {
		return PreCombinedEntry{}, false
	}
	return PreCombinedEntry{Left: left, Right: right, Tag: tag, Suffixes: f[2], Socket: uint16(socket)}, true
}
