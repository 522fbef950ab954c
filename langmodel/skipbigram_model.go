package langmodel

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zstd"
)

// skipBigramVersion is the only file version this reader understands.
const skipBigramVersion uint32 = 1

// SkipBigram is a read-only skip-bigram logit table mixed at query time
// with an externally supplied base language model log-probability (see
// package skipbigram for how it is trained and exported).
type SkipBigram struct {
	VocabSize  int
	KeySize    int
	WindowSize int

	// ptrs has VocabSize+1 entries; condition c's targets are
	// targets[ptrs[c]:ptrs[c+1]], sorted ascending.
	ptrs    []uint32
	targets []uint32
	// discount[c] is the log-softmax mass on the implicit "other" slot.
	discount []float32
	// compensation[i] pairs with targets[i]: the condition's
	// log-softmax mass on that specific target.
	compensation []float32
	valid        []bool
}

// NumTargets returns the number of explicit continuation targets stored
// for condition c.
func (m *SkipBigram) NumTargets(c uint32) int {
	return int(m.ptrs[c+1] - m.ptrs[c])
}

// Valid reports whether condition c carries any trained entries at all.
func (m *SkipBigram) Valid(c uint32) bool {
	return int(c) < len(m.valid) && m.valid[c]
}

// LogProb approximates log P(v | c) per the model's query contract:
// the stored compensation entry when v was observed often enough under
// c, otherwise the discount mixed with the externally supplied base
// language-model estimate lmBase = log P(v | c) under the n-gram model.
func (m *SkipBigram) LogProb(c, v uint32, lmBase float64) float64 {
	if !m.Valid(c) {
		return lmBase
	}
	lo, hi := m.ptrs[c], m.ptrs[c+1]
	targets := m.targets[lo:hi]
	idx := sort.Search(len(targets), func(i int) bool { return targets[i] >= v })
	viaBase := float64(m.discount[c]) + lmBase
	if idx < len(targets) && targets[idx] == v {
		comp := float64(m.compensation[lo+uint32(idx)])
		if comp > viaBase {
			return comp
		}
	}
	return viaBase
}

// LoadSkipBigram reads a skip-bigram model file in the §4.6 layout.
// When the header's compressed flag is set, the remainder of the stream
// after the header is a zstd frame.
func LoadSkipBigram(r io.Reader) (*SkipBigram, error) {
	br := bufio.NewReader(r)

	version, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("langmodel: read skip-bigram version: %w", err)
	}
	if version != skipBigramVersion {
		return nil, fmt.Errorf("langmodel: unknown skip-bigram version %d", version)
	}
	vocabSize, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("langmodel: read vocabSize: %w", err)
	}
	keySize, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("langmodel: read keySize: %w", err)
	}
	windowSize, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("langmodel: read windowSize: %w", err)
	}
	compressed, err := br.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("langmodel: read compressed flag: %w", err)
	}
	if _, err := br.ReadByte(); err != nil { // _pad
		return nil, fmt.Errorf("langmodel: read pad byte: %w", err)
	}

	var body io.Reader = br
	if compressed != 0 {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("langmodel: open zstd body: %w", err)
		}
		defer zr.Close()
		body = zr
	}
	bbr := bufio.NewReader(body)

	m := &SkipBigram{
		VocabSize:  int(vocabSize),
		KeySize:    int(keySize),
		WindowSize: int(windowSize),
	}

	counts := make([]uint32, vocabSize)
	var total uint32
	for i := range counts {
		v, err := readVocabTy(bbr, int(keySize))
		if err != nil {
			return nil, fmt.Errorf("langmodel: read compensation count %d: %w", i, err)
		}
		counts[i] = v
		total += v
	}
	m.ptrs = make([]uint32, vocabSize+1)
	for i, c := range counts {
		m.ptrs[i+1] = m.ptrs[i] + c
	}

	m.targets = make([]uint32, total)
	for i := range m.targets {
		v, err := readVocabTy(bbr, int(keySize))
		if err != nil {
			return nil, fmt.Errorf("langmodel: read target %d: %w", i, err)
		}
		m.targets[i] = v
	}

	m.discount = make([]float32, vocabSize)
	for i := range m.discount {
		v, err := readF32(bbr)
		if err != nil {
			return nil, fmt.Errorf("langmodel: read discount %d: %w", i, err)
		}
		m.discount[i] = v
	}

	m.compensation = make([]float32, total)
	for i := range m.compensation {
		v, err := readF32(bbr)
		if err != nil {
			return nil, fmt.Errorf("langmodel: read compensation %d: %w", i, err)
		}
		m.compensation[i] = v
	}

	m.valid = make([]bool, vocabSize)
	for i := range m.valid {
		b, err := bbr.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("langmodel: read validity mask %d: %w", i, err)
		}
		m.valid[i] = b != 0
	}

	return m, nil
}

func readVocabTy(r io.Reader, keySize int) (uint32, error) {
	switch keySize {
	case 1:
		var b [1]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, err
		}
		return uint32(b[0]), nil
	case 2:
		v, err := readU16(r)
		return uint32(v), err
	case 4:
		return readU32(r)
	default:
		return 0, fmt.Errorf("langmodel: unsupported keySize %d", keySize)
	}
}

