package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hangul-morph/hangul-morph/morpheme"
	"github.com/hangul-morph/hangul-morph/postag"
)

// magic is the little-endian "KIWI" magic number morpheme.bin starts
// with. A mismatch is a fatal, non-recoverable parse error.
const magic uint32 = 0x4B495749

// Save writes the solidified store to w in the morpheme.bin layout:
// magic, form_count, morpheme_count, then the form records, then the
// morpheme records, all little-endian.
func (s *Store) Save(w io.Writer) error {
	if !s.solidified {
		return fmt.Errorf("store: Save called before Solidify")
	}
	bw := bufio.NewWriter(w)

	if err := writeU32(bw, magic); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(len(s.forms))); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(len(s.morphemes))); err != nil {
		return err
	}
	for _, f := range s.forms {
		if err := writeForm(bw, f); err != nil {
			return err
		}
	}
	for _, m := range s.morphemes {
		if err := writeMorpheme(bw, m); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Load reads a morpheme.bin file into a fresh, already-solidified store.
// A magic mismatch or truncated section is fatal: no partial store is
// returned.
func Load(r io.Reader) (*Store, error) {
	br := bufio.NewReader(r)

	got, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("store: read magic: %w", err)
	}
	if got != magic {
		return nil, fmt.Errorf("store: bad magic %#x, want %#x", got, magic)
	}
	formCount, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("store: read form_count: %w", err)
	}
	morphCount, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("store: read morpheme_count: %w", err)
	}

	s := &Store{solidified: true}
	s.forms = make([]*morpheme.Form, formCount)
	for i := range s.forms {
		f, err := readForm(br)
		if err != nil {
			return nil, fmt.Errorf("store: read form %d: %w", i, err)
		}
		s.forms[i] = f
	}
	s.morphemes = make([]*morpheme.Morpheme, morphCount)
	for i := range s.morphemes {
		m, err := readMorpheme(br)
		if err != nil {
			return nil, fmt.Errorf("store: read morpheme %d: %w", i, err)
		}
		s.morphemes[i] = m
	}
	return s, nil
}

func writeForm(w *bufio.Writer, f *morpheme.Form) error {
	if err := writeU16(w, uint16(len(f.Key))); err != nil {
		return err
	}
	if _, err := w.Write(f.Key); err != nil {
		return err
	}
	if err := writeU16(w, uint16(len(f.Candidates))); err != nil {
		return err
	}
	for _, c := range f.Candidates {
		if err := writeU32(w, uint32(c)); err != nil {
			return err
		}
	}
	suffixes := make([]byte, 0, len(f.Suffixes))
	for jm := range f.Suffixes {
		suffixes = append(suffixes, jm)
	}
	if err := w.WriteByte(byte(len(suffixes))); err != nil {
		return err
	}
	_, err := w.Write(suffixes)
	return err
}

func readForm(r *bufio.Reader) (*morpheme.Form, error) {
	keyLen, err := readU16(r)
	if err != nil {
		return nil, err
	}
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, err
	}
	candCount, err := readU16(r)
	if err != nil {
		return nil, err
	}
	candidates := make([]morpheme.ID, candCount)
	for i := range candidates {
		v, err := readU32(r)
		if err != nil {
			return nil, err
		}
		candidates[i] = morpheme.ID(v)
	}
	suffixCount, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	f := &morpheme.Form{Key: key, Candidates: candidates}
	for i := byte(0); i < suffixCount; i++ {
		jm, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		f.AddSuffix(jm)
	}
	return f, nil
}

func writeMorpheme(w *bufio.Writer, m *morpheme.Morpheme) error {
	surface := []byte(m.Surface)
	if err := writeU16(w, uint16(len(surface))); err != nil {
		return err
	}
	if _, err := w.Write(surface); err != nil {
		return err
	}
	if err := w.WriteByte(byte(m.Tag)); err != nil {
		return err
	}
	if err := w.WriteByte(byte(m.VowelCond)); err != nil {
		return err
	}
	if err := w.WriteByte(byte(m.PolarityCond)); err != nil {
		return err
	}
	if err := writeU16(w, m.CombineSocket); err != nil {
		return err
	}
	if err := writeU16(w, uint16(len(m.Chunks))); err != nil {
		return err
	}
	for _, c := range m.Chunks {
		if err := writeU32(w, uint32(c)); err != nil {
			return err
		}
	}
	if err := writeI32(w, m.CombinedOffset); err != nil {
		return err
	}
	if err := writeU32(w, uint32(m.FormRef)); err != nil {
		return err
	}
	return writeF32(w, m.Weight)
}

func readMorpheme(r *bufio.Reader) (*morpheme.Morpheme, error) {
	surfLen, err := readU16(r)
	if err != nil {
		return nil, err
	}
	surf := make([]byte, surfLen)
	if _, err := io.ReadFull(r, surf); err != nil {
		return nil, err
	}
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	vowelCond, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	polarityCond, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	socket, err := readU16(r)
	if err != nil {
		return nil, err
	}
	chunkCount, err := readU16(r)
	if err != nil {
		return nil, err
	}
	chunks := make([]morpheme.ID, chunkCount)
	for i := range chunks {
		v, err := readU32(r)
		if err != nil {
			return nil, err
		}
		chunks[i] = morpheme.ID(v)
	}
	offset, err := readI32(r)
	if err != nil {
		return nil, err
	}
	formRef, err := readU32(r)
	if err != nil {
		return nil, err
	}
	weight, err := readF32(r)
	if err != nil {
		return nil, err
	}
	return &morpheme.Morpheme{
		Surface:        string(surf),
		Tag:            postag.Tag(tag),
		VowelCond:      morpheme.VowelCondition(vowelCond),
		PolarityCond:   morpheme.PolarityCondition(polarityCond),
		CombineSocket:  socket,
		Chunks:         chunks,
		CombinedOffset: offset,
		FormRef:        morpheme.FormID(formRef),
		Weight:         weight,
	}, nil
}

func writeU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeI32(w io.Writer, v int32) error { return writeU32(w, uint32(v)) }

func writeF32(w io.Writer, v float32) error {
	return writeU32(w, math.Float32bits(v))
}

func readU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readI32(r io.Reader) (int32, error) {
	v, err := readU32(r)
	return int32(v), err
}

func readF32(r io.Reader) (float32, error) {
	v, err := readU32(r)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}
