package langmodel

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// SkipBigramCondition is one condition's exported row: the sorted
// targets this condition has a compensation entry for, their log-probs,
// the discount (log mass on the implicit "other" slot), and whether the
// condition was trained at all.
type SkipBigramCondition struct {
	Targets      []uint32
	Compensation []float32
	Discount     float32
	Valid        bool
}

// SaveSkipBigram writes rows in the §4.6 file layout. keySize must be 1,
// 2, or 4 and must be able to represent windowSize and every target
// token. When compress is true the body after the header is a zstd
// frame.
func SaveSkipBigram(w io.Writer, keySize, windowSize int, rows []SkipBigramCondition, compress bool) error {
	bw := bufio.NewWriter(w)
	if err := writeU32(bw, skipBigramVersion); err != nil {
		return err
	}
	if err := writeU32(bw, uint32(len(rows))); err != nil {
		return err
	}
	if err := bw.WriteByte(byte(keySize)); err != nil {
		return err
	}
	if err := bw.WriteByte(byte(windowSize)); err != nil {
		return err
	}
	compressedFlag := byte(0)
	if compress {
		compressedFlag = 1
	}
	if err := bw.WriteByte(compressedFlag); err != nil {
		return err
	}
	if err := bw.WriteByte(0); err != nil { // pad
		return err
	}

	var body io.Writer = bw
	var zw *zstd.Encoder
	if compress {
		var err error
		zw, err = zstd.NewWriter(bw)
		if err != nil {
			return fmt.Errorf("langmodel: open zstd body: %w", err)
		}
		body = zw
	}
	bodyw := bufio.NewWriter(body)

	for _, row := range rows {
		if err := writeVocabTy(bodyw, keySize, uint32(len(row.Targets))); err != nil {
			return err
		}
	}
	for _, row := range rows {
		for _, t := range row.Targets {
			if err := writeVocabTy(bodyw, keySize, t); err != nil {
				return err
			}
		}
	}
	for _, row := range rows {
		if err := writeF32(bodyw, row.Discount); err != nil {
			return err
		}
	}
	for _, row := range rows {
		for _, c := range row.Compensation {
			if err := writeF32(bodyw, c); err != nil {
				return err
			}
		}
	}
	for _, row := range rows {
		v := byte(0)
		if row.Valid {
			v = 1
		}
		if err := bodyw.WriteByte(v); err != nil {
			return err
		}
	}
	if err := bodyw.Flush(); err != nil {
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeVocabTy(w io.Writer, keySize int, v uint32) error {
	switch keySize {
	case 1:
		_, err := w.Write([]byte{byte(v)})
		return err
	case 2:
		return writeU16(w, uint16(v))
	case 4:
		return writeU32(w, v)
	default:
		return fmt.Errorf("langmodel: unsupported keySize %d", keySize)
	}
}
