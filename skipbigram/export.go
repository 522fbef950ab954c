package skipbigram

import (
	"io"

	"github.com/hangul-morph/hangul-morph/langmodel"
)

// trimThreshold discards compensation entries too weak to be worth
// storing explicitly; a query for a trimmed target falls back to the
// condition's discount mixed with the base LM, same as an entirely
// unobserved target.
const trimThreshold = -15.0

// ConvertToModel computes each condition's discount (the log-softmax
// mass on the implicit "other" slot) and keeps a compensation entry for
// every target whose log-softmax clears trimThreshold.
func (tr *Trainer) ConvertToModel() []langmodel.SkipBigramCondition {
	rows := make([]langmodel.SkipBigramCondition, len(tr.logits))
	for c, logits := range tr.logits {
		if len(tr.targets[c]) == 0 {
			continue
		}
		ls := logSoftmax(logits)
		other := tr.otherIndex(uint32(c))
		row := langmodel.SkipBigramCondition{
			Discount: float32(ls[other]),
			Valid:    true,
		}
		targets := tr.targets[c]
		for i, t := range targets {
			if ls[i] >= trimThreshold {
				row.Targets = append(row.Targets, t)
				row.Compensation = append(row.Compensation, float32(ls[i]))
			}
		}
		rows[c] = row
	}
	return rows
}

// Export writes the trained table to w via package langmodel's file
// format, keyed by 4-byte vocabulary IDs.
func (tr *Trainer) Export(w io.Writer, compress bool) error {
	rows := tr.ConvertToModel()
	return langmodel.SaveSkipBigram(w, 4, tr.window, rows, compress)
}
