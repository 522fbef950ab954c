package corpus

import "math"

// logf guards math.Log against a zero argument, which the n-gram
// builder's count ratios can never actually produce but which would
// otherwise turn a defensive caller into a -Inf propagation bug.
func logf(p float64) float64 {
	if p <= 0 {
		return math.Inf(-1)
	}
	return math.Log(p)
}
