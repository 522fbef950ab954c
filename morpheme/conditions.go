package morpheme

// conditionThreshold is the acceptance probability below which a
// vowel/polarity condition falls back to its unconstrained value. It is
// a magic number inherited from the trained dictionary and is part of
// the on-disk contract, not a tunable.
const conditionThreshold = 0.825

// lowWeightCutoff discards inflectional-range morphemes whose import
// weight falls below it.
const lowWeightCutoff = 10

// DeriveVowelCondition picks a VowelCondition from the three probability
// columns the dictionary import carries: vowel, vocalic, and vocalicH.
// Each is evaluated as the arg-max of {p, 1-p}; the corresponding label
// is accepted only when that arg-max probability clears
// conditionThreshold, otherwise the vote falls through. The first column
// to produce a confident vote wins; none confident falls back to
// VowelAny.
func DeriveVowelCondition(vowel, vocalic, vocalicH float32) VowelCondition {
	type vote struct {
		yes, no VowelCondition
	}
	cols := []struct {
		p float32
		v vote
	}{
		{vowel, vote{VowelVowel, VowelNoVowel}},
		{vocalic, vote{VowelCoda, VowelNoCoda}},
		{vocalicH, vote{VowelCoda, VowelNoCoda}},
	}
	for _, c := range cols {
		if c.p >= conditionThreshold {
			return c.v.yes
		}
		if 1-c.p >= conditionThreshold {
			return c.v.no
		}
	}
	return VowelAny
}

// DerivePolarityCondition picks a PolarityCondition from the "positive"
// probability column using the same arg-max-over-{p,1-p} rule as
// DeriveVowelCondition. No confident vote falls back to PolarityNone.
func DerivePolarityCondition(positive float32) PolarityCondition {
	if positive >= conditionThreshold {
		return PolarityPositive
	}
	if 1-positive >= conditionThreshold {
		return PolarityNonPositive
	}
	return PolarityNone
}

// DiscardForLowWeight reports whether a morpheme of tag t and import
// weight should be dropped: the inflectional range (JKS and later)
// excludes entries under lowWeightCutoff.
func DiscardForLowWeight(inflectional bool, weight float32) bool {
	return inflectional && weight < lowWeightCutoff
}
