package utils

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// EditDistance returns the minimum number of single-character insertions,
// deletions and substitutions needed to turn a into b. Case-sensitive;
// callers normalize case before comparing.
func EditDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}

// Similarity normalizes the edit distance of a and b onto [0, 1], where 1
// means equal. Two empty strings are considered identical.
func Similarity(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}
	return float64(maxLen-EditDistance(a, b)) / float64(maxLen)
}

type ThresholdKind string

const (
	// ThresholdRatio accepts a pair when its similarity strictly exceeds MinRatio.
	ThresholdRatio ThresholdKind = "ratio"
	// ThresholdAbsolute accepts a pair when its edit distance is at most MaxDistance.
	ThresholdAbsolute ThresholdKind = "absolute"
)

// ThresholdPolicy is the single fuzzy-match acceptance policy used for
// column mapping. Exactly one of MinRatio/MaxDistance is meaningful,
// selected by Kind.
type ThresholdPolicy struct {
	Kind        ThresholdKind
	MinRatio    float64
	MaxDistance int
}

// DefaultThresholdPolicy is the policy applied everywhere unless a caller
// overrides it: similarity ratio strictly above 0.6.
func DefaultThresholdPolicy() ThresholdPolicy {
	return ThresholdPolicy{Kind: ThresholdRatio, MinRatio: 0.6}
}

// Score returns a comparable goodness value for the pair under the policy's
// kind. Higher is always better, so candidates can be ranked with a single
// max pass regardless of kind.
func (p ThresholdPolicy) Score(a, b string) float64 {
	if p.Kind == ThresholdAbsolute {
		return -float64(EditDistance(a, b))
	}
	return Similarity(a, b)
}

// Accept reports whether a value previously returned by Score clears the
// policy's threshold.
func (p ThresholdPolicy) Accept(score float64) bool {
	if p.Kind == ThresholdAbsolute {
		return -score <= float64(p.MaxDistance)
	}
	return score > p.MinRatio
}
