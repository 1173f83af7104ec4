// Package biometric holds the pure descriptor math used by enrollment and
// verification. Nothing here performs I/O, so every function is safe for
// concurrent use.
package biometric

import (
	"math"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

const (
	DefaultMatchThreshold       = 0.6
	DefaultConsistencyThreshold = 0.4
)

// Distance returns the Euclidean distance between two descriptors.
func Distance(a, b domain.Descriptor) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.ErrDimensionMismatch
	}

	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}

	return math.Sqrt(sum), nil
}

// Average returns the element-wise mean of the set.
func Average(set domain.DescriptorSet) (domain.Descriptor, error) {
	if len(set) == 0 {
		return nil, domain.ErrEmptySet
	}

	dim := len(set[0])
	sums := make([]float64, dim)
	for _, d := range set {
		if len(d) != dim {
			return nil, domain.ErrDimensionMismatch
		}
		for i, v := range d {
			sums[i] += float64(v)
		}
	}

	avg := make(domain.Descriptor, dim)
	n := float64(len(set))
	for i, s := range sums {
		avg[i] = float32(s / n)
	}

	return avg, nil
}

// CheckConsistency reports whether every member of the set lies strictly
// closer than maxDistance to the set's average descriptor.
func CheckConsistency(set domain.DescriptorSet, maxDistance float64) (bool, error) {
	avg, err := Average(set)
	if err != nil {
		return false, err
	}

	for _, d := range set {
		dist, err := Distance(d, avg)
		if err != nil {
			return false, err
		}
		if dist >= maxDistance {
			return false, nil
		}
	}

	return true, nil
}

// MatchBest compares query against every candidate and keeps the smallest
// distance. The threshold is exclusive and compared against the unrounded
// distance; reported values are rounded to two decimals.
func MatchBest(query domain.Descriptor, candidates domain.DescriptorSet, threshold float64) (domain.VerificationResult, error) {
	if len(candidates) == 0 {
		return domain.VerificationResult{}, domain.ErrEmptySet
	}

	minDistance := math.Inf(1)
	for _, c := range candidates {
		dist, err := Distance(query, c)
		if err != nil {
			return domain.VerificationResult{}, err
		}
		if dist < minDistance {
			minDistance = dist
		}
	}

	return domain.VerificationResult{
		Match:      minDistance < threshold,
		Distance:   Round2(minDistance),
		Confidence: Round2(math.Max(0, 1-minDistance)),
	}, nil
}

// Round2 rounds x to two decimal places.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}
