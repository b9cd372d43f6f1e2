package common

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Statistics shared by the chroma analysis and the mixer, built on gonum.

// Median returns the middle value of data, averaging the two middle values
// for even lengths. The input is not modified. Empty input yields 0.
func Median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0.0
	}

	sorted := slices.Clone(data)
	slices.Sort(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Norm(data, 2) / math.Sqrt(float64(len(data)))
}

// Peak returns the largest absolute sample value.
func Peak(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return floats.Norm(data, math.Inf(1))
}

// MaxNormalize scales data in place so that its largest value becomes 1.
// Vectors whose maximum is below threshold are left untouched.
func MaxNormalize(data []float64, threshold float64) {
	if len(data) == 0 {
		return
	}
	peak := floats.Max(data)
	if peak < threshold {
		return
	}
	for i := range data {
		data[i] /= peak
	}
}
