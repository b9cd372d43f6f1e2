package chroma

import (
	"errors"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/RyanBlaney/sonido-accompany/algorithms/common"
)

// ErrEmptyMatrix is returned by Sync for a feature matrix without columns.
var ErrEmptyMatrix = errors.New("chroma: matrix has no columns")

// Aggregator reduces the values of one row segment to a single value.
type Aggregator func(values []float64) float64

// Median is the default Sync aggregator.
var Median Aggregator = common.Median

// Sync aggregates the columns of features between consecutive frame
// boundaries.
//
// Boundaries are the given frames clipped to [0, cols], plus 0 and cols,
// sorted and deduplicated. Column i of the result aggregates the feature
// columns in [boundary[i], boundary[i+1]). A nil aggregator means Median.
func Sync(features mat.Matrix, frames []int, agg Aggregator) (*mat.Dense, error) {
	rows, cols := features.Dims()
	if cols == 0 || rows == 0 {
		return nil, ErrEmptyMatrix
	}
	if agg == nil {
		agg = Median
	}

	bounds := Boundaries(frames, cols)
	synced := mat.NewDense(rows, len(bounds)-1, nil)

	segment := make([]float64, 0, cols)
	for s := 0; s < len(bounds)-1; s++ {
		lo, hi := bounds[s], bounds[s+1]
		for r := range rows {
			segment = segment[:0]
			for c := lo; c < hi; c++ {
				segment = append(segment, features.At(r, c))
			}
			synced.Set(r, s, agg(segment))
		}
	}

	return synced, nil
}

// Boundaries returns the padded, clipped and deduplicated segment boundaries
// Sync uses for n columns.
func Boundaries(frames []int, n int) []int {
	bounds := make([]int, 0, len(frames)+2)
	bounds = append(bounds, 0, n)
	for _, f := range frames {
		bounds = append(bounds, min(max(f, 0), n))
	}
	slices.Sort(bounds)
	return slices.Compact(bounds)
}
