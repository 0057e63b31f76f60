package gafs

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

//////
// Helper functions.
//////

// checkRange validates that value lies in r.
//
// Returns:
// - error: ErrInvalidConfig naming the offending field, nil otherwise.
func checkRange[T constraints.Integer | constraints.Float](name string, value T, r ParameterRange[T]) error {
	if value < r.Min || value > r.Max {
		return fmt.Errorf("%w: %s must be in [%v, %v], got %v", ErrInvalidConfig, name, r.Min, r.Max, value)
	}

	return nil
}

// seq returns the integers in [from, to).
func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}

	return out
}

// pick returns values at the given positions.
func pick(values []float64, at []int) []float64 {
	out := make([]float64, len(at))
	for i, idx := range at {
		out[i] = values[idx]
	}

	return out
}

// checkXY validates the training data.
//
// Important notes:
// - X and y must agree on the number of samples
// - X needs at least one sample and one feature
// - NaN and Inf are rejected unless allowNaN is set, in which case only Inf
//   is rejected
func checkXY(X mat.Matrix, y []float64, allowNaN bool) error {
	if X == nil {
		return fmt.Errorf("%w: X is nil", ErrInvalidInput)
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return fmt.Errorf("%w: X has shape %dx%d", ErrInvalidInput, r, c)
	}
	if len(y) != r {
		return fmt.Errorf("%w: X has %d samples, y has %d", ErrShapeMismatch, r, len(y))
	}

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if err := checkFinite(X.At(i, j), allowNaN); err != nil {
				return fmt.Errorf("%w at X[%d, %d]", err, i, j)
			}
		}
	}
	for i, v := range y {
		if err := checkFinite(v, false); err != nil {
			return fmt.Errorf("%w at y[%d]", err, i)
		}
	}

	return nil
}

func checkFinite(v float64, allowNaN bool) error {
	switch {
	case math.IsNaN(v) && !allowNaN:
		return fmt.Errorf("%w: NaN value", ErrInvalidInput)
	case math.IsInf(v, 0):
		return fmt.Errorf("%w: infinite value", ErrInvalidInput)
	}

	return nil
}

// scaler standardizes columns with the mean and population standard
// deviation observed at fit time. Constant columns are only centered.
type scaler struct {
	mean []float64
	std  []float64
}

func fitScaler(X mat.Matrix) *scaler {
	r, c := X.Dims()
	s := &scaler{mean: make([]float64, c), std: make([]float64, c)}

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		col = mat.Col(col, j, X)

		// NaN entries, when tolerated, stay NaN and do not count.
		finite := col[:0:0]
		for _, v := range col {
			if !math.IsNaN(v) {
				finite = append(finite, v)
			}
		}
		if len(finite) == 0 {
			continue
		}
		s.mean[j], s.std[j] = stat.PopMeanStdDev(finite, nil)
	}

	return s
}

func (s *scaler) transform(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		v -= s.mean[j]
		if s.std[j] > 0 {
			v /= s.std[j]
		}

		return v
	}, X)

	return out
}

// subset restricts the scaler to the given columns.
func (s *scaler) subset(indices []int) *scaler {
	return &scaler{mean: pick(s.mean, indices), std: pick(s.std, indices)}
}
