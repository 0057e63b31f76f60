package gafs

import (
	"gonum.org/v1/gonum/mat"
)

// SelectColumns returns a new dense matrix holding the given columns of X,
// in order. Dense inputs are copied from their backing slice, sparse inputs
// implementing mat.NonZeroDoer only visit stored values; anything else goes
// through At. An empty index list yields a rows × 0 matrix.
func SelectColumns(X mat.Matrix, indices []int) mat.Matrix {
	r, c := X.Dims()
	if len(indices) == 0 {
		return emptyMatrix{rows: r}
	}

	out := mat.NewDense(r, len(indices), nil)

	switch m := X.(type) {
	case mat.RawMatrixer:
		raw := m.RawMatrix()
		for i := 0; i < r; i++ {
			row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
			for j, col := range indices {
				out.Set(i, j, row[col])
			}
		}
	case mat.NonZeroDoer:
		// Duplicate indices are legal, hence the slice per source column.
		dest := make([][]int, c)
		for j, col := range indices {
			dest[col] = append(dest[col], j)
		}
		m.DoNonZero(func(i, col int, v float64) {
			for _, j := range dest[col] {
				out.Set(i, j, v)
			}
		})
	default:
		for i := 0; i < r; i++ {
			for j, col := range indices {
				out.Set(i, j, X.At(i, col))
			}
		}
	}

	return out
}

// selectRows returns a new dense matrix holding the given rows of X.
func selectRows(X mat.Matrix, rows []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, row := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(row, j))
		}
	}

	return out
}

// emptyMatrix is a matrix without columns, returned when no feature is
// selected. gonum's dense types cannot have a zero dimension.
type emptyMatrix struct {
	rows int
}

// Dims implements mat.Matrix.
func (e emptyMatrix) Dims() (int, int) { return e.rows, 0 }

// At implements mat.Matrix. It always panics since there are no columns.
func (e emptyMatrix) At(_, _ int) float64 { panic(mat.ErrColAccess) }

// T implements mat.Matrix.
func (e emptyMatrix) T() mat.Matrix { return mat.Transpose{Matrix: e} }

// maskIndices returns the positions of the true entries of mask.
func maskIndices(mask []bool) []int {
	indices := make([]int, 0, len(mask))
	for i, selected := range mask {
		if selected {
			indices = append(indices, i)
		}
	}

	return indices
}
