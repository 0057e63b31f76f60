package estimator

import (
	"fmt"
	"math"

	"github.com/thalesfsp/gafs"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LeastSquares is a linear regressor with an intercept, fitted by solving
// the ridge-regularized normal equations on centered data. Alpha = 0 is
// ordinary least squares and fails on collinear features; keep Alpha > 0
// when the feature subset is not known in advance.
type LeastSquares struct {
	Alpha float64

	weights   *mat.VecDense
	intercept float64
}

// NewLeastSquares returns an unfitted regressor with ridge penalty alpha.
func NewLeastSquares(alpha float64) *LeastSquares {
	return &LeastSquares{Alpha: alpha}
}

// Clone implements gafs.Estimator.
func (ls *LeastSquares) Clone() gafs.Estimator {
	return NewLeastSquares(ls.Alpha)
}

// Fit implements gafs.Estimator.
func (ls *LeastSquares) Fit(X mat.Matrix, y []float64) error {
	r, c := X.Dims()
	if r != len(y) {
		return fmt.Errorf("X has %d samples, y has %d", r, len(y))
	}
	if r == 0 {
		return fmt.Errorf("no samples to fit")
	}

	means := make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		col = mat.Col(col, j, X)
		means[j] = stat.Mean(col, nil)
	}
	yMean := stat.Mean(y, nil)

	centered := mat.NewDense(r, c, nil)
	centered.Apply(func(_, j int, v float64) float64 { return v - means[j] }, X)

	yc := mat.NewVecDense(r, nil)
	for i, v := range y {
		yc.SetVec(i, v-yMean)
	}

	var gram mat.SymDense
	gram.SymOuterK(1, centered.T())
	for j := 0; j < c; j++ {
		gram.SetSym(j, j, gram.At(j, j)+ls.Alpha)
	}

	var rhs mat.VecDense
	rhs.MulVec(centered.T(), yc)

	var w mat.VecDense
	if err := w.SolveVec(&gram, &rhs); err != nil {
		// Ill-conditioned systems are still solved; singular ones are not.
		if cond, ok := err.(mat.Condition); !ok || math.IsInf(float64(cond), 1) {
			return fmt.Errorf("solve normal equations: %w", err)
		}
	}

	intercept := yMean
	for j := 0; j < c; j++ {
		intercept -= w.AtVec(j) * means[j]
	}

	ls.weights = &w
	ls.intercept = intercept

	return nil
}

// Predict implements gafs.Predictor.
func (ls *LeastSquares) Predict(X mat.Matrix) ([]float64, error) {
	if ls.weights == nil {
		return nil, ErrNotFitted
	}

	r, c := X.Dims()
	if c != ls.weights.Len() {
		return nil, fmt.Errorf("X has %d features, fitted with %d", c, ls.weights.Len())
	}

	var out mat.VecDense
	out.MulVec(X, ls.weights)

	prediction := make([]float64, r)
	for i := range prediction {
		prediction[i] = out.AtVec(i) + ls.intercept
	}

	return prediction, nil
}

// Score implements gafs.Estimator. It returns the R² on X and y.
func (ls *LeastSquares) Score(X mat.Matrix, y []float64) (float64, error) {
	prediction, err := ls.Predict(X)
	if err != nil {
		return 0, err
	}

	return R2(prediction, y)
}
