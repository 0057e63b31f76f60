package gafs

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// centroid is a nearest-centroid classifier used as the wrapped estimator.
type centroid struct {
	labels    []float64
	centroids [][]float64
}

func (c *centroid) Clone() Estimator { return &centroid{} }
func (c *centroid) IsClassifier() bool { return true }

func (c *centroid) Fit(X mat.Matrix, y []float64) error {
	r, cols := X.Dims()
	sums := map[float64][]float64{}
	counts := map[float64]float64{}
	for i := 0; i < r; i++ {
		if sums[y[i]] == nil {
			sums[y[i]] = make([]float64, cols)
		}
		for j := 0; j < cols; j++ {
			sums[y[i]][j] += X.At(i, j)
		}
		counts[y[i]]++
	}

	c.labels = c.labels[:0]
	for label := range sums {
		c.labels = append(c.labels, label)
	}
	sort.Float64s(c.labels)

	c.centroids = make([][]float64, len(c.labels))
	for k, label := range c.labels {
		for j := range sums[label] {
			sums[label][j] /= counts[label]
		}
		c.centroids[k] = sums[label]
	}

	return nil
}

func (c *centroid) Predict(X mat.Matrix) ([]float64, error) {
	if c.centroids == nil {
		return nil, errors.New("not fitted")
	}

	r, cols := X.Dims()
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		best, bestDist := 0, math.Inf(1)
		for k, cen := range c.centroids {
			d := 0.0
			for j := 0; j < cols; j++ {
				diff := X.At(i, j) - cen[j]
				d += diff * diff
			}
			if d < bestDist {
				best, bestDist = k, d
			}
		}
		out[i] = c.labels[best]
	}

	return out, nil
}

func (c *centroid) Score(X mat.Matrix, y []float64) (float64, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}

	hits := 0.0
	for i := range y {
		if pred[i] == y[i] {
			hits++
		}
	}

	return hits / float64(len(y)), nil
}

// nanCentroid accepts NaN input.
type nanCentroid struct{ centroid }

func (n *nanCentroid) Clone() Estimator { return &nanCentroid{} }
func (n *nanCentroid) AllowNaN() bool { return true }

// plainEstimator hides every optional capability of the wrapped estimator.
type plainEstimator struct{ Estimator }

// sortedLabels returns 3 classes of n/3 consecutive samples each. Column 0
// separates the classes, the others are noise.
func sortedLabels(n, noise int) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(5))
	X := mat.NewDense(n, 1+noise, nil)
	y := make([]float64, n)

	for i := 0; i < n; i++ {
		y[i] = float64(i / (n / 3))
		X.Set(i, 0, y[i]*5+rng.Float64()*0.1)
		for j := 1; j <= noise; j++ {
			X.Set(i, j, rng.NormFloat64())
		}
	}

	return X, y
}

// countingCV wraps a cross validator and counts its invocations.
type countingCV struct {
	inner CrossValidator
	calls atomic.Int64
}

func (c *countingCV) CrossValidate(est Estimator, X mat.Matrix, y []float64) ([]float64, error) {
	c.calls.Add(1)

	return c.inner.CrossValidate(est, X, y)
}

// makeDataset returns n samples with informative leading columns separating
// two classes and noisy trailing columns.
func makeDataset(seed int64, n, informative, noise int) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, informative+noise, nil)
	y := make([]float64, n)

	for i := 0; i < n; i++ {
		label := float64(i % 2)
		y[i] = label
		for j := 0; j < informative; j++ {
			X.Set(i, j, label*3+rng.NormFloat64()*0.5)
		}
		for j := informative; j < informative+noise; j++ {
			X.Set(i, j, rng.NormFloat64())
		}
	}

	return X, y
}

// testConfig is a small, seeded configuration.
func testConfig() Config {
	config := DefaultConfig()
	config.NumberGen = 5
	config.SizePop = 10
	config.Seed = 7

	return config
}

func newTestRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
