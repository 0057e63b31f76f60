package estimator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/thalesfsp/gafs"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrNotFitted is returned when predicting with an untrained estimator.
var ErrNotFitted = errors.New("estimator: not fitted")

// NearestCentroid is a classifier assigning each sample to the label whose
// training centroid is closest in Euclidean distance. Ties go to the
// smallest label.
type NearestCentroid struct {
	labels    []float64
	centroids [][]float64
}

// NewNearestCentroid returns an unfitted classifier.
func NewNearestCentroid() *NearestCentroid {
	return &NearestCentroid{}
}

// Clone implements gafs.Estimator.
func (nc *NearestCentroid) Clone() gafs.Estimator {
	return NewNearestCentroid()
}

// IsClassifier implements gafs.Classifier.
func (nc *NearestCentroid) IsClassifier() bool { return true }

// Fit implements gafs.Estimator.
func (nc *NearestCentroid) Fit(X mat.Matrix, y []float64) error {
	r, c := X.Dims()
	if r != len(y) {
		return fmt.Errorf("X has %d samples, y has %d", r, len(y))
	}
	if r == 0 {
		return fmt.Errorf("no samples to fit")
	}

	sums := make(map[float64][]float64)
	counts := make(map[float64]int)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		row = mat.Row(row, i, X)
		sum, ok := sums[y[i]]
		if !ok {
			sum = make([]float64, c)
			sums[y[i]] = sum
		}
		floats.Add(sum, row)
		counts[y[i]]++
	}

	labels := make([]float64, 0, len(sums))
	for label := range sums {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	centroids := make([][]float64, len(labels))
	for i, label := range labels {
		centroids[i] = sums[label]
		floats.Scale(1/float64(counts[label]), centroids[i])
	}

	nc.labels = labels
	nc.centroids = centroids

	return nil
}

// Predict implements gafs.Predictor.
func (nc *NearestCentroid) Predict(X mat.Matrix) ([]float64, error) {
	if nc.centroids == nil {
		return nil, ErrNotFitted
	}

	r, c := X.Dims()
	if c != len(nc.centroids[0]) {
		return nil, fmt.Errorf("X has %d features, fitted with %d", c, len(nc.centroids[0]))
	}

	out := make([]float64, r)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		row = mat.Row(row, i, X)
		best, bestDist := 0, math.Inf(1)
		for k, centroid := range nc.centroids {
			if d := floats.Distance(row, centroid, 2); d < bestDist {
				best, bestDist = k, d
			}
		}
		out[i] = nc.labels[best]
	}

	return out, nil
}

// Score implements gafs.Estimator. It returns the accuracy on X and y.
func (nc *NearestCentroid) Score(X mat.Matrix, y []float64) (float64, error) {
	prediction, err := nc.Predict(X)
	if err != nil {
		return 0, err
	}

	return Accuracy(prediction, y)
}
