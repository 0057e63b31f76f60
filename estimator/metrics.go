// Package estimator provides small reference estimators satisfying
// gafs.Estimator, used to drive feature selection without an external
// machine learning library.
package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Accuracy returns the share of predictions equal to the expected labels.
func Accuracy(prediction, labels []float64) (float64, error) {
	if len(prediction) != len(labels) {
		return 0, fmt.Errorf("prediction and labels have different lengths: %d != %d", len(prediction), len(labels))
	}
	if len(labels) == 0 {
		return 0, fmt.Errorf("no labels to score")
	}

	hits := 0
	for i := range labels {
		if prediction[i] == labels[i] {
			hits++
		}
	}

	return float64(hits) / float64(len(labels)), nil
}

// R2 returns the coefficient of determination of prediction against values.
func R2(prediction, values []float64) (float64, error) {
	if len(prediction) != len(values) {
		return 0, fmt.Errorf("prediction and values have different lengths: %d != %d", len(prediction), len(values))
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("no values to score")
	}

	return stat.RSquaredFrom(prediction, values, nil), nil
}
