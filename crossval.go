package gafs

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// KFold is the default cross validator. Samples are split into Folds
// contiguous blocks without shuffling; the first n%Folds blocks hold one
// extra sample. Each block is used once as the test set while the estimator
// is trained on the remaining samples.
type KFold struct {
	Folds int
}

// CrossValidate implements CrossValidator.
func (k KFold) CrossValidate(est Estimator, X mat.Matrix, y []float64) ([]float64, error) {
	n, _ := X.Dims()
	if err := checkFolds(k.Folds, n, len(y)); err != nil {
		return nil, err
	}

	folds := make([][]int, k.Folds)
	start := 0
	for f := range folds {
		size := n / k.Folds
		if f < n%k.Folds {
			size++
		}
		folds[f] = seq(start, start+size)
		start += size
	}

	return scoreFolds(est, X, y, folds)
}

// StratifiedKFold distributes the samples of every label round-robin over
// Folds blocks, so each block approximately preserves the label
// proportions. Labels are compared by exact value.
type StratifiedKFold struct {
	Folds int
}

// CrossValidate implements CrossValidator.
func (s StratifiedKFold) CrossValidate(est Estimator, X mat.Matrix, y []float64) ([]float64, error) {
	n, _ := X.Dims()
	if err := checkFolds(s.Folds, n, len(y)); err != nil {
		return nil, err
	}

	byLabel := make(map[float64][]int)
	labels := make([]float64, 0)
	for i, v := range y {
		if _, ok := byLabel[v]; !ok {
			labels = append(labels, v)
		}
		byLabel[v] = append(byLabel[v], i)
	}
	sort.Float64s(labels)

	folds := make([][]int, s.Folds)
	next := 0
	for _, label := range labels {
		for _, idx := range byLabel[label] {
			folds[next] = append(folds[next], idx)
			next = (next + 1) % s.Folds
		}
	}
	for _, f := range folds {
		sort.Ints(f)
	}

	return scoreFolds(est, X, y, folds)
}

func checkFolds(folds, nSamples, nLabels int) error {
	if nSamples != nLabels {
		return fmt.Errorf("%w: X has %d samples, y has %d", ErrShapeMismatch, nSamples, nLabels)
	}
	if folds < 2 {
		return fmt.Errorf("%w: folds must be >= 2, got %d", ErrInvalidConfig, folds)
	}
	if folds > nSamples {
		return fmt.Errorf("%w: cannot split %d samples into %d folds", ErrInvalidInput, nSamples, folds)
	}

	return nil
}

// scoreFolds trains a fresh clone of est on the complement of every fold and
// scores it on the fold.
func scoreFolds(est Estimator, X mat.Matrix, y []float64, folds [][]int) ([]float64, error) {
	n, _ := X.Dims()
	scores := make([]float64, 0, len(folds))

	inTest := make([]bool, n)
	for f, test := range folds {
		for i := range inTest {
			inTest[i] = false
		}
		for _, idx := range test {
			inTest[idx] = true
		}

		train := make([]int, 0, n-len(test))
		for i := 0; i < n; i++ {
			if !inTest[i] {
				train = append(train, i)
			}
		}
		if len(train) == 0 || len(test) == 0 {
			return nil, fmt.Errorf("%w: fold %d is degenerate", ErrInvalidInput, f)
		}

		model := est.Clone()
		if err := model.Fit(selectRows(X, train), pick(y, train)); err != nil {
			return nil, fmt.Errorf("fit fold %d: %w", f, err)
		}

		score, err := model.Score(selectRows(X, test), pick(y, test))
		if err != nil {
			return nil, fmt.Errorf("score fold %d: %w", f, err)
		}

		scores = append(scores, score)
	}

	return scores, nil
}
