package gafs

import (
	"fmt"
	"math"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// sizePenaltyScale divides the number of selected features together with
// the sample count before squaring.
const sizePenaltyScale = 5.0

// evaluator maps individuals to fitness. It only reads X and y, so a single
// evaluator may be shared by concurrent workers.
type evaluator struct {
	estimator Estimator
	cv        CrossValidator
	X         mat.Matrix
	y         []float64
	nSamples  int
}

func newEvaluator(est Estimator, cv CrossValidator, X mat.Matrix, y []float64) *evaluator {
	r, _ := X.Dims()

	return &evaluator{
		estimator: est,
		cv:        cv,
		X:         X,
		y:         y,
		nSamples:  r,
	}
}

// evaluate computes the fitness of one genome. An empty selection scores
// (0, 0) without consulting the cross validator.
func (e *evaluator) evaluate(genes []bool) (Fitness, error) {
	indices := maskIndices(genes)
	if len(indices) == 0 {
		return Fitness{}, nil
	}

	reduced := SelectColumns(e.X, indices)

	scores, err := e.cv.CrossValidate(e.estimator.Clone(), reduced, e.y)
	if err != nil {
		return Fitness{}, fmt.Errorf("cross validation of %d features: %w", len(indices), err)
	}
	if len(scores) == 0 {
		return Fitness{}, fmt.Errorf("%w: cross validator returned no scores", ErrInvalidConfig)
	}

	mean, std := stat.PopMeanStdDev(scores, nil)

	return Fitness{
		Performance: mean - std,
		SizePenalty: math.Pow(float64(len(indices))/(float64(e.nSamples)*sizePenaltyScale), 2),
	}, nil
}

// evaluateAll fills in the fitness of every individual in inds. When
// workers > 1 evaluations run on a bounded pool; the call returns only
// after all of them finished. Results are assigned by position, so the
// outcome does not depend on scheduling.
func (e *evaluator) evaluateAll(inds []*Individual, workers int) error {
	if len(inds) == 0 {
		return nil
	}

	results := make([]Fitness, len(inds))

	if workers <= 1 {
		for i, ind := range inds {
			f, err := e.evaluate(ind.Genes)
			if err != nil {
				return err
			}
			results[i] = f
		}
	} else {
		if workers > len(inds) {
			workers = len(inds)
		}

		p := pool.New().WithErrors().WithFirstError().WithMaxGoroutines(workers)
		for i, ind := range inds {
			i := i
			genes := append([]bool(nil), ind.Genes...)
			p.Go(func() error {
				f, err := e.evaluate(genes)
				if err != nil {
					return err
				}
				results[i] = f

				return nil
			})
		}

		if err := p.Wait(); err != nil {
			return err
		}
	}

	for i, ind := range inds {
		ind.setFitness(results[i])
	}

	return nil
}
