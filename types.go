package gafs

import (
	"go.uber.org/zap"
	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/mat"
)

// ProgressUpdate represents the current state of a feature selection run.
type ProgressUpdate struct {
	// RunID identifies the Fit call that emitted the update.
	RunID string

	// Phase indicates whether we're in population initialization or evolution
	Phase string

	// Repeat is the index of the current repetition of the search (0-based)
	Repeat int

	// CurrentGeneration is the current generation number (1-based, 0 during
	// initialization)
	CurrentGeneration int

	// TotalGenerations is the total number of generations to run
	TotalGenerations int

	// Evaluations is the number of fitness evaluations performed in this step
	Evaluations int

	// CurrentBestMask holds the best feature mask found so far
	CurrentBestMask []bool

	// CurrentBestFitness holds the fitness of the best mask found so far
	CurrentBestFitness Fitness
}

// ParameterRange defines the valid range for a configuration value.
// Each range has a minimum and maximum value, both inclusive.
//
// Type Parameter:
//   - T: The numeric type for this parameter range (int or float64)
//
// Usage:
//
//	// Probabilities
//	probabilityRange := ParameterRange[float64]{Min: 0, Max: 1}
//
//	// Fold count
//	foldsRange := ParameterRange[int]{Min: 2, Max: math.MaxInt}
type ParameterRange[T constraints.Integer | constraints.Float] struct {
	// Min defines the minimum allowed value (inclusive).
	Min T

	// Max defines the maximum allowed value (inclusive).
	Max T
}

// Estimator is the capability set the selector needs from the wrapped model.
// Any classifier or regressor satisfying it can be used.
//
// Implementation notes:
// - Clone must return an unfitted estimator with the same hyperparameters
// - Fit and Score must not retain references to X or y after returning
// - Score should return higher values for better models
type Estimator interface {
	// Clone returns a fresh, unfitted copy with the same hyperparameters.
	Clone() Estimator

	// Fit trains the estimator on X (samples × features) and y.
	Fit(X mat.Matrix, y []float64) error

	// Score evaluates a fitted estimator on X and y.
	Score(X mat.Matrix, y []float64) (float64, error)
}

// Predictor is implemented by estimators able to produce predictions. It is
// required by GeneticSelector.Predict only.
type Predictor interface {
	Predict(X mat.Matrix) ([]float64, error)
}

// NaNTolerant is implemented by estimators that accept NaN values in X.
type NaNTolerant interface {
	AllowNaN() bool
}

// Classifier is implemented by estimators predicting discrete labels. When
// IsClassifier reports true the default cross validator keeps the label
// proportions of every fold (StratifiedKFold).
type Classifier interface {
	IsClassifier() bool
}

// CrossValidator scores an estimator configuration by cross-validation. It
// is treated as a pure function: it must only train estimators it owns.
//
// Returns:
// - []float64: One score per fold
// - error: Any error from fitting or scoring, returned unchanged
type CrossValidator interface {
	CrossValidate(est Estimator, X mat.Matrix, y []float64) ([]float64, error)
}

// CrossValidatorFunc adapts an ordinary function to the CrossValidator
// interface.
type CrossValidatorFunc func(est Estimator, X mat.Matrix, y []float64) ([]float64, error)

// CrossValidate calls f(est, X, y).
func (f CrossValidatorFunc) CrossValidate(est Estimator, X mat.Matrix, y []float64) ([]float64, error) {
	return f(est, X, y)
}

// Fittable is implemented by selectors that learn a feature mask. T is the
// fitted value returned by Fit, usually the receiver itself.
type Fittable[T any] interface {
	Fit(X mat.Matrix, y []float64) (T, error)
}

// Transformable is implemented by selectors that reduce a feature matrix.
type Transformable interface {
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// SupportMasked is implemented by selectors exposing their selected features.
type SupportMasked interface {
	SupportMask() ([]bool, error)
	SupportIndices() ([]int, error)
}

// Config holds all configuration parameters for the genetic feature
// selection process. It controls the size of the search, the variation
// operators, how fitness is evaluated and how progress is reported.
//
// Usage example:
//
//	config := DefaultConfig()
//
//	// Bigger search
//	config.NumberGen = 50
//	config.SizePop = 100
//
//	// Reproducible run, evaluated on all cores
//	config.Seed = 42
//	config.Parallel = true
//
//	selector, err := New(estimator.NewNearestCentroid(), config)
//
// Performance impact notes:
// - Each generation costs up to SizePop cross-validations
// - Total cost is roughly Repeat * (NumberGen + 1) * SizePop * Folds fits
// - Higher MutationProb / CrossOverProb = more re-evaluations per generation
//
// Note:
// - Create separate configs for selectors running concurrently.
type Config struct {
	// NumberGen is the number of generations evolved after initialization.
	// Recommended range: 10-100
	NumberGen int

	// SizePop is the number of individuals in every generation.
	// Recommended range: 20-200
	SizePop int

	// CrossOverProb is the probability that a pair of offspring is recombined
	// with two-point crossover.
	CrossOverProb float64

	// MutationProb is the probability that an offspring individual is mutated.
	MutationProb float64

	// GeneMutationProb is the per-gene flip probability applied inside a
	// mutating individual.
	GeneMutationProb float64

	// Folds is the number of cross-validation folds used by the default
	// cross validator.
	Folds int

	// Repeat determines how many times the whole search is run, each time
	// from a fresh random population. The best individual across all repeats
	// wins.
	Repeat int

	// Seed initializes the random source. Zero seeds from the current time.
	Seed int64

	// Parallel evaluates individuals of a generation concurrently.
	Parallel bool

	// Workers bounds the number of concurrent evaluations when Parallel is
	// set. Zero uses runtime.NumCPU().
	Workers int

	// Normalize standardizes every column of X (zero mean, unit variance)
	// before the search.
	Normalize bool

	// MakeLogbook records per-generation statistics.
	MakeLogbook bool

	// CrossValidator replaces the default oracle: StratifiedKFold{Folds: Folds}
	// for estimators implementing Classifier, KFold{Folds: Folds} otherwise.
	CrossValidator CrossValidator

	// Logger receives run information. If nil, warnings and errors are
	// written to stderr and everything else is discarded.
	Logger *zap.Logger

	// ProgressChan is used to send progress updates during the search.
	// If nil, no updates will be sent
	ProgressChan chan<- ProgressUpdate
}
