package gafs

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/mat"
)

//////
// Const, vars, types.
//////

var (
	probabilityRange = ParameterRange[float64]{Min: 0, Max: 1}
	generationsRange = ParameterRange[int]{Min: 0, Max: math.MaxInt}
	positiveRange    = ParameterRange[int]{Min: 1, Max: math.MaxInt}
	foldsRange       = ParameterRange[int]{Min: 2, Max: math.MaxInt}
	workersRange     = ParameterRange[int]{Min: 0, Max: math.MaxInt}
)

// GeneticSelector selects a subset of features by evolving binary masks and
// scoring them with cross-validation of the wrapped estimator.
//
// Thread safety:
// - Fit, Transform and the accessors may be called from several goroutines
// - Concurrent Fit calls search independently; the last to finish wins
type GeneticSelector struct {
	estimator Estimator
	config    Config

	mu      sync.RWMutex
	fitted  bool
	mask    []bool
	fitness Fitness
	logbook Logbook
	model   Estimator
	scaler  *scaler
	runID   string
}

var (
	_ Fittable[*GeneticSelector] = (*GeneticSelector)(nil)
	_ Transformable              = (*GeneticSelector)(nil)
	_ SupportMasked              = (*GeneticSelector)(nil)
)

//////
// Exported functionalities.
//////

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		NumberGen:        20,
		SizePop:          40,
		CrossOverProb:    0.2,
		MutationProb:     0.05,
		GeneMutationProb: 0.05,
		Folds:            3,
		Repeat:           1,
		Seed:             0, // Time based.
		Parallel:         false,
		Workers:          0,
		Normalize:        false,
		MakeLogbook:      true,
		CrossValidator:   nil, // (Stratified)KFold{Folds: Folds}.
		Logger:           nil, // Warnings to stderr.
		ProgressChan:     nil, // Default to no progress updates.
	}
}

// New creates a selector wrapping est. Configuration errors are reported
// here, before any search starts.
//
// Parameters:
// - est: The estimator whose cross-validated score guides the search
// - config: Config controlling the search, usually from DefaultConfig()
//
// Returns:
// - *GeneticSelector: An unfitted selector
// - error: ErrInvalidEstimator or ErrInvalidConfig
//
// Usage example:
//
//	selector, err := New(estimator.NewNearestCentroid(), DefaultConfig())
//	if err != nil {
//	    return err
//	}
//
//	if _, err := selector.Fit(X, y); err != nil {
//	    return err
//	}
//
//	reduced, err := selector.Transform(X)
func New(est Estimator, config Config) (*GeneticSelector, error) {
	if est == nil {
		return nil, fmt.Errorf("%w: estimator is nil", ErrInvalidEstimator)
	}

	checks := []error{
		checkRange("NumberGen", config.NumberGen, generationsRange),
		checkRange("SizePop", config.SizePop, positiveRange),
		checkRange("CrossOverProb", config.CrossOverProb, probabilityRange),
		checkRange("MutationProb", config.MutationProb, probabilityRange),
		checkRange("GeneMutationProb", config.GeneMutationProb, probabilityRange),
		checkRange("Repeat", config.Repeat, positiveRange),
		checkRange("Workers", config.Workers, workersRange),
	}
	if config.CrossValidator == nil {
		checks = append(checks, checkRange("Folds", config.Folds, foldsRange))
	}
	for _, err := range checks {
		if err != nil {
			return nil, err
		}
	}

	if config.CrossValidator == nil {
		config.CrossValidator = defaultCrossValidator(est, config.Folds)
	}
	if config.Logger == nil {
		config.Logger = defaultLogger()
	}

	return &GeneticSelector{estimator: est, config: config}, nil
}

// Fit searches the feature mask maximizing the cross-validated performance
// of the estimator on X and y while penalizing the number of features.
//
// Parameters:
// - X: Training samples, samples × features. Dense and sparse gonum
//   matrices are both accepted
// - y: Target values, one per sample
//
// Returns:
// - *GeneticSelector: The receiver, fitted
// - error: Input validation errors, or the first estimator error
//
// Important notes:
// - A failed Fit leaves the previously fitted state untouched
// - The same Seed and Config always produce the same mask, with or without
//   Parallel
func (s *GeneticSelector) Fit(X mat.Matrix, y []float64) (*GeneticSelector, error) {
	allowNaN := false
	if t, ok := s.estimator.(NaNTolerant); ok {
		allowNaN = t.AllowNaN()
	}
	if err := checkXY(X, y, allowNaN); err != nil {
		return nil, err
	}

	var sc *scaler
	data := X
	if s.config.Normalize {
		sc = fitScaler(X)
		data = sc.transform(X)
	}

	seed := s.config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	workers := 1
	if s.config.Parallel {
		workers = s.config.Workers
		if workers == 0 {
			workers = runtime.NumCPU()
		}
	}

	nSamples, nFeatures := X.Dims()
	runID := uuid.New().String()
	logger := s.config.Logger

	logger.Info("feature selection started",
		zap.String("run_id", runID),
		zap.Int("samples", nSamples),
		zap.Int("features", nFeatures),
		zap.Int("generations", s.config.NumberGen),
		zap.Int("population", s.config.SizePop),
		zap.Int("repeat", s.config.Repeat),
		zap.Int("workers", workers),
	)

	ev := &evolution{
		cfg:       s.config,
		rng:       rand.New(rand.NewSource(seed)),
		eval:      newEvaluator(s.estimator, s.config.CrossValidator, data, y),
		workers:   workers,
		nFeatures: nFeatures,
		runID:     runID,
		logger:    logger,
	}
	if err := ev.run(); err != nil {
		logger.Error("feature selection failed", zap.String("run_id", runID), zap.Error(err))

		return nil, err
	}

	best := ev.hof.Best()
	fitness, _ := best.Fitness()
	indices := best.Indices()

	// Final model on the selected columns, used by Predict.
	var model Estimator
	if len(indices) > 0 {
		model = s.estimator.Clone()
		if err := model.Fit(SelectColumns(data, indices), y); err != nil {
			return nil, fmt.Errorf("fit final estimator: %w", err)
		}
	}

	logger.Info("feature selection finished",
		zap.String("run_id", runID),
		zap.Ints("selected", indices),
		zap.Float64("performance", fitness.Performance),
		zap.Float64("size_penalty", fitness.SizePenalty),
	)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.fitted = true
	s.mask = best.Genes
	s.fitness = fitness
	s.logbook = ev.logbook
	s.model = model
	s.scaler = sc
	s.runID = runID

	return s, nil
}

// Transform reduces X to the selected features.
//
// Returns:
// - mat.Matrix: samples × selected features. When no feature is selected a
//   warning is logged (to stderr unless Config.Logger is set) and a matrix
//   with zero columns is returned
// - error: ErrNotFitted before Fit, ErrShapeMismatch if X does not have the
//   number of features seen during Fit
func (s *GeneticSelector) Transform(X mat.Matrix) (mat.Matrix, error) {
	s.mu.RLock()
	fitted, mask, runID := s.fitted, s.mask, s.runID
	s.mu.RUnlock()

	if !fitted {
		return nil, ErrNotFitted
	}
	if X == nil {
		return nil, fmt.Errorf("%w: X is nil", ErrInvalidInput)
	}

	r, _ := X.Dims()
	indices := maskIndices(mask)
	if len(indices) == 0 {
		s.config.Logger.Warn("no features were selected: either the data is too noisy or the selection too strict",
			zap.String("run_id", runID),
		)

		return emptyMatrix{rows: r}, nil
	}

	indices, err := SafeMask(X, mask)
	if err != nil {
		return nil, err
	}

	return SelectColumns(X, indices), nil
}

// FitTransform fits the selector on X and y, then reduces X.
func (s *GeneticSelector) FitTransform(X mat.Matrix, y []float64) (mat.Matrix, error) {
	if _, err := s.Fit(X, y); err != nil {
		return nil, err
	}

	return s.Transform(X)
}

// SupportMask returns a copy of the selected-feature mask.
func (s *GeneticSelector) SupportMask() ([]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.fitted {
		return nil, ErrNotFitted
	}

	return append([]bool(nil), s.mask...), nil
}

// SupportIndices returns the positions of the selected features.
func (s *GeneticSelector) SupportIndices() ([]int, error) {
	mask, err := s.SupportMask()
	if err != nil {
		return nil, err
	}

	return maskIndices(mask), nil
}

// Fitness returns the fitness of the selected mask.
func (s *GeneticSelector) Fitness() (Fitness, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.fitted {
		return Fitness{}, ErrNotFitted
	}

	return s.fitness, nil
}

// BestScore returns the weighted fitness of the selected mask. Higher is
// better, which makes it usable as a model selection score.
func (s *GeneticSelector) BestScore() (float64, error) {
	f, err := s.Fitness()
	if err != nil {
		return 0, err
	}

	return f.Weighted(), nil
}

// Logbook returns the per-generation statistics of the last Fit.
func (s *GeneticSelector) Logbook() (Logbook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.fitted {
		return nil, ErrNotFitted
	}
	if !s.config.MakeLogbook {
		return nil, ErrNoLogbook
	}

	return append(Logbook(nil), s.logbook...), nil
}

// Predict predicts targets for X with the estimator refitted on the selected
// features at the end of Fit. The estimator must implement Predictor.
func (s *GeneticSelector) Predict(X mat.Matrix) ([]float64, error) {
	s.mu.RLock()
	fitted, mask, model, sc := s.fitted, s.mask, s.model, s.scaler
	s.mu.RUnlock()

	if !fitted {
		return nil, ErrNotFitted
	}
	if X == nil {
		return nil, fmt.Errorf("%w: X is nil", ErrInvalidInput)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: no features were selected", ErrInvalidInput)
	}

	predictor, ok := model.(Predictor)
	if !ok {
		return nil, fmt.Errorf("%w: estimator %T does not predict", ErrInvalidEstimator, model)
	}

	indices, err := SafeMask(X, mask)
	if err != nil {
		return nil, err
	}

	reduced := SelectColumns(X, indices)
	if sc != nil {
		reduced = sc.subset(indices).transform(reduced)
	}

	return predictor.Predict(reduced)
}

// defaultCrossValidator stratifies the folds of classifiers.
func defaultCrossValidator(est Estimator, folds int) CrossValidator {
	if c, ok := est.(Classifier); ok && c.IsClassifier() {
		return StratifiedKFold{Folds: folds}
	}

	return KFold{Folds: folds}
}

// defaultLogger writes warnings and errors to stderr.
func defaultLogger() *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())

	return zap.New(zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), zapcore.WarnLevel))
}

// SafeMask checks that mask fits the columns of X and returns the selected
// column indices.
func SafeMask(X mat.Matrix, mask []bool) ([]int, error) {
	_, c := X.Dims()
	if len(mask) != c {
		return nil, fmt.Errorf("%w: X has %d features, mask has %d", ErrShapeMismatch, c, len(mask))
	}

	return maskIndices(mask), nil
}
