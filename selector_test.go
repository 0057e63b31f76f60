package gafs

import (
	"bytes"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"
)

func fitSelector(t *testing.T, config Config) (*GeneticSelector, *mat.Dense, []float64) {
	t.Helper()

	X, y := makeDataset(11, 30, 2, 4)

	selector, err := New(&centroid{}, config)
	require.NoError(t, err)

	_, err = selector.Fit(X, y)
	require.NoError(t, err)

	return selector, X, y
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative generations", func(c *Config) { c.NumberGen = -1 }},
		{"empty population", func(c *Config) { c.SizePop = 0 }},
		{"crossover above one", func(c *Config) { c.CrossOverProb = 1.5 }},
		{"negative mutation", func(c *Config) { c.MutationProb = -0.1 }},
		{"gene mutation above one", func(c *Config) { c.GeneMutationProb = 2 }},
		{"single fold", func(c *Config) { c.Folds = 1 }},
		{"no repeat", func(c *Config) { c.Repeat = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(&config)

			_, err := New(&centroid{}, config)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	_, err := New(nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrInvalidEstimator)
}

func TestNewIgnoresFoldsWithCustomValidator(t *testing.T) {
	config := DefaultConfig()
	config.Folds = 0
	config.CrossValidator = StratifiedKFold{Folds: 2}

	_, err := New(&centroid{}, config)

	assert.NoError(t, err)
}

func TestNewDefaultCrossValidator(t *testing.T) {
	config := DefaultConfig()

	selector, err := New(&centroid{}, config)
	require.NoError(t, err)
	assert.Equal(t, StratifiedKFold{Folds: 3}, selector.config.CrossValidator)

	selector, err = New(plainEstimator{&centroid{}}, config)
	require.NoError(t, err)
	assert.Equal(t, KFold{Folds: 3}, selector.config.CrossValidator)

	config.CrossValidator = KFold{Folds: 4}
	selector, err = New(&centroid{}, config)
	require.NoError(t, err)
	assert.Equal(t, KFold{Folds: 4}, selector.config.CrossValidator)
}

func TestFitSortedLabelsSelectsInformativeColumn(t *testing.T) {
	X, y := sortedLabels(30, 3)

	selector, err := New(&centroid{}, testConfig())
	require.NoError(t, err)
	_, err = selector.Fit(X, y)
	require.NoError(t, err)

	mask, err := selector.SupportMask()
	require.NoError(t, err)
	assert.True(t, mask[0])

	fitness, err := selector.Fitness()
	require.NoError(t, err)
	assert.Greater(t, fitness.Performance, 0.9)

	// Contiguous folds hold out whole classes, so nothing can score.
	config := testConfig()
	config.CrossValidator = KFold{Folds: 3}
	selector, err = New(&centroid{}, config)
	require.NoError(t, err)
	_, err = selector.Fit(X, y)
	require.NoError(t, err)

	fitness, err = selector.Fitness()
	require.NoError(t, err)
	assert.Zero(t, fitness.Performance)
}

func TestNewDefaultLoggerWarns(t *testing.T) {
	selector, err := New(&centroid{}, DefaultConfig())
	require.NoError(t, err)

	core := selector.config.Logger.Core()
	assert.True(t, core.Enabled(zapcore.WarnLevel))
	assert.False(t, core.Enabled(zapcore.InfoLevel))
}

// fitWith accepts any Fittable, whatever it returns.
func fitWith[T any](f Fittable[T], X mat.Matrix, y []float64) (T, error) {
	return f.Fit(X, y)
}

func TestFittable(t *testing.T) {
	X, y := makeDataset(12, 20, 2, 2)

	selector, err := New(&centroid{}, testConfig())
	require.NoError(t, err)

	fitted, err := fitWith[*GeneticSelector](selector, X, y)
	require.NoError(t, err)
	assert.Same(t, selector, fitted)
}

func TestFitTransformMatchesMask(t *testing.T) {
	selector, X, _ := fitSelector(t, testConfig())

	mask, err := selector.SupportMask()
	require.NoError(t, err)
	require.Len(t, mask, 6)

	indices, err := selector.SupportIndices()
	require.NoError(t, err)
	require.NotEmpty(t, indices, "the informative columns make an empty mask unlikely")

	reduced, err := selector.Transform(X)
	require.NoError(t, err)

	r, c := reduced.Dims()
	assert.Equal(t, 30, r)
	assert.Equal(t, len(indices), c)
	for j, col := range indices {
		assert.True(t, mask[col])
		for i := 0; i < r; i++ {
			assert.Equal(t, X.At(i, col), reduced.At(i, j))
		}
	}
}

func TestFitIsDeterministicWithSeed(t *testing.T) {
	first, _, _ := fitSelector(t, testConfig())
	second, _, _ := fitSelector(t, testConfig())

	m1, _ := first.SupportMask()
	m2, _ := second.SupportMask()
	f1, _ := first.Fitness()
	f2, _ := second.Fitness()

	assert.Equal(t, m1, m2)
	assert.Equal(t, f1, f2)
}

func TestParallelMatchesSequential(t *testing.T) {
	sequential, _, _ := fitSelector(t, testConfig())

	config := testConfig()
	config.Parallel = true
	config.Workers = 4
	parallel, _, _ := fitSelector(t, config)

	ms, _ := sequential.SupportMask()
	mp, _ := parallel.SupportMask()
	fs, _ := sequential.Fitness()
	fp, _ := parallel.Fitness()
	ls, _ := sequential.Logbook()
	lp, _ := parallel.Logbook()

	assert.Equal(t, ms, mp)
	assert.Equal(t, fs, fp)
	assert.Equal(t, ls, lp)
}

func TestFitRejectsBadInput(t *testing.T) {
	selector, err := New(&centroid{}, testConfig())
	require.NoError(t, err)

	X, y := makeDataset(1, 10, 1, 1)

	_, err = selector.Fit(X, y[:9])
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = selector.Fit(nil, y)
	assert.ErrorIs(t, err, ErrInvalidInput)

	X.Set(3, 1, math.NaN())
	_, err = selector.Fit(X, y)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = selector.SupportMask()
	assert.ErrorIs(t, err, ErrNotFitted, "failed fits leave the selector unfitted")
}

func TestFitAcceptsNaNWhenTolerated(t *testing.T) {
	X, y := makeDataset(1, 12, 1, 1)
	X.Set(3, 1, math.NaN())

	selector, err := New(&nanCentroid{}, testConfig())
	require.NoError(t, err)

	_, err = selector.Fit(X, y)
	assert.NoError(t, err)

	X.Set(4, 0, math.Inf(1))
	_, err = selector.Fit(X, y)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNotFitted(t *testing.T) {
	selector, err := New(&centroid{}, testConfig())
	require.NoError(t, err)

	X, _ := makeDataset(1, 10, 1, 1)

	_, err = selector.Transform(X)
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = selector.SupportIndices()
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = selector.Fitness()
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = selector.BestScore()
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = selector.Logbook()
	assert.ErrorIs(t, err, ErrNotFitted)
	_, err = selector.Predict(X)
	assert.ErrorIs(t, err, ErrNotFitted)
}

func TestTransformShapeMismatch(t *testing.T) {
	selector, _, _ := fitSelector(t, testConfig())

	wide, _ := makeDataset(2, 30, 3, 4)
	reduced, err := selector.Transform(wide)

	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Nil(t, reduced)
}

func TestTransformEmptyMaskWarns(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	config := testConfig()
	config.Logger = zap.New(core)
	selector, X, _ := fitSelector(t, config)

	// Zero the mask after fit.
	selector.mask = make([]bool, len(selector.mask))

	reduced, err := selector.Transform(X)
	require.NoError(t, err)

	r, c := reduced.Dims()
	assert.Equal(t, 30, r)
	assert.Equal(t, 0, c)
	assert.Equal(t, 1, logs.FilterMessageSnippet("no features were selected").Len())

	// A zero-length mask also warns instead of failing.
	selector.mask = []bool{}
	_, err = selector.Transform(X)
	assert.NoError(t, err)
	assert.Equal(t, 2, logs.Len())
}

func TestNoRedundantEvaluations(t *testing.T) {
	X, y := makeDataset(3, 30, 2, 4)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no variation", func(c *Config) { c.CrossOverProb, c.MutationProb = 0, 0 }},
		{"mutation without gene flips", func(c *Config) { c.CrossOverProb, c.MutationProb, c.GeneMutationProb = 0, 1, 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := &countingCV{inner: KFold{Folds: 3}}
			config := testConfig()
			config.NumberGen = 8
			config.CrossValidator = cv
			tt.mutate(&config)

			selector, err := New(&centroid{}, config)
			require.NoError(t, err)
			_, err = selector.Fit(X, y)
			require.NoError(t, err)

			// Only the initial population is ever evaluated.
			assert.LessOrEqual(t, cv.calls.Load(), int64(config.SizePop))

			logbook, err := selector.Logbook()
			require.NoError(t, err)
			for _, rec := range logbook {
				assert.Zero(t, rec.Evaluations)
			}
		})
	}
}

func TestEvaluationsFollowVariation(t *testing.T) {
	X, y := makeDataset(4, 30, 2, 4)
	cv := &countingCV{inner: KFold{Folds: 3}}

	config := testConfig()
	config.CrossOverProb = 1
	config.MutationProb = 0.5
	config.CrossValidator = cv

	selector, err := New(&centroid{}, config)
	require.NoError(t, err)
	_, err = selector.Fit(X, y)
	require.NoError(t, err)

	logbook, err := selector.Logbook()
	require.NoError(t, err)

	total := int64(config.SizePop)
	for _, rec := range logbook {
		assert.LessOrEqual(t, rec.Evaluations, config.SizePop)
		total += int64(rec.Evaluations)
	}
	assert.Greater(t, total, int64(config.SizePop))

	// Empty masks are evaluated without cross validation.
	assert.LessOrEqual(t, cv.calls.Load(), total)
}

func TestLogbookBestIsMonotonic(t *testing.T) {
	config := testConfig()
	config.NumberGen = 10
	config.MutationProb = 0.3
	config.Repeat = 2
	selector, _, _ := fitSelector(t, config)

	logbook, err := selector.Logbook()
	require.NoError(t, err)
	require.Len(t, logbook, 20)

	assert.Equal(t, 0, logbook[0].Repeat)
	assert.Equal(t, 1, logbook[19].Repeat)
	assert.Equal(t, 10, logbook[19].Generation)

	for i := 1; i < len(logbook); i++ {
		assert.GreaterOrEqual(t, logbook[i].Best.Weighted(), logbook[i-1].Best.Weighted())
	}
	for _, rec := range logbook {
		assert.GreaterOrEqual(t, rec.Max.Performance, rec.Avg.Performance)
		assert.GreaterOrEqual(t, rec.Avg.Performance, rec.Min.Performance)
		assert.GreaterOrEqual(t, rec.Best.Weighted(), rec.Max.Performance-rec.Max.SizePenalty-1e-9)
	}

	fitness, err := selector.Fitness()
	require.NoError(t, err)
	assert.Equal(t, logbook[19].Best, fitness)

	score, err := selector.BestScore()
	require.NoError(t, err)
	assert.Equal(t, fitness.Weighted(), score)
}

func TestLogbookDisabled(t *testing.T) {
	config := testConfig()
	config.MakeLogbook = false
	selector, _, _ := fitSelector(t, config)

	_, err := selector.Logbook()

	assert.ErrorIs(t, err, ErrNoLogbook)
}

func TestLogbookPlot(t *testing.T) {
	selector, _, _ := fitSelector(t, testConfig())
	logbook, err := selector.Logbook()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, logbook.Plot(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	assert.ErrorIs(t, Logbook(nil).Plot(&buf), ErrNoLogbook)
}

func TestFitFailureKeepsPreviousState(t *testing.T) {
	X, y := makeDataset(5, 30, 2, 4)

	var fail atomic.Bool
	boom := errors.New("boom")
	config := testConfig()
	config.CrossValidator = CrossValidatorFunc(func(est Estimator, Xr mat.Matrix, yr []float64) ([]float64, error) {
		if fail.Load() {
			return nil, boom
		}

		return KFold{Folds: 3}.CrossValidate(est, Xr, yr)
	})

	selector, err := New(&centroid{}, config)
	require.NoError(t, err)
	_, err = selector.Fit(X, y)
	require.NoError(t, err)
	before, _ := selector.SupportMask()

	fail.Store(true)
	_, err = selector.Fit(X, y)
	assert.ErrorIs(t, err, boom)

	after, err := selector.SupportMask()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestPredictWithNormalize(t *testing.T) {
	config := testConfig()
	config.Normalize = true
	selector, X, y := fitSelector(t, config)

	indices, err := selector.SupportIndices()
	require.NoError(t, err)
	require.NotEmpty(t, indices)

	prediction, err := selector.Predict(X)
	require.NoError(t, err)
	require.Len(t, prediction, len(y))

	// Transform keeps the raw values.
	reduced, err := selector.Transform(X)
	require.NoError(t, err)
	assert.Equal(t, X.At(0, indices[0]), reduced.At(0, 0))

	_, err = selector.Predict(mat.NewDense(2, 2, nil))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestFitTransform(t *testing.T) {
	X, y := makeDataset(6, 30, 2, 4)

	a, err := New(&centroid{}, testConfig())
	require.NoError(t, err)
	_, err = a.Fit(X, y)
	require.NoError(t, err)
	want, err := a.Transform(X)
	require.NoError(t, err)

	b, err := New(&centroid{}, testConfig())
	require.NoError(t, err)
	got, err := b.FitTransform(X, y)
	require.NoError(t, err)

	assert.True(t, mat.Equal(want, got))
}

func TestProgressChannel(t *testing.T) {
	config := testConfig()

	// Create a bidirectional channel for progress updates
	progressChan := make(chan ProgressUpdate, config.NumberGen+1)
	config.ProgressChan = progressChan

	selector, _, _ := fitSelector(t, config)
	close(progressChan)

	var counter int32
	var last ProgressUpdate
	for update := range progressChan {
		atomic.AddInt32(&counter, 1)
		last = update
	}

	// One update after initialization, one per generation.
	assert.Equal(t, int32(config.NumberGen+1), atomic.LoadInt32(&counter))
	assert.Equal(t, PhaseEvolution, last.Phase)
	assert.Equal(t, config.NumberGen, last.CurrentGeneration)
	assert.NotEmpty(t, last.RunID)

	mask, err := selector.SupportMask()
	require.NoError(t, err)
	assert.Equal(t, mask, last.CurrentBestMask)
}
