// Package gafs provides feature selection using a genetic algorithm wrapped
// around any estimator. It searches binary feature masks maximizing the
// cross-validated score of the estimator while penalizing the number of
// selected features.
//
// # Features
//
// The package includes the following key features:
//
//   - Wrapper Selection: Any model implementing Estimator (Clone, Fit, Score)
//     can guide the search
//   - Two-Objective Fitness: Mean cross-validation score minus its standard
//     deviation, against a quadratic penalty on the subset size
//   - Classic Genetic Operators: Tournament selection, two-point crossover and
//     per-gene bit-flip mutation
//   - Lazy Evaluation: Individuals are only re-evaluated when their genome
//     actually changed
//   - Parallel Evaluation: Optional bounded worker pool, with results identical
//     to sequential runs for the same seed
//   - Progress Monitoring: Real-time updates via channels, structured logs via
//     zap, per-generation statistics in a Logbook
//   - Dense and Sparse Input: Anything implementing gonum's mat.Matrix
//
// # Installation
//
// To install the package, use:
//
//	go get github.com/thalesfsp/gafs
//
// # Fitness
//
// For a mask selecting k of the n_features columns of a dataset with
// n_samples rows the fitness is the pair:
//
//	performance  = mean(cv scores) - std(cv scores)
//	size penalty = (k / (n_samples * 5))^2
//
// Individuals are ranked by performance - size penalty. A mask selecting no
// feature scores (0, 0) and is never cross-validated.
//
// # Configuration
//
// The Config struct allows customization of the search:
//
//	type Config struct {
//	    NumberGen        int     // Generations after initialization
//	    SizePop          int     // Individuals per generation
//	    CrossOverProb    float64 // Probability to recombine a pair
//	    MutationProb     float64 // Probability to mutate an individual
//	    GeneMutationProb float64 // Per-gene flip probability
//	    Folds            int     // Folds of the default validator
//	    Repeat           int     // Independent searches
//	    Seed             int64   // Zero = time based
//	    Parallel         bool    // Concurrent evaluation
//	    ...
//	}
//
// Recommended settings:
//   - NumberGen: 10-100 (more = better masks but longer runtime)
//   - SizePop: 20-200 (more = more diverse search)
//   - Folds: 3-10 (more = more stable scores, proportionally slower)
//
// # Usage
//
//	selector, err := gafs.New(estimator.NewNearestCentroid(), gafs.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//
//	reduced, err := selector.FitTransform(X, y)
//	if err != nil {
//	    return err
//	}
//
//	indices, _ := selector.SupportIndices()
//
// # Thread Safety
//
//   - A GeneticSelector may be shared between goroutines
//   - Each Fit owns its population, random source and hall-of-fame
//   - Workers only read X and y; results are merged by the search loop
package gafs
