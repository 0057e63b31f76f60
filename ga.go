package gafs

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"
)

// Progress phases.
const (
	PhaseInitialization = "Initialization"
	PhaseEvolution      = "Evolution"
)

// evolution is the state of one search. Operators, weights and the random
// source are scoped to it; nothing is shared between selectors.
type evolution struct {
	cfg       Config
	rng       *rand.Rand
	eval      *evaluator
	workers   int
	nFeatures int
	runID     string
	logger    *zap.Logger

	hof     HallOfFame
	logbook Logbook
}

// run executes cfg.Repeat independent searches. The hall-of-fame spans all
// of them.
//
// How it works:
// 1. Builds SizePop random individuals and evaluates all of them
// 2. For each of the NumberGen generations:
//   - Selects SizePop offspring by tournament
//   - Recombines sequential pairs with probability CrossOverProb
//   - Mutates each offspring with probability MutationProb
//   - Evaluates only the offspring whose genome changed
//   - Replaces the population with the offspring
//   - Updates the hall-of-fame and records statistics
func (ev *evolution) run() error {
	for r := 0; r < ev.cfg.Repeat; r++ {
		if err := ev.search(r); err != nil {
			return fmt.Errorf("repeat %d: %w", r, err)
		}
	}

	return nil
}

func (ev *evolution) search(repeat int) error {
	pop := newPopulation(ev.rng, ev.cfg.SizePop, ev.nFeatures)
	if err := ev.eval.evaluateAll(pop, ev.workers); err != nil {
		return fmt.Errorf("initial population: %w", err)
	}
	ev.hof.Update(pop)
	ev.sendProgress(PhaseInitialization, repeat, 0, len(pop))

	for gen := 0; gen < ev.cfg.NumberGen; gen++ {
		offspring := pop.selectTournament(ev.rng, len(pop))

		for i := 0; i+1 < len(offspring); i += 2 {
			if ev.rng.Float64() < ev.cfg.CrossOverProb {
				changedA, changedB := crossTwoPoint(ev.rng, offspring[i], offspring[i+1])
				if changedA {
					offspring[i].invalidate()
				}
				if changedB {
					offspring[i+1].invalidate()
				}
			}
		}

		for _, mutant := range offspring {
			if ev.rng.Float64() < ev.cfg.MutationProb {
				if flipBits(ev.rng, mutant, ev.cfg.GeneMutationProb) {
					mutant.invalidate()
				}
			}
		}

		stale := offspring.stale()
		if err := ev.eval.evaluateAll(stale, ev.workers); err != nil {
			return fmt.Errorf("generation %d: %w", gen+1, err)
		}

		// The population is entirely replaced by the offspring.
		pop = offspring

		ev.hof.Update(pop)
		best, _ := ev.hof.best.Fitness()

		if ev.cfg.MakeLogbook {
			ev.logbook = append(ev.logbook, newLogRecord(repeat, gen+1, len(stale), pop, best))
		}

		ev.logger.Debug("generation done",
			zap.String("run_id", ev.runID),
			zap.Int("repeat", repeat),
			zap.Int("generation", gen+1),
			zap.Int("evaluations", len(stale)),
			zap.Float64("best_performance", best.Performance),
			zap.Float64("best_size_penalty", best.SizePenalty),
		)

		ev.sendProgress(PhaseEvolution, repeat, gen+1, len(stale))
	}

	return nil
}

// sendProgress emits an update without blocking; updates are dropped when
// the channel is full.
func (ev *evolution) sendProgress(phase string, repeat, generation, evaluations int) {
	if ev.cfg.ProgressChan == nil {
		return
	}

	update := ProgressUpdate{
		RunID:             ev.runID,
		Phase:             phase,
		Repeat:            repeat,
		CurrentGeneration: generation,
		TotalGenerations:  ev.cfg.NumberGen,
		Evaluations:       evaluations,
	}
	if best := ev.hof.Best(); best != nil {
		update.CurrentBestMask = best.Genes
		update.CurrentBestFitness, _ = best.Fitness()
	}

	select {
	case ev.cfg.ProgressChan <- update:
	default:
		// Skip update if channel is full.
	}
}
