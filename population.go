package gafs

import (
	"math/rand"
)

// tournamentSize is the number of aspirants drawn per selection.
const tournamentSize = 3

// Population is one generation of individuals.
type Population []*Individual

// newPopulation returns size random, stale individuals of nFeatures genes.
func newPopulation(rng *rand.Rand, size, nFeatures int) Population {
	pop := make(Population, size)
	for i := range pop {
		pop[i] = newRandomIndividual(rng, nFeatures)
	}

	return pop
}

// stale returns the individuals whose fitness must be (re)computed.
func (p Population) stale() []*Individual {
	out := make([]*Individual, 0, len(p))
	for _, ind := range p {
		if !ind.Valid() {
			out = append(out, ind)
		}
	}

	return out
}

// best returns the fittest valid individual, or nil if none is valid. The
// first of equally fit individuals wins.
func (p Population) best() *Individual {
	var best *Individual
	var bestFit Fitness
	for _, ind := range p {
		f, ok := ind.Fitness()
		if !ok {
			continue
		}
		if best == nil || f.Better(bestFit) {
			best, bestFit = ind, f
		}
	}

	return best
}

// selectTournament draws k individuals, each the best of tournamentSize
// aspirants sampled with replacement. The returned individuals are clones so
// later variation never touches p.
func (p Population) selectTournament(rng *rand.Rand, k int) Population {
	chosen := make(Population, k)
	for i := range chosen {
		winner := p[rng.Intn(len(p))]
		winnerFit, _ := winner.Fitness()
		for j := 1; j < tournamentSize; j++ {
			candidate := p[rng.Intn(len(p))]
			if f, _ := candidate.Fitness(); f.Better(winnerFit) {
				winner, winnerFit = candidate, f
			}
		}
		chosen[i] = winner.clone()
	}

	return chosen
}

// HallOfFame keeps the single best individual ever observed. It owns its own
// copy of the genome.
type HallOfFame struct {
	best *Individual
}

// Update considers the best individual of p and keeps it if it strictly
// improves on the current record. It reports whether the record changed.
func (h *HallOfFame) Update(p Population) bool {
	candidate := p.best()
	if candidate == nil {
		return false
	}

	if h.best != nil {
		cf, _ := candidate.Fitness()
		hf, _ := h.best.Fitness()
		if !cf.Better(hf) {
			return false
		}
	}

	h.best = candidate.clone()

	return true
}

// Best returns a copy of the recorded individual, or nil when empty.
func (h *HallOfFame) Best() *Individual {
	if h.best == nil {
		return nil
	}

	return h.best.clone()
}
