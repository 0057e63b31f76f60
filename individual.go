package gafs

import "math/rand"

//////
// Const, vars, types.
//////

// Objective weights. Performance is maximized, the size penalty minimized.
const (
	performanceWeight = 1.0
	sizePenaltyWeight = -1.0
)

// Fitness is the two-term score of an individual.
//
// Fields:
// - Performance: mean cross-validation score minus its standard deviation
// - SizePenalty: squared share of selected features, scaled by sample count
type Fitness struct {
	Performance float64
	SizePenalty float64
}

// Individual is one candidate feature mask. A nil fitness marks the
// individual as stale: its genes changed since it was last evaluated.
type Individual struct {
	Genes []bool

	fitness *Fitness
}

//////
// Methods.
//////

// Weighted collapses the fitness into the scalar used to rank individuals.
func (f Fitness) Weighted() float64 {
	return performanceWeight*f.Performance + sizePenaltyWeight*f.SizePenalty
}

// Better reports whether f strictly dominates other under the weighted
// ordering. Ties keep the incumbent.
func (f Fitness) Better(other Fitness) bool {
	return f.Weighted() > other.Weighted()
}

// Valid reports whether the individual carries an up-to-date fitness.
func (ind *Individual) Valid() bool {
	return ind.fitness != nil
}

// Fitness returns the individual's fitness and whether it is valid.
func (ind *Individual) Fitness() (Fitness, bool) {
	if ind.fitness == nil {
		return Fitness{}, false
	}

	return *ind.fitness, true
}

// ActiveCount returns the number of selected features.
func (ind *Individual) ActiveCount() int {
	n := 0
	for _, g := range ind.Genes {
		if g {
			n++
		}
	}

	return n
}

// Indices returns the positions of the selected features in ascending order.
func (ind *Individual) Indices() []int {
	return maskIndices(ind.Genes)
}

func (ind *Individual) setFitness(f Fitness) {
	ind.fitness = &f
}

func (ind *Individual) invalidate() {
	ind.fitness = nil
}

// clone returns a deep copy, fitness included.
func (ind *Individual) clone() *Individual {
	c := &Individual{Genes: append([]bool(nil), ind.Genes...)}
	if ind.fitness != nil {
		f := *ind.fitness
		c.fitness = &f
	}

	return c
}

//////
// Operators.
//////

// newRandomIndividual builds a stale individual of nFeatures genes of which
// a uniformly drawn number k in [0, nFeatures] are active, at random
// positions.
func newRandomIndividual(rng *rand.Rand, nFeatures int) *Individual {
	k := rng.Intn(nFeatures + 1)

	genes := make([]bool, nFeatures)
	for _, pos := range rng.Perm(nFeatures)[:k] {
		genes[pos] = true
	}

	return &Individual{Genes: genes}
}

// crossTwoPoint exchanges the segment between two random cut points of a
// and b. Cut points are drawn so the segment is never empty. It reports
// whether each genome changed.
func crossTwoPoint(rng *rand.Rand, a, b *Individual) (bool, bool) {
	size := len(a.Genes)
	if len(b.Genes) < size {
		size = len(b.Genes)
	}
	if size < 2 {
		return false, false
	}

	cx1 := 1 + rng.Intn(size)
	cx2 := 1 + rng.Intn(size-1)
	if cx2 >= cx1 {
		cx2++
	} else {
		cx1, cx2 = cx2, cx1
	}

	changedA, changedB := false, false
	for i := cx1; i < cx2; i++ {
		if a.Genes[i] != b.Genes[i] {
			changedA, changedB = true, true
		}
		a.Genes[i], b.Genes[i] = b.Genes[i], a.Genes[i]
	}

	return changedA, changedB
}

// flipBits flips every gene independently with probability rate and reports
// whether any gene flipped.
func flipBits(rng *rand.Rand, ind *Individual, rate float64) bool {
	changed := false
	for i := range ind.Genes {
		if rng.Float64() < rate {
			ind.Genes[i] = !ind.Genes[i]
			changed = true
		}
	}

	return changed
}
