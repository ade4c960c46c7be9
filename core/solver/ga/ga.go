// Package ga implements the genetic-algorithm heuristic for station siting.
// Chromosomes are open/closed bitstrings over the candidate set; cardinality
// is restored by a repair operator and separation violations are penalized
// rather than repaired, so the returned solution may carry penalty mass.
package ga

import (
	"context"
	"math"
	"math/rand"

	"github.com/ekinyavuz/evplan/core/geo"
	"github.com/ekinyavuz/evplan/core/logger"
	"github.com/ekinyavuz/evplan/core/model"
	"github.com/ekinyavuz/evplan/core/routing"
	"github.com/ekinyavuz/evplan/core/sim"
	"github.com/ekinyavuz/evplan/core/solver"
	"github.com/ekinyavuz/evplan/internal/eventbus"
)

// Name identifies the heuristic solver in configuration and solution records.
const Name = "ga"

const (
	// infeasibleCost is the fitness sentinel for a chromosome with no open
	// station.
	infeasibleCost = 1e9
	// separationPenalty is added once per open pair closer than the minimum
	// radius.
	separationPenalty = 1e5
)

// Config tunes the evolutionary loop.
type Config struct {
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	CrossoverProb  float64 `json:"crossover_prob"`
	MutationProb   float64 `json:"mutation_prob"`
}

// SetDefaults fills in the fields that may be omitted from the config file.
func (c *Config) SetDefaults() {
	if c.PopulationSize <= 0 {
		c.PopulationSize = 20
	}
	if c.Generations <= 0 {
		c.Generations = 15
	}
	if c.CrossoverProb <= 0 {
		c.CrossoverProb = 0.9
	}
	if c.MutationProb <= 0 {
		c.MutationProb = 0.1
	}
}

// GenerationEvent reports the best-so-far fitness after one generation. It is
// published on the event bus for progress display.
type GenerationEvent struct {
	RunID      string
	Generation int
	Total      int
	BestCost   float64
}

// Solver is the GA-based heuristic solver. It is owned by a single session:
// the rng and the candidate-pair distance cache are not safe for concurrent
// solves.
type Solver struct {
	cfg    Config
	oracle routing.Oracle
	rng    *rand.Rand
	log    logger.Logger
	bus    eventbus.EventBus

	// candidate-pair distances in meters, rebuilt when the candidate count
	// changes
	pairDist [][]float64
}

// New creates a heuristic solver. The bus may be nil when no progress
// reporting is wanted.
func New(cfg Config, oracle routing.Oracle, rng *rand.Rand, log logger.Logger, bus eventbus.EventBus) *Solver {
	cfg.SetDefaults()
	return &Solver{cfg: cfg, oracle: oracle, rng: rng, log: log, bus: bus}
}

// Name implements solver.Solver.
func (s *Solver) Name() string { return Name }

// Solve evolves a population of station bitstrings for a fixed generation
// budget and returns the best chromosome found, penalty mass included. It
// deliberately re-estimates demand with the legacy pairwise method instead
// of the trip-based vector carried by the problem.
func (s *Solver) Solve(ctx context.Context, p *solver.Problem) (*model.Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	nJ := len(p.Candidates)
	demand := sim.PairwiseDemand(p.Vehicles)

	// EV -> candidate distance matrix via the road oracle
	d := make([][]float64, len(p.Vehicles))
	for i, sv := range p.Vehicles {
		d[i] = make([]float64, nJ)
		for j, c := range p.Candidates {
			d[i][j] = s.oracle.DistanceKm(ctx, sv.Home.Point, c.Point)
		}
	}
	s.ensurePairDistances(p.Candidates)

	fitness := func(ch []bool) float64 {
		return s.fitness(ch, p, demand, d)
	}

	pop := make([][]bool, s.cfg.PopulationSize)
	for i := range pop {
		pop[i] = s.randomChromosome(nJ, p.MaxStations)
	}
	best := cloneChromosome(pop[0])
	bestCost := fitness(best)
	for _, ch := range pop[1:] {
		if c := fitness(ch); c < bestCost {
			best = cloneChromosome(ch)
			bestCost = c
		}
	}

	for gen := 1; gen <= s.cfg.Generations; gen++ {
		newPop := make([][]bool, 0, s.cfg.PopulationSize)
		for len(newPop) < s.cfg.PopulationSize {
			p1 := pop[s.rng.Intn(len(pop))]
			p2 := pop[s.rng.Intn(len(pop))]

			var child []bool
			if nJ >= 3 && s.rng.Float64() < s.cfg.CrossoverProb {
				cut := 1 + s.rng.Intn(nJ-2)
				child = append(cloneChromosome(p1[:cut]), p2[cut:]...)
				s.repair(child, p.MaxStations)
			} else {
				child = cloneChromosome(p1)
			}
			if s.rng.Float64() < s.cfg.MutationProb {
				m := s.rng.Intn(nJ)
				child[m] = !child[m]
				s.repair(child, p.MaxStations)
			}
			newPop = append(newPop, child)
		}

		// elitism: keep the best popSize-1 children plus the incumbent
		sortByFitness(newPop, fitness)
		pop = append(newPop[:s.cfg.PopulationSize-1], best)
		for _, ch := range newPop {
			if c := fitness(ch); c < bestCost {
				best = cloneChromosome(ch)
				bestCost = c
			}
		}

		s.log.Debugf("ga generation %d/%d best=%.2f", gen, s.cfg.Generations, bestCost)
		if s.bus != nil {
			s.bus.Publish(GenerationEvent{
				RunID:      p.RunID,
				Generation: gen,
				Total:      s.cfg.Generations,
				BestCost:   bestCost,
			})
		}
	}

	out := &model.Solution{
		RunID:      p.RunID,
		Method:     Name,
		Objective:  bestCost,
		Assignment: make(map[string]int, len(p.Vehicles)),
	}
	for j, open := range best {
		if open {
			out.Stations = append(out.Stations, model.OpenedStation{
				StationCandidate: p.Candidates[j],
				Type:             p.Candidates[j].Kind.String(),
			})
		}
	}
	for i, sv := range p.Vehicles {
		if j := nearestOpen(best, d[i]); j >= 0 {
			out.Assignment[sv.EVID] = p.Candidates[j].ID
		}
	}
	return out, nil
}

// fitness is the cost to minimize: fixed installation cost plus
// demand-weighted travel to each vehicle's nearest open station plus the
// separation penalties.
func (s *Solver) fitness(ch []bool, p *solver.Problem, demand []float64, d [][]float64) float64 {
	open := openIndices(ch)
	if len(open) == 0 {
		return infeasibleCost
	}

	var travel float64
	for i := range p.Vehicles {
		travel += demand[i] * d[i][nearestOpen(ch, d[i])]
	}
	var fixed float64
	for _, j := range open {
		fixed += p.Candidates[j].Kind.FixedCost()
	}
	var penalty float64
	for a := 0; a < len(open); a++ {
		for b := a + 1; b < len(open); b++ {
			if s.pairDist[open[a]][open[b]] < p.MinSeparationM {
				penalty += separationPenalty
			}
		}
	}
	return fixed + travel + penalty
}

// randomChromosome opens a uniform count of stations in [1, min(maxStations,
// nJ)] at uniformly chosen positions.
func (s *Solver) randomChromosome(nJ, maxStations int) []bool {
	kMax := maxStations
	if nJ < kMax {
		kMax = nJ
	}
	kOpen := 1 + s.rng.Intn(kMax)
	ch := make([]bool, nJ)
	for _, j := range s.rng.Perm(nJ)[:kOpen] {
		ch[j] = true
	}
	return ch
}

// repair closes uniformly chosen open stations until the cardinality cap
// holds. Separation violations are left to the penalty term.
func (s *Solver) repair(ch []bool, maxStations int) {
	open := openIndices(ch)
	for len(open) > maxStations {
		pick := s.rng.Intn(len(open))
		ch[open[pick]] = false
		open = append(open[:pick], open[pick+1:]...)
	}
}

// ensurePairDistances rebuilds the candidate-pair distance cache when the
// candidate set's size changed since the previous solve.
func (s *Solver) ensurePairDistances(candidates []model.StationCandidate) {
	if len(s.pairDist) == len(candidates) {
		return
	}
	s.pairDist = make([][]float64, len(candidates))
	for a := range candidates {
		s.pairDist[a] = make([]float64, len(candidates))
		for b := range candidates {
			s.pairDist[a][b] = geo.Haversine(candidates[a].Point, candidates[b].Point) * 1000
		}
	}
}

// InvalidatePairCache drops the cached candidate-pair distances. Sessions
// call this when the candidate set changes without changing size.
func (s *Solver) InvalidatePairCache() { s.pairDist = nil }

func nearestOpen(ch []bool, dists []float64) int {
	best := -1
	bestD := math.Inf(1)
	for j, open := range ch {
		if open && dists[j] < bestD {
			bestD = dists[j]
			best = j
		}
	}
	return best
}

func openIndices(ch []bool) []int {
	var open []int
	for j, v := range ch {
		if v {
			open = append(open, j)
		}
	}
	return open
}

func cloneChromosome(ch []bool) []bool {
	return append([]bool(nil), ch...)
}

func sortByFitness(pop [][]bool, fitness func([]bool) float64) {
	costs := make([]float64, len(pop))
	for i, ch := range pop {
		costs[i] = fitness(ch)
	}
	for i := 1; i < len(pop); i++ {
		for k := i; k > 0 && costs[k] < costs[k-1]; k-- {
			costs[k], costs[k-1] = costs[k-1], costs[k]
			pop[k], pop[k-1] = pop[k-1], pop[k]
		}
	}
}
