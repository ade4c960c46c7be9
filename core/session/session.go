// Package session holds the mutable state of one planning scenario: the home
// and candidate sets, the cached vehicle selection, the latest simulation
// outputs and the latest solution.
package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/ekinyavuz/evplan/core/geo"
	"github.com/ekinyavuz/evplan/core/logger"
	"github.com/ekinyavuz/evplan/core/model"
	"github.com/ekinyavuz/evplan/core/sim"
	"github.com/ekinyavuz/evplan/core/solver"
)

var (
	// ErrSolveInFlight is returned when a solve is requested while another
	// one is still running. Requests are rejected, not queued.
	ErrSolveInFlight = errors.New("session: solve already in flight")
	// ErrMaxCandidates rejects candidate registration past the station cap.
	ErrMaxCandidates = errors.New("session: maximum candidate count reached")
	// ErrTooClose rejects a candidate inside the separation radius of an
	// existing one.
	ErrTooClose = errors.New("session: candidate too close to an existing one")
	// ErrNoSelection is returned when simulation runs before selection.
	ErrNoSelection = errors.New("session: no vehicle selection, call EnsureSelection first")
)

// PairCacheInvalidator is implemented by solvers that memoize candidate-pair
// distances across solves.
type PairCacheInvalidator interface {
	InvalidatePairCache()
}

// Session is safe for concurrent use. Solve admits one caller at a time.
type Session struct {
	mu         sync.Mutex
	homes      []model.HomePoint
	candidates []model.StationCandidate
	nextCandID int
	candsDirty bool

	selSeed     int64
	selRate     float64
	selection   []model.SelectedVehicle
	lastDay     *sim.DayResult
	lastEdges   map[geo.PairKey]int
	lastSol     *model.Solution
	solveActive bool

	maxStations    int
	minSeparationM float64
	simulator      *sim.Simulator
	log            logger.Logger
}

// New creates an empty session. maxStations and minSeparationM bound
// candidate registration and are carried into every solve.
func New(simulator *sim.Simulator, maxStations int, minSeparationM float64, log logger.Logger) *Session {
	return &Session{
		simulator:      simulator,
		nextCandID:     1,
		maxStations:    maxStations,
		minSeparationM: minSeparationM,
		log:            log,
	}
}

// SetHomes replaces the home set and drops all state derived from it.
func (s *Session) SetHomes(homes []model.HomePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.homes = append([]model.HomePoint(nil), homes...)
	s.selection = nil
	s.lastDay = nil
	s.lastEdges = nil
	s.lastSol = nil
}

// AddCandidate registers a new candidate station, rejecting it when the
// station cap is reached or when it falls inside the separation radius of an
// existing candidate.
func (s *Session) AddCandidate(p geo.Point, kind model.POIKind) (model.StationCandidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.candidates) >= s.maxStations {
		return model.StationCandidate{}, ErrMaxCandidates
	}
	for _, c := range s.candidates {
		if geo.Haversine(c.Point, p)*1000 < s.minSeparationM {
			return model.StationCandidate{}, fmt.Errorf("%w: %s at %.1fm", ErrTooClose, c.Tag, geo.Haversine(c.Point, p)*1000)
		}
	}
	cand := model.NewStationCandidate(s.nextCandID, p, kind)
	s.nextCandID++
	s.candidates = append(s.candidates, cand)
	s.candsDirty = true
	s.lastSol = nil
	return cand, nil
}

// SetCandidates replaces the candidate set wholesale, bypassing the
// per-candidate registration checks. Used for file ingestion.
func (s *Session) SetCandidates(candidates []model.StationCandidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidates = append([]model.StationCandidate(nil), candidates...)
	s.nextCandID = len(candidates) + 1
	s.candsDirty = true
	s.lastSol = nil
}

// Homes returns a copy of the home set.
func (s *Session) Homes() []model.HomePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.HomePoint(nil), s.homes...)
}

// Candidates returns a copy of the candidate set.
func (s *Session) Candidates() []model.StationCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.StationCandidate(nil), s.candidates...)
}

// EnsureSelection returns the vehicle selection for the given penetration
// rate and seed, drawing it once and reusing it on every later call with the
// same parameters. A changed rate or seed redraws and drops the cached
// simulation outputs.
func (s *Session) EnsureSelection(rate float64, seed int64) ([]model.SelectedVehicle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection != nil && s.selRate == rate && s.selSeed == seed {
		return s.selection, nil
	}
	rng := rand.New(rand.NewSource(seed))
	sel, err := s.simulator.Select(s.homes, rate, rng)
	if err != nil {
		return nil, err
	}
	s.selection = sel
	s.selRate = rate
	s.selSeed = seed
	s.lastDay = nil
	s.lastEdges = nil
	s.lastSol = nil
	s.log.Infof("selected %d vehicles at %.1f%% penetration (seed %d)", len(sel), rate, seed)
	return sel, nil
}

// Selection returns the cached vehicle selection, or nil before
// EnsureSelection has run.
func (s *Session) Selection() []model.SelectedVehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selection
}

// Simulate runs one daily-trip simulation over the cached selection. The rng
// must be distinct from the selection rng so that redrawing trips does not
// disturb the selection.
func (s *Session) Simulate(ctx context.Context, rng *rand.Rand) (*sim.DayResult, error) {
	s.mu.Lock()
	homes := s.homes
	candidates := s.candidates
	selection := s.selection
	s.mu.Unlock()
	if selection == nil {
		return nil, ErrNoSelection
	}

	day, err := s.simulator.GenerateDailyTrips(ctx, homes, candidates, selection, rng)
	if err != nil {
		return nil, err
	}
	edges := s.simulator.EdgeUsage(ctx, day.Trips)
	s.mu.Lock()
	s.lastDay = day
	s.lastEdges = edges
	s.mu.Unlock()
	return day, nil
}

// LastDay returns the most recent simulation result, or nil.
func (s *Session) LastDay() *sim.DayResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDay
}

// LastEdges returns the per-edge trip counts of the most recent simulation,
// keyed by unordered coordinate pair, or nil before Simulate has run.
func (s *Session) LastEdges() map[geo.PairKey]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastEdges
}

// Solve runs the given solver over the session state. A second concurrent
// call fails with ErrSolveInFlight. A simulation must have run first so the
// demand vector exists.
func (s *Session) Solve(ctx context.Context, runID string, sv solver.Solver, capacityKWh float64) (*model.Solution, error) {
	s.mu.Lock()
	if s.solveActive {
		s.mu.Unlock()
		return nil, ErrSolveInFlight
	}
	if s.selection == nil || s.lastDay == nil {
		s.mu.Unlock()
		return nil, ErrNoSelection
	}
	s.solveActive = true
	dirty := s.candsDirty
	s.candsDirty = false
	p := &solver.Problem{
		RunID:          runID,
		Vehicles:       s.selection,
		Demand:         append([]float64(nil), s.lastDay.Demand...),
		Candidates:     append([]model.StationCandidate(nil), s.candidates...),
		CapacityKWh:    capacityKWh,
		MinSeparationM: s.minSeparationM,
		MaxStations:    s.maxStations,
	}
	s.mu.Unlock()

	if inv, ok := sv.(PairCacheInvalidator); ok && dirty {
		inv.InvalidatePairCache()
	}
	sol, err := sv.Solve(ctx, p)

	s.mu.Lock()
	s.solveActive = false
	if err == nil {
		s.lastSol = sol
	}
	s.mu.Unlock()
	return sol, err
}

// LastSolution returns the most recent successful solve result, or nil.
func (s *Session) LastSolution() *model.Solution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSol
}
