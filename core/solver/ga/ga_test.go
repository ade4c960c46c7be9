package ga

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekinyavuz/evplan/core/geo"
	"github.com/ekinyavuz/evplan/core/model"
	"github.com/ekinyavuz/evplan/core/routing"
	"github.com/ekinyavuz/evplan/core/solver"
	"github.com/ekinyavuz/evplan/infra/logger"
	"github.com/ekinyavuz/evplan/internal/eventbus"
)

func testProblem(t *testing.T) *solver.Problem {
	t.Helper()
	homes := []model.HomePoint{
		{ID: 1, Point: geo.Point{Lat: 41.00, Lon: 28.90}},
		{ID: 2, Point: geo.Point{Lat: 41.02, Lon: 28.92}},
		{ID: 3, Point: geo.Point{Lat: 41.04, Lon: 28.94}},
		{ID: 4, Point: geo.Point{Lat: 41.06, Lon: 28.96}},
	}
	vehicles := make([]model.SelectedVehicle, len(homes))
	for i, h := range homes {
		vehicles[i] = model.SelectedVehicle{
			EVID:    model.EVID(i),
			Home:    h,
			Profile: model.Profile(model.KindRenault),
		}
	}
	candidates := []model.StationCandidate{
		model.NewStationCandidate(1, geo.Point{Lat: 41.005, Lon: 28.905}, model.POIParking),
		model.NewStationCandidate(2, geo.Point{Lat: 41.030, Lon: 28.930}, model.POIFuel),
		model.NewStationCandidate(3, geo.Point{Lat: 41.055, Lon: 28.955}, model.POIParking),
		model.NewStationCandidate(4, geo.Point{Lat: 41.056, Lon: 28.956}, model.POIHome),
	}
	return &solver.Problem{
		RunID:       "test-run",
		Vehicles:    vehicles,
		Demand:      make([]float64, len(vehicles)),
		Candidates:  candidates,
		CapacityKWh: 1e6,
		MaxStations: 2,
	}
}

func newSolver(seed int64, bus eventbus.EventBus) *Solver {
	return New(Config{}, routing.GreatCircle{}, rand.New(rand.NewSource(seed)), logger.NopLogger{}, bus)
}

func TestSolveRespectsCardinality(t *testing.T) {
	p := testProblem(t)
	sol, err := newSolver(1, nil).Solve(context.Background(), p)
	require.NoError(t, err)
	require.NotEmpty(t, sol.Stations)
	assert.LessOrEqual(t, len(sol.Stations), p.MaxStations)
	assert.Equal(t, Name, sol.Method)
	assert.Equal(t, p.RunID, sol.RunID)
}

func TestSolveDeterministicForSeed(t *testing.T) {
	a, err := newSolver(42, nil).Solve(context.Background(), testProblem(t))
	require.NoError(t, err)
	b, err := newSolver(42, nil).Solve(context.Background(), testProblem(t))
	require.NoError(t, err)
	assert.Equal(t, a.Objective, b.Objective)
	assert.Equal(t, a.Stations, b.Stations)
	assert.Equal(t, a.Assignment, b.Assignment)
}

func TestBestCostNeverIncreases(t *testing.T) {
	bus := eventbus.New()
	gens, _ := eventbus.Watch[GenerationEvent](bus, 32)

	s := newSolver(7, bus)
	_, err := s.Solve(context.Background(), testProblem(t))
	require.NoError(t, err)
	bus.Close()

	var costs []float64
	for ge := range gens {
		costs = append(costs, ge.BestCost)
	}
	require.Len(t, costs, s.cfg.Generations)
	for i := 1; i < len(costs); i++ {
		assert.LessOrEqual(t, costs[i], costs[i-1], "generation %d", i)
	}
}

func TestSeparationPenaltyAvoidsClosePair(t *testing.T) {
	p := testProblem(t)
	// candidates 3 and 4 are ~140m apart; forbid pairs closer than 1km
	p.MinSeparationM = 1000
	sol, err := newSolver(3, nil).Solve(context.Background(), p)
	require.NoError(t, err)

	opened := func(id int) bool {
		for _, st := range sol.Stations {
			if st.ID == id {
				return true
			}
		}
		return false
	}
	assert.False(t, opened(3) && opened(4), "penalized pair should not both open")
	assert.Less(t, sol.Objective, separationPenalty)
}

func TestFitnessSentinelWhenNothingOpen(t *testing.T) {
	p := testProblem(t)
	s := newSolver(1, nil)
	s.ensurePairDistances(p.Candidates)
	demand := make([]float64, len(p.Vehicles))
	d := make([][]float64, len(p.Vehicles))
	for i := range d {
		d[i] = make([]float64, len(p.Candidates))
	}
	got := s.fitness(make([]bool, len(p.Candidates)), p, demand, d)
	assert.Equal(t, infeasibleCost, got)
}

func TestAssignmentIsNearestOpen(t *testing.T) {
	p := testProblem(t)
	sol, err := newSolver(9, nil).Solve(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, sol.Assignment, len(p.Vehicles))

	oracle := routing.GreatCircle{}
	for i, sv := range p.Vehicles {
		wantID, wantD := 0, 1e18
		for _, st := range sol.Stations {
			if dd := oracle.DistanceKm(context.Background(), sv.Home.Point, st.Point); dd < wantD {
				wantD, wantID = dd, st.ID
			}
		}
		assert.Equal(t, wantID, sol.Assignment[sv.EVID], "vehicle %d", i)
	}
}

func TestRepairEnforcesCap(t *testing.T) {
	s := newSolver(5, nil)
	ch := []bool{true, true, true, true, true}
	s.repair(ch, 2)
	n := 0
	for _, v := range ch {
		if v {
			n++
		}
	}
	assert.Equal(t, 2, n)
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, 20, c.PopulationSize)
	assert.Equal(t, 15, c.Generations)
	assert.Equal(t, 0.9, c.CrossoverProb)
	assert.Equal(t, 0.1, c.MutationProb)
}
