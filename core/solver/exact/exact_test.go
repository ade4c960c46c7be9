package exact

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ekinyavuz/evplan/core/geo"
	"github.com/ekinyavuz/evplan/core/model"
	"github.com/ekinyavuz/evplan/core/routing"
	"github.com/ekinyavuz/evplan/core/solver"
	"github.com/ekinyavuz/evplan/infra/logger"
)

// scenarioProblem builds the reference scenario: 10 homes along a line, 5
// selected vehicles, 4 candidates (2 Home at 1 k€, 1 Parking at 12 k€,
// 1 Fuel at 50 k€), fixed demand.
func scenarioProblem() *solver.Problem {
	homes := make([]model.HomePoint, 10)
	for i := range homes {
		homes[i] = model.HomePoint{
			ID:    i + 1,
			Point: geo.Point{Lat: 41.0 + float64(i)*0.01, Lon: 29.0},
		}
	}
	vehicles := make([]model.SelectedVehicle, 5)
	demand := make([]float64, 5)
	for i := range vehicles {
		vehicles[i] = model.SelectedVehicle{
			EVID:    model.EVID(i),
			Home:    homes[i*2],
			Profile: model.Profile(model.KindRenault),
		}
		demand[i] = 10 + float64(i)
	}
	candidates := []model.StationCandidate{
		model.NewStationCandidate(1, geo.Point{Lat: 41.005, Lon: 29.001}, model.POIHome),
		model.NewStationCandidate(2, geo.Point{Lat: 41.065, Lon: 29.001}, model.POIHome),
		model.NewStationCandidate(3, geo.Point{Lat: 41.035, Lon: 29.002}, model.POIParking),
		model.NewStationCandidate(4, geo.Point{Lat: 41.09, Lon: 29.002}, model.POIFuel),
	}
	return &solver.Problem{
		RunID:          "test-run",
		Vehicles:       vehicles,
		Demand:         demand,
		Candidates:     candidates,
		CapacityKWh:    1e6,
		MinSeparationM: 0,
		MaxStations:    2,
	}
}

// bruteForce enumerates every open set of size <= maxStations with greedy
// nearest assignment under unbounded capacity, which matches the MIP optimum
// in that regime.
func bruteForce(p *solver.Problem) (float64, []int) {
	nJ := len(p.Candidates)
	best := math.Inf(1)
	var bestSet []int
	for mask := 1; mask < 1<<nJ; mask++ {
		var open []int
		for j := 0; j < nJ; j++ {
			if mask&(1<<j) != 0 {
				open = append(open, j)
			}
		}
		if len(open) > p.MaxStations {
			continue
		}
		cost := 0.0
		for _, j := range open {
			cost += p.Candidates[j].Kind.FixedCost()
		}
		for i, sv := range p.Vehicles {
			minD := math.Inf(1)
			for _, j := range open {
				if d := geo.Haversine(sv.Home.Point, p.Candidates[j].Point); d < minD {
					minD = d
				}
			}
			cost += p.Demand[i] * minD
		}
		if cost < best {
			best = cost
			bestSet = open
		}
	}
	return best, bestSet
}

func newSolver() *Solver {
	return New(routing.GreatCircle{}, logger.NopLogger{})
}

func TestSolveMatchesBruteForce(t *testing.T) {
	p := scenarioProblem()
	sol, err := newSolver().Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	wantObj, wantSet := bruteForce(p)
	if math.Abs(sol.Objective-wantObj) > 1e-6 {
		t.Fatalf("objective %v, brute force says %v (set %v)", sol.Objective, wantObj, wantSet)
	}
	if len(sol.Stations) != 2 {
		t.Fatalf("expected exactly 2 opened stations, got %d", len(sol.Stations))
	}
	opened := map[int]bool{}
	for _, st := range sol.Stations {
		opened[st.ID] = true
		if st.Type != st.Kind.String() {
			t.Fatalf("station type must mirror the POI kind, got %+v", st)
		}
	}
	for _, j := range wantSet {
		if !opened[p.Candidates[j].ID] {
			t.Fatalf("brute-force optimum opens %d, solver opened %v", p.Candidates[j].ID, opened)
		}
	}
}

func TestAssignmentFeasibility(t *testing.T) {
	p := scenarioProblem()
	p.CapacityKWh = 30 // binds: each station serves at most two vehicles
	sol, err := newSolver().Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}

	load := map[int]float64{}
	for i, sv := range p.Vehicles {
		id, ok := sol.Assignment[sv.EVID]
		if !ok {
			t.Fatalf("%s has no assignment", sv.EVID)
		}
		if !sol.Opened(id) {
			t.Fatalf("%s assigned to closed station %d", sv.EVID, id)
		}
		load[id] += p.Demand[i]
	}
	for id, l := range load {
		if l > p.CapacityKWh+1e-6 {
			t.Fatalf("station %d overloaded: %v > %v", id, l, p.CapacityKWh)
		}
	}
}

func TestInfeasibleCapacity(t *testing.T) {
	p := scenarioProblem()
	p.CapacityKWh = 5 // total demand 60 cannot fit on two stations of 5
	_, err := newSolver().Solve(context.Background(), p)
	if !errors.Is(err, solver.ErrInfeasible) {
		t.Fatalf("expected ErrInfeasible got %v", err)
	}
}

func TestSeparationConstraint(t *testing.T) {
	p := scenarioProblem()
	// candidates 1 and 3 are ~3.3 km apart; force all pairs below 10 km to
	// be exclusive so at most one distant pair can open
	p.MinSeparationM = 4000
	sol, err := newSolver().Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	for a := 0; a < len(sol.Stations); a++ {
		for b := a + 1; b < len(sol.Stations); b++ {
			dM := geo.Haversine(sol.Stations[a].Point, sol.Stations[b].Point) * 1000
			if dM < p.MinSeparationM {
				t.Fatalf("stations %d and %d are %.0f m apart, below %v",
					sol.Stations[a].ID, sol.Stations[b].ID, dM, p.MinSeparationM)
			}
		}
	}
}

func TestCardinalityCap(t *testing.T) {
	p := scenarioProblem()
	p.MaxStations = 1
	sol, err := newSolver().Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if len(sol.Stations) > 1 {
		t.Fatalf("cardinality cap violated: %d stations", len(sol.Stations))
	}
}

func TestValidation(t *testing.T) {
	s := newSolver()
	p := scenarioProblem()
	p.Vehicles = nil
	p.Demand = nil
	if _, err := s.Solve(context.Background(), p); !errors.Is(err, solver.ErrNoVehicles) {
		t.Fatalf("expected ErrNoVehicles got %v", err)
	}
	p = scenarioProblem()
	p.Candidates = nil
	if _, err := s.Solve(context.Background(), p); !errors.Is(err, solver.ErrNoCandidates) {
		t.Fatalf("expected ErrNoCandidates got %v", err)
	}
}
