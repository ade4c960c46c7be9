// Package exact solves the station-siting problem to proven optimality with
// a 0-1 mixed-integer formulation: open/close decisions per candidate and
// binary vehicle-to-station assignments under capacity, separation and
// cardinality constraints.
package exact

import (
	"context"
	"errors"

	"github.com/ekinyavuz/evplan/core/logger"
	"github.com/ekinyavuz/evplan/core/model"
	"github.com/ekinyavuz/evplan/core/routing"
	"github.com/ekinyavuz/evplan/core/solver"
	"github.com/ekinyavuz/evplan/core/solver/mip"
)

// Name identifies the exact solver in configuration and solution records.
const Name = "exact"

// Solver is the MIP-based exact solver.
type Solver struct {
	oracle routing.Oracle
	log    logger.Logger
}

// New creates an exact solver on top of the given distance oracle.
func New(oracle routing.Oracle, log logger.Logger) *Solver {
	return &Solver{oracle: oracle, log: log}
}

// Name implements solver.Solver.
func (s *Solver) Name() string { return Name }

// Solve builds and solves the facility-location MIP. Infeasible problems are
// reported as solver.ErrInfeasible; no partial solution is ever returned.
func (s *Solver) Solve(ctx context.Context, p *solver.Problem) (*model.Solution, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	nI := len(p.Vehicles)
	nJ := len(p.Candidates)

	// EV -> candidate distance matrix
	d := make([][]float64, nI)
	for i, sv := range p.Vehicles {
		d[i] = make([]float64, nJ)
		for j, c := range p.Candidates {
			d[i][j] = s.oracle.DistanceKm(ctx, sv.Home.Point, c.Point)
		}
	}
	s.logDistanceMatrix(p, d)

	m := mip.NewModel()
	x := make([]int, nJ) // station j opened
	for j := range x {
		x[j] = m.AddBinary()
		m.SetObjective(x[j], p.Candidates[j].Kind.FixedCost())
	}
	y := make([][]int, nI) // vehicle i assigned to station j
	for i := range y {
		y[i] = make([]int, nJ)
		for j := range y[i] {
			y[i][j] = m.AddBinary()
			m.SetObjective(y[i][j], p.Demand[i]*d[i][j])
		}
	}

	// each vehicle is served by exactly one station, which must be open
	for i := 0; i < nI; i++ {
		row := make(map[int]float64, nJ)
		for j := 0; j < nJ; j++ {
			row[y[i][j]] = 1
			m.AddConstraint(map[int]float64{y[i][j]: 1, x[j]: -1}, mip.LessEq, 0)
		}
		m.AddConstraint(row, mip.Equal, 1)
	}
	// station capacity binds the assigned demand
	for j := 0; j < nJ; j++ {
		row := make(map[int]float64, nI+1)
		for i := 0; i < nI; i++ {
			row[y[i][j]] = p.Demand[i]
		}
		row[x[j]] = -p.CapacityKWh
		m.AddConstraint(row, mip.LessEq, 0)
	}
	// stations closer than the minimum radius are mutually exclusive
	for j := 0; j < nJ; j++ {
		for k := j + 1; k < nJ; k++ {
			distM := s.oracle.DistanceKm(ctx, p.Candidates[j].Point, p.Candidates[k].Point) * 1000
			if distM < p.MinSeparationM {
				m.AddConstraint(map[int]float64{x[j]: 1, x[k]: 1}, mip.LessEq, 1)
			}
		}
	}
	// cardinality cap
	card := make(map[int]float64, nJ)
	for j := 0; j < nJ; j++ {
		card[x[j]] = 1
	}
	m.AddConstraint(card, mip.LessEq, float64(p.MaxStations))

	sol, err := m.Solve()
	if err != nil {
		if errors.Is(err, mip.ErrInfeasible) {
			return nil, solver.ErrInfeasible
		}
		return nil, err
	}

	out := &model.Solution{
		RunID:      p.RunID,
		Method:     Name,
		Objective:  sol.Objective,
		Assignment: make(map[string]int, nI),
	}
	for j, c := range p.Candidates {
		if sol.Values[x[j]] > 0.5 {
			out.Stations = append(out.Stations, model.OpenedStation{
				StationCandidate: c,
				Type:             c.Kind.String(),
			})
		}
	}
	for i, sv := range p.Vehicles {
		for j := 0; j < nJ; j++ {
			if sol.Values[y[i][j]] > 0.5 {
				out.Assignment[sv.EVID] = p.Candidates[j].ID
				break
			}
		}
	}
	return out, nil
}

func (s *Solver) logDistanceMatrix(p *solver.Problem, d [][]float64) {
	fields := make(map[string]any, len(p.Vehicles))
	for i, sv := range p.Vehicles {
		fields[sv.EVID] = d[i]
	}
	s.log.Debugw("od distance matrix (km)", fields)
}
