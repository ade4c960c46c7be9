// Package solver defines the facility-location problem and the contract both
// solvers implement.
package solver

import (
	"context"
	"errors"

	"github.com/ekinyavuz/evplan/core/model"
)

var (
	// ErrInfeasible is returned by the exact solver when no station
	// configuration satisfies all constraints.
	ErrInfeasible = errors.New("solver: problem is infeasible")
	// ErrNoVehicles is returned when the problem carries no selected vehicles.
	ErrNoVehicles = errors.New("solver: no selected vehicles")
	// ErrNoCandidates is returned when the problem carries no candidates.
	ErrNoCandidates = errors.New("solver: no station candidates")
)

// Problem bundles everything a solve needs. It is treated as immutable input.
type Problem struct {
	RunID      string
	Vehicles   []model.SelectedVehicle
	Demand     []float64 // trip-based daily demand, index-aligned with Vehicles
	Candidates []model.StationCandidate

	CapacityKWh    float64 // per-station daily capacity, uniform
	MinSeparationM float64 // minimum distance between opened stations, meters
	MaxStations    int     // cardinality cap on opened stations
}

// Validate checks the preconditions shared by both solvers.
func (p *Problem) Validate() error {
	if len(p.Vehicles) == 0 {
		return ErrNoVehicles
	}
	if len(p.Candidates) == 0 {
		return ErrNoCandidates
	}
	if len(p.Demand) != len(p.Vehicles) {
		return errors.New("solver: demand vector does not match vehicle count")
	}
	return nil
}

// Solver chooses which candidate stations to open for a problem. A solve
// runs to completion or failure; there is no cancellation of the computation
// itself beyond the context deadline honored by oracle calls.
type Solver interface {
	Name() string
	Solve(ctx context.Context, p *Problem) (*model.Solution, error)
}
