// Package sim implements the stochastic daily-trip generator. Given a home
// set, a candidate set and an explicitly seeded random source, it selects the
// participating vehicles, synthesizes one day of trips per vehicle with SOC
// tracking and low-charge diversion, and produces the per-vehicle energy
// demand consumed by the solvers.
package sim

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"github.com/ekinyavuz/evplan/core/geo"
	"github.com/ekinyavuz/evplan/core/logger"
	"github.com/ekinyavuz/evplan/core/model"
	"github.com/ekinyavuz/evplan/core/routing"
)

const (
	// MinSOCKWh is the state-of-charge threshold below which a vehicle
	// diverts to the nearest candidate charger.
	MinSOCKWh = 30.0

	// TripsPerEVMin and TripsPerEVMax bound the daily trip count (inclusive).
	TripsPerEVMin = 1
	TripsPerEVMax = 5

	// coordTol is the coordinate tolerance used when labeling trip endpoints.
	coordTol = 1e-6
)

var (
	// ErrNoHomes is returned when simulation is attempted without home points.
	ErrNoHomes = errors.New("sim: no home points loaded")
	// ErrNoCandidates is returned when simulation is attempted without any
	// station candidate, which would leave a diversion unresolvable.
	ErrNoCandidates = errors.New("sim: no station candidates registered")
)

// DayResult is the output of one simulated day.
type DayResult struct {
	Trips      []model.TripRecord
	Demand     []float64 // per selected vehicle, index-aligned, kWh
	Diversions int
}

// TotalDemandKWh sums the demand vector.
func (d *DayResult) TotalDemandKWh() float64 {
	var t float64
	for _, v := range d.Demand {
		t += v
	}
	return t
}

// Simulator generates vehicle selections and daily trip logs. It is not safe
// for concurrent use: the rng is owned by the caller's session.
type Simulator struct {
	oracle routing.Oracle
	log    logger.Logger
}

// New creates a Simulator on top of the given distance oracle.
func New(oracle routing.Oracle, log logger.Logger) *Simulator {
	return &Simulator{oracle: oracle, log: log}
}

// Select samples penetration-rate percent of the homes without replacement
// and pairs each with a uniformly chosen vehicle profile. At least one home
// is always selected when the home set is not empty.
func (s *Simulator) Select(homes []model.HomePoint, rate float64, rng *rand.Rand) ([]model.SelectedVehicle, error) {
	if len(homes) == 0 {
		return nil, ErrNoHomes
	}
	k := int(float64(len(homes)) * rate / 100)
	if k < 1 {
		k = 1
	}
	kinds := model.VehicleKinds()
	perm := rng.Perm(len(homes))
	selected := make([]model.SelectedVehicle, 0, k)
	for i := 0; i < k; i++ {
		kind := kinds[rng.Intn(len(kinds))]
		selected = append(selected, model.SelectedVehicle{
			EVID:    model.EVID(i),
			Home:    homes[perm[i]],
			Profile: model.Profile(kind),
		})
	}
	return selected, nil
}

// GenerateDailyTrips synthesizes one day of travel for every selected
// vehicle. Each vehicle starts at its home with a full battery and makes
// 1-5 trips to uniformly chosen distinct destinations; when SOC drops below
// MinSOCKWh the vehicle diverts to the candidate nearest its trip origin and
// recharges to full.
func (s *Simulator) GenerateDailyTrips(ctx context.Context, homes []model.HomePoint,
	candidates []model.StationCandidate, selected []model.SelectedVehicle, rng *rand.Rand) (*DayResult, error) {
	if len(homes) == 0 {
		return nil, ErrNoHomes
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	res := &DayResult{Demand: make([]float64, len(selected))}
	globalSeq := 0

	for i, sv := range selected {
		soc := sv.Profile.BatteryKWh
		origin := sv.Home.Point

		nTrips := TripsPerEVMin + rng.Intn(TripsPerEVMax-TripsPerEVMin+1)
		for tripNo := 1; tripNo <= nTrips; tripNo++ {
			// resample until the destination differs from the current origin
			var dest geo.Point
			for {
				dest = homes[rng.Intn(len(homes))].Point
				if dest != origin {
					break
				}
			}

			distKm := s.oracle.DistanceKm(ctx, origin, dest)
			consKWh := round2(distKm * sv.Profile.ConsumptionKWhKm)
			soc -= consKWh

			diverted := false
			chargerTag := ""
			if soc < MinSOCKWh {
				diverted = true
				res.Diversions++
				nearest := s.nearestCandidate(ctx, origin, candidates)
				chargerTag = nearest.Tag
				extraKm := s.oracle.DistanceKm(ctx, origin, nearest.Point)
				soc -= round2(extraKm * sv.Profile.ConsumptionKWhKm)
				soc = sv.Profile.BatteryKWh // charged
			}

			globalSeq++
			res.Trips = append(res.Trips, model.TripRecord{
				Seq:         globalSeq,
				TripNo:      tripNo,
				EVID:        sv.EVID,
				Origin:      origin,
				Dest:        dest,
				OriginLabel: label(origin, homes, candidates),
				DestLabel:   label(dest, homes, candidates),
				DistanceKm:  round2(distKm),
				ConsKWh:     consKWh,
				RemSOC:      round2(soc),
				Diverted:    diverted,
				ChargerTag:  chargerTag,
			})
			res.Demand[i] += consKWh

			origin = dest
		}
	}

	s.log.Debugw("daily trips generated", map[string]any{
		"vehicles":   len(selected),
		"trips":      len(res.Trips),
		"diversions": res.Diversions,
		"demand_kwh": res.TotalDemandKWh(),
	})
	return res, nil
}

// EdgeUsage resolves each trip's realized path and counts how many trips
// traverse every consecutive coordinate pair, keyed without direction. The
// counts feed the load visualization, not the solvers.
func (s *Simulator) EdgeUsage(ctx context.Context, trips []model.TripRecord) map[geo.PairKey]int {
	freq := make(map[geo.PairKey]int)
	for _, rec := range trips {
		path := s.oracle.Route(ctx, rec.Origin, rec.Dest)
		for i := 1; i < len(path); i++ {
			freq[geo.Pair(path[i-1], path[i])]++
		}
	}
	return freq
}

func (s *Simulator) nearestCandidate(ctx context.Context, from geo.Point,
	candidates []model.StationCandidate) model.StationCandidate {
	best := candidates[0]
	bestDist := math.Inf(1)
	for _, c := range candidates {
		if d := s.oracle.DistanceKm(ctx, from, c.Point); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func label(pt geo.Point, homes []model.HomePoint, candidates []model.StationCandidate) string {
	for _, h := range homes {
		if h.Point.Equal(pt, coordTol) {
			return h.Label()
		}
	}
	for _, c := range candidates {
		if c.Point.Equal(pt, coordTol) {
			return c.Tag
		}
	}
	return ""
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
