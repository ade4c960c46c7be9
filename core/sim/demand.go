package sim

import (
	"github.com/ekinyavuz/evplan/core/geo"
	"github.com/ekinyavuz/evplan/core/model"
)

// PairwiseDemand is the legacy demand estimate kept for the heuristic
// solver: each vehicle is assumed to drive from its own home to every other
// selected vehicle's home, so its demand is the sum of those great-circle
// distances times its consumption rate. The exact solver uses the trip-based
// demand from GenerateDailyTrips instead; the two are intentionally not
// reconciled.
func PairwiseDemand(selected []model.SelectedVehicle) []float64 {
	d := make([]float64, len(selected))
	for i, vi := range selected {
		var total float64
		for j, vj := range selected {
			if i == j {
				continue
			}
			total += geo.Haversine(vi.Home.Point, vj.Home.Point) * vi.Profile.ConsumptionKWhKm
		}
		d[i] = round2(total)
	}
	return d
}
