// Package routing defines the distance oracle consumed by the simulator and
// the solvers. The road-aware implementation lives in infra/routing; this
// package only carries the contract and the deterministic fallback.
package routing

import (
	"context"

	"github.com/ekinyavuz/evplan/core/geo"
)

// Oracle resolves point-to-point travel distance and route geometry.
// Implementations never return an error: any road-service failure degrades
// silently to the great-circle estimate. Calls honor the context deadline.
type Oracle interface {
	// DistanceKm returns the travel distance between a and b in kilometers.
	DistanceKm(ctx context.Context, a, b geo.Point) float64
	// Route returns a simplified path geometry from a to b. The fallback is
	// the two-point straight line.
	Route(ctx context.Context, a, b geo.Point) []geo.Point
}

// GreatCircle is the deterministic, side-effect-free oracle used when no
// road-routing service is configured, and as the fallback path of the OSRM
// client.
type GreatCircle struct{}

func (GreatCircle) DistanceKm(_ context.Context, a, b geo.Point) float64 {
	return geo.Haversine(a, b)
}

func (GreatCircle) Route(_ context.Context, a, b geo.Point) []geo.Point {
	return []geo.Point{a, b}
}
