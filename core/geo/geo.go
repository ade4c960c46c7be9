// Package geo provides the coordinate primitives shared by the simulator and
// the solvers. All distances are great-circle kilometers on WGS-84.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Equal reports whether two points coincide within tol degrees on both axes.
func (p Point) Equal(q Point, tol float64) bool {
	return math.Abs(p.Lat-q.Lat) < tol && math.Abs(p.Lon-q.Lon) < tol
}

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Point) float64 {
	phi1 := degToRad(a.Lat)
	phi2 := degToRad(b.Lat)
	dPhi := degToRad(b.Lat - a.Lat)
	dLambda := degToRad(b.Lon - a.Lon)

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda
	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// PairKey identifies an unordered pair of points. A and B are stored in a
// canonical order so (p,q) and (q,p) map to the same key.
type PairKey struct {
	A, B Point
}

// Pair returns the canonical key for the segment between p and q.
func Pair(p, q Point) PairKey {
	if less(q, p) {
		p, q = q, p
	}
	return PairKey{A: p, B: q}
}

func less(p, q Point) bool {
	if p.Lat != q.Lat {
		return p.Lat < q.Lat
	}
	return p.Lon < q.Lon
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }
