package model

import (
	"fmt"

	"github.com/ekinyavuz/evplan/core/geo"
)

// POIKind categorizes a station candidate site. Each kind carries a fixed
// installation cost in k€.
type POIKind int

const (
	POIHome POIKind = iota
	POIParking
	POIFuel
)

// String returns the display name of the kind.
func (k POIKind) String() string {
	switch k {
	case POIHome:
		return "Home"
	case POIParking:
		return "Parking"
	case POIFuel:
		return "Fuel"
	default:
		return "Unknown"
	}
}

// FixedCost returns the one-time installation cost of the kind in k€.
func (k POIKind) FixedCost() float64 {
	switch k {
	case POIHome:
		return 1
	case POIParking:
		return 12
	case POIFuel:
		return 50
	default:
		return 0
	}
}

// ParsePOIKind converts a display name back into a kind.
func ParsePOIKind(s string) (POIKind, error) {
	switch s {
	case "Home":
		return POIHome, nil
	case "Parking":
		return POIParking, nil
	case "Fuel":
		return POIFuel, nil
	default:
		return 0, fmt.Errorf("unknown poi kind %q", s)
	}
}

// HomePoint is a residence that can host a simulated vehicle. IDs are
// sequential from 1 and never change after ingestion.
type HomePoint struct {
	ID int `json:"id"`
	geo.Point
}

// Label returns the display label of the home, e.g. "H04".
func (h HomePoint) Label() string { return fmt.Sprintf("H%02d", h.ID) }

// StationCandidate is a site where a charging station may be opened.
type StationCandidate struct {
	ID  int    `json:"id"`
	Tag string `json:"tag"`
	geo.Point
	Kind POIKind `json:"kind"`
}

// NewStationCandidate builds a candidate with the conventional tag derived
// from its sequence number and kind, e.g. "S01-Parking".
func NewStationCandidate(id int, pt geo.Point, kind POIKind) StationCandidate {
	return StationCandidate{
		ID:    id,
		Tag:   fmt.Sprintf("S%02d-%s", id, kind),
		Point: pt,
		Kind:  kind,
	}
}
