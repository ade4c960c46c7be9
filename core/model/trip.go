package model

import (
	"fmt"

	"github.com/ekinyavuz/evplan/core/geo"
)

// SelectedVehicle associates one home with one vehicle profile for the
// duration of a simulation run.
type SelectedVehicle struct {
	EVID    string         `json:"ev_id"`
	Home    HomePoint      `json:"home"`
	Profile VehicleProfile `json:"profile"`
}

// EVID formats the conventional identifier of the i-th selected vehicle
// (zero-based), e.g. "E01".
func EVID(i int) string { return fmt.Sprintf("E%02d", i+1) }

// TripRecord is one immutable entry of the daily trip log.
type TripRecord struct {
	Seq         int       `json:"seq"`     // chronological order across the whole day
	TripNo      int       `json:"trip_no"` // per-EV counter starting at 1
	EVID        string    `json:"ev_id"`
	Origin      geo.Point `json:"origin"`
	Dest        geo.Point `json:"dest"`
	OriginLabel string    `json:"origin_lbl"`
	DestLabel   string    `json:"dest_lbl"`
	DistanceKm  float64   `json:"dist_km"`
	ConsKWh     float64   `json:"cons_kwh"`
	RemSOC      float64   `json:"rem_soc"`
	Diverted    bool      `json:"diverted"`
	ChargerTag  string    `json:"charger_id,omitempty"`
}
