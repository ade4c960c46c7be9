// Package kpi derives the headline indicators reported for a siting solution.
package kpi

import (
	"context"
	"math"

	"github.com/ekinyavuz/evplan/core/model"
	"github.com/ekinyavuz/evplan/core/routing"
)

const (
	chargersPerSemiRapid = 4
	chargersPerFast      = 2
)

// Summary is the indicator set shown for one solved scenario.
type Summary struct {
	RunID          string  `json:"run_id"`
	Method         string  `json:"method"`
	Stations       int     `json:"stations"`
	SemiRapid      int     `json:"semi_rapid"`
	Fast           int     `json:"fast"`
	Chargers       int     `json:"chargers"`
	EnergyKWh      int     `json:"energy_kwh"`
	TotalCostKEur  float64 `json:"total_cost_keur"`
	VehiclesServed int     `json:"vehicles_served"`
}

// Summarize computes the indicators for a solution. Parking sites count as
// semi-rapid stations and fuel sites as fast stations; home sites carry no
// public chargers. Energy is the demand-rate-weighted road distance from
// every vehicle's home to every opened station, truncated to a whole kWh.
func Summarize(ctx context.Context, oracle routing.Oracle, vehicles []model.SelectedVehicle, sol *model.Solution) Summary {
	s := Summary{
		RunID:          sol.RunID,
		Method:         sol.Method,
		Stations:       len(sol.Stations),
		TotalCostKEur:  sol.Objective,
		VehiclesServed: len(sol.Assignment),
	}
	for _, st := range sol.Stations {
		switch st.Kind {
		case model.POIParking:
			s.SemiRapid++
		case model.POIFuel:
			s.Fast++
		}
	}
	s.Chargers = s.SemiRapid*chargersPerSemiRapid + s.Fast*chargersPerFast

	var energy float64
	for _, sv := range vehicles {
		for _, st := range sol.Stations {
			energy += sv.Profile.ConsumptionKWhKm * oracle.DistanceKm(ctx, sv.Home.Point, st.Point)
		}
	}
	s.EnergyKWh = int(math.Trunc(energy))
	return s
}
