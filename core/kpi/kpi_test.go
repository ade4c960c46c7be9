package kpi

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekinyavuz/evplan/core/geo"
	"github.com/ekinyavuz/evplan/core/model"
	"github.com/ekinyavuz/evplan/core/routing"
)

func TestSummarizeCounts(t *testing.T) {
	sol := &model.Solution{
		RunID:  "r1",
		Method: "exact",
		Stations: []model.OpenedStation{
			{StationCandidate: model.NewStationCandidate(1, geo.Point{Lat: 41, Lon: 29}, model.POIParking)},
			{StationCandidate: model.NewStationCandidate(2, geo.Point{Lat: 41.1, Lon: 29}, model.POIParking)},
			{StationCandidate: model.NewStationCandidate(3, geo.Point{Lat: 41.2, Lon: 29}, model.POIFuel)},
			{StationCandidate: model.NewStationCandidate(4, geo.Point{Lat: 41.3, Lon: 29}, model.POIHome)},
		},
		Objective:  123.45,
		Assignment: map[string]int{"E01": 1, "E02": 3},
	}

	s := Summarize(context.Background(), routing.GreatCircle{}, nil, sol)
	assert.Equal(t, "r1", s.RunID)
	assert.Equal(t, "exact", s.Method)
	assert.Equal(t, 4, s.Stations)
	assert.Equal(t, 2, s.SemiRapid)
	assert.Equal(t, 1, s.Fast)
	assert.Equal(t, 2*4+1*2, s.Chargers)
	assert.Equal(t, 0, s.EnergyKWh)
	assert.Equal(t, 123.45, s.TotalCostKEur)
	assert.Equal(t, 2, s.VehiclesServed)
}

func TestSummarizeEnergy(t *testing.T) {
	home := geo.Point{Lat: 41.0, Lon: 29.0}
	st1 := geo.Point{Lat: 41.1, Lon: 29.0}
	st2 := geo.Point{Lat: 41.2, Lon: 29.0}
	vehicles := []model.SelectedVehicle{
		{EVID: "E01", Home: model.HomePoint{ID: 1, Point: home}, Profile: model.Profile(model.KindTesla)},
	}
	sol := &model.Solution{
		Stations: []model.OpenedStation{
			{StationCandidate: model.NewStationCandidate(1, st1, model.POIParking)},
			{StationCandidate: model.NewStationCandidate(2, st2, model.POIFuel)},
		},
	}

	rate := model.Profile(model.KindTesla).ConsumptionKWhKm
	want := rate*geo.Haversine(home, st1) + rate*geo.Haversine(home, st2)
	s := Summarize(context.Background(), routing.GreatCircle{}, vehicles, sol)
	assert.Equal(t, int(math.Trunc(want)), s.EnergyKWh)
}
