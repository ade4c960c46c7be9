package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekinyavuz/evplan/core/geo"
	"github.com/ekinyavuz/evplan/core/kpi"
	"github.com/ekinyavuz/evplan/core/model"
)

func sampleSolution() *model.Solution {
	return &model.Solution{
		RunID:  "r1",
		Method: "exact",
		Stations: []model.OpenedStation{
			{StationCandidate: model.NewStationCandidate(1, geo.Point{Lat: 41.0, Lon: 29.0}, model.POIParking), Type: "Parking"},
			{StationCandidate: model.NewStationCandidate(2, geo.Point{Lat: 41.1, Lon: 29.1}, model.POIFuel), Type: "Fuel"},
		},
		Objective:  72.5,
		Assignment: map[string]int{"E02": 2, "E01": 1},
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	r := Report{Solution: sampleSolution(), KPIs: kpi.Summary{RunID: "r1", Chargers: 6}}
	require.NoError(t, WriteJSON(&buf, r))

	var got Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "r1", got.Solution.RunID)
	assert.Len(t, got.Solution.Stations, 2)
	assert.Equal(t, 6, got.KPIs.Chargers)
}

func TestWriteStationsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteStationsCSV(&buf, sampleSolution()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"station_id", "tag", "type", "lat", "lon"}, rows[0])
	assert.Equal(t, []string{"1", "S01-Parking", "Parking", "41", "29"}, rows[1])
	assert.Equal(t, "S02-Fuel", rows[2][1])
}

func TestWriteAssignmentCSVOrdered(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteAssignmentCSV(&buf, sampleSolution()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"E01", "1", "S01-Parking"}, rows[1])
	assert.Equal(t, []string{"E02", "2", "S02-Fuel"}, rows[2])
}

func TestWriteTripsCSV(t *testing.T) {
	trips := []model.TripRecord{
		{Seq: 1, TripNo: 1, EVID: "E01", OriginLabel: "H01", DestLabel: "H03", DistanceKm: 4.2, ConsKWh: 0.63, RemSOC: 39.37},
		{Seq: 2, TripNo: 2, EVID: "E01", OriginLabel: "H03", DestLabel: "S01-Parking", DistanceKm: 2.1, ConsKWh: 0.32, RemSOC: 40, Diverted: true, ChargerTag: "S01-Parking"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTripsCSV(&buf, trips))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "true", rows[2][8])
	assert.Equal(t, "S01-Parking", rows[2][9])
	assert.Equal(t, "0.63", rows[1][6])
}

func TestWriteEdgesCSVSorted(t *testing.T) {
	a := geo.Point{Lat: 41.0, Lon: 29.0}
	b := geo.Point{Lat: 41.1, Lon: 29.1}
	c := geo.Point{Lat: 40.9, Lon: 29.2}
	edges := map[geo.PairKey]int{
		geo.Pair(a, b): 3,
		geo.Pair(c, a): 1,
	}
	var buf bytes.Buffer
	require.NoError(t, WriteEdgesCSV(&buf, edges))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a_lat", "a_lon", "b_lat", "b_lon", "trips"}, rows[0])
	// sorted by first endpoint: the 40.9 edge comes before the 41.0 one
	assert.Equal(t, []string{"40.9", "29.2", "41", "29", "1"}, rows[1])
	assert.Equal(t, []string{"41", "29", "41.1", "29.1", "3"}, rows[2])
}
