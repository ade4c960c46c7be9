// Package ingest reads home and candidate point sets from JSON or CSV files.
// Ids are assigned sequentially from 1 in file order.
package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ekinyavuz/evplan/core/geo"
	"github.com/ekinyavuz/evplan/core/model"
)

type pointRow struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	POI string  `json:"poi,omitempty"`
}

// ReadHomes loads home points from path. The format is chosen from the file
// extension: .json expects an array of {lat, lon} objects, anything else is
// parsed as CSV with a lat/lon header.
func ReadHomes(path string) ([]model.HomePoint, error) {
	rows, err := readRows(path, false)
	if err != nil {
		return nil, err
	}
	homes := make([]model.HomePoint, len(rows))
	for i, r := range rows {
		homes[i] = model.HomePoint{ID: i + 1, Point: geo.Point{Lat: r.Lat, Lon: r.Lon}}
	}
	return homes, nil
}

// ReadCandidates loads station candidates from path. Rows carry a poi column
// naming the site kind in addition to the coordinates.
func ReadCandidates(path string) ([]model.StationCandidate, error) {
	rows, err := readRows(path, true)
	if err != nil {
		return nil, err
	}
	cands := make([]model.StationCandidate, len(rows))
	for i, r := range rows {
		kind, err := model.ParsePOIKind(r.POI)
		if err != nil {
			return nil, fmt.Errorf("ingest %s row %d: %w", path, i+1, err)
		}
		cands[i] = model.NewStationCandidate(i+1, geo.Point{Lat: r.Lat, Lon: r.Lon}, kind)
	}
	return cands, nil
}

func readRows(path string, withPOI bool) ([]pointRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return readJSON(f)
	}
	return readCSV(f, withPOI, path)
}

func readJSON(r io.Reader) ([]pointRow, error) {
	var rows []pointRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("ingest: decode json: %w", err)
	}
	return rows, nil
}

func readCSV(r io.Reader, withPOI bool, path string) ([]pointRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ingest: read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("ingest %s: empty file", path)
	}

	cols := map[string]int{}
	for i, name := range records[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	latCol, ok := cols["lat"]
	if !ok {
		return nil, fmt.Errorf("ingest %s: missing lat column", path)
	}
	lonCol, ok := cols["lon"]
	if !ok {
		return nil, fmt.Errorf("ingest %s: missing lon column", path)
	}
	poiCol, hasPOI := cols["poi"]
	if withPOI && !hasPOI {
		return nil, fmt.Errorf("ingest %s: missing poi column", path)
	}

	rows := make([]pointRow, 0, len(records)-1)
	for n, rec := range records[1:] {
		lat, err := strconv.ParseFloat(rec[latCol], 64)
		if err != nil {
			return nil, fmt.Errorf("ingest %s row %d: bad lat %q", path, n+1, rec[latCol])
		}
		lon, err := strconv.ParseFloat(rec[lonCol], 64)
		if err != nil {
			return nil, fmt.Errorf("ingest %s row %d: bad lon %q", path, n+1, rec[lonCol])
		}
		row := pointRow{Lat: lat, Lon: lon}
		if withPOI {
			row.POI = strings.TrimSpace(rec[poiCol])
		}
		rows = append(rows, row)
	}
	return rows, nil
}
