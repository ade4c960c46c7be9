package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/ekinyavuz/evplan/core/geo"
	"github.com/ekinyavuz/evplan/core/kpi"
	"github.com/ekinyavuz/evplan/core/model"
)

// Report bundles a solution with its indicators for export.
type Report struct {
	Solution *model.Solution `json:"solution"`
	KPIs     kpi.Summary     `json:"kpis"`
}

// WriteJSON writes the solution report to w in JSON format.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteStationsCSV writes the opened stations to w in CSV format.
func WriteStationsCSV(w io.Writer, sol *model.Solution) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"station_id", "tag", "type", "lat", "lon"}); err != nil {
		return err
	}
	for _, st := range sol.Stations {
		rec := []string{
			strconv.Itoa(st.ID),
			st.Tag,
			st.Type,
			strconv.FormatFloat(st.Point.Lat, 'f', -1, 64),
			strconv.FormatFloat(st.Point.Lon, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAssignmentCSV writes the EV to station assignment table to w. Rows
// are ordered by EV id; zero-padded ids make lexical order numeric order.
func WriteAssignmentCSV(w io.Writer, sol *model.Solution) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ev_id", "station_id", "station_tag"}); err != nil {
		return err
	}
	tags := make(map[int]string, len(sol.Stations))
	for _, st := range sol.Stations {
		tags[st.ID] = st.Tag
	}
	evIDs := make([]string, 0, len(sol.Assignment))
	for id := range sol.Assignment {
		evIDs = append(evIDs, id)
	}
	sort.Strings(evIDs)
	for _, ev := range evIDs {
		id := sol.Assignment[ev]
		if err := cw.Write([]string{ev, strconv.Itoa(id), tags[id]}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEdgesCSV writes the per-edge trip counts to w. Rows are sorted by
// the first endpoint, then the second, so output is stable across runs.
func WriteEdgesCSV(w io.Writer, edges map[geo.PairKey]int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"a_lat", "a_lon", "b_lat", "b_lon", "trips"}); err != nil {
		return err
	}
	keys := make([]geo.PairKey, 0, len(edges))
	for k := range edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.A.Lat != b.A.Lat {
			return a.A.Lat < b.A.Lat
		}
		if a.A.Lon != b.A.Lon {
			return a.A.Lon < b.A.Lon
		}
		if a.B.Lat != b.B.Lat {
			return a.B.Lat < b.B.Lat
		}
		return a.B.Lon < b.B.Lon
	})
	for _, k := range keys {
		rec := []string{
			strconv.FormatFloat(k.A.Lat, 'f', -1, 64),
			strconv.FormatFloat(k.A.Lon, 'f', -1, 64),
			strconv.FormatFloat(k.B.Lat, 'f', -1, 64),
			strconv.FormatFloat(k.B.Lon, 'f', -1, 64),
			strconv.Itoa(edges[k]),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTripsCSV writes the simulated trip log to w.
func WriteTripsCSV(w io.Writer, trips []model.TripRecord) error {
	cw := csv.NewWriter(w)
	header := []string{"seq", "trip_no", "ev_id", "origin", "dest", "dist_km", "cons_kwh", "rem_soc", "diverted", "charger_id"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, tr := range trips {
		rec := []string{
			strconv.Itoa(tr.Seq),
			strconv.Itoa(tr.TripNo),
			tr.EVID,
			tr.OriginLabel,
			tr.DestLabel,
			strconv.FormatFloat(tr.DistanceKm, 'f', 2, 64),
			strconv.FormatFloat(tr.ConsKWh, 'f', 2, 64),
			strconv.FormatFloat(tr.RemSOC, 'f', 2, 64),
			strconv.FormatBool(tr.Diverted),
			tr.ChargerTag,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
