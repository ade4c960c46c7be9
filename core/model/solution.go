package model

// OpenedStation is a candidate chosen by a solver. Type mirrors the POI kind
// as the optimization-derived station type shown to the collaborator.
type OpenedStation struct {
	StationCandidate
	Type string `json:"type"`
}

// Solution is the uniform output of both solvers. Assignment maps an EV
// identifier to the opened station id it is served by; for the heuristic
// solver this is the nearest-open-station assignment.
type Solution struct {
	RunID      string          `json:"run_id"`
	Method     string          `json:"method"`
	Stations   []OpenedStation `json:"stations"`
	Objective  float64         `json:"objective_keur"`
	Assignment map[string]int  `json:"assignment"`
}

// Opened reports whether the station with the given candidate id is part of
// the solution.
func (s *Solution) Opened(id int) bool {
	for _, st := range s.Stations {
		if st.ID == id {
			return true
		}
	}
	return false
}
