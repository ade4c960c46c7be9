package eventbus

import "time"

// SimulationDone is published after a daily-trip simulation completes.
type SimulationDone struct {
	RunID          string
	Vehicles       int
	Trips          int
	Diversions     int
	TotalDemandKWh float64
}

// SolveStarted is published when a siting solve begins.
type SolveStarted struct {
	RunID  string
	Method string
}

// SolveDone is published when a siting solve returns, successfully or not.
type SolveDone struct {
	RunID     string
	Method    string
	Stations  int
	Objective float64
	Duration  time.Duration
	Err       error
}
