package metrics

import "time"

// SimulationEvent summarizes one demand-simulation run.
type SimulationEvent struct {
	RunID          string
	Vehicles       int
	Trips          int
	Diversions     int
	TotalDemandKWh float64
	Time           time.Time
}

// SolveEvent summarizes one solver invocation.
type SolveEvent struct {
	RunID      string
	Method     string
	Stations   int
	Objective  float64
	Duration   time.Duration
	Infeasible bool
	Time       time.Time
}

// OracleFallbackEvent records a road-routing call that degraded to the
// great-circle estimate.
type OracleFallbackEvent struct {
	Call   string // "distance" or "route"
	Reason string
	Time   time.Time
}

// Sink records engine events for observability purposes.
type Sink interface {
	RecordSimulation(ev SimulationEvent) error
	RecordSolve(ev SolveEvent) error
	RecordOracleFallback(ev OracleFallbackEvent) error
}

// NopSink implements Sink with no-op methods.
type NopSink struct{}

func (NopSink) RecordSimulation(SimulationEvent) error         { return nil }
func (NopSink) RecordSolve(SolveEvent) error                   { return nil }
func (NopSink) RecordOracleFallback(OracleFallbackEvent) error { return nil }

// Config defines settings for metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusAddr    string `json:"prometheus_addr"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults fills in the fields that may be omitted from the config file.
func (c *Config) SetDefaults() {
	if c.PrometheusAddr == "" {
		c.PrometheusAddr = ":9464"
	}
}
