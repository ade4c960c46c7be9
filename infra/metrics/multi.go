package metrics

import coremetrics "github.com/ekinyavuz/evplan/core/metrics"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordSimulation forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordSimulation(ev coremetrics.SimulationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSimulation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordSolve forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordSolve(ev coremetrics.SolveEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordSolve(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordOracleFallback forwards the event to all sinks, returning the first error.
func (m *MultiSink) RecordOracleFallback(ev coremetrics.OracleFallbackEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordOracleFallback(ev); err != nil {
			return err
		}
	}
	return nil
}
