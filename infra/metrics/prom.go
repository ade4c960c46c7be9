package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/ekinyavuz/evplan/core/metrics"
)

// PromSink records engine events in Prometheus metrics.
type PromSink struct {
	trips      prometheus.Counter
	diversions prometheus.Counter
	fallbacks  *prometheus.CounterVec
	solveTime  *prometheus.HistogramVec
	objective  *prometheus.GaugeVec
}

// NewPromSink registers the engine metrics on the default registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		trips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evplan_trips_total",
			Help: "Total number of simulated trips",
		}),
		diversions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "evplan_diversions_total",
			Help: "Total number of low-SOC charger diversions",
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "evplan_oracle_fallbacks_total",
			Help: "Road-routing calls that fell back to the great-circle estimate",
		}, []string{"call"}),
		solveTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evplan_solve_duration_seconds",
			Help:    "Wall-clock duration of solver invocations",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		objective: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "evplan_solution_objective_keur",
			Help: "Objective value of the last returned solution",
		}, []string{"method"}),
	}
	if err := reg.Register(s.trips); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.trips = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.diversions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.diversions = are.ExistingCollector.(prometheus.Counter)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.fallbacks); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.fallbacks = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.solveTime); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.solveTime = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(s.objective); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			s.objective = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	return s, nil
}

// RecordSimulation adds the run's trip and diversion counts.
func (s *PromSink) RecordSimulation(ev coremetrics.SimulationEvent) error {
	s.trips.Add(float64(ev.Trips))
	s.diversions.Add(float64(ev.Diversions))
	return nil
}

// RecordSolve observes the solve duration and exposes the objective.
func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) error {
	s.solveTime.WithLabelValues(ev.Method).Observe(ev.Duration.Seconds())
	if !ev.Infeasible {
		s.objective.WithLabelValues(ev.Method).Set(ev.Objective)
	}
	return nil
}

// RecordOracleFallback increments the fallback counter for the call type.
func (s *PromSink) RecordOracleFallback(ev coremetrics.OracleFallbackEvent) error {
	s.fallbacks.WithLabelValues(ev.Call).Inc()
	return nil
}
