// Package app wires configuration, ingestion, simulation, solving and export
// into one runnable planning service.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ekinyavuz/evplan/config"
	"github.com/ekinyavuz/evplan/core/geo"
	"github.com/ekinyavuz/evplan/core/kpi"
	coremetrics "github.com/ekinyavuz/evplan/core/metrics"
	"github.com/ekinyavuz/evplan/core/model"
	"github.com/ekinyavuz/evplan/core/routing"
	"github.com/ekinyavuz/evplan/core/session"
	"github.com/ekinyavuz/evplan/core/sim"
	"github.com/ekinyavuz/evplan/core/solver"
	"github.com/ekinyavuz/evplan/core/solver/exact"
	"github.com/ekinyavuz/evplan/core/solver/ga"
	"github.com/ekinyavuz/evplan/infra/ingest"
	"github.com/ekinyavuz/evplan/infra/logger"
	"github.com/ekinyavuz/evplan/infra/metrics"
	"github.com/ekinyavuz/evplan/infra/mqtt"
	infrarouting "github.com/ekinyavuz/evplan/infra/routing"
	"github.com/ekinyavuz/evplan/internal/eventbus"
	"github.com/ekinyavuz/evplan/pkg/export"
)

// Service runs one planning scenario end to end: load points, select the EV
// fleet, simulate a day of trips, solve the siting problem and export the
// result.
type Service struct {
	cfg       *config.Config
	sess      *session.Session
	simulator *sim.Simulator
	oracle    routing.Oracle
	solver    solver.Solver
	bus       eventbus.EventBus
	sink      coremetrics.Sink
	publisher mqtt.Publisher
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	cfg.Logging.Apply()
	logg := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	oracle := infrarouting.New(cfg.Routing, sink)
	simulator := sim.New(oracle, logger.New("sim"))
	sess := session.New(simulator, cfg.Solver.MaxStations, cfg.Solver.MinSeparationM, logger.New("session"))
	bus := eventbus.New()

	var sv solver.Solver
	switch cfg.Solver.Method {
	case exact.Name:
		sv = exact.New(oracle, logger.New("exact"))
	case ga.Name:
		rng := rand.New(rand.NewSource(cfg.Scenario.Seed + 2))
		sv = ga.New(cfg.GA, oracle, rng, logger.New("ga"), bus)
	default:
		return nil, fmt.Errorf("unknown solver method %s", cfg.Solver.Method)
	}

	var publisher mqtt.Publisher = mqtt.NopPublisher{}
	if cfg.MQTT.Enabled {
		p, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		publisher = p
	}

	return &Service{
		cfg:       cfg,
		sess:      sess,
		simulator: simulator,
		oracle:    oracle,
		solver:    sv,
		bus:       bus,
		sink:      sink,
		publisher: publisher,
		log:       logg,
	}, nil
}

// Run executes one full scenario and blocks until it completes or the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	// Subscribe before the first Publish so no early event is missed.
	sub := s.bus.Subscribe()
	go s.consumeProgress(sub)

	runID := uuid.NewString()
	s.log.Infof("run %s: scenario %s", runID, s.cfg.Scenario.HomesFile)

	homes, err := ingest.ReadHomes(s.cfg.Scenario.HomesFile)
	if err != nil {
		return err
	}
	s.sess.SetHomes(homes)
	if s.cfg.Scenario.CandidatesFile != "" {
		cands, err := ingest.ReadCandidates(s.cfg.Scenario.CandidatesFile)
		if err != nil {
			return err
		}
		s.sess.SetCandidates(cands)
	}

	selection, err := s.sess.EnsureSelection(s.cfg.Scenario.PenetrationRate, s.cfg.Scenario.Seed)
	if err != nil {
		return fmt.Errorf("select vehicles: %w", err)
	}

	day, err := s.sess.Simulate(ctx, rand.New(rand.NewSource(s.cfg.Scenario.SimSeed)))
	if err != nil {
		return fmt.Errorf("simulate: %w", err)
	}
	s.bus.Publish(eventbus.SimulationDone{
		RunID:          runID,
		Vehicles:       len(selection),
		Trips:          len(day.Trips),
		Diversions:     day.Diversions,
		TotalDemandKWh: day.TotalDemandKWh(),
	})
	if err := s.sink.RecordSimulation(coremetrics.SimulationEvent{
		RunID:          runID,
		Vehicles:       len(selection),
		Trips:          len(day.Trips),
		Diversions:     day.Diversions,
		TotalDemandKWh: day.TotalDemandKWh(),
		Time:           time.Now(),
	}); err != nil {
		s.log.Warnf("record simulation: %v", err)
	}

	s.bus.Publish(eventbus.SolveStarted{RunID: runID, Method: s.solver.Name()})
	start := time.Now()
	sol, err := s.sess.Solve(ctx, runID, s.solver, s.cfg.Solver.CapacityKWh)
	elapsed := time.Since(start)
	done := eventbus.SolveDone{
		RunID:    runID,
		Method:   s.solver.Name(),
		Duration: elapsed,
		Err:      err,
	}
	if sol != nil {
		done.Stations = len(sol.Stations)
		done.Objective = sol.Objective
	}
	s.bus.Publish(done)
	solveEvent := coremetrics.SolveEvent{
		RunID:      runID,
		Method:     s.solver.Name(),
		Duration:   elapsed,
		Infeasible: err != nil,
		Time:       time.Now(),
	}
	if sol != nil {
		solveEvent.Stations = len(sol.Stations)
		solveEvent.Objective = sol.Objective
	}
	if recErr := s.sink.RecordSolve(solveEvent); recErr != nil {
		s.log.Warnf("record solve: %v", recErr)
	}
	if err != nil {
		return fmt.Errorf("solve: %w", err)
	}

	kpis := kpi.Summarize(ctx, s.oracle, selection, sol)
	s.log.Infof("run %s: %d stations, %d chargers, objective %.2f k€ in %s",
		runID, kpis.Stations, kpis.Chargers, sol.Objective, elapsed)

	if err := s.writeOutputs(sol, kpis, day.Trips, s.sess.LastEdges()); err != nil {
		return err
	}
	if err := s.publisher.PublishSolution(sol, kpis); err != nil {
		s.log.Errorf("publish solution: %v", err)
	}
	return nil
}

func (s *Service) writeOutputs(sol *model.Solution, kpis kpi.Summary, trips []model.TripRecord, edges map[geo.PairKey]int) error {
	dir := s.cfg.Output.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	files := []struct {
		name  string
		write func(f *os.File) error
	}{
		{"solution.json", func(f *os.File) error {
			return export.WriteJSON(f, export.Report{Solution: sol, KPIs: kpis})
		}},
		{"stations.csv", func(f *os.File) error { return export.WriteStationsCSV(f, sol) }},
		{"assignment.csv", func(f *os.File) error { return export.WriteAssignmentCSV(f, sol) }},
		{"trips.csv", func(f *os.File) error { return export.WriteTripsCSV(f, trips) }},
		{"edges.csv", func(f *os.File) error { return export.WriteEdgesCSV(f, edges) }},
	}
	for _, out := range files {
		path := filepath.Join(dir, out.name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		if err := out.write(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", path, err)
		}
		s.log.Infof("wrote %s", path)
	}
	return nil
}

// consumeProgress forwards bus events to the log. The caller subscribes and
// hands over the channel so events published right after Run starts are not
// lost to goroutine scheduling.
func (s *Service) consumeProgress(sub <-chan eventbus.Event) {
	for e := range sub {
		switch ev := e.(type) {
		case eventbus.SimulationDone:
			s.log.Infof("simulated %d trips for %d vehicles (%d diversions, %.2f kWh)",
				ev.Trips, ev.Vehicles, ev.Diversions, ev.TotalDemandKWh)
		case ga.GenerationEvent:
			s.log.Infof("[GA] gen %d/%d best=%.2f", ev.Generation, ev.Total, ev.BestCost)
		case eventbus.SolveStarted:
			s.log.Infof("solving with %s", ev.Method)
		case eventbus.SolveDone:
			if ev.Err != nil {
				s.log.Warnf("%s solve failed after %s: %v", ev.Method, ev.Duration, ev.Err)
			}
		}
	}
}

// Close releases external connections.
func (s *Service) Close() error {
	s.publisher.Close()
	s.bus.Close()
	if c, ok := s.sink.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}
