package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ekinyavuz/evplan/config"
	coremetrics "github.com/ekinyavuz/evplan/core/metrics"
	"github.com/ekinyavuz/evplan/core/session"
	"github.com/ekinyavuz/evplan/core/sim"
	"github.com/ekinyavuz/evplan/infra/ingest"
	"github.com/ekinyavuz/evplan/infra/logger"
	"github.com/ekinyavuz/evplan/infra/routing"
	"github.com/ekinyavuz/evplan/pkg/export"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the daily-trip simulation without solving",
	RunE:  simulateOnly,
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}

func simulateOnly(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Logging.Apply()
	logg := logger.New("simulate-command")

	oracle := routing.New(cfg.Routing, coremetrics.NopSink{})
	simulator := sim.New(oracle, logger.New("sim"))
	sess := session.New(simulator, cfg.Solver.MaxStations, cfg.Solver.MinSeparationM, logg)

	homes, err := ingest.ReadHomes(cfg.Scenario.HomesFile)
	if err != nil {
		return err
	}
	sess.SetHomes(homes)
	if cfg.Scenario.CandidatesFile != "" {
		cands, err := ingest.ReadCandidates(cfg.Scenario.CandidatesFile)
		if err != nil {
			return err
		}
		sess.SetCandidates(cands)
	}

	sel, err := sess.EnsureSelection(cfg.Scenario.PenetrationRate, cfg.Scenario.Seed)
	if err != nil {
		return err
	}
	day, err := sess.Simulate(ctx, rand.New(rand.NewSource(cfg.Scenario.SimSeed)))
	if err != nil {
		return err
	}
	logg.Infof("%d vehicles, %d trips, %d diversions, %.2f kWh total demand",
		len(sel), len(day.Trips), day.Diversions, day.TotalDemandKWh())
	for _, tr := range day.Trips {
		logg.Debugf("trip %d %s %s -> %s %.2f km %.2f kWh rem %.2f",
			tr.Seq, tr.EVID, tr.OriginLabel, tr.DestLabel, tr.DistanceKm, tr.ConsKWh, tr.RemSOC)
	}

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	if err := writeCSV(cfg.Output.Dir+"/trips.csv", func(f *os.File) error {
		return export.WriteTripsCSV(f, day.Trips)
	}); err != nil {
		return err
	}
	logg.Infof("wrote %s/trips.csv", cfg.Output.Dir)
	if err := writeCSV(cfg.Output.Dir+"/edges.csv", func(f *os.File) error {
		return export.WriteEdgesCSV(f, sess.LastEdges())
	}); err != nil {
		return err
	}
	logg.Infof("wrote %s/edges.csv", cfg.Output.Dir)
	return nil
}

func writeCSV(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
