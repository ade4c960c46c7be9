package cmd

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ekinyavuz/evplan/infra/logger"
)

var genOpts struct {
	homes      int
	candidates int
	centerLat  float64
	centerLon  float64
	spreadKm   float64
	seed       int64
	dir        string
}

var gendataCmd = &cobra.Command{
	Use:   "gendata",
	Short: "Generate a random scenario (homes and candidate files)",
	RunE:  genData,
}

func init() {
	gendataCmd.Flags().IntVar(&genOpts.homes, "homes", 50, "number of homes")
	gendataCmd.Flags().IntVar(&genOpts.candidates, "candidates", 8, "number of candidate stations")
	gendataCmd.Flags().Float64Var(&genOpts.centerLat, "lat", 41.015, "center latitude")
	gendataCmd.Flags().Float64Var(&genOpts.centerLon, "lon", 28.979, "center longitude")
	gendataCmd.Flags().Float64Var(&genOpts.spreadKm, "spread-km", 5, "point spread around the center in km")
	gendataCmd.Flags().Int64Var(&genOpts.seed, "seed", 1, "generator seed")
	gendataCmd.Flags().StringVar(&genOpts.dir, "dir", ".", "output directory")
	rootCmd.AddCommand(gendataCmd)
}

func genData(cmd *cobra.Command, args []string) error {
	logg := logger.New("gendata")
	rng := rand.New(rand.NewSource(genOpts.seed))

	// one degree of latitude is ~111 km
	latSpread := genOpts.spreadKm / 111.0
	lonSpread := genOpts.spreadKm / 85.0
	jitter := func(center, spread float64) float64 {
		return center + (rng.Float64()*2-1)*spread
	}

	homesPath := genOpts.dir + "/homes.csv"
	f, err := os.Create(homesPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", homesPath, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write([]string{"lat", "lon"}); err != nil {
		f.Close()
		return err
	}
	for i := 0; i < genOpts.homes; i++ {
		rec := []string{
			strconv.FormatFloat(jitter(genOpts.centerLat, latSpread), 'f', 6, 64),
			strconv.FormatFloat(jitter(genOpts.centerLon, lonSpread), 'f', 6, 64),
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logg.Infof("wrote %d homes to %s", genOpts.homes, homesPath)

	candsPath := genOpts.dir + "/candidates.csv"
	f, err = os.Create(candsPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", candsPath, err)
	}
	w = csv.NewWriter(f)
	if err := w.Write([]string{"lat", "lon", "poi"}); err != nil {
		f.Close()
		return err
	}
	kinds := []string{"Home", "Parking", "Fuel"}
	for i := 0; i < genOpts.candidates; i++ {
		rec := []string{
			strconv.FormatFloat(jitter(genOpts.centerLat, latSpread), 'f', 6, 64),
			strconv.FormatFloat(jitter(genOpts.centerLon, lonSpread), 'f', 6, 64),
			kinds[rng.Intn(len(kinds))],
		}
		if err := w.Write(rec); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logg.Infof("wrote %d candidates to %s", genOpts.candidates, candsPath)
	return nil
}
