package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ekinyavuz/evplan/core/metrics"
	"github.com/ekinyavuz/evplan/core/solver/ga"
	"github.com/ekinyavuz/evplan/infra/mqtt"
	"github.com/ekinyavuz/evplan/infra/routing"
)

type Config struct {
	Scenario ScenarioConfig `json:"scenario"`
	Solver   SolverConfig   `json:"solver"`
	GA       ga.Config      `json:"ga"`
	Routing  routing.Config `json:"routing"`
	Metrics  metrics.Config `json:"metrics"`
	MQTT     mqtt.Config    `json:"mqtt"`
	Logging  LoggingConfig  `json:"logging"`
	Output   OutputConfig   `json:"output"`
}

// Load reads the configuration file at path, applies EVP_ environment
// overrides, then defaults and validation.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("EVP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "evp_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Scenario.SetDefaults()
	cfg.Solver.SetDefaults()
	cfg.GA.SetDefaults()
	cfg.Routing.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.Output.SetDefaults()
	if err := cfg.Scenario.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Solver.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ScenarioConfig describes the input data and the stochastic draw.
type ScenarioConfig struct {
	// HomesFile is a JSON or CSV file with the home coordinates.
	HomesFile string `json:"homes_file"`
	// CandidatesFile is a JSON or CSV file with the candidate stations.
	CandidatesFile string `json:"candidates_file"`
	// PenetrationRate is the EV share of homes, in percent.
	PenetrationRate float64 `json:"penetration_rate"`
	// Seed drives vehicle selection; SimSeed drives the daily trips.
	Seed    int64 `json:"seed"`
	SimSeed int64 `json:"sim_seed"`
}

func (c *ScenarioConfig) SetDefaults() {
	if c.PenetrationRate == 0 {
		c.PenetrationRate = 30
	}
	if c.SimSeed == 0 {
		c.SimSeed = c.Seed + 1
	}
}

func (c ScenarioConfig) Validate() error {
	if c.HomesFile == "" {
		return fmt.Errorf("scenario.homes_file is required")
	}
	if c.PenetrationRate <= 0 || c.PenetrationRate > 100 {
		return fmt.Errorf("scenario.penetration_rate must be in (0, 100]")
	}
	return nil
}

// SolverConfig selects and bounds the siting solver.
type SolverConfig struct {
	// Method is "exact" or "ga".
	Method         string  `json:"method"`
	MaxStations    int     `json:"max_stations"`
	CapacityKWh    float64 `json:"capacity_kwh"`
	MinSeparationM float64 `json:"min_separation_m"`
}

func (c *SolverConfig) SetDefaults() {
	if c.Method == "" {
		c.Method = "exact"
	}
	if c.MaxStations == 0 {
		c.MaxStations = 10
	}
	if c.CapacityKWh == 0 {
		c.CapacityKWh = 1000
	}
}

func (c SolverConfig) Validate() error {
	if c.Method != "exact" && c.Method != "ga" {
		return fmt.Errorf("unknown solver method %s", c.Method)
	}
	if c.MaxStations < 1 {
		return fmt.Errorf("solver.max_stations must be positive")
	}
	if c.CapacityKWh <= 0 {
		return fmt.Errorf("solver.capacity_kwh must be positive")
	}
	return nil
}

// OutputConfig names where result files are written.
type OutputConfig struct {
	Dir string `json:"dir"`
}

func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "out"
	}
}
