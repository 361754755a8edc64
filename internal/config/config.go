package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"turbine-monitor/internal/anomaly"
)

type EngineConfig struct {
	Workers   int `yaml:"workers"`
	ChunkSize int `yaml:"chunk_size"`

	// SamplingInterval is the expected spacing between raw samples. It
	// drives both the simulator cadence and the energy integration
	// (total generation = sum(power) * interval in hours), so the two can
	// never drift apart.
	SamplingInterval    time.Duration `yaml:"sampling_interval"`
	AggregationInterval time.Duration `yaml:"aggregation_interval"`
	BackfillWindows     int           `yaml:"backfill_windows"`
	StoreTimeout        time.Duration `yaml:"store_timeout"`
}

type SimulatorConfig struct {
	Enabled   bool `yaml:"enabled"`
	BatchSize int  `yaml:"batch_size"`
}

type Config struct {
	Thresholds anomaly.Thresholds `yaml:"thresholds"`
	Engine     EngineConfig       `yaml:"engine"`
	Simulator  SimulatorConfig    `yaml:"simulator"`
}

func Default() Config {
	return Config{
		Thresholds: anomaly.DefaultThresholds(),
		Engine: EngineConfig{
			Workers:             4,
			ChunkSize:           500,
			SamplingInterval:    10 * time.Second,
			AggregationInterval: time.Hour,
			BackfillWindows:     24,
			StoreTimeout:        30 * time.Second,
		},
		Simulator: SimulatorConfig{
			Enabled:   true,
			BatchSize: 500,
		},
	}
}

// Load reads the YAML config at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Engine.Workers <= 0 {
		return fmt.Errorf("engine.workers must be positive")
	}
	if c.Engine.ChunkSize <= 0 {
		return fmt.Errorf("engine.chunk_size must be positive")
	}
	if c.Engine.SamplingInterval <= 0 {
		return fmt.Errorf("engine.sampling_interval must be positive")
	}
	if c.Engine.AggregationInterval <= 0 {
		return fmt.Errorf("engine.aggregation_interval must be positive")
	}
	if c.Thresholds.EfficiencyLow >= c.Thresholds.EfficiencyHigh {
		return fmt.Errorf("thresholds.efficiency_low must be below efficiency_high")
	}
	if c.Thresholds.TemperatureLow >= c.Thresholds.TemperatureHigh {
		return fmt.Errorf("thresholds.temperature_low must be below temperature_high")
	}
	return nil
}
