// Package config handles hair tool configuration loading and management.
package config

import (
	"fmt"

	"go.uber.org/multierr"
)

// Maximum subdivision level accepted in configuration.
const maxSubdivisions = 12

// Config holds all tool settings.
type Config struct {
	Hair    HairConfig    `yaml:"hair"`
	Bake    BakeConfig    `yaml:"bake"`
	Logging LoggingConfig `yaml:"logging"`
}

// HairConfig holds follicle distribution and curve export settings.
type HairConfig struct {
	FollicleCount int     `yaml:"follicle_count"` // Exact follicle count, used when Density is zero
	Density       float32 `yaml:"density"`        // Follicles per unit area
	Seed          uint32  `yaml:"seed"`
	Subdivisions  int     `yaml:"subdivisions"`
}

// BakeConfig holds frame range settings.
type BakeConfig struct {
	StartFrame  int    `yaml:"start_frame"`
	EndFrame    int    `yaml:"end_frame"`
	SummaryPath string `yaml:"summary_path"` // Bake summary output, empty to skip
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Hair: HairConfig{
			FollicleCount: 1000,
			Density:       0,
			Seed:          0,
			Subdivisions:  2,
		},
		Bake: BakeConfig{
			StartFrame: 1,
			EndFrame:   1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var err error
	if c.Hair.FollicleCount < 0 {
		err = multierr.Append(err, fmt.Errorf("hair.follicle_count must not be negative, got %d", c.Hair.FollicleCount))
	}
	if c.Hair.Density < 0 {
		err = multierr.Append(err, fmt.Errorf("hair.density must not be negative, got %v", c.Hair.Density))
	}
	if c.Hair.Subdivisions < 0 || c.Hair.Subdivisions > maxSubdivisions {
		err = multierr.Append(err, fmt.Errorf("hair.subdivisions must be in 0..%d, got %d", maxSubdivisions, c.Hair.Subdivisions))
	}
	if c.Bake.EndFrame < c.Bake.StartFrame {
		err = multierr.Append(err, fmt.Errorf("bake.end_frame %d before start_frame %d", c.Bake.EndFrame, c.Bake.StartFrame))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		err = multierr.Append(err, fmt.Errorf("logging.level %q unknown", c.Logging.Level))
	}
	return err
}
