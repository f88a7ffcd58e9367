package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	fileName = "hairtool.yaml"
	appDir   = "strandforge"

	// envConfig names a config file, taking priority over the search path.
	envConfig = "HAIRTOOL_CONFIG"
)

// Load resolves configuration in order: defaults, config file, CLI flags.
// The merged result must pass Validate.
func Load() (*Config, error) {
	cfg := Default()

	path := ConfigPath()
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file from the
// HAIRTOOL_CONFIG variable, the working directory and ConfigDir.
func findConfigFile() string {
	var candidates []string
	if env := os.Getenv(envConfig); env != "" {
		candidates = append(candidates, env)
	}
	candidates = append(candidates, fileName, filepath.Join(ConfigDir(), fileName))

	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory for the tool, falling
// back to the home directory when the platform reports none.
func ConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDir)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "."+appDir)
}

// loadFromFile merges the YAML file at path over cfg.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return nil
}
