package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test hair defaults
	if cfg.Hair.FollicleCount != 1000 {
		t.Errorf("expected follicle count 1000, got %d", cfg.Hair.FollicleCount)
	}
	if cfg.Hair.Density != 0 {
		t.Errorf("expected density 0, got %f", cfg.Hair.Density)
	}
	if cfg.Hair.Subdivisions != 2 {
		t.Errorf("expected subdivisions 2, got %d", cfg.Hair.Subdivisions)
	}

	// Test bake defaults
	if cfg.Bake.StartFrame != 1 || cfg.Bake.EndFrame != 1 {
		t.Errorf("expected frame range 1..1, got %d..%d", cfg.Bake.StartFrame, cfg.Bake.EndFrame)
	}
	if cfg.Bake.SummaryPath != "" {
		t.Errorf("expected empty summary path, got %s", cfg.Bake.SummaryPath)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "hairtool.yaml")

	yamlContent := `
hair:
  follicle_count: 5000
  density: 250.5
  seed: 42
  subdivisions: 3

bake:
  start_frame: 10
  end_frame: 48
  summary_path: "out/summary.yaml"

logging:
  level: "debug"
  log_file: "bake.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Hair.FollicleCount != 5000 {
		t.Errorf("expected follicle count 5000, got %d", cfg.Hair.FollicleCount)
	}
	if cfg.Hair.Density != 250.5 {
		t.Errorf("expected density 250.5, got %f", cfg.Hair.Density)
	}
	if cfg.Hair.Seed != 42 {
		t.Errorf("expected seed 42, got %d", cfg.Hair.Seed)
	}
	if cfg.Hair.Subdivisions != 3 {
		t.Errorf("expected subdivisions 3, got %d", cfg.Hair.Subdivisions)
	}

	if cfg.Bake.StartFrame != 10 || cfg.Bake.EndFrame != 48 {
		t.Errorf("expected frame range 10..48, got %d..%d", cfg.Bake.StartFrame, cfg.Bake.EndFrame)
	}
	if cfg.Bake.SummaryPath != "out/summary.yaml" {
		t.Errorf("expected summary path out/summary.yaml, got %s", cfg.Bake.SummaryPath)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "bake.log" {
		t.Errorf("expected log file 'bake.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFilePartial(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "hairtool.yaml")

	if err := os.WriteFile(configPath, []byte("hair:\n  seed: 7\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Unset keys keep their defaults
	if cfg.Hair.Seed != 7 {
		t.Errorf("expected seed 7, got %d", cfg.Hair.Seed)
	}
	if cfg.Hair.FollicleCount != 1000 {
		t.Errorf("expected default follicle count, got %d", cfg.Hair.FollicleCount)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	// Create temporary config file with invalid YAML
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
hair:
  follicle_count: not a number
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Try to load - should error
	cfg := Default()
	err := loadFromFile(cfg, configPath)
	if err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/hairtool.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Hair.FollicleCount = -1
	cfg.Hair.Subdivisions = 13
	cfg.Bake.StartFrame = 5
	cfg.Bake.EndFrame = 2
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}

	// Every problem is reported
	errs := multierr.Errors(err)
	if len(errs) != 4 {
		t.Errorf("expected 4 errors, got %d: %v", len(errs), err)
	}
	for _, key := range []string{"follicle_count", "subdivisions", "end_frame", "logging.level"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("expected error to mention %s: %v", key, err)
		}
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Just verify it returns a non-empty path
	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}

	// Verify path is absolute
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	// Save current directory
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	// Create temp directory and change to it
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))
	t.Setenv("HAIRTOOL_CONFIG", "")
	os.Chdir(tmpDir)

	// No config file exists - should return empty
	path := findConfigFile()
	if path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	// Create hairtool.yaml in current directory
	configPath := filepath.Join(tmpDir, "hairtool.yaml")
	if err := os.WriteFile(configPath, []byte("hair:\n  seed: 3\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	path = findConfigFile()
	if path == "" {
		t.Error("expected to find hairtool.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name: "debug flag",
			setup: func() {
				*flagDebug = true
			},
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() {
				*flagDebug = false
			},
		},
		{
			name: "seed flag",
			setup: func() {
				*flagSeed = 99
			},
			verify: func(cfg *Config) {
				if cfg.Hair.Seed != 99 {
					t.Errorf("expected seed 99, got %d", cfg.Hair.Seed)
				}
			},
			teardown: func() {
				*flagSeed = -1
			},
		},
		{
			name: "count flag clears density",
			setup: func() {
				*flagCount = 300
			},
			verify: func(cfg *Config) {
				if cfg.Hair.FollicleCount != 300 {
					t.Errorf("expected follicle count 300, got %d", cfg.Hair.FollicleCount)
				}
				if cfg.Hair.Density != 0 {
					t.Errorf("expected density 0, got %f", cfg.Hair.Density)
				}
			},
			teardown: func() {
				*flagCount = 0
			},
		},
		{
			name: "density flag",
			setup: func() {
				*flagDensity = 12.5
			},
			verify: func(cfg *Config) {
				if cfg.Hair.Density != 12.5 {
					t.Errorf("expected density 12.5, got %f", cfg.Hair.Density)
				}
			},
			teardown: func() {
				*flagDensity = 0
			},
		},
		{
			name: "subdiv flag",
			setup: func() {
				*flagSubdiv = 0
			},
			verify: func(cfg *Config) {
				if cfg.Hair.Subdivisions != 0 {
					t.Errorf("expected subdivisions 0, got %d", cfg.Hair.Subdivisions)
				}
			},
			teardown: func() {
				*flagSubdiv = -1
			},
		},
		{
			name: "frame range and output flags",
			setup: func() {
				*flagStart = 5
				*flagEnd = 20
				*flagOut = "summary.yaml"
				*flagLog = "bake.log"
			},
			verify: func(cfg *Config) {
				if cfg.Bake.StartFrame != 5 || cfg.Bake.EndFrame != 20 {
					t.Errorf("expected frame range 5..20, got %d..%d", cfg.Bake.StartFrame, cfg.Bake.EndFrame)
				}
				if cfg.Bake.SummaryPath != "summary.yaml" {
					t.Errorf("expected summary path summary.yaml, got %s", cfg.Bake.SummaryPath)
				}
				if cfg.Logging.LogFile != "bake.log" {
					t.Errorf("expected log file bake.log, got %s", cfg.Logging.LogFile)
				}
			},
			teardown: func() {
				*flagStart = 0
				*flagEnd = 0
				*flagOut = ""
				*flagLog = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			tt.setup()
			defer tt.teardown()

			// Apply flags to default config
			cfg := Default()
			applyFlags(cfg)

			// Verify
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "hairtool.yaml")

	yamlContent := `
hair:
  follicle_count: 2000
  subdivisions: 1
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Set flag to override config file
	*flagConfig = configPath
	*flagSubdiv = 4
	defer func() {
		*flagConfig = ""
		*flagSubdiv = -1
	}()

	// Load config
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Subdivisions should be from flag (4), not file (1)
	if cfg.Hair.Subdivisions != 4 {
		t.Errorf("expected subdivisions 4 from flag, got %d", cfg.Hair.Subdivisions)
	}

	// Count should be from file (2000) since no flag override
	if cfg.Hair.FollicleCount != 2000 {
		t.Errorf("expected follicle count 2000 from file, got %d", cfg.Hair.FollicleCount)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "hairtool.yaml")
	if err := os.WriteFile(configPath, []byte("bake:\n  start_frame: 9\n  end_frame: 3\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	defer func() { *flagConfig = "" }()

	if _, err := Load(); err == nil {
		t.Error("expected error for reversed frame range, got nil")
	}
}

func TestSaveTo(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "hairtool.yaml")

	cfg := Default()
	cfg.Hair.Seed = 11
	cfg.Bake.EndFrame = 24
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Hair.Seed != 11 || loaded.Bake.EndFrame != 24 {
		t.Errorf("saved config not restored: seed %d, end frame %d", loaded.Hair.Seed, loaded.Bake.EndFrame)
	}
}

func TestSaveToRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hairtool.yaml")

	cfg := Default()
	cfg.Hair.Subdivisions = 40
	if err := cfg.SaveTo(path); err == nil {
		t.Fatal("expected error saving invalid config")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("invalid config was written: %v", err)
	}
}

func TestFindConfigFileFromEnv(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "xdg"))

	envPath := filepath.Join(tmpDir, "custom.yaml")
	if err := os.WriteFile(envPath, []byte("hair:\n  seed: 8\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "hairtool.yaml"), []byte("hair:\n  seed: 1\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	t.Setenv("HAIRTOOL_CONFIG", envPath)

	if got := findConfigFile(); got != envPath {
		t.Errorf("expected %s, got %s", envPath, got)
	}
}
