package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagSeed    = flag.Int("seed", -1, "Follicle distribution seed")
	flagCount   = flag.Int("count", 0, "Number of follicles")
	flagDensity = flag.Float64("density", 0, "Follicles per unit area (overrides count)")
	flagSubdiv  = flag.Int("subdiv", -1, "Guide curve subdivision level")
	flagStart   = flag.Int("start", 0, "First bake frame (0 keeps config)")
	flagEnd     = flag.Int("end", 0, "Last bake frame (0 keeps config)")
	flagOut     = flag.String("out", "", "Bake summary output path")
	flagLog     = flag.String("log", "", "Log file path")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag command-line arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSeed >= 0 {
		cfg.Hair.Seed = uint32(*flagSeed)
	}
	if *flagCount > 0 {
		cfg.Hair.FollicleCount = *flagCount
		cfg.Hair.Density = 0
	}
	if *flagDensity > 0 {
		cfg.Hair.Density = float32(*flagDensity)
	}
	if *flagSubdiv >= 0 {
		cfg.Hair.Subdivisions = *flagSubdiv
	}
	if *flagStart != 0 {
		cfg.Bake.StartFrame = *flagStart
	}
	if *flagEnd != 0 {
		cfg.Bake.EndFrame = *flagEnd
	}
	if *flagOut != "" {
		cfg.Bake.SummaryPath = *flagOut
	}
	if *flagLog != "" {
		cfg.Logging.LogFile = *flagLog
	}
}
