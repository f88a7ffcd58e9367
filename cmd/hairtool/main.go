// hairtool is a CLI utility for distributing and baking hair on scene files.
package main

import (
	"fmt"
	"os"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Faultbox/strandforge/internal/config"
	"github.com/Faultbox/strandforge/internal/logger"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	p := message.NewPrinter(language.English)
	command := args[0]
	rest := args[1:]

	switch command {
	case "info":
		err = cmdInfo(p, rest)
	case "distribute", "dist":
		err = cmdDistribute(p, cfg, rest)
	case "bake":
		err = cmdBake(p, cfg, rest)
	case "preview":
		err = cmdPreview(p, cfg, rest)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`hairtool - hair follicle distribution and export

Usage:
  hairtool [flags] <command> <scene.yaml>

Commands:
  info <scene.yaml>          Show scalp and guide curve statistics
  distribute <scene.yaml>    Generate follicles and bind them to the guides
  bake <scene.yaml>          Export hair over the configured frame range
  preview <scene.yaml> <out> Render a top view of the follicles (.png or .bmp)

Flags:
  -config <file>   Config file (else $HAIRTOOL_CONFIG, ./hairtool.yaml,
                   then the user config dir)
  -count <n>       Number of follicles
  -density <d>     Follicles per unit area (overrides count)
  -seed <n>        Distribution seed
  -subdiv <n>      Guide curve subdivision level
  -start, -end     Bake frame range
  -out <file>      Bake summary output
  -debug           Enable debug logging
  -log <file>      Also log to a rotating file

Examples:
  hairtool info head.yaml
  hairtool -count 20000 -seed 7 distribute head.yaml
  hairtool -start 1 -end 48 -out bake/summary.yaml bake head.yaml
  hairtool -count 5000 preview head.yaml head.png`)
}
