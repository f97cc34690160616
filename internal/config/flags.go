package config

import (
	"flag"
	"time"
)

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagWorkers   = flag.Int("workers", 0, "Stitches meshed in parallel")
	flagOutput    = flag.String("o", "", "Write mesh JSON to this file instead of stdout")
	flagMesher    = flag.String("mesher", "", "Mesher backend: sweep or solid")
	flagYarnWidth = flag.Float64("yarn-width", 0, "Default yarn width")
	flagFailFast  = flag.Bool("fail-fast", false, "Stop at the first stitch that fails to mesh")
	flagTimeout   = flag.Duration("timeout", 0, "Script evaluation timeout")
	flagSave      = flag.String("save-config", "", "Write the merged config to this path (\"-\" for the default location) and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// Args returns the non-flag arguments.
func Args() []string {
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via -config.
func ConfigPath() string {
	return *flagConfig
}

// SaveConfigPath returns the -save-config target, or "" when unset.
func SaveConfigPath() string {
	return *flagSave
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagWorkers > 0 {
		cfg.Render.Workers = *flagWorkers
	}
	if *flagOutput != "" {
		cfg.Output.Path = *flagOutput
	}
	if *flagMesher != "" {
		cfg.Render.Mesher = *flagMesher
	}
	if *flagYarnWidth > 0 {
		cfg.Render.YarnWidth = *flagYarnWidth
	}
	if *flagFailFast {
		cfg.Render.FailFast = true
	}
	if *flagTimeout > time.Duration(0) {
		cfg.Engine.Timeout = *flagTimeout
	}
}
