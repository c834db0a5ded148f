package config

import "flag"

var (
	flagConfig = flag.String("config", "", "Path to config file")
	flagDebug  = flag.Bool("debug", false, "Enable debug logging")
	flagClient = flag.String("client", "", "Client installation directory")
	flagMap    = flag.Int("map", -1, "Facet index (map0.mul = 0)")
	flagX      = flag.Int("x", -1, "Start tile X")
	flagY      = flag.Int("y", -1, "Start tile Y")
	flagZoom   = flag.Float64("zoom", 0, "View zoom")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
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
	if *flagClient != "" {
		cfg.Data.ClientPath = *flagClient
	}
	if *flagMap >= 0 {
		cfg.Data.Map.Index = *flagMap
	}
	if *flagX >= 0 {
		cfg.Render.StartX = *flagX
	}
	if *flagY >= 0 {
		cfg.Render.StartY = *flagY
	}
	if *flagZoom > 0 {
		cfg.Render.Zoom = float32(*flagZoom)
	}
}
