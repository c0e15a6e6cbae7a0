// Package config loads the application configuration from flags, the
// environment, .env and an optional config file.
package config

import "time"

const (
	// ConfigName is the config file base name (.anticipate.yaml).
	ConfigName = ".anticipate"
	// EnvPrefix prefixes every environment override, e.g. ANTICIPATE_DATA_DIR.
	EnvPrefix = "ANTICIPATE"
	// LocalDir is the per-project data directory name.
	LocalDir = ".anticipate"
)

// Default values.
const (
	DefaultDriver        = "sqlite"
	DefaultCacheTTL      = 30 * time.Second
	DefaultStaleTaskDays = 7
	DefaultAnalyticsDays = 90
	DefaultWeightsDays   = 30
	DefaultServerPort    = 7420
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "text"
)
