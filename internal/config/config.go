// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Layer optional file and env overrides in Load.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath locates the SQLite session store file.
	DBPath string `koanf:"db_path"`

	// ScorerURL is the scoring engine base URL.
	ScorerURL string `koanf:"scorer_url"`

	// ScorerToken is the shared internal token for the scoring engine.
	ScorerToken string `koanf:"scorer_token"`

	// ScorerTimeoutMS bounds a single scoring call.
	ScorerTimeoutMS int `koanf:"scorer_timeout_ms"`

	// RecencyMaxEntries bounds each user's recency list.
	RecencyMaxEntries int `koanf:"recency_max_entries"`

	// RecencyTTLSeconds is the per-user list lifetime, reset on append.
	RecencyTTLSeconds int `koanf:"recency_ttl_seconds"`

	// RecencyJanitorSeconds is the sweep interval for expired lists.
	RecencyJanitorSeconds int `koanf:"recency_janitor_seconds"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":8080",
		DBPath:                "intake.db",
		ScorerURL:             "http://localhost:8000",
		ScorerToken:           "dev-internal-token",
		ScorerTimeoutMS:       30_000,
		RecencyMaxEntries:     10,
		RecencyTTLSeconds:     86_400,
		RecencyJanitorSeconds: 60,
	}
}
