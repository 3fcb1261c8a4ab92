package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server Server `yaml:"server"`
	Ingest Ingest `yaml:"ingest"`
	Demo   Demo   `yaml:"demo"`
}

// Server holds the serve-layer configuration.
type Server struct {
	Port            int           `yaml:"port"`
	RateLimitPerSec float64       `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int           `yaml:"rate_limit_burst"`
	CacheTTLSeconds int           `yaml:"cache_ttl_seconds"`
	CacheTTL        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// Ingest holds the telemetry ingestion configuration. The backend exposes
// the poll snapshot at <base_url>/data.json and the push channel at
// <base_url>/ws (ws scheme).
type Ingest struct {
	BaseURL              string        `yaml:"base_url"`
	PollIntervalMillis   int           `yaml:"poll_interval_millis"`
	PollInterval         time.Duration `yaml:"-"`
	ReconnectDelayMillis int           `yaml:"reconnect_delay_millis"`
	ReconnectDelay       time.Duration `yaml:"-"`
	MaxRetries           int           `yaml:"max_retries"` // 0 = retry forever
}

// Demo holds the simulation-mode configuration. When enabled, live
// ingestion is not started and synthetic telemetry is generated instead.
type Demo struct {
	Enabled bool  `yaml:"enabled"`
	Slots   int   `yaml:"slots"`
	Seed    int64 `yaml:"seed"` // 0 = seed from the clock
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills in the defaults and derived duration fields.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8058
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 1
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second

	if cfg.Ingest.PollIntervalMillis <= 0 {
		cfg.Ingest.PollIntervalMillis = 1000
	}
	cfg.Ingest.PollInterval = time.Duration(cfg.Ingest.PollIntervalMillis) * time.Millisecond

	if cfg.Ingest.ReconnectDelayMillis <= 0 {
		cfg.Ingest.ReconnectDelayMillis = 5000
	}
	cfg.Ingest.ReconnectDelay = time.Duration(cfg.Ingest.ReconnectDelayMillis) * time.Millisecond

	if cfg.Demo.Slots <= 0 {
		cfg.Demo.Slots = 12
	}
}
