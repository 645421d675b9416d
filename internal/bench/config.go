// Package bench orchestrates the two benchmark drivers: index construction
// and query execution. It owns the timed-phase protocol (untimed loading and
// preprocessing, timed work under the concurrency monitor) and the post-hoc
// recall and throughput evaluation.
package bench

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/fannsbench/unify/internal/errors"
)

// EnvConfig carries the ambient knobs shared by both drivers. Benchmark
// inputs stay on the command line; only presentation and sampling behavior
// is environment-driven.
type EnvConfig struct {
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"console"`
	MonitorInterval time.Duration `envconfig:"MONITOR_INTERVAL" default:"100ms"`
}

// LoadEnvConfig reads UNIFY_* environment variables, honoring a .env file in
// the working directory when present.
func LoadEnvConfig() (EnvConfig, error) {
	// A missing .env file is the normal case.
	_ = godotenv.Load()

	var cfg EnvConfig
	if err := envconfig.Process("unify", &cfg); err != nil {
		return cfg, errors.WrapConfigurationError(err, "bench.env_config", "invalid environment configuration")
	}
	return cfg, nil
}
