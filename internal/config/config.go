// Package config handles the driver's configuration: an optional YAML file
// overlaid with environment variables, which may come from .env files.
package config

import (
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFiles are loaded, when present, before reading the environment.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config is the root configuration structure.
type Config struct {
	// Workers are remote qps_worker addresses used by every scenario.
	Workers []string `yaml:"workers" env:"QPS_WORKERS" envSeparator:","`
	// BindHost is the address local benchmark servers listen on.
	BindHost string `yaml:"bindHost" env:"QPS_DRIVER_BIND_HOST"`
	// ProgressInterval is how often the window progress line refreshes.
	ProgressInterval time.Duration `yaml:"progressInterval" env:"QPS_DRIVER_PROGRESS_INTERVAL"`
	Log              LogConfig     `yaml:"log"`
	Reports          ReportConfig  `yaml:"reports"`
}

// LogConfig controls the diagnostic logger.
type LogConfig struct {
	Level  string `yaml:"level" env:"QPS_DRIVER_LOG_LEVEL" validate:"oneof=panic fatal error warn warning info debug trace"`
	Format string `yaml:"format" env:"QPS_DRIVER_LOG_FORMAT" validate:"oneof=text json"`
}

// ReportConfig names optional report files. Empty disables a report.
type ReportConfig struct {
	JSON       string `yaml:"json" env:"QPS_DRIVER_JSON_REPORT"`
	Prometheus string `yaml:"prometheusTextfile" env:"QPS_DRIVER_PROMETHEUS_TEXTFILE"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		ProgressInterval: time.Second,
		Log:              LogConfig{Level: "info", Format: "text"},
	}
}

// LoadEnv loads the env files that exist and returns how many were loaded.
// Variables already set in the environment win.
func LoadEnv(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return 0, errors.Wrap(err, "load env files")
	}
	return len(existing), nil
}

// LoadConfig reads and parses a YAML configuration file over the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config file")
	}
	return cfg, nil
}

// Load builds the effective configuration: defaults, then the YAML file
// at path if non-empty, then env files, then the environment.
func Load(path string, envFiles []string) (*Config, error) {
	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadConfig(path); err != nil {
			return nil, err
		}
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parsing environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}
	return nil
}

// NewLogger builds the diagnostic logger writing to out.
func (l LogConfig) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}

	log := logrus.New()
	log.Out = out
	log.Level = level
	switch l.Format {
	case "json":
		log.Formatter = &logrus.JSONFormatter{}
	default:
		log.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	}
	return log, nil
}
