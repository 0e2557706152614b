// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	// DatabaseURL is the key-value appointment store; the per-country URLs
	// are the relational enrichment stores.
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	PEDatabaseURL string `mapstructure:"PE_DATABASE_URL"`
	CLDatabaseURL string `mapstructure:"CL_DATABASE_URL"`

	LifecycleTopic string `mapstructure:"LIFECYCLE_TOPIC"`
	CompletionBus  string `mapstructure:"COMPLETION_BUS"`

	WorkerBatchSize int           `mapstructure:"WORKER_BATCH_SIZE"`
	MaxReceiveCount int           `mapstructure:"MAX_RECEIVE_COUNT"`
	EnrichmentDelay time.Duration `mapstructure:"ENRICHMENT_DELAY"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LIFECYCLE_TOPIC", "appointment-lifecycle")
	v.SetDefault("COMPLETION_BUS", "appointment-events")
	v.SetDefault("WORKER_BATCH_SIZE", 10)
	v.SetDefault("MAX_RECEIVE_COUNT", 3)
	v.SetDefault("ENRICHMENT_DELAY", "1s")

	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("PE_DATABASE_URL")
	v.BindEnv("CL_DATABASE_URL")
	v.BindEnv("LIFECYCLE_TOPIC")
	v.BindEnv("COMPLETION_BUS")
	v.BindEnv("WORKER_BATCH_SIZE")
	v.BindEnv("MAX_RECEIVE_COUNT")
	v.BindEnv("ENRICHMENT_DELAY")

	// Reading .env is best effort; the file is absent in most deployments.
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.WorkerBatchSize < 1 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be at least 1")
	}
	if cfg.MaxReceiveCount < 1 {
		return nil, fmt.Errorf("MAX_RECEIVE_COUNT must be at least 1")
	}
	return cfg, nil
}

// IsDev reports whether the process runs in development mode, which switches
// logging to the human-readable console writer.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// CountryDatabaseURL returns the enrichment-store URL for the country.
func (c *Config) CountryDatabaseURL(countryISO string) (string, error) {
	switch countryISO {
	case "PE":
		return c.PEDatabaseURL, nil
	case "CL":
		return c.CLDatabaseURL, nil
	}
	return "", fmt.Errorf("no database configured for country %q", countryISO)
}
