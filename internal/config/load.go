package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for all environment variables read by Load,
// e.g. HELPDESK_DATABASE_URL, HELPDESK_SCHEDULER_TICK_INTERVAL.
const envPrefix = "HELPDESK"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over values from the config file, which takes precedence over
// defaults. Returns a populated Config or an error if loading or validation
// fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; everything can come from the
		// environment. Any other read error is a real failure.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	return &cfg, nil
}

// setDefaults registers default values for all settings that have a
// sensible one. The scheduler timezone deliberately defaults to UTC only as
// a placeholder; deployments are expected to set the organizational zone.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	// Registered empty so viper knows the key and AutomaticEnv can fill it;
	// validation rejects the empty value if nothing supplies a real URL.
	v.SetDefault("database.url", "")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.tick_interval", time.Minute)
	v.SetDefault("scheduler.timezone", "UTC")
}
