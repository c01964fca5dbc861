package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// SchedulerConfig contains the recurring task engine's settings.
//
// Enabled gates the background scheduler entirely: test and CI processes run
// with it off so short-lived processes never leak background timers.
// TickInterval is coarse by design; sub-minute due instants are picked up on
// the next whole tick. Timezone is the single IANA zone every template's
// cron expression is evaluated in; it should match the organization's
// locale, not default blindly to UTC.
type SchedulerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	TickInterval time.Duration `mapstructure:"tick_interval" validate:"required,min=1s"`
	Timezone     string        `mapstructure:"timezone"      validate:"required"`
}
