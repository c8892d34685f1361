package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Worker   WorkerConfig   `mapstructure:"worker" validate:"required"`
	Helper   HelperConfig   `mapstructure:"helper" validate:"required"`
	Settings SettingsConfig `mapstructure:"settings" validate:"required"`
	Probe    ProbeConfig    `mapstructure:"probe"`
	App      AppConfig      `mapstructure:"app" validate:"required"`
}

// ServerConfig contains the status API listener and logging settings.
type ServerConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"required,oneof=json text"`
}

// Address returns the host:port the status API listens on.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WorkerConfig sizes the background worker.
type WorkerConfig struct {
	// Count is the number of goroutines executing actions.
	Count int `mapstructure:"count" validate:"gte=1,lte=64"`
	// QueueSize is the capacity of the job queue.
	QueueSize int `mapstructure:"queue_size" validate:"gte=1"`
}

// HelperConfig configures both ends of the privileged helper channel.
type HelperConfig struct {
	// Addr is where the helper daemon listens.
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`
	// URL is where the worker reaches the helper.
	URL string `mapstructure:"url" validate:"required,url"`
	// Secret signs and verifies helper bearer tokens.
	Secret        string        `mapstructure:"secret" validate:"required,min=32"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"gt=0"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// MinProtocol is the oldest helper protocol revision the worker accepts.
	MinProtocol int `mapstructure:"min_protocol" validate:"gte=1"`
	// InstallDir is where the helper daemon places boot UI files.
	InstallDir string `mapstructure:"install_dir" validate:"required"`
}

// SettingsConfig selects the preference store backend.
type SettingsConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=sqlite pgx memory"`
	DSN    string `mapstructure:"dsn" validate:"required_unless=Driver memory"`
}

// ProbeConfig controls device support detection.
type ProbeConfig struct {
	// Platforms lists the host platforms (as reported by the OS) that
	// support boot UI. An empty list falls back to the built-in list.
	Platforms []string `mapstructure:"platforms"`
	// Force skips detection and reports boot UI as supported.
	Force bool `mapstructure:"force"`
}

// AppConfig holds application identity.
type AppConfig struct {
	// Build is the boot UI version shipped with this build.
	Build string `mapstructure:"build" validate:"required"`
}
