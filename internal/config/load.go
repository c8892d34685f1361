package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/bootui/internal/version"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable Load consults.
const EnvPrefix = "BOOTUI"

// Load configuration from defaults, an optional config file and environment
// variables. Environment variables take precedence over values from the
// config file. An empty path skips the file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")

	v.SetDefault("worker.count", 2)
	v.SetDefault("worker.queue_size", 16)

	v.SetDefault("helper.addr", "127.0.0.1:8731")
	v.SetDefault("helper.url", "http://127.0.0.1:8731")
	// No usable default; registered so the environment can supply it.
	v.SetDefault("helper.secret", "")
	v.SetDefault("helper.token_lifetime", 5*time.Minute)
	v.SetDefault("helper.timeout", 30*time.Second)
	v.SetDefault("helper.min_protocol", 1)
	v.SetDefault("helper.install_dir", "bootui-data/helper")

	v.SetDefault("settings.driver", "sqlite")
	v.SetDefault("settings.dsn", "file:bootui-settings.db")

	v.SetDefault("probe.platforms", []string{})
	v.SetDefault("probe.force", false)

	v.SetDefault("app.build", version.Build)
}
