package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load reads configuration from an optional config file and from environment
// variables. Environment variables use the ILB_ prefix with underscores for
// nesting (e.g. ILB_DATABASE_URL, ILB_SCHEDULER_BATCH_SIZE) and take
// precedence over values from the config file.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("ILB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars may carry everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults establishes reasonable defaults so a minimal deployment only
// needs to supply the database URL and the bot token.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	// Registered empty so AutomaticEnv can populate them; validation still
	// rejects a config that leaves them blank.
	v.SetDefault("database.url", "")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.api_base_url", "")

	v.SetDefault("scheduler.scan_interval", time.Minute)
	v.SetDefault("scheduler.batch_size", 20)
	v.SetDefault("scheduler.initial_delay_minutes", 10)
	v.SetDefault("scheduler.awaiting_grade_timeout", 12*time.Hour)
	v.SetDefault("scheduler.delivery_retry_backoff", time.Hour)
	v.SetDefault("scheduler.max_interval_days", 365)
	v.SetDefault("scheduler.adaptive_policy", "ease")
	v.SetDefault("scheduler.interval_ladder", []int{1, 3, 7, 14, 30})
	v.SetDefault("scheduler.default_reminder_mode", "adaptive")
}
