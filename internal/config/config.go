package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Telegram  TelegramConfig  `mapstructure:"telegram"  validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// TelegramConfig contains the Bot API credentials and endpoint used by the
// messaging gateway.
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" validate:"required"`
	// APIBaseURL allows pointing the gateway at a local Bot API server or a
	// test double. Defaults to the public endpoint when empty.
	APIBaseURL string `mapstructure:"api_base_url" validate:"omitempty,url"`
}

// SchedulerConfig consolidates every knob of the review scheduling core:
// tick cadence, batch sizing, the interval engine's limits and the
// timeout/recovery policy.
type SchedulerConfig struct {
	// ScanInterval is the period between due-card scans.
	ScanInterval time.Duration `mapstructure:"scan_interval" validate:"required"`

	// BatchSize bounds how many due cards a single tick processes.
	BatchSize int `mapstructure:"batch_size" validate:"required,gt=0"`

	// InitialDelayMinutes is how soon after activation a brand-new card
	// surfaces for its first rehearsal.
	InitialDelayMinutes int `mapstructure:"initial_delay_minutes" validate:"required,gt=0"`

	// AwaitingGradeTimeout bounds how long a card may sit awaiting a grade
	// before the sweeper reverts it to learning.
	AwaitingGradeTimeout time.Duration `mapstructure:"awaiting_grade_timeout" validate:"required"`

	// DeliveryRetryBackoff is how far a card is pushed out after a failed
	// delivery attempt.
	DeliveryRetryBackoff time.Duration `mapstructure:"delivery_retry_backoff" validate:"required"`

	// MaxIntervalDays caps the interval produced by any policy.
	MaxIntervalDays int `mapstructure:"max_interval_days" validate:"required,gt=0"`

	// AdaptivePolicy selects which adaptive interval policy governs cards in
	// adaptive mode: "ease" (four-grade, SM-2 style) or "ladder" (two-grade,
	// fixed ladder).
	AdaptivePolicy string `mapstructure:"adaptive_policy" validate:"required,oneof=ease ladder"`

	// IntervalLadder is the day ladder used by the ladder policy, indexed by
	// repetition count.
	IntervalLadder []int `mapstructure:"interval_ladder" validate:"required,min=1,dive,gt=0"`

	// DefaultReminderMode is assigned to cards created without an explicit
	// mode: "adaptive", "fixed_daily" or "fixed_weekly".
	DefaultReminderMode string `mapstructure:"default_reminder_mode" validate:"required,oneof=adaptive fixed_daily fixed_weekly"`
}
