// Package config provides layered configuration loading.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/milanvijay6/globalreach-exporter-lead-automator-sub004/internal/governor/core"
)

// Config holds every governor tunable. Values come from defaults, an
// optional YAML file, and GOVERNOR_* environment variables, in that order.
type Config struct {
	HTTPListenAddr   string        `mapstructure:"http_listen_addr"`
	HTTPReadTimeout  time.Duration `mapstructure:"http_read_timeout"`
	HTTPWriteTimeout time.Duration `mapstructure:"http_write_timeout"`
	HTTPIdleTimeout  time.Duration `mapstructure:"http_idle_timeout"`
	MaxBodyBytes     int64         `mapstructure:"max_body_bytes"`
	EnableAuth       bool          `mapstructure:"enable_auth"`
	AdminToken       string        `mapstructure:"admin_token"`
	LogLevel         string        `mapstructure:"log_level"`

	HourlyLimit int64 `mapstructure:"hourly_limit"`
	DailyLimit  int64 `mapstructure:"daily_limit"`

	HistorySize      int           `mapstructure:"history_size"`
	MaxWarnings      int           `mapstructure:"max_warnings"`
	WarningRetention time.Duration `mapstructure:"warning_retention"`
	RewarnCooldown   time.Duration `mapstructure:"rewarn_cooldown"`

	RiskInterval    time.Duration `mapstructure:"risk_interval"`
	RiskMediumAt    int           `mapstructure:"risk_medium_at"`
	RiskHighAt      int           `mapstructure:"risk_high_at"`
	RiskCriticalAt  int           `mapstructure:"risk_critical_at"`
	WeightVolume    float64       `mapstructure:"weight_volume"`
	WeightSpeed     float64       `mapstructure:"weight_speed"`
	WeightContent   float64       `mapstructure:"weight_content"`
	WeightTiming    float64       `mapstructure:"weight_timing"`
	WeightWarnings  float64       `mapstructure:"weight_warnings"`

	DrainInterval    time.Duration `mapstructure:"drain_interval"`
	QueueMaxAttempts int           `mapstructure:"queue_max_attempts"`
	QueueBackoffBase time.Duration `mapstructure:"queue_backoff_base"`
	QueueBackoffMax  time.Duration `mapstructure:"queue_backoff_max"`
	QueueSendTimeout time.Duration `mapstructure:"queue_send_timeout"`
	QueueDrainRate   float64       `mapstructure:"queue_drain_rate"`
	QueuePath        string        `mapstructure:"queue_path"`

	RedisAddr      string `mapstructure:"redis_addr"`
	RedisKeyPrefix string `mapstructure:"redis_key_prefix"`
}

// LoadOptions controls config loading.
type LoadOptions struct {
	ConfigPath string
}

// Load reads configuration from defaults, an optional file, and the
// environment. Invalid values are rejected here so a bad config never
// replaces a working one.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("GOVERNOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if opts.ConfigPath != "" {
		v.SetConfigFile(opts.ConfigPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, core.Wrap(core.CodeConfigInvalid, "config file unreadable", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, core.Wrap(core.CodeConfigInvalid, "config unmarshal failed", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http_listen_addr", ":8080")
	v.SetDefault("http_read_timeout", 5*time.Second)
	v.SetDefault("http_write_timeout", 10*time.Second)
	v.SetDefault("http_idle_timeout", 60*time.Second)
	v.SetDefault("max_body_bytes", 1<<20)
	v.SetDefault("log_level", "info")

	v.SetDefault("hourly_limit", core.DefaultHourlyLimit)
	v.SetDefault("daily_limit", core.DefaultDailyLimit)

	v.SetDefault("history_size", core.DefaultHistorySize)
	v.SetDefault("max_warnings", core.DefaultMaxWarnings)
	v.SetDefault("warning_retention", core.DefaultWarningRetention)
	v.SetDefault("rewarn_cooldown", core.DefaultRewarnCooldown)

	v.SetDefault("risk_interval", 30*time.Second)
	v.SetDefault("risk_medium_at", 40)
	v.SetDefault("risk_high_at", 65)
	v.SetDefault("risk_critical_at", 85)
	weights := core.DefaultRiskWeights()
	v.SetDefault("weight_volume", weights.MessageVolume)
	v.SetDefault("weight_speed", weights.MessageSpeed)
	v.SetDefault("weight_content", weights.ContentUniqueness)
	v.SetDefault("weight_timing", weights.TimingPatterns)
	v.SetDefault("weight_warnings", weights.RecentWarnings)

	v.SetDefault("drain_interval", 5*time.Second)
	v.SetDefault("queue_max_attempts", 5)
	v.SetDefault("queue_backoff_base", 2*time.Second)
	v.SetDefault("queue_backoff_max", 5*time.Minute)
	v.SetDefault("queue_send_timeout", 30*time.Second)
	v.SetDefault("queue_drain_rate", 0.0)

	v.SetDefault("redis_key_prefix", "governor")
}

// Validate rejects configurations the governor cannot run with.
func (cfg *Config) Validate() error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if cfg.HourlyLimit <= 0 || cfg.DailyLimit <= 0 {
		return core.Wrap(core.CodeConfigInvalid, "limits must be positive", nil)
	}
	if cfg.DailyLimit < cfg.HourlyLimit {
		return core.Wrap(core.CodeConfigInvalid, "daily limit must be at least the hourly limit", nil)
	}
	thresholds := cfg.Thresholds()
	if !thresholds.Valid() {
		return core.Wrap(core.CodeConfigInvalid, "risk thresholds must be monotonic and within 0-100", nil)
	}
	if cfg.WeightVolume < 0 || cfg.WeightSpeed < 0 || cfg.WeightContent < 0 || cfg.WeightTiming < 0 || cfg.WeightWarnings < 0 {
		return core.Wrap(core.CodeConfigInvalid, "risk weights must be non-negative", nil)
	}
	if cfg.WeightVolume+cfg.WeightSpeed+cfg.WeightContent+cfg.WeightTiming+cfg.WeightWarnings <= 0 {
		return core.Wrap(core.CodeConfigInvalid, "at least one risk weight must be positive", nil)
	}
	if cfg.QueueMaxAttempts <= 0 {
		return core.Wrap(core.CodeConfigInvalid, "queue max attempts must be positive", nil)
	}
	if cfg.QueueBackoffBase <= 0 || cfg.QueueBackoffMax < cfg.QueueBackoffBase {
		return core.Wrap(core.CodeConfigInvalid, "queue backoff bounds are invalid", nil)
	}
	if cfg.QueueSendTimeout <= 0 {
		return core.Wrap(core.CodeConfigInvalid, "queue send timeout must be positive", nil)
	}
	if cfg.DrainInterval <= 0 || cfg.RiskInterval <= 0 {
		return core.Wrap(core.CodeConfigInvalid, "task intervals must be positive", nil)
	}
	if cfg.EnableAuth && cfg.AdminToken == "" {
		return core.Wrap(core.CodeConfigInvalid, "admin token is required when auth is enabled", nil)
	}
	return nil
}

// Weights returns the configured risk factor weights.
func (cfg *Config) Weights() core.RiskWeights {
	return core.RiskWeights{
		MessageVolume:     cfg.WeightVolume,
		MessageSpeed:      cfg.WeightSpeed,
		ContentUniqueness: cfg.WeightContent,
		TimingPatterns:    cfg.WeightTiming,
		RecentWarnings:    cfg.WeightWarnings,
	}
}

// Thresholds returns the configured risk level cut points.
func (cfg *Config) Thresholds() core.RiskThresholds {
	return core.RiskThresholds{
		Medium:   cfg.RiskMediumAt,
		High:     cfg.RiskHighAt,
		Critical: cfg.RiskCriticalAt,
	}
}

// QueuePolicy returns the configured queue retry policy.
func (cfg *Config) QueuePolicy() core.QueuePolicy {
	return core.QueuePolicy{
		MaxAttempts: cfg.QueueMaxAttempts,
		BackoffBase: cfg.QueueBackoffBase,
		BackoffMax:  cfg.QueueBackoffMax,
		SendTimeout: cfg.QueueSendTimeout,
		DrainRate:   cfg.QueueDrainRate,
	}
}
