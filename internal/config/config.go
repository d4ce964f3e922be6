// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Booking BookingConfig `mapstructure:"booking" yaml:"booking"`
	Alarm   AlarmConfig   `mapstructure:"alarm" yaml:"alarm"`
	// Roster gets its marching orders from CLI flags, not the config file.
	Roster RosterConfig `mapstructure:"-" yaml:"-"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the browser instance.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	ViewportWidth     int           `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight    int           `mapstructure:"viewport_height" yaml:"viewport_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// BookingConfig tunes the poll loop and the step sequencer.
type BookingConfig struct {
	StartURL string `mapstructure:"start_url" yaml:"start_url"`
	// MaxRefreshDelay is the exclusive upper bound of the uniform random
	// delay inserted before each poll-loop reload.
	MaxRefreshDelay     time.Duration `mapstructure:"max_refresh_delay" yaml:"max_refresh_delay"`
	StepWait            time.Duration `mapstructure:"step_wait" yaml:"step_wait"`
	StepTimeout         time.Duration `mapstructure:"step_timeout" yaml:"step_timeout"`
	ConfirmationTimeout time.Duration `mapstructure:"confirmation_timeout" yaml:"confirmation_timeout"`
	// FallbackButtonSelector is the container scanned for any enabled button
	// when the primary control is absent.
	FallbackButtonSelector string       `mapstructure:"fallback_button_selector" yaml:"fallback_button_selector"`
	Texts                  TriggerTexts `mapstructure:"texts" yaml:"texts"`
}

// TriggerTexts are the case-insensitive labels that drive page transitions.
type TriggerTexts struct {
	SelectModules        string `mapstructure:"select_modules" yaml:"select_modules"`
	Continue             string `mapstructure:"continue" yaml:"continue"`
	BookForMyself        string `mapstructure:"book_for_myself" yaml:"book_for_myself"`
	Login                string `mapstructure:"login" yaml:"login"`
	OrderSubjectToChange string `mapstructure:"order_subject_to_change" yaml:"order_subject_to_change"`
	Confirmation         string `mapstructure:"confirmation" yaml:"confirmation"`
	PrivacyAccept        string `mapstructure:"privacy_accept" yaml:"privacy_accept"`
	PrivacyDeny          string `mapstructure:"privacy_deny" yaml:"privacy_deny"`
	PrivacySettings      string `mapstructure:"privacy_settings" yaml:"privacy_settings"`
}

// AlarmConfig controls the ring-until-acknowledged alert.
type AlarmConfig struct {
	BeepFrequency  int           `mapstructure:"beep_frequency" yaml:"beep_frequency"`
	BeepDuration   time.Duration `mapstructure:"beep_duration" yaml:"beep_duration"`
	RepeatInterval time.Duration `mapstructure:"repeat_interval" yaml:"repeat_interval"`
}

// RosterConfig holds settings populated from CLI flags for a specific run.
type RosterConfig struct {
	CSVPath   string
	EnvFile   string
	EnvOnly   bool
	IgnoreEnv bool
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "booker-cli")
	v.SetDefault("logger.log_file", "booker.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 0)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", false)

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.viewport_width", 1280)
	v.SetDefault("browser.viewport_height", 800)
	v.SetDefault("browser.navigation_timeout", "90s")

	// -- Booking --
	v.SetDefault("booking.start_url", "https://www.goethe.de/ins/ke/en/spr/prf/gzb2.cfm")
	v.SetDefault("booking.max_refresh_delay", "800ms")
	v.SetDefault("booking.step_wait", "200ms")
	v.SetDefault("booking.step_timeout", "5s")
	v.SetDefault("booking.confirmation_timeout", "30s")
	v.SetDefault("booking.fallback_button_selector", ".pr-buttons button")
	v.SetDefault("booking.texts.select_modules", "select modules")
	v.SetDefault("booking.texts.continue", "continue")
	v.SetDefault("booking.texts.book_for_myself", "book for myself")
	v.SetDefault("booking.texts.login", "log in")
	v.SetDefault("booking.texts.order_subject_to_change", "order, subject to change")
	v.SetDefault("booking.texts.confirmation", "You will receive email confirmation of your booking.")
	v.SetDefault("booking.texts.privacy_accept", "accept all")
	v.SetDefault("booking.texts.privacy_deny", "deny")
	v.SetDefault("booking.texts.privacy_settings", "settings")

	// -- Alarm --
	v.SetDefault("alarm.beep_frequency", 950)
	v.SetDefault("alarm.beep_duration", "2s")
	v.SetDefault("alarm.repeat_interval", "60s")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Booking.StartURL == "" {
		return fmt.Errorf("booking.start_url is a required configuration field")
	}
	if c.Booking.MaxRefreshDelay <= 0 {
		return fmt.Errorf("booking.max_refresh_delay must be a positive duration")
	}
	if c.Booking.StepTimeout <= 0 {
		return fmt.Errorf("booking.step_timeout must be a positive duration")
	}
	if c.Alarm.BeepDuration <= 0 {
		return fmt.Errorf("alarm.beep_duration must be a positive duration")
	}
	if c.Alarm.RepeatInterval <= 0 {
		return fmt.Errorf("alarm.repeat_interval must be a positive duration")
	}
	return nil
}
