// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	t.Run("should produce a valid configuration", func(t *testing.T) {
		require.NoError(t, cfg.Validate())
	})

	t.Run("should carry the booking-site defaults", func(t *testing.T) {
		assert.Equal(t, "https://www.goethe.de/ins/ke/en/spr/prf/gzb2.cfm", cfg.Booking.StartURL)
		assert.Equal(t, 800*time.Millisecond, cfg.Booking.MaxRefreshDelay)
		assert.Equal(t, 200*time.Millisecond, cfg.Booking.StepWait)
		assert.Equal(t, 5*time.Second, cfg.Booking.StepTimeout)
		assert.Equal(t, 30*time.Second, cfg.Booking.ConfirmationTimeout)
		assert.Equal(t, ".pr-buttons button", cfg.Booking.FallbackButtonSelector)
		assert.Equal(t, "select modules", cfg.Booking.Texts.SelectModules)
		assert.Equal(t, "order, subject to change", cfg.Booking.Texts.OrderSubjectToChange)
	})

	t.Run("should default to a headed browser", func(t *testing.T) {
		assert.False(t, cfg.Browser.Headless)
		assert.Equal(t, 1280, cfg.Browser.ViewportWidth)
		assert.Equal(t, 800, cfg.Browser.ViewportHeight)
	})

	t.Run("should carry the alarm cadence", func(t *testing.T) {
		assert.Equal(t, 950, cfg.Alarm.BeepFrequency)
		assert.Equal(t, 2*time.Second, cfg.Alarm.BeepDuration)
		assert.Equal(t, time.Minute, cfg.Alarm.RepeatInterval)
	})
}

func TestNewConfigFromViper(t *testing.T) {
	t.Run("should honor overridden values", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("booking.max_refresh_delay", "250ms")
		v.Set("browser.headless", true)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, 250*time.Millisecond, cfg.Booking.MaxRefreshDelay)
		assert.True(t, cfg.Browser.Headless)
	})

	t.Run("should reject an invalid configuration", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("booking.start_url", "")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "start_url")
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero refresh delay", func(c *Config) { c.Booking.MaxRefreshDelay = 0 }},
		{"negative step timeout", func(c *Config) { c.Booking.StepTimeout = -time.Second }},
		{"zero beep duration", func(c *Config) { c.Alarm.BeepDuration = 0 }},
		{"zero repeat interval", func(c *Config) { c.Alarm.RepeatInterval = 0 }},
	}

	for _, tc := range cases {
		t.Run("should reject "+tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
