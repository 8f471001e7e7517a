// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.Browser.Headless, "posting must run headful so the user can log in and submit")
	assert.Equal(t, 120*time.Second, cfg.Posting.LoginTimeout)
	assert.Equal(t, 2*time.Second, cfg.Posting.LoginPollInterval)
	assert.NotEmpty(t, cfg.Targets)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero login timeout", func(c *Config) { c.Posting.LoginTimeout = 0 }, "login_timeout"},
		{"zero poll interval", func(c *Config) { c.Posting.LoginPollInterval = 0 }, "login_poll_interval"},
		{"poll longer than timeout", func(c *Config) {
			c.Posting.LoginPollInterval = 5 * time.Minute
		}, "exceeds"},
		{"no targets", func(c *Config) { c.Targets = nil }, "at least one"},
		{"target missing form url", func(c *Config) {
			c.Targets = []TargetConfig{{Name: "x"}}
		}, "form_url"},
		{"duplicate target names", func(c *Config) {
			c.Targets = append(c.Targets, c.Targets[0])
		}, "duplicate"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadLayersOverridesOnDefaults(t *testing.T) {
	v := viper.New()
	v.Set("posting.login_timeout", "30s")
	v.Set("logger.level", "debug")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Posting.LoginTimeout)
	assert.Equal(t, "debug", cfg.Logger.Level)
	// Untouched values keep their defaults.
	assert.Equal(t, 2*time.Second, cfg.Posting.LoginPollInterval)
}

func TestIsLoginURL(t *testing.T) {
	target := TargetConfig{
		Name:            "m",
		FormURL:         "https://m.test/create",
		LoginIndicators: []string{"login", "checkpoint"},
	}

	assert.True(t, target.IsLoginURL("https://m.test/login?next=create"))
	assert.True(t, target.IsLoginURL("https://m.test/CHECKPOINT/2fa"))
	assert.False(t, target.IsLoginURL("https://m.test/create/item"))
	assert.False(t, target.IsLoginURL(""))

	none := TargetConfig{Name: "n", FormURL: "https://n.test"}
	assert.False(t, none.IsLoginURL("https://n.test/login"), "no indicators means no login detection")
}

func TestTargetLookup(t *testing.T) {
	cfg := Default()
	got, ok := cfg.Target(cfg.Targets[0].Name)
	require.True(t, ok)
	assert.Equal(t, cfg.Targets[0].FormURL, got.FormURL)

	_, ok = cfg.Target("nope")
	assert.False(t, ok)
}
