// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Posting PostingConfig  `mapstructure:"posting" yaml:"posting"`
	Journal JournalConfig  `mapstructure:"journal" yaml:"journal"`
	Targets []TargetConfig `mapstructure:"targets" yaml:"targets"`
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

// BrowserConfig holds settings for the controlled browser surface. Posting is
// always headful: the user must be able to log in and press submit themselves.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	Humanoid          HumanoidConfig `mapstructure:"humanoid" yaml:"humanoid"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// HumanoidConfig tunes the input-simulation timing. Synthetic input with
// uniform or instant timing is a known automation signal some marketplace
// forms detect and reject.
type HumanoidConfig struct {
	// Inter-key delay: sampled from a normal distribution, clamped at Min.
	KeyDelayMeanMs   float64 `mapstructure:"key_delay_mean_ms" yaml:"key_delay_mean_ms"`
	KeyDelayStdDevMs float64 `mapstructure:"key_delay_stddev_ms" yaml:"key_delay_stddev_ms"`
	KeyDelayMinMs    float64 `mapstructure:"key_delay_min_ms" yaml:"key_delay_min_ms"`
	// Hold window between pointer-down and pointer-up.
	ClickHoldMinMs int `mapstructure:"click_hold_min_ms" yaml:"click_hold_min_ms"`
	ClickHoldMaxMs int `mapstructure:"click_hold_max_ms" yaml:"click_hold_max_ms"`
	// Pointer approach: number of intermediate move events and the amplitude
	// of the perlin noise applied to them.
	MoveSteps       int     `mapstructure:"move_steps" yaml:"move_steps"`
	PerlinAmplitude float64 `mapstructure:"perlin_amplitude" yaml:"perlin_amplitude"`
}

// PostingConfig carries the session controller's timing policy. The login wait
// is the only long timeout; everything else is a short, bounded settle delay.
type PostingConfig struct {
	LoginTimeout      time.Duration `mapstructure:"login_timeout" yaml:"login_timeout"`
	LoginPollInterval time.Duration `mapstructure:"login_poll_interval" yaml:"login_poll_interval"`
	FormSettleDelay   time.Duration `mapstructure:"form_settle_delay" yaml:"form_settle_delay"`
	FieldSettleDelay  time.Duration `mapstructure:"field_settle_delay" yaml:"field_settle_delay"`
	// FallbackDir is where images are exported when no upload affordance is
	// found, relative to the user's home directory. Fixed and documented so
	// the user can find manually-uploaded images.
	FallbackDir string `mapstructure:"fallback_dir" yaml:"fallback_dir"`
}

// JournalConfig configures the posting-attempt journal.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// TargetConfig describes one marketplace destination.
type TargetConfig struct {
	Name    string `mapstructure:"name" yaml:"name"`
	FormURL string `mapstructure:"form_url" yaml:"form_url"`
	// LoginIndicators are URL fragments that mark a login or checkpoint wall.
	LoginIndicators []string `mapstructure:"login_indicators" yaml:"login_indicators"`
	LoginURL        string   `mapstructure:"login_url" yaml:"login_url"`
}

// IsLoginURL reports whether the given URL indicates a login/checkpoint page.
func (t TargetConfig) IsLoginURL(url string) bool {
	lower := strings.ToLower(url)
	for _, ind := range t.LoginIndicators {
		if ind != "" && strings.Contains(lower, strings.ToLower(ind)) {
			return true
		}
	}
	return false
}

// Default returns the configuration used when no file or env overrides exist.
func Default() Config {
	return Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "llatria",
			MaxSize:     10,
			MaxBackups:  3,
			MaxAge:      7,
			Colors: ColorConfig{
				Debug: "cyan", Info: "green", Warn: "yellow",
				Error: "red", DPanic: "magenta", Panic: "magenta", Fatal: "red",
			},
		},
		Browser: BrowserConfig{
			Headless:          false,
			Viewport:          map[string]int{"width": 1280, "height": 900},
			NavigationTimeout: 60 * time.Second,
			Humanoid: HumanoidConfig{
				KeyDelayMeanMs:   70,
				KeyDelayStdDevMs: 28,
				KeyDelayMinMs:    35,
				ClickHoldMinMs:   50,
				ClickHoldMaxMs:   120,
				MoveSteps:        12,
				PerlinAmplitude:  2.5,
			},
		},
		Posting: PostingConfig{
			LoginTimeout:      120 * time.Second,
			LoginPollInterval: 2 * time.Second,
			FormSettleDelay:   3 * time.Second,
			FieldSettleDelay:  500 * time.Millisecond,
			FallbackDir:       "Pictures/llatria-uploads",
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "llatria.db",
		},
		Targets: []TargetConfig{
			{
				Name:            "facebook-marketplace",
				FormURL:         "https://www.facebook.com/marketplace/create/item",
				LoginIndicators: []string{"login", "checkpoint"},
				LoginURL:        "https://www.facebook.com/login",
			},
		},
	}
}

// Load reads configuration via viper, layering file and env values over the
// defaults. A missing config file is not an error.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the controller cannot run with.
func (c *Config) Validate() error {
	if c.Posting.LoginTimeout <= 0 {
		return fmt.Errorf("posting.login_timeout must be positive")
	}
	if c.Posting.LoginPollInterval <= 0 {
		return fmt.Errorf("posting.login_poll_interval must be positive")
	}
	if c.Posting.LoginPollInterval > c.Posting.LoginTimeout {
		return fmt.Errorf("posting.login_poll_interval exceeds posting.login_timeout")
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one posting target must be configured")
	}
	seen := make(map[string]bool, len(c.Targets))
	for _, t := range c.Targets {
		if t.Name == "" || t.FormURL == "" {
			return fmt.Errorf("target entries need both a name and a form_url")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate target name %q", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// Target looks up a configured marketplace by name.
func (c *Config) Target(name string) (TargetConfig, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return TargetConfig{}, false
}
