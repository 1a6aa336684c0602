package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"daygrid/internal/layout"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// WindowConfig is the YAML shape of the day window: which slice of the day
// the timeline draws. The date itself comes per request, not from config.
type WindowConfig struct {
	// StartHour is the first hour drawn at the top (0-23).
	StartHour int `yaml:"start_hour" json:"start_hour"`
	// TotalHours is how many hours the window spans (1-24).
	TotalHours int `yaml:"total_hours" json:"total_hours"`
}

// StyleConfig is the YAML shape of the layout metrics.
type StyleConfig struct {
	HourHeight    float64 `yaml:"hour_height" json:"hour_height"`
	VerticalInset float64 `yaml:"vertical_inset" json:"vertical_inset"`
	LeadingInset  float64 `yaml:"leading_inset" json:"leading_inset"`
	TrailingInset float64 `yaml:"trailing_inset" json:"trailing_inset"`
	LabelWidth    float64 `yaml:"label_width" json:"label_width"`
	EventGap      float64 `yaml:"event_gap" json:"event_gap"`
	SplitMinutes  int     `yaml:"split_minutes" json:"split_minutes"`
	// Policy is "stack" (default) or "cascade".
	Policy string `yaml:"policy" json:"policy"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA display timezone (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") driving
	// the periodic fetch+render cycle.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Width is the drawable width in pixels handed to the layout engine
	// and used as the capture viewport width.
	Width float64 `yaml:"width" json:"width"`

	Window WindowConfig `yaml:"window" json:"window"`
	Style  StyleConfig  `yaml:"style" json:"style"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	def := layout.DefaultStyle()
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "UTC",
		RefreshCron: "*/15 * * * *",
		Width:       480,
		Window: WindowConfig{
			StartHour:  0,
			TotalHours: 24,
		},
		Style: StyleConfig{
			HourHeight:    def.HourHeight,
			VerticalInset: def.VerticalInset,
			LeadingInset:  def.LeadingInset,
			TrailingInset: def.TrailingInset,
			LabelWidth:    def.LabelWidth,
			EventGap:      def.EventGap,
			SplitMinutes:  def.SplitMinutes,
			Policy:        def.Policy.String(),
		},
		ICS:       []ICSConfig{},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Window.TotalHours == 0 {
		c.Window = def.Window
	}
	if c.Style.HourHeight == 0 {
		c.Style.HourHeight = def.Style.HourHeight
	}
	if c.Style.SplitMinutes == 0 {
		c.Style.SplitMinutes = def.Style.SplitMinutes
	}
	if c.Style.LabelWidth == 0 {
		c.Style.LabelWidth = def.Style.LabelWidth
	}
	if c.Style.Policy == "" {
		c.Style.Policy = def.Style.Policy
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Validate rejects configurations the layout geometry cannot work with.
// Failing here is deliberate: a zero hour height or split interval would
// otherwise surface much later as NaN rectangles.
func (c *Config) Validate() error {
	if err := c.LayoutStyle().Validate(); err != nil {
		return fmt.Errorf("config: style: %w", err)
	}
	if err := c.DayWindowFor().Validate(); err != nil {
		return fmt.Errorf("config: window: %w", err)
	}
	if c.Width <= 0 {
		return fmt.Errorf("config: width must be positive, got %v", c.Width)
	}
	return nil
}

// LayoutStyle converts the YAML style section into the layout type.
func (c *Config) LayoutStyle() layout.Style {
	return layout.Style{
		HourHeight:    c.Style.HourHeight,
		VerticalInset: c.Style.VerticalInset,
		LeadingInset:  c.Style.LeadingInset,
		TrailingInset: c.Style.TrailingInset,
		LabelWidth:    c.Style.LabelWidth,
		EventGap:      c.Style.EventGap,
		SplitMinutes:  c.Style.SplitMinutes,
		Policy:        layout.ParsePolicy(c.Style.Policy),
	}
}

// DayWindowFor returns the configured hour window without a date; the
// caller fills in the date per layout pass.
func (c *Config) DayWindowFor() layout.DayWindow {
	return layout.DayWindow{
		StartHour:  c.Window.StartHour,
		TotalHours: c.Window.TotalHours,
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there
//     (parent directory created, 0600 perms) and returned.
//   - If the file exists, it is unmarshalled, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to path atomically: temp file in the same
// directory, fsync, chmod 0600, rename over the target.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".daygrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
