package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

const (
	defaultWeekStart = "monday"
	defaultRefresh   = "0 0 * * *"
	defaultLogLevel  = "ERROR"
)

// ICSConfig describes a local iCalendar file whose events are listed
// under the calendar.
type ICSConfig struct {
	// ID is used in logs; it defaults to Name, then Path.
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	Path string `yaml:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	// Locale overrides LC_ALL/LC_TIME/LANG for month and weekday names,
	// e.g. "de_DE". Empty means use the environment.
	Locale string `yaml:"locale"`

	// WeekStart is "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start"`

	// HighlightToday marks today in reverse video when writing to a
	// terminal. Nil means true.
	HighlightToday *bool `yaml:"highlight_today,omitempty"`

	// Timezone is the IANA zone used for "today" and for event times.
	// Empty means the local zone.
	Timezone string `yaml:"timezone"`

	// Refresh is the cron schedule used in follow mode.
	Refresh string `yaml:"refresh"`

	// LogLevel is DEBUG, INFO or ERROR.
	LogLevel string `yaml:"log_level"`

	ICS []ICSConfig `yaml:"ics"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in missing values and replaces unknown ones with
// defaults.
func (c *Config) Normalize() {
	switch ws := strings.ToLower(strings.TrimSpace(c.WeekStart)); ws {
	case "monday", "sunday":
		c.WeekStart = ws
	default:
		c.WeekStart = defaultWeekStart
	}
	if c.HighlightToday == nil {
		on := true
		c.HighlightToday = &on
	}
	if strings.TrimSpace(c.Refresh) == "" {
		c.Refresh = defaultRefresh
	}
	switch lvl := strings.ToUpper(strings.TrimSpace(c.LogLevel)); lvl {
	case "DEBUG", "INFO", "ERROR":
		c.LogLevel = lvl
	default:
		c.LogLevel = defaultLogLevel
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].ID == "" {
			c.ICS[i].ID = c.ICS[i].Name
		}
		if c.ICS[i].ID == "" {
			c.ICS[i].ID = c.ICS[i].Path
		}
	}
}

// Validate checks the values Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := cron.ParseStandard(c.Refresh); err != nil {
		return fmt.Errorf("config: refresh %q: %w", c.Refresh, err)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
		}
	}
	for i, src := range c.ICS {
		if src.Path == "" {
			return fmt.Errorf("config: ics[%d] (%s): path is empty", i, src.ID)
		}
	}
	return nil
}

// Location resolves Timezone, falling back to time.Local when empty.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Highlight reports whether today should be highlighted.
func (c *Config) Highlight() bool {
	return c.HighlightToday == nil || *c.HighlightToday
}

// DefaultPath is $XDG_CONFIG_HOME/moncal/config.yaml or the platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "moncal", "config.yaml")
}

// Load reads the YAML configuration at path. A missing file, or an empty
// path, yields the defaults; the file is never created. Relative ICS
// paths are resolved against the config file's directory.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i := range cfg.ICS {
		if !filepath.IsAbs(cfg.ICS[i].Path) {
			cfg.ICS[i].Path = filepath.Join(base, cfg.ICS[i].Path)
		}
	}
	return &cfg, nil
}
