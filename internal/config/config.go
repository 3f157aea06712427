package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"planview/internal/ics"
	"planview/internal/normalize"
	"planview/internal/view"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// ID is an internal identifier used in record refs and logging.
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the web API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CaptureConfig sizes the headless browser screenshot.
type CaptureConfig struct {
	Width   int           `yaml:"width" json:"width"`
	Height  int           `yaml:"height" json:"height"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`

	// Mono reduces screenshots to black and red ink for e-paper or print.
	Mono bool `yaml:"mono" json:"mono"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API and HTML views.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone dates are read and displayed in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is "monday" (default) or "sunday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron is a standard 5-field cron spec for reloading sources.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// VaultDir holds the markdown notes. Relative paths resolve against the
	// config file's directory.
	VaultDir string `yaml:"vault_dir" json:"vault_dir"`
	DBPath   string `yaml:"db_path" json:"db_path"`
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// TimestampUnit says how bare numbers in date properties are read: "ms" or "s".
	TimestampUnit string `yaml:"timestamp_unit" json:"timestamp_unit"`

	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	Views []view.Config `yaml:"views" json:"views"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// dir is where the config file lives; not serialized.
	dir string
}

// DefaultConfig returns an in-memory default configuration with one view of
// each kind over the vault.
func DefaultConfig() *Config {
	c := &Config{
		Views: []view.Config{
			{Name: "timeline", Kind: view.KindGantt, GroupBy: "project"},
			{Name: "calendar", Kind: view.KindCalendar},
			{Name: "board", Kind: view.KindBoard, Columns: []string{"todo", "doing", "done"}},
		},
	}
	c.Normalize()
	return c
}

// Normalize fills in missing values so partially written configs still work.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	switch strings.ToLower(c.WeekStart) {
	case "sunday":
		c.WeekStart = "sunday"
	default:
		c.WeekStart = "monday"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.VaultDir == "" {
		c.VaultDir = "vault"
	}
	if c.DBPath == "" {
		c.DBPath = "planview.db"
	}
	if c.CacheDir == "" {
		c.CacheDir = "cache"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.TimestampUnit == "" {
		c.TimestampUnit = string(normalize.UnitMilliseconds)
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Views == nil {
		c.Views = []view.Config{}
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = 1280
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = 800
	}
	if c.Capture.Timeout <= 0 {
		c.Capture.Timeout = 20 * time.Second
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		errs = append(errs, fmt.Errorf("refresh: %w", err))
	}
	if _, err := normalize.ParseTimestampUnit(c.TimestampUnit); err != nil {
		errs = append(errs, fmt.Errorf("timestamp_unit: %w", err))
	}

	ids := map[string]bool{}
	for i, src := range c.ICS {
		if src.ID == "" || src.URL == "" {
			errs = append(errs, fmt.Errorf("ics[%d]: id and url are required", i))
			continue
		}
		if ids[src.ID] {
			errs = append(errs, fmt.Errorf("ics[%d]: duplicate id %q", i, src.ID))
		}
		ids[src.ID] = true
	}

	names := map[string]bool{}
	for i := range c.Views {
		c.Views[i] = c.Views[i].WithDefaults()
		v := &c.Views[i]
		if err := v.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("views[%d]: %w", i, err))
			continue
		}
		if names[v.Name] {
			errs = append(errs, fmt.Errorf("views[%d]: duplicate name %q", i, v.Name))
		}
		names[v.Name] = true
	}
	return errors.Join(errs...)
}

// Location returns the configured zone, or UTC when it cannot be loaded.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Weekday() time.Weekday {
	if c.WeekStart == "sunday" {
		return time.Sunday
	}
	return time.Monday
}

// Normalizer builds the value normalizer for this config.
func (c *Config) Normalizer() normalize.Normalizer {
	unit, err := normalize.ParseTimestampUnit(c.TimestampUnit)
	if err != nil {
		unit = normalize.UnitMilliseconds
	}
	return normalize.Normalizer{Location: c.Location(), TimestampUnit: unit}
}

// View looks a view up by name.
func (c *Config) View(name string) (view.Config, bool) {
	for _, v := range c.Views {
		if v.Name == name {
			return v.WithDefaults(), true
		}
	}
	return view.Config{}, false
}

// Sources converts the ICS entries for the feed fetcher.
func (c *Config) Sources() []ics.Source {
	out := make([]ics.Source, 0, len(c.ICS))
	for _, s := range c.ICS {
		out = append(out, ics.Source{ID: s.ID, Name: s.Name, URL: s.URL})
	}
	return out
}

// Path resolves p against the config file's directory.
func (c *Config) Path(p string) string {
	if p == "" || p == ":memory:" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Load loads configuration from the given YAML path. A missing file is
// created with defaults (mode 0600) and those defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			cfg.dir = filepath.Dir(path)
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()
	cfg.dir = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path atomically with 0600 permissions, creating the
// parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return err
	}
	return os.Chmod(path, 0o600)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
