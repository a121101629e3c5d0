package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// configValidate checks the struct tags below. Shared; validator caches
// struct metadata per instance.
var configValidate = validator.New()

// Config is the persistent application configuration
type Config struct {
	// UI preferences
	UI UIConfig `json:"ui"`

	// Timeline detail thresholds
	Detail DetailConfig `json:"detail"`

	// Recovery snapshots
	Autosave AutosaveConfig `json:"autosave"`

	// DataDir holds suss.db and the journal. Empty means ~/.suss.
	DataDir string `json:"data_dir,omitempty"`

	// LogLevel is passed to charmbracelet/log ("debug", "info", ...).
	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// Trace journals every UI message (SUSS_TRACE).
	Trace bool `json:"trace,omitempty"`
}

// UIConfig holds UI preferences
type UIConfig struct {
	Theme          string `json:"theme" validate:"oneof=dark light"`
	FrameMs        int    `json:"frame_ms" validate:"gte=10,lte=1000"`        // animation tick interval
	RotationPeriod int    `json:"rotation_period" validate:"gte=1,lte=10000"` // frames per timeline rotation
	MaxPoints      int    `json:"max_points" validate:"gte=100,lte=1000000"`  // timeline downsample cap
	HistoryRows    int    `json:"history_rows" validate:"gte=1,lte=100"`
}

// DetailConfig picks the timeline resolution for a dataset.
type DetailConfig struct {
	FullThreshold       int `json:"full_threshold" validate:"gte=1"`        // events at or under this: full resolution
	HighDetailThreshold int `json:"high_detail_threshold" validate:"gte=1"` // clusters at level 1 at or under this: level 2
}

// AutosaveConfig controls the recovery snapshotter.
type AutosaveConfig struct {
	Enabled         bool `json:"enabled"`
	IntervalSeconds int  `json:"interval_seconds" validate:"required_if=Enabled true,gte=0"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			Theme:          "dark",
			FrameMs:        40,
			RotationPeriod: 100,
			MaxPoints:      10000,
			HistoryRows:    12,
		},
		Detail: DetailConfig{
			FullThreshold:       30000,
			HighDetailThreshold: 500,
		},
		Autosave: AutosaveConfig{
			Enabled:         true,
			IntervalSeconds: 30,
		},
		LogLevel: "info",
	}
}

// Validate reports the first set of field errors, if any.
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Dir returns the data directory, defaulting to ~/.suss.
func (c *Config) Dir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".suss")
}

// DBPath returns the sqlite path inside Dir.
func (c *Config) DBPath() string {
	return filepath.Join(c.Dir(), "suss.db")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".suss", "config.json")
}

// Load reads config from ConfigPath, or returns defaults.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path. A missing file yields defaults. Fields
// absent from the file keep their default values. Environment overrides are
// applied before validation.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to path, creating the directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overrides fields from SUSS_* environment variables. Unparseable
// numbers are ignored.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SUSS_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("SUSS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("SUSS_THEME"); v != "" {
		c.UI.Theme = v
	}
	setInt(&c.UI.FrameMs, "SUSS_FRAME_MS")
	setInt(&c.UI.MaxPoints, "SUSS_MAX_POINTS")
	setInt(&c.Autosave.IntervalSeconds, "SUSS_AUTOSAVE_SECONDS")
	if v := os.Getenv("SUSS_TRACE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Trace = b
		}
	}
	if v := os.Getenv("SUSS_AUTOSAVE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Autosave.Enabled = b
		}
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
