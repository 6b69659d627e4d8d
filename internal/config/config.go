// Package config loads Textloom configuration.
//
// Settings come from three layers, later layers overriding earlier ones:
// built-in defaults, an optional config file (TOML or YAML, chosen by
// extension), and TEXTLOOM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/textloom/internal/engine/history"
)

var (
	// ErrUnknownFormat is returned for config files whose extension is
	// neither TOML nor YAML.
	ErrUnknownFormat = errors.New("config: unknown file format")
	// ErrInvalidValue is returned when a setting is out of range.
	ErrInvalidValue = errors.New("config: invalid value")
)

// History configures the undo system.
type History struct {
	// MinDepth is the number of closed undo steps kept before pruning.
	MinDepth int `toml:"min_depth" yaml:"min_depth"`
	// NewGroupDelayMS is the idle gap in milliseconds after which a new
	// edit starts a fresh undo group.
	NewGroupDelayMS int `toml:"new_group_delay_ms" yaml:"new_group_delay_ms"`
	// PreserveItems disables undo-group merging.
	PreserveItems bool `toml:"preserve_items" yaml:"preserve_items"`
}

// Document configures document behavior.
type Document struct {
	ReadOnly bool `toml:"read_only" yaml:"read_only"`
}

// Config is the full Textloom configuration.
type Config struct {
	History  History  `toml:"history" yaml:"history"`
	Document Document `toml:"document" yaml:"document"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		History: History{
			MinDepth:        100,
			NewGroupDelayMS: 500,
		},
	}
}

// Load builds the configuration from defaults, the given file and the
// environment. An empty path or a missing file skips the file layer.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// HistoryConfig converts the history section for the engine.
func (c Config) HistoryConfig() history.Config {
	return history.Config{
		MinDepth:      c.History.MinDepth,
		NewGroupDelay: time.Duration(c.History.NewGroupDelayMS) * time.Millisecond,
		PreserveItems: c.History.PreserveItems,
	}
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, not an error
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	switch filepath.Ext(path) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return nil
}

// applyEnv overrides settings from TEXTLOOM_* environment variables.
func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("TEXTLOOM_HISTORY_MIN_DEPTH"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: TEXTLOOM_HISTORY_MIN_DEPTH=%q", ErrInvalidValue, v)
		}
		cfg.History.MinDepth = n
	}
	if v, ok := os.LookupEnv("TEXTLOOM_HISTORY_NEW_GROUP_DELAY_MS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: TEXTLOOM_HISTORY_NEW_GROUP_DELAY_MS=%q", ErrInvalidValue, v)
		}
		cfg.History.NewGroupDelayMS = n
	}
	if v, ok := os.LookupEnv("TEXTLOOM_HISTORY_PRESERVE_ITEMS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: TEXTLOOM_HISTORY_PRESERVE_ITEMS=%q", ErrInvalidValue, v)
		}
		cfg.History.PreserveItems = b
	}
	if v, ok := os.LookupEnv("TEXTLOOM_DOCUMENT_READ_ONLY"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: TEXTLOOM_DOCUMENT_READ_ONLY=%q", ErrInvalidValue, v)
		}
		cfg.Document.ReadOnly = b
	}
	return nil
}

func (c Config) validate() error {
	if c.History.MinDepth < 0 {
		return fmt.Errorf("%w: history.min_depth must be >= 0", ErrInvalidValue)
	}
	if c.History.NewGroupDelayMS < 0 {
		return fmt.Errorf("%w: history.new_group_delay_ms must be >= 0", ErrInvalidValue)
	}
	return nil
}
