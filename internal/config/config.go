// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for geochat.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.geochat/config.toml
//   - ~/.geochat/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete geochat configuration.
type Config struct {
	Backend BackendConfig `toml:"backend" json:"backend"`
	Map     MapConfig     `toml:"map" json:"map"`
	Chat    ChatConfig    `toml:"chat" json:"chat"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
	Storage StorageConfig `toml:"storage" json:"storage"`
}

// BackendConfig describes the chat backend the client talks to.
type BackendConfig struct {
	URL               string  `toml:"url" json:"url"`
	TimeoutSecs       int     `toml:"timeout_secs" json:"timeout_secs"`
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `toml:"burst" json:"burst"`
}

// MapConfig contains map renderer settings.
type MapConfig struct {
	TileURL     string  `toml:"tile_url" json:"tile_url"`
	MaxZoom     int     `toml:"max_zoom" json:"max_zoom"`
	Attribution string  `toml:"attribution" json:"attribution"`
	DefaultLat  float64 `toml:"default_lat" json:"default_lat"`
	DefaultLon  float64 `toml:"default_lon" json:"default_lon"`
	DefaultZoom int     `toml:"default_zoom" json:"default_zoom"`

	// Seed fixes the random center selection. Zero means time-seeded.
	Seed int64 `toml:"seed" json:"seed"`
}

// ChatConfig contains chat session settings.
type ChatConfig struct {
	DefaultMode string `toml:"default_mode" json:"default_mode"`
	Greeting    string `toml:"greeting" json:"greeting"`

	// Starters are suggested first questions shown on an empty chat.
	Starters []string `toml:"starters" json:"starters"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	Theme     string `toml:"theme" json:"theme"` // "dark", "light" or "auto"
	ShowQuery bool   `toml:"show_query" json:"show_query"`
	MapPane   bool   `toml:"map_pane" json:"map_pane"`
}

// LogConfig controls the file logger.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}

// StorageConfig controls the local transcript archive.
type StorageConfig struct {
	ArchivePath string `toml:"archive_path" json:"archive_path"`
	Enabled     bool   `toml:"enabled" json:"enabled"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultGreeting is the bot message shown when a session starts.
const DefaultGreeting = "hi i am djangogpt"

// DefaultStarters are the suggested first questions.
var DefaultStarters = []string{"What is Programming", "How to use an API"}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:               "http://localhost:8000/",
			TimeoutSecs:       60,
			RequestsPerSecond: 4,
			Burst:             4,
		},
		Map: MapConfig{
			TileURL:     "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			MaxZoom:     19,
			Attribution: "&copy; OpenStreetMap contributors",
			DefaultLat:  51.505,
			DefaultLon:  -0.09,
			DefaultZoom: 13,
		},
		Chat: ChatConfig{
			DefaultMode: model.ModeGeneration.String(),
			Greeting:    DefaultGreeting,
			Starters:    append([]string(nil), DefaultStarters...),
		},
		UI: UIConfig{
			Theme:     "auto",
			ShowQuery: true,
			MapPane:   true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			Enabled: true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the geochat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".geochat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// LogPath returns the configured log file, defaulting to ~/.geochat/geochat.log.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "geochat.log"), nil
}

// ArchivePath returns the configured archive database, defaulting to
// ~/.geochat/archive.db.
func (c *Config) ArchivePath() (string, error) {
	if c.Storage.ArchivePath != "" {
		return c.Storage.ArchivePath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "archive.db"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return cfg, err
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return cfg, err
	}

	switch {
	case fileExists(tomlPath):
		if err := LoadTOML(cfg, tomlPath); err != nil {
			return Default(), fmt.Errorf("failed to load %s: %w", tomlPath, err)
		}
	case fileExists(jsonPath):
		if err := LoadJSON(cfg, jsonPath); err != nil {
			return Default(), fmt.Errorf("failed to load %s: %w", jsonPath, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The format is chosen by extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with a short header.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# geochat configuration file\n")
	b.WriteString("# Environment variables GEOCHAT_* override these values.\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validThemes = map[string]bool{"auto": true, "dark": true, "light": true}

var validLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Backend
	if u, err := url.Parse(c.Backend.URL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: fmt.Sprintf("scheme must be http or https, got '%s'", u.Scheme),
		})
	}
	if c.Backend.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: "cannot be negative",
		})
	}
	if c.Backend.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.requests_per_second",
			Message: "cannot be negative",
		})
	}
	if c.Backend.Burst < 0 {
		errs = append(errs, ValidationError{
			Field:   "backend.burst",
			Message: "cannot be negative",
		})
	}

	// Map
	for _, p := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(c.Map.TileURL, p) {
			errs = append(errs, ValidationError{
				Field:   "map.tile_url",
				Message: fmt.Sprintf("missing %s placeholder", p),
			})
		}
	}
	if c.Map.MaxZoom < 0 || c.Map.MaxZoom > 24 {
		errs = append(errs, ValidationError{
			Field:   "map.max_zoom",
			Message: fmt.Sprintf("must be between 0 and 24, got %d", c.Map.MaxZoom),
		})
	}
	if c.Map.DefaultZoom < 0 || c.Map.DefaultZoom > c.Map.MaxZoom {
		errs = append(errs, ValidationError{
			Field:   "map.default_zoom",
			Message: fmt.Sprintf("must be between 0 and max_zoom (%d), got %d", c.Map.MaxZoom, c.Map.DefaultZoom),
		})
	}
	if c.Map.DefaultLat < -90 || c.Map.DefaultLat > 90 {
		errs = append(errs, ValidationError{
			Field:   "map.default_lat",
			Message: "must be between -90 and 90",
		})
	}
	if c.Map.DefaultLon < -180 || c.Map.DefaultLon > 180 {
		errs = append(errs, ValidationError{
			Field:   "map.default_lon",
			Message: "must be between -180 and 180",
		})
	}

	// Chat
	if _, err := model.ParseMode(c.Chat.DefaultMode); err != nil {
		errs = append(errs, ValidationError{
			Field:   "chat.default_mode",
			Message: err.Error(),
		})
	}

	// UI
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	// Log
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(c.Chat.Starters) > 9 {
		errs = append(errs, ValidationError{
			Field:   "chat.starters",
			Message: fmt.Sprintf("at most 9 starters, got %d", len(c.Chat.Starters)),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero-value fields that have no meaningful zero.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Backend.URL == "" {
		c.Backend.URL = d.Backend.URL
	}
	if c.Backend.TimeoutSecs == 0 {
		c.Backend.TimeoutSecs = d.Backend.TimeoutSecs
	}
	if c.Map.TileURL == "" {
		c.Map.TileURL = d.Map.TileURL
	}
	if c.Map.MaxZoom == 0 {
		c.Map.MaxZoom = d.Map.MaxZoom
	}
	if c.Map.Attribution == "" {
		c.Map.Attribution = d.Map.Attribution
	}
	if c.Chat.DefaultMode == "" {
		c.Chat.DefaultMode = d.Chat.DefaultMode
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - GEOCHAT_BACKEND_URL: overrides backend.url
//   - GEOCHAT_MODE: overrides chat.default_mode
//   - GEOCHAT_TILE_URL: overrides map.tile_url
//   - GEOCHAT_LOG_LEVEL: overrides log.level
//   - GEOCHAT_SEED: overrides map.seed (ignored if not an integer)
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GEOCHAT_BACKEND_URL"); v != "" {
		c.Backend.URL = v
	}
	if v := os.Getenv("GEOCHAT_MODE"); v != "" {
		c.Chat.DefaultMode = v
	}
	if v := os.Getenv("GEOCHAT_TILE_URL"); v != "" {
		c.Map.TileURL = v
	}
	if v := os.Getenv("GEOCHAT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("GEOCHAT_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Map.Seed = seed
		}
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Timeout returns the backend request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSecs) * time.Second
}

// Mode returns the parsed default mode, falling back to generation.
func (c *Config) Mode() model.Mode {
	m, err := model.ParseMode(c.Chat.DefaultMode)
	if err != nil {
		return model.ModeGeneration
	}
	return m
}

// =============================================================================
// GET (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation on the TOML key
// names (e.g., "backend.url").
func (c *Config) Get(key string) (interface{}, error) {
	if key == "" {
		return nil, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		field, ok := fieldByTag(v, part)
		if !ok {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field.Interface(), nil
		}
		if field.Kind() != reflect.Struct {
			return nil, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return nil, fmt.Errorf("invalid key: %s", key)
}

func fieldByTag(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := strings.Split(t.Field(i).Tag.Get("toml"), ",")[0]
		if strings.EqualFold(tag, name) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Chat.Starters = append([]string(nil), c.Chat.Starters...)
	return &clone
}

// String returns the configuration as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			cfg.ApplyEnvOverrides()
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
