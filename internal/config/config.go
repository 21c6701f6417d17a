// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nothing0113/database5team/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete flome configuration.
type Config struct {
	API     APIConfig     `toml:"api" json:"api"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Log     LogConfig     `toml:"log" json:"log"`
	Server  ServerConfig  `toml:"server" json:"server"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// APIConfig points the client at the recommendation API.
type APIConfig struct {
	BaseURL            string `toml:"base_url" json:"base_url"`
	ConnectTimeoutSecs int    `toml:"connect_timeout" json:"connect_timeout"`
}

// StorageConfig selects where chat history and the cart live.
type StorageConfig struct {
	// Backend is one of "file", "sqlite" or "memory".
	Backend string `toml:"backend" json:"backend"`
	Dir     string `toml:"dir" json:"dir"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `toml:"level" json:"level"`
	File        string `toml:"file" json:"file"`
	Development bool   `toml:"development" json:"development"`
}

// ServerConfig configures `flome serve`, the development recommendation API.
type ServerConfig struct {
	Addr            string `toml:"addr" json:"addr"`
	CatalogPath     string `toml:"catalog_path" json:"catalog_path"`
	LLMBaseURL      string `toml:"llm_base_url" json:"llm_base_url"`
	LLMModel        string `toml:"llm_model" json:"llm_model"`
	LLMToken        string `toml:"llm_token" json:"llm_token"`
	RatePerMinute   int    `toml:"rate_per_minute" json:"rate_per_minute"`
	ProgressDelayMs int    `toml:"progress_delay_ms" json:"progress_delay_ms"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme is "auto", "dark" or "light".
	Theme   string `toml:"theme" json:"theme"`
	NoColor bool   `toml:"no_color" json:"no_color"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:            "http://localhost:8000",
			ConnectTimeoutSecs: 10,
		},
		Storage: StorageConfig{
			Backend: "file",
			Dir:     "~/.flome/data",
		},
		Log: LogConfig{
			Level: "info",
			File:  "~/.flome/flome.log",
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8000",
			CatalogPath:     "~/.flome/catalog.db",
			LLMModel:        "gpt-4o-mini",
			RatePerMinute:   30,
			ProgressDelayMs: 300,
		},
		UI: UIConfig{
			Theme: "auto",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the flome configuration directory. FLOME_HOME overrides
// the default of ~/.flome.
func ConfigDir() (string, error) {
	if dir := os.Getenv("FLOME_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".flome"), nil
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

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the configuration. TOML wins over JSON; with neither present
// the defaults are used. Environment overrides are applied last and the
// result is validated.
func Load() (*Config, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return nil, err
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return nil, err
	}

	for _, path := range []string{tomlPath, jsonPath} {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	return finish(Default())
}

// LoadFromPath loads a specific file. Files ending in .json are read as
// JSON, anything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON config: %w", err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config %s: %w", path, err)
		}
	} else {
		meta, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to decode TOML config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
		}
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults restores defaults for fields a file left empty.
func (c *Config) fillDefaults() {
	d := Default()

	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.ConnectTimeoutSecs == 0 {
		c.API.ConnectTimeoutSecs = d.API.ConnectTimeoutSecs
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = d.Storage.Dir
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.CatalogPath == "" {
		c.Server.CatalogPath = d.Server.CatalogPath
	}
	if c.Server.LLMModel == "" {
		c.Server.LLMModel = d.Server.LLMModel
	}
	if c.Server.RatePerMinute == 0 {
		c.Server.RatePerMinute = d.Server.RatePerMinute
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to the default TOML path.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML with 0600 permissions; the LLM token may be
// in there.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# flome configuration file\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.WriteFileAtomic(path, buf.Bytes(), 0600); err != nil {
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
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns ValidateErrors listing
// every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if err := validateHTTPURL(c.API.BaseURL); err != nil {
		errs = append(errs, ValidationError{Field: "api.base_url", Message: err.Error()})
	}
	if c.API.ConnectTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "api.connect_timeout", Message: "must not be negative"})
	}

	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.Backend),
		})
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if c.Server.LLMBaseURL != "" {
		if err := validateHTTPURL(c.Server.LLMBaseURL); err != nil {
			errs = append(errs, ValidationError{Field: "server.llm_base_url", Message: err.Error()})
		}
	}
	if c.Server.RatePerMinute < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_per_minute", Message: "must not be negative"})
	}
	if c.Server.ProgressDelayMs < 0 {
		errs = append(errs, ValidationError{Field: "server.progress_delay_ms", Message: "must not be negative"})
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must be an http or https URL")
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - FLOME_API_URL: api.base_url
//   - FLOME_STORAGE: storage.backend
//   - FLOME_DATA_DIR: storage.dir
//   - FLOME_LOG_LEVEL: log.level
//   - FLOME_LOG_FILE: log.file
//   - FLOME_SERVER_ADDR: server.addr
//   - FLOME_LLM_URL, FLOME_LLM_MODEL, FLOME_LLM_TOKEN: server.llm_*
//   - FLOME_RATE_PER_MINUTE: server.rate_per_minute
//   - NO_COLOR: ui.no_color
func (c *Config) ApplyEnvOverrides() {
	set := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	set("FLOME_API_URL", &c.API.BaseURL)
	set("FLOME_STORAGE", &c.Storage.Backend)
	set("FLOME_DATA_DIR", &c.Storage.Dir)
	set("FLOME_LOG_LEVEL", &c.Log.Level)
	set("FLOME_LOG_FILE", &c.Log.File)
	set("FLOME_SERVER_ADDR", &c.Server.Addr)
	set("FLOME_LLM_URL", &c.Server.LLMBaseURL)
	set("FLOME_LLM_MODEL", &c.Server.LLMModel)
	set("FLOME_LLM_TOKEN", &c.Server.LLMToken)

	if v := os.Getenv("FLOME_RATE_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Server.RatePerMinute = n
		}
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.UI.NoColor = true
	}
}

// =============================================================================
// DISPLAY
// =============================================================================

// String returns the config as TOML with the LLM token redacted.
func (c *Config) String() string {
	safe := *c
	if safe.Server.LLMToken != "" {
		safe.Server.LLMToken = "[REDACTED]"
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(safe); err != nil {
		return err.Error()
	}
	return buf.String()
}

// Exists reports whether a config file is present.
func Exists() bool {
	for _, pathFn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := pathFn()
		if err != nil {
			continue
		}
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			return true
		}
	}
	return false
}
