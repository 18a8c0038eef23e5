// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for grokwire.
//
// Configuration is TOML at ~/.grokwire/config.toml with environment
// variable overrides and built-in defaults.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/morganforge/grokwire/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete grokwire configuration.
type Config struct {
	Version string `toml:"version"`

	// API configuration
	API APIConfig `toml:"api"`

	// Storage configuration
	Storage StorageConfig `toml:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// APIConfig configures the Grok gateway connection.
type APIConfig struct {
	// Key is a private API key, sent as a bearer token.
	Key string `toml:"key"`

	// PublicKey is an alternative credential; the client sends its
	// hashed public form instead of the raw value.
	PublicKey string `toml:"public_key"`

	// BaseURL is the gateway endpoint.
	BaseURL string `toml:"base_url"`

	// Model is the default model identifier.
	Model string `toml:"model"`

	// SystemPrompt is prepended to every new conversation.
	SystemPrompt string `toml:"system_prompt"`
}

// StorageConfig configures conversation persistence.
type StorageConfig struct {
	// DBPath is the SQLite database location (empty = default).
	DBPath string `toml:"db_path"`

	// MaxConversations limits stored conversations (0 = unlimited).
	MaxConversations int `toml:"max_conversations"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme is "dark" or "light".
	Theme string `toml:"theme"`

	// CodeTheme is the chroma syntax-highlighting style name.
	CodeTheme string `toml:"code_theme"`

	// ShowStats shows per-message generation statistics.
	ShowStats bool `toml:"show_stats"`

	// OpenAllWhileStreaming expands every disclosure while the reply is
	// still arriving.
	OpenAllWhileStreaming bool `toml:"open_all_while_streaming"`

	// FirstSectionOpen expands only the first agent section once
	// streaming ends.
	FirstSectionOpen bool `toml:"first_section_open"`

	// MaxFPS caps streaming redraws per second.
	MaxFPS int `toml:"max_fps"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		API: APIConfig{
			BaseURL: "https://api.x.ai/v1",
			Model:   "grok-4",
		},
		Storage: StorageConfig{
			MaxConversations: 100,
		},
		UI: UIConfig{
			Theme:                 "dark",
			CodeTheme:             "monokai",
			ShowStats:             true,
			OpenAllWhileStreaming: true,
			FirstSectionOpen:      true,
			MaxFPS:                30,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the grokwire configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".grokwire"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions fixes config file permissions.
// The file holds the API key, so 0600 only.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load reads the config file, falling back to defaults when absent.
// Environment overrides are applied last and always win.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to its default path, 0600, atomically.
func Save(cfg *Config) error {
	if err := EnsureDir(); err != nil {
		return err
	}
	path, err := Path()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies GROKWIRE_* environment variables on top of
// the loaded values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("GROKWIRE_API_KEY"); v != "" {
		c.API.Key = v
	}
	if v := os.Getenv("GROKWIRE_PUBLIC_KEY"); v != "" {
		c.API.PublicKey = v
	}
	if v := os.Getenv("GROKWIRE_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("GROKWIRE_MODEL"); v != "" {
		c.API.Model = v
	}
	if v := os.Getenv("GROKWIRE_DB_PATH"); v != "" {
		c.Storage.DBPath = v
	}
	if v := os.Getenv("GROKWIRE_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// DEFAULTS & VALIDATION
// =============================================================================

// SetDefaults fills any zero-valued fields from the default config.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	if c.API.Model == "" {
		c.API.Model = def.API.Model
	}
	if c.Storage.MaxConversations == 0 {
		c.Storage.MaxConversations = def.Storage.MaxConversations
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.UI.CodeTheme == "" {
		c.UI.CodeTheme = def.UI.CodeTheme
	}
	if c.UI.MaxFPS == 0 {
		c.UI.MaxFPS = def.UI.MaxFPS
	}
}

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("config field %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return ValidationError{Field: "api.base_url", Message: "must be an http(s) URL"}
	}
	switch c.UI.Theme {
	case "dark", "light":
	default:
		return ValidationError{Field: "ui.theme", Message: "must be \"dark\" or \"light\""}
	}
	if c.UI.MaxFPS < 1 || c.UI.MaxFPS > 120 {
		return ValidationError{Field: "ui.max_fps", Message: "must be between 1 and 120"}
	}
	if c.Storage.MaxConversations < 0 {
		return ValidationError{Field: "storage.max_conversations", Message: "must be >= 0"}
	}
	return nil
}

// HasCredential reports whether any API credential is configured.
func (c *Config) HasCredential() bool {
	return c.API.Key != "" || c.API.PublicKey != ""
}
