// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.HasCredential() {
		t.Error("default config should carry no credential")
	}
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.API.Model != "grok-4" {
		t.Errorf("Model = %q, want default", cfg.API.Model)
	}
}

func TestLoadFrom_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
version = "1.0.0"

[api]
key = "sk-filekey"
model = "grok-3-mini"

[ui]
theme = "light"
max_fps = 15
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.API.Key != "sk-filekey" {
		t.Errorf("Key = %q", cfg.API.Key)
	}
	if cfg.API.Model != "grok-3-mini" {
		t.Errorf("Model = %q", cfg.API.Model)
	}
	if cfg.UI.Theme != "light" || cfg.UI.MaxFPS != 15 {
		t.Errorf("UI = %+v", cfg.UI)
	}
	// Unset fields still get defaults.
	if cfg.API.BaseURL == "" || cfg.UI.CodeTheme == "" {
		t.Errorf("defaults not filled: %+v", cfg)
	}
}

func TestLoadFrom_EnvOverridesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nkey = \"sk-filekey\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GROKWIRE_API_KEY", "sk-envkey")
	t.Setenv("GROKWIRE_MODEL", "grok-4-fast")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.API.Key != "sk-envkey" {
		t.Errorf("Key = %q, env must win over file", cfg.API.Key)
	}
	if cfg.API.Model != "grok-4-fast" {
		t.Errorf("Model = %q", cfg.API.Model)
	}
}

func TestLoadFrom_FixesPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[api]\nkey = \"sk\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFrom(path); err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got != 0600 {
		t.Errorf("permissions = %o, want 0600", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"valid", func(c *Config) {}, true},
		{"bad url", func(c *Config) { c.API.BaseURL = "ftp://x" }, false},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }, false},
		{"fps too high", func(c *Config) { c.UI.MaxFPS = 500 }, false},
		{"negative limit", func(c *Config) { c.Storage.MaxConversations = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if ok := err == nil; ok != tt.wantOK {
				t.Errorf("Validate() err = %v, wantOK %v", err, tt.wantOK)
			}
		})
	}
}

func TestHasCredential(t *testing.T) {
	cfg := Default()
	cfg.API.PublicKey = "pk"
	if !cfg.HasCredential() {
		t.Error("public key counts as a credential")
	}
}
