// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - "grokwire config" subcommands: show, set, path.
package cli

import (
	"fmt"
	"strconv"

	"github.com/morganforge/grokwire/internal/config"
	"github.com/morganforge/grokwire/internal/model"
)

// HandleConfig dispatches the config subcommands.
func HandleConfig(cfg *config.Config, args Args) error {
	switch args.Subcommand {
	case "", "show":
		showConfig(cfg)
		return nil

	case "path":
		path, err := config.Path()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "set":
		return setConfig(cfg, args.ConfigKey, args.ConfigVal)

	default:
		return fmt.Errorf("unknown config subcommand %q (try show, set, path)", args.Subcommand)
	}
}

func showConfig(cfg *config.Config) {
	fmt.Println("[api]")
	fmt.Printf("  key        = %s\n", maskCredential(cfg.API.Key))
	fmt.Printf("  public_key = %s\n", maskCredential(cfg.API.PublicKey))
	fmt.Printf("  base_url   = %s\n", cfg.API.BaseURL)
	fmt.Printf("  model      = %s\n", cfg.API.Model)
	fmt.Println("[storage]")
	fmt.Printf("  db_path           = %s\n", cfg.Storage.DBPath)
	fmt.Printf("  max_conversations = %d\n", cfg.Storage.MaxConversations)
	fmt.Println("[ui]")
	fmt.Printf("  theme      = %s\n", cfg.UI.Theme)
	fmt.Printf("  code_theme = %s\n", cfg.UI.CodeTheme)
	fmt.Printf("  show_stats = %t\n", cfg.UI.ShowStats)
	fmt.Printf("  max_fps    = %d\n", cfg.UI.MaxFPS)
}

// setConfig updates one key and persists the file.
func setConfig(cfg *config.Config, key, value string) error {
	if key == "" {
		return fmt.Errorf("usage: grokwire config set <key> <value>")
	}

	switch key {
	case "key", "api.key":
		cfg.API.Key = value
	case "public_key", "api.public_key":
		cfg.API.PublicKey = value
	case "base_url", "api.base_url":
		cfg.API.BaseURL = value
	case "model", "api.model":
		matched := model.MatchModel(value)
		if matched == "" {
			return fmt.Errorf("unknown model %q", value)
		}
		cfg.API.Model = matched
	case "system_prompt", "api.system_prompt":
		cfg.API.SystemPrompt = value
	case "theme", "ui.theme":
		cfg.UI.Theme = value
	case "code_theme", "ui.code_theme":
		cfg.UI.CodeTheme = value
	case "show_stats", "ui.show_stats":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("show_stats wants true or false")
		}
		cfg.UI.ShowStats = b
	case "max_fps", "ui.max_fps":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_fps wants a number")
		}
		cfg.UI.MaxFPS = n
	case "db_path", "storage.db_path":
		cfg.Storage.DBPath = value
	case "max_conversations", "storage.max_conversations":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_conversations wants a number")
		}
		cfg.Storage.MaxConversations = n
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return err
	}
	fmt.Printf("set %s\n", key)
	return nil
}

// maskCredential hides all but a short suffix of a credential.
func maskCredential(s string) string {
	if s == "" {
		return "(unset)"
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}
