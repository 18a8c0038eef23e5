// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - "grokwire status": connection, model, and storage summary.
package cli

import (
	"fmt"

	"github.com/morganforge/grokwire/internal/config"
)

// HandleStatus prints a short readiness summary.
func HandleStatus(cfg *config.Config, args Args) error {
	fmt.Printf("grokwire %s\n\n", Version)

	path, err := config.Path()
	if err == nil {
		fmt.Printf("config:  %s\n", path)
	}

	if client, err := NewGatewayClient(cfg, args); err != nil {
		fmt.Printf("api:     not configured (%v)\n", err)
	} else {
		fmt.Printf("api:     %s (%s)\n", cfg.API.BaseURL, client.KeyMasked())
		fmt.Printf("model:   %s\n", client.GetModel())
	}

	store, err := OpenStore(cfg)
	if err != nil {
		fmt.Printf("storage: unavailable (%v)\n", err)
		return nil
	}
	defer store.Close()

	metas, err := store.List()
	if err != nil {
		fmt.Printf("storage: open, list failed (%v)\n", err)
		return nil
	}
	fmt.Printf("storage: %d conversation(s)\n", len(metas))
	return nil
}
