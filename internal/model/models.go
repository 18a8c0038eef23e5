// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo contains detailed information about a model, used for model
// selection and display.
type ModelInfo struct {
	// ID is the model identifier used in API calls
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Tier categorizes the model's capability level
	Tier string `json:"tier"`

	// MaxTokens is the maximum context window size
	MaxTokens int `json:"max_tokens"`

	// Reasoning marks models that emit reasoning spans in their output
	Reasoning bool `json:"reasoning"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`
}

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Registry is the set of known Grok models with their metadata.
var Registry = map[string]ModelInfo{
	"grok-4": {
		ID:          "grok-4",
		Name:        "Grok 4",
		Tier:        "Powerful",
		MaxTokens:   256000,
		Reasoning:   true,
		Description: "Most capable, multi-agent reasoning",
	},
	"grok-4-fast": {
		ID:          "grok-4-fast",
		Name:        "Grok 4 Fast",
		Tier:        "Fast",
		MaxTokens:   128000,
		Reasoning:   true,
		Description: "Lower latency variant of Grok 4",
	},
	"grok-4-mini-thinking": {
		ID:          "grok-4-mini-thinking",
		Name:        "Grok 4 Mini Thinking",
		Tier:        "Balanced",
		MaxTokens:   128000,
		Reasoning:   true,
		Description: "Compact model with visible reasoning",
	},
	"grok-3": {
		ID:          "grok-3",
		Name:        "Grok 3",
		Tier:        "Balanced",
		MaxTokens:   128000,
		Description: "Previous generation, no reasoning spans",
	},
	"grok-3-mini": {
		ID:          "grok-3-mini",
		Name:        "Grok 3 Mini",
		Tier:        "Fast",
		MaxTokens:   32000,
		Description: "Smallest and fastest",
	},
}

// GetModelInfo returns metadata for a model ID. Unknown models get a
// conservative default entry so callers never nil-check.
func GetModelInfo(id string) ModelInfo {
	if info, ok := Registry[id]; ok {
		return info
	}
	return ModelInfo{
		ID:          id,
		Name:        id,
		Tier:        "Unknown",
		MaxTokens:   32000,
		Description: "Unregistered model",
	}
}

// IsKnownModel reports whether the model is in the registry.
func IsKnownModel(id string) bool {
	_, ok := Registry[id]
	return ok
}

// ListModels returns all registered models sorted by ID.
func ListModels() []ModelInfo {
	out := make([]ModelInfo, 0, len(Registry))
	for _, info := range Registry {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FormatModelLine renders one registry entry for list display.
func FormatModelLine(info ModelInfo) string {
	reasoning := ""
	if info.Reasoning {
		reasoning = " [reasoning]"
	}
	return fmt.Sprintf("%-22s %-9s %7dk ctx%s  %s",
		info.ID, info.Tier, info.MaxTokens/1000, reasoning, info.Description)
}

// MatchModel resolves a user-entered name to a registry ID using a
// case-insensitive prefix match. Returns "" when nothing matches.
func MatchModel(input string) string {
	needle := strings.ToLower(strings.TrimSpace(input))
	if needle == "" {
		return ""
	}
	if _, ok := Registry[needle]; ok {
		return needle
	}

	var match string
	for id := range Registry {
		if strings.HasPrefix(id, needle) {
			if match != "" {
				return "" // ambiguous
			}
			match = id
		}
	}
	return match
}
