// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the grokwire color palette and the Theme of
// styled components shared by the TUI and the terminal renderer.
//
// Colors are lipgloss.AdaptiveColor pairs so every style works on both
// light and dark backgrounds. NewTheme probes the terminal through
// termenv once at startup; the resulting Theme is plain data and safe
// to copy into Bubble Tea models.
package styles
