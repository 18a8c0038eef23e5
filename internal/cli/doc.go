// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-TUI entry points for grokwire:
// argument parsing, the one-shot "ask" command, and the plain-terminal
// "chat" REPL used where a full-screen TUI is unwanted (pipes, simple
// terminals, scripting with --json).
package cli
