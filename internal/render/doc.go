// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render binds the abstract document tree to concrete output
// surfaces. The tree itself (package document) knows nothing about
// presentation; each binding here walks the same immutable value.
//
// Two bindings exist: Terminal produces styled ANSI text for the TUI
// and one-shot modes, and the JSON functions serialize the tree for
// machine consumers.
package render
