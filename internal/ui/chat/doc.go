// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat is the Bubble Tea chat view. It drives the full display
// pipeline for each assistant entry: accumulated text is segmented,
// reconciled into a document tree with that entry's RenderState, and
// rendered through the terminal binding. Streaming updates are batched
// by a StreamingBuffer so the viewport redraws at a capped frame rate
// instead of once per token.
package chat
