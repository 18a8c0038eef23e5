// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversations in a local SQLite database.
//
// The store is the persistence collaborator of the streaming session:
// each finished entry is committed here exactly once. Persistence
// failures are surfaced as errors but never block in-memory rendering;
// the session keeps functioning from memory for its remaining life.
//
// Layout: one conversations row per chat, one messages row per entry,
// ordered by an explicit position column. The database lives at
// ~/.grokwire/grokwire.db by default.
package storage
