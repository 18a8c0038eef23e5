// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the lifecycle of an in-flight completion stream.
//
// A StreamState tracks everything a single stream accumulates: decoded
// text, the reasoning timer, and the end sentinel. A Runner drives the
// read loop over the response body and funnels every terminal path
// (end sentinel, cancellation, transport close) through a single
// guarded commit, so persistence happens exactly once per entry. The
// Manager ties streams to conversations: a stream always commits into
// the conversation that started it, even if the user has switched away,
// marking that conversation unread.
package session
