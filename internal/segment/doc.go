// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package segment splits accumulated model output into typed spans.
//
// Two layers of structure are recognized:
//
//  1. Reasoning segmentation: text between literal <think> and </think>
//     markers is a reasoning span; everything else is plain output. The
//     final span may still be open while the stream is in flight.
//
//  2. Rollout parsing: inside a reasoning span, lines of the form
//     "[id][type] ..." are rollout records grouped by id, optionally
//     divided into per-agent sections by heading lines such as
//     "Grok Leader" or "Agent3".
//
// All parsers here re-derive their result from the full input on every
// call, which makes them idempotent and safe for deltas that split a
// marker across chunk boundaries: the marker simply does not match until
// enough text has arrived.
package segment
