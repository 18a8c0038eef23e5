// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes the server-sent-event wire stream into
// accumulated message text.
//
// Decoder turns an arbitrary byte-chunk sequence into delimiter-bounded
// frames, carrying any incomplete trailing frame across chunks.
// Aggregator extracts content deltas from each frame's data payloads
// and grows the accumulated text, tracking the first-content timestamp
// and the explicit [DONE] sentinel. Both stages are tolerant of
// malformed input: bad payloads are skipped, a dangling partial frame
// at stream end is discarded.
package sse
