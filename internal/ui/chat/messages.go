// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "time"

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// StreamTickMsg drives one buffered-render frame while streaming.
type StreamTickMsg struct {
	Time time.Time
}

// StreamFinishedMsg reports that the runner's read loop returned. The
// entry has already been finalized and committed by the runner; Err is
// non-nil only for transport failures.
type StreamFinishedMsg struct {
	Err error
}

// StatusMsg sets a transient line in the status bar.
type StatusMsg struct {
	Text string
}
