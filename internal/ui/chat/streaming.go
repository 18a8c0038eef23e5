// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/grokwire/internal/document"
)

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches stream deltas for rendering. Deltas accumulate
// until either the batch size or the frame interval is reached, which
// keeps redraws at the configured FPS instead of once per token.
//
// Write happens on the stream goroutine while Flush happens on the
// Bubble Tea loop, so every operation takes the mutex.
type StreamingBuffer struct {
	mu         sync.Mutex
	buffer     strings.Builder
	tokenCount int
	lastFlush  time.Time

	// Live reconciler inputs mirrored from the stream goroutine.
	elapsed int
	done    bool

	batchSize     int
	flushInterval time.Duration
}

// NewStreamingBuffer creates a buffer flushing at most maxFPS times per
// second.
func NewStreamingBuffer(maxFPS int) *StreamingBuffer {
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = 30
	}
	return &StreamingBuffer{
		batchSize:     15,
		flushInterval: time.Second / time.Duration(maxFPS),
		lastFlush:     time.Now(),
		elapsed:       document.ElapsedUnknown,
	}
}

// Write adds a delta to the buffer. Called from the stream goroutine.
func (sb *StreamingBuffer) Write(delta string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.WriteString(delta)
	sb.tokenCount++
}

// SetElapsed mirrors the reasoning elapsed seconds from the stream.
func (sb *StreamingBuffer) SetElapsed(seconds int) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.elapsed = seconds
}

// Elapsed returns the mirrored reasoning elapsed seconds.
func (sb *StreamingBuffer) Elapsed() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.elapsed
}

// Flush returns accumulated content when a batch or frame boundary has
// been reached. Called from the Bubble Tea loop.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	if sb.tokenCount < sb.batchSize && time.Since(sb.lastFlush) < sb.flushInterval {
		return "", false
	}
	return sb.drainLocked(), true
}

// ForceFlush returns everything buffered regardless of thresholds. Used
// when the stream completes so no trailing tokens are lost.
func (sb *StreamingBuffer) ForceFlush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if sb.buffer.Len() == 0 {
		return "", false
	}
	return sb.drainLocked(), true
}

func (sb *StreamingBuffer) drainLocked() string {
	content := sb.buffer.String()
	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
	return content
}

// Reset clears the buffer without flushing, for a new stream.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.Reset()
	sb.tokenCount = 0
	sb.lastFlush = time.Now()
	sb.elapsed = document.ElapsedUnknown
}

// Pending returns the number of buffered deltas.
func (sb *StreamingBuffer) Pending() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.tokenCount
}

// Interval returns the configured flush interval.
func (sb *StreamingBuffer) Interval() time.Duration {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.flushInterval
}

// =============================================================================
// STREAM TICK
// =============================================================================

// streamTickCmd schedules the next buffered-render tick.
func streamTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
