// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/morganforge/grokwire/internal/document"
	"github.com/morganforge/grokwire/internal/segment"
	"github.com/morganforge/grokwire/internal/sse"
)

// =============================================================================
// STREAM STATE
// =============================================================================

// StreamState is the per-stream accumulator. It owns its decoder and
// aggregator and is never shared across streams: each request creates a
// fresh StreamState and mutates it only from its own read loop.
type StreamState struct {
	decoder *sse.Decoder
	agg     *sse.Aggregator

	// reasoningStart is set the first time the accumulated text shows an
	// open reasoning span; zero until then.
	reasoningStart time.Time

	// elapsed is the reasoning time in whole seconds, or
	// document.ElapsedUnknown while no close marker has been observed.
	elapsed int

	frozen  bool
	dropped int

	now func() time.Time
}

// NewStreamState returns an empty stream accumulator.
func NewStreamState() *StreamState {
	return &StreamState{
		decoder: sse.NewDecoder(),
		agg:     sse.NewAggregator(),
		elapsed: document.ElapsedUnknown,
		now:     time.Now,
	}
}

// Feed pushes one raw transport chunk through the decoder and
// aggregator, then updates the reasoning timer. It returns true once the
// end sentinel has been seen. Chunks fed after the sentinel or after
// Freeze are ignored.
func (s *StreamState) Feed(chunk []byte) bool {
	if s.frozen {
		return s.agg.Done()
	}
	for _, frame := range s.decoder.Feed(chunk) {
		if s.agg.ProcessFrame(frame) {
			break
		}
	}
	s.trackReasoning()
	return s.agg.Done()
}

// trackReasoning re-derives the segmentation and advances the reasoning
// timer: the first reasoning segment starts it, the first close marker
// fixes the elapsed value. Starting on any reasoning segment, not just an
// open one, covers a span that opens and closes within a single chunk;
// the one-second floor in elapsedSeconds then applies.
func (s *StreamState) trackReasoning() {
	segs := segment.Split(s.agg.Text())

	hasReasoning := false
	for _, seg := range segs {
		if seg.Kind == segment.Reasoning {
			hasReasoning = true
			break
		}
	}
	if !hasReasoning {
		return
	}

	if s.reasoningStart.IsZero() {
		s.reasoningStart = s.now()
	}
	if !segment.HasOpenReasoning(segs) && s.elapsed == document.ElapsedUnknown {
		s.elapsed = elapsedSeconds(s.now().Sub(s.reasoningStart))
	}
}

// Freeze terminates the stream. Any un-delimited carry in the decoder is
// discarded, and if a reasoning span was still open its elapsed time is
// fixed from the reasoning start to now, floored at one second. Freeze
// is idempotent; it returns the number of discarded carry bytes.
func (s *StreamState) Freeze() int {
	if s.frozen {
		return s.dropped
	}
	s.frozen = true
	s.dropped = s.decoder.Close()

	if s.elapsed == document.ElapsedUnknown && !s.reasoningStart.IsZero() {
		s.elapsed = elapsedSeconds(s.now().Sub(s.reasoningStart))
	}
	return s.dropped
}

// Text returns the accumulated content so far.
func (s *StreamState) Text() string {
	return s.agg.Text()
}

// Done reports whether the end sentinel has been observed.
func (s *StreamState) Done() bool {
	return s.agg.Done()
}

// Frozen reports whether the stream has terminated.
func (s *StreamState) Frozen() bool {
	return s.frozen
}

// ThinkingSeconds returns the reasoning time in whole seconds, or
// document.ElapsedUnknown while the span is still open.
func (s *StreamState) ThinkingSeconds() int {
	return s.elapsed
}

// FirstContentAt returns when the first non-empty delta arrived; zero if
// no content has arrived.
func (s *StreamState) FirstContentAt() time.Time {
	return s.agg.FirstContentAt()
}

// Snapshot builds the reconciler input for the current accumulated text.
func (s *StreamState) Snapshot() document.Input {
	return document.Input{
		Segments:       segment.Split(s.agg.Text()),
		Streaming:      !s.frozen && !s.agg.Done(),
		ElapsedSeconds: s.elapsed,
	}
}

// elapsedSeconds converts a duration to whole seconds with a floor of
// one, so a span that opened and closed inside the same second still
// reads as thought time.
func elapsedSeconds(d time.Duration) int {
	secs := int(d / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}
