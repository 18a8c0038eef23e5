// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"encoding/json"
	"strings"
	"time"
)

// =============================================================================
// EVENT STRUCTURE
// =============================================================================

// dataPrefix marks the significant lines of a frame; every other line
// (event:, id:, retry:, comments) is ignored.
const dataPrefix = "data:"

// doneSentinel is the explicit end-of-stream payload.
const doneSentinel = "[DONE]"

// Event is the decoded shape of one data payload.
type Event struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Content returns the first choice's delta content, or "" when the
// field is absent.
func (e *Event) Content() string {
	if len(e.Choices) > 0 {
		return e.Choices[0].Delta.Content
	}
	return ""
}

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator grows the accumulated message text from decoded frames.
//
// Payloads that fail to decode are skipped without aborting the stream.
// Once the [DONE] sentinel is seen the aggregator reports completion
// and ignores everything after it.
type Aggregator struct {
	text  strings.Builder
	done  bool
	first time.Time

	// now is swapped in tests.
	now func() time.Time
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{now: time.Now}
}

// ProcessFrame consumes one complete frame. It reports whether the
// end-of-stream sentinel was reached (sticky once true).
func (a *Aggregator) ProcessFrame(frame string) bool {
	if a.done {
		return true
	}

	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimSpace(line[len(dataPrefix):])

		if payload == doneSentinel {
			a.done = true
			return true
		}

		var ev Event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			// Malformed payload: skip, keep streaming.
			continue
		}

		if content := ev.Content(); content != "" {
			if a.first.IsZero() {
				a.first = a.now()
			}
			a.text.WriteString(content)
		}
	}
	return false
}

// Done reports whether the [DONE] sentinel has been seen.
func (a *Aggregator) Done() bool {
	return a.done
}

// Text returns the accumulated text so far.
func (a *Aggregator) Text() string {
	return a.text.String()
}

// FirstContentAt returns the arrival time of the first non-empty delta,
// or the zero time if none has arrived.
func (a *Aggregator) FirstContentAt() time.Time {
	return a.first
}
