// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"testing"
	"time"
)

func TestAggregator_ContentThenDone(t *testing.T) {
	a := NewAggregator()

	if done := a.ProcessFrame(`data: {"choices":[{"delta":{"content":"Hi"}}]}`); done {
		t.Fatal("done reported before sentinel")
	}
	if done := a.ProcessFrame("data: [DONE]"); !done {
		t.Fatal("sentinel not recognized")
	}

	if got := a.Text(); got != "Hi" {
		t.Errorf("Text = %q, want Hi", got)
	}
	if !a.Done() {
		t.Error("Done should be sticky after sentinel")
	}
}

func TestAggregator_MalformedFrameSkipped(t *testing.T) {
	a := NewAggregator()

	a.ProcessFrame(`data: {"choices":[{"delta":{"content":"a"}}]}`)
	a.ProcessFrame("data: {bad}")
	a.ProcessFrame(`data: {"choices":[{"delta":{"content":"b"}}]}`)
	a.ProcessFrame("data: [DONE]")

	if got := a.Text(); got != "ab" {
		t.Errorf("Text = %q, want ab (malformed frame ignored)", got)
	}
	if !a.Done() {
		t.Error("stream should complete normally around a bad frame")
	}
}

func TestAggregator_IgnoresNonDataLines(t *testing.T) {
	a := NewAggregator()

	frame := "event: message\nid: 7\n: comment\ndata: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}"
	a.ProcessFrame(frame)

	if got := a.Text(); got != "x" {
		t.Errorf("Text = %q, want x", got)
	}
}

func TestAggregator_AbsentDeltaFieldIsEmpty(t *testing.T) {
	a := NewAggregator()

	a.ProcessFrame(`data: {"choices":[{"delta":{}}]}`)
	a.ProcessFrame(`data: {"choices":[]}`)
	a.ProcessFrame(`data: {}`)

	if got := a.Text(); got != "" {
		t.Errorf("Text = %q, want empty", got)
	}
	if !a.FirstContentAt().IsZero() {
		t.Error("first-content time must stay unset for empty deltas")
	}
}

func TestAggregator_FirstContentTimestamp(t *testing.T) {
	a := NewAggregator()
	times := []time.Time{
		time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 1, 10, 0, 5, 0, time.UTC),
	}
	i := 0
	a.now = func() time.Time {
		t := times[i%len(times)]
		i++
		return t
	}

	a.ProcessFrame(`data: {"choices":[{"delta":{"content":"a"}}]}`)
	a.ProcessFrame(`data: {"choices":[{"delta":{"content":"b"}}]}`)

	if got := a.FirstContentAt(); !got.Equal(times[0]) {
		t.Errorf("FirstContentAt = %v, want the first delta's arrival", got)
	}
}

func TestAggregator_FramesAfterDoneIgnored(t *testing.T) {
	a := NewAggregator()

	a.ProcessFrame("data: [DONE]")
	if done := a.ProcessFrame(`data: {"choices":[{"delta":{"content":"late"}}]}`); !done {
		t.Error("ProcessFrame after sentinel should still report done")
	}

	if got := a.Text(); got != "" {
		t.Errorf("Text = %q, content after sentinel must be dropped", got)
	}
}

func TestAggregator_CarriageReturnTolerated(t *testing.T) {
	a := NewAggregator()

	a.ProcessFrame("data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\r")
	if got := a.Text(); got != "ok" {
		t.Errorf("Text = %q, want ok", got)
	}
}
