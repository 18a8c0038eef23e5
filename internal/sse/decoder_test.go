// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"testing"
)

func TestDecoder_SingleChunk(t *testing.T) {
	d := NewDecoder()
	frames := d.Feed([]byte("data: a\n\ndata: b\n\n"))

	if len(frames) != 2 {
		t.Fatalf("frames = %d, want 2", len(frames))
	}
	if frames[0] != "data: a" || frames[1] != "data: b" {
		t.Errorf("frames = %q", frames)
	}
}

func TestDecoder_HoldsIncompleteFrame(t *testing.T) {
	d := NewDecoder()

	if frames := d.Feed([]byte("data: partial")); frames != nil {
		t.Fatalf("unexpected frames before delimiter: %q", frames)
	}
	if frames := d.Feed([]byte(" end\n")); frames != nil {
		t.Fatalf("unexpected frames before delimiter: %q", frames)
	}

	frames := d.Feed([]byte("\n"))
	if len(frames) != 1 || frames[0] != "data: partial end" {
		t.Fatalf("frames = %q, want the buffered frame", frames)
	}
}

func TestDecoder_DelimiterSplitAcrossChunks(t *testing.T) {
	d := NewDecoder()

	var frames []string
	for _, chunk := range []string{"data: x", "\n", "\ndata: y\n\n"} {
		frames = append(frames, d.Feed([]byte(chunk))...)
	}

	if len(frames) != 2 {
		t.Fatalf("frames = %q, want 2", frames)
	}
	if frames[0] != "data: x" || frames[1] != "data: y" {
		t.Errorf("frames = %q", frames)
	}
}

func TestDecoder_CRLFDelimiter(t *testing.T) {
	d := NewDecoder()

	frames := d.Feed([]byte("data: x\r\n\r\ndata: y\r\n\r\n"))
	if len(frames) != 2 {
		t.Fatalf("frames = %q, want 2", frames)
	}
	if frames[0] != "data: x" || frames[1] != "data: y" {
		t.Errorf("frames = %q", frames)
	}
}

func TestDecoder_CRLFSplitAcrossChunks(t *testing.T) {
	d := NewDecoder()

	var frames []string
	for _, chunk := range []string{"data: x\r", "\n\r", "\ndata: y\r\n\r\n"} {
		frames = append(frames, d.Feed([]byte(chunk))...)
	}

	if len(frames) != 2 {
		t.Fatalf("frames = %q, want 2", frames)
	}
	if frames[0] != "data: x" || frames[1] != "data: y" {
		t.Errorf("frames = %q", frames)
	}
}

func TestDecoder_EmptyChunk(t *testing.T) {
	d := NewDecoder()
	if frames := d.Feed(nil); frames != nil {
		t.Errorf("empty chunk yielded frames: %q", frames)
	}
}

func TestDecoder_CloseDiscardsCarry(t *testing.T) {
	d := NewDecoder()
	d.Feed([]byte("data: never delimited"))

	if dropped := d.Close(); dropped == 0 {
		t.Error("Close should report dropped carry bytes")
	}

	// Carry must be gone: a fresh delimiter finds nothing buffered.
	if frames := d.Feed([]byte("\n\n")); len(frames) != 1 || frames[0] != "" {
		t.Errorf("frames after Close = %q", frames)
	}
}

func TestDecoder_ChunkBoundaryInvariance(t *testing.T) {
	wire := "data: {\"choices\":[{\"delta\":{\"content\":\"He\"}}]}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"llo \"}}]}\n\n" +
		"data: {bad}\n\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"world\"}}]}\n\n" +
		"data: [DONE]\n\n"

	run := func(chunkSize int) string {
		d := NewDecoder()
		a := NewAggregator()
		for i := 0; i < len(wire); i += chunkSize {
			end := i + chunkSize
			if end > len(wire) {
				end = len(wire)
			}
			for _, f := range d.Feed([]byte(wire[i:end])) {
				a.ProcessFrame(f)
			}
		}
		d.Close()
		return a.Text()
	}

	whole := run(len(wire))
	if whole != "Hello world" {
		t.Fatalf("accumulated = %q, want %q", whole, "Hello world")
	}

	for _, size := range []int{1, 2, 3, 5, 7, 16, 64} {
		if got := run(size); got != whole {
			t.Errorf("chunk size %d: accumulated = %q, want %q", size, got, whole)
		}
	}
}
