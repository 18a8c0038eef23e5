// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package segment splits accumulated model output into typed spans.
package segment

import "strings"

// =============================================================================
// SEGMENT TYPES
// =============================================================================

// Kind identifies what a span of text is.
type Kind int

const (
	// Plain is ordinary model output.
	Plain Kind = iota
	// Reasoning is text inside a <think> ... </think> span.
	Reasoning
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Reasoning:
		return "reasoning"
	default:
		return "unknown"
	}
}

// Segment is a maximal run of text classified as Plain or Reasoning.
//
// Invariant: concatenating the Text of all segments in order, with the
// markers re-inserted around reasoning spans, reconstructs the input
// exactly. At most the final segment may be open, and only if it is
// Reasoning.
type Segment struct {
	Kind   Kind
	Text   string
	Closed bool
}

// Reasoning span markers. Case-sensitive, never nested.
const (
	openMarker  = "<think>"
	closeMarker = "</think>"
)

// =============================================================================
// SEGMENTATION
// =============================================================================

// Split divides accumulated text into an ordered sequence of segments.
//
// Text before the first <think> marker (or all of it, if none exists) is
// one Plain segment. Text between an open and close marker is a closed
// Reasoning segment. Text after an open marker with no close marker yet
// is an open Reasoning segment and ends the scan. A new open marker after
// a close marker starts an independent segment; spans are never nested.
//
// Split re-derives the result from the whole input on every call, so it
// is idempotent and tolerant of markers split across chunk boundaries.
func Split(text string) []Segment {
	var segs []Segment
	rest := text

	for len(rest) > 0 {
		open := strings.Index(rest, openMarker)
		if open < 0 {
			segs = append(segs, Segment{Kind: Plain, Text: rest, Closed: true})
			break
		}

		if open > 0 {
			segs = append(segs, Segment{Kind: Plain, Text: rest[:open], Closed: true})
		}
		rest = rest[open+len(openMarker):]

		end := strings.Index(rest, closeMarker)
		if end < 0 {
			// Still streaming inside the span.
			segs = append(segs, Segment{Kind: Reasoning, Text: rest, Closed: false})
			break
		}

		segs = append(segs, Segment{Kind: Reasoning, Text: rest[:end], Closed: true})
		rest = rest[end+len(closeMarker):]
	}

	return segs
}

// TrimPartialMarker strips a trailing proper prefix of a reasoning
// marker from s. Incremental consumers printing text as it arrives use
// this so half a marker is never emitted before a later chunk resolves
// whether it completes.
func TrimPartialMarker(s string) string {
	for _, marker := range [2]string{closeMarker, openMarker} {
		for n := len(marker) - 1; n >= 1; n-- {
			if strings.HasSuffix(s, marker[:n]) {
				return s[:len(s)-n]
			}
		}
	}
	return s
}

// HasOpenReasoning reports whether the final segment is an unclosed
// reasoning span.
func HasOpenReasoning(segs []Segment) bool {
	if len(segs) == 0 {
		return false
	}
	last := segs[len(segs)-1]
	return last.Kind == Reasoning && !last.Closed
}

// Reassemble reconstructs the original text from segments, re-inserting
// the reasoning markers. Used by tests to verify the reconstruction
// invariant.
func Reassemble(segs []Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		if s.Kind == Reasoning {
			sb.WriteString(openMarker)
			sb.WriteString(s.Text)
			if s.Closed {
				sb.WriteString(closeMarker)
			}
			continue
		}
		sb.WriteString(s.Text)
	}
	return sb.String()
}
