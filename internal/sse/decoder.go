// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import "strings"

// =============================================================================
// FRAME DECODER
// =============================================================================

// frameDelimiter separates frames on the wire: a blank line, i.e. two
// consecutive newlines.
const frameDelimiter = "\n\n"

// Decoder splits a byte-chunk sequence into complete frames.
//
// A frame is never emitted before its delimiter has been observed, even
// when that means buffering across many chunks. Frames come out in
// arrival order.
type Decoder struct {
	carry strings.Builder
}

// NewDecoder creates an empty frame decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends a chunk to the carry buffer and returns every complete
// frame now available. An empty chunk is valid and yields no frames.
//
// CRLF line endings are normalized to LF before framing, so a transport
// sending "\r\n\r\n" delimits frames too. A lone trailing "\r" stays in
// the carry until the next chunk resolves it.
func (d *Decoder) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	d.carry.Write(chunk)

	buf := strings.ReplaceAll(d.carry.String(), "\r\n", "\n")
	if !strings.Contains(buf, frameDelimiter) {
		d.carry.Reset()
		d.carry.WriteString(buf)
		return nil
	}

	parts := strings.Split(buf, frameDelimiter)
	frames := parts[:len(parts)-1]

	d.carry.Reset()
	d.carry.WriteString(parts[len(parts)-1])
	return frames
}

// Close ends the stream. Any carry left without a delimiter is
// discarded: a dangling partial frame is not a value. It returns the
// number of bytes dropped, which callers may log.
func (d *Decoder) Close() int {
	n := d.carry.Len()
	d.carry.Reset()
	return n
}
