// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"encoding/json"
	"io"

	"github.com/morganforge/grokwire/internal/document"
)

// =============================================================================
// JSON BINDING
// =============================================================================

// JSONOutput is the machine-readable form of one rendered entry: the
// document tree plus the derived metadata a consumer would otherwise
// have to recompute.
type JSONOutput struct {
	Document *document.Node `json:"document"`
	Text     string         `json:"text"`

	// ThinkingSeconds is omitted while unknown.
	ThinkingSeconds int `json:"thinking_seconds,omitempty"`
}

// MarshalTree serializes just the document tree, indented.
func MarshalTree(root *document.Node) ([]byte, error) {
	return json.MarshalIndent(root, "", "  ")
}

// WriteOutput writes the full entry output to w.
func WriteOutput(w io.Writer, root *document.Node, text string, thinkingSeconds int) error {
	out := JSONOutput{
		Document: root,
		Text:     text,
	}
	if thinkingSeconds > 0 {
		out.ThinkingSeconds = thinkingSeconds
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
