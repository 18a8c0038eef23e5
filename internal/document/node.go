// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document models structured model output as an immutable tree.
package document

import "strings"

// =============================================================================
// NODE KINDS
// =============================================================================

// Kind tags a document-tree node. String values keep the JSON binding
// self-describing.
type Kind string

const (
	// Block-level kinds.
	KindDocument  Kind = "document"
	KindParagraph Kind = "paragraph"
	KindHeading   Kind = "heading"
	KindList      Kind = "list"
	KindListItem  Kind = "list_item"
	KindTable     Kind = "table"
	KindTableRow  Kind = "table_row"
	KindTableCell Kind = "table_cell"
	KindCodeBlock Kind = "code_block"
	KindImageGrid Kind = "image_grid"

	// Inline kinds.
	KindText      Kind = "text"
	KindCodeSpan  Kind = "code_span"
	KindStrong    Kind = "strong"
	KindEmphasis  Kind = "emphasis"
	KindLink      Kind = "link"
	KindImage     Kind = "image"
	KindHardBreak Kind = "hard_break"

	// Disclosure kinds.
	KindThink        Kind = "think"
	KindAgentSection Kind = "agent_section"
	KindRolloutGroup Kind = "rollout_group"
)

// ElapsedUnknown marks a think disclosure whose reasoning time is not
// yet known (the stream is still inside the span).
const ElapsedUnknown = -1

// =============================================================================
// NODE
// =============================================================================

// Node is one node of the document tree. Which fields are meaningful
// depends on Kind; unused fields stay at their zero value and are
// dropped from the JSON form.
type Node struct {
	Kind Kind `json:"kind"`

	// Text carries literal content: text runs, code span and code block
	// bodies, image alt text.
	Text string `json:"text,omitempty"`

	// Level is the heading level (1-6).
	Level int `json:"level,omitempty"`

	// Ordered distinguishes numbered lists from bulleted ones.
	Ordered bool `json:"ordered,omitempty"`

	// Header marks the header row of a table.
	Header bool `json:"header,omitempty"`

	// Language is the fenced code block language tag, possibly empty.
	Language string `json:"language,omitempty"`

	// URL is the link or image target.
	URL string `json:"url,omitempty"`

	// Columns is the image-grid column count (min(4, run length)).
	Columns int `json:"columns,omitempty"`

	// Disclosure fields. Key is the stable positional key derived from
	// the node's ordinal position in the tree, never from content.
	Key   string `json:"key,omitempty"`
	Title string `json:"title,omitempty"`
	Open  bool   `json:"open,omitempty"`

	// Elapsed is the reasoning time in whole seconds for think
	// disclosures; ElapsedUnknown while streaming.
	Elapsed int `json:"elapsed_seconds,omitempty"`

	// Rollout group identity.
	GroupID string `json:"group_id,omitempty"`

	Children []*Node `json:"children,omitempty"`
}

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewText creates a text leaf.
func NewText(text string) *Node {
	return &Node{Kind: KindText, Text: text}
}

// NewParagraph creates a paragraph holding inline children.
func NewParagraph(children ...*Node) *Node {
	return &Node{Kind: KindParagraph, Children: children}
}

// NewHeading creates a heading of the given level.
func NewHeading(level int, children ...*Node) *Node {
	return &Node{Kind: KindHeading, Level: level, Children: children}
}

// NewCodeBlock creates a fenced code block node.
func NewCodeBlock(language, code string) *Node {
	return &Node{Kind: KindCodeBlock, Language: language, Text: code}
}

// NewImage creates an image node.
func NewImage(alt, url string) *Node {
	return &Node{Kind: KindImage, Text: alt, URL: url}
}

// NewLink creates a link node wrapping inline children.
func NewLink(url string, children ...*Node) *Node {
	return &Node{Kind: KindLink, URL: url, Children: children}
}

// =============================================================================
// PREDICATES
// =============================================================================

// IsBlank reports whether an inline node carries only whitespace.
func (n *Node) IsBlank() bool {
	switch n.Kind {
	case KindText:
		return strings.TrimSpace(n.Text) == ""
	case KindHardBreak:
		return true
	default:
		return false
	}
}

// IsStandaloneImage reports whether a node is an image, or a link whose
// only non-blank content is an image. These are the units grid
// promotion operates on.
func (n *Node) IsStandaloneImage() bool {
	switch n.Kind {
	case KindImage:
		return true
	case KindLink:
		sawImage := false
		for _, c := range n.Children {
			if c.Kind == KindImage {
				sawImage = true
				continue
			}
			if !c.IsBlank() {
				return false
			}
		}
		return sawImage
	default:
		return false
	}
}

// PlainText flattens the node's textual content, ignoring structure.
// Used for summaries and tests.
func (n *Node) PlainText() string {
	var sb strings.Builder
	n.appendPlainText(&sb)
	return sb.String()
}

func (n *Node) appendPlainText(sb *strings.Builder) {
	switch n.Kind {
	case KindText, KindCodeSpan, KindCodeBlock:
		sb.WriteString(n.Text)
	case KindImage:
		sb.WriteString(n.Text)
	case KindHardBreak:
		sb.WriteString("\n")
	}
	for _, c := range n.Children {
		c.appendPlainText(sb)
	}
}

// Walk visits the node and all descendants depth-first. The visitor
// returns false to prune a subtree.
func (n *Node) Walk(visit func(*Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(visit)
	}
}
