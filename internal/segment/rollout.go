// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package segment splits accumulated model output into typed spans.
package segment

import (
	"strings"
	"unicode"
)

// =============================================================================
// ROLLOUT TYPES
// =============================================================================

// Block is one rollout record inside a reasoning span: a line of the
// form "[id][type] first body line" followed by any non-matching lines.
type Block struct {
	GroupID string
	TypeTag string
	Body    []string
}

// BodyText joins the block's body lines.
func (b Block) BodyText() string {
	return strings.Join(b.Body, "\n")
}

// Group collects all blocks sharing a group id, in arrival order.
// Groups themselves are ordered by first appearance of their id.
type Group struct {
	GroupID string
	Blocks  []Block
}

// Section is a named subdivision of a reasoning span introduced by an
// agent heading line. A span with no heading lines yields exactly one
// untitled section containing the whole body.
type Section struct {
	Title string // empty for the untitled section
	Body  string
}

// =============================================================================
// AGENT SECTIONS
// =============================================================================

// ParseSections splits a reasoning span into ordered agent sections.
//
// A line that, after trimming, matches "Grok Leader" or "Agent<N>" /
// "Grok Agent<N>" (case-insensitive) starts a new named section; all
// other lines, blank ones included, belong to the current section's
// body. If no line matches, the whole span is one untitled section.
func ParseSections(text string) []Section {
	lines := strings.Split(text, "\n")

	var sections []Section
	var body []string
	current := "" // untitled until a heading is seen

	flush := func() {
		// The leading untitled section is kept only if it has content;
		// named sections are kept even when empty so ordering survives.
		joined := strings.Join(body, "\n")
		if current == "" && strings.TrimSpace(joined) == "" && len(sections) == 0 {
			body = nil
			return
		}
		sections = append(sections, Section{Title: current, Body: joined})
		body = nil
	}

	sawHeading := false
	for _, line := range lines {
		if title, ok := matchAgentHeading(line); ok {
			flush()
			current = title
			sawHeading = true
			continue
		}
		body = append(body, line)
	}

	if !sawHeading {
		return []Section{{Title: "", Body: text}}
	}

	flush()
	return sections
}

// matchAgentHeading reports whether a line is an agent heading and
// returns its canonical trimmed form.
//
// Grammar (case-insensitive, after trimming): "Grok Leader", or
// "Agent<digits>" with an optional "Grok " prefix.
func matchAgentHeading(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	lower := strings.ToLower(trimmed)

	if lower == "grok leader" {
		return trimmed, true
	}

	rest := strings.TrimPrefix(lower, "grok ")
	if !strings.HasPrefix(rest, "agent") {
		return "", false
	}
	digits := rest[len("agent"):]
	if digits == "" {
		return "", false
	}
	for _, r := range digits {
		if !unicode.IsDigit(r) {
			return "", false
		}
	}
	return trimmed, true
}

// =============================================================================
// ROLLOUT BLOCKS
// =============================================================================

// ParseGroups splits a section body into a preamble and rollout groups.
//
// A line of the form "[id][type] rest" starts a new block; subsequent
// non-matching lines append to the current block's body. Blocks are
// grouped by id preserving first-appearance order: a repeated id appends
// to the existing group, never creates a new one. Lines before the first
// rollout line are the preamble, returned for the caller to render as
// plain text so no content is lost.
//
// Returns nil groups if the body contains no rollout lines at all; the
// caller then renders the whole body as plain markdown.
func ParseGroups(body string) (string, []Group) {
	lines := strings.Split(body, "\n")

	var blocks []Block
	var preamble []string
	currentIdx := -1

	for _, line := range lines {
		id, tag, rest, ok := matchRolloutLine(line)
		if ok {
			block := Block{GroupID: id, TypeTag: tag}
			if rest != "" {
				block.Body = append(block.Body, rest)
			}
			blocks = append(blocks, block)
			currentIdx = len(blocks) - 1
			continue
		}
		if currentIdx >= 0 {
			blocks[currentIdx].Body = append(blocks[currentIdx].Body, line)
			continue
		}
		preamble = append(preamble, line)
	}

	if len(blocks) == 0 {
		return "", nil
	}

	var groups []Group
	index := make(map[string]int)
	for _, b := range blocks {
		if i, seen := index[b.GroupID]; seen {
			groups[i].Blocks = append(groups[i].Blocks, b)
			continue
		}
		index[b.GroupID] = len(groups)
		groups = append(groups, Group{GroupID: b.GroupID, Blocks: []Block{b}})
	}
	return strings.TrimSpace(strings.Join(preamble, "\n")), groups
}

// matchRolloutLine parses "[id][type] rest-of-line". Brackets are
// literal; id and type are bracket-free text.
func matchRolloutLine(line string) (id, tag, rest string, ok bool) {
	if !strings.HasPrefix(line, "[") {
		return "", "", "", false
	}
	end := strings.Index(line, "]")
	if end < 0 {
		return "", "", "", false
	}
	id = line[1:end]
	if id == "" || strings.Contains(id, "[") {
		return "", "", "", false
	}

	after := line[end+1:]
	if !strings.HasPrefix(after, "[") {
		return "", "", "", false
	}
	end2 := strings.Index(after, "]")
	if end2 < 0 {
		return "", "", "", false
	}
	tag = after[1:end2]
	if tag == "" || strings.Contains(tag, "[") {
		return "", "", "", false
	}

	rest = strings.TrimLeft(after[end2+1:], " \t")
	return id, tag, rest, true
}

// =============================================================================
// TOOL TYPE LABELS
// =============================================================================

// toolLabels maps normalized rollout type tags to display labels.
// Lookup is case-insensitive after whitespace removal.
var toolLabels = map[string]string{
	"websearch":     "🔍 Web Search",
	"search":        "🔍 Search",
	"browse":        "🌐 Browse",
	"browsepage":    "🌐 Browse",
	"code":          "💻 Code",
	"codeexecution": "💻 Code",
	"terminal":      "💻 Terminal",
	"image":         "🖼 Image",
	"viewimage":     "🖼 Image",
	"render":        "🖼 Render",
	"xsearch":       "𝕏 Search",
	"think":         "💭 Think",
}

// defaultToolLabel is used for unrecognized rollout type tags.
const defaultToolLabel = "🔧 Tool"

// TypeLabel returns the display label for a rollout type tag. Matching
// removes all whitespace and ignores case; unknown tags get a generic
// fallback.
func TypeLabel(tag string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(tag), ""))
	if label, ok := toolLabels[normalized]; ok {
		return label
	}
	return defaultToolLabel
}
