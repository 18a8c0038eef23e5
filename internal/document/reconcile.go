// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document models structured model output as an immutable tree.
package document

import (
	"strconv"

	"github.com/morganforge/grokwire/internal/segment"
)

// =============================================================================
// RECONCILER INPUT
// =============================================================================

// Input is everything a reconciliation pass needs besides render state.
type Input struct {
	// Segments is the full segmentation of the accumulated text.
	Segments []segment.Segment

	// Streaming reports whether the stream is still in flight; it drives
	// the "open all" disclosure defaults.
	Streaming bool

	// ElapsedSeconds is the reasoning time in whole seconds, or
	// ElapsedUnknown while the reasoning span is still open.
	ElapsedSeconds int
}

// =============================================================================
// RECONCILE
// =============================================================================

// Reconcile assembles the document tree for one message entry.
//
// Plain segments render directly as markdown fragments. Reasoning
// segments render as a think disclosure wrapping agent-section
// disclosures (a single untitled section renders flat), each containing
// either rollout-group disclosures or its body as markdown. Afterwards
// runs of adjacent standalone images are promoted into grids, and
// disclosure open state is resolved against the prior RenderState.
//
// Reconcile mutates state only through the documented one-shot
// auto-collapse; everything else is derived from the input.
func Reconcile(in Input, state *RenderState, policy DisclosurePolicy) *Node {
	doc := &Node{Kind: KindDocument}

	// One-shot collapse: the instant elapsed time becomes known, every
	// think disclosure is forced closed exactly once. Recorded state set
	// later (by the user) wins on all subsequent passes.
	collapseNow := in.ElapsedSeconds != ElapsedUnknown && state != nil && !state.AutoCollapsedOnce

	thinkOrdinal := 0
	for _, seg := range in.Segments {
		if seg.Kind == segment.Plain {
			doc.Children = append(doc.Children, Render(seg.Text)...)
			continue
		}

		key := "t" + strconv.Itoa(thinkOrdinal)
		thinkOrdinal++

		think := &Node{
			Kind:    KindThink,
			Key:     key,
			Elapsed: in.ElapsedSeconds,
			Title:   thinkTitle(in.ElapsedSeconds),
		}
		buildThinkBody(think, seg.Text, in, state, policy)

		if collapseNow {
			state.SetOpen(key, false)
		}
		think.Open = resolveOpen(state, key, in.ElapsedSeconds == ElapsedUnknown)

		doc.Children = append(doc.Children, think)
	}

	if collapseNow && thinkOrdinal > 0 {
		state.AutoCollapsedOnce = true
	}

	promoteGrids(doc)
	return doc
}

// thinkTitle labels the reasoning disclosure.
func thinkTitle(elapsed int) string {
	if elapsed == ElapsedUnknown {
		return "Thinking…"
	}
	return "Thought for " + strconv.Itoa(elapsed) + "s"
}

// buildThinkBody fills a think disclosure with agent sections.
func buildThinkBody(think *Node, body string, in Input, state *RenderState, policy DisclosurePolicy) {
	sections := segment.ParseSections(body)

	// A single untitled section renders flat, without the extra layer.
	if len(sections) == 1 && sections[0].Title == "" {
		think.Children = sectionContent(sections[0].Body, think.Key, in, state, policy)
		return
	}

	for i, sec := range sections {
		key := think.Key + ".s" + strconv.Itoa(i)
		node := &Node{
			Kind:     KindAgentSection,
			Key:      key,
			Title:    sec.Title,
			Children: sectionContent(sec.Body, key, in, state, policy),
		}
		defaultOpen := (i == 0 && policy.FirstSectionOpen) ||
			(in.Streaming && policy.OpenAllWhileStreaming)
		node.Open = resolveOpen(state, key, defaultOpen)
		think.Children = append(think.Children, node)
	}
}

// sectionContent renders a section body: rollout-group disclosures when
// rollout lines are present, plain markdown otherwise. Preamble text
// ahead of the first rollout line renders as markdown before the groups.
func sectionContent(body, parentKey string, in Input, state *RenderState, policy DisclosurePolicy) []*Node {
	preamble, groups := segment.ParseGroups(body)
	if groups == nil {
		return Render(body)
	}

	var nodes []*Node
	if preamble != "" {
		nodes = Render(preamble)
	}
	for i, g := range groups {
		key := parentKey + ".g" + strconv.Itoa(i)
		node := &Node{
			Kind:    KindRolloutGroup,
			Key:     key,
			GroupID: g.GroupID,
			Title:   segment.TypeLabel(g.Blocks[0].TypeTag) + " · " + g.GroupID,
		}
		for _, b := range g.Blocks {
			node.Children = append(node.Children, Render(b.BodyText())...)
		}
		node.Open = resolveOpen(state, key, in.Streaming && policy.OpenAllWhileStreaming)
		nodes = append(nodes, node)
	}
	return nodes
}

// resolveOpen applies recorded state over the policy default.
func resolveOpen(state *RenderState, key string, defaultOpen bool) bool {
	if open, ok := state.lookup(key); ok {
		return open
	}
	return defaultOpen
}

// =============================================================================
// IMAGE GRID PROMOTION
// =============================================================================

// maxGridColumns caps the image-grid column count.
const maxGridColumns = 4

// promoteGrids rewrites every container's child list, re-parenting
// maximal runs of two or more adjacent standalone images into image-grid
// nodes. Blank-only separators between the images are ignored because
// image-only paragraphs are dissolved before run detection. Runs of one
// are left untouched.
func promoteGrids(container *Node) {
	switch container.Kind {
	case KindDocument, KindThink, KindAgentSection, KindRolloutGroup:
	default:
		return
	}

	container.Children = promoteRuns(container.Children)

	for _, c := range container.Children {
		promoteGrids(c)
	}
}

// gridUnit is one block-level slot during run detection: either a
// standalone image (with the node it came from, for rewrapping runs of
// one) or an arbitrary block kept verbatim.
type gridUnit struct {
	image *Node // nil for non-image units
	orig  *Node // the original block node
}

// promoteRuns performs run detection over one child list.
func promoteRuns(children []*Node) []*Node {
	var units []gridUnit
	for _, child := range children {
		imgs, ok := standaloneImages(child)
		if !ok {
			units = append(units, gridUnit{orig: child})
			continue
		}
		for _, img := range imgs {
			units = append(units, gridUnit{image: img, orig: child})
		}
	}

	var out []*Node
	i := 0
	for i < len(units) {
		if units[i].image == nil {
			out = append(out, units[i].orig)
			i++
			continue
		}

		j := i
		for j < len(units) && units[j].image != nil {
			j++
		}

		run := units[i:j]
		if len(run) < 2 {
			// A lone image keeps its original block.
			out = append(out, run[0].orig)
			i = j
			continue
		}

		cols := len(run)
		if cols > maxGridColumns {
			cols = maxGridColumns
		}
		grid := &Node{Kind: KindImageGrid, Columns: cols}
		for _, u := range run {
			grid.Children = append(grid.Children, u.image)
		}
		out = append(out, grid)
		i = j
	}
	return out
}

// standaloneImages reports whether a block is entirely standalone
// images (ignoring blank-only separators) and returns them in order.
// A bare image or image-link node qualifies as a run member too.
func standaloneImages(block *Node) ([]*Node, bool) {
	if block.IsStandaloneImage() {
		return []*Node{block}, true
	}
	if block.Kind != KindParagraph {
		return nil, false
	}

	var imgs []*Node
	for _, c := range block.Children {
		if c.IsStandaloneImage() {
			imgs = append(imgs, c)
			continue
		}
		if !c.IsBlank() {
			return nil, false
		}
	}
	if len(imgs) == 0 {
		return nil, false
	}
	return imgs, true
}
