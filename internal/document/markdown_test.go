// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document models structured model output as an immutable tree.
package document

import (
	"testing"
)

// =============================================================================
// BLOCK PARSER TESTS
// =============================================================================

func TestRender_Paragraphs(t *testing.T) {
	blocks := Render("line one\nline two\n\nsecond para")

	if len(blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want 2", len(blocks))
	}
	if blocks[0].Kind != KindParagraph || blocks[1].Kind != KindParagraph {
		t.Fatalf("kinds = %v, %v, want paragraphs", blocks[0].Kind, blocks[1].Kind)
	}

	// Lines inside one paragraph join with a hard break, not a new paragraph.
	var sawBreak bool
	for _, c := range blocks[0].Children {
		if c.Kind == KindHardBreak {
			sawBreak = true
		}
	}
	if !sawBreak {
		t.Error("paragraph lines should be joined with a hard break")
	}
	if got := blocks[0].PlainText(); got != "line one\nline two" {
		t.Errorf("PlainText = %q", got)
	}
}

func TestRender_Headings(t *testing.T) {
	blocks := Render("# Title\n### Sub\n####### not a heading\n#missing space")

	if len(blocks) != 3 {
		t.Fatalf("len(blocks) = %d, want 3: %+v", len(blocks), blocks)
	}
	if blocks[0].Kind != KindHeading || blocks[0].Level != 1 {
		t.Errorf("blocks[0] = %+v, want h1", blocks[0])
	}
	if blocks[0].PlainText() != "Title" {
		t.Errorf("h1 text = %q, want Title", blocks[0].PlainText())
	}
	if blocks[1].Kind != KindHeading || blocks[1].Level != 3 {
		t.Errorf("blocks[1] = %+v, want h3", blocks[1])
	}
	// Seven hashes and a hash without a space are plain paragraph text.
	if blocks[2].Kind != KindParagraph {
		t.Errorf("blocks[2].Kind = %v, want paragraph", blocks[2].Kind)
	}
}

func TestRender_Lists(t *testing.T) {
	blocks := Render("- one\n- two\n1. first\n2) second\n3、 third")

	if len(blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want 2 lists: %+v", len(blocks), blocks)
	}

	ul := blocks[0]
	if ul.Kind != KindList || ul.Ordered {
		t.Fatalf("blocks[0] = %+v, want unordered list", ul)
	}
	if len(ul.Children) != 2 {
		t.Errorf("unordered items = %d, want 2", len(ul.Children))
	}

	ol := blocks[1]
	if ol.Kind != KindList || !ol.Ordered {
		t.Fatalf("blocks[1] = %+v, want ordered list", ol)
	}
	if len(ol.Children) != 3 {
		t.Errorf("ordered items = %d, want 3", len(ol.Children))
	}
	if got := ol.Children[2].PlainText(); got != "third" {
		t.Errorf("third item = %q", got)
	}
}

func TestRender_UnicodeBullets(t *testing.T) {
	blocks := Render("• dot bullet\n· middle dot")

	if len(blocks) != 1 || blocks[0].Kind != KindList {
		t.Fatalf("blocks = %+v, want one list", blocks)
	}
	if len(blocks[0].Children) != 2 {
		t.Errorf("items = %d, want 2", len(blocks[0].Children))
	}
}

func TestRender_Table(t *testing.T) {
	blocks := Render("| Name | Age |\n|---|---:|\n| Ada | 36 |\n| Bob | 41 |\nnot a row")

	if len(blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want table + paragraph: %+v", len(blocks), blocks)
	}

	table := blocks[0]
	if table.Kind != KindTable {
		t.Fatalf("blocks[0].Kind = %v, want table", table.Kind)
	}
	// Header plus two body rows; the separator row is consumed.
	if len(table.Children) != 3 {
		t.Fatalf("rows = %d, want 3", len(table.Children))
	}
	if !table.Children[0].Header {
		t.Error("first row must be the header")
	}
	if table.Children[1].Header {
		t.Error("body rows must not be headers")
	}
	if got := table.Children[1].Children[0].PlainText(); got != "Ada" {
		t.Errorf("cell = %q, want Ada", got)
	}
	if blocks[1].Kind != KindParagraph {
		t.Errorf("trailing line should close the table into a paragraph")
	}
}

func TestRender_PipeLineWithoutSeparatorIsParagraph(t *testing.T) {
	blocks := Render("a | b\nplain line")
	if len(blocks) != 1 || blocks[0].Kind != KindParagraph {
		t.Fatalf("blocks = %+v, want a single paragraph", blocks)
	}
}

func TestRender_FencedCode(t *testing.T) {
	blocks := Render("before\n```go\nfunc main() {}\n# not a heading\n```\nafter")

	if len(blocks) != 3 {
		t.Fatalf("len(blocks) = %d, want 3: %+v", len(blocks), blocks)
	}
	code := blocks[1]
	if code.Kind != KindCodeBlock {
		t.Fatalf("blocks[1].Kind = %v, want code block", code.Kind)
	}
	if code.Language != "go" {
		t.Errorf("Language = %q, want go", code.Language)
	}
	// Contents are opaque: markdown inside a fence is never parsed.
	if code.Text != "func main() {}\n# not a heading" {
		t.Errorf("Text = %q", code.Text)
	}
}

func TestRender_UnterminatedFenceConsumesToEnd(t *testing.T) {
	blocks := Render("```python\nx = 1\ny = 2")

	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1: %+v", len(blocks), blocks)
	}
	if blocks[0].Kind != KindCodeBlock || blocks[0].Text != "x = 1\ny = 2" {
		t.Errorf("blocks[0] = %+v", blocks[0])
	}
}

func TestRender_ListKindSwitchClosesOther(t *testing.T) {
	blocks := Render("- a\n1. b\n- c")

	if len(blocks) != 3 {
		t.Fatalf("len(blocks) = %d, want 3 separate lists", len(blocks))
	}
	if blocks[0].Ordered || !blocks[1].Ordered || blocks[2].Ordered {
		t.Errorf("list kinds = %v %v %v, want unordered/ordered/unordered",
			blocks[0].Ordered, blocks[1].Ordered, blocks[2].Ordered)
	}
}

func TestRender_Deterministic(t *testing.T) {
	input := "# H\n- a\n- b\n\n| x | y |\n|---|---|\n| 1 | 2 |\n```\ncode\n```"
	a := Render(input)
	b := Render(input)

	if !treesEqual(a, b) {
		t.Error("Render is not deterministic for identical input")
	}
}

// treesEqual compares two fragment slices structurally.
func treesEqual(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !nodeEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func nodeEqual(a, b *Node) bool {
	if a.Kind != b.Kind || a.Text != b.Text || a.Level != b.Level ||
		a.Ordered != b.Ordered || a.Header != b.Header ||
		a.Language != b.Language || a.URL != b.URL ||
		a.Columns != b.Columns || a.Key != b.Key || a.Title != b.Title ||
		a.Open != b.Open || a.Elapsed != b.Elapsed || a.GroupID != b.GroupID {
		return false
	}
	return treesEqual(a.Children, b.Children)
}
