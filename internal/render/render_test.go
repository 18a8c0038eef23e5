// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/morganforge/grokwire/internal/document"
)

// renderMarkdown parses markdown and renders it as a document.
func renderMarkdown(t *testing.T, text string) string {
	t.Helper()
	doc := &document.Node{
		Kind:     document.KindDocument,
		Children: document.Render(text),
	}
	return NewTerminal(80).Render(doc)
}

func TestTerminal_Paragraph(t *testing.T) {
	out := renderMarkdown(t, "plain words here")
	if !strings.Contains(out, "plain words here") {
		t.Errorf("output missing paragraph text:\n%s", out)
	}
}

func TestTerminal_HeadingAndList(t *testing.T) {
	out := renderMarkdown(t, "# Title\n\n- first\n- second\n\n1. one\n2. two")

	if !strings.Contains(out, "Title") {
		t.Errorf("heading text missing:\n%s", out)
	}
	if !strings.Contains(out, "• ") {
		t.Errorf("bullet marker missing:\n%s", out)
	}
	if !strings.Contains(out, "1. ") || !strings.Contains(out, "2. ") {
		t.Errorf("ordered markers missing:\n%s", out)
	}
}

func TestTerminal_Table(t *testing.T) {
	out := renderMarkdown(t, "| Name | Age |\n|------|-----|\n| Ada | 36 |")

	if !strings.Contains(out, "Name") || !strings.Contains(out, "Ada") {
		t.Errorf("table cells missing:\n%s", out)
	}
	if !strings.Contains(out, "│") {
		t.Errorf("column separator missing:\n%s", out)
	}
	if !strings.Contains(out, "─") {
		t.Errorf("header rule missing:\n%s", out)
	}
}

func TestTerminal_CodeBlock(t *testing.T) {
	out := renderMarkdown(t, "```go\nfunc main() {}\n```")

	if !strings.Contains(out, "main") {
		t.Errorf("code content missing:\n%s", out)
	}
	if !strings.Contains(out, "go") {
		t.Errorf("language badge missing:\n%s", out)
	}
}

func TestTerminal_DisclosureClosedHidesBody(t *testing.T) {
	think := &document.Node{
		Kind:  document.KindThink,
		Key:   "t0",
		Title: "Thought for 3s",
		Open:  false,
		Children: []*document.Node{
			document.NewParagraph(document.NewText("hidden reasoning")),
		},
	}
	out := NewTerminal(80).Render(think)

	if !strings.Contains(out, "▶ Thought for 3s") {
		t.Errorf("closed chevron missing:\n%s", out)
	}
	if strings.Contains(out, "hidden reasoning") {
		t.Errorf("closed disclosure must hide its body:\n%s", out)
	}
}

func TestTerminal_DisclosureOpenShowsIndentedBody(t *testing.T) {
	think := &document.Node{
		Kind:  document.KindThink,
		Key:   "t0",
		Title: "Thinking…",
		Open:  true,
		Children: []*document.Node{
			document.NewParagraph(document.NewText("visible reasoning")),
		},
	}
	out := NewTerminal(80).Render(think)

	if !strings.Contains(out, "▼ Thinking…") {
		t.Errorf("open chevron missing:\n%s", out)
	}
	if !strings.Contains(out, "  visible reasoning") {
		t.Errorf("open body should be indented:\n%s", out)
	}
}

func TestTerminal_ImageGridRows(t *testing.T) {
	grid := &document.Node{
		Kind:    document.KindImageGrid,
		Columns: 2,
		Children: []*document.Node{
			document.NewImage("one", "http://x/1.png"),
			document.NewImage("two", "http://x/2.png"),
			document.NewImage("three", "http://x/3.png"),
		},
	}
	out := NewTerminal(80).Render(grid)

	for _, alt := range []string{"one", "two", "three"} {
		if !strings.Contains(out, alt) {
			t.Errorf("grid missing image %q:\n%s", alt, out)
		}
	}
	// Three images at two columns: "three" wraps to a second row, so it
	// must sit on a later line than "one".
	lines := strings.Split(out, "\n")
	lineOf := func(s string) int {
		for i, l := range lines {
			if strings.Contains(l, s) {
				return i
			}
		}
		return -1
	}
	if lineOf("three") <= lineOf("one") {
		t.Errorf("grid did not wrap rows:\n%s", out)
	}
}

func TestTerminal_LinkShowsTarget(t *testing.T) {
	para := document.NewParagraph(
		document.NewLink("http://example.com", document.NewText("docs")),
	)
	out := NewTerminal(80).Render(para)

	if !strings.Contains(out, "docs") || !strings.Contains(out, "http://example.com") {
		t.Errorf("link text or target missing:\n%s", out)
	}
}

func TestMarshalTree(t *testing.T) {
	doc := &document.Node{
		Kind:     document.KindDocument,
		Children: document.Render("hello **world**"),
	}

	data, err := MarshalTree(doc)
	if err != nil {
		t.Fatalf("MarshalTree failed: %v", err)
	}

	var back document.Node
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if back.Kind != document.KindDocument {
		t.Errorf("kind = %q", back.Kind)
	}
}

func TestWriteOutput(t *testing.T) {
	doc := &document.Node{
		Kind:     document.KindDocument,
		Children: document.Render("answer"),
	}

	var buf bytes.Buffer
	if err := WriteOutput(&buf, doc, "answer", 3); err != nil {
		t.Fatalf("WriteOutput failed: %v", err)
	}

	var out JSONOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if out.Text != "answer" {
		t.Errorf("Text = %q", out.Text)
	}
	if out.ThinkingSeconds != 3 {
		t.Errorf("ThinkingSeconds = %d", out.ThinkingSeconds)
	}
	if out.Document == nil || out.Document.Kind != document.KindDocument {
		t.Error("document tree missing")
	}
}
