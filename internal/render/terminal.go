// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"

	"github.com/morganforge/grokwire/internal/document"
	"github.com/morganforge/grokwire/internal/ui/styles"
	"github.com/morganforge/grokwire/internal/util"
)

// =============================================================================
// TERMINAL BINDING
// =============================================================================

// Terminal renders a document tree as styled ANSI text.
type Terminal struct {
	width     int
	codeTheme string
}

// NewTerminal creates a terminal renderer for the given width.
func NewTerminal(width int) *Terminal {
	if width <= 0 {
		width = 80
	}
	return &Terminal{
		width:     width,
		codeTheme: "monokai",
	}
}

// WithCodeTheme sets the chroma style used for code blocks.
func (t *Terminal) WithCodeTheme(name string) *Terminal {
	t.codeTheme = name
	return t
}

// Render walks the tree and produces the full styled output.
func (t *Terminal) Render(n *document.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind == document.KindDocument {
		return t.renderBlocks(n.Children)
	}
	return t.renderBlock(n)
}

// renderBlocks joins block-level siblings with a blank line.
func (t *Terminal) renderBlocks(blocks []*document.Node) string {
	var parts []string
	for _, b := range blocks {
		if out := t.renderBlock(b); out != "" {
			parts = append(parts, out)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (t *Terminal) renderBlock(n *document.Node) string {
	switch n.Kind {
	case document.KindParagraph:
		return t.renderInlines(n.Children)
	case document.KindHeading:
		return t.renderHeading(n)
	case document.KindList:
		return t.renderList(n)
	case document.KindTable:
		return t.renderTable(n)
	case document.KindCodeBlock:
		return t.renderCodeBlock(n)
	case document.KindImage:
		return t.renderImage(n)
	case document.KindImageGrid:
		return t.renderImageGrid(n)
	case document.KindThink, document.KindAgentSection, document.KindRolloutGroup:
		return t.renderDisclosure(n)
	default:
		// Inline node at block position; render it as-is.
		return t.renderInline(n)
	}
}

// =============================================================================
// BLOCK RENDERERS
// =============================================================================

func (t *Terminal) renderHeading(n *document.Node) string {
	text := t.renderInlines(n.Children)
	style := lipgloss.NewStyle().Bold(true).Foreground(styles.Purple)
	if n.Level <= 1 {
		style = style.Underline(true)
	}
	return style.Render(text)
}

func (t *Terminal) renderList(n *document.Node) string {
	var lines []string
	for i, item := range n.Children {
		marker := "• "
		if n.Ordered {
			marker = util.IntToStr(i+1) + ". "
		}
		body := t.renderInlines(item.Children)
		prefix := lipgloss.NewStyle().Foreground(styles.Cyan).Render(marker)
		lines = append(lines, "  "+prefix+body)
	}
	return strings.Join(lines, "\n")
}

func (t *Terminal) renderTable(n *document.Node) string {
	// Column widths from the widest cell, measured in display cells.
	var widths []int
	rows := n.Children
	for _, row := range rows {
		for i, cell := range row.Children {
			w := runewidth.StringWidth(cell.PlainText())
			if i >= len(widths) {
				widths = append(widths, w)
			} else if w > widths[i] {
				widths[i] = w
			}
		}
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.TextPrimary)
	sep := lipgloss.NewStyle().Foreground(styles.TextMuted)

	var lines []string
	for _, row := range rows {
		var cells []string
		for i, cell := range row.Children {
			text := t.renderInlines(cell.Children)
			pad := 0
			if i < len(widths) {
				pad = widths[i] - runewidth.StringWidth(cell.PlainText())
			}
			if pad > 0 {
				text += strings.Repeat(" ", pad)
			}
			if row.Header {
				text = headerStyle.Render(text)
			}
			cells = append(cells, text)
		}
		lines = append(lines, strings.Join(cells, sep.Render(" │ ")))

		if row.Header {
			var dashes []string
			for _, w := range widths {
				dashes = append(dashes, strings.Repeat("─", w))
			}
			lines = append(lines, sep.Render(strings.Join(dashes, "─┼─")))
		}
	}
	return strings.Join(lines, "\n")
}

func (t *Terminal) renderCodeBlock(n *document.Node) string {
	code := strings.TrimRight(n.Text, "\n")
	highlighted := highlightCode(code, n.Language, t.codeTheme)
	lines := strings.Split(highlighted, "\n")

	lineNumStyle := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Width(4).
		Align(lipgloss.Right).
		MarginRight(1)

	var rendered []string
	for i, line := range lines {
		rendered = append(rendered, lineNumStyle.Render(util.IntToStr(i+1))+line)
	}
	content := strings.Join(rendered, "\n")

	if n.Language != "" {
		badge := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Background(styles.OverlayDim).
			Padding(0, 1).
			Bold(true).
			Render(n.Language)
		content = badge + "\n" + content
	}

	maxWidth := t.width - 4
	if maxWidth < 20 {
		maxWidth = 20
	}
	return lipgloss.NewStyle().
		Background(styles.SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 1).
		MaxWidth(maxWidth).
		Render(content)
}

func (t *Terminal) renderImage(n *document.Node) string {
	label := n.Text
	if label == "" {
		label = n.URL
	}
	return lipgloss.NewStyle().
		Foreground(styles.Cyan).
		Render("🖼 " + normalize(label))
}

func (t *Terminal) renderImageGrid(n *document.Node) string {
	cols := n.Columns
	if cols < 1 {
		cols = 1
	}

	cellStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(styles.Overlay).
		Padding(0, 1)

	var rows []string
	for start := 0; start < len(n.Children); start += cols {
		end := start + cols
		if end > len(n.Children) {
			end = len(n.Children)
		}
		var cells []string
		for _, img := range n.Children[start:end] {
			cells = append(cells, cellStyle.Render(t.renderInline(img)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return strings.Join(rows, "\n")
}

// renderDisclosure draws the chevron header and, when open, the
// indented body.
func (t *Terminal) renderDisclosure(n *document.Node) string {
	chevron := "▶"
	if n.Open {
		chevron = "▼"
	}

	var titleColor lipgloss.AdaptiveColor
	switch n.Kind {
	case document.KindThink:
		titleColor = styles.TextMuted
	case document.KindAgentSection:
		titleColor = styles.Purple
	default:
		titleColor = styles.Cyan
	}
	header := lipgloss.NewStyle().Foreground(titleColor).Bold(true).
		Render(chevron + " " + normalize(n.Title))

	if !n.Open || len(n.Children) == 0 {
		return header
	}

	body := t.renderBlocks(n.Children)
	return header + "\n" + indent(body, "  ")
}

// =============================================================================
// INLINE RENDERERS
// =============================================================================

func (t *Terminal) renderInlines(children []*document.Node) string {
	var sb strings.Builder
	for _, c := range children {
		sb.WriteString(t.renderInline(c))
	}
	return sb.String()
}

func (t *Terminal) renderInline(n *document.Node) string {
	switch n.Kind {
	case document.KindText:
		return normalize(n.Text)
	case document.KindCodeSpan:
		return lipgloss.NewStyle().
			Background(styles.SurfaceDim).
			Foreground(styles.Cyan).
			Render(normalize(n.Text))
	case document.KindStrong:
		return lipgloss.NewStyle().Bold(true).Render(t.renderInlines(n.Children))
	case document.KindEmphasis:
		return lipgloss.NewStyle().Italic(true).Render(t.renderInlines(n.Children))
	case document.KindLink:
		text := t.renderInlines(n.Children)
		link := lipgloss.NewStyle().Foreground(styles.Cyan).Underline(true).Render(text)
		if n.URL != "" && text != n.URL {
			link += lipgloss.NewStyle().Foreground(styles.TextMuted).Render(" (" + n.URL + ")")
		}
		return link
	case document.KindImage:
		return t.renderImage(n)
	case document.KindHardBreak:
		return "\n"
	default:
		return t.renderInlines(n.Children)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// normalize applies NFC at the display boundary so combining sequences
// measure and render consistently.
func normalize(s string) string {
	return norm.NFC.String(s)
}

// indent prefixes every non-empty line.
func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
