// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document models structured model output as an immutable tree.
package document

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// MARKDOWN BLOCK RENDERER
// =============================================================================

// Render converts a span of the constrained Markdown dialect into block
// fragments. It is a pure function: same input, same fragments.
//
// Pipeline: fenced code blocks are extracted first and replaced by opaque
// placeholders so no later step touches their contents; the remaining
// lines run through a line-state pass tracking the open paragraph, list,
// and table; inline content is tokenized per line; placeholders are
// substituted back as code-block nodes.
func Render(text string) []*Node {
	lines, fences := extractFences(text)

	var blocks []*Node
	var para []string
	var list *Node
	var table *Node

	flushPara := func() {
		if len(para) > 0 {
			blocks = append(blocks, paragraphFrom(para))
			para = nil
		}
	}
	closeList := func() { list = nil }
	closeTable := func() { table = nil }

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		if idx, ok := fencePlaceholder(line); ok {
			flushPara()
			closeList()
			closeTable()
			blocks = append(blocks, fences[idx])
			continue
		}

		if strings.TrimSpace(line) == "" {
			flushPara()
			closeList()
			closeTable()
			continue
		}

		if level, rest, ok := matchHeading(line); ok {
			flushPara()
			closeList()
			closeTable()
			blocks = append(blocks, NewHeading(level, ParseInline(rest)...))
			continue
		}

		// A pipe line whose next line is a separator-only row opens a
		// table, consuming both the header and the separator.
		if table == nil && strings.Contains(line, "|") &&
			i+1 < len(lines) && isTableSeparator(lines[i+1]) {
			flushPara()
			closeList()
			table = &Node{Kind: KindTable}
			table.Children = append(table.Children, tableRow(line, true))
			blocks = append(blocks, table)
			i++ // separator row is consumed, never rendered
			continue
		}
		if table != nil {
			if strings.Contains(line, "|") {
				table.Children = append(table.Children, tableRow(line, false))
				continue
			}
			closeTable()
			// The non-matching line falls through to the handlers below.
		}

		if rest, ordered, ok := matchListItem(line); ok {
			flushPara()
			if list != nil && list.Ordered != ordered {
				// A differing list kind closes the other first.
				closeList()
			}
			if list == nil {
				list = &Node{Kind: KindList, Ordered: ordered}
				blocks = append(blocks, list)
			}
			item := &Node{Kind: KindListItem, Children: ParseInline(rest)}
			list.Children = append(list.Children, item)
			continue
		}

		// Plain text: joins the open paragraph with a line break rather
		// than starting a new one. A paragraph line ends any open list.
		closeList()
		para = append(para, line)
	}

	flushPara()
	return blocks
}

// paragraphFrom builds one paragraph node from buffered lines, joining
// them with hard breaks.
func paragraphFrom(lines []string) *Node {
	var children []*Node
	for i, l := range lines {
		if i > 0 {
			children = append(children, &Node{Kind: KindHardBreak})
		}
		children = append(children, ParseInline(l)...)
	}
	return NewParagraph(children...)
}

// =============================================================================
// FENCED CODE EXTRACTION
// =============================================================================

// fenceMarker opens and closes a fenced code block.
const fenceMarker = "```"

// placeholder delimiters use NUL bytes, which cannot appear in decoded
// event payloads, so a placeholder can never collide with content.
const (
	placeholderPrefix = "\x00code:"
	placeholderSuffix = "\x00"
)

// extractFences replaces every fenced code block with a placeholder line
// and returns the remaining lines plus the extracted code-block nodes.
// An unterminated fence consumes to the end of the input.
func extractFences(text string) ([]string, []*Node) {
	lines := strings.Split(text, "\n")

	var out []string
	var fences []*Node

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, fenceMarker) {
			out = append(out, lines[i])
			continue
		}

		language := strings.TrimSpace(strings.TrimPrefix(trimmed, fenceMarker))

		var body []string
		closed := false
		j := i + 1
		for ; j < len(lines); j++ {
			if strings.HasPrefix(strings.TrimSpace(lines[j]), fenceMarker) {
				closed = true
				break
			}
			body = append(body, lines[j])
		}

		fences = append(fences, NewCodeBlock(language, strings.Join(body, "\n")))
		out = append(out, placeholderPrefix+strconv.Itoa(len(fences)-1)+placeholderSuffix)

		if closed {
			i = j
		} else {
			i = len(lines)
		}
	}

	return out, fences
}

// fencePlaceholder recognizes a placeholder line and returns its index.
func fencePlaceholder(line string) (int, bool) {
	if !strings.HasPrefix(line, placeholderPrefix) || !strings.HasSuffix(line, placeholderSuffix) {
		return 0, false
	}
	idx, err := strconv.Atoi(line[len(placeholderPrefix) : len(line)-len(placeholderSuffix)])
	if err != nil || idx < 0 {
		return 0, false
	}
	return idx, true
}

// =============================================================================
// LINE GRAMMAR
// =============================================================================

// matchHeading recognizes 1-6 leading '#' characters followed by a space.
func matchHeading(line string) (level int, rest string, ok bool) {
	n := 0
	for n < len(line) && line[n] == '#' {
		n++
	}
	if n < 1 || n > 6 || n >= len(line) || line[n] != ' ' {
		return 0, "", false
	}
	return n, strings.TrimSpace(line[n+1:]), true
}

// unorderedMarkers are the accepted bullet characters.
const unorderedMarkers = "-*+•·"

// matchListItem recognizes a bulleted or numbered list item.
// Unordered: one of - * + • · then a space. Ordered: digits then one of
// . ) 、 then a space.
func matchListItem(line string) (rest string, ordered bool, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")

	r, size := utf8.DecodeRuneInString(trimmed)
	if strings.ContainsRune(unorderedMarkers, r) &&
		len(trimmed) > size && trimmed[size] == ' ' {
		return strings.TrimSpace(trimmed[size+1:]), false, true
	}

	n := 0
	for n < len(trimmed) && trimmed[n] >= '0' && trimmed[n] <= '9' {
		n++
	}
	if n == 0 {
		return "", false, false
	}
	sep, sepSize := utf8.DecodeRuneInString(trimmed[n:])
	if sep != '.' && sep != ')' && sep != '、' {
		return "", false, false
	}
	after := trimmed[n+sepSize:]
	if !strings.HasPrefix(after, " ") {
		return "", false, false
	}
	return strings.TrimSpace(after[1:]), true, true
}

// isTableSeparator recognizes a separator-only row: pipe-delimited cells
// each matching :?-+:? (dashes with optional alignment colons).
func isTableSeparator(line string) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.Contains(trimmed, "|") {
		return false
	}

	cells := splitTableCells(trimmed)
	if len(cells) == 0 {
		return false
	}
	for _, cell := range cells {
		if !isSeparatorCell(strings.TrimSpace(cell)) {
			return false
		}
	}
	return true
}

// isSeparatorCell matches :?-+:? exactly.
func isSeparatorCell(cell string) bool {
	cell = strings.TrimPrefix(cell, ":")
	cell = strings.TrimSuffix(cell, ":")
	if cell == "" {
		return false
	}
	for _, r := range cell {
		if r != '-' {
			return false
		}
	}
	return true
}

// splitTableCells splits a pipe row into cells, dropping the empty
// boundary cells produced by leading/trailing pipes.
func splitTableCells(line string) []string {
	cells := strings.Split(strings.TrimSpace(line), "|")
	if len(cells) > 0 && strings.TrimSpace(cells[0]) == "" {
		cells = cells[1:]
	}
	if len(cells) > 0 && strings.TrimSpace(cells[len(cells)-1]) == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// tableRow builds a table row node from a pipe line.
func tableRow(line string, header bool) *Node {
	row := &Node{Kind: KindTableRow, Header: header}
	for _, cell := range splitTableCells(line) {
		row.Children = append(row.Children, &Node{
			Kind:     KindTableCell,
			Children: ParseInline(strings.TrimSpace(cell)),
		})
	}
	return row
}
