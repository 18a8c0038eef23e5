// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document models structured model output as an immutable tree.
package document

import "strings"

// =============================================================================
// INLINE TOKENIZER
// =============================================================================

// ParseInline tokenizes one line of text into inline nodes.
//
// Recognized constructs, in precedence order at each position: backtick
// code spans, ![alt](url) images, [text](url) links, **bold**, *italic*,
// and bare data:image/...;base64,... URIs promoted to images. A single
// left-to-right scan with this precedence keeps code spans and image alt
// text protected from the emphasis rules, and runs in linear time with
// no backtracking.
func ParseInline(text string) []*Node {
	return parseInline(text, true)
}

// parseInline does the scan; links are disabled inside link labels so
// links never nest.
func parseInline(text string, allowLinks bool) []*Node {
	var nodes []*Node
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			nodes = append(nodes, NewText(plain.String()))
			plain.Reset()
		}
	}

	i := 0
	for i < len(text) {
		c := text[i]

		// Code span: `...`
		if c == '`' {
			if end := strings.IndexByte(text[i+1:], '`'); end >= 0 {
				flush()
				nodes = append(nodes, &Node{Kind: KindCodeSpan, Text: text[i+1 : i+1+end]})
				i += end + 2
				continue
			}
		}

		// Image: ![alt](url)
		if c == '!' && i+1 < len(text) && text[i+1] == '[' {
			if alt, url, n, ok := parseBracketPair(text[i+1:]); ok {
				flush()
				nodes = append(nodes, NewImage(alt, url))
				i += n + 1
				continue
			}
		}

		// Link: [text](url)
		if c == '[' && allowLinks {
			if label, url, n, ok := parseBracketPair(text[i:]); ok {
				flush()
				nodes = append(nodes, NewLink(url, parseInline(label, false)...))
				i += n
				continue
			}
		}

		// Bold: **...**
		if c == '*' && strings.HasPrefix(text[i:], "**") {
			if end := strings.Index(text[i+2:], "**"); end > 0 {
				flush()
				inner := text[i+2 : i+2+end]
				nodes = append(nodes, &Node{Kind: KindStrong, Children: parseInline(inner, allowLinks)})
				i += end + 4
				continue
			}
		}

		// Italic: *...*
		if c == '*' {
			if end := strings.IndexByte(text[i+1:], '*'); end > 0 {
				flush()
				inner := text[i+1 : i+1+end]
				nodes = append(nodes, &Node{Kind: KindEmphasis, Children: parseInline(inner, allowLinks)})
				i += end + 2
				continue
			}
		}

		// Bare inline data URI promoted to an image.
		if c == 'd' && strings.HasPrefix(text[i:], dataImagePrefix) {
			if uri, n, ok := scanDataURI(text[i:]); ok {
				flush()
				nodes = append(nodes, NewImage("", uri))
				i += n
				continue
			}
		}

		plain.WriteByte(c)
		i++
	}

	flush()
	return nodes
}

// =============================================================================
// HELPERS
// =============================================================================

// parseBracketPair parses "[label](url)" starting at text[0] == '[' and
// returns the label, the url, and the total bytes consumed. Labels do
// not nest: the first ']' closes the label.
func parseBracketPair(text string) (label, url string, n int, ok bool) {
	if len(text) == 0 || text[0] != '[' {
		return "", "", 0, false
	}
	close1 := strings.IndexByte(text, ']')
	if close1 < 0 {
		return "", "", 0, false
	}
	if close1+1 >= len(text) || text[close1+1] != '(' {
		return "", "", 0, false
	}
	close2 := strings.IndexByte(text[close1+2:], ')')
	if close2 < 0 {
		return "", "", 0, false
	}

	label = text[1:close1]
	url = text[close1+2 : close1+2+close2]
	n = close1 + 2 + close2 + 1
	return label, url, n, true
}

// dataImagePrefix starts a bare inline image URI.
const dataImagePrefix = "data:image/"

// scanDataURI consumes a data:image/...;base64,... URI and returns it
// with the number of bytes consumed. URIs missing the base64 payload
// marker are left as plain text.
func scanDataURI(text string) (uri string, n int, ok bool) {
	end := len(text)
scan:
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case ' ', '\t', ')', ']', '"', '\'', '<', '>':
			end = i
			break scan
		}
	}

	candidate := text[:end]
	if !strings.Contains(candidate, ";base64,") {
		return "", 0, false
	}
	// Require at least some payload after the marker.
	payload := candidate[strings.Index(candidate, ";base64,")+len(";base64,"):]
	if payload == "" {
		return "", 0, false
	}
	return candidate, end, true
}
