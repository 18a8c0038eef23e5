// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document models structured model output as an immutable tree.
//
// The package has three layers:
//
//   - Node: a tagged document-tree value (paragraphs, headings, lists,
//     tables, code blocks, images, links, disclosures, image grids). A
//     render pass produces a fresh tree; nothing mutates a published tree.
//
//   - Markdown: a pure function from a span of text to block fragments of
//     the constrained dialect (headings, lists, tables, fenced code,
//     inline emphasis/code, links, images, bare data-URI images).
//
//   - Reconcile: assembles fragments from all segments of an accumulated
//     text into one document, promotes runs of adjacent standalone images
//     into grids, and merges previously recorded disclosure state by
//     positional key so a re-render never loses user toggles.
//
// Rendering is deterministic: the same accumulated text with the same
// prior RenderState always yields a structurally identical tree. The one
// intentional exception is the one-shot auto-collapse of the reasoning
// disclosure when its elapsed time first becomes known, which is tracked
// explicitly on RenderState rather than hidden in package state.
package document
