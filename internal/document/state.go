// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document models structured model output as an immutable tree.
package document

// =============================================================================
// RENDER STATE
// =============================================================================

// RenderState carries the per-entry state that cannot be recomputed from
// text alone: disclosure open/closed toggles keyed by positional key,
// and the one-shot auto-collapse flag for the reasoning disclosure.
//
// One RenderState belongs to one message entry; it lives only while the
// entry is displayed and is never persisted.
type RenderState struct {
	// Disclosures records explicit open/closed state by positional key.
	// A present entry always wins over the default policy.
	Disclosures map[string]bool

	// AutoCollapsedOnce is set the first time the reasoning disclosure
	// is force-collapsed on elapsed time becoming known. It guarantees
	// the collapse happens exactly once; afterwards user toggles are
	// preserved verbatim.
	AutoCollapsedOnce bool
}

// NewRenderState creates an empty render state.
func NewRenderState() *RenderState {
	return &RenderState{Disclosures: make(map[string]bool)}
}

// SetOpen records an explicit open/closed state for a disclosure key.
// Used by the presentation layer when the user toggles a disclosure.
func (s *RenderState) SetOpen(key string, open bool) {
	if s.Disclosures == nil {
		s.Disclosures = make(map[string]bool)
	}
	s.Disclosures[key] = open
}

// lookup returns the recorded state for a key, if any.
func (s *RenderState) lookup(key string) (bool, bool) {
	if s == nil || s.Disclosures == nil {
		return false, false
	}
	open, ok := s.Disclosures[key]
	return open, ok
}

// =============================================================================
// DISCLOSURE POLICY
// =============================================================================

// DisclosurePolicy decides default open/closed state for disclosures
// that have no explicit recorded state.
//
// The asymmetric section default (only the first agent section opens
// once streaming ends) mirrors the observed upstream behavior; it is a
// policy field rather than a hardwired rule so callers can override it.
type DisclosurePolicy struct {
	// OpenAllWhileStreaming opens every agent-section and rollout-group
	// disclosure while the message is still streaming.
	OpenAllWhileStreaming bool

	// FirstSectionOpen opens the first agent section by default even
	// after streaming has finished.
	FirstSectionOpen bool
}

// DefaultPolicy returns the policy matching upstream behavior.
func DefaultPolicy() DisclosurePolicy {
	return DisclosurePolicy{
		OpenAllWhileStreaming: true,
		FirstSectionOpen:      true,
	}
}
