// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/grokwire/internal/document"
	"github.com/morganforge/grokwire/internal/model"
	"github.com/morganforge/grokwire/internal/segment"
	"github.com/morganforge/grokwire/internal/ui/styles"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderInput())
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("grokwire")
	conv := m.manager.Active()
	sub := m.theme.HeaderSubtitle.Render(conv.GetTitle() + " · " + conv.Model)
	return m.theme.Header.Width(m.width).Render(title + "  " + sub)
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.state == StateStreaming:
		left = m.spinner.View() + " " + m.theme.ThinkingText.Render("streaming")
	case m.lastErr != nil:
		left = m.theme.ErrorText.Render("error: " + m.lastErr.Error())
	case m.statusMsg != "":
		left = m.statusMsg
	case m.inputMode:
		left = "insert"
	default:
		left = "browse"
	}

	var hints string
	if m.theme.GetLayoutMode() != styles.LayoutNarrow {
		hints = m.theme.ShortcutKey.Render("esc") + m.theme.ShortcutDesc.Render(" browse  ") +
			m.theme.ShortcutKey.Render("tab") + m.theme.ShortcutDesc.Render(" sections  ") +
			m.theme.ShortcutKey.Render("o") + m.theme.ShortcutDesc.Render(" toggle  ") +
			m.theme.ShortcutKey.Render("ctrl+q") + m.theme.ShortcutDesc.Render(" quit")
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(hints) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + hints)
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// updateViewport rebuilds the viewport content and the disclosure list.
func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderMessages())
}

// renderMessages renders the whole active conversation. Assistant
// entries go through the full pipeline: segmentation, reconciliation
// against the entry's RenderState, then the terminal binding.
func (m *Model) renderMessages() string {
	conv := m.manager.Active()
	m.disclosures = nil

	var parts []string
	for _, msg := range conv.GetHistory() {
		switch msg.Role {
		case model.RoleUser:
			parts = append(parts, m.renderUserMessage(msg))
		case model.RoleAssistant:
			parts = append(parts, m.renderAssistantMessage(msg))
		case model.RoleSystem:
			// System prompt is request context, not chat content.
		}
	}

	if m.commandOutput != "" {
		parts = append(parts, m.theme.SystemBubble.Render(m.commandOutput))
	}

	if m.focusIdx >= len(m.disclosures) {
		m.focusIdx = 0
	}
	return strings.Join(parts, "\n\n")
}

func (m *Model) renderUserMessage(msg *model.Message) string {
	label := m.theme.HeaderBrand.Render(msg.Role.DisplayName())
	body := m.theme.UserBubble.Render(msg.Content)
	return label + "\n" + body
}

func (m *Model) renderAssistantMessage(msg *model.Message) string {
	text := msg.GetDisplayContent()
	streaming := false
	elapsed := document.ElapsedUnknown

	if msg.ID == m.streamingMsgID && m.state == StateStreaming {
		text = m.streamText.String()
		streaming = true
		elapsed = m.buffer.Elapsed()
	} else if msg.ThinkingSeconds != model.ThinkingUnknown {
		elapsed = msg.ThinkingSeconds
	}

	in := document.Input{
		Segments:       segment.Split(text),
		Streaming:      streaming,
		ElapsedSeconds: elapsed,
	}
	state := m.renderState(msg.ID)
	tree := document.Reconcile(in, state, m.policy)
	m.collectDisclosures(msg.ID, tree)

	label := m.theme.HeaderBrand.Render(msg.Role.DisplayName())
	body := m.renderer.Render(tree)

	if !streaming && m.cfg != nil && m.cfg.UI.ShowStats {
		if stats := msg.FormatStats(); stats != "" {
			body += "\n" + m.theme.ShortcutDesc.Render(stats)
		}
	}
	return label + "\n" + body
}

// collectDisclosures records every disclosure in render order so the
// keyboard can cycle and toggle them.
func (m *Model) collectDisclosures(msgID string, tree *document.Node) {
	tree.Walk(func(n *document.Node) bool {
		switch n.Kind {
		case document.KindThink, document.KindAgentSection, document.KindRolloutGroup:
			m.disclosures = append(m.disclosures, disclosureRef{
				msgID: msgID,
				key:   n.Key,
				title: n.Title,
				open:  n.Open,
			})
		}
		return true
	})
}
