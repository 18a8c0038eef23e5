// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/morganforge/grokwire/internal/model"
	"github.com/morganforge/grokwire/internal/util"
)

// =============================================================================
// CONVERSATION EXPORT
// =============================================================================

// ExportMarkdown renders a conversation as a Markdown document with
// metadata, timestamps, and role labels.
func ExportMarkdown(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("# " + conv.GetTitle() + "\n\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(time.RFC3339) + "\n")
	if conv.Model != "" {
		sb.WriteString("Model: " + conv.Model + "\n")
	}
	sb.WriteString("\n---\n\n")

	for _, msg := range conv.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.GetDisplayContent())
		if msg.Role == model.RoleAssistant && msg.HasThinkingTime() {
			sb.WriteString("\n\n_Thought for " + util.IntToStr(msg.ThinkingSeconds) + "s_")
		}
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// ExportJSON renders a conversation as pretty-printed JSON.
func ExportJSON(conv *model.Conversation) ([]byte, error) {
	return json.MarshalIndent(conv, "", "  ")
}

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatConversationList formats conversation metadata as a table for
// terminal display.
func FormatConversationList(metas []model.ConversationMeta) string {
	if len(metas) == 0 {
		return "No conversations found."
	}

	var sb strings.Builder
	sb.WriteString("Conversations:\n")
	sb.WriteString("-----------------------------------------------------\n")
	sb.WriteString(formatPadded("ID", 14) + " " + formatPadded("Updated", 17) + " " +
		formatPadded("Msgs", 5) + " Title\n")
	sb.WriteString("-----------------------------------------------------\n")

	for _, meta := range metas {
		id := meta.ID
		if len(id) > 14 {
			id = id[:14]
		}
		title := util.TruncateRunes(meta.Title, 40)
		if meta.Unread {
			title = "* " + title
		}
		sb.WriteString(formatPadded(id, 14) + " " +
			formatPadded(meta.UpdatedAt.Local().Format("2006-01-02 15:04"), 17) + " " +
			formatPadded(util.IntToStr(meta.MessageCount), 5) + " " +
			title + "\n")
	}
	return sb.String()
}

// formatPadded pads a string to the given rune width with spaces.
func formatPadded(s string, width int) string {
	runes := []rune(s)
	if len(runes) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(runes))
}
