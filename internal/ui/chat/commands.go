// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/grokwire/internal/model"
	"github.com/morganforge/grokwire/internal/storage"
	"github.com/morganforge/grokwire/internal/util"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

const helpText = `/new              start a new conversation
/list             list saved conversations
/load <n>         load conversation by list position
/search <query>   search saved conversations
/delete <n>       delete conversation by list position
/model <name>     switch model (full id or unique prefix)
/export <md|json> export the conversation to a file
/clear            clear the current conversation
/help             show this help
/quit             exit`

// handleCommand dispatches a parsed slash command.
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/quit", "/exit", "/q":
		return m, tea.Quit

	case "/help", "/?":
		m.commandOutput = helpText

	case "/new":
		m.manager.NewConversation()
		m.commandOutput = ""
		m.statusMsg = "new conversation"

	case "/clear":
		m.manager.Active().ClearHistory()
		m.commandOutput = ""
		m.statusMsg = "conversation cleared"

	case "/list":
		m.commandOutput = m.listConversations()

	case "/load":
		m.loadConversation(args)

	case "/search":
		m.commandOutput = m.searchConversations(args)

	case "/delete":
		m.deleteConversation(args)

	case "/model":
		m.switchModel(args)

	case "/export":
		m.exportConversation(args)

	default:
		m.statusMsg = "unknown command: " + cmd + " (try /help)"
	}

	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m *Model) listConversations() string {
	if m.store == nil {
		return "no storage configured"
	}
	metas, err := m.store.List()
	if err != nil {
		return "list failed: " + err.Error()
	}
	return storage.FormatConversationList(metas)
}

func (m *Model) searchConversations(args []string) string {
	if m.store == nil {
		return "no storage configured"
	}
	if len(args) == 0 {
		return "usage: /search <query>"
	}
	metas, err := m.store.Search(strings.Join(args, " "))
	if err != nil {
		return "search failed: " + err.Error()
	}
	if len(metas) == 0 {
		return "no matches"
	}
	return storage.FormatConversationList(metas)
}

func (m *Model) deleteConversation(args []string) {
	if m.store == nil {
		m.statusMsg = "no storage configured"
		return
	}
	if len(args) != 1 {
		m.statusMsg = "usage: /delete <n>"
		return
	}
	index, err := strconv.Atoi(args[0])
	if err != nil || index < 1 {
		m.statusMsg = "usage: /delete <n>"
		return
	}
	metas, err := m.store.List()
	if err != nil {
		m.statusMsg = "delete failed: " + err.Error()
		return
	}
	if index > len(metas) {
		m.statusMsg = "no conversation at position " + args[0]
		return
	}
	meta := metas[index-1]
	if err := m.store.Delete(meta.ID); err != nil {
		m.statusMsg = "delete failed: " + err.Error()
		return
	}
	m.statusMsg = "deleted: " + meta.Title
}

func (m *Model) loadConversation(args []string) {
	if m.store == nil {
		m.statusMsg = "no storage configured"
		return
	}
	if len(args) != 1 {
		m.statusMsg = "usage: /load <n>"
		return
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		m.statusMsg = "usage: /load <n>"
		return
	}

	conv, err := m.store.LoadByIndex(index - 1)
	if err != nil {
		m.statusMsg = "load failed: " + err.Error()
		return
	}
	if _, err := m.manager.SwitchTo(conv.ID); err != nil {
		m.statusMsg = "load failed: " + err.Error()
		return
	}
	m.commandOutput = ""
	m.statusMsg = "loaded: " + conv.GetTitle()
}

func (m *Model) switchModel(args []string) {
	if len(args) != 1 {
		m.statusMsg = "usage: /model <name>"
		return
	}

	name := args[0]
	if matched := model.MatchModel(name); matched != "" {
		name = matched
	}
	m.manager.SetModel(name)
	m.statusMsg = "model: " + m.manager.Active().Model
}

func (m *Model) exportConversation(args []string) {
	format := "md"
	if len(args) >= 1 {
		format = strings.ToLower(args[0])
	}

	conv := m.manager.Active()
	var data []byte
	var ext string
	var err error

	switch format {
	case "md", "markdown":
		data = []byte(storage.ExportMarkdown(conv))
		ext = "md"
	case "json":
		data, err = storage.ExportJSON(conv)
		ext = "json"
	default:
		m.statusMsg = "usage: /export <md|json>"
		return
	}
	if err != nil {
		m.statusMsg = "export failed: " + err.Error()
		return
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	path := filepath.Join(home, "grokwire-"+conv.ID+"."+ext)
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		m.statusMsg = "export failed: " + err.Error()
		return
	}
	m.statusMsg = "exported to " + path
}
