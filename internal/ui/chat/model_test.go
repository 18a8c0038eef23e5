// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	"github.com/morganforge/grokwire/internal/cloud"
	"github.com/morganforge/grokwire/internal/config"
	"github.com/morganforge/grokwire/internal/session"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	client := cloud.NewClient("sk-test")
	manager := session.NewManager(nil, client)
	return New(config.Default(), manager, nil)
}

// addFinishedEntry puts a completed assistant entry with a reasoning
// span into the active conversation.
func addFinishedEntry(t *testing.T, m *Model, text string, thinkingSeconds int) {
	t.Helper()
	conv := m.manager.Active()
	conv.AddUserMessage("question")
	entry := conv.AddAssistantMessage()
	entry.AppendToken(text)
	entry.FinalizeStream(nil)
	entry.ThinkingSeconds = thinkingSeconds
}

func TestRenderMessages_CollectsDisclosures(t *testing.T) {
	m := newTestModel(t)
	addFinishedEntry(t, &m, "<think>step one</think>the answer", 3)

	out := m.renderMessages()

	if !strings.Contains(out, "the answer") {
		t.Errorf("answer text missing:\n%s", out)
	}
	if len(m.disclosures) == 0 {
		t.Fatal("no disclosures collected")
	}
	if m.disclosures[0].key != "t0" {
		t.Errorf("first disclosure key = %q, want t0", m.disclosures[0].key)
	}
	if !strings.Contains(m.disclosures[0].title, "Thought for 3s") {
		t.Errorf("title = %q", m.disclosures[0].title)
	}
}

func TestRenderMessages_ThinkCollapsedWhenElapsedKnown(t *testing.T) {
	m := newTestModel(t)
	addFinishedEntry(t, &m, "<think>hidden reasoning</think>visible", 2)

	out := m.renderMessages()

	if strings.Contains(out, "hidden reasoning") {
		t.Errorf("think body should be collapsed:\n%s", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("plain text missing:\n%s", out)
	}
}

func TestToggleDisclosure_SurvivesRerender(t *testing.T) {
	m := newTestModel(t)
	addFinishedEntry(t, &m, "<think>inner detail</think>done", 2)

	// First render auto-collapses the think disclosure.
	m.renderMessages()
	if len(m.disclosures) == 0 {
		t.Fatal("no disclosures")
	}

	nm, _ := m.toggleFocusedDisclosure()
	m = nm.(Model)

	out := m.renderMessages()
	if !strings.Contains(out, "inner detail") {
		t.Errorf("toggled-open think body should be visible:\n%s", out)
	}

	// The explicit state survives further renders.
	out = m.renderMessages()
	if !strings.Contains(out, "inner detail") {
		t.Errorf("explicit open state lost on re-render:\n%s", out)
	}
}

func TestCycleDisclosure_WrapsAround(t *testing.T) {
	m := newTestModel(t)
	addFinishedEntry(t, &m, "<think>Grok Leader\n[w1][search] a\nAgent1\n[w2][browse] b</think>x", 4)
	m.renderMessages()

	if len(m.disclosures) < 3 {
		t.Fatalf("disclosures = %d, want think + sections + groups", len(m.disclosures))
	}

	start := m.focusIdx
	for range m.disclosures {
		nm, _ := m.cycleDisclosure(1)
		m = nm.(Model)
	}
	if m.focusIdx != start {
		t.Errorf("focus did not wrap: %d != %d", m.focusIdx, start)
	}
}

func TestHandleCommand_Unknown(t *testing.T) {
	m := newTestModel(t)

	nm, _ := m.handleCommand("/bogus")
	m = nm.(Model)

	if !strings.Contains(m.statusMsg, "unknown command") {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestHandleCommand_NewConversation(t *testing.T) {
	m := newTestModel(t)
	addFinishedEntry(t, &m, "old reply", -1)
	before := m.manager.Active()

	nm, _ := m.handleCommand("/new")
	m = nm.(Model)

	if m.manager.Active() == before {
		t.Error("/new should start a fresh conversation")
	}
}

func TestHandleCommand_Model(t *testing.T) {
	m := newTestModel(t)

	nm, _ := m.handleCommand("/model grok-4-f")
	m = nm.(Model)

	if got := m.manager.Active().Model; got != "grok-4-fast" {
		t.Errorf("model = %q, want grok-4-fast", got)
	}
}
