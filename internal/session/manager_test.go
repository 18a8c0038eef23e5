// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/morganforge/grokwire/internal/cloud"
	"github.com/morganforge/grokwire/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// sseHandler writes a short streaming completion and the end sentinel.
func sseHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, frame("Hello "))
		io.WriteString(w, frame("world"))
		io.WriteString(w, doneFrame)
	}
}

func TestManager_SendStreamsAndPersists(t *testing.T) {
	server := httptest.NewServer(sseHandler(t))
	defer server.Close()

	store := newTestStore(t)
	client := cloud.NewClient("sk-test").WithBaseURL(server.URL)
	m := NewManager(store, client)

	runner, err := m.Send(context.Background(), "greet me")
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	conv := m.Active()
	last := conv.GetLastMessage()
	if last.Content != "Hello world" {
		t.Errorf("Content = %q", last.Content)
	}
	if conv.Unread {
		t.Error("active conversation must not be marked unread")
	}

	loaded, err := store.Load(conv.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.MessageCount() != 2 {
		t.Errorf("persisted messages = %d, want 2", loaded.MessageCount())
	}
}

func TestManager_CommitIntoOriginatingConversation(t *testing.T) {
	store := newTestStore(t)
	client := cloud.NewClient("sk-test")
	m := NewManager(store, client)

	orig := m.Active()
	orig.AddUserMessage("question")
	entry := orig.AddAssistantMessage()

	body := io.NopCloser(strings.NewReader(frame("late answer") + doneFrame))
	runner := NewRunner(body, entry, m.commitInto(orig))

	// User switches away while the stream is in flight.
	m.NewConversation()

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !orig.Unread {
		t.Error("originating conversation should be marked unread")
	}
	if orig.GetLastMessage().Content != "late answer" {
		t.Errorf("Content = %q", orig.GetLastMessage().Content)
	}

	loaded, err := store.Load(orig.ID)
	if err != nil {
		t.Fatalf("commit must land in the originating conversation: %v", err)
	}
	if !loaded.Unread {
		t.Error("persisted conversation should carry the unread flag")
	}
}

func TestManager_SwitchToClearsUnread(t *testing.T) {
	store := newTestStore(t)
	client := cloud.NewClient("sk-test")
	m := NewManager(store, client)

	conv := m.Active()
	conv.AddUserMessage("hi")
	conv.MarkUnread()
	if _, err := store.Save(conv); err != nil {
		t.Fatal(err)
	}

	m.NewConversation()

	back, err := m.SwitchTo(conv.ID)
	if err != nil {
		t.Fatalf("SwitchTo failed: %v", err)
	}
	if back.Unread {
		t.Error("SwitchTo should clear the unread flag")
	}
	if m.Active() != back {
		t.Error("SwitchTo should make the conversation active")
	}
}

func TestManager_SendTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"upstream down"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	store := newTestStore(t)
	client := cloud.NewClient("sk-test").WithBaseURL(server.URL)
	m := NewManager(store, client)

	if _, err := m.Send(context.Background(), "hello"); err == nil {
		t.Fatal("Send should surface the transport failure")
	}

	conv := m.Active()
	last := conv.GetLastMessage()
	if last.IsStreaming {
		t.Error("entry should be finalized after a failed open")
	}
	if !strings.Contains(last.Content, "Request failed:") {
		t.Errorf("Content = %q, want failure notice", last.Content)
	}
}

func TestManager_NilStoreStaysInMemory(t *testing.T) {
	client := cloud.NewClient("sk-test")
	m := NewManager(nil, client)

	orig := m.Active()
	orig.AddUserMessage("q")
	entry := orig.AddAssistantMessage()

	body := io.NopCloser(strings.NewReader(frame("answer") + doneFrame))
	runner := NewRunner(body, entry, m.commitInto(orig))
	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if orig.GetLastMessage().Content != "answer" {
		t.Errorf("Content = %q", orig.GetLastMessage().Content)
	}
}
