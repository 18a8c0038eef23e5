// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/morganforge/grokwire/internal/cloud"
	"github.com/morganforge/grokwire/internal/model"
	"github.com/morganforge/grokwire/internal/storage"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks the active conversation and launches streams against
// it. Switching the active conversation does not cancel an in-flight
// stream: the stream keeps filling its own entry and commits into its
// originating conversation, which is marked unread if it is no longer
// the active one.
//
// The store may be nil, in which case commits stay in memory only.
type Manager struct {
	mu           sync.Mutex
	store        *storage.Store
	client       *cloud.Client
	active       *model.Conversation
	systemPrompt string
}

// NewManager returns a manager backed by the given store and client.
func NewManager(store *storage.Store, client *cloud.Client) *Manager {
	return &Manager{
		store:  store,
		client: client,
	}
}

// SetSystemPrompt sets the prompt prepended to every new conversation.
func (m *Manager) SetSystemPrompt(prompt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.systemPrompt = prompt
}

// Active returns the active conversation, creating one on first use.
func (m *Manager) Active() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		m.active = m.newConversationLocked()
	}
	return m.active
}

// NewConversation starts a fresh conversation and makes it active.
func (m *Manager) NewConversation() *model.Conversation {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = m.newConversationLocked()
	return m.active
}

func (m *Manager) newConversationLocked() *model.Conversation {
	conv := model.NewConversationWithModel(m.client.GetModel())
	conv.SystemPrompt = m.systemPrompt
	return conv
}

// SetModel switches the model on the client and the active conversation.
func (m *Manager) SetModel(name string) {
	m.client.SetModel(name)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != nil {
		m.active.Model = m.client.GetModel()
		m.active.SetMaxTokens(model.GetModelInfo(m.client.GetModel()).MaxTokens)
	}
}

// SwitchTo loads a stored conversation and makes it active, clearing its
// unread flag. In-flight streams against the previous conversation keep
// running.
func (m *Manager) SwitchTo(id string) (*model.Conversation, error) {
	if m.store == nil {
		return nil, fmt.Errorf("no store configured")
	}
	conv, err := m.store.Load(id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.active = conv
	m.mu.Unlock()

	if conv.Unread {
		conv.MarkRead()
		if err := m.store.MarkRead(conv.ID); err != nil {
			log.Printf("session: mark read failed: %v", err)
		}
	}
	return conv, nil
}

// Send appends the user message to the active conversation, opens a
// completion stream, and returns a Runner ready to drive it. The caller
// owns the Run call (typically on its own goroutine).
//
// If the stream cannot be opened, the assistant entry is finalized with
// a failure notice and committed so the conversation stays consistent.
func (m *Manager) Send(ctx context.Context, text string) (*Runner, error) {
	conv := m.Active()
	conv.AddUserMessage(text)
	entry := conv.AddAssistantMessage()

	body, err := m.client.OpenStream(ctx, conv.ToChatMessages())
	if err != nil {
		entry.AppendToken("Request failed: " + err.Error())
		entry.FinalizeStream(nil)
		m.commitInto(conv)(entry)
		return nil, err
	}

	return NewRunner(body, entry, m.commitInto(conv)), nil
}

// commitInto binds a commit to the conversation that originated the
// stream. A persistence failure is logged and the in-memory conversation
// keeps working; it is never fatal to the session.
func (m *Manager) commitInto(conv *model.Conversation) CommitFunc {
	return func(entry *model.Message) {
		m.mu.Lock()
		defer m.mu.Unlock()

		if conv != m.active {
			conv.MarkUnread()
		}
		if m.store != nil {
			if _, err := m.store.Save(conv); err != nil {
				log.Printf("session: save failed, continuing in memory: %v", err)
			}
		}
	}
}
