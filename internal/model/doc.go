// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat conversations, messages, and model information.
//
// # Key Types
//
//   - Conversation: Container for a chat session with messages and metadata
//   - Message: Single message with role, content, timestamp, and stats
//   - Statistics: Timing and token counts for one generation
//   - ModelInfo: Information about a Grok model (ID, tier, context size)
//   - Role: Message role enumeration (user, assistant, system)
//
// # Usage
//
// Create a new conversation:
//
//	conv := model.NewConversation()
//	conv.AddUserMessage("Hello!")
//
// Work with model information:
//
//	info := model.GetModelInfo("grok-4")
//	fmt.Printf("Model: %s, context: %d\n", info.Name, info.MaxTokens)
package model
