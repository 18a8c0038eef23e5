// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud implements the Grok API client.
//
// The gateway speaks an OpenAI-compatible protocol: JSON chat
// completions at /chat/completions, streamed as server-sent events.
// The client supports private API keys and the gateway's hashed
// public-key credential, throttles outbound requests, and tags each
// request with a correlation id. Non-streaming requests retry with
// exponential backoff; streaming requests never retry.
package cloud
