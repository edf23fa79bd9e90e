// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// This package implements a client for the Ollama local LLM server. Only
// non-streaming chat is used: the chat service waits for the whole reply.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - Message: Chat message with role and content
//   - ChatRequest: Request structure for chat completions
//   - ChatResponse: Response structure with the reply and token counts
//   - ClientError: Typed error; compare with errors.Is against the sentinels
//
// # Usage
//
//	client := ollama.NewClient()
//	if err := client.CheckRunning(ctx); err != nil {
//	    return err
//	}
//	resp, err := client.Chat(ctx, "llama3.2", []ollama.Message{
//	    {Role: "user", Content: "Hello"},
//	})
package ollama
