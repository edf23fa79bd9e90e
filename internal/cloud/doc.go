// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the client for OpenAI-compatible chat completion APIs.
//
// Any provider exposing POST {base}/chat/completions with the OpenAI request
// and response shapes works: OpenAI itself, OpenRouter, Azure-style proxies,
// or a local server such as llama.cpp or vLLM.
//
// # Key Types
//
//   - Client: HTTP client with retry and backoff
//   - ChatMessage: Chat message in the API wire format
//   - ChatRequest, ChatResponse: Request and response bodies
//   - APIError: Error response that maps to no sentinel
//
// # Usage
//
//	client := cloud.NewClient(apiKey).WithBaseURL(baseURL)
//	client.SetModel("gpt-4o")
//	resp, err := client.Chat(ctx, []cloud.ChatMessage{cloud.NewUserMessage("Hello")})
//
// # Security
//
// API keys are never logged. Log lines carry a SHA-256 fingerprint instead,
// and the Authorization header is removed from the request once sent.
package cloud
