// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gateway

import (
	"context"

	"github.com/jeranaias/chatdesk/internal/cloud"
	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/ollama"
)

// probePrompt is the one-message request used to validate a credential.
const probePrompt = "test"

// =============================================================================
// OPENAI-COMPATIBLE PROVIDER
// =============================================================================

// OpenAIProvider serves any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client *cloud.Client
}

// NewOpenAIProvider wraps a configured cloud client.
func NewOpenAIProvider(client *cloud.Client) *OpenAIProvider {
	return &OpenAIProvider{client: client}
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string {
	return "openai:" + p.client.Model()
}

// Probe sends a single "test" message.
func (p *OpenAIProvider) Probe(ctx context.Context) error {
	_, err := p.client.Generate(ctx, probePrompt)
	return err
}

// Generate implements Provider.
func (p *OpenAIProvider) Generate(ctx context.Context, messages []model.Message) (string, error) {
	wire := make([]cloud.ChatMessage, len(messages))
	for i, m := range messages {
		wire[i] = cloud.ChatMessage{Role: m.Role.String(), Content: m.Content}
	}

	resp, err := p.client.Chat(ctx, wire)
	if err != nil {
		return "", err
	}
	return resp.GetContent(), nil
}

// =============================================================================
// OLLAMA PROVIDER
// =============================================================================

// OllamaProvider serves a local Ollama server.
type OllamaProvider struct {
	client *ollama.Client
	model  string
}

// NewOllamaProvider wraps an Ollama client. An empty model uses the
// client's default.
func NewOllamaProvider(client *ollama.Client, modelName string) *OllamaProvider {
	return &OllamaProvider{client: client, model: modelName}
}

// Name implements Provider.
func (p *OllamaProvider) Name() string {
	if p.model == "" {
		return "ollama:" + p.client.GetDefaultModel()
	}
	return "ollama:" + p.model
}

// Probe checks that the server is running. Ollama has no credential.
func (p *OllamaProvider) Probe(ctx context.Context) error {
	return p.client.CheckRunning(ctx)
}

// Generate implements Provider.
func (p *OllamaProvider) Generate(ctx context.Context, messages []model.Message) (string, error) {
	wire := make([]ollama.Message, len(messages))
	for i, m := range messages {
		wire[i] = ollama.Message{Role: m.Role.String(), Content: m.Content}
	}

	resp, err := p.client.Chat(ctx, p.model, wire)
	if err != nil {
		return "", err
	}
	return resp.Message.Content, nil
}
