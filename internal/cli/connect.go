// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/jeranaias/chatdesk/internal/chat"
	"github.com/jeranaias/chatdesk/internal/cloud"
	"github.com/jeranaias/chatdesk/internal/config"
	"github.com/jeranaias/chatdesk/internal/gateway"
	"github.com/jeranaias/chatdesk/internal/ollama"
)

// Credential errors returned by Connect.
var (
	// ErrNoAPIKey means the user gave no key at the first prompt.
	ErrNoAPIKey = errors.New("no API key provided")

	// ErrNoValidAPIKey means the user gave no key after one was rejected.
	ErrNoValidAPIKey = errors.New("no valid API key provided")
)

// apiKeyPrompt is shown when a key is needed.
const apiKeyPrompt = "Enter your API key: "

// =============================================================================
// SECRET INPUT
// =============================================================================

// SecretReader asks the user for a secret.
type SecretReader interface {
	ReadSecret(prompt string) (string, error)
}

// TerminalSecretReader reads without echo when In is a terminal and falls
// back to reading a plain line otherwise.
type TerminalSecretReader struct {
	In  *os.File
	Out io.Writer
}

// ReadSecret implements SecretReader.
func (r TerminalSecretReader) ReadSecret(prompt string) (string, error) {
	fmt.Fprint(r.Out, prompt)

	fd := int(r.In.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(r.Out)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(r.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return line, nil
}

// =============================================================================
// PROVIDER WIRING
// =============================================================================

// NewProvider builds the provider selected by cfg. apiKey is ignored for
// providers that take none.
func NewProvider(cfg *config.Config, apiKey string, logger *slog.Logger) gateway.Provider {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.Provider.Kind == config.ProviderOllama {
		client := ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      cfg.BaseURL(),
			DefaultModel: cfg.Model(),
			Timeout:      cfg.Timeout(),
		})
		logger.Debug("provider configured", "kind", cfg.Provider.Kind, "base_url", cfg.BaseURL(), "model", cfg.Model())
		return gateway.NewOllamaProvider(client, cfg.Model())
	}

	client := cloud.NewClient(apiKey).
		WithBaseURL(cfg.BaseURL()).
		WithMaxRetries(cfg.Provider.MaxRetries).
		WithLogger(logger)
	if d := cfg.Timeout(); d > 0 {
		client.WithTimeout(d)
	}
	client.SetModel(cfg.Model())

	logger.Debug("provider configured",
		"kind", cfg.Provider.Kind,
		"base_url", client.BaseURL(),
		"model", client.Model(),
		"key", client.KeyFingerprint())
	return gateway.NewOpenAIProvider(client)
}

// GatewayOptions converts the provider settings of cfg into gateway options.
func GatewayOptions(cfg *config.Config, logger *slog.Logger) []gateway.Option {
	opts := []gateway.Option{gateway.WithLogger(logger)}
	if cfg.Provider.RateLimitRPS > 0 {
		opts = append(opts, gateway.WithRateLimit(rate.Limit(cfg.Provider.RateLimitRPS), cfg.Provider.RateLimitBurst))
	}
	if d := cfg.Timeout(); d > 0 {
		opts = append(opts, gateway.WithTimeout(d))
	}
	return opts
}

// =============================================================================
// CONNECT
// =============================================================================

// Connect builds and probes the gateway for cfg.
//
// When the provider needs a key and none is configured, the user is asked
// for one. When the provider rejects the key, the auth error text is
// written to out and the user is asked again. An empty answer ends the loop
// with ErrNoAPIKey, or ErrNoValidAPIKey after a rejection. A nil secrets
// reader disables prompting.
//
// The key is never logged; only its fingerprint is.
func Connect(ctx context.Context, cfg *config.Config, secrets SecretReader, out io.Writer, logger *slog.Logger) (*gateway.Gateway, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if out == nil {
		out = io.Discard
	}

	key := cfg.Provider.APIKey
	rejected := false
	for {
		if cfg.NeedsAPIKey() && key == "" {
			if secrets == nil {
				return nil, noKeyError(rejected)
			}
			input, err := secrets.ReadSecret(apiKeyPrompt)
			if err != nil {
				return nil, fmt.Errorf("read API key: %w", err)
			}
			key = strings.TrimSpace(input)
			if key == "" {
				return nil, noKeyError(rejected)
			}
		}

		provider := NewProvider(cfg, key, logger)
		gw, err := gateway.New(ctx, provider, GatewayOptions(cfg, logger)...)
		if err == nil {
			return gw, nil
		}
		if !cfg.NeedsAPIKey() || !errors.Is(err, gateway.ErrAuthentication) {
			return nil, err
		}

		logger.Warn("API key rejected", "provider", provider.Name())
		fmt.Fprintln(out, chat.AuthErrorText)
		key = ""
		rejected = true
	}
}

func noKeyError(rejected bool) error {
	if rejected {
		return ErrNoValidAPIKey
	}
	return ErrNoAPIKey
}

// ExitMessage returns the line printed when Connect ends without a key.
func ExitMessage(err error) string {
	switch {
	case errors.Is(err, ErrNoValidAPIKey):
		return "No valid API key provided. Exiting."
	case errors.Is(err, ErrNoAPIKey):
		return "No API key provided. Exiting."
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
