// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gateway sends conversations to a model provider and classifies
// its failures.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/chatdesk/internal/model"
)

// Provider is a language-model backend.
type Provider interface {
	// Name identifies the provider in logs.
	Name() string

	// Probe makes a minimal request to verify the credential and endpoint.
	Probe(ctx context.Context) error

	// Generate returns the reply to messages verbatim.
	Generate(ctx context.Context, messages []model.Message) (string, error)
}

// =============================================================================
// GATEWAY
// =============================================================================

// Gateway is the single point through which the chat service reaches the
// provider. It is safe for concurrent use.
type Gateway struct {
	provider Provider
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithRateLimit paces calls client-side. A non-positive limit disables pacing.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(g *Gateway) {
		if limit <= 0 {
			g.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithTimeout bounds each Call. Expiry is reported as a connectivity error.
// Zero, the default, leaves calls bounded only by the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New probes provider and returns a ready gateway.
//
// Construction fails only when the probe is rejected with an
// authentication-class error; the returned error is an *Error with
// KindAuthentication. Any other probe failure is logged and the gateway is
// returned anyway, so a transient outage at startup does not block the app.
func New(ctx context.Context, provider Provider, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		provider: provider,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(g)
	}

	start := time.Now()
	if err := provider.Probe(ctx); err != nil {
		gwErr := classify(err)
		if gwErr.Kind == KindAuthentication {
			g.logger.Error("provider probe rejected", "provider", provider.Name(), "error", err)
			return nil, gwErr
		}
		g.logger.Warn("provider probe failed, continuing",
			"provider", provider.Name(),
			"kind", gwErr.Kind.String(),
			"error", err)
		return g, nil
	}

	g.logger.Info("provider ready", "provider", provider.Name(), "probe", time.Since(start))
	return g, nil
}

// Provider returns the underlying provider.
func (g *Gateway) Provider() Provider {
	return g.provider
}

// Call sends messages to the provider and returns its reply text verbatim.
// Every failure is returned as an *Error.
func (g *Gateway) Call(ctx context.Context, messages []model.Message) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			reply = ""
			err = &Error{Kind: KindUnknown, Err: fmt.Errorf("provider panic: %v", r)}
			g.logger.Error("provider panicked", "provider", g.provider.Name(), "panic", r)
		}
	}()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", &Error{Kind: KindConnectivity, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err = g.provider.Generate(ctx, messages)
	if err != nil {
		gwErr := classify(err)
		g.logger.Warn("provider call failed",
			"provider", g.provider.Name(),
			"kind", gwErr.Kind.String(),
			"messages", len(messages),
			"duration", time.Since(start),
			"error", err)
		return "", gwErr
	}

	g.logger.Debug("provider call succeeded",
		"provider", g.provider.Name(),
		"messages", len(messages),
		"reply_chars", len(reply),
		"duration", time.Since(start))
	return reply, nil
}
