// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bridge runs conversation turns off the interactive thread and
// hands their results back to it.
package bridge

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jeranaias/chatdesk/internal/chat"
)

// Responder runs one turn. *chat.Service implements it.
type Responder interface {
	Respond(ctx context.Context, sessionID, text string) chat.Result
}

// Bridge submits turns to a Responder in the background and delivers each
// result on a Loop.
type Bridge struct {
	responder Responder
	loop      Loop
	indicator Indicator
	pending   atomic.Int64
	logger    *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithIndicator sets the typing indicator.
func WithIndicator(ind Indicator) Option {
	return func(b *Bridge) {
		b.indicator = ind
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New creates a bridge delivering results on loop.
func New(responder Responder, loop Loop, opts ...Option) *Bridge {
	b := &Bridge{
		responder: responder,
		loop:      loop,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Submit must be called on the interactive thread. It starts the typing
// indicator before returning, runs the turn on a new goroutine and posts a
// function to the loop that stops the indicator and then calls onResult.
// onResult never runs on the background goroutine.
//
// There is no cancellation: a submitted turn always completes and delivers.
func (b *Bridge) Submit(ctx context.Context, sessionID, text string, onResult func(chat.Result)) {
	b.pending.Add(1)
	if b.indicator != nil {
		b.indicator.StartTyping()
	}

	go func() {
		start := time.Now()
		result := b.responder.Respond(ctx, sessionID, text)
		b.logger.Debug("turn finished",
			"session", sessionID,
			"outcome", result.Outcome.String(),
			"duration", time.Since(start))

		b.loop.Post(func() {
			b.pending.Add(-1)
			if b.indicator != nil {
				b.indicator.StopTyping()
			}
			if onResult != nil {
				onResult(result)
			}
		})
	}()
}

// Pending returns the number of submitted turns whose results have not yet
// been delivered.
func (b *Bridge) Pending() int {
	return int(b.pending.Load())
}
