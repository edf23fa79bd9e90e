// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs one conversational turn: validate the input, trim the
// history, call the model and record the exchange.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	ctxtrim "github.com/jeranaias/chatdesk/internal/context"
	"github.com/jeranaias/chatdesk/internal/gateway"
	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/session"
)

// DefaultSystemPrompt is the instruction prepended to every request.
const DefaultSystemPrompt = "You are a friendly and helpful AI assistant. Answer questions in a conversational and concise manner."

// Caller sends a prepared conversation to the model. *gateway.Gateway
// implements it.
type Caller interface {
	Call(ctx context.Context, messages []model.Message) (string, error)
}

// =============================================================================
// SERVICE
// =============================================================================

// Service is the conversation engine. It holds no per-session lock:
// overlapping Respond calls on one session are accepted, and the order in
// which their exchanges land in the history is unspecified.
type Service struct {
	store        *session.Store
	caller       Caller
	truncator    *ctxtrim.Truncator
	systemPrompt string
	budget       int
	observer     StateObserver
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSystemPrompt sets the instruction prepended to every request. An empty
// prompt sends no system message.
func WithSystemPrompt(prompt string) Option {
	return func(s *Service) {
		s.systemPrompt = prompt
	}
}

// WithBudget sets the trim budget in estimated tokens. A budget <= 0
// disables trimming.
func WithBudget(budget int) Option {
	return func(s *Service) {
		s.budget = budget
	}
}

// WithTruncator replaces the default truncator.
func WithTruncator(t *ctxtrim.Truncator) Option {
	return func(s *Service) {
		if t != nil {
			s.truncator = t
		}
	}
}

// WithStateObserver registers a hook for turn state transitions.
func WithStateObserver(fn StateObserver) Option {
	return func(s *Service) {
		s.observer = fn
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a service over store that reaches the model through
// caller.
func NewService(store *session.Store, caller Caller, opts ...Option) *Service {
	s := &Service{
		store:        store,
		caller:       caller,
		truncator:    ctxtrim.NewTruncator(nil),
		systemPrompt: DefaultSystemPrompt,
		budget:       ctxtrim.DefaultBudget,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// SESSIONS
// =============================================================================

// NewSession starts an empty conversation and returns its identifier.
func (s *Service) NewSession() string {
	id := s.store.Create()
	s.logger.Debug("session created", "session", id)
	return id
}

// Reset discards a conversation. The caller should start a new one.
func (s *Service) Reset(sessionID string) {
	s.store.Reset(sessionID)
	s.logger.Debug("session reset", "session", sessionID)
}

// Transcript returns a copy of the recorded messages of a session.
func (s *Service) Transcript(sessionID string) []model.Message {
	return s.store.History(sessionID)
}

// Title returns a short title for a session.
func (s *Service) Title(sessionID string) string {
	return s.store.Title(sessionID)
}

// =============================================================================
// TURNS
// =============================================================================

// Respond runs one turn and never returns an error: every failure is folded
// into the Result.
//
// On success the user message and the reply are appended to the history.
// On a provider failure only the user message is appended. Blank input
// appends nothing and does not reach the model. An unknown session is
// created on first use; a session Reset while the model call is in flight
// records nothing and is not re-created.
func (s *Service) Respond(ctx context.Context, sessionID, text string) Result {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return Result{Outcome: EmptyInput, Text: EmptyInputText}
	}

	s.transition(sessionID, StateSubmitted)

	history := s.store.History(sessionID)
	user := model.NewUserMessage(text)
	trimmed := s.truncator.Truncate(s.systemMessage(), append(history, user), s.budget)
	if trimmed.WasTruncated {
		s.logger.Debug("history trimmed", "session", sessionID, "summary", trimmed.Summary())
	}
	if trimmed.OverBudget() {
		s.logger.Warn("message exceeds trim budget, sending anyway",
			"session", sessionID,
			"tokens", trimmed.Tokens,
			"budget", trimmed.Budget)
	}

	s.transition(sessionID, StateAwaitingModel)
	start := time.Now()
	reply, err := s.caller.Call(ctx, trimmed.Messages)
	closed := !s.store.Exists(sessionID)
	if closed {
		s.logger.Debug("session reset during turn, exchange not recorded", "session", sessionID)
	}
	if err != nil {
		if !closed {
			s.store.Append(sessionID, model.RoleUser, text)
		}
		result := failureResult(err)
		s.logger.Warn("turn failed",
			"session", sessionID,
			"outcome", result.Outcome.String(),
			"duration", time.Since(start))
		s.transition(sessionID, StateFailed)
		s.transition(sessionID, StateIdle)
		return result
	}

	if !closed {
		s.store.AppendExchange(sessionID, text, reply)
	}
	s.logger.Info("turn completed",
		"session", sessionID,
		"sent", len(trimmed.Messages),
		"dropped", trimmed.Dropped,
		"duration", time.Since(start))
	s.transition(sessionID, StateCompleted)
	s.transition(sessionID, StateIdle)
	return Result{Outcome: Success, Text: reply}
}

// RespondText is Respond reduced to its display text.
func (s *Service) RespondText(ctx context.Context, sessionID, text string) string {
	return s.Respond(ctx, sessionID, text).Text
}

func (s *Service) systemMessage() model.Message {
	if s.systemPrompt == "" {
		return model.Message{}
	}
	return model.NewSystemMessage(s.systemPrompt)
}

func (s *Service) transition(sessionID string, state State) {
	if s.observer != nil {
		s.observer(sessionID, state)
	}
}

// failureResult maps a call error to the Result shown to the user.
func failureResult(err error) Result {
	switch gateway.Classify(err) {
	case gateway.KindAuthentication:
		return Result{Outcome: AuthError, Text: AuthErrorText}
	case gateway.KindConnectivity:
		return Result{Outcome: ConnError, Text: ConnErrorText}
	}

	cause := err.Error()
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		cause = gwErr.Cause()
	}
	return Result{Outcome: UnknownError, Text: UnknownErrorText(cause)}
}
