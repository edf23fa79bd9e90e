// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatdesk/internal/cloud"
	ctxtrim "github.com/jeranaias/chatdesk/internal/context"
	"github.com/jeranaias/chatdesk/internal/gateway"
	"github.com/jeranaias/chatdesk/internal/model"
	"github.com/jeranaias/chatdesk/internal/session"
)

// fakeCaller records every request and answers from reply.
type fakeCaller struct {
	mu       sync.Mutex
	requests [][]model.Message
	reply    func(msgs []model.Message) (string, error)
}

func (f *fakeCaller) Call(ctx context.Context, msgs []model.Message) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, msgs)
	f.mu.Unlock()
	if f.reply == nil {
		return "reply to " + msgs[len(msgs)-1].Content, nil
	}
	return f.reply(msgs)
}

func (f *fakeCaller) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeCaller) last() []model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func failWith(err error) func([]model.Message) (string, error) {
	return func([]model.Message) (string, error) { return "", err }
}

func newTestService(caller Caller, opts ...Option) (*Service, *session.Store) {
	store := session.NewStore()
	return NewService(store, caller, opts...), store
}

// =============================================================================
// SUCCESS PATH
// =============================================================================

func TestRespond_SuccessAppendsExchange(t *testing.T) {
	caller := &fakeCaller{reply: func([]model.Message) (string, error) { return "Hi! How can I help?", nil }}
	svc, _ := newTestService(caller)
	id := svc.NewSession()

	res := svc.Respond(context.Background(), id, "Hello")
	assert.Equal(t, Result{Outcome: Success, Text: "Hi! How can I help?"}, res)

	msgs := svc.Transcript(id)
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "Hello", msgs[0].Content)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Hi! How can I help?", msgs[1].Content)
	assert.Less(t, msgs[0].Sequence, msgs[1].Sequence)
}

func TestRespond_RequestShape(t *testing.T) {
	caller := &fakeCaller{}
	svc, _ := newTestService(caller)
	id := svc.NewSession()

	svc.Respond(context.Background(), id, "Hello")
	svc.Respond(context.Background(), id, "How are you?")

	req := caller.last()
	require.Len(t, req, 4)
	assert.Equal(t, model.RoleSystem, req[0].Role)
	assert.Equal(t, DefaultSystemPrompt, req[0].Content)
	assert.Equal(t, "Hello", req[1].Content)
	assert.Equal(t, "reply to Hello", req[2].Content)
	assert.Equal(t, model.RoleUser, req[3].Role)
	assert.Equal(t, "How are you?", req[3].Content)
}

func TestRespond_HelloHowAreYouScenario(t *testing.T) {
	svc, _ := newTestService(&fakeCaller{})
	id := svc.NewSession()

	first := svc.Respond(context.Background(), id, "Hello")
	second := svc.Respond(context.Background(), id, "How are you?")
	require.Equal(t, Success, first.Outcome)
	require.Equal(t, Success, second.Outcome)

	msgs := svc.Transcript(id)
	roles := make([]model.Role, len(msgs))
	for i, m := range msgs {
		roles[i] = m.Role
		assert.Equal(t, i+1, m.Sequence)
	}
	assert.Equal(t, []model.Role{model.RoleUser, model.RoleAssistant, model.RoleUser, model.RoleAssistant}, roles)
}

func TestRespond_NormalizesInput(t *testing.T) {
	caller := &fakeCaller{}
	svc, _ := newTestService(caller)
	id := svc.NewSession()

	// "e" followed by a combining acute accent composes to U+00E9.
	svc.Respond(context.Background(), id, "  cafe\u0301 \n")

	msgs := svc.Transcript(id)
	require.NotEmpty(t, msgs)
	assert.Equal(t, "caf\u00e9", msgs[0].Content)
}

func TestRespondText(t *testing.T) {
	svc, _ := newTestService(&fakeCaller{})
	id := svc.NewSession()

	assert.Equal(t, "reply to ping", svc.RespondText(context.Background(), id, "ping"))
	assert.Equal(t, EmptyInputText, svc.RespondText(context.Background(), id, ""))
}

// =============================================================================
// EMPTY INPUT
// =============================================================================

func TestRespond_BlankInput(t *testing.T) {
	for _, in := range []string{"", " ", "\t\n  "} {
		t.Run(fmt.Sprintf("%q", in), func(t *testing.T) {
			caller := &fakeCaller{}
			var states []State
			svc, _ := newTestService(caller, WithStateObserver(func(_ string, s State) { states = append(states, s) }))
			id := svc.NewSession()

			res := svc.Respond(context.Background(), id, in)
			assert.Equal(t, Result{Outcome: EmptyInput, Text: "Please enter a message."}, res)
			assert.False(t, res.Outcome.IsError())
			assert.Empty(t, svc.Transcript(id))
			assert.Zero(t, caller.count())
			assert.Empty(t, states)
		})
	}
}

// =============================================================================
// FAILURE PATHS
// =============================================================================

func TestRespond_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome Outcome
		text    string
	}{
		{
			name:    "authentication",
			err:     &gateway.Error{Kind: gateway.KindAuthentication, Err: cloud.ErrAuthFailed},
			outcome: AuthError,
			text:    "Invalid API key or connection error. Please check your key and try again.",
		},
		{
			name:    "connectivity",
			err:     &gateway.Error{Kind: gateway.KindConnectivity, Err: errors.New("dial tcp: i/o timeout")},
			outcome: ConnError,
			text:    "Connection error: the model provider could not be reached. Please try again.",
		},
		{
			name:    "unknown",
			err:     &gateway.Error{Kind: gateway.KindUnknown, Err: errors.New("unexpected token in JSON")},
			outcome: UnknownError,
			text:    "An unexpected error occurred: unexpected token in JSON",
		},
		{
			name:    "unclassified raw error",
			err:     errors.New("boom"),
			outcome: UnknownError,
			text:    "An unexpected error occurred: boom",
		},
		{
			name:    "raw url error",
			err:     &url.Error{Op: "Post", URL: "https://api.openai.com/v1/chat/completions", Err: errors.New("no such host")},
			outcome: ConnError,
			text:    ConnErrorText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(&fakeCaller{reply: failWith(tt.err)})
			id := svc.NewSession()

			res := svc.Respond(context.Background(), id, "Hello")
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.Equal(t, tt.text, res.Text)
			assert.True(t, res.Outcome.IsError())

			msgs := svc.Transcript(id)
			require.Len(t, msgs, 1, "failure appends only the user message")
			assert.Equal(t, model.RoleUser, msgs[0].Role)
			assert.Equal(t, "Hello", msgs[0].Content)
		})
	}
}

func TestRespond_OutageThenRecovery(t *testing.T) {
	down := true
	caller := &fakeCaller{reply: func(msgs []model.Message) (string, error) {
		if down {
			return "", &gateway.Error{Kind: gateway.KindConnectivity, Err: errors.New("connection refused")}
		}
		return "back", nil
	}}
	svc, _ := newTestService(caller)
	id := svc.NewSession()

	res := svc.Respond(context.Background(), id, "anyone there?")
	assert.Equal(t, ConnError, res.Outcome)
	assert.Len(t, svc.Transcript(id), 1)

	down = false
	res = svc.Respond(context.Background(), id, "retry")
	assert.Equal(t, Success, res.Outcome)

	// The orphaned user message stays in the history and is sent again.
	req := caller.last()
	require.Len(t, req, 3)
	assert.Equal(t, "anyone there?", req[1].Content)
	assert.Equal(t, "retry", req[2].Content)
	assert.Len(t, svc.Transcript(id), 3)
}

// =============================================================================
// TRIMMING
// =============================================================================

func TestRespond_TrimsToBudget(t *testing.T) {
	caller := &fakeCaller{}
	svc, store := newTestService(caller, WithSystemPrompt("sys"), WithBudget(40))
	id := svc.NewSession()
	for i := 0; i < 20; i++ {
		store.Append(id, model.RoleUser, strings.Repeat("x", 40))
	}

	svc.Respond(context.Background(), id, "newest")

	req := caller.last()
	require.GreaterOrEqual(t, len(req), 2)
	assert.Equal(t, "sys", req[0].Content, "system instruction is always first")
	assert.Equal(t, "newest", req[len(req)-1].Content, "newest message is always kept")
	assert.LessOrEqual(t, model.EstimateTokens(req), 40)
	assert.Less(t, len(req), 22)

	// The stored history is never trimmed.
	assert.Len(t, svc.Transcript(id), 22)
}

func TestRespond_OversizedMessageStillSent(t *testing.T) {
	caller := &fakeCaller{}
	svc, _ := newTestService(caller, WithBudget(10))
	id := svc.NewSession()

	huge := strings.Repeat("word ", 500)
	res := svc.Respond(context.Background(), id, huge)
	assert.Equal(t, Success, res.Outcome)

	req := caller.last()
	require.Len(t, req, 2)
	assert.Equal(t, strings.TrimSpace(huge), req[1].Content)
}

func TestRespond_OverBudgetIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc, _ := newTestService(&fakeCaller{}, WithBudget(10), WithSystemPrompt(""), WithLogger(logger))

	svc.Respond(context.Background(), svc.NewSession(), strings.Repeat("word ", 500))
	assert.Contains(t, buf.String(), "exceeds trim budget")
	assert.Contains(t, buf.String(), "budget=10")

	buf.Reset()
	svc.Respond(context.Background(), svc.NewSession(), "short")
	assert.NotContains(t, buf.String(), "exceeds trim budget")
}

func TestRespond_NoSystemPrompt(t *testing.T) {
	caller := &fakeCaller{}
	svc, _ := newTestService(caller, WithSystemPrompt(""))
	id := svc.NewSession()

	svc.Respond(context.Background(), id, "hi")
	req := caller.last()
	require.Len(t, req, 1)
	assert.Equal(t, model.RoleUser, req[0].Role)
}

func TestRespond_CustomTruncator(t *testing.T) {
	caller := &fakeCaller{}
	// Every message costs 10 regardless of length.
	flat := ctxtrim.NewTruncator(func(model.Message) int { return 10 })
	svc, store := newTestService(caller, WithTruncator(flat), WithBudget(30), WithSystemPrompt("s"))
	id := svc.NewSession()
	for i := 0; i < 5; i++ {
		store.Append(id, model.RoleUser, fmt.Sprintf("m%d", i))
	}

	svc.Respond(context.Background(), id, "now")
	req := caller.last()
	require.Len(t, req, 3)
	assert.Equal(t, []string{"s", "m4", "now"}, []string{req[0].Content, req[1].Content, req[2].Content})
}

// =============================================================================
// STATE MACHINE
// =============================================================================

func TestRespond_StateTransitions(t *testing.T) {
	var got []State
	observer := func(_ string, s State) { got = append(got, s) }

	svc, _ := newTestService(&fakeCaller{}, WithStateObserver(observer))
	svc.Respond(context.Background(), svc.NewSession(), "hi")
	assert.Equal(t, []State{StateSubmitted, StateAwaitingModel, StateCompleted, StateIdle}, got)

	got = nil
	svc, _ = newTestService(&fakeCaller{reply: failWith(errors.New("x"))}, WithStateObserver(observer))
	svc.Respond(context.Background(), svc.NewSession(), "hi")
	assert.Equal(t, []State{StateSubmitted, StateAwaitingModel, StateFailed, StateIdle}, got)
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestSessionsAreIndependent(t *testing.T) {
	svc, _ := newTestService(&fakeCaller{})
	a := svc.NewSession()
	b := svc.NewSession()
	require.NotEqual(t, a, b)

	svc.Respond(context.Background(), a, "only in a")
	assert.Len(t, svc.Transcript(a), 2)
	assert.Empty(t, svc.Transcript(b))
}

func TestReset(t *testing.T) {
	svc, store := newTestService(&fakeCaller{})
	id := svc.NewSession()
	svc.Respond(context.Background(), id, "hi")
	assert.Equal(t, "hi", svc.Title(id))

	svc.Reset(id)
	assert.False(t, store.Exists(id))
}

func TestRespond_ResetDuringCallRecordsNothing(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome Outcome
	}{
		{"success", nil, Success},
		{"failure", &gateway.Error{Kind: gateway.KindConnectivity, Err: errors.New("connection refused")}, ConnError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var svc *Service
			var id string
			caller := &fakeCaller{reply: func([]model.Message) (string, error) {
				svc.Reset(id)
				return "late reply", tt.err
			}}
			svc, store := newTestService(caller)
			id = svc.NewSession()

			res := svc.Respond(context.Background(), id, "hi")
			assert.Equal(t, tt.outcome, res.Outcome)
			assert.False(t, store.Exists(id), "a reset session must not be re-created")
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestRespond_UnknownSessionCreatedLazily(t *testing.T) {
	svc, store := newTestService(&fakeCaller{})

	res := svc.Respond(context.Background(), "never-created", "hi")
	assert.Equal(t, Success, res.Outcome)
	assert.True(t, store.Exists("never-created"))
	assert.Len(t, svc.Transcript("never-created"), 2)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

// TestRespond_OverlappingCalls fires many turns at one session at once.
// Interleaving is unspecified; the test only requires every turn to finish
// and the history to stay consistent.
//
// Run with: go test -race -run TestRespond_OverlappingCalls
func TestRespond_OverlappingCalls(t *testing.T) {
	svc, _ := newTestService(&fakeCaller{})
	id := svc.NewSession()

	const n = 50
	var wg sync.WaitGroup
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = svc.Respond(context.Background(), id, fmt.Sprintf("msg %d", i))
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, Success, r.Outcome)
	}

	msgs := svc.Transcript(id)
	require.Len(t, msgs, 2*n)
	for i, m := range msgs {
		assert.Equal(t, i+1, m.Sequence)
		if i%2 == 1 {
			assert.Equal(t, model.RoleAssistant, m.Role)
			assert.Equal(t, "reply to "+msgs[i-1].Content, m.Content)
		}
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "auth_error", AuthError.String())
	assert.Equal(t, "conn_error", ConnError.String())
	assert.Equal(t, "unknown_error", UnknownError.String())
	assert.Equal(t, "empty_input", EmptyInput.String())
	assert.Equal(t, "awaiting_model", StateAwaitingModel.String())
}
