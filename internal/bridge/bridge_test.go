// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatdesk/internal/chat"
)

// gatedResponder blocks every turn until release is closed.
type gatedResponder struct {
	release chan struct{}
	started chan string
}

func newGatedResponder() *gatedResponder {
	return &gatedResponder{release: make(chan struct{}), started: make(chan string, 16)}
}

func (g *gatedResponder) Respond(ctx context.Context, sessionID, text string) chat.Result {
	g.started <- text
	<-g.release
	return chat.Result{Outcome: chat.Success, Text: "echo " + text}
}

// recordingIndicator counts indicator calls.
type recordingIndicator struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingIndicator) StartTyping() { r.record("start") }
func (r *recordingIndicator) StopTyping()  { r.record("stop") }

func (r *recordingIndicator) record(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingIndicator) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func waitNext(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.True(t, q.Next(ctx), "timed out waiting for a posted result")
}

// =============================================================================
// SUBMIT TESTS
// =============================================================================

func TestSubmit_StartsTypingSynchronously(t *testing.T) {
	resp := newGatedResponder()
	ind := &recordingIndicator{}
	q := NewQueue(0)
	b := New(resp, q, WithIndicator(ind))

	b.Submit(context.Background(), "s1", "hello", func(chat.Result) {})

	// Submit returned while the turn is still blocked.
	assert.Equal(t, []string{"start"}, ind.snapshot())
	assert.Equal(t, 1, b.Pending())

	close(resp.release)
	waitNext(t, q)
	assert.Equal(t, []string{"start", "stop"}, ind.snapshot())
	assert.Equal(t, 0, b.Pending())
}

func TestSubmit_ResultDeliveredOnlyThroughLoop(t *testing.T) {
	resp := newGatedResponder()
	q := NewQueue(0)
	b := New(resp, q)

	var got []chat.Result
	b.Submit(context.Background(), "s1", "hi", func(r chat.Result) { got = append(got, r) })

	<-resp.started
	close(resp.release)

	// Give the background goroutine time to finish; the callback must still
	// be waiting in the queue.
	require.Eventually(t, func() bool { return q.Len() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, got)

	assert.Equal(t, 1, q.Drain())
	require.Len(t, got, 1)
	assert.Equal(t, chat.Result{Outcome: chat.Success, Text: "echo hi"}, got[0])
}

func TestSubmit_StopsTypingBeforeCallback(t *testing.T) {
	resp := newGatedResponder()
	close(resp.release)
	ind := &recordingIndicator{}
	q := NewQueue(0)
	b := New(resp, q, WithIndicator(ind))

	var seenAtCallback []string
	b.Submit(context.Background(), "s1", "x", func(chat.Result) {
		seenAtCallback = ind.snapshot()
	})
	waitNext(t, q)

	assert.Equal(t, []string{"start", "stop"}, seenAtCallback)
}

func TestSubmit_WithServiceFailure(t *testing.T) {
	svc := responderFunc(func(ctx context.Context, id, text string) chat.Result {
		return chat.Result{Outcome: chat.ConnError, Text: chat.ConnErrorText}
	})
	q := NewQueue(0)
	b := New(svc, q)

	var got chat.Result
	b.Submit(context.Background(), "s1", "x", func(r chat.Result) { got = r })
	waitNext(t, q)

	assert.Equal(t, chat.ConnError, got.Outcome)
	assert.True(t, got.Outcome.IsError())
}

func TestSubmit_ManyInFlight(t *testing.T) {
	resp := newGatedResponder()
	q := NewQueue(0)
	b := New(resp, q)

	const n = 10
	delivered := 0
	for i := 0; i < n; i++ {
		b.Submit(context.Background(), "s1", fmt.Sprintf("m%d", i), func(chat.Result) { delivered++ })
	}
	assert.Equal(t, n, b.Pending())

	close(resp.release)
	for i := 0; i < n; i++ {
		waitNext(t, q)
	}
	assert.Equal(t, n, delivered)
	assert.Equal(t, 0, b.Pending())
}

type responderFunc func(ctx context.Context, id, text string) chat.Result

func (f responderFunc) Respond(ctx context.Context, id, text string) chat.Result {
	return f(ctx, id, text)
}

// =============================================================================
// QUEUE TESTS
// =============================================================================

func TestQueue_RunStopsOnCancel(t *testing.T) {
	q := NewQueue(4)
	ran := make(chan struct{})
	q.Post(func() { close(ran) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- q.Run(ctx) }()

	<-ran
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestQueue_PreservesOrder(t *testing.T) {
	q := NewQueue(8)
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		q.Post(func() { order = append(order, i) })
	}
	assert.Equal(t, 5, q.Drain())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
	assert.Equal(t, 0, q.Drain())
}

func TestQueue_NextHonorsContext(t *testing.T) {
	q := NewQueue(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, q.Next(ctx))
}

// =============================================================================
// PROGRAM LOOP TESTS
// =============================================================================

type fakeSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (f *fakeSender) Send(msg tea.Msg) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
}

func TestProgramLoop_SendsCallbackMsg(t *testing.T) {
	loop := NewProgramLoop()
	sender := &fakeSender{}
	loop.Attach(sender)

	ran := false
	loop.Post(func() { ran = true })

	require.Len(t, sender.msgs, 1)
	msg, ok := sender.msgs[0].(CallbackMsg)
	require.True(t, ok)
	assert.False(t, ran, "Post must not run the function itself")
	msg.Run()
	assert.True(t, ran)
}

func TestProgramLoop_BacklogBeforeAttach(t *testing.T) {
	loop := NewProgramLoop()
	var order []string
	loop.Post(func() { order = append(order, "a") })
	loop.Post(func() { order = append(order, "b") })

	sender := &fakeSender{}
	loop.Attach(sender)
	loop.Post(func() { order = append(order, "c") })

	require.Len(t, sender.msgs, 3)
	for _, m := range sender.msgs {
		m.(CallbackMsg).Run()
	}
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestCallbackMsg_ZeroValue(t *testing.T) {
	assert.NotPanics(t, func() { CallbackMsg{}.Run() })
}
