// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Loop runs functions on the interactive thread, in the order posted.
// Post must be safe to call from any goroutine.
type Loop interface {
	Post(fn func())
}

// =============================================================================
// QUEUE LOOP
// =============================================================================

// DefaultQueueSize is the buffer of a Queue created with size <= 0.
const DefaultQueueSize = 64

// Queue is a Loop backed by a channel. The goroutine that calls Run, Next or
// Drain is the interactive thread.
type Queue struct {
	ch chan func()
}

// NewQueue creates a queue with the given buffer size.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan func(), size)}
}

// Post enqueues fn. It blocks while the buffer is full.
func (q *Queue) Post(fn func()) {
	q.ch <- fn
}

// Run executes posted functions until ctx is done.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-q.ch:
			fn()
		}
	}
}

// Next waits for one posted function and runs it. It returns false if ctx
// ended first.
func (q *Queue) Next(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case fn := <-q.ch:
		fn()
		return true
	}
}

// Drain runs every function already queued without waiting for more and
// returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case fn := <-q.ch:
			fn()
			n++
		default:
			return n
		}
	}
}

// Len returns the number of queued functions.
func (q *Queue) Len() int {
	return len(q.ch)
}

// =============================================================================
// BUBBLE TEA LOOP
// =============================================================================

// Sender delivers a message into a running Bubble Tea program.
// *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// CallbackMsg carries a posted function into the Bubble Tea update loop.
// The program's Update must call Run when it receives one.
type CallbackMsg struct {
	fn func()
}

// Run executes the carried function.
func (m CallbackMsg) Run() {
	if m.fn != nil {
		m.fn()
	}
}

// ProgramLoop is a Loop whose interactive thread is a Bubble Tea program's
// Update. The program is attached after construction because the program
// itself is built from a model that already holds the loop.
type ProgramLoop struct {
	mu      sync.Mutex
	sender  Sender
	backlog []func()
}

// NewProgramLoop creates a loop with no program attached.
func NewProgramLoop() *ProgramLoop {
	return &ProgramLoop{}
}

// Attach connects the loop to a program and delivers anything posted
// before. With a backlog, Attach blocks until the program is running.
func (l *ProgramLoop) Attach(s Sender) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sender = s
	for _, fn := range l.backlog {
		s.Send(CallbackMsg{fn: fn})
	}
	l.backlog = nil
}

// Post sends fn to the program as a CallbackMsg, or holds it until Attach.
func (l *ProgramLoop) Post(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sender == nil {
		l.backlog = append(l.backlog, fn)
		return
	}
	l.sender.Send(CallbackMsg{fn: fn})
}
