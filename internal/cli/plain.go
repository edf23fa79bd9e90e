// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/chatdesk/internal/bridge"
	"github.com/jeranaias/chatdesk/internal/chat"
	"github.com/jeranaias/chatdesk/internal/model"
)

// =============================================================================
// LINE INPUT
// =============================================================================

// LineReader reads one line of user input.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// LineEditor provides line editing and in-memory input history.
// Arrow keys recall earlier lines. History is not written to disk.
type LineEditor struct {
	line *liner.State
}

// NewLineEditor takes over the terminal. Call Close to restore it.
func NewLineEditor() *LineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return &LineEditor{line: line}
}

// Prompt reads a line and adds it to the history if it is not blank.
func (e *LineEditor) Prompt(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close restores the terminal.
func (e *LineEditor) Close() error {
	return e.line.Close()
}

// =============================================================================
// TYPING INDICATOR
// =============================================================================

// TextIndicator prints "Typing..." while a reply is pending and erases it
// when the reply arrives.
type TextIndicator struct {
	Out io.Writer
}

// StartTyping implements bridge.Indicator.
func (t TextIndicator) StartTyping() {
	fmt.Fprint(t.Out, "Typing...")
}

// StopTyping implements bridge.Indicator.
func (t TextIndicator) StopTyping() {
	fmt.Fprint(t.Out, "\r\033[K")
}

// =============================================================================
// PLAIN CHAT
// =============================================================================

// Conversations manages sessions. *chat.Service implements it.
type Conversations interface {
	NewSession() string
	Reset(sessionID string)
}

// Submitter runs turns in the background. *bridge.Bridge implements it.
type Submitter interface {
	Submit(ctx context.Context, sessionID, text string, onResult func(chat.Result))
}

// Line prefixes, e.g. "You: " and "Bot: ".
var (
	userPrefix = model.RoleUser.DisplayName() + ": "
	botPrefix  = model.RoleAssistant.DisplayName() + ": "
)

// Plain chat commands.
const (
	cmdNewChat = "/new"
	cmdQuit    = "/quit"
	cmdExit    = "/exit"
)

// PlainChat is the line-mode front end. The goroutine calling Run is the
// interactive thread: it drains the queue the bridge posts results to.
type PlainChat struct {
	conv    Conversations
	submit  Submitter
	queue   *bridge.Queue
	in      LineReader
	out     io.Writer
	welcome string
	logger  *slog.Logger
}

// NewPlainChat creates a line-mode chat. submit must deliver on queue.
func NewPlainChat(conv Conversations, submit Submitter, queue *bridge.Queue, in LineReader, out io.Writer, welcome string) *PlainChat {
	return &PlainChat{
		conv:    conv,
		submit:  submit,
		queue:   queue,
		in:      in,
		out:     out,
		welcome: welcome,
		logger:  slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger.
func (p *PlainChat) SetLogger(logger *slog.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Run reads lines until end of input, ctrl+c or /quit. Each line is one
// turn; its reply is printed as a "Bot:" line. /new starts a fresh chat.
func (p *PlainChat) Run(ctx context.Context) error {
	sessionID := p.start()

	for {
		line, err := p.in.Prompt(userPrefix)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(p.out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		switch strings.TrimSpace(line) {
		case cmdQuit, cmdExit:
			return nil
		case cmdNewChat:
			p.conv.Reset(sessionID)
			sessionID = p.start()
			continue
		}

		var result chat.Result
		p.submit.Submit(ctx, sessionID, line, func(r chat.Result) {
			result = r
		})
		if !p.queue.Next(ctx) {
			return ctx.Err()
		}

		p.logger.Debug("plain turn", "session", sessionID, "outcome", result.Outcome.String())
		fmt.Fprintln(p.out, botPrefix+result.Text)
	}
}

// start opens a session and prints the welcome line.
func (p *PlainChat) start() string {
	id := p.conv.NewSession()
	if p.welcome != "" {
		fmt.Fprintln(p.out, botPrefix+p.welcome)
	}
	return id
}
