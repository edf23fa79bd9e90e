// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package bridge

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// DefaultTypingInterval is the time between typing animation frames.
const DefaultTypingInterval = 400 * time.Millisecond

// typingFrames is the number of animation frames: zero to three dots.
const typingFrames = 4

// Indicator is the "model is typing" signal shown while a turn is pending.
// Both methods run on the interactive thread.
type Indicator interface {
	StartTyping()
	StopTyping()
}

// Typing is the state machine behind the typing animation:
//
//	Hidden -> Showing(tick) -> Hidden
//
// Every Show starts a new generation. A frame only advances the animation of
// the generation it was scheduled for, so frames left over from an earlier
// turn are ignored after Hide and Show.
//
// Typing is not safe for concurrent use; only the interactive thread touches
// it.
type Typing struct {
	showing bool
	tick    int
	gen     uint64
}

// Show makes the indicator visible from the first frame and returns the new
// generation.
func (t *Typing) Show() uint64 {
	t.gen++
	t.showing = true
	t.tick = 0
	return t.gen
}

// Hide makes the indicator invisible.
func (t *Typing) Hide() {
	t.showing = false
	t.tick = 0
}

// Advance moves to the next frame if gen is still showing and reports
// whether another frame should be scheduled.
func (t *Typing) Advance(gen uint64) bool {
	if !t.showing || gen != t.gen {
		return false
	}
	t.tick = (t.tick + 1) % typingFrames
	return true
}

// Visible reports whether the indicator is showing.
func (t *Typing) Visible() bool {
	return t.showing
}

// Generation returns the current generation.
func (t *Typing) Generation() uint64 {
	return t.gen
}

// Tick returns the current frame, 0 through 3.
func (t *Typing) Tick() int {
	return t.tick
}

// Label renders the current frame, e.g. "Typing..", or "" when hidden.
func (t *Typing) Label() string {
	if !t.showing {
		return ""
	}
	return "Typing" + strings.Repeat(".", t.tick)
}

// StartTyping implements Indicator.
func (t *Typing) StartTyping() {
	t.Show()
}

// StopTyping implements Indicator.
func (t *Typing) StopTyping() {
	t.Hide()
}

// TypingTickMsg is one animation frame for generation Gen.
type TypingTickMsg struct {
	Gen  uint64
	Time time.Time
}

// TickCmd schedules the next frame for gen. A non-positive interval uses
// DefaultTypingInterval.
func TickCmd(gen uint64, interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = DefaultTypingInterval
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TypingTickMsg{Gen: gen, Time: t}
	})
}
