// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import "time"

// =============================================================================
// HISTORY TYPE
// =============================================================================

// History is the ordered, append-only message log of one session.
//
// Sequence numbers start at 1 and increase by one per appended message.
// The system instruction is not stored here; callers prepend it when
// building a request.
//
// History is not safe for concurrent use. The session store serializes
// access to it.
type History struct {
	messages []Message
	nextSeq  int
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{
		messages: make([]Message, 0),
		nextSeq:  1,
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append stamps msg with the next sequence number and adds it to the log.
// The stored copy is returned.
func (h *History) Append(msg Message) Message {
	if h.nextSeq == 0 {
		h.nextSeq = 1
	}
	msg.Sequence = h.nextSeq
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	h.nextSeq++
	h.messages = append(h.messages, msg)
	return msg
}

// AppendNew creates a message with the given role and content and appends it.
func (h *History) AppendNew(role Role, content string) Message {
	return h.Append(NewMessage(role, content))
}

// Messages returns a copy of the log in insertion order.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	return len(h.messages)
}

// IsEmpty returns true if there are no messages.
func (h *History) IsEmpty() bool {
	return len(h.messages) == 0
}

// Last returns the most recent message and false if the log is empty.
func (h *History) Last() (Message, bool) {
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// =============================================================================
// TOKEN TRACKING
// =============================================================================

// EstimateTokens estimates the total token count of the history,
// including the per-message overhead.
func (h *History) EstimateTokens() int {
	return EstimateTokens(h.messages)
}

// EstimateTokens sums the estimated cost of msgs.
func EstimateTokens(msgs []Message) int {
	total := 0
	for _, msg := range msgs {
		total += msg.EstimateTokens() + MessageOverhead
	}
	return total
}

// =============================================================================
// TITLE
// =============================================================================

// Title derives a short title from the first user message.
func (h *History) Title() string {
	for _, msg := range h.messages {
		if msg.Role == RoleUser {
			return msg.Preview(50)
		}
	}
	return "New Conversation"
}
