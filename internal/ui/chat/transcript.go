// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	chatsvc "github.com/jeranaias/chatdesk/internal/chat"
)

// entryKind selects how a transcript entry is drawn.
type entryKind int

const (
	entryWelcome entryKind = iota
	entryUser
	entryAssistant
	entryNotice
	entryError
)

// entry is one bubble in the window. Welcome and notice entries exist only
// on screen; they are never part of the session history.
type entry struct {
	kind entryKind
	text string

	// rendered caches the markdown rendering of an assistant reply.
	rendered    string
	renderedKey string
}

// transcript is the on-screen conversation. It is shared by pointer between
// copies of the Model so that result callbacks, which run inside Update,
// reach the live state.
type transcript struct {
	sessionID string
	entries   []entry
}

// start clears the window for a new session.
func (t *transcript) start(sessionID, welcome string) {
	t.sessionID = sessionID
	t.entries = t.entries[:0]
	if welcome != "" {
		t.entries = append(t.entries, entry{kind: entryWelcome, text: welcome})
	}
}

func (t *transcript) add(kind entryKind, text string) {
	t.entries = append(t.entries, entry{kind: kind, text: text})
}

// deliver records the result of a turn. Results for a session that is no
// longer on screen are dropped.
func (t *transcript) deliver(sessionID string, r chatsvc.Result) bool {
	if sessionID != t.sessionID {
		return false
	}
	switch {
	case r.Outcome == chatsvc.Success:
		t.add(entryAssistant, r.Text)
	case r.Outcome.IsError():
		t.add(entryError, r.Text)
	default:
		t.add(entryNotice, r.Text)
	}
	return true
}

// invalidate drops cached renderings after a theme or width change.
func (t *transcript) invalidate() {
	for i := range t.entries {
		t.entries[i].rendered = ""
		t.entries[i].renderedKey = ""
	}
}

// last returns the newest entry.
func (t *transcript) last() (entry, bool) {
	if len(t.entries) == 0 {
		return entry{}, false
	}
	return t.entries[len(t.entries)-1], true
}
