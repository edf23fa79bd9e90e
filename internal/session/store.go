// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns every conversation history in the process.
package session

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jeranaias/chatdesk/internal/model"
)

// =============================================================================
// SESSION STORE
// =============================================================================

// Store maps session identifiers to message histories. It is safe for
// concurrent use; one lock guards both the map and every history in it.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*model.History
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*model.History),
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Create allocates an empty history under a fresh identifier.
func (s *Store) Create() string {
	id := generateSessionID()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = model.NewHistory()
	return id
}

// Reset discards the identifier and its history. Callers are expected to
// Create a new session afterwards. Resetting an unknown identifier is a no-op.
func (s *Store) Reset(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Exists reports whether id is currently known, without creating it.
func (s *Store) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// =============================================================================
// HISTORY ACCESS
// =============================================================================

// History returns a copy of the messages for id. Unknown identifiers get an
// empty history stored under them; this never fails.
func (s *Store) History(id string) []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(id).Messages()
}

// Append adds a message to the authoritative history of id, creating the
// session if needed, and returns the stored message with its sequence number.
func (s *Store) Append(id string, role model.Role, content string) model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(id).AppendNew(role, content)
}

// AppendExchange appends a user message and the assistant reply as one
// step, so no other append on id can land between them.
func (s *Store) AppendExchange(id, user, assistant string) (model.Message, model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.getOrCreate(id)
	u := h.AppendNew(model.RoleUser, user)
	a := h.AppendNew(model.RoleAssistant, assistant)
	return u, a
}

// Title returns a short title for the session derived from its first user
// message.
func (s *Store) Title(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getOrCreate(id).Title()
}

// getOrCreate must be called with s.mu held.
func (s *Store) getOrCreate(id string) *model.History {
	h, ok := s.sessions[id]
	if !ok {
		h = model.NewHistory()
		s.sessions[id] = h
	}
	return h
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateSessionID creates a unique session ID.
func generateSessionID() string {
	return uuid.NewString()
}
