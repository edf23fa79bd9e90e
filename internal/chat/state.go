// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// State is the position of a single turn in its lifecycle:
//
//	Idle -> Submitted -> AwaitingModel -> Completed | Failed -> Idle
//
// Blank input is rejected before submission and produces no transitions.
type State int

const (
	StateIdle State = iota
	StateSubmitted
	StateAwaitingModel
	StateCompleted
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitted:
		return "submitted"
	case StateAwaitingModel:
		return "awaiting_model"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StateObserver is called on every transition. It runs on the goroutine
// executing Respond and must not block.
type StateObserver func(sessionID string, state State)
