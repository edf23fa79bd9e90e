// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Role: Message role enumeration (system, user, assistant)
//   - Message: Immutable turn with role, content, and sequence number
//   - History: Append-only message log for one session
//
// # Usage
//
//	h := model.NewHistory()
//	h.AppendNew(model.RoleUser, "Hello!")
//	h.AppendNew(model.RoleAssistant, "Hi there.")
//	for _, msg := range h.Messages() {
//	    fmt.Println(msg.Sequence, msg.Role.DisplayName(), msg.Content)
//	}
package model
