// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns every conversation history in the process.
//
// A Store maps opaque session identifiers (UUIDs) to message histories.
// Callers never hold a history handle; they pass an identifier and receive
// copies, which keeps the store the single writer.
//
// # Key Types
//
//   - Store: mutex-guarded map of session ID to model.History
//
// # Usage
//
//	store := session.NewStore()
//	id := store.Create()
//	store.Append(id, model.RoleUser, "Hello")
//	msgs := store.History(id)
//
// # Unknown identifiers
//
// History and Append create an empty session for any identifier they have
// not seen before. A mistyped identifier therefore silently starts a fresh
// conversation instead of failing. Use Exists when that distinction matters.
package session
