// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package context fits conversation history into the model's context window.
//
// Before each model call the conversation service builds a trimmed view of
// the session history: the system instruction is always present, the newest
// messages are kept, and whole messages are dropped from the head until the
// estimated cost fits the configured budget. The stored history is never
// shortened by this step.
//
// # Key Types
//
//   - Truncator: budget-based "keep most recent" trimmer
//   - TruncateResult: the trimmed view plus bookkeeping
//   - TokenEstimator: pluggable per-message cost function
//
// # Usage
//
//	tr := context.NewTruncator(nil)
//	view := tr.Truncate(model.NewSystemMessage(prompt), history, 1000)
//	send(view.Messages)
package context
