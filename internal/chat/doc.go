// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs one conversational turn: validate the input, trim the
// history, call the model and record the exchange.
//
// Respond is synchronous and blocks for the duration of the model call.
// Front ends run it off their event loop through package bridge.
//
// # Outcomes
//
//   - Success: Text is the model reply; two messages were appended
//   - AuthError, ConnError, UnknownError: Text is a fixed display message;
//     only the user message was appended
//   - EmptyInput: Text is "Please enter a message."; nothing was appended
package chat
