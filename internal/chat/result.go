// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// User-facing texts. WelcomeText greets the user at the start of a chat;
// the others are shown for non-success outcomes.
const (
	EmptyInputText = "Please enter a message."
	WelcomeText    = "Hello! How can I assist you today?"
	AuthErrorText  = "Invalid API key or connection error. Please check your key and try again."
	ConnErrorText  = "Connection error: the model provider could not be reached. Please try again."

	unknownErrorPrefix = "An unexpected error occurred: "
)

// Outcome tags how a turn ended.
type Outcome int

const (
	Success Outcome = iota
	AuthError
	ConnError
	UnknownError
	EmptyInput
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case AuthError:
		return "auth_error"
	case ConnError:
		return "conn_error"
	case UnknownError:
		return "unknown_error"
	case EmptyInput:
		return "empty_input"
	default:
		return "invalid"
	}
}

// IsError reports whether the outcome is a provider failure. EmptyInput is a
// soft outcome and is not an error.
func (o Outcome) IsError() bool {
	return o == AuthError || o == ConnError || o == UnknownError
}

// Result is what one turn hands back to the front end. Text is the reply on
// Success and a display message otherwise.
type Result struct {
	Outcome Outcome
	Text    string
}

// UnknownErrorText formats the message shown for an unclassified failure.
func UnknownErrorText(cause string) string {
	return unknownErrorPrefix + cause
}
