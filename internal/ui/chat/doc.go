// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat window of the chatdesk TUI.

The window is a Bubble Tea model with four parts: a header with the
provider and session title, a scrolling transcript of message bubbles, a
single-line input and a status bar listing the key bindings.

# Turns

Pressing enter hands the input to a Submitter (the async bridge). The
bridge starts the typing indicator, runs the turn in the background and
posts the result back as a bridge.CallbackMsg, which Update executes. The
input is disabled while a reply is pending and refocused when it arrives.

Failed turns are drawn as error bubbles, chosen by the result's outcome.
Successful replies are rendered as markdown with glamour.

# Key Bindings

	enter    send
	ctrl+n   new chat (resets the current session)
	ctrl+t   toggle dark/light theme
	pgup     scroll up
	pgdn     scroll down
	esc      quit
*/
package chat
