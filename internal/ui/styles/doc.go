// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the lipgloss themes for the chat window.
//
// Two palettes are defined, dark and light. ModeAuto picks one from the
// terminal background via termenv. A Theme can be toggled at runtime.
package styles
