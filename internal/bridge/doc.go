// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bridge runs conversation turns off the interactive thread and
// hands their results back to it.
//
// The interactive thread is whatever drains a Loop: the Bubble Tea update
// loop (ProgramLoop) or a goroutine reading a Queue. Results and indicator
// changes only ever happen there, so front-end state needs no locks.
//
// # Usage
//
//	loop := bridge.NewProgramLoop()
//	typing := &bridge.Typing{}
//	b := bridge.New(service, loop, bridge.WithIndicator(typing))
//	p := tea.NewProgram(model)
//	loop.Attach(p)
//
//	// inside Update:
//	case bridge.CallbackMsg:
//	    msg.Run()
package bridge
