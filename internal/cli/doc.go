// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli holds the command-line front end of chatdesk.
//
// # Key Types
//
//   - Args: parsed command-line flags (pflag)
//   - Connect: builds the model gateway, prompting for an API key when the
//     configured one is missing or rejected
//   - PlainChat: line-mode chat for pipes and dumb terminals, driven by a
//     bridge.Queue
//
// # Usage
//
//	args, err := cli.Parse(os.Args[1:], os.Stderr)
//	...
//	gw, err := cli.Connect(ctx, cfg, cli.TerminalSecretReader{In: os.Stdin, Out: os.Stderr}, os.Stderr, logger)
package cli
