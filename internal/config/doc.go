// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatdesk.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ProviderConfig: Which model backend to use and how to reach it
//   - ChatConfig: System prompt, trim budget and welcome message
//   - UIConfig, LogConfig: Front end and log file settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Command-line flags (applied by main)
//   - Environment variables (CHATDESK_*, OPENAI_API_KEY)
//   - ~/.chatdesk/config.toml
//   - ~/.chatdesk/config.json
//   - Built-in defaults
//
// # Example
//
//	[provider]
//	kind = "openai"
//	model = "gpt-4o"
//
//	[chat]
//	trim_budget = 1000
//
//	[ui]
//	theme = "dark"
package config
