// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// PALETTE
// =============================================================================

// Palette is the set of colors a Theme is built from. Each theme mode has
// its own palette so the user can switch between them at runtime.
type Palette struct {
	Accent    lipgloss.Color
	Secondary lipgloss.Color

	Surface     lipgloss.Color
	Border      lipgloss.Color
	TextPrimary lipgloss.Color
	TextMuted   lipgloss.Color

	UserBg     lipgloss.Color
	UserFg     lipgloss.Color
	UserBorder lipgloss.Color

	AssistantBg     lipgloss.Color
	AssistantFg     lipgloss.Color
	AssistantBorder lipgloss.Color

	ErrorBg     lipgloss.Color
	ErrorFg     lipgloss.Color
	ErrorBorder lipgloss.Color

	WelcomeBg     lipgloss.Color
	WelcomeFg     lipgloss.Color
	WelcomeBorder lipgloss.Color
}

// DarkPalette is used on dark terminal backgrounds (Catppuccin Mocha base).
var DarkPalette = Palette{
	Accent:    "#A78BFA",
	Secondary: "#22D3EE",

	Surface:     "#313244",
	Border:      "#45475A",
	TextPrimary: "#CDD6F4",
	TextMuted:   "#7F849C",

	UserBg:     "#1D4ED8",
	UserFg:     "#E0F2FE",
	UserBorder: "#3B82F6",

	AssistantBg:     "#3B3655",
	AssistantFg:     "#E9E4F5",
	AssistantBorder: "#A78BFA",

	ErrorBg:     "#881337",
	ErrorFg:     "#FECACA",
	ErrorBorder: "#EF4444",

	WelcomeBg:     "#064E3B",
	WelcomeFg:     "#A7F3D0",
	WelcomeBorder: "#34D399",
}

// LightPalette is used on light terminal backgrounds (Catppuccin Latte base).
var LightPalette = Palette{
	Accent:    "#7C3AED",
	Secondary: "#0891B2",

	Surface:     "#E6E9EF",
	Border:      "#BCC0CC",
	TextPrimary: "#4C4F69",
	TextMuted:   "#8C8FA1",

	UserBg:     "#DBEAFE",
	UserFg:     "#1E40AF",
	UserBorder: "#3B82F6",

	AssistantBg:     "#F5F3FF",
	AssistantFg:     "#5B4B8A",
	AssistantBorder: "#C4B5FD",

	ErrorBg:     "#FEE2E2",
	ErrorFg:     "#991B1B",
	ErrorBorder: "#DC2626",

	WelcomeBg:     "#D1FAE5",
	WelcomeFg:     "#065F46",
	WelcomeBorder: "#10B981",
}
