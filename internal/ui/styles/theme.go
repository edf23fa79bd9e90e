// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// MODE
// =============================================================================

// Mode selects the theme palette.
type Mode string

const (
	ModeDark  Mode = "dark"
	ModeLight Mode = "light"
	ModeAuto  Mode = "auto"
)

// ParseMode converts a config or flag value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDark:
		return ModeDark, nil
	case ModeLight:
		return ModeLight, nil
	case ModeAuto, "":
		return ModeAuto, nil
	default:
		return ModeAuto, fmt.Errorf("unknown theme %q (want dark, light or auto)", s)
	}
}

// backgroundIsDark is swapped in tests.
var backgroundIsDark = termenv.HasDarkBackground

// Detect resolves ModeAuto against the terminal background.
func Detect() Mode {
	if backgroundIsDark() {
		return ModeDark
	}
	return ModeLight
}

// Resolve returns m, or the detected mode when m is ModeAuto.
func (m Mode) Resolve() Mode {
	if m == ModeDark || m == ModeLight {
		return m
	}
	return Detect()
}

// =============================================================================
// THEME
// =============================================================================

// Theme holds every lipgloss style the chat window renders with.
type Theme struct {
	Mode         Mode
	Palette      Palette
	ColorProfile termenv.Profile

	// Header
	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style

	// Message bubbles
	UserBubble      lipgloss.Style
	UserLabel       lipgloss.Style
	AssistantBubble lipgloss.Style
	AssistantLabel  lipgloss.Style
	ErrorBubble     lipgloss.Style
	ErrorLabel      lipgloss.Style
	WelcomeBubble   lipgloss.Style
	Typing          lipgloss.Style

	// Input
	InputContainer   lipgloss.Style
	InputDisabled    lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style

	// Status bar
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
}

// NewTheme builds a theme for mode. ModeAuto is resolved against the
// terminal background.
func NewTheme(mode Mode) *Theme {
	resolved := mode.Resolve()
	p := DarkPalette
	if resolved == ModeLight {
		p = LightPalette
	}
	t := &Theme{
		Mode:         resolved,
		Palette:      p,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// IsDark reports whether the theme uses the dark palette.
func (t *Theme) IsDark() bool {
	return t.Mode == ModeDark
}

// Toggle returns the opposite theme.
func (t *Theme) Toggle() *Theme {
	if t.IsDark() {
		return NewTheme(ModeLight)
	}
	return NewTheme(ModeDark)
}

// GlamourStyle names the glamour standard style matching the theme.
func (t *Theme) GlamourStyle() string {
	if t.IsDark() {
		return "dark"
	}
	return "light"
}

func (t *Theme) initStyles() {
	p := t.Palette

	t.Header = lipgloss.NewStyle().
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(p.Border)
	t.HeaderTitle = lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true)
	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(p.TextMuted)

	bubble := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder())

	t.UserBubble = bubble.
		Foreground(p.UserFg).
		Background(p.UserBg).
		BorderForeground(p.UserBorder)
	t.UserLabel = lipgloss.NewStyle().
		Foreground(p.UserBorder).
		Bold(true)

	t.AssistantBubble = bubble.
		Foreground(p.AssistantFg).
		BorderForeground(p.AssistantBorder)
	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(p.AssistantBorder).
		Bold(true)

	t.ErrorBubble = bubble.
		Foreground(p.ErrorFg).
		Background(p.ErrorBg).
		BorderForeground(p.ErrorBorder)
	t.ErrorLabel = lipgloss.NewStyle().
		Foreground(p.ErrorBorder).
		Bold(true)

	t.WelcomeBubble = bubble.
		Foreground(p.WelcomeFg).
		Background(p.WelcomeBg).
		BorderForeground(p.WelcomeBorder)

	t.Typing = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Italic(true).
		PaddingLeft(1)

	t.InputContainer = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Accent).
		Padding(0, 1)
	t.InputDisabled = t.InputContainer.
		BorderForeground(p.Border)
	t.InputPrompt = lipgloss.NewStyle().
		Foreground(p.Accent).
		Bold(true)
	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(p.TextMuted)

	t.StatusBar = lipgloss.NewStyle().
		Foreground(p.TextMuted).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(p.TextMuted)
}
