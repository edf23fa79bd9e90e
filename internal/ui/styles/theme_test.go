// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBackground(t *testing.T, dark bool) {
	t.Helper()
	orig := backgroundIsDark
	backgroundIsDark = func() bool { return dark }
	t.Cleanup(func() { backgroundIsDark = orig })
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"dark", ModeDark, false},
		{"LIGHT", ModeLight, false},
		{" auto ", ModeAuto, false},
		{"", ModeAuto, false},
		{"neon", ModeAuto, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect(t *testing.T) {
	withBackground(t, true)
	assert.Equal(t, ModeDark, Detect())
	assert.Equal(t, ModeDark, ModeAuto.Resolve())

	withBackground(t, false)
	assert.Equal(t, ModeLight, Detect())
	assert.Equal(t, ModeLight, ModeAuto.Resolve())
	assert.Equal(t, ModeDark, ModeDark.Resolve())
}

func TestNewTheme_Palettes(t *testing.T) {
	dark := NewTheme(ModeDark)
	require.NotNil(t, dark)
	assert.True(t, dark.IsDark())
	assert.Equal(t, DarkPalette, dark.Palette)
	assert.Equal(t, "dark", dark.GlamourStyle())

	light := NewTheme(ModeLight)
	assert.False(t, light.IsDark())
	assert.Equal(t, LightPalette, light.Palette)
	assert.Equal(t, "light", light.GlamourStyle())
}

func TestNewTheme_Auto(t *testing.T) {
	withBackground(t, false)
	th := NewTheme(ModeAuto)
	assert.Equal(t, ModeLight, th.Mode)
}

func TestToggle(t *testing.T) {
	th := NewTheme(ModeDark)
	th = th.Toggle()
	assert.Equal(t, ModeLight, th.Mode)
	th = th.Toggle()
	assert.Equal(t, ModeDark, th.Mode)
}

func TestThemeStylesRender(t *testing.T) {
	th := NewTheme(ModeDark)

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", th.Header},
		{"UserBubble", th.UserBubble},
		{"AssistantBubble", th.AssistantBubble},
		{"ErrorBubble", th.ErrorBubble},
		{"WelcomeBubble", th.WelcomeBubble},
		{"Typing", th.Typing},
		{"InputContainer", th.InputContainer},
		{"StatusBar", th.StatusBar},
	}
	for _, s := range styles {
		assert.Contains(t, s.style.Render("test"), "test", s.name)
	}
}

func TestErrorBubbleDiffersFromAssistant(t *testing.T) {
	for _, mode := range []Mode{ModeDark, ModeLight} {
		th := NewTheme(mode)
		assert.NotEqual(t, th.Palette.ErrorBorder, th.Palette.AssistantBorder, string(mode))
		assert.NotEqual(t, th.Palette.ErrorFg, th.Palette.AssistantFg, string(mode))
	}
}
