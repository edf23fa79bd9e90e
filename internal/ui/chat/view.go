// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatdesk/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// renderChat lays out header, transcript, input and status bar.
func (m Model) renderChat() string {
	if !m.ready {
		return "Loading..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderInput(),
		m.renderStatusBar(),
	)
}

func (m Model) renderHeader() string {
	t := m.theme
	title := t.HeaderTitle.Render("chatdesk")

	var sub []string
	if m.providerName != "" {
		sub = append(sub, m.providerName)
	}
	sub = append(sub, util.SingleLine(m.conv.Title(m.log.sessionID)))
	subtitle := strings.Join(sub, " | ")

	room := m.width - lipgloss.Width(title) - 5
	if room > 0 {
		title += "  " + t.HeaderSubtitle.Render(util.TruncateWidth(subtitle, room))
	}
	return t.Header.Width(max(m.width, 1)).Render(title)
}

func (m Model) renderInput() string {
	style := m.theme.InputContainer
	if m.Busy() {
		style = m.theme.InputDisabled
	}
	return style.Width(max(m.width-2, 1)).Render(m.input.View())
}

func (m Model) renderStatusBar() string {
	t := m.theme
	line := helpLine(m.keys.ShortHelp(), t.ShortcutKey.Render, t.ShortcutDesc.Render)
	return t.StatusBar.MaxWidth(max(m.width, 1)).Render(line)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// bubbleWidth is the width of message bubbles inside their borders.
func (m Model) bubbleWidth() int {
	w := m.width*4/5 - 2
	if w < 20 {
		w = max(m.width-2, 1)
	}
	return w
}

// renderTranscript draws every entry plus the typing indicator.
func (m Model) renderTranscript() string {
	var b strings.Builder
	for i := range m.log.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderEntry(&m.log.entries[i]))
		b.WriteString("\n")
	}
	if m.typing.Visible() {
		b.WriteString("\n")
		b.WriteString(m.theme.Typing.Render(m.typing.Label()))
	}
	return b.String()
}

func (m Model) renderEntry(e *entry) string {
	t := m.theme
	width := m.bubbleWidth()
	// Horizontal padding takes two columns.
	inner := max(width-2, 1)

	switch e.kind {
	case entryWelcome:
		return t.WelcomeBubble.Width(width).Render(e.text)

	case entryUser:
		label := t.UserLabel.Render("You")
		bubble := t.UserBubble.Width(width).Render(e.text)
		block := lipgloss.JoinVertical(lipgloss.Right, label, bubble)
		return lipgloss.PlaceHorizontal(max(m.width, lipgloss.Width(block)), lipgloss.Right, block)

	case entryError:
		label := t.ErrorLabel.Render("Error")
		return lipgloss.JoinVertical(lipgloss.Left, label, t.ErrorBubble.Width(width).Render(e.text))

	case entryAssistant:
		label := t.AssistantLabel.Render("Bot")
		body := e.text
		if m.renderMarkdown {
			key := markdownKey(t.GlamourStyle(), inner)
			if e.renderedKey != key {
				e.rendered = m.md.render(e.text, t.GlamourStyle(), inner)
				e.renderedKey = key
			}
			body = e.rendered
		}
		return lipgloss.JoinVertical(lipgloss.Left, label, t.AssistantBubble.Width(width).Render(body))

	default:
		label := t.AssistantLabel.Render("Bot")
		return lipgloss.JoinVertical(lipgloss.Left, label, t.AssistantBubble.Width(width).Render(e.text))
	}
}
