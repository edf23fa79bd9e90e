// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdown renders assistant replies with glamour. The renderer is rebuilt
// when the style or wrap width changes.
type markdown struct {
	style    string
	width    int
	renderer *glamour.TermRenderer
}

func markdownKey(style string, width int) string {
	return fmt.Sprintf("%s/%d", style, width)
}

// render returns content as styled terminal text, or content unchanged if
// the renderer cannot be built or fails.
func (md *markdown) render(content, style string, width int) string {
	if width < 10 {
		width = 10
	}
	if md.renderer == nil || md.style != style || md.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			md.renderer = nil
			return content
		}
		md.renderer = r
		md.style = style
		md.width = width
	}

	out, err := md.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}
