// Package layout draws the full-screen frame: a bordered title bar, the
// body and a bar of key hints.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mirrorgen/internal/ui/theme"
)

const (
	MinWidth  = 60
	MinHeight = 16
)

type KeyHint struct {
	Key         string
	Description string
}

// Frame describes the chrome around a screen's body.
type Frame struct {
	Title  string
	Status string
	Hints  []KeyHint
}

var bar = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(theme.Border).
	Padding(0, 1)

// Render fills a width x height screen. Terminals below the minimum size
// get a resize notice instead.
func (f Frame) Render(body string, width, height int) string {
	if width < MinWidth || height < MinHeight {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Body.Render(fmt.Sprintf(
				"Terminal too small (%dx%d)\nResize to at least %dx%d",
				width, height, MinWidth, MinHeight)))
	}

	header := f.header(width)
	footer := f.footer(width)
	bodyHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.NewStyle().Width(width).Height(bodyHeight).MaxHeight(bodyHeight).Render(body),
		footer,
	)
}

// header puts the app name and title on the left and the status on the
// right edge.
func (f Frame) header(width int) string {
	left := theme.Title.Render("mirrorgen")
	if f.Title != "" {
		left += theme.Hint.Render("  " + f.Title)
	}
	right := lipgloss.NewStyle().Foreground(theme.Accent).Render(f.Status)

	inner := width - bar.GetHorizontalFrameSize()
	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return bar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

func (f Frame) footer(width int) string {
	key := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	parts := make([]string, len(f.Hints))
	for i, h := range f.Hints {
		parts[i] = key.Render(h.Key) + " " + theme.Hint.UnsetItalic().Render(h.Description)
	}
	return bar.Width(width).Render(strings.Join(parts, "   "))
}
