package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mirrorgen/internal/ui/theme"
)

// AttemptBar shows how much of the attempt budget a run has used, one
// segment per attempt.
type AttemptBar struct {
	Used  int
	Total int
	// Failed marks the attempts that did not end in approval.
	Failed int
}

// View renders the bar.
func (b AttemptBar) View() string {
	if b.Total <= 0 {
		return ""
	}

	segments := make([]string, 0, b.Total)
	for i := 1; i <= b.Total; i++ {
		style := lipgloss.NewStyle().Background(theme.Border)
		switch {
		case i <= b.Failed:
			style = lipgloss.NewStyle().Background(theme.Accent)
		case i <= b.Used:
			style = lipgloss.NewStyle().Background(theme.Secondary)
		}
		segments = append(segments, style.Render(strings.Repeat(" ", 6)))
	}

	label := lipgloss.NewStyle().
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("  intento %d de %d", b.Used, b.Total))

	return strings.Join(segments, " ") + label
}
