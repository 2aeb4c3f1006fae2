package tui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/pipeline"
	"github.com/abhisek/mirrorgen/internal/ui/theme"
)

// Summary renders a finished run for the terminal. It is shared by the
// interactive view and the plain CLI output.
func Summary(out *pipeline.Outcome, width int) string {
	var b strings.Builder

	if out.Approved() {
		b.WriteString(theme.Approved.Render(fmt.Sprintf("✓ Ítem aprobado en el intento %d", len(out.Attempts))))
	} else {
		b.WriteString(theme.Failed.Render(fmt.Sprintf("✗ Sin ítem aprobado tras %d intentos", len(out.Attempts))))
	}
	b.WriteString("\n\n")

	for _, a := range out.Attempts {
		b.WriteString(AttemptLine(a))
		b.WriteString("\n")
	}

	if out.Approved() {
		b.WriteString("\n")
		b.WriteString(renderItem(out.Item, width))
		return b.String()
	}

	if out.LastFeedback != "" {
		b.WriteString("\n")
		b.WriteString(theme.Label.Render("Última retroalimentación"))
		b.WriteString("\n")
		b.WriteString(wrap(out.LastFeedback, width))
		b.WriteString("\n")
	}
	if out.LastErr != nil {
		b.WriteString("\n")
		b.WriteString(theme.Label.Render("Último error"))
		b.WriteString("\n")
		b.WriteString(wrap(out.LastErr.Error(), width))
		b.WriteString("\n")
	}
	return b.String()
}

// AttemptLine describes how one attempt ended.
func AttemptLine(a pipeline.Attempt) string {
	prefix := fmt.Sprintf("Intento %d (clave %s): ", a.Number, a.ForcedKey)
	switch a.Result() {
	case pipeline.ResultApproved:
		return prefix + theme.Approved.Render("aprobado")
	case pipeline.ResultRejected:
		return prefix + theme.Rejected.Render(fmt.Sprintf("rechazado, %d criterios sin cumplir", len(a.Verdict.Failed())))
	case pipeline.ResultAuditFailed:
		return prefix + theme.Failed.Render("falló la auditoría") + " " + theme.Hint.Render(errKind(a.Err))
	default:
		return prefix + theme.Failed.Render("falló la generación") + " " + theme.Hint.Render(errKind(a.Err))
	}
}

func errKind(err error) string {
	if k := item.Kind(err); k != "" {
		return "(" + k + ")"
	}
	return ""
}

func renderItem(c *item.CandidateItem, width int) string {
	var b strings.Builder
	b.WriteString(theme.Label.Render("Enunciado"))
	b.WriteString("\n")
	b.WriteString(wrap(c.Stem, width))
	b.WriteString("\n\n")
	for _, l := range item.Letters {
		line := fmt.Sprintf("%s) %s", l, c.Options[l].Text)
		if l == c.Key {
			line = theme.Approved.Render(line)
		}
		b.WriteString(wrap(line, width))
		b.WriteString("\n")
	}
	if n := len(c.Charts()); n > 0 {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Render(fmt.Sprintf("%d gráfico(s) especificado(s)", n)))
		b.WriteString("\n")
	}
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}

func wrap(s string, width int) string {
	if width <= 8 {
		return s
	}
	return lipgloss.NewStyle().Width(width - 4).Render(s)
}
