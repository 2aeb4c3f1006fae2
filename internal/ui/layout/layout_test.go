package layout

import (
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/stretchr/testify/assert"
)

func TestFrame_Render(t *testing.T) {
	f := Frame{
		Title:  "pregunta.png",
		Status: "2/3",
		Hints:  []KeyHint{{Key: "Enter", Description: "Salir"}},
	}
	out := f.Render("cuerpo", 80, 24)

	assert.Contains(t, out, "mirrorgen")
	assert.Contains(t, out, "pregunta.png")
	assert.Contains(t, out, "2/3")
	assert.Contains(t, out, "cuerpo")
	assert.Contains(t, out, "Salir")
	assert.Equal(t, 24, lipgloss.Height(out))
}

func TestFrame_TooSmall(t *testing.T) {
	out := Frame{Title: "x"}.Render("cuerpo", 40, 10)
	assert.Contains(t, out, "Terminal too small")
	assert.NotContains(t, out, "cuerpo")
}
