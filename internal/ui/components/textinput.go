package components

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mirrorgen/internal/ui/theme"
)

// TextInput is a focused single-line field. With a limit set, the view
// shows how many characters are left.
type TextInput struct {
	model textinput.Model
	limit int
}

func NewTextInput(placeholder string, limit, width int) TextInput {
	m := textinput.New()
	m.Placeholder = placeholder
	m.CharLimit = limit
	if width > 0 {
		m.SetWidth(width)
	}
	m.Focus()
	return TextInput{model: m, limit: limit}
}

func (t TextInput) Init() tea.Cmd { return t.model.Focus() }

func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	var cmd tea.Cmd
	t.model, cmd = t.model.Update(msg)
	return t, cmd
}

func (t TextInput) View() string {
	if t.limit <= 0 {
		return t.model.View()
	}
	left := t.limit - utf8.RuneCountInString(t.model.Value())
	return t.model.View() + "\n" + theme.Hint.Render(fmt.Sprintf("%d caracteres disponibles", left))
}

// Value is the entered text without surrounding whitespace.
func (t TextInput) Value() string { return strings.TrimSpace(t.model.Value()) }
