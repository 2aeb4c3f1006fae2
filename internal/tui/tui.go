// Package tui is the interactive front end of a generation run: it asks
// for optional context, shows attempt progress and the final outcome.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/mirrorgen/internal/item"
	"github.com/abhisek/mirrorgen/internal/pipeline"
	"github.com/abhisek/mirrorgen/internal/ui/components"
	"github.com/abhisek/mirrorgen/internal/ui/layout"
	"github.com/abhisek/mirrorgen/internal/ui/theme"
)

const tickInterval = 100 * time.Millisecond

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// RunFunc runs the pipeline with the context text the user settled on,
// reporting progress to observe.
type RunFunc func(ctx context.Context, userContext string, observe pipeline.Observer) (*pipeline.Outcome, error)

// Options configures the interactive run.
type Options struct {
	ImageName   string
	MaxAttempts int

	// Context is used as is when set. Otherwise the user is asked for it.
	Context string

	Run RunFunc
}

type phase int

const (
	phaseContext phase = iota
	phaseRunning
	phaseDone
)

type (
	tickMsg     time.Time
	progressMsg pipeline.Progress
	doneMsg     struct {
		out *pipeline.Outcome
		err error
	}
)

// Model is the Bubble Tea model for one run.
type Model struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	events chan pipeline.Progress

	// running is set once the pipeline goroutine starts; runDone closes
	// when it returns.
	running atomic.Bool
	runDone chan struct{}

	phase       phase
	input       components.TextInput
	userContext string

	frame   int
	attempt int
	failed  int
	state   pipeline.State
	log     []string

	outcome *pipeline.Outcome
	err     error

	width  int
	height int
}

// New creates the model. Cancelling ctx, or pressing Ctrl+C, aborts the
// run.
func New(ctx context.Context, opts Options) *Model {
	ctx, cancel := context.WithCancel(ctx)
	m := &Model{
		opts:        opts,
		ctx:         ctx,
		cancel:      cancel,
		events:      make(chan pipeline.Progress),
		runDone:     make(chan struct{}),
		userContext: strings.TrimSpace(opts.Context),
		input:       components.NewTextInput("p. ej. usar un contexto de deportes (opcional)", 500, 60),
	}
	if m.userContext != "" {
		m.phase = phaseRunning
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	if m.phase == phaseContext {
		return m.input.Init()
	}
	return m.start()
}

func (m *Model) start() tea.Cmd {
	m.phase = phaseRunning
	m.state = pipeline.StateGenerating
	return tea.Batch(m.runCmd(), m.waitEvent(), tick())
}

func (m *Model) runCmd() tea.Cmd {
	userContext := m.userContext
	return func() tea.Msg {
		m.running.Store(true)
		defer close(m.runDone)
		out, err := m.opts.Run(m.ctx, userContext, m.observe)
		close(m.events)
		return doneMsg{out: out, err: err}
	}
}

// observe hands progress to the UI loop. It gives up once the run is
// cancelled so a closed UI never blocks the pipeline.
func (m *Model) observe(p pipeline.Progress) {
	select {
	case m.events <- p:
	case <-m.ctx.Done():
	}
}

func (m *Model) waitEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		p, ok := <-events
		if !ok {
			return nil
		}
		return progressMsg(p)
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tickMsg:
		if m.phase != phaseRunning {
			return m, nil
		}
		m.frame++
		return m, tick()

	case progressMsg:
		m.apply(pipeline.Progress(msg))
		return m, m.waitEvent()

	case doneMsg:
		m.phase = phaseDone
		m.outcome = msg.out
		m.err = msg.err
		return m, nil
	}

	if m.phase == phaseContext {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		m.cancel()
		return m, tea.Quit
	}

	switch m.phase {
	case phaseContext:
		switch key {
		case "enter":
			m.userContext = m.input.Value()
			return m, m.start()
		case "esc":
			m.userContext = ""
			return m, m.start()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case phaseDone:
		switch key {
		case "enter", "esc", "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *Model) apply(p pipeline.Progress) {
	m.attempt = p.Attempt
	m.state = p.State
	if !p.Done {
		return
	}

	line := fmt.Sprintf("Intento %d: ", p.Attempt)
	switch {
	case p.Err != nil:
		m.failed++
		kind := item.Kind(p.Err)
		if kind == "" {
			kind = "error"
		}
		line += theme.Failed.Render(kind) + " " + theme.Hint.Render(firstLine(p.Err.Error()))
	case p.Verdict != nil && p.Verdict.Approved():
		line += theme.Approved.Render("aprobado")
	case p.Verdict != nil:
		m.failed++
		line += theme.Rejected.Render("rechazado") + " " + theme.Hint.Render(firstLine(p.Verdict.Feedback))
	}
	m.log = append(m.log, line)
}

func firstLine(s string) string {
	s, _, _ = strings.Cut(strings.TrimSpace(s), "\n")
	if len([]rune(s)) > 90 {
		s = string([]rune(s)[:87]) + "..."
	}
	return s
}

func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render draws the whole screen; empty until the first window size.
func (m *Model) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	status := ""
	if m.attempt > 0 {
		status = fmt.Sprintf("%d/%d", m.attempt, m.opts.MaxAttempts)
	}
	frame := layout.Frame{Title: m.opts.ImageName, Status: status, Hints: m.hints()}
	return frame.Render(m.content(), m.width, m.height)
}

func (m *Model) hints() []layout.KeyHint {
	switch m.phase {
	case phaseContext:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Generar"},
			{Key: "Esc", Description: "Sin contexto"},
			{Key: "Ctrl+C", Description: "Salir"},
		}
	case phaseRunning:
		return []layout.KeyHint{{Key: "Ctrl+C", Description: "Cancelar"}}
	default:
		return []layout.KeyHint{{Key: "Enter", Description: "Salir"}}
	}
}

func (m *Model) content() string {
	pad := lipgloss.NewStyle().Padding(1, 2)

	switch m.phase {
	case phaseContext:
		return pad.Render(
			theme.Title.Render("Contexto adicional") + "\n\n" +
				theme.Body.Render("Indicaciones opcionales para el generador (tema, contexto, restricciones).") + "\n\n" +
				m.input.View(),
		)

	case phaseRunning:
		var b strings.Builder
		bar := components.AttemptBar{Used: m.attempt, Total: m.opts.MaxAttempts, Failed: m.failed}
		b.WriteString(bar.View())
		b.WriteString("\n\n")
		for _, l := range m.log {
			b.WriteString(l)
			b.WriteString("\n")
		}
		spinner := theme.Label.Render(spinnerFrames[m.frame%len(spinnerFrames)])
		fmt.Fprintf(&b, "%s %s", spinner, stateLabel(m.state))
		return pad.Render(b.String())

	default:
		if m.err != nil {
			return pad.Render(theme.Failed.Render("Error: ") + m.err.Error())
		}
		if m.outcome == nil {
			return pad.Render(theme.Hint.Render("Ejecución cancelada"))
		}
		return pad.Render(Summary(m.outcome, m.width-4))
	}
}

func stateLabel(s pipeline.State) string {
	switch s {
	case pipeline.StateAuditing:
		return "Auditando el ítem..."
	case pipeline.StateApproved:
		return "Ítem aprobado"
	case pipeline.StateExhausted:
		return "Intentos agotados"
	default:
		return "Generando pregunta espejo..."
	}
}

// Outcome returns the run result once the model is done. A nil outcome
// with a nil error means the user quit before the run finished.
func (m *Model) Outcome() (*pipeline.Outcome, error) {
	return m.outcome, m.err
}

// stop cancels the run and waits for the pipeline goroutine, so nothing
// still writes to the store once Run has returned.
func (m *Model) stop() {
	m.cancel()
	if m.running.Load() {
		<-m.runDone
	}
}

// Run starts the interactive program and blocks until the user exits.
func Run(ctx context.Context, opts Options) (*pipeline.Outcome, error) {
	m := New(ctx, opts)
	_, err := tea.NewProgram(m).Run()
	m.stop()
	if err != nil {
		return nil, fmt.Errorf("run terminal UI: %w", err)
	}

	out, err := m.Outcome()
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, context.Canceled
	}
	return out, nil
}
