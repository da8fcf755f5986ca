package cli

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"
)

type doneMsg struct{ err error }

type progressModel struct {
	spinner spinner.Model
	label   string
	done    bool
	err     error
}

func newProgressModel(label string) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return progressModel{spinner: s, label: label}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + m.label + "\n"
}

// Progress runs fn. When out is a terminal a spinner labelled label is shown
// until fn returns.
func Progress(ctx context.Context, out *os.File, label string, fn func(context.Context) error) error {
	if !term.IsTerminal(int(out.Fd())) {
		return fn(ctx)
	}

	p := tea.NewProgram(newProgressModel(label),
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)
	res := make(chan error, 1)
	go func() {
		err := fn(ctx)
		res <- err
		p.Send(doneMsg{err: err})
	}()

	_, runErr := p.Run()
	err := <-res
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return errors.Join(err, runErr)
	}
	return err
}
