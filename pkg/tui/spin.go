package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type doneMsg struct{ err error }

type spinModel struct {
	spinner spinner.Model
	label   string
	work    func() error
	err     error
	done    bool
}

func (m spinModel) Init() tea.Cmd {
	work := m.work
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return doneMsg{err: work()}
	})
}

func (m spinModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done, m.err = true, msg.err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("\n   %s %s\n", m.spinner.View(), m.label)
}

// Spin shows a spinner labelled label while work runs.
func Spin[T any](label string, work func() (T, error)) (T, error) {
	var out T
	var workErr error

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = special

	m := spinModel{
		spinner: s,
		label:   label,
		work: func() error {
			out, workErr = work()
			return workErr
		},
	}
	if _, err := tea.NewProgram(m).Run(); err != nil {
		return out, err
	}
	return out, workErr
}
