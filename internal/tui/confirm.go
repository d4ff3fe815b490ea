package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModel asks a yes/no question. Anything but an explicit yes is a no.
type ConfirmModel struct {
	prompt    string
	confirmed bool
	done      bool
}

// NewConfirmModel returns a prompt for question.
func NewConfirmModel(question string) ConfirmModel {
	return ConfirmModel{prompt: question}
}

// Confirmed reports the answer once the model has quit.
func (m ConfirmModel) Confirmed() bool { return m.confirmed }

func (m ConfirmModel) Init() tea.Cmd { return nil }

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.confirmed = true
		m.done = true
		return m, tea.Quit
	case "n", "N", "enter", "esc", "q", "ctrl+c":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if m.done {
		return ""
	}
	return formStyle.Render(warningStyle.Render(m.prompt)+"\n"+helpStyle.Render("y = yes, n = no")) + "\n"
}

// Confirm runs the prompt on in/out and returns the answer.
func Confirm(ctx context.Context, in io.Reader, out io.Writer, question string) (bool, error) {
	p := tea.NewProgram(NewConfirmModel(question), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return false, err
	}
	return final.(ConfirmModel).Confirmed(), nil
}
