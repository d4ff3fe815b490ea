package tui

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/flarebyte/shiftlog/internal/store"
)

// ProfileModel edits the operator name and number.
type ProfileModel struct {
	inputs    []textinput.Model
	focused   int
	submitted bool
	cancelled bool
	err       string
}

// NewProfileModel starts the form prefilled with current.
func NewProfileModel(current store.Profile) ProfileModel {
	name := textinput.New()
	name.Placeholder = "שם העובד"
	name.SetValue(current.Name)
	name.Focus()

	number := textinput.New()
	number.Placeholder = "מספר עובד"
	number.SetValue(current.Number)

	return ProfileModel{inputs: []textinput.Model{name, number}}
}

// Profile returns the edited values.
func (m ProfileModel) Profile() store.Profile {
	return store.Profile{
		Name:   strings.TrimSpace(m.inputs[0].Value()),
		Number: strings.TrimSpace(m.inputs[1].Value()),
	}
}

// Submitted is true when the operator saved rather than cancelled.
func (m ProfileModel) Submitted() bool { return m.submitted }

func (m ProfileModel) Init() tea.Cmd { return textinput.Blink }

func (m ProfileModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "tab", "down":
			return m.focus((m.focused + 1) % len(m.inputs)), nil
		case "shift+tab", "up":
			return m.focus((m.focused + len(m.inputs) - 1) % len(m.inputs)), nil
		case "enter":
			if m.focused < len(m.inputs)-1 {
				return m.focus(m.focused + 1), nil
			}
			if !m.Profile().Complete() {
				m.err = "both fields are required"
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m ProfileModel) focus(i int) ProfileModel {
	m.inputs[m.focused].Blur()
	m.focused = i
	m.inputs[m.focused].Focus()
	return m
}

func (m ProfileModel) View() string {
	if m.submitted || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Operator profile") + "\n")
	b.WriteString(labelStyle.Render("Name") + "\n" + m.inputs[0].View() + "\n\n")
	b.WriteString(labelStyle.Render("Number") + "\n" + m.inputs[1].View())
	if m.err != "" {
		b.WriteString("\n" + errorStyle.Render(m.err))
	}
	b.WriteString(helpStyle.Render("tab: next field • enter: save • esc: cancel"))
	return formStyle.Render(b.String()) + "\n"
}

// EditProfile runs the form and reports whether the operator saved.
func EditProfile(ctx context.Context, in io.Reader, out io.Writer, current store.Profile) (store.Profile, bool, error) {
	p := tea.NewProgram(NewProfileModel(current), tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return store.Profile{}, false, err
	}
	m := final.(ProfileModel)
	return m.Profile(), m.Submitted(), nil
}
