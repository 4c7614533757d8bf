package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mpataki/tada/internal/models"
)

var ErrCancelled = errors.New("profile entry cancelled")

const (
	fieldName = iota
	fieldRegNo
	fieldSlot
	fieldClassNo
	fieldFaculty
)

var fieldLabels = []string{"Name", "Reg. No", "Lab Slot", "Class No", "Faculty"}

// ProfileForm collects the student details printed on every report.
type ProfileForm struct {
	inputs    []textinput.Model
	focus     int
	submitted bool
	cancelled bool
	err       string
}

func NewProfileForm(initial models.StudentProfile) *ProfileForm {
	values := []string{initial.Name, initial.RegNo, initial.Slot, initial.ClassNo, initial.Faculty}
	placeholders := []string{"Your full name", "e.g. 24BCE5561", "e.g. L31+L32", "e.g. CH2025260101", "Faculty name"}

	f := &ProfileForm{inputs: make([]textinput.Model, len(fieldLabels))}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		in.CharLimit = 64
		in.SetValue(values[i])
		f.inputs[i] = in
	}
	f.inputs[0].Focus()
	return f
}

func (f *ProfileForm) Init() tea.Cmd {
	return textinput.Blink
}

func (f *ProfileForm) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			f.cancelled = true
			return f, tea.Quit

		case "tab", "down":
			return f, f.setFocus(f.focus + 1)

		case "shift+tab", "up":
			return f, f.setFocus(f.focus - 1)

		case "enter":
			if f.focus < len(f.inputs)-1 {
				return f, f.setFocus(f.focus + 1)
			}
			if missing := f.missingField(); missing >= 0 {
				f.err = fieldLabels[missing] + " is required"
				return f, f.setFocus(missing)
			}
			f.submitted = true
			return f, tea.Quit
		}
	}

	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f *ProfileForm) setFocus(i int) tea.Cmd {
	n := len(f.inputs)
	i = (i%n + n) % n

	f.inputs[f.focus].Blur()
	f.focus = i
	return f.inputs[f.focus].Focus()
}

func (f *ProfileForm) missingField() int {
	for _, i := range []int{fieldName, fieldRegNo} {
		if strings.TrimSpace(f.inputs[i].Value()) == "" {
			return i
		}
	}
	return -1
}

func (f *ProfileForm) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Student Profile") + "\n")
	b.WriteString(dimStyle.Render("Printed on every report. Saved for later runs.") + "\n\n")

	for i, in := range f.inputs {
		label := labelStyle.Render(padRight(fieldLabels[i], 10))
		if i == f.focus {
			label = selectedStyle.Render(padRight(fieldLabels[i], 10))
		}
		b.WriteString(label + " " + in.View() + "\n")
	}

	if f.err != "" {
		b.WriteString("\n" + statusFailed.Render(f.err) + "\n")
	}

	b.WriteString("\n" + helpStyle.Render("[tab] next  [shift+tab] back  [enter] save  [esc] cancel"))
	return b.String()
}

// Profile returns the entered values with surrounding space trimmed.
func (f *ProfileForm) Profile() models.StudentProfile {
	value := func(i int) string { return strings.TrimSpace(f.inputs[i].Value()) }
	return models.StudentProfile{
		Name:    value(fieldName),
		RegNo:   strings.ToUpper(value(fieldRegNo)),
		Slot:    value(fieldSlot),
		ClassNo: value(fieldClassNo),
		Faculty: value(fieldFaculty),
	}
}

// RunProfileForm shows the form until it is saved or cancelled.
func RunProfileForm(initial models.StudentProfile, opts ...tea.ProgramOption) (*models.StudentProfile, error) {
	form := NewProfileForm(initial)

	final, err := tea.NewProgram(form, opts...).Run()
	if err != nil {
		return nil, err
	}

	f := final.(*ProfileForm)
	if f.cancelled || !f.submitted {
		return nil, ErrCancelled
	}
	p := f.Profile()
	return &p, nil
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
