package reminderform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
)

// SubmitMsg is dispatched when the user confirms the form.
type SubmitMsg struct {
	TaskID  string
	DueDate time.Time
	DueTime string
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	dueDate string
	dueTime string
}

// Model is the "remind me before it is due" form. The reminder is
// derived from the entered deadline minus the configured lead time.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	taskID string
	title  string
	lead   int
	width  int
	height int
}

// New creates a new reminder form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form for task, prefilled with its due date and
// time. lead is the configured lead time in minutes, shown as a hint.
func (m *Model) Start(task model.Task, lead int) tea.Cmd {
	m.taskID = task.ID
	m.title = task.Title
	m.lead = lead
	m.fb.dueDate = ""
	if task.DueDate != nil {
		m.fb.dueDate = model.FormatDate(*task.DueDate)
	}
	m.fb.dueTime = task.DueTime
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m, m.handleSubmit()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render("Remind me: " + m.title)
	hint := theme.HelpStyle.Render(
		fmt.Sprintf("The reminder fires %d minutes before the deadline (09:00 when no time is set).", m.lead))

	content := lipgloss.JoinVertical(lipgloss.Left, title, hint, "", m.form.View())
	return lipgloss.NewStyle().Padding(1, 2).Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Due date").
				Placeholder("YYYY-MM-DD").
				Value(&m.fb.dueDate).
				Validate(validateDate),
			huh.NewInput().
				Title("Due time").
				Placeholder("HH:MM (optional)").
				Value(&m.fb.dueTime).
				Validate(validateOptionalClock),
		),
	).WithWidth(m.formWidth())
}

func (m Model) handleSubmit() tea.Cmd {
	due, err := model.ParseDate(m.fb.dueDate)
	if err != nil {
		return func() tea.Msg { return CancelMsg{} }
	}
	submit := SubmitMsg{
		TaskID:  m.taskID,
		DueDate: due,
		DueTime: strings.TrimSpace(m.fb.dueTime),
	}
	return func() tea.Msg { return submit }
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 80)
}

func validateDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("due date is required")
	}
	_, err := model.ParseDate(s)
	return err
}

func validateOptionalClock(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	_, _, err := model.ParseClock(s)
	return err
}
