package reminderlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
)

// upcomingLimit caps the upcoming section.
const upcomingLimit = 20

// Source is the part of reminder.Scheduler the panel reads from.
type Source interface {
	Upcoming(ctx context.Context, limit int) ([]model.Task, error)
	PendingCount(ctx context.Context) (int, error)
	Shown(taskID string) bool
}

// RemindersLoadedMsg carries a refreshed upcoming list and pending count.
type RemindersLoadedMsg struct {
	Upcoming []model.Task
	Pending  int

	// StillShown lists the IDs of due entries the scheduler still holds.
	StillShown map[string]bool
	Err        error
}

// Model is the reminders panel: reminders that fired in this session
// ("due now") above the reminders of the next 24 hours.
type Model struct {
	source   Source
	keys     *keys.KeyMap
	due      []model.Task
	upcoming []model.Task
	pending  int
	cursor   int
	err      error
	width    int
	height   int
}

// New creates a new reminders panel.
func New(s Source, k *keys.KeyMap, width, height int) Model {
	return Model{
		source: s,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init returns a command that loads the panel.
func (m Model) Init() tea.Cmd {
	return m.LoadReminders()
}

// Update handles messages for the reminders panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case RemindersLoadedMsg:
		m.err = msg.Err
		if msg.Err != nil {
			return m, nil
		}
		m.upcoming = msg.Upcoming
		m.pending = msg.Pending

		var kept []model.Task
		for _, t := range m.due {
			if msg.StillShown[t.ID] {
				kept = append(kept, t)
			}
		}
		m.due = kept
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < m.total()-1 {
				m.cursor++
			}
		}
	}
	return m, nil
}

// LoadReminders returns a tea.Cmd that reloads upcoming reminders and
// the pending count.
func (m Model) LoadReminders() tea.Cmd {
	src := m.source
	ids := make([]string, len(m.due))
	for i, t := range m.due {
		ids[i] = t.ID
	}

	return func() tea.Msg {
		ctx := context.Background()
		upcoming, err := src.Upcoming(ctx, upcomingLimit)
		if err != nil {
			return RemindersLoadedMsg{Err: err}
		}
		pending, err := src.PendingCount(ctx)
		if err != nil {
			return RemindersLoadedMsg{Err: err}
		}
		shown := make(map[string]bool, len(ids))
		for _, id := range ids {
			shown[id] = src.Shown(id)
		}
		return RemindersLoadedMsg{Upcoming: upcoming, Pending: pending, StillShown: shown}
	}
}

// AddDue records a reminder that has just been shown and moves the
// cursor onto it.
func (m *Model) AddDue(task model.Task) {
	for i, t := range m.due {
		if t.ID == task.ID {
			m.cursor = i
			return
		}
	}
	m.due = append([]model.Task{task}, m.due...)
	m.cursor = 0
}

// Remove drops a task from the due section after it was snoozed or
// dismissed.
func (m *Model) Remove(taskID string) {
	var kept []model.Task
	for _, t := range m.due {
		if t.ID != taskID {
			kept = append(kept, t)
		}
	}
	m.due = kept
	m.clampCursor()
}

// SetPending updates the pending count from a scheduler event.
func (m *Model) SetPending(n int) {
	m.pending = n
}

// Pending returns the last known pending count.
func (m Model) Pending() int {
	return m.pending
}

// Selected returns the task under the cursor.
func (m Model) Selected() (model.Task, bool) {
	switch {
	case m.cursor < len(m.due):
		return m.due[m.cursor], true
	case m.cursor < m.total():
		return m.upcoming[m.cursor-len(m.due)], true
	}
	return model.Task{}, false
}

func (m Model) total() int {
	return len(m.due) + len(m.upcoming)
}

func (m *Model) clampCursor() {
	if m.cursor >= m.total() {
		m.cursor = m.total() - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// View renders the panel.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(theme.HeaderStyle.Render(fmt.Sprintf("Reminders · %d pending", m.pending)))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(theme.ErrorStyle.Render(m.err.Error()))
		b.WriteString("\n\n")
	}

	row := 0
	if len(m.due) > 0 {
		b.WriteString(theme.SectionStyle.Render("Due now"))
		b.WriteString("\n")
		for _, t := range m.due {
			b.WriteString(m.renderRow(t, row, true))
			b.WriteString("\n")
			row++
		}
		b.WriteString("\n")
	}

	b.WriteString(theme.SectionStyle.Render("Next 24 hours"))
	b.WriteString("\n")
	if len(m.upcoming) == 0 {
		b.WriteString(theme.ListItemStyle.Render(theme.DimmedStyle.Render("nothing scheduled")))
	}
	for _, t := range m.upcoming {
		b.WriteString(m.renderRow(t, row, false))
		b.WriteString("\n")
		row++
	}

	return lipgloss.NewStyle().Width(m.width).MaxHeight(m.height).Render(b.String())
}

func (m Model) renderRow(t model.Task, row int, due bool) string {
	at := ""
	if t.ReminderAt != nil {
		at = t.ReminderAt.Local().Format("15:04")
	}

	clock := theme.DimmedStyle.Render(at)
	if due {
		clock = theme.OverdueStyle.Render(at)
	}
	line := clock + " " + t.Title

	if row == m.cursor {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
