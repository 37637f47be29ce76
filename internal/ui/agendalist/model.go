package agendalist

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/agenda"
	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
)

// Planner is the part of agenda.Planner the view reads from.
type Planner interface {
	TasksInRange(ctx context.Context, start, end time.Time) ([]model.Occurrence, error)
	AtRiskTasks(ctx context.Context) ([]model.RiskAnnotation, error)
}

// AgendaLoadedMsg is sent when the agenda has been materialized.
type AgendaLoadedMsg struct {
	Occurrences []model.Occurrence
	Risks       []model.RiskAnnotation
	Err         error
}

// Model is the agenda view: today plus the following days, one line per
// occurrence, with risk badges.
type Model struct {
	list    list.Model
	planner Planner
	keys    *keys.KeyMap
	days    func() int
	now     func() time.Time

	// pendingSelect is a task ID to jump to once it appears in the list.
	pendingSelect string

	atRisk int
	err    error
	width  int
	height int
}

// New creates a new agenda view. days returns the number of days to show,
// today included.
func New(p Planner, k *keys.KeyMap, days func() int, now func() time.Time, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Agenda"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	if now == nil {
		now = time.Now
	}
	return Model{
		list:    l,
		planner: p,
		keys:    k,
		days:    days,
		now:     now,
		width:   width,
		height:  height,
	}
}

// Init returns a command that loads the agenda.
func (m Model) Init() tea.Cmd {
	return m.LoadAgenda()
}

// Update handles messages for the agenda view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case AgendaLoadedMsg:
		m.err = msg.Err
		m.atRisk = len(msg.Risks)

		risks := agenda.RiskIndex(msg.Risks)
		items := make([]list.Item, len(msg.Occurrences))
		for i, occ := range msg.Occurrences {
			it := OccurrenceItem{Occurrence: occ}
			if ann, ok := risks[occ.ID]; ok &&
				model.FormatDate(ann.Deadline) == model.FormatDate(occ.Date()) {
				it.Risk = &ann
			}
			items[i] = it
		}
		cmd := m.list.SetItems(items)
		if m.pendingSelect != "" {
			m.SelectTask(m.pendingSelect)
		}
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the agenda.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when nothing is scheduled.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.err != nil {
		return style.Foreground(theme.ColorRed).Render("Could not load the agenda.\n" + m.err.Error())
	}
	return style.Render("Nothing due in the coming days.\n\nAdd one with: planner task add")
}

// LoadAgenda returns a tea.Cmd that materializes the agenda window and
// classifies at-risk tasks.
func (m Model) LoadAgenda() tea.Cmd {
	p := m.planner
	today := model.DateOf(m.now())
	days := 7
	if m.days != nil && m.days() > 0 {
		days = m.days()
	}
	end := today.AddDate(0, 0, days-1)

	return func() tea.Msg {
		ctx := context.Background()
		occ, err := p.TasksInRange(ctx, today, end)
		if err != nil {
			return AgendaLoadedMsg{Err: err}
		}
		risks, err := p.AtRiskTasks(ctx)
		return AgendaLoadedMsg{Occurrences: occ, Risks: risks, Err: err}
	}
}

// SelectTask moves the selection to the first occurrence of taskID. When
// the task is not listed yet, the jump is retried after the next load.
func (m *Model) SelectTask(taskID string) bool {
	for i, item := range m.list.Items() {
		if it, ok := item.(OccurrenceItem); ok && it.Occurrence.ID == taskID {
			m.list.Select(i)
			m.pendingSelect = ""
			return true
		}
	}
	m.pendingSelect = taskID
	return false
}

// Selected returns the occurrence under the cursor.
func (m Model) Selected() (model.Occurrence, bool) {
	it, ok := m.list.SelectedItem().(OccurrenceItem)
	if !ok {
		return model.Occurrence{}, false
	}
	return it.Occurrence, true
}

// SelectedKey returns the occurrence key under the cursor, or "".
func (m Model) SelectedKey() string {
	occ, ok := m.Selected()
	if !ok {
		return ""
	}
	return occ.Key()
}

// AtRiskCount is the number of at-risk tasks found by the last load.
func (m Model) AtRiskCount() int {
	return m.atRisk
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
