package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/planner/internal/agenda"
	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/reminder"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/internal/theme"
	"github.com/nhle/planner/internal/ui"
	"github.com/nhle/planner/internal/ui/agendalist"
	helpview "github.com/nhle/planner/internal/ui/help"
	"github.com/nhle/planner/internal/ui/reminderform"
	"github.com/nhle/planner/internal/ui/reminderlist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewPanes ViewState = iota
	ViewHelp
	ViewReminderForm
)

// Pane identifies which side of the split view receives keys.
type Pane int

const (
	PaneAgenda Pane = iota
	PaneReminders
)

// Deps are the collaborators the terminal UI drives.
type Deps struct {
	Store     store.TaskStore
	Planner   *agenda.Planner
	Scheduler *reminder.Scheduler
	Settings  *model.SettingsHolder

	// Events is a subscription to the scheduler's broadcaster. The UI
	// stops listening when the channel is closed.
	Events <-chan reminder.Event

	Now func() time.Time
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and the reminder event stream.
type Model struct {
	currentView ViewState
	focus       Pane
	layout      ui.Layout
	deps        Deps
	keys        *keys.KeyMap
	agendaView  agendalist.Model
	reminders   reminderlist.Model
	helpView    helpview.Model
	formView    reminderform.Model
	ready       bool

	// status is a transient message shown in the status bar.
	status    string
	statusErr bool
}

// New creates the root application model.
func New(d Deps) Model {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Settings == nil {
		d.Settings = model.NewSettingsHolder(nil)
	}
	k := keys.DefaultKeyMap()
	settings := d.Settings

	return Model{
		currentView: ViewPanes,
		focus:       PaneAgenda,
		deps:        d,
		keys:        k,
		agendaView: agendalist.New(d.Planner, k,
			func() int { return settings.Config().Planner.AgendaDays }, d.Now, 80, 24),
		reminders: reminderlist.New(d.Scheduler, k, 40, 24),
		helpView:  helpview.New(k, 80, 24),
		formView:  reminderform.New(80, 24),
	}
}

// Init loads both panes and starts listening for reminder events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.agendaView.Init(),
		m.reminders.Init(),
		waitForEvent(m.deps.Events),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		mainWidth, sideWidth := m.layout.PaneWidths()
		m.agendaView.SetSize(mainWidth, m.layout.PaneHeight())
		m.reminders.SetSize(sideWidth, m.layout.PaneHeight())
		m.helpView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		m.formView.SetSize(m.layout.ContentWidth(), m.layout.ContentHeight())
		if m.currentView == ViewReminderForm {
			return m.updateActiveView(msg)
		}
		return m, nil

	case eventMsg:
		cmd := m.handleEvent(reminder.Event(msg))
		return m, tea.Batch(cmd, waitForEvent(m.deps.Events))

	case eventsClosedMsg:
		return m, nil

	case agendalist.AgendaLoadedMsg:
		if msg.Err != nil {
			m.setError(fmt.Errorf("loading agenda: %w", msg.Err))
		}
		var cmd tea.Cmd
		m.agendaView, cmd = m.agendaView.Update(msg)
		return m, cmd

	case reminderlist.RemindersLoadedMsg:
		if msg.Err != nil {
			m.setError(fmt.Errorf("loading reminders: %w", msg.Err))
		}
		var cmd tea.Cmd
		m.reminders, cmd = m.reminders.Update(msg)
		return m, cmd

	case actionDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.setStatus(msg.summary())
		if msg.action == actionSnooze || msg.action == actionDismiss {
			m.reminders.Remove(msg.taskID)
		}
		return m, m.reload()

	case reminderform.SubmitMsg:
		m.currentView = ViewPanes
		return m, m.setReminder(msg)

	case reminderform.CancelMsg:
		m.currentView = ViewPanes
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.currentView == ViewReminderForm {
			return m.updateActiveView(msg)
		}
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

// handleKey processes keys outside the form.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = ViewPanes
		} else {
			m.currentView = ViewHelp
		}
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.currentView = ViewPanes
		m.status = ""
		return m, nil
	}

	if m.currentView != ViewPanes {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.SwitchPane):
		if m.focus == PaneAgenda {
			m.focus = PaneReminders
		} else {
			m.focus = PaneAgenda
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.setStatus("refreshing…")
		return m, tea.Batch(m.reload(), m.checkNow())

	case key.Matches(msg, m.keys.Snooze):
		if task, ok := m.selectedTask(); ok {
			return m, m.snooze(task)
		}
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		if task, ok := m.selectedTask(); ok {
			return m, m.dismiss(task)
		}
		return m, nil

	case key.Matches(msg, m.keys.Complete):
		if task, ok := m.selectedTask(); ok {
			return m, m.complete(task)
		}
		return m, nil

	case key.Matches(msg, m.keys.SetReminder):
		task, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		m.currentView = ViewReminderForm
		lead := m.deps.Settings.Notifications().DefaultLeadMinutes
		return m, m.formView.Start(task, lead)

	case key.Matches(msg, m.keys.Open):
		if m.focus == PaneReminders {
			if task, ok := m.reminders.Selected(); ok {
				return m, m.open(task)
			}
		}
		return m, nil
	}

	return m.updateActiveView(msg)
}

// handleEvent reacts to a scheduler event. A shown or opened reminder
// jumps the agenda selection to its task.
func (m *Model) handleEvent(ev reminder.Event) tea.Cmd {
	switch ev.Kind {
	case reminder.EventPending:
		m.reminders.SetPending(ev.Count)
		return nil

	case reminder.EventShown:
		if ev.Task == nil {
			return nil
		}
		m.reminders.AddDue(*ev.Task)
		m.agendaView.SelectTask(ev.Task.ID)
		m.setStatus("⏰ " + ev.Task.Title)
		return m.reminders.LoadReminders()

	case reminder.EventOpened:
		if ev.Task == nil {
			return nil
		}
		m.currentView = ViewPanes
		m.focus = PaneAgenda
		m.agendaView.SelectTask(ev.Task.ID)
		m.setStatus("opened " + ev.Task.Title)
	}
	return nil
}

// selectedTask returns the task under the cursor of the focused pane.
// Agenda selections resolve to the source task; all writes use its ID.
func (m Model) selectedTask() (model.Task, bool) {
	if m.focus == PaneReminders {
		return m.reminders.Selected()
	}
	occ, ok := m.agendaView.Selected()
	if !ok {
		return model.Task{}, false
	}
	return occ.Task, true
}

// reload refreshes both panes.
func (m Model) reload() tea.Cmd {
	return tea.Batch(m.agendaView.LoadAgenda(), m.reminders.LoadReminders())
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewPanes:
		if m.focus == PaneReminders {
			m.reminders, cmd = m.reminders.Update(msg)
		} else {
			m.agendaView, cmd = m.agendaView.Update(msg)
		}
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewReminderForm:
		m.formView, cmd = m.formView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Planner", m.headerStatus())
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewHelp:
		return m.helpView.View()
	case ViewReminderForm:
		return m.formView.View()
	default:
		return m.layout.RenderPanes(m.agendaView.View(), m.reminders.View(), m.focus == PaneReminders)
	}
}

// headerStatus summarizes pending reminders and at-risk tasks.
func (m Model) headerStatus() string {
	status := fmt.Sprintf("%d pending", m.reminders.Pending())
	if n := m.agendaView.AtRiskCount(); n > 0 {
		status += fmt.Sprintf(" · %d at risk", n)
	}
	if m.deps.Scheduler != nil && !m.deps.Scheduler.Running() {
		status += " · reminders paused"
	}
	return status
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.status != "" && m.currentView == ViewPanes {
		if m.statusErr {
			return theme.ErrorStyle.Render(m.status)
		}
		return m.status
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewReminderForm:
		return "enter submit | esc cancel"
	}
	if m.focus == PaneReminders {
		return "enter open | s snooze | d dismiss | m remind | tab agenda | ? help | q quit"
	}
	return "s snooze | d dismiss | m remind | x complete | r refresh | tab reminders | ? help | q quit"
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// Run starts the terminal UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, d Deps) error {
	p := tea.NewProgram(New(d), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running terminal ui: %w", err)
	}
	return nil
}
