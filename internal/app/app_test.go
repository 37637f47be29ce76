package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/agenda"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/reminder"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/internal/ui/reminderform"
	"github.com/nhle/planner/tests/testutil"
)

var fixedNow = time.Date(2024, time.March, 4, 9, 0, 0, 0, time.Local)

type harness struct {
	m      Model
	store  *store.SQLiteStore
	events <-chan reminder.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	s := testutil.NewTestStore(t)
	now := func() time.Time { return fixedNow }

	bc := reminder.NewBroadcaster(8)
	events, unsubscribe := bc.Subscribe()
	t.Cleanup(unsubscribe)

	settings := model.NewSettingsHolder(nil)
	sched := reminder.New(s, settings, bc, reminder.WithClock(now))

	m := New(Deps{
		Store:     s,
		Planner:   agenda.NewPlanner(s, agenda.WithClock(now)),
		Scheduler: sched,
		Settings:  settings,
		Now:       now,
	})
	h := &harness{m: m, store: s, events: events}
	h.send(t, tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// send feeds msg to the model and returns the resulting command.
func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// run executes cmd and feeds its message back into the model.
func (h *harness) run(t *testing.T, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	if msg := cmd(); msg != nil {
		h.send(t, msg)
	}
}

func (h *harness) load(t *testing.T) {
	t.Helper()
	h.run(t, h.m.agendaView.LoadAgenda())
	h.run(t, h.m.reminders.LoadReminders())
}

func (h *harness) addTask(t *testing.T, title string, due time.Time, reminderAt *time.Time) *model.Task {
	t.Helper()
	task := &model.Task{Title: title, DueDate: &due, ReminderAt: reminderAt}
	require.NoError(t, h.store.CreateTask(context.Background(), task))
	return task
}

func press(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestShownEventJumpsAgendaSelection(t *testing.T) {
	h := newHarness(t)
	today := model.DateOf(fixedNow)
	h.addTask(t, "Standup", today, nil)
	due := fixedNow.Add(-time.Minute)
	rent := h.addTask(t, "Pay rent", today.AddDate(0, 0, 2), &due)
	h.load(t)

	first, ok := h.m.agendaView.Selected()
	require.True(t, ok)
	assert.Equal(t, "Standup", first.Title)

	h.send(t, eventMsg(reminder.Event{Kind: reminder.EventShown, Task: rent}))

	sel, ok := h.m.agendaView.Selected()
	require.True(t, ok)
	assert.Equal(t, rent.ID, sel.ID)

	dueSel, ok := h.m.reminders.Selected()
	require.True(t, ok)
	assert.Equal(t, rent.ID, dueSel.ID)
	assert.Contains(t, h.m.View(), "Pay rent")
}

func TestPendingEventUpdatesHeader(t *testing.T) {
	h := newHarness(t)
	h.send(t, eventMsg(reminder.Event{Kind: reminder.EventPending, Count: 3}))
	assert.Contains(t, h.m.View(), "3 pending")
}

func TestSnoozeFromAgenda(t *testing.T) {
	h := newHarness(t)
	due := fixedNow.Add(-time.Minute)
	task := h.addTask(t, "Stretch", model.DateOf(fixedNow), &due)
	h.load(t)

	h.run(t, h.send(t, press("s")))
	assert.Contains(t, h.m.keyHints(), "snoozed Stretch")

	got, err := h.store.GetTaskByID(context.Background(), task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReminderAt)
	assert.WithinDuration(t, fixedNow.Add(10*time.Minute), *got.ReminderAt, time.Second)
}

func TestCompleteFromAgenda(t *testing.T) {
	h := newHarness(t)
	task := h.addTask(t, "File taxes", model.DateOf(fixedNow), nil)
	h.load(t)

	h.run(t, h.send(t, press("x")))

	got, err := h.store.GetTaskByID(context.Background(), task.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
}

func TestOpenFromRemindersPane(t *testing.T) {
	h := newHarness(t)
	today := model.DateOf(fixedNow)
	h.addTask(t, "Standup", today, nil)
	soon := fixedNow.Add(time.Hour)
	dentist := h.addTask(t, "Dentist", today.AddDate(0, 0, 1), &soon)
	h.load(t)

	h.send(t, press("tab"))
	assert.Equal(t, PaneReminders, h.m.focus)

	h.run(t, h.send(t, press("enter")))

	select {
	case ev := <-h.events:
		require.Equal(t, reminder.EventOpened, ev.Kind)
		h.send(t, eventMsg(ev))
	case <-time.After(time.Second):
		t.Fatal("no opened event")
	}

	assert.Equal(t, PaneAgenda, h.m.focus)
	sel, ok := h.m.agendaView.Selected()
	require.True(t, ok)
	assert.Equal(t, dentist.ID, sel.ID)
}

func TestReminderFormSubmit(t *testing.T) {
	h := newHarness(t)
	task := h.addTask(t, "Dentist", model.DateOf(fixedNow).AddDate(0, 0, 1), nil)
	h.load(t)

	h.send(t, press("m"))
	assert.Equal(t, ViewReminderForm, h.m.currentView)

	h.run(t, h.send(t, reminderform.SubmitMsg{TaskID: task.ID, DueDate: *task.DueDate, DueTime: "14:30"}))
	assert.Equal(t, ViewPanes, h.m.currentView)

	got, err := h.store.GetTaskByID(context.Background(), task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReminderAt)
	assert.Equal(t, "14:15", got.ReminderAt.Format("15:04"))
}

func TestHelpAndQuit(t *testing.T) {
	h := newHarness(t)

	h.send(t, press("?"))
	assert.Equal(t, ViewHelp, h.m.currentView)
	assert.Contains(t, h.m.View(), "Keyboard Shortcuts")
	h.send(t, press("?"))
	assert.Equal(t, ViewPanes, h.m.currentView)

	cmd := h.send(t, press("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
