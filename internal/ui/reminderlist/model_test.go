package reminderlist

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
)

type fakeSource struct {
	upcoming []model.Task
	pending  int
	shown    map[string]bool
	err      error
}

func (f *fakeSource) Upcoming(context.Context, int) ([]model.Task, error) {
	return f.upcoming, f.err
}

func (f *fakeSource) PendingCount(context.Context) (int, error) {
	return f.pending, nil
}

func (f *fakeSource) Shown(id string) bool {
	return f.shown[id]
}

func task(id string, at time.Time) model.Task {
	return model.Task{ID: id, Title: "task " + id, ReminderAt: &at}
}

func reload(m Model) Model {
	m, _ = m.Update(m.LoadReminders()())
	return m
}

func TestLoadAndSelect(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.Local)
	src := &fakeSource{
		upcoming: []model.Task{task("u1", now.Add(time.Hour)), task("u2", now.Add(2*time.Hour))},
		pending:  2,
	}
	m := reload(New(src, keys.DefaultKeyMap(), 40, 20))

	assert.Equal(t, 2, m.Pending())
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "u1", sel.ID)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	sel, _ = m.Selected()
	assert.Equal(t, "u2", sel.ID)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	sel, _ = m.Selected()
	assert.Equal(t, "u2", sel.ID, "cursor stops at the last row")

	assert.Contains(t, m.View(), "2 pending")
}

func TestDueEntriesFollowScheduler(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.Local)
	src := &fakeSource{shown: map[string]bool{"d1": true, "d2": true}}
	m := New(src, keys.DefaultKeyMap(), 40, 20)

	m.AddDue(task("d1", now))
	m.AddDue(task("d2", now))
	sel, _ := m.Selected()
	assert.Equal(t, "d2", sel.ID, "newest due reminder is selected")

	m.AddDue(task("d1", now))
	sel, _ = m.Selected()
	assert.Equal(t, "d1", sel.ID, "re-adding selects without duplicating")
	assert.Contains(t, m.View(), "Due now")

	// d2 was snoozed elsewhere; the scheduler no longer holds it.
	src.shown["d2"] = false
	m = reload(m)
	m.Remove("d1")

	_, ok := m.Selected()
	assert.False(t, ok)
	assert.NotContains(t, m.View(), "Due now")
}

func TestLoadErrorKeepsEntries(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.Local)
	src := &fakeSource{upcoming: []model.Task{task("u1", now)}}
	m := reload(New(src, keys.DefaultKeyMap(), 40, 20))

	src.err = errors.New("locked")
	m = reload(m)

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "u1", sel.ID)
	assert.Contains(t, m.View(), "locked")
}
