package agendalist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/keys"
	"github.com/nhle/planner/internal/model"
)

type fakePlanner struct {
	occ        []model.Occurrence
	risks      []model.RiskAnnotation
	err        error
	start, end time.Time
}

func (f *fakePlanner) TasksInRange(_ context.Context, start, end time.Time) ([]model.Occurrence, error) {
	f.start, f.end = start, end
	return f.occ, f.err
}

func (f *fakePlanner) AtRiskTasks(context.Context) ([]model.RiskAnnotation, error) {
	return f.risks, nil
}

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func occurrence(id, date string, virtual bool) model.Occurrence {
	d := day(date)
	return model.Occurrence{Task: model.Task{ID: id, Title: "task " + id, DueDate: &d}, Virtual: virtual}
}

var fixedNow = time.Date(2024, 3, 4, 9, 0, 0, 0, time.Local)

func loaded(t *testing.T, p *fakePlanner) Model {
	t.Helper()
	m := New(p, keys.DefaultKeyMap(), func() int { return 7 }, func() time.Time { return fixedNow }, 80, 20)
	msg := m.LoadAgenda()()
	m, _ = m.Update(msg)
	return m
}

func TestLoadAgendaWindow(t *testing.T) {
	p := &fakePlanner{}
	loaded(t, p)

	assert.Equal(t, "2024-03-04", model.FormatDate(p.start))
	assert.Equal(t, "2024-03-10", model.FormatDate(p.end))
}

func TestRiskBadgeOnDeadlineOccurrenceOnly(t *testing.T) {
	p := &fakePlanner{
		occ: []model.Occurrence{
			occurrence("a", "2024-03-04", false),
			occurrence("b", "2024-03-04", true),
			occurrence("b", "2024-03-05", true),
		},
		risks: []model.RiskAnnotation{{
			TaskID:           "b",
			Level:            model.RiskCritical,
			RemainingMinutes: 20,
			Deadline:         time.Date(2024, 3, 4, 9, 20, 0, 0, time.Local),
		}},
	}
	m := loaded(t, p)

	items := m.list.Items()
	require.Len(t, items, 3)
	assert.Nil(t, items[0].(OccurrenceItem).Risk)
	require.NotNil(t, items[1].(OccurrenceItem).Risk)
	assert.Nil(t, items[2].(OccurrenceItem).Risk)

	assert.Contains(t, items[1].(OccurrenceItem).Description(), "critical 20m left")
	assert.Equal(t, 1, m.AtRiskCount())
	assert.NotEmpty(t, m.View())
}

func TestSelectTask(t *testing.T) {
	p := &fakePlanner{occ: []model.Occurrence{
		occurrence("a", "2024-03-04", false),
		occurrence("b", "2024-03-05", true),
		occurrence("b", "2024-03-06", true),
	}}
	m := loaded(t, p)

	assert.True(t, m.SelectTask("b"))
	assert.Equal(t, "b@2024-03-05", m.SelectedKey())

	assert.False(t, m.SelectTask("c"))
	assert.Equal(t, "b@2024-03-05", m.SelectedKey(), "selection unchanged for an unknown task")

	p.occ = append(p.occ, occurrence("c", "2024-03-07", false))
	m, _ = m.Update(m.LoadAgenda()())
	assert.Equal(t, "c@2024-03-07", m.SelectedKey(), "pending jump applied after reload")
}

func TestLoadErrorShownInEmptyState(t *testing.T) {
	m := loaded(t, &fakePlanner{err: errors.New("disk on fire")})

	_, ok := m.Selected()
	assert.False(t, ok)
	assert.Contains(t, m.View(), "disk on fire")
}

func TestShortDuration(t *testing.T) {
	assert.Equal(t, "0m", shortDuration(0))
	assert.Equal(t, "59m", shortDuration(59))
	assert.Equal(t, "2h", shortDuration(120))
	assert.Equal(t, "1h05m", shortDuration(65))
}
