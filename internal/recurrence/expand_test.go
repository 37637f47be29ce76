package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/model"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func recurringTask(rule model.RecurrenceRule, anchor time.Time) model.Task {
	return model.Task{
		ID:             "t1",
		Title:          "Water plants",
		DueDate:        &anchor,
		RecurrenceRule: rule.Encode(),
	}
}

func datesOf(occ []model.Occurrence) []string {
	out := make([]string, len(occ))
	for i, o := range occ {
		out[i] = model.FormatDate(o.Date())
	}
	return out
}

func TestExpandWeeklyOverFifteenDays(t *testing.T) {
	monday := date(2024, time.March, 4)
	require.Equal(t, time.Monday, monday.Weekday())

	task := recurringTask(model.RecurrenceRule{Frequency: model.FrequencyWeekly, Interval: 1}, monday)
	occ := Expand(task, monday, monday.AddDate(0, 0, 14))

	assert.Equal(t, []string{"2024-03-04", "2024-03-11", "2024-03-18"}, datesOf(occ))
	for _, o := range occ {
		assert.True(t, o.Virtual)
		assert.Equal(t, "t1", o.ID)
	}
}

func TestExpandWeekdaysFromFriday(t *testing.T) {
	friday := date(2024, time.March, 8)
	require.Equal(t, time.Friday, friday.Weekday())

	task := recurringTask(model.RecurrenceRule{Frequency: model.FrequencyWeekdays, Interval: 1}, friday)
	occ := Expand(task, friday, friday.AddDate(0, 0, 6))

	assert.Equal(t, []string{
		"2024-03-08", "2024-03-11", "2024-03-12", "2024-03-13", "2024-03-14",
	}, datesOf(occ))
}

func TestExpandWeekdaysNeverEmitsWeekend(t *testing.T) {
	for offset := 0; offset < 7; offset++ {
		anchor := date(2024, time.January, 1).AddDate(0, 0, offset)
		task := recurringTask(model.RecurrenceRule{Frequency: model.FrequencyWeekdays, Interval: 3}, anchor)

		for _, o := range Expand(task, anchor, anchor.AddDate(0, 2, 0)) {
			wd := o.Date().Weekday()
			assert.NotEqual(t, time.Saturday, wd, o.Key())
			assert.NotEqual(t, time.Sunday, wd, o.Key())
		}
	}
}

func TestExpandBoundedForLongRanges(t *testing.T) {
	anchor := date(2020, time.January, 1)
	task := recurringTask(model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1}, anchor)

	occ := Expand(task, anchor, anchor.AddDate(5, 0, 0))
	assert.Len(t, occ, MaxAdvances)
	assert.Equal(t, "2020-01-01", model.FormatDate(occ[0].Date()))
}

func TestExpandZeroIntervalTreatedAsOne(t *testing.T) {
	anchor := date(2024, time.May, 1)
	task := model.Task{ID: "t1", DueDate: &anchor, RecurrenceRule: `{"frequency":"daily","interval":0}`}

	occ := Expand(task, anchor, anchor.AddDate(0, 0, 2))
	assert.Equal(t, []string{"2024-05-01", "2024-05-02", "2024-05-03"}, datesOf(occ))
}

func TestExpandIsIdempotent(t *testing.T) {
	anchor := date(2024, time.January, 31)
	task := recurringTask(model.RecurrenceRule{Frequency: model.FrequencyMonthly, Interval: 1}, anchor)
	start, end := date(2024, time.January, 1), date(2024, time.December, 31)

	first := Expand(task, start, end)
	second := Expand(task, start, end)
	assert.Equal(t, datesOf(first), datesOf(second))
}

func TestExpandMonthlyClampsWithoutDrift(t *testing.T) {
	anchor := date(2024, time.January, 31)
	task := recurringTask(model.RecurrenceRule{Frequency: model.FrequencyMonthly, Interval: 1}, anchor)

	occ := Expand(task, anchor, date(2024, time.April, 30))
	assert.Equal(t, []string{"2024-01-31", "2024-02-29", "2024-03-31", "2024-04-30"}, datesOf(occ))
}

func TestExpandRespectsRangeAndEndDate(t *testing.T) {
	anchor := date(2024, time.June, 1)
	endDate := date(2024, time.June, 10)
	task := recurringTask(model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 3}, anchor)
	task.RecurrenceEndDate = &endDate

	occ := Expand(task, date(2024, time.June, 5), date(2024, time.June, 30))
	assert.Equal(t, []string{"2024-06-07", "2024-06-10"}, datesOf(occ))
}

func TestExpandFastForwardsOldSeries(t *testing.T) {
	anchor := date(2019, time.February, 4)
	task := recurringTask(model.RecurrenceRule{Frequency: model.FrequencyWeekly, Interval: 2}, anchor)

	start := date(2024, time.March, 1)
	occ := Expand(task, start, start.AddDate(0, 0, 27))
	require.NotEmpty(t, occ)
	for _, o := range occ {
		assert.Equal(t, time.Monday, o.Date().Weekday())
		assert.Zero(t, daysBetween(anchor, o.Date())%14)
	}
}

func TestExpandBoundCountsFromRangeStart(t *testing.T) {
	// More than MaxAdvances days separate the anchor from the range.
	anchor := date(2020, time.January, 1)
	task := recurringTask(model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1}, anchor)

	start := date(2021, time.June, 1)
	occ := Expand(task, start, date(2021, time.June, 7))
	require.Len(t, occ, 7)
	assert.Equal(t, "2021-06-01", model.FormatDate(occ[0].Date()))
	assert.Equal(t, "2021-06-07", model.FormatDate(occ[6].Date()))
}

func TestExpandMalformedRuleDegrades(t *testing.T) {
	anchor := date(2024, time.July, 1)
	task := model.Task{ID: "t1", DueDate: &anchor, RecurrenceRule: `{"frequency":"fortnightly"`}

	occ := Expand(task, date(2025, time.January, 1), date(2025, time.January, 31))
	require.Len(t, occ, 1)
	assert.False(t, occ[0].Virtual)
	assert.Equal(t, anchor, occ[0].Date())
}

func TestExpandDoesNotAliasDueDates(t *testing.T) {
	anchor := date(2024, time.March, 4)
	task := recurringTask(model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1}, anchor)

	occ := Expand(task, anchor, anchor.AddDate(0, 0, 1))
	require.Len(t, occ, 2)
	assert.NotSame(t, occ[0].DueDate, occ[1].DueDate)
	assert.Equal(t, anchor, *task.DueDate)
}

func TestParseRule(t *testing.T) {
	rule, err := ParseRule(`{"frequency":"weekly","interval":2}`)
	require.NoError(t, err)
	assert.Equal(t, model.RecurrenceRule{Frequency: model.FrequencyWeekly, Interval: 2}, rule)

	rule, err = ParseRule(`{"frequency":"daily"}`)
	require.NoError(t, err)
	assert.Equal(t, 1, rule.Interval)

	_, err = ParseRule(`{"frequency":"yearly","interval":1}`)
	assert.Error(t, err)
	_, err = ParseRule(`not json`)
	assert.Error(t, err)
	_, err = ParseRule("")
	assert.Error(t, err)
}
