package recurrence

import (
	"log"
	"time"

	"github.com/nhle/planner/internal/model"
)

// MaxAdvances bounds how many schedule steps a single expansion may take,
// whatever the range or interval. Steps are counted from the first scheduled
// date on or after the range start, not from the anchor.
const MaxAdvances = 366

// Expand projects a recurring task onto every scheduled date in
// [start, end], clipped to the task's recurrence end date. Each returned
// occurrence is a copy of task with DueDate replaced.
//
// A task whose rule cannot be parsed, or that has no due date to anchor
// on, is returned once and unmodified so that views still show it.
func Expand(task model.Task, start, end time.Time) []model.Occurrence {
	rule, err := ParseRule(task.RecurrenceRule)
	if err != nil || task.DueDate == nil {
		if err != nil {
			log.Printf("[recurrence] task %s: %v; treating as non-recurring", task.ID, err)
		}
		return []model.Occurrence{{Task: task}}
	}

	effectiveEnd := end
	if task.RecurrenceEndDate != nil && task.RecurrenceEndDate.Before(end) {
		effectiveEnd = *task.RecurrenceEndDate
	}

	dates := Dates(rule, *task.DueDate, start, effectiveEnd)
	occurrences := make([]model.Occurrence, 0, len(dates))
	for _, d := range dates {
		occ := model.Occurrence{Task: task, Virtual: true}
		date := d
		occ.DueDate = &date
		occurrences = append(occurrences, occ)
	}
	return occurrences
}

// Dates returns the scheduled dates of rule anchored at anchor that fall
// in [start, end], ascending and without duplicates. All arguments are
// reduced to calendar dates in anchor's location.
//
// The series is fast-forwarded to start arithmetically, so MaxAdvances
// bounds the number of dates examined inside the range rather than the
// distance from the anchor.
func Dates(rule model.RecurrenceRule, anchor, start, end time.Time) []time.Time {
	loc := anchor.Location()
	anchor = model.DateOf(anchor)
	start = model.DateOf(start.In(loc))
	end = model.DateOf(end.In(loc))

	if end.Before(start) || end.Before(anchor) {
		return nil
	}
	if rule.Interval < 1 {
		rule.Interval = 1
	}

	k := firstStepOnOrAfter(rule, anchor, start)

	var dates []time.Time
	for n := 0; n < MaxAdvances; n++ {
		current := step(rule, anchor, k+n)
		if current.After(end) {
			break
		}
		if current.Before(start) {
			continue
		}
		if rule.Frequency == model.FrequencyWeekdays && isWeekend(current) {
			continue
		}
		dates = append(dates, current)
	}
	return dates
}

// step returns the k-th date of the series. Monthly steps are computed from
// the anchor so a day clamped to a short month does not drift the series.
func step(rule model.RecurrenceRule, anchor time.Time, k int) time.Time {
	y, m, d := anchor.Date()
	loc := anchor.Location()

	switch rule.Frequency {
	case model.FrequencyWeekdays:
		return time.Date(y, m, d+k, 0, 0, 0, 0, loc)
	case model.FrequencyWeekly:
		return time.Date(y, m, d+7*rule.Interval*k, 0, 0, 0, 0, loc)
	case model.FrequencyMonthly:
		first := time.Date(y, m+time.Month(rule.Interval*k), 1, 0, 0, 0, 0, loc)
		if last := daysIn(first); d > last {
			d = last
		}
		return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d+rule.Interval*k, 0, 0, 0, 0, loc)
	}
}

// firstStepOnOrAfter returns the smallest k >= 0 whose step is not before start.
func firstStepOnOrAfter(rule model.RecurrenceRule, anchor, start time.Time) int {
	if !anchor.Before(start) {
		return 0
	}

	var k int
	switch rule.Frequency {
	case model.FrequencyWeekdays:
		k = daysBetween(anchor, start)
	case model.FrequencyWeekly:
		k = daysBetween(anchor, start) / (7 * rule.Interval)
	case model.FrequencyMonthly:
		months := (start.Year()-anchor.Year())*12 + int(start.Month()-anchor.Month())
		k = months / rule.Interval
	default:
		k = daysBetween(anchor, start) / rule.Interval
	}
	if k > 0 {
		k--
	}
	for step(rule, anchor, k).Before(start) {
		k++
	}
	return k
}

// daysBetween counts calendar days from a to b, ignoring DST shifts.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func daysIn(monthStart time.Time) int {
	return time.Date(monthStart.Year(), monthStart.Month()+1, 0, 0, 0, 0, 0, monthStart.Location()).Day()
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
