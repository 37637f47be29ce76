// Package risk classifies tasks by how much time is left before their
// deadline compared with how long they are estimated to take.
package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/nhle/planner/internal/model"
)

// DefaultDeadlineClock is used when a task has a due date but no due time.
const DefaultDeadlineClock = "23:59"

// Deadline returns the instant a task is due: its due date at its due
// time, or at the end of the day when no time is set.
func Deadline(dueDate time.Time, dueTime string) time.Time {
	return model.At(dueDate, dueTime, DefaultDeadlineClock)
}

// Result is the outcome of classifying one deadline.
type Result struct {
	Level            model.RiskLevel
	RemainingMinutes int
	Deadline         time.Time
	Reason           string
}

// Classify compares the whole minutes left until the deadline against the
// estimate. Less than the estimate is critical, at most twice the
// estimate is a warning, anything else is none.
func Classify(dueDate time.Time, dueTime string, estimatedMinutes int, now time.Time) Result {
	deadline := Deadline(dueDate, dueTime)

	remaining := int(math.Floor(deadline.Sub(now).Minutes()))
	if remaining < 0 {
		remaining = 0
	}

	res := Result{Level: model.RiskNone, RemainingMinutes: remaining, Deadline: deadline}
	switch {
	case remaining < estimatedMinutes:
		res.Level = model.RiskCritical
		res.Reason = fmt.Sprintf("not enough time left to finish: %s left, needs %s",
			formatMinutes(remaining), formatMinutes(estimatedMinutes))
	case remaining <= 2*estimatedMinutes:
		res.Level = model.RiskWarning
		res.Reason = fmt.Sprintf("tight buffer: %s left for %s of work",
			formatMinutes(remaining), formatMinutes(estimatedMinutes))
	}
	return res
}

// Annotate classifies task at now. It reports false when the task is not
// a candidate (completed, or missing a due date or estimate) or is not at risk.
func Annotate(task model.Task, now time.Time) (model.RiskAnnotation, bool) {
	if task.Completed || task.DueDate == nil || task.EstimatedMinutes == nil {
		return model.RiskAnnotation{}, false
	}

	res := Classify(*task.DueDate, task.DueTime, *task.EstimatedMinutes, now)
	if res.Level == model.RiskNone {
		return model.RiskAnnotation{}, false
	}

	return model.RiskAnnotation{
		TaskID:           task.ID,
		Title:            task.Title,
		Level:            res.Level,
		RemainingMinutes: res.RemainingMinutes,
		EstimatedMinutes: *task.EstimatedMinutes,
		Deadline:         res.Deadline,
		Reason:           res.Reason,
	}, true
}

// formatMinutes renders a duration in minutes as "1h 05m" or "45m".
func formatMinutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}
