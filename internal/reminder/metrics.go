package reminder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	remindersShown = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_reminders_shown_total",
		Help: "Reminders surfaced to the user.",
	})

	remindersPending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "planner_reminders_pending",
		Help: "Incomplete tasks whose reminder time has passed, as of the last poll.",
	})

	pollErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planner_reminder_poll_errors_total",
		Help: "Poll cycles abandoned because of a storage error.",
	})

	reminderActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_reminder_actions_total",
		Help: "Snooze, dismiss and set operations by result.",
	}, []string{"action", "result"})
)

func recordAction(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	reminderActions.WithLabelValues(action, result).Inc()
}
