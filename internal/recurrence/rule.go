// Package recurrence expands recurring tasks into concrete occurrences.
package recurrence

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nhle/planner/internal/model"
)

// ParseRule decodes a stored rule. An unknown frequency is an error; an
// interval below 1 is normalized to 1.
func ParseRule(raw string) (model.RecurrenceRule, error) {
	var rule model.RecurrenceRule
	if strings.TrimSpace(raw) == "" {
		return rule, fmt.Errorf("empty recurrence rule")
	}
	if err := json.Unmarshal([]byte(raw), &rule); err != nil {
		return model.RecurrenceRule{}, fmt.Errorf("decoding recurrence rule: %w", err)
	}

	switch rule.Frequency {
	case model.FrequencyDaily, model.FrequencyWeekdays,
		model.FrequencyWeekly, model.FrequencyMonthly:
	default:
		return model.RecurrenceRule{}, fmt.Errorf("unknown frequency %q", rule.Frequency)
	}

	if rule.Interval < 1 {
		rule.Interval = 1
	}
	return rule, nil
}

// Describe renders a rule the way ParsePhrase accepts it.
func Describe(rule model.RecurrenceRule) string {
	if rule.Frequency == model.FrequencyWeekdays {
		return "every weekday"
	}

	unit := map[model.Frequency]string{
		model.FrequencyDaily:   "day",
		model.FrequencyWeekly:  "week",
		model.FrequencyMonthly: "month",
	}[rule.Frequency]
	if unit == "" {
		return string(rule.Frequency)
	}
	if rule.Interval <= 1 {
		return "every " + unit
	}
	return fmt.Sprintf("every %d %ss", rule.Interval, unit)
}
