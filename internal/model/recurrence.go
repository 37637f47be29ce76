package model

import "encoding/json"

// Frequency is the repetition unit of a recurrence rule.
type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekdays Frequency = "weekdays"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyMonthly  Frequency = "monthly"
)

// RecurrenceRule describes how a task repeats. Interval is ignored for
// FrequencyWeekdays, whose unit is always the next business day.
type RecurrenceRule struct {
	Frequency Frequency `json:"frequency" validate:"required,oneof=daily weekdays weekly monthly"`
	Interval  int       `json:"interval" validate:"min=1"`
}

// Encode returns the JSON form stored in Task.RecurrenceRule.
func (r RecurrenceRule) Encode() string {
	b, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(b)
}
