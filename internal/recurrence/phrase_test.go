package recurrence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/model"
)

func TestParsePhrase(t *testing.T) {
	tests := []struct {
		phrase string
		want   model.RecurrenceRule
	}{
		{"daily", model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 1}},
		{"Weekdays", model.RecurrenceRule{Frequency: model.FrequencyWeekdays, Interval: 1}},
		{"every  weekday", model.RecurrenceRule{Frequency: model.FrequencyWeekdays, Interval: 1}},
		{"every week", model.RecurrenceRule{Frequency: model.FrequencyWeekly, Interval: 1}},
		{"every 2 weeks", model.RecurrenceRule{Frequency: model.FrequencyWeekly, Interval: 2}},
		{"biweekly", model.RecurrenceRule{Frequency: model.FrequencyWeekly, Interval: 2}},
		{"every 3 months", model.RecurrenceRule{Frequency: model.FrequencyMonthly, Interval: 3}},
		{"every 10 days", model.RecurrenceRule{Frequency: model.FrequencyDaily, Interval: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.phrase, func(t *testing.T) {
			got, err := ParsePhrase(tt.phrase)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePhraseRejects(t *testing.T) {
	for _, phrase := range []string{"", "sometimes", "every 0 days", "every fortnight", "yearly"} {
		_, err := ParsePhrase(phrase)
		assert.Error(t, err, phrase)
	}
}

func TestDescribeRoundTrips(t *testing.T) {
	for _, phrase := range []string{"every day", "every weekday", "every 2 weeks", "every month"} {
		rule, err := ParsePhrase(phrase)
		require.NoError(t, err)
		assert.Equal(t, phrase, Describe(rule))
	}
}
