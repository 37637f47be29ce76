package recurrence

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/nhle/planner/internal/model"
)

// intervalPattern matches phrases like "every 2 weeks" or "every day".
var intervalPattern = regexp.MustCompile(`^every\s+(?:(\d+)\s+)?(day|week|month)s?$`)

var keywordRules = map[string]model.RecurrenceRule{
	"daily":         {Frequency: model.FrequencyDaily, Interval: 1},
	"weekdays":      {Frequency: model.FrequencyWeekdays, Interval: 1},
	"every weekday": {Frequency: model.FrequencyWeekdays, Interval: 1},
	"weekly":        {Frequency: model.FrequencyWeekly, Interval: 1},
	"biweekly":      {Frequency: model.FrequencyWeekly, Interval: 2},
	"monthly":       {Frequency: model.FrequencyMonthly, Interval: 1},
}

var unitFrequencies = map[string]model.Frequency{
	"day":   model.FrequencyDaily,
	"week":  model.FrequencyWeekly,
	"month": model.FrequencyMonthly,
}

// ParsePhrase turns a short English phrase into a rule. It accepts the
// keywords daily, weekdays, weekly, biweekly and monthly, plus
// "every [N] day(s)|week(s)|month(s)" and "every weekday".
func ParsePhrase(phrase string) (model.RecurrenceRule, error) {
	p := strings.ToLower(strings.Join(strings.Fields(phrase), " "))
	if rule, ok := keywordRules[p]; ok {
		return rule, nil
	}

	m := intervalPattern.FindStringSubmatch(p)
	if m == nil {
		return model.RecurrenceRule{}, fmt.Errorf("unrecognized repeat phrase %q", phrase)
	}

	interval := 1
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 {
			return model.RecurrenceRule{}, fmt.Errorf("invalid interval in %q", phrase)
		}
		interval = n
	}
	return model.RecurrenceRule{Frequency: unitFrequencies[m[2]], Interval: interval}, nil
}
