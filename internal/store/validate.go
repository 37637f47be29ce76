package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nhle/planner/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateTask checks a task before it is written. Rules are validated
// strictly on write; rules that were stored malformed by older versions
// are still loadable and degrade at expansion time.
func validateTask(task *model.Task) error {
	task.Title = strings.TrimSpace(task.Title)
	if err := validate.Struct(task); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	if task.RecurrenceRule == "" {
		task.RecurrenceEndDate = nil
		return nil
	}
	if err := validateRule(task.RecurrenceRule); err != nil {
		return err
	}
	if task.DueDate == nil {
		return fmt.Errorf("invalid task: a recurring task needs a due date")
	}
	return nil
}

// validateRule checks that raw decodes into a well-formed recurrence rule.
func validateRule(raw string) error {
	var rule model.RecurrenceRule
	if err := json.Unmarshal([]byte(raw), &rule); err != nil {
		return fmt.Errorf("invalid recurrence rule %q: %w", raw, err)
	}
	if err := validate.Struct(rule); err != nil {
		return fmt.Errorf("invalid recurrence rule %q: %w", raw, err)
	}
	return nil
}
