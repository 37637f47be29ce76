package model

import "time"

// Priority tiers (lower number = more urgent). A nil priority is "unset".
const (
	PriorityUrgent = 1
	PriorityHigh   = 2
	PriorityMedium = 3
	PriorityLow    = 4
)

// UnsetTierRank is the sort rank given to tasks without a priority tier.
const UnsetTierRank = 99

// Task is a personal task item. Only the scheduling-relevant fields are
// interpreted by the planner; the rest are carried through untouched.
type Task struct {
	ID     string  `json:"id" db:"id"`
	Title  string  `json:"title" db:"title" validate:"required,max=500"`
	Notes  string  `json:"notes" db:"notes"`
	ListID *string `json:"list_id,omitempty" db:"list_id"`

	// Priority is the tier (1-4) or nil when unset.
	Priority *int `json:"priority,omitempty" db:"priority" validate:"omitempty,min=1,max=4"`

	// DueDate is a calendar date at local midnight.
	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"`

	// DueTime is a wall-clock "HH:MM" or empty.
	DueTime string `json:"due_time,omitempty" db:"due_time" validate:"omitempty,datetime=15:04"`

	EstimatedMinutes *int `json:"estimated_minutes,omitempty" db:"estimated_minutes" validate:"omitempty,min=1"`

	// RecurrenceRule holds the raw JSON rule ({"frequency":..,"interval":..}).
	// It is kept raw so that a malformed value can still be loaded and
	// degraded at expansion time.
	RecurrenceRule    string     `json:"recurrence_rule,omitempty" db:"recurrence_rule"`
	RecurrenceEndDate *time.Time `json:"recurrence_end_date,omitempty" db:"recurrence_end_date"`

	ReminderAt *time.Time `json:"reminder_at,omitempty" db:"reminder_at"`

	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	// Tags is populated by queries that join with task_tags.
	Tags []Tag `json:"tags,omitempty" db:"-"`
}

// IsRecurring reports whether the task carries a recurrence rule.
func (t Task) IsRecurring() bool { return t.RecurrenceRule != "" }

// Tier returns the priority tier used for ordering, UnsetTierRank when unset.
func (t Task) Tier() int {
	if t.Priority == nil {
		return UnsetTierRank
	}
	return *t.Priority
}

// HasReminder reports whether a reminder time is set.
func (t Task) HasReminder() bool { return t.ReminderAt != nil }

// IsOverdue reports whether the task's due date is before today.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && !t.Completed && t.DueDate.Before(DateOf(now))
}
