package store

import (
	"context"
	"time"

	"github.com/nhle/planner/internal/model"
)

// TaskFilter controls filtering, sorting, and pagination for task queries.
type TaskFilter struct {
	Completed *bool    // nil (all), true, false
	ListID    *string  // list UUID, "inbox" (NULL list_id), or nil (all)
	TagIDs    []string // filter by any of these tags (OR logic)
	Query     *string  // search title + notes
	DueDate   *string  // "today", "upcoming" (next 7 days), "overdue", or nil
	Recurring *bool    // nil (all), true (has a rule), false (no rule)
	SortBy    string   // "due_date", "priority", "created_at", "updated_at", "title", "reminder_at"
	SortDesc  bool
	Limit     int
	Offset    int
}

// TaskStore is the task CRUD surface.
type TaskStore interface {
	CreateTask(ctx context.Context, task *model.Task) error
	UpdateTask(ctx context.Context, task model.Task) error
	DeleteTask(ctx context.Context, id string) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetTaskCount(ctx context.Context, filter TaskFilter) (int, error)
	CompleteTask(ctx context.Context, id string, completed bool) error
}

// ScheduleStore exposes the predicates the planner and the reminder
// scheduler query. Every read is restricted to incomplete tasks.
type ScheduleStore interface {
	// TasksDueBetween returns non-recurring tasks with due_date in [from, to].
	TasksDueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error)

	// RecurringCandidates returns tasks with a rule, due_date <= to and
	// recurrence_end_date absent or >= from.
	RecurringCandidates(ctx context.Context, from, to time.Time) ([]model.Task, error)

	// RiskCandidates returns tasks with an estimate and due_date in [from, to].
	RiskCandidates(ctx context.Context, from, to time.Time) ([]model.Task, error)

	// DueReminders returns tasks with reminder_at <= at, ordered by reminder_at.
	DueReminders(ctx context.Context, at time.Time) ([]model.Task, error)

	// CountDueReminders counts tasks with reminder_at <= at.
	CountDueReminders(ctx context.Context, at time.Time) (int, error)

	// UpcomingReminders returns tasks with reminder_at in [from, to],
	// ordered by reminder_at and capped at limit.
	UpcomingReminders(ctx context.Context, from, to time.Time, limit int) ([]model.Task, error)

	SetReminderAt(ctx context.Context, id string, at *time.Time) error
	SetRecurrence(ctx context.Context, id string, rule string, endDate *time.Time) error
}

// ListStore is the list CRUD surface.
type ListStore interface {
	CreateList(ctx context.Context, list *model.List) error
	UpdateList(ctx context.Context, list model.List) error
	DeleteList(ctx context.Context, id string) error
	GetListByID(ctx context.Context, id string) (*model.List, error)
	GetLists(ctx context.Context, includeArchived bool) ([]model.List, error)
	ArchiveList(ctx context.Context, id string) error
	RestoreList(ctx context.Context, id string) error
}

// TagStore is the tag CRUD surface.
type TagStore interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	UpdateTag(ctx context.Context, tag model.Tag) error
	DeleteTag(ctx context.Context, id string) error
	GetTags(ctx context.Context) ([]model.Tag, error)
	GetTagsForTask(ctx context.Context, taskID string) ([]model.Tag, error)
	SetTaskTags(ctx context.Context, taskID string, tagIDs []string) error
}

// Store defines the full persistence interface.
type Store interface {
	TaskStore
	ScheduleStore
	ListStore
	TagStore
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
