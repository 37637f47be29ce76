package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/planner/internal/model"
)

// taskColumns is the column list every task query selects, in taskRow order.
const taskColumns = `id, title, notes, list_id, priority, due_date, due_time,
	estimated_minutes, recurrence_rule, recurrence_end_date, reminder_at,
	completed, completed_at, created_at, updated_at`

// taskRow mirrors the tasks table; nullable columns use sql.Null* types.
type taskRow struct {
	ID                string         `db:"id"`
	Title             string         `db:"title"`
	Notes             string         `db:"notes"`
	ListID            sql.NullString `db:"list_id"`
	Priority          sql.NullInt64  `db:"priority"`
	DueDate           sql.NullString `db:"due_date"`
	DueTime           string         `db:"due_time"`
	EstimatedMinutes  sql.NullInt64  `db:"estimated_minutes"`
	RecurrenceRule    string         `db:"recurrence_rule"`
	RecurrenceEndDate sql.NullString `db:"recurrence_end_date"`
	ReminderAt        sql.NullString `db:"reminder_at"`
	Completed         bool           `db:"completed"`
	CompletedAt       sql.NullString `db:"completed_at"`
	CreatedAt         string         `db:"created_at"`
	UpdatedAt         string         `db:"updated_at"`
}

// toModel converts a stored row into a model.Task.
func (r taskRow) toModel() (model.Task, error) {
	task := model.Task{
		ID:             r.ID,
		Title:          r.Title,
		Notes:          r.Notes,
		DueTime:        r.DueTime,
		RecurrenceRule: r.RecurrenceRule,
		Completed:      r.Completed,
	}

	if r.ListID.Valid {
		id := r.ListID.String
		task.ListID = &id
	}
	if r.Priority.Valid {
		p := int(r.Priority.Int64)
		task.Priority = &p
	}
	if r.EstimatedMinutes.Valid {
		m := int(r.EstimatedMinutes.Int64)
		task.EstimatedMinutes = &m
	}

	var err error
	if task.DueDate, err = parseNullDate(r.DueDate); err != nil {
		return model.Task{}, fmt.Errorf("task %s due_date: %w", r.ID, err)
	}
	if task.RecurrenceEndDate, err = parseNullDate(r.RecurrenceEndDate); err != nil {
		return model.Task{}, fmt.Errorf("task %s recurrence_end_date: %w", r.ID, err)
	}
	if task.ReminderAt, err = parseNullTimestamp(r.ReminderAt); err != nil {
		return model.Task{}, fmt.Errorf("task %s reminder_at: %w", r.ID, err)
	}
	if task.CompletedAt, err = parseNullTimestamp(r.CompletedAt); err != nil {
		return model.Task{}, fmt.Errorf("task %s completed_at: %w", r.ID, err)
	}
	if task.CreatedAt, err = parseTimestamp(r.CreatedAt); err != nil {
		return model.Task{}, fmt.Errorf("task %s created_at: %w", r.ID, err)
	}
	if task.UpdatedAt, err = parseTimestamp(r.UpdatedAt); err != nil {
		return model.Task{}, fmt.Errorf("task %s updated_at: %w", r.ID, err)
	}

	return task, nil
}

// selectTasks runs a task query and converts every row.
func (s *SQLiteStore) selectTasks(
	ctx context.Context,
	query string,
	args ...interface{},
) ([]model.Task, error) {
	var rows []taskRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		task, err := r.toModel()
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

// CreateTask inserts a new task. Generates a UUID if ID is empty and
// writes the generated ID and timestamps back into task.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *model.Task) error {
	if err := validateTask(task); err != nil {
		return err
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Completed && task.CompletedAt == nil {
		task.CompletedAt = &now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Notes, nullString(task.ListID), nullInt(task.Priority),
		nullDate(task.DueDate), task.DueTime, nullInt(task.EstimatedMinutes),
		task.RecurrenceRule, nullDate(task.RecurrenceEndDate), nullTimestamp(task.ReminderAt),
		boolToInt(task.Completed), nullTimestamp(task.CompletedAt),
		formatTimestamp(task.CreatedAt), formatTimestamp(task.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

// UpdateTask updates an existing task by ID.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task model.Task) error {
	if err := validateTask(&task); err != nil {
		return err
	}

	now := time.Now()
	task.UpdatedAt = now

	// Auto-manage completed_at based on the completed flag.
	if task.Completed && task.CompletedAt == nil {
		task.CompletedAt = &now
	} else if !task.Completed {
		task.CompletedAt = nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, notes = ?, list_id = ?, priority = ?,
			due_date = ?, due_time = ?, estimated_minutes = ?,
			recurrence_rule = ?, recurrence_end_date = ?, reminder_at = ?,
			completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		task.Title, task.Notes, nullString(task.ListID), nullInt(task.Priority),
		nullDate(task.DueDate), task.DueTime, nullInt(task.EstimatedMinutes),
		task.RecurrenceRule, nullDate(task.RecurrenceEndDate), nullTimestamp(task.ReminderAt),
		boolToInt(task.Completed), nullTimestamp(task.CompletedAt), formatTimestamp(task.UpdatedAt),
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", task.ID, err)
	}
	return checkAffected(result, "task", task.ID)
}

// DeleteTask removes a task by ID. Cascades to task_tags.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return checkAffected(result, "task", id)
}

// GetTaskByID retrieves a single task by ID, including its tags.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var row taskRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	task, err := row.toModel()
	if err != nil {
		return nil, err
	}

	tags, err := s.GetTagsForTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading tags for task %s: %w", id, err)
	}
	task.Tags = tags

	return &task, nil
}

// GetTasks retrieves tasks matching the filter.
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query, args := buildTaskQuery("SELECT "+prefixed(taskColumns), filter)

	tasks, err := s.selectTasks(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}

	for i := range tasks {
		tags, err := s.GetTagsForTask(ctx, tasks[i].ID)
		if err != nil {
			return nil, fmt.Errorf("loading tags for task %s: %w", tasks[i].ID, err)
		}
		tasks[i].Tags = tags
	}

	return tasks, nil
}

// GetTaskCount returns the count of tasks matching the filter.
func (s *SQLiteStore) GetTaskCount(ctx context.Context, filter TaskFilter) (int, error) {
	query, args := buildTaskQuery("SELECT COUNT(DISTINCT tasks.id)", filter)

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("counting tasks: %w", err)
	}
	return count, nil
}

// CompleteTask marks a task complete or reopens it.
func (s *SQLiteStore) CompleteTask(ctx context.Context, id string, completed bool) error {
	now := time.Now()
	completedAt := sql.NullString{}
	if completed {
		completedAt = nullTimestamp(&now)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET completed = ?, completed_at = ?, updated_at = ? WHERE id = ?",
		boolToInt(completed), completedAt, formatTimestamp(now), id,
	)
	if err != nil {
		return fmt.Errorf("completing task %s: %w", id, err)
	}
	return checkAffected(result, "task", id)
}

// TasksDueBetween returns incomplete, non-recurring tasks due in [from, to].
func (s *SQLiteStore) TasksDueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	tasks, err := s.selectTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE completed = 0
			AND recurrence_rule = ''
			AND due_date IS NOT NULL
			AND due_date >= ? AND due_date <= ?
		ORDER BY due_date, due_time`,
		model.FormatDate(from), model.FormatDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("querying tasks due between %s and %s: %w",
			model.FormatDate(from), model.FormatDate(to), err)
	}
	return tasks, nil
}

// RecurringCandidates returns incomplete recurring tasks whose series can
// overlap [from, to].
func (s *SQLiteStore) RecurringCandidates(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	tasks, err := s.selectTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE completed = 0
			AND recurrence_rule != ''
			AND due_date IS NOT NULL
			AND due_date <= ?
			AND (recurrence_end_date IS NULL OR recurrence_end_date >= ?)
		ORDER BY due_date, due_time`,
		model.FormatDate(to), model.FormatDate(from),
	)
	if err != nil {
		return nil, fmt.Errorf("querying recurring tasks for %s..%s: %w",
			model.FormatDate(from), model.FormatDate(to), err)
	}
	return tasks, nil
}

// RiskCandidates returns incomplete tasks with an estimate and a due date
// in [from, to].
func (s *SQLiteStore) RiskCandidates(ctx context.Context, from, to time.Time) ([]model.Task, error) {
	tasks, err := s.selectTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE completed = 0
			AND due_date IS NOT NULL
			AND estimated_minutes IS NOT NULL
			AND due_date >= ? AND due_date <= ?
		ORDER BY due_date, due_time`,
		model.FormatDate(from), model.FormatDate(to),
	)
	if err != nil {
		return nil, fmt.Errorf("querying risk candidates: %w", err)
	}
	return tasks, nil
}

// DueReminders returns incomplete tasks whose reminder time has passed.
func (s *SQLiteStore) DueReminders(ctx context.Context, at time.Time) ([]model.Task, error) {
	tasks, err := s.selectTasks(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE completed = 0
			AND reminder_at IS NOT NULL
			AND reminder_at <= ?
		ORDER BY reminder_at`,
		formatTimestamp(at),
	)
	if err != nil {
		return nil, fmt.Errorf("querying due reminders: %w", err)
	}
	return tasks, nil
}

// CountDueReminders counts incomplete tasks whose reminder time has passed.
func (s *SQLiteStore) CountDueReminders(ctx context.Context, at time.Time) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM tasks
		WHERE completed = 0
			AND reminder_at IS NOT NULL
			AND reminder_at <= ?`,
		formatTimestamp(at),
	)
	if err != nil {
		return 0, fmt.Errorf("counting due reminders: %w", err)
	}
	return count, nil
}

// UpcomingReminders returns incomplete tasks with reminder_at in [from, to].
func (s *SQLiteStore) UpcomingReminders(
	ctx context.Context,
	from, to time.Time,
	limit int,
) ([]model.Task, error) {
	query := `
		SELECT ` + taskColumns + ` FROM tasks
		WHERE completed = 0
			AND reminder_at IS NOT NULL
			AND reminder_at >= ? AND reminder_at <= ?
		ORDER BY reminder_at`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	tasks, err := s.selectTasks(ctx, query, formatTimestamp(from), formatTimestamp(to))
	if err != nil {
		return nil, fmt.Errorf("querying upcoming reminders: %w", err)
	}
	return tasks, nil
}

// SetReminderAt writes (or clears, when at is nil) a task's reminder time.
func (s *SQLiteStore) SetReminderAt(ctx context.Context, id string, at *time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET reminder_at = ?, updated_at = ? WHERE id = ?",
		nullTimestamp(at), formatTimestamp(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("setting reminder for task %s: %w", id, err)
	}
	return checkAffected(result, "task", id)
}

// SetRecurrence writes a task's recurrence rule and end date. An empty
// rule removes recurrence and clears the end date.
func (s *SQLiteStore) SetRecurrence(
	ctx context.Context,
	id string,
	rule string,
	endDate *time.Time,
) error {
	if rule != "" {
		if err := validateRule(rule); err != nil {
			return err
		}
	} else {
		endDate = nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET recurrence_rule = ?, recurrence_end_date = ?, updated_at = ?
		WHERE id = ?`,
		rule, nullDate(endDate), formatTimestamp(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("setting recurrence for task %s: %w", id, err)
	}
	return checkAffected(result, "task", id)
}

// prefixed qualifies every column in a column list with "tasks.".
func prefixed(columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = "tasks." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// buildTaskQuery constructs the SQL query and args for a TaskFilter.
func buildTaskQuery(selectClause string, filter TaskFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	from := " FROM tasks"
	if len(filter.TagIDs) > 0 {
		from += " INNER JOIN task_tags ON tasks.id = task_tags.task_id"
	}

	if filter.Completed != nil {
		conditions = append(conditions, "tasks.completed = ?")
		args = append(args, boolToInt(*filter.Completed))
	}
	if filter.ListID != nil {
		if *filter.ListID == "inbox" {
			conditions = append(conditions, "tasks.list_id IS NULL")
		} else {
			conditions = append(conditions, "tasks.list_id = ?")
			args = append(args, *filter.ListID)
		}
	}
	if len(filter.TagIDs) > 0 {
		placeholders := make([]string, len(filter.TagIDs))
		for i, id := range filter.TagIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		conditions = append(conditions,
			"task_tags.tag_id IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions,
			"(tasks.title LIKE ? OR tasks.notes LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}
	if filter.Recurring != nil {
		if *filter.Recurring {
			conditions = append(conditions, "tasks.recurrence_rule != ''")
		} else {
			conditions = append(conditions, "tasks.recurrence_rule = ''")
		}
	}
	if filter.DueDate != nil {
		now := time.Now()
		today := model.FormatDate(now)
		switch *filter.DueDate {
		case "today":
			conditions = append(conditions, "tasks.due_date = ?")
			args = append(args, today)
		case "upcoming":
			weekFromNow := model.FormatDate(now.AddDate(0, 0, 7))
			conditions = append(conditions,
				"tasks.due_date >= ? AND tasks.due_date < ?")
			args = append(args, today, weekFromNow)
		case "overdue":
			conditions = append(conditions,
				"tasks.due_date < ? AND tasks.completed = 0")
			args = append(args, today)
		}
	}

	query := selectClause + from
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if strings.HasPrefix(selectClause, "SELECT COUNT") {
		return query, args
	}
	if len(filter.TagIDs) > 0 {
		query += " GROUP BY tasks.id"
	}

	sortBy := "tasks.due_date"
	if filter.SortBy != "" {
		allowed := map[string]string{
			"due_date":    "tasks.due_date",
			"priority":    "tasks.priority",
			"reminder_at": "tasks.reminder_at",
			"created_at":  "tasks.created_at",
			"updated_at":  "tasks.updated_at",
			"title":       "tasks.title",
		}
		if col, ok := allowed[filter.SortBy]; ok {
			sortBy = col
		}
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s IS NULL, %s %s, tasks.created_at", sortBy, sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return query, args
}
