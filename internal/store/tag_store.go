package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/planner/internal/model"
)

// tagRow mirrors the tags table.
type tagRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Color     string `db:"color"`
	CreatedAt string `db:"created_at"`
}

func (s *SQLiteStore) selectTags(ctx context.Context, query string, args ...interface{}) ([]model.Tag, error) {
	var rows []tagRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	tags := make([]model.Tag, 0, len(rows))
	for _, r := range rows {
		created, err := parseTimestamp(r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("tag %s created_at: %w", r.ID, err)
		}
		tags = append(tags, model.Tag{ID: r.ID, Name: r.Name, Color: r.Color, CreatedAt: created})
	}
	return tags, nil
}

// CreateTag inserts a new tag and writes the generated ID back into tag.
func (s *SQLiteStore) CreateTag(ctx context.Context, tag *model.Tag) error {
	tag.Name = strings.TrimSpace(tag.Name)
	if tag.Name == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	if tag.ID == "" {
		tag.ID = uuid.New().String()
	}
	tag.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO tags (id, name, color, created_at) VALUES (?, ?, ?, ?)",
		tag.ID, tag.Name, tag.Color, formatTimestamp(tag.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("creating tag: %w", err)
	}
	return nil
}

// UpdateTag updates a tag's name and color.
func (s *SQLiteStore) UpdateTag(ctx context.Context, tag model.Tag) error {
	if strings.TrimSpace(tag.Name) == "" {
		return fmt.Errorf("tag name must not be empty")
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE tags SET name = ?, color = ? WHERE id = ?",
		strings.TrimSpace(tag.Name), tag.Color, tag.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tag %s: %w", tag.ID, err)
	}
	return checkAffected(result, "tag", tag.ID)
}

// DeleteTag removes a tag. CASCADE on task_tags removes associations.
func (s *SQLiteStore) DeleteTag(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tag %s: %w", id, err)
	}
	return checkAffected(result, "tag", id)
}

// GetTags retrieves all tags ordered by name.
func (s *SQLiteStore) GetTags(ctx context.Context) ([]model.Tag, error) {
	tags, err := s.selectTags(ctx,
		"SELECT id, name, color, created_at FROM tags ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying tags: %w", err)
	}
	return tags, nil
}

// GetTagsForTask retrieves all tags associated with a task.
func (s *SQLiteStore) GetTagsForTask(ctx context.Context, taskID string) ([]model.Tag, error) {
	tags, err := s.selectTags(ctx, `
		SELECT t.id, t.name, t.color, t.created_at FROM tags t
		INNER JOIN task_tags tt ON t.id = tt.tag_id
		WHERE tt.task_id = ?
		ORDER BY t.name`, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying tags for task %s: %w", taskID, err)
	}
	return tags, nil
}

// SetTaskTags replaces all tag associations for a task.
func (s *SQLiteStore) SetTaskTags(ctx context.Context, taskID string, tagIDs []string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM task_tags WHERE task_id = ?", taskID); err != nil {
		return fmt.Errorf("clearing task tags: %w", err)
	}

	for _, tagID := range tagIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)",
			taskID, tagID); err != nil {
			return fmt.Errorf("setting tag %s on task %s: %w", tagID, taskID, err)
		}
	}

	return tx.Commit()
}
