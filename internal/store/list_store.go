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

// listRow mirrors the lists table.
type listRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	Color     string `db:"color"`
	Archived  bool   `db:"archived"`
	SortOrder int    `db:"sort_order"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r listRow) toModel() (model.List, error) {
	list := model.List{
		ID:        r.ID,
		Name:      r.Name,
		Color:     r.Color,
		Archived:  r.Archived,
		SortOrder: r.SortOrder,
	}
	var err error
	if list.CreatedAt, err = parseTimestamp(r.CreatedAt); err != nil {
		return model.List{}, fmt.Errorf("list %s created_at: %w", r.ID, err)
	}
	if list.UpdatedAt, err = parseTimestamp(r.UpdatedAt); err != nil {
		return model.List{}, fmt.Errorf("list %s updated_at: %w", r.ID, err)
	}
	return list, nil
}

const listColumns = "id, name, color, archived, sort_order, created_at, updated_at"

// CreateList inserts a new list. New lists are appended after the
// current last list unless a sort order is given.
func (s *SQLiteStore) CreateList(ctx context.Context, list *model.List) error {
	list.Name = strings.TrimSpace(list.Name)
	if err := validate.Struct(list); err != nil {
		return fmt.Errorf("invalid list: %w", err)
	}
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	now := time.Now()
	list.CreatedAt = now
	list.UpdatedAt = now

	if list.SortOrder == 0 {
		var maxOrder int
		if err := s.db.GetContext(ctx, &maxOrder,
			"SELECT COALESCE(MAX(sort_order), 0) FROM lists"); err != nil {
			return fmt.Errorf("reading list order: %w", err)
		}
		list.SortOrder = maxOrder + 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lists (`+listColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		list.ID, list.Name, list.Color, boolToInt(list.Archived), list.SortOrder,
		formatTimestamp(list.CreatedAt), formatTimestamp(list.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("creating list: %w", err)
	}
	return nil
}

// UpdateList updates an existing list.
func (s *SQLiteStore) UpdateList(ctx context.Context, list model.List) error {
	list.Name = strings.TrimSpace(list.Name)
	if err := validate.Struct(list); err != nil {
		return fmt.Errorf("invalid list: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE lists SET
			name = ?, color = ?, archived = ?, sort_order = ?, updated_at = ?
		WHERE id = ?`,
		list.Name, list.Color, boolToInt(list.Archived), list.SortOrder,
		formatTimestamp(time.Now()), list.ID,
	)
	if err != nil {
		return fmt.Errorf("updating list %s: %w", list.ID, err)
	}
	return checkAffected(result, "list", list.ID)
}

// DeleteList removes a list. Its tasks move to the inbox (list_id NULL).
func (s *SQLiteStore) DeleteList(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM lists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting list %s: %w", id, err)
	}
	return checkAffected(result, "list", id)
}

// GetListByID retrieves a single list by ID.
func (s *SQLiteStore) GetListByID(ctx context.Context, id string) (*model.List, error) {
	var row listRow
	err := s.db.GetContext(ctx, &row,
		"SELECT "+listColumns+" FROM lists WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("list %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting list %s: %w", id, err)
	}

	list, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// GetLists retrieves all lists in sort order, optionally including archived ones.
func (s *SQLiteStore) GetLists(ctx context.Context, includeArchived bool) ([]model.List, error) {
	query := "SELECT " + listColumns + " FROM lists"
	if !includeArchived {
		query += " WHERE archived = 0"
	}
	query += " ORDER BY sort_order, name"

	var rows []listRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("querying lists: %w", err)
	}

	lists := make([]model.List, 0, len(rows))
	for _, r := range rows {
		list, err := r.toModel()
		if err != nil {
			return nil, err
		}
		lists = append(lists, list)
	}
	return lists, nil
}

// ArchiveList sets the archived flag to true.
func (s *SQLiteStore) ArchiveList(ctx context.Context, id string) error {
	return s.setListArchived(ctx, id, true)
}

// RestoreList sets the archived flag to false.
func (s *SQLiteStore) RestoreList(ctx context.Context, id string) error {
	return s.setListArchived(ctx, id, false)
}

func (s *SQLiteStore) setListArchived(ctx context.Context, id string, archived bool) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE lists SET archived = ?, updated_at = ? WHERE id = ?",
		boolToInt(archived), formatTimestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("archiving list %s: %w", id, err)
	}
	return checkAffected(result, "list", id)
}
