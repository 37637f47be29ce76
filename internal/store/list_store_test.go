package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
	"github.com/nhle/planner/tests/testutil"
)

func TestListLifecycle(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	work := &model.List{Name: "Work"}
	home := &model.List{Name: "Home", Color: "#00aa00"}
	require.NoError(t, s.CreateList(ctx, work))
	require.NoError(t, s.CreateList(ctx, home))
	assert.Equal(t, 1, work.SortOrder)
	assert.Equal(t, 2, home.SortOrder)

	assert.Error(t, s.CreateList(ctx, &model.List{Name: " "}))

	require.NoError(t, s.ArchiveList(ctx, work.ID))
	lists, err := s.GetLists(ctx, false)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "Home", lists[0].Name)

	lists, err = s.GetLists(ctx, true)
	require.NoError(t, err)
	assert.Len(t, lists, 2)

	require.NoError(t, s.RestoreList(ctx, work.ID))
	got, err := s.GetListByID(ctx, work.ID)
	require.NoError(t, err)
	assert.False(t, got.Archived)

	got.Name = "Office"
	require.NoError(t, s.UpdateList(ctx, *got))
	got, err = s.GetListByID(ctx, work.ID)
	require.NoError(t, err)
	assert.Equal(t, "Office", got.Name)

	_, err = s.GetListByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteListMovesTasksToInbox(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	list := &model.List{Name: "Errands"}
	require.NoError(t, s.CreateList(ctx, list))
	task := &model.Task{Title: "Post office", ListID: &list.ID}
	require.NoError(t, s.CreateTask(ctx, task))

	require.NoError(t, s.DeleteList(ctx, list.ID))
	got, err := s.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ListID)

	assert.ErrorIs(t, s.DeleteList(ctx, list.ID), store.ErrNotFound)
}

func TestTagLifecycle(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewTestStore(t)

	deep := &model.Tag{Name: "deep-work"}
	quick := &model.Tag{Name: "quick"}
	require.NoError(t, s.CreateTag(ctx, deep))
	require.NoError(t, s.CreateTag(ctx, quick))
	assert.Error(t, s.CreateTag(ctx, &model.Tag{Name: ""}))

	task := &model.Task{Title: "Draft essay"}
	require.NoError(t, s.CreateTask(ctx, task))
	require.NoError(t, s.SetTaskTags(ctx, task.ID, []string{quick.ID, deep.ID}))

	tags, err := s.GetTagsForTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "deep-work", tags[0].Name)

	require.NoError(t, s.DeleteTag(ctx, quick.ID))
	tags, err = s.GetTagsForTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)

	deep.Name = "focus"
	require.NoError(t, s.UpdateTag(ctx, *deep))
	all, err := s.GetTags(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "focus", all[0].Name)

	assert.ErrorIs(t, s.DeleteTag(ctx, quick.ID), store.ErrNotFound)
}
