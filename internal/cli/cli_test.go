package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/store"
)

// resetFlags restores every flag to its default; cobra keeps flag state
// between Execute calls on the same command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

type runner struct {
	dir string
}

func newRunner(t *testing.T) *runner {
	t.Helper()
	return &runner{dir: t.TempDir()}
}

func (r *runner) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{
		"--config", filepath.Join(r.dir, "config.yaml"),
		"--db", filepath.Join(r.dir, "planner.db"),
	}, args...))

	err := rootCmd.Execute()
	return out.String(), err
}

func (r *runner) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := r.run(t, args...)
	require.NoError(t, err, out)
	return out
}

// addedID extracts the ID from "Added <id>  <title>".
func addedID(t *testing.T, out string) string {
	t.Helper()
	fields := strings.Fields(out)
	require.GreaterOrEqual(t, len(fields), 2, out)
	return fields[1]
}

func TestTaskLifecycle(t *testing.T) {
	r := newRunner(t)

	id := addedID(t, r.mustRun(t, "task", "add", "Write", "report", "--due", "2030-01-07", "--time", "17:00", "--estimate", "90"))

	out := r.mustRun(t, "task", "show", id)
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "2030-01-07 17:00")
	assert.Contains(t, out, "estimate:  90m")

	out = r.mustRun(t, "task", "list")
	assert.Contains(t, out, "[ ] "+id)

	r.mustRun(t, "task", "done", id)
	out = r.mustRun(t, "task", "list")
	assert.Contains(t, out, "No tasks found.")
	out = r.mustRun(t, "task", "list", "--all")
	assert.Contains(t, out, "[x] "+id)

	r.mustRun(t, "task", "delete", id)
	_, err := r.run(t, "task", "show", id)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestAgendaProjectsRepeatingTask(t *testing.T) {
	r := newRunner(t)

	// 2030-01-07 is a Monday.
	id := addedID(t, r.mustRun(t, "task", "add", "Standup", "--due", "2030-01-07", "--time", "09:30", "--repeat", "weekdays"))
	r.mustRun(t, "task", "add", "Dentist", "--due", "2030-01-09", "--time", "08:00")

	out := r.mustRun(t, "agenda", "--from", "2030-01-07", "--to", "2030-01-13", "--json")
	var occ []model.Occurrence
	require.NoError(t, json.Unmarshal([]byte(out), &occ))

	standups := 0
	for _, o := range occ {
		if o.ID == id {
			standups++
			assert.True(t, o.Virtual)
		}
	}
	assert.Equal(t, 5, standups)
	require.Len(t, occ, 6)

	// Dentist at 08:00 sorts ahead of the 09:30 standup on the 9th.
	assert.Equal(t, "Dentist", occ[2].Title)

	text := r.mustRun(t, "agenda", "--from", "2030-01-07", "--to", "2030-01-07")
	assert.Contains(t, text, "Monday, Jan 07 2030")
	assert.Contains(t, text, id+"@2030-01-07")
}

func TestAgendaRejectsBadRange(t *testing.T) {
	r := newRunner(t)
	_, err := r.run(t, "agenda", "--from", "2030-01-10", "--to", "2030-01-07")
	assert.Error(t, err)

	_, err = r.run(t, "agenda", "--from", "next week")
	assert.Error(t, err)
}

func TestTaskRepeat(t *testing.T) {
	r := newRunner(t)
	id := addedID(t, r.mustRun(t, "task", "add", "Review", "--due", "2030-01-07"))

	out := r.mustRun(t, "task", "repeat", id, "every 2 weeks", "--until", "2030-03-01")
	assert.Contains(t, out, "Review repeats")

	out = r.mustRun(t, "task", "show", id)
	assert.Contains(t, out, "until 2030-03-01")

	out = r.mustRun(t, "task", "repeat", id, "none")
	assert.Contains(t, out, "no longer repeats")

	_, err := r.run(t, "task", "repeat", id, "every fortnight")
	assert.Error(t, err)

	noDue := addedID(t, r.mustRun(t, "task", "add", "Someday"))
	_, err = r.run(t, "task", "repeat", noDue, "daily")
	assert.Error(t, err)
}

func TestRemindersSetAndDismiss(t *testing.T) {
	r := newRunner(t)
	id := addedID(t, r.mustRun(t, "task", "add", "Dentist", "--due", "2030-01-09", "--time", "14:30"))

	out := r.mustRun(t, "reminders", "set", id)
	assert.Contains(t, out, "2030-01-09 14:15")

	out = r.mustRun(t, "reminders", "set", id, "--time", "")
	assert.Contains(t, out, "2030-01-09 08:45")

	_, err := r.run(t, "reminders", "set", id, "--date", "2001-01-01")
	assert.Error(t, err)

	out = r.mustRun(t, "reminders", "pending")
	assert.Equal(t, "0\n", out)

	out = r.mustRun(t, "reminders", "snooze", id)
	assert.Contains(t, out, "Snoozed Dentist until")

	out = r.mustRun(t, "reminders", "dismiss", id)
	assert.Contains(t, out, "Dismissed reminder for Dentist")

	out = r.mustRun(t, "task", "show", id)
	assert.Contains(t, out, "reminder:  -")

	_, err = r.run(t, "reminders", "snooze", "missing")
	assert.Error(t, err)
}

func TestListsAndTags(t *testing.T) {
	r := newRunner(t)

	out := r.mustRun(t, "list", "add", "Work")
	listID := strings.Fields(out)[2]
	out = r.mustRun(t, "tag", "add", "urgent")
	tagID := strings.Fields(out)[2]

	taskID := addedID(t, r.mustRun(t, "task", "add", "Ship", "--list", listID, "--tag", tagID))

	out = r.mustRun(t, "task", "list", "--tag", tagID)
	assert.Contains(t, out, taskID)
	out = r.mustRun(t, "task", "show", taskID)
	assert.Contains(t, out, "tags:      urgent")

	r.mustRun(t, "list", "archive", listID)
	out = r.mustRun(t, "list", "ls")
	assert.Contains(t, out, "No lists.")
	out = r.mustRun(t, "list", "ls", "--archived")
	assert.Contains(t, out, "(archived)")

	out = r.mustRun(t, "list", "restore", listID)
	assert.Contains(t, out, "Restored "+listID)
	out = r.mustRun(t, "list", "ls")
	assert.Contains(t, out, "Work")
	assert.NotContains(t, out, "(archived)")
	out = r.mustRun(t, "list", "archive", listID)
	assert.Contains(t, out, "Archived "+listID)

	r.mustRun(t, "list", "delete", listID)
	out = r.mustRun(t, "task", "list", "--list", "inbox")
	assert.Contains(t, out, taskID)

	r.mustRun(t, "tag", "delete", tagID)
	out = r.mustRun(t, "tag", "ls")
	assert.Contains(t, out, "No tags.")
}

func TestConfigInitAndShow(t *testing.T) {
	r := newRunner(t)

	out := r.mustRun(t, "config", "init")
	assert.Contains(t, out, "config.yaml")

	_, err := r.run(t, "config", "init")
	assert.Error(t, err)
	r.mustRun(t, "config", "init", "--force")

	t.Setenv("PLANNER_NOTIFICATIONS_SNOOZE_MINUTES", "25")
	out = r.mustRun(t, "config", "show")
	var cfg model.AppConfig
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, 25, cfg.Notifications.SnoozeMinutes)
	assert.Equal(t, 15, cfg.Notifications.DefaultLeadMinutes)
	assert.Equal(t, filepath.Join(r.dir, "planner.db"), cfg.Storage.Path)
}
