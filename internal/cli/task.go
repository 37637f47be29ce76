package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/recurrence"
	"github.com/nhle/planner/internal/store"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	RunE:  runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task complete",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [task-id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var taskRepeatCmd = &cobra.Command{
	Use:   "repeat [task-id] [phrase|none]",
	Short: "Set or clear a task's repeat rule",
	Long: `Set how a task repeats, e.g. "daily", "weekdays", "every 2 weeks",
"monthly". Use "none" to stop repeating. The task's due date anchors the series.`,
	Args: cobra.ExactArgs(2),
	RunE: runTaskRepeat,
}

func init() {
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskRepeatCmd)

	f := taskAddCmd.Flags()
	f.String("notes", "", "Notes")
	f.String("due", "", "Due date (YYYY-MM-DD, today, tomorrow)")
	f.String("time", "", "Due time (HH:MM)")
	f.Int("estimate", 0, "Estimated minutes")
	f.Int("priority", 0, "Priority tier 1 (urgent) to 4 (low)")
	f.String("list", "", "List ID")
	f.StringSlice("tag", nil, "Tag ID (repeatable)")
	f.String("repeat", "", `Repeat phrase, e.g. "weekly"`)
	f.String("until", "", "Last date of the repeat series")
	f.Bool("remind", false, "Set a reminder ahead of the deadline")

	lf := taskListCmd.Flags()
	lf.String("list", "", `List ID, or "inbox"`)
	lf.StringSlice("tag", nil, "Tag ID (any of)")
	lf.String("query", "", "Search title and notes")
	lf.String("due", "", "today, upcoming or overdue")
	lf.Bool("all", false, "Include completed tasks")
	lf.Bool("recurring", false, "Only repeating tasks")
	lf.String("sort", "due_date", "due_date, priority, created_at, updated_at, title, reminder_at")
	lf.Int("limit", 0, "Maximum number of tasks")

	taskDoneCmd.Flags().Bool("undo", false, "Mark incomplete again")
	taskRepeatCmd.Flags().String("until", "", "Last date of the repeat series")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	notes, _ := f.GetString("notes")
	due, _ := f.GetString("due")
	clock, _ := f.GetString("time")
	estimate, _ := f.GetInt("estimate")
	priority, _ := f.GetInt("priority")
	listID, _ := f.GetString("list")
	tags, _ := f.GetStringSlice("tag")
	repeat, _ := f.GetString("repeat")
	until, _ := f.GetString("until")
	remind, _ := f.GetBool("remind")

	task := &model.Task{
		Title:   strings.Join(args, " "),
		Notes:   notes,
		DueTime: clock,
	}
	if due != "" {
		d, err := parseDay(due)
		if err != nil {
			return err
		}
		task.DueDate = &d
	}
	if estimate > 0 {
		task.EstimatedMinutes = &estimate
	}
	if priority > 0 {
		task.Priority = &priority
	}
	if listID != "" {
		task.ListID = &listID
	}
	if repeat != "" {
		rule, err := recurrence.ParsePhrase(repeat)
		if err != nil {
			return err
		}
		task.RecurrenceRule = rule.Encode()
	}
	if until != "" {
		d, err := parseDay(until)
		if err != nil {
			return err
		}
		task.RecurrenceEndDate = &d
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	if err := e.store.CreateTask(ctx, task); err != nil {
		return err
	}
	if len(tags) > 0 {
		if err := e.store.SetTaskTags(ctx, task.ID, tags); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Added %s  %s\n", task.ID, task.Title)

	if remind {
		if task.DueDate == nil {
			return fmt.Errorf("--remind needs --due")
		}
		sched := e.scheduler(e.notifier())
		if err := sched.SetReminderFromDueDate(ctx, task.ID, *task.DueDate, task.DueTime); err != nil {
			return err
		}
		got, err := e.store.GetTaskByID(ctx, task.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Reminder at %s\n", formatWhen(got.ReminderAt))
	}
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	filter := store.TaskFilter{}

	if v, _ := f.GetString("list"); v != "" {
		filter.ListID = &v
	}
	filter.TagIDs, _ = f.GetStringSlice("tag")
	if v, _ := f.GetString("query"); v != "" {
		filter.Query = &v
	}
	if v, _ := f.GetString("due"); v != "" {
		filter.DueDate = &v
	}
	if all, _ := f.GetBool("all"); !all {
		incomplete := false
		filter.Completed = &incomplete
	}
	if recurring, _ := f.GetBool("recurring"); recurring {
		filter.Recurring = &recurring
	}
	filter.SortBy, _ = f.GetString("sort")
	filter.Limit, _ = f.GetInt("limit")

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	tasks, err := e.store.GetTasks(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return nil
	}
	now := time.Now()
	for _, t := range tasks {
		printTaskLine(out, t, now)
	}
	return nil
}

func printTaskLine(w io.Writer, t model.Task, now time.Time) {
	check := "[ ]"
	if t.Completed {
		check = "[x]"
	}
	due := "----------"
	if t.DueDate != nil {
		due = model.FormatDate(*t.DueDate)
	}
	repeat := ""
	if t.IsRecurring() {
		if rule, err := recurrence.ParseRule(t.RecurrenceRule); err == nil {
			repeat = "  ↻ " + recurrence.Describe(rule)
		}
	}
	overdue := ""
	if t.IsOverdue(now) {
		overdue = "  (overdue)"
	}
	fmt.Fprintf(w, "%s %s  %s  %s%s%s\n", check, t.ID, due, t.Title, repeat, overdue)
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	t, err := e.store.GetTaskByID(ctx, args[0])
	if err != nil {
		return err
	}
	tags, err := e.store.GetTagsForTask(ctx, t.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", t.Title)
	fmt.Fprintf(out, "  id:        %s\n", t.ID)
	if t.DueDate != nil {
		fmt.Fprintf(out, "  due:       %s %s\n", model.FormatDate(*t.DueDate), t.DueTime)
	}
	if t.EstimatedMinutes != nil {
		fmt.Fprintf(out, "  estimate:  %dm\n", *t.EstimatedMinutes)
	}
	if t.Priority != nil {
		fmt.Fprintf(out, "  priority:  P%d\n", *t.Priority)
	}
	if t.IsRecurring() {
		desc := "invalid rule " + t.RecurrenceRule
		if rule, err := recurrence.ParseRule(t.RecurrenceRule); err == nil {
			desc = recurrence.Describe(rule)
		}
		if t.RecurrenceEndDate != nil {
			desc += " until " + model.FormatDate(*t.RecurrenceEndDate)
		}
		fmt.Fprintf(out, "  repeats:   %s\n", desc)
	}
	fmt.Fprintf(out, "  reminder:  %s\n", formatWhen(t.ReminderAt))
	if len(tags) > 0 {
		names := make([]string, len(tags))
		for i, tg := range tags {
			names[i] = tg.Name
		}
		fmt.Fprintf(out, "  tags:      %s\n", strings.Join(names, ", "))
	}
	if t.Notes != "" {
		fmt.Fprintf(out, "\n%s\n", t.Notes)
	}
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	undo, _ := cmd.Flags().GetBool("undo")

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.store.CompleteTask(cmd.Context(), args[0], !undo); err != nil {
		return err
	}
	if undo {
		fmt.Fprintf(cmd.OutOrStdout(), "Reopened %s\n", args[0])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Completed %s\n", args[0])
	}
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.store.DeleteTask(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runTaskRepeat(cmd *cobra.Command, args []string) error {
	until, _ := cmd.Flags().GetString("until")

	var raw string
	if args[1] != "none" {
		rule, err := recurrence.ParsePhrase(args[1])
		if err != nil {
			return err
		}
		raw = rule.Encode()
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	task, err := e.store.GetTaskByID(ctx, args[0])
	if err != nil {
		return err
	}
	if raw != "" && task.DueDate == nil {
		return fmt.Errorf("task %s has no due date to anchor the repeat", task.ID)
	}

	endDate := task.RecurrenceEndDate
	if until != "" {
		d, err := parseDay(until)
		if err != nil {
			return err
		}
		endDate = &d
	}

	if err := e.store.SetRecurrence(ctx, task.ID, raw, endDate); err != nil {
		return err
	}
	if raw == "" {
		fmt.Fprintf(cmd.OutOrStdout(), "%s no longer repeats\n", task.Title)
		return nil
	}
	rule, _ := recurrence.ParseRule(raw)
	fmt.Fprintf(cmd.OutOrStdout(), "%s repeats %s\n", task.Title, recurrence.Describe(rule))
	return nil
}
