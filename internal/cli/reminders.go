package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nhle/planner/internal/credential"
	"github.com/nhle/planner/internal/reminder"
)

var remindersCmd = &cobra.Command{
	Use:     "reminders",
	Aliases: []string{"reminder"},
	Short:   "Fire and manage reminders",
}

var remindersWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll for due reminders and print them until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runRemindersWatch,
}

var remindersUpcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List reminders due in the next 24 hours",
	Args:  cobra.NoArgs,
	RunE:  runRemindersUpcoming,
}

var remindersPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Count reminders whose time has passed",
	Args:  cobra.NoArgs,
	RunE:  runRemindersPending,
}

var remindersSnoozeCmd = &cobra.Command{
	Use:   "snooze [task-id]",
	Short: "Push a reminder snooze_minutes into the future",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemindersSnooze,
}

var remindersDismissCmd = &cobra.Command{
	Use:   "dismiss [task-id]",
	Short: "Clear a task's reminder",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemindersDismiss,
}

var remindersSetCmd = &cobra.Command{
	Use:   "set [task-id]",
	Short: "Set a reminder ahead of the task's deadline",
	Long: `Set the reminder to the deadline minus notifications.default_lead_minutes.
The deadline is the task's due date and time unless --date/--time are given;
without a time, 09:00 is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemindersSet,
}

var remindersPasswordCmd = &cobra.Command{
	Use:   "password",
	Short: "Store the IMAP password for mail reminders in the system keyring",
	Args:  cobra.NoArgs,
	RunE:  runRemindersPassword,
}

func init() {
	remindersCmd.AddCommand(remindersWatchCmd)
	remindersCmd.AddCommand(remindersUpcomingCmd)
	remindersCmd.AddCommand(remindersPendingCmd)
	remindersCmd.AddCommand(remindersSnoozeCmd)
	remindersCmd.AddCommand(remindersDismissCmd)
	remindersCmd.AddCommand(remindersSetCmd)
	remindersCmd.AddCommand(remindersPasswordCmd)

	remindersWatchCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")
	remindersUpcomingCmd.Flags().Int("limit", 20, "Maximum number of reminders")
	remindersSetCmd.Flags().String("date", "", "Due date to count back from (YYYY-MM-DD, today, tomorrow)")
	remindersSetCmd.Flags().String("time", "", "Due time to count back from (HH:MM)")
}

func runRemindersWatch(cmd *cobra.Command, args []string) error {
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.watchConfig()

	out := cmd.OutOrStdout()
	printer := reminder.NotifierFunc(func(_ context.Context, ev reminder.Event) error {
		if ev.Kind == reminder.EventShown {
			fmt.Fprintf(out, "%s  ⏰ %s  (%s)\n", ev.At.Format("15:04"), ev.Task.Title, ev.Task.ID)
		}
		return nil
	})

	sched := e.scheduler(e.notifier(printer))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[metrics] %v", err)
			}
		}()
		defer srv.Close()
		log.Printf("[metrics] serving on %s", metricsAddr)
	}

	fmt.Fprintln(out, "Watching for reminders, press Ctrl+C to stop.")
	<-ctx.Done()
	return nil
}

func runRemindersUpcoming(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	tasks, err := e.scheduler(e.notifier()).Upcoming(cmd.Context(), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No reminders in the next 24 hours.")
		return nil
	}
	for _, t := range tasks {
		fmt.Fprintf(out, "%s  %s  %s\n", formatWhen(t.ReminderAt), t.ID, t.Title)
	}
	return nil
}

func runRemindersPending(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	n, err := e.scheduler(e.notifier()).PendingCount(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), n)
	return nil
}

func runRemindersSnooze(cmd *cobra.Command, args []string) error {
	return runRemindersAction(cmd, args[0], (*reminder.Scheduler).Snooze)
}

func runRemindersDismiss(cmd *cobra.Command, args []string) error {
	return runRemindersAction(cmd, args[0], (*reminder.Scheduler).Dismiss)
}

func runRemindersAction(
	cmd *cobra.Command,
	id string,
	action func(*reminder.Scheduler, context.Context, string) bool,
) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	sched := e.scheduler(e.notifier())
	ctx := cmd.Context()

	if !action(sched, ctx, id) {
		return fmt.Errorf("could not %s reminder for task %s", cmd.Name(), id)
	}

	task, err := e.store.GetTaskByID(ctx, id)
	if err != nil {
		return err
	}
	if task.ReminderAt == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Dismissed reminder for %s\n", task.Title)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Snoozed %s until %s\n", task.Title, formatWhen(task.ReminderAt))
	}
	return nil
}

func runRemindersSet(cmd *cobra.Command, args []string) error {
	dateFlag, _ := cmd.Flags().GetString("date")
	timeFlag, _ := cmd.Flags().GetString("time")

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

	due := task.DueDate
	if dateFlag != "" {
		d, err := parseDay(dateFlag)
		if err != nil {
			return err
		}
		due = &d
	}
	if due == nil {
		return fmt.Errorf("task %s has no due date; pass --date", task.ID)
	}
	clock := task.DueTime
	if cmd.Flags().Changed("time") {
		clock = timeFlag
	}

	sched := e.scheduler(e.notifier())
	if err := sched.SetReminderFromDueDate(ctx, task.ID, *due, clock); err != nil {
		return err
	}
	task, err = e.store.GetTaskByID(ctx, task.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Reminder for %s at %s\n", task.Title, formatWhen(task.ReminderAt))
	return nil
}

func runRemindersPassword(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	username := e.settings.Config().Mail.Username
	if username == "" {
		return fmt.Errorf("mail.username is not configured")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "IMAP password for %s: ", username)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("reading password: %w", err)
	}

	creds, err := credential.Open()
	if err != nil {
		return err
	}
	if err := creds.Set(credential.MailPasswordKey(username), strings.TrimRight(line, "\r\n")); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Saved.")
	return nil
}

