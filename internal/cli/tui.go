package cli

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nhle/planner/internal/app"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/reminder"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal agenda with live reminders",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().String("log", "", "Log file (default ~/.config/planner/planner.log)")
}

func runTUI(cmd *cobra.Command, args []string) error {
	logPath, _ := cmd.Flags().GetString("log")
	if logPath == "" {
		logPath = filepath.Join(model.DefaultConfigDir(), "planner.log")
	}

	// The alternate screen owns the terminal; logs go to a file instead.
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	prev := log.Writer()
	log.SetOutput(logFile)
	defer log.SetOutput(prev)

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	e.watchConfig()

	ctx := cmd.Context()
	events := reminder.NewBroadcaster(0)
	sub, unsubscribe := events.Subscribe()
	defer unsubscribe()

	sched := e.scheduler(e.notifier(events))
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	return app.Run(ctx, app.Deps{
		Store:     e.store,
		Planner:   e.planner,
		Scheduler: sched,
		Settings:  e.settings,
		Events:    sub,
	})
}
