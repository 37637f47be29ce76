package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	dbPath     string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "planner",
		Short: "Planner - agenda, deadline risk and reminders for your tasks",
		Long: `Planner keeps personal tasks with due dates, estimates and repeat rules.

It projects repeating tasks onto an agenda, flags tasks whose remaining time
is running short of their estimate, and fires reminders ahead of deadlines.`,
		PersistentPreRunE: loadDotEnv,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/planner/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file (overrides storage.path)")

	rootCmd.AddCommand(agendaCmd)
	rootCmd.AddCommand(atRiskCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(tagCmd)
	rootCmd.AddCommand(remindersCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(configCmd)
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// loadDotEnv reads a .env file from the working directory, if any, so
// PLANNER_* overrides can live next to a project.
func loadDotEnv(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}
	return nil
}
