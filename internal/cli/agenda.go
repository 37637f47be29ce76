package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/planner/internal/agenda"
	"github.com/nhle/planner/internal/model"
)

var agendaCmd = &cobra.Command{
	Use:   "agenda",
	Short: "Show tasks and repeating occurrences by date",
	Long: `Show every incomplete task due in a date range, with repeating tasks
projected onto each date they occur. Defaults to today plus the configured
number of agenda days.`,
	Args: cobra.NoArgs,
	RunE: runAgenda,
}

var atRiskCmd = &cobra.Command{
	Use:   "at-risk",
	Short: "List tasks whose remaining time is short of their estimate",
	Args:  cobra.NoArgs,
	RunE:  runAtRisk,
}

func init() {
	agendaCmd.Flags().String("from", "today", "First day (YYYY-MM-DD, today, tomorrow)")
	agendaCmd.Flags().String("to", "", "Last day, inclusive (default: from + agenda_days - 1)")
	agendaCmd.Flags().Bool("json", false, "Print JSON")

	atRiskCmd.Flags().Bool("json", false, "Print JSON")
}

func runAgenda(cmd *cobra.Command, args []string) error {
	fromFlag, _ := cmd.Flags().GetString("from")
	toFlag, _ := cmd.Flags().GetString("to")
	asJSON, _ := cmd.Flags().GetBool("json")

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	from, err := parseDay(fromFlag)
	if err != nil {
		return err
	}
	to := from.AddDate(0, 0, e.settings.Config().Planner.AgendaDays-1)
	if toFlag != "" {
		if to, err = parseDay(toFlag); err != nil {
			return err
		}
	}

	ctx := cmd.Context()
	occ, err := e.planner.TasksInRange(ctx, from, to)
	if err != nil {
		return err
	}
	risks, err := e.planner.AtRiskTasks(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, occ)
	}
	printAgenda(out, occ, agenda.RiskIndex(risks))
	return nil
}

// printAgenda groups occurrences under a heading per day.
func printAgenda(w io.Writer, occ []model.Occurrence, risks map[string]model.RiskAnnotation) {
	if len(occ) == 0 {
		fmt.Fprintln(w, "Nothing scheduled.")
		return
	}

	var day string
	for _, o := range occ {
		if d := model.FormatDate(o.Date()); d != day {
			if day != "" {
				fmt.Fprintln(w)
			}
			day = d
			fmt.Fprintf(w, "%s\n", o.Date().Format("Monday, Jan 02 2006"))
		}

		clock := o.DueTime
		if clock == "" {
			clock = "-----"
		}
		marker := " "
		if o.Virtual {
			marker = "↻"
		}
		line := fmt.Sprintf("  %s %s %-40s %s", clock, marker, o.Title, o.Key())
		if ann, ok := risks[o.ID]; ok && model.FormatDate(ann.Deadline) == day {
			line += fmt.Sprintf("  [%s: %s]", ann.Level, ann.Reason)
		}
		fmt.Fprintln(w, line)
	}
}

func runAtRisk(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	risks, err := e.planner.AtRiskTasks(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, risks)
	}
	if len(risks) == 0 {
		fmt.Fprintln(out, "No tasks at risk.")
		return nil
	}
	for _, r := range risks {
		fmt.Fprintf(out, "%-8s  %s  %-40s  %s\n",
			r.Level, r.Deadline.Format("Mon 02 Jan 15:04"), r.Title, r.Reason)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatWhen renders an optional timestamp for listings.
func formatWhen(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
