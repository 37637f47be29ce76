package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/nhle/planner/internal/api"
	"github.com/nhle/planner/internal/reminder"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the reminder scheduler",
	Long: `Serve the agenda, at-risk and reminder endpoints over HTTP, stream
reminder events on /events and expose Prometheus metrics on /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default server.addr)")
	serveCmd.Flags().Bool("no-reminders", false, "Do not start the reminder scheduler")
	serveCmd.Flags().Bool("debug", false, "Run gin in debug mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	noReminders, _ := cmd.Flags().GetBool("no-reminders")
	debug, _ := cmd.Flags().GetBool("debug")

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if addr == "" {
		addr = e.settings.Config().Server.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e.watchConfig()

	events := reminder.NewBroadcaster(0)
	sched := e.scheduler(e.notifier(events))
	if !noReminders {
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()
	}

	srv := api.NewServer(api.Config{
		Store:     e.store,
		Planner:   e.planner,
		Scheduler: sched,
		Events:    events,
		AgendaDays: func() int {
			return e.settings.Config().Planner.AgendaDays
		},
	})
	return srv.Run(ctx, addr)
}
