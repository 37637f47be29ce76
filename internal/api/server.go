// Package api exposes the planner over HTTP for tray and UI clients.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nhle/planner/internal/agenda"
	"github.com/nhle/planner/internal/reminder"
	"github.com/nhle/planner/internal/store"
)

// Server wires the HTTP routes to the planner components.
type Server struct {
	store      store.Store
	planner    *agenda.Planner
	scheduler  *reminder.Scheduler
	events     *reminder.Broadcaster
	now        func() time.Time
	agendaDays func() int
}

// Config holds the server's collaborators.
type Config struct {
	Store     store.Store
	Planner   *agenda.Planner
	Scheduler *reminder.Scheduler

	// Events feeds GET /events. It should also be registered as one of
	// the scheduler's notifiers.
	Events *reminder.Broadcaster

	// AgendaDays is the default agenda span when no range is given.
	AgendaDays func() int

	Now func() time.Time
}

// NewServer creates a server from cfg.
func NewServer(cfg Config) *Server {
	s := &Server{
		store:      cfg.Store,
		planner:    cfg.Planner,
		scheduler:  cfg.Scheduler,
		events:     cfg.Events,
		now:        cfg.Now,
		agendaDays: cfg.AgendaDays,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.agendaDays == nil {
		s.agendaDays = func() int { return 7 }
	}
	if s.events == nil {
		s.events = reminder.NewBroadcaster(0)
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), gin.Logger(), metricsMiddleware())

	r.GET("/agenda", s.getAgenda)
	r.GET("/at-risk", s.getAtRisk)

	reminders := r.Group("/reminders")
	reminders.GET("/upcoming", s.getUpcoming)
	reminders.GET("/pending", s.getPending)
	reminders.POST("/:id/snooze", s.snooze)
	reminders.POST("/:id/dismiss", s.dismiss)
	reminders.POST("/:id/open", s.open)

	tasks := r.Group("/tasks")
	tasks.POST("", s.createTask)
	tasks.GET("/:id", s.getTask)
	tasks.DELETE("/:id", s.deleteTask)
	tasks.POST("/:id/reminder", s.setReminder)

	r.GET("/events", s.streamEvents)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[api] listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	log.Printf("[api] server stopped")
	return nil
}
