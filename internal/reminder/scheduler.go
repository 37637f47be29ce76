// Package reminder runs the background reminder scheduler: it polls the
// store for due reminders, surfaces each one once per run, and owns the
// snooze and dismiss transitions.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nhle/planner/internal/model"
)

// DefaultReminderClock is the time of day used to derive a reminder from a
// due date that has no due time.
const DefaultReminderClock = "09:00"

// UpcomingWindow is how far ahead Upcoming looks.
const UpcomingWindow = 24 * time.Hour

// ErrReminderInPast is returned when a derived reminder time is not in the
// future. Nothing is written in that case.
var ErrReminderInPast = errors.New("reminder time is in the past")

// Store is the subset of the store the scheduler reads and writes.
type Store interface {
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	DueReminders(ctx context.Context, at time.Time) ([]model.Task, error)
	CountDueReminders(ctx context.Context, at time.Time) (int, error)
	UpcomingReminders(ctx context.Context, from, to time.Time, limit int) ([]model.Task, error)
	SetReminderAt(ctx context.Context, id string, at *time.Time) error
}

// Settings supplies the live notification configuration.
// *model.SettingsHolder implements it.
type Settings interface {
	Notifications() model.NotificationConfig
}

// StaticSettings is a fixed Settings value.
type StaticSettings model.NotificationConfig

// Notifications implements Settings.
func (s StaticSettings) Notifications() model.NotificationConfig {
	return model.NotificationConfig(s)
}

// Scheduler polls for due reminders on a fixed interval. The shown set
// lives only in memory, so a restarted scheduler surfaces still-due
// reminders again.
type Scheduler struct {
	store    Store
	settings Settings
	notifier Notifier
	now      func() time.Time

	// cycleMu serializes poll cycles with snooze, dismiss and set, so
	// those actions land between cycles and never inside one.
	cycleMu sync.Mutex
	shown   map[string]struct{}

	// mu guards the lifecycle fields below.
	mu      sync.Mutex
	running bool
	cron    *cron.Cron
	initial *time.Timer
	cancel  context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the scheduler's notion of now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// New creates a scheduler. A nil notifier logs events.
func New(store Store, settings Settings, notifier Notifier, opts ...Option) *Scheduler {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	s := &Scheduler{
		store:    store,
		settings: settings,
		notifier: notifier,
		now:      time.Now,
		shown:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins polling. The first check runs after the configured initial
// delay; later checks run every poll interval and never overlap. Starting
// a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	cfg := s.settings.Notifications()
	interval := time.Duration(cfg.PollIntervalSec) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	delay := time.Duration(cfg.InitialDelaySec) * time.Second

	runCtx, cancel := context.WithCancel(ctx)

	logger := cron.PrintfLogger(log.Default())
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() { s.tick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("scheduling reminder poll: %w", err)
	}

	// A restarted scheduler forgets what it showed, like a fresh process.
	s.cycleMu.Lock()
	clear(s.shown)
	s.cycleMu.Unlock()

	s.cron = c
	s.cancel = cancel
	s.running = true
	s.initial = time.AfterFunc(delay, func() { s.tick(runCtx) })
	c.Start()

	log.Printf("[reminder] scheduler started (interval %s, initial delay %s)", interval, delay)
	return nil
}

// Stop halts polling and waits for a cycle already in progress to finish.
// A tick that fires after Stop does nothing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.initial.Stop()
	done := s.cron.Stop().Done()
	cancel := s.cancel
	s.mu.Unlock()

	<-done
	cancel()
	log.Printf("[reminder] scheduler stopped")
}

// Running reports whether the scheduler is started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) tick(ctx context.Context) {
	if !s.Running() {
		return
	}
	if err := s.CheckNow(ctx); err != nil {
		log.Printf("[reminder] poll failed: %v", err)
	}
}

// CheckNow runs one poll cycle: it reports the pending count and surfaces
// every due reminder not yet shown in this run. On a storage error the
// cycle is abandoned and the pending count is not reported.
//
// Events are delivered after the cycle releases its lock, so a slow
// notifier does not hold up snooze, dismiss or set.
func (s *Scheduler) CheckNow(ctx context.Context) error {
	events, err := s.cycle(ctx)
	for _, ev := range events {
		s.emit(ctx, ev)
	}
	return err
}

// cycle updates the shown set under cycleMu and returns the events to deliver.
func (s *Scheduler) cycle(ctx context.Context) ([]Event, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	cfg := s.settings.Notifications()
	now := s.now()

	if !cfg.Enabled {
		remindersPending.Set(0)
		return []Event{{Kind: EventPending, Count: 0, At: now}}, nil
	}

	due, err := s.store.DueReminders(ctx, now)
	if err != nil {
		pollErrors.Inc()
		return nil, fmt.Errorf("loading due reminders: %w", err)
	}

	remindersPending.Set(float64(len(due)))
	events := []Event{{Kind: EventPending, Count: len(due), At: now}}

	stillDue := make(map[string]struct{}, len(due))
	for i := range due {
		task := due[i]
		stillDue[task.ID] = struct{}{}
		if _, ok := s.shown[task.ID]; ok {
			continue
		}
		events = append(events, Event{Kind: EventShown, Task: &task, Count: len(due), Sound: cfg.Sound, At: now})
		s.shown[task.ID] = struct{}{}
		remindersShown.Inc()
	}

	// A task that left the due set (completed, or rescheduled elsewhere)
	// may fire again once it is due again.
	for id := range s.shown {
		if _, ok := stillDue[id]; !ok {
			delete(s.shown, id)
		}
	}
	return events, nil
}

// emit delivers ev; delivery failures are logged and do not abort the cycle.
func (s *Scheduler) emit(ctx context.Context, ev Event) {
	if err := s.notifier.Notify(ctx, ev); err != nil {
		log.Printf("[reminder] delivering %s event: %v", ev.Kind, err)
	}
}

// Shown reports whether the reminder for taskID has been surfaced in this run.
func (s *Scheduler) Shown(taskID string) bool {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()
	_, ok := s.shown[taskID]
	return ok
}

// Snooze pushes the task's reminder snooze_minutes into the future so it
// fires again. It reports false, leaving state unchanged, on failure.
func (s *Scheduler) Snooze(ctx context.Context, taskID string) bool {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	minutes := s.settings.Notifications().SnoozeMinutes
	if minutes <= 0 {
		minutes = model.DefaultAppConfig().Notifications.SnoozeMinutes
	}
	at := s.now().Add(time.Duration(minutes) * time.Minute)

	err := s.store.SetReminderAt(ctx, taskID, &at)
	recordAction("snooze", err)
	if err != nil {
		log.Printf("[reminder] snoozing %s: %v", taskID, err)
		return false
	}
	delete(s.shown, taskID)
	return true
}

// Dismiss clears the task's reminder. It reports false, leaving state
// unchanged, on failure.
func (s *Scheduler) Dismiss(ctx context.Context, taskID string) bool {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	err := s.store.SetReminderAt(ctx, taskID, nil)
	recordAction("dismiss", err)
	if err != nil {
		log.Printf("[reminder] dismissing %s: %v", taskID, err)
		return false
	}
	delete(s.shown, taskID)
	return true
}

// SetReminderFromDueDate sets the reminder to the task's deadline (due
// date at dueTime, or 09:00) minus the default lead time. A result that is
// not in the future is rejected with ErrReminderInPast.
func (s *Scheduler) SetReminderFromDueDate(
	ctx context.Context,
	taskID string,
	dueDate time.Time,
	dueTime string,
) error {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	lead := s.settings.Notifications().DefaultLeadMinutes
	at := model.At(dueDate, dueTime, DefaultReminderClock).Add(-time.Duration(lead) * time.Minute)

	if !at.After(s.now()) {
		recordAction("set", ErrReminderInPast)
		return fmt.Errorf("task %s at %s: %w", taskID, at.Format("2006-01-02 15:04"), ErrReminderInPast)
	}

	err := s.store.SetReminderAt(ctx, taskID, &at)
	recordAction("set", err)
	if err != nil {
		log.Printf("[reminder] setting reminder for %s: %v", taskID, err)
		return fmt.Errorf("setting reminder for task %s: %w", taskID, err)
	}
	delete(s.shown, taskID)
	return nil
}

// Upcoming returns incomplete tasks whose reminder falls within the next
// 24 hours, soonest first, at most limit.
func (s *Scheduler) Upcoming(ctx context.Context, limit int) ([]model.Task, error) {
	now := s.now()
	tasks, err := s.store.UpcomingReminders(ctx, now, now.Add(UpcomingWindow), limit)
	if err != nil {
		return nil, fmt.Errorf("loading upcoming reminders: %w", err)
	}
	return tasks, nil
}

// PendingCount counts incomplete tasks whose reminder time has passed.
func (s *Scheduler) PendingCount(ctx context.Context) (int, error) {
	n, err := s.store.CountDueReminders(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("counting pending reminders: %w", err)
	}
	return n, nil
}

// Open reports that the user activated the notification for taskID, so
// that views can navigate to the task.
func (s *Scheduler) Open(ctx context.Context, taskID string) error {
	task, err := s.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("opening reminder for task %s: %w", taskID, err)
	}
	s.emit(ctx, Event{Kind: EventOpened, Task: task, At: s.now()})
	return nil
}
