package reminder

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/tests/testutil"
)

// recorder collects every event it is notified of.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) kind(k EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == k {
			out = append(out, ev)
		}
	}
	return out
}

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func testSettings() StaticSettings {
	return StaticSettings{
		Enabled:            true,
		DefaultLeadMinutes: 15,
		SnoozeMinutes:      10,
		Sound:              true,
		PollIntervalSec:    60,
		InitialDelaySec:    0,
	}
}

type fixture struct {
	store interface {
		Store
		CreateTask(ctx context.Context, task *model.Task) error
	}
	clock *clock
	rec   *recorder
	sched *Scheduler
}

func newFixture(t *testing.T, settings Settings) *fixture {
	t.Helper()
	f := &fixture{
		store: testutil.NewTestStore(t),
		clock: &clock{now: time.Date(2024, time.March, 4, 12, 0, 0, 0, time.Local)},
		rec:   &recorder{},
	}
	f.sched = New(f.store, settings, f.rec, WithClock(f.clock.Now))
	return f
}

func (f *fixture) addTask(t *testing.T, title string, reminder *time.Time) *model.Task {
	t.Helper()
	task := &model.Task{Title: title, ReminderAt: reminder}
	require.NoError(t, f.store.CreateTask(context.Background(), task))
	return task
}

func at(t time.Time) *time.Time { return &t }

func TestCheckNowShowsDueReminderOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSettings())
	now := f.clock.Now()

	due := f.addTask(t, "Pay rent", at(now.Add(-time.Minute)))
	f.addTask(t, "Later", at(now.Add(time.Hour)))

	require.NoError(t, f.sched.CheckNow(ctx))
	require.NoError(t, f.sched.CheckNow(ctx))

	shown := f.rec.kind(EventShown)
	require.Len(t, shown, 1)
	assert.Equal(t, due.ID, shown[0].Task.ID)
	assert.True(t, shown[0].Sound)
	assert.True(t, f.sched.Shown(due.ID))

	pending := f.rec.kind(EventPending)
	require.Len(t, pending, 2)
	assert.Equal(t, 1, pending[1].Count)
}

func TestCheckNowDisabledReportsZero(t *testing.T) {
	settings := testSettings()
	settings.Enabled = false
	f := newFixture(t, settings)
	f.addTask(t, "Pay rent", at(f.clock.Now().Add(-time.Minute)))

	require.NoError(t, f.sched.CheckNow(context.Background()))

	assert.Empty(t, f.rec.kind(EventShown))
	pending := f.rec.kind(EventPending)
	require.Len(t, pending, 1)
	assert.Equal(t, 0, pending[0].Count)
}

func TestSnoozeRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSettings())
	start := f.clock.Now()

	task := f.addTask(t, "Stretch", at(start.Add(-time.Minute)))
	require.NoError(t, f.sched.CheckNow(ctx))
	require.Len(t, f.rec.kind(EventShown), 1)

	require.True(t, f.sched.Snooze(ctx, task.ID))
	assert.False(t, f.sched.Shown(task.ID))

	got, err := f.store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReminderAt)
	assert.WithinDuration(t, start.Add(10*time.Minute), *got.ReminderAt, time.Second)

	f.clock.Set(start.Add(10*time.Minute - time.Second))
	require.NoError(t, f.sched.CheckNow(ctx))
	assert.Len(t, f.rec.kind(EventShown), 1, "must not fire before the snoozed time")

	f.clock.Set(start.Add(10 * time.Minute))
	require.NoError(t, f.sched.CheckNow(ctx))
	assert.Len(t, f.rec.kind(EventShown), 2)
}

func TestDismissClearsReminder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSettings())

	task := f.addTask(t, "Call mom", at(f.clock.Now().Add(-time.Minute)))
	require.NoError(t, f.sched.CheckNow(ctx))
	require.True(t, f.sched.Dismiss(ctx, task.ID))

	got, err := f.store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ReminderAt)
	assert.False(t, f.sched.Shown(task.ID))

	count, err := f.sched.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSnoozeAndDismissUnknownTaskFail(t *testing.T) {
	f := newFixture(t, testSettings())
	assert.False(t, f.sched.Snooze(context.Background(), "missing"))
	assert.False(t, f.sched.Dismiss(context.Background(), "missing"))
}

func TestSetReminderFromDueDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSettings())
	now := f.clock.Now()
	tomorrow := model.DateOf(now).AddDate(0, 0, 1)

	task := f.addTask(t, "Dentist", nil)

	require.NoError(t, f.sched.SetReminderFromDueDate(ctx, task.ID, tomorrow, "14:30"))
	got, err := f.store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReminderAt)
	assert.True(t, model.At(tomorrow, "14:15", "").Equal(*got.ReminderAt))

	require.NoError(t, f.sched.SetReminderFromDueDate(ctx, task.ID, tomorrow, ""))
	got, err = f.store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, model.At(tomorrow, "08:45", "").Equal(*got.ReminderAt))
}

func TestSetReminderFromDueDateRejectsPast(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSettings())
	now := f.clock.Now()

	original := now.Add(2 * time.Hour)
	task := f.addTask(t, "Expired", &original)

	yesterday := model.DateOf(now).AddDate(0, 0, -1)
	err := f.sched.SetReminderFromDueDate(ctx, task.ID, yesterday, "")
	assert.ErrorIs(t, err, ErrReminderInPast)

	// Today at 12:10 minus 15 minutes lead is already past.
	err = f.sched.SetReminderFromDueDate(ctx, task.ID, model.DateOf(now), "12:10")
	assert.ErrorIs(t, err, ErrReminderInPast)

	got, err := f.store.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReminderAt)
	assert.True(t, original.Equal(*got.ReminderAt))
}

func TestUpcomingAndPendingCount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSettings())
	now := f.clock.Now()

	f.addTask(t, "due", at(now.Add(-time.Hour)))
	f.addTask(t, "soon", at(now.Add(5*time.Minute)))
	f.addTask(t, "tonight", at(now.Add(8*time.Hour)))
	f.addTask(t, "next week", at(now.Add(7*24*time.Hour)))

	upcoming, err := f.sched.Upcoming(ctx, 10)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "soon", upcoming[0].Title)
	assert.Equal(t, "tonight", upcoming[1].Title)

	upcoming, err = f.sched.Upcoming(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)

	count, err := f.sched.PendingCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOpenEmitsEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSettings())
	task := f.addTask(t, "Read", nil)

	require.NoError(t, f.sched.Open(ctx, task.ID))
	opened := f.rec.kind(EventOpened)
	require.Len(t, opened, 1)
	assert.Equal(t, task.ID, opened[0].Task.ID)

	assert.Error(t, f.sched.Open(ctx, "missing"))
}

func TestReminderFiresAgainAfterLeavingDueSet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSettings())
	now := f.clock.Now()

	task := f.addTask(t, "Backup", at(now.Add(-time.Minute)))
	require.NoError(t, f.sched.CheckNow(ctx))

	later := now.Add(time.Hour)
	require.NoError(t, f.store.SetReminderAt(ctx, task.ID, &later))
	require.NoError(t, f.sched.CheckNow(ctx))
	assert.False(t, f.sched.Shown(task.ID))

	f.clock.Set(later)
	require.NoError(t, f.sched.CheckNow(ctx))
	assert.Len(t, f.rec.kind(EventShown), 2)
}

// mockStore lets tests inject storage failures.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *mockStore) DueReminders(ctx context.Context, at time.Time) ([]model.Task, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *mockStore) CountDueReminders(ctx context.Context, at time.Time) (int, error) {
	args := m.Called(ctx, at)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) UpcomingReminders(ctx context.Context, from, to time.Time, limit int) ([]model.Task, error) {
	args := m.Called(ctx, from, to, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Task), args.Error(1)
}

func (m *mockStore) SetReminderAt(ctx context.Context, id string, at *time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func TestCheckNowStorageFailureSkipsPendingReport(t *testing.T) {
	ms := new(mockStore)
	ms.On("DueReminders", mock.Anything, mock.Anything).Return(nil, errors.New("database is locked"))

	rec := &recorder{}
	sched := New(ms, testSettings(), rec)

	err := sched.CheckNow(context.Background())
	assert.ErrorContains(t, err, "database is locked")
	assert.Empty(t, rec.kind(EventPending))
	ms.AssertExpectations(t)
}

func TestFailedSnoozeKeepsShownState(t *testing.T) {
	now := time.Date(2024, time.March, 4, 12, 0, 0, 0, time.Local)
	task := model.Task{ID: "t1", Title: "Pay rent", ReminderAt: at(now.Add(-time.Minute))}

	ms := new(mockStore)
	ms.On("DueReminders", mock.Anything, now).Return([]model.Task{task}, nil)
	ms.On("SetReminderAt", mock.Anything, "t1", mock.Anything).Return(errors.New("disk full"))

	rec := &recorder{}
	sched := New(ms, testSettings(), rec, WithClock(func() time.Time { return now }))

	require.NoError(t, sched.CheckNow(context.Background()))
	require.True(t, sched.Shown("t1"))

	assert.False(t, sched.Snooze(context.Background(), "t1"))
	assert.False(t, sched.Dismiss(context.Background(), "t1"))
	assert.True(t, sched.Shown("t1"))

	require.NoError(t, sched.CheckNow(context.Background()))
	assert.Len(t, rec.kind(EventShown), 1)
}

func TestStartStop(t *testing.T) {
	f := newFixture(t, testSettings())
	f.addTask(t, "Pay rent", at(f.clock.Now().Add(-time.Minute)))

	sub := NewBroadcaster(4)
	events, unsubscribe := sub.Subscribe()
	defer unsubscribe()
	f.sched.notifier = MultiNotifier{f.rec, sub}

	require.NoError(t, f.sched.Start(context.Background()))
	require.NoError(t, f.sched.Start(context.Background()))
	assert.True(t, f.sched.Running())

	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind != EventShown {
				continue
			}
			assert.Equal(t, "Pay rent", ev.Task.Title)
			f.sched.Stop()
			f.sched.Stop()
			assert.False(t, f.sched.Running())
			return
		case <-deadline:
			t.Fatal("initial poll did not run")
		}
	}
}

func TestRestartForgetsShownReminders(t *testing.T) {
	ctx := context.Background()
	settings := testSettings()
	settings.InitialDelaySec = 3600
	f := newFixture(t, settings)
	task := f.addTask(t, "Pay rent", at(f.clock.Now().Add(-time.Minute)))

	require.NoError(t, f.sched.Start(ctx))
	require.NoError(t, f.sched.CheckNow(ctx))
	assert.True(t, f.sched.Shown(task.ID))
	f.sched.Stop()

	require.NoError(t, f.sched.Start(ctx))
	defer f.sched.Stop()
	assert.False(t, f.sched.Shown(task.ID))

	require.NoError(t, f.sched.CheckNow(ctx))
	assert.Len(t, f.rec.kind(EventShown), 2)
}

// gateNotifier holds shown events until release is closed.
type gateNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gateNotifier) Notify(_ context.Context, ev Event) error {
	if ev.Kind == EventShown {
		g.entered <- struct{}{}
		<-g.release
	}
	return nil
}

func TestSlowDeliveryDoesNotBlockSnooze(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testSettings())
	task := f.addTask(t, "Pay rent", at(f.clock.Now().Add(-time.Minute)))

	gate := &gateNotifier{entered: make(chan struct{}, 1), release: make(chan struct{})}
	f.sched.notifier = gate

	done := make(chan error, 1)
	go func() { done <- f.sched.CheckNow(ctx) }()

	select {
	case <-gate.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("reminder was not delivered")
	}

	snoozed := make(chan bool, 1)
	go func() { snoozed <- f.sched.Snooze(ctx, task.ID) }()

	select {
	case ok := <-snoozed:
		assert.True(t, ok)
	case <-time.After(5 * time.Second):
		close(gate.release)
		t.Fatal("snooze waited for delivery to finish")
	}

	close(gate.release)
	require.NoError(t, <-done)
	assert.False(t, f.sched.Shown(task.ID))
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	b := NewBroadcaster(1)
	ch, cancel := b.Subscribe()

	require.NoError(t, b.Notify(context.Background(), Event{Kind: EventPending, Count: 1}))
	require.NoError(t, b.Notify(context.Background(), Event{Kind: EventPending, Count: 2}))

	ev := <-ch
	assert.Equal(t, 1, ev.Count)

	cancel()
	cancel()
	_, ok := <-ch
	assert.False(t, ok)
	require.NoError(t, b.Notify(context.Background(), Event{Kind: EventPending}))
}

func TestMultiNotifierJoinsErrors(t *testing.T) {
	rec := &recorder{}
	failing := NotifierFunc(func(context.Context, Event) error { return errors.New("smtp down") })

	err := MultiNotifier{failing, rec}.Notify(context.Background(), Event{Kind: EventPending})
	assert.ErrorContains(t, err, "smtp down")
	assert.Len(t, rec.kind(EventPending), 1)
}

func TestComposeReminder(t *testing.T) {
	due := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.Local)
	ev := Event{
		Kind: EventShown,
		At:   time.Date(2024, time.March, 4, 8, 45, 0, 0, time.Local),
		Task: &model.Task{Title: "Submit expenses", DueDate: &due, DueTime: "09:00", Notes: "receipts in drawer"},
	}

	var buf bytes.Buffer
	require.NoError(t, ComposeReminder(&buf, "planner@example.com", "me@example.com", ev))

	msg := buf.String()
	assert.Contains(t, msg, "Subject: Reminder: Submit expenses")
	assert.Contains(t, msg, "me@example.com")
	assert.Contains(t, msg, "Due: 2024-03-04 09:00")
	assert.True(t, strings.Contains(msg, "receipts in drawer"))
}
