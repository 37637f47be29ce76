package reminder

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/nhle/planner/internal/model"
)

// EventKind identifies what a scheduler event reports.
type EventKind string

const (
	// EventShown is emitted once per due reminder per scheduler run.
	EventShown EventKind = "shown"

	// EventPending carries the number of due reminders after every cycle.
	EventPending EventKind = "pending"

	// EventOpened is emitted when the user activates a notification.
	EventOpened EventKind = "opened"
)

// Event is delivered to notifiers by the scheduler.
type Event struct {
	Kind  EventKind   `json:"kind"`
	Task  *model.Task `json:"task,omitempty"`
	Count int         `json:"count"`
	Sound bool        `json:"sound"`
	At    time.Time   `json:"at"`
}

// Notifier surfaces scheduler events to the user.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, ev Event) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, ev Event) error { return f(ctx, ev) }

// LogNotifier writes shown and opened events to the standard logger.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, ev Event) error {
	switch ev.Kind {
	case EventShown:
		log.Printf("[reminder] due: %s (%s)", ev.Task.Title, ev.Task.ID)
	case EventOpened:
		log.Printf("[reminder] opened: %s (%s)", ev.Task.Title, ev.Task.ID)
	}
	return nil
}

// MultiNotifier fans an event out to every notifier. All notifiers are
// tried; their errors are joined.
type MultiNotifier []Notifier

// Notify implements Notifier.
func (m MultiNotifier) Notify(ctx context.Context, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Broadcaster delivers events to any number of subscribers without ever
// blocking the scheduler. A subscriber that falls behind loses events.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	buffer int
}

// NewBroadcaster creates a broadcaster whose subscriber channels hold up
// to buffer events.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broadcaster{subs: make(map[chan Event]struct{}), buffer: buffer}
}

// Subscribe returns a channel of future events and a function that
// unsubscribes and closes it.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Notify implements Notifier.
func (b *Broadcaster) Notify(_ context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is full; drop rather than block the cycle.
		}
	}
	return nil
}
