package app

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/reminder"
	"github.com/nhle/planner/internal/ui/reminderform"
)

type action string

const (
	actionSnooze   action = "snooze"
	actionDismiss  action = "dismiss"
	actionRemind   action = "remind"
	actionComplete action = "complete"
	actionOpen     action = "open"
)

// actionDoneMsg reports the outcome of a user action.
type actionDoneMsg struct {
	action action
	taskID string
	title  string
	err    error
}

func (a actionDoneMsg) summary() string {
	switch a.action {
	case actionSnooze:
		return "snoozed " + a.title
	case actionDismiss:
		return "dismissed " + a.title
	case actionRemind:
		return "reminder set for " + a.title
	case actionComplete:
		return "completed " + a.title
	default:
		return ""
	}
}

// eventMsg carries a scheduler event into the Bubble Tea loop.
type eventMsg reminder.Event

// eventsClosedMsg is sent once the event subscription is closed.
type eventsClosedMsg struct{}

// waitForEvent blocks until the next scheduler event. It is re-armed
// after every event so that exactly one wait is outstanding.
func waitForEvent(ch <-chan reminder.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

var errActionFailed = errors.New("action failed, see log")

// snooze pushes the task's reminder into the future.
func (m Model) snooze(task model.Task) tea.Cmd {
	s := m.deps.Scheduler
	return func() tea.Msg {
		msg := actionDoneMsg{action: actionSnooze, taskID: task.ID, title: task.Title}
		if !s.Snooze(context.Background(), task.ID) {
			msg.err = fmt.Errorf("snoozing %s: %w", task.Title, errActionFailed)
		}
		return msg
	}
}

// dismiss clears the task's reminder.
func (m Model) dismiss(task model.Task) tea.Cmd {
	s := m.deps.Scheduler
	return func() tea.Msg {
		msg := actionDoneMsg{action: actionDismiss, taskID: task.ID, title: task.Title}
		if !s.Dismiss(context.Background(), task.ID) {
			msg.err = fmt.Errorf("dismissing %s: %w", task.Title, errActionFailed)
		}
		return msg
	}
}

// setReminder derives the reminder from the submitted deadline.
func (m Model) setReminder(sub reminderform.SubmitMsg) tea.Cmd {
	s := m.deps.Scheduler
	st := m.deps.Store
	return func() tea.Msg {
		ctx := context.Background()
		msg := actionDoneMsg{action: actionRemind, taskID: sub.TaskID}
		if task, err := st.GetTaskByID(ctx, sub.TaskID); err == nil {
			msg.title = task.Title
		}
		msg.err = s.SetReminderFromDueDate(ctx, sub.TaskID, sub.DueDate, sub.DueTime)
		return msg
	}
}

// complete marks the source task done. For a recurring task this ends
// every future occurrence as well.
func (m Model) complete(task model.Task) tea.Cmd {
	st := m.deps.Store
	return func() tea.Msg {
		err := st.CompleteTask(context.Background(), task.ID, true)
		if err != nil {
			err = fmt.Errorf("completing %s: %w", task.Title, err)
		}
		return actionDoneMsg{action: actionComplete, taskID: task.ID, title: task.Title, err: err}
	}
}

// open reports the reminder as activated; the resulting opened event
// moves the agenda selection.
func (m Model) open(task model.Task) tea.Cmd {
	s := m.deps.Scheduler
	return func() tea.Msg {
		err := s.Open(context.Background(), task.ID)
		if err != nil {
			return actionDoneMsg{action: actionOpen, taskID: task.ID, title: task.Title, err: err}
		}
		return nil
	}
}

// checkNow runs a scheduler cycle immediately.
func (m Model) checkNow() tea.Cmd {
	s := m.deps.Scheduler
	return func() tea.Msg {
		if err := s.CheckNow(context.Background()); err != nil {
			return actionDoneMsg{err: err}
		}
		return nil
	}
}
