package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nhle/planner/internal/agenda"
	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/recurrence"
	"github.com/nhle/planner/internal/reminder"
	"github.com/nhle/planner/internal/store"
)

// agendaItem is one agenda entry with its composite key and risk badge.
type agendaItem struct {
	Key string `json:"key"`
	model.Occurrence
	Risk *model.RiskAnnotation `json:"risk,omitempty"`
}

type agendaResponse struct {
	From  string       `json:"from"`
	To    string       `json:"to"`
	Items []agendaItem `json:"items"`
}

func (s *Server) getAgenda(c *gin.Context) {
	today := model.DateOf(s.now())
	from, to := today, today.AddDate(0, 0, s.agendaDays()-1)

	var err error
	if v := c.Query("from"); v != "" {
		if from, err = model.ParseDate(v); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		if c.Query("to") == "" {
			to = from.AddDate(0, 0, s.agendaDays()-1)
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = model.ParseDate(v); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	if to.Before(from) {
		fail(c, http.StatusBadRequest, "to must not be before from")
		return
	}

	occ, err := s.planner.TasksInRange(c.Request.Context(), from, to)
	if err != nil {
		s.internalError(c, err)
		return
	}
	risks, err := s.planner.AtRiskTasks(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	idx := agenda.RiskIndex(risks)

	items := make([]agendaItem, 0, len(occ))
	for _, o := range occ {
		item := agendaItem{Key: o.Key(), Occurrence: o}
		if ann, ok := idx[o.ID]; ok && !o.Virtual {
			item.Risk = &ann
		}
		items = append(items, item)
	}

	success(c, agendaResponse{From: model.FormatDate(from), To: model.FormatDate(to), Items: items})
}

func (s *Server) getAtRisk(c *gin.Context) {
	risks, err := s.planner.AtRiskTasks(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	if risks == nil {
		risks = []model.RiskAnnotation{}
	}
	success(c, risks)
}

func (s *Server) getUpcoming(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			fail(c, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	tasks, err := s.scheduler.Upcoming(c.Request.Context(), limit)
	if err != nil {
		s.internalError(c, err)
		return
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	success(c, tasks)
}

func (s *Server) getPending(c *gin.Context) {
	n, err := s.scheduler.PendingCount(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	success(c, gin.H{"count": n})
}

// requireTask loads the task named by the :id parameter, answering 404
// when it does not exist.
func (s *Server) requireTask(c *gin.Context) (*model.Task, bool) {
	task, err := s.store.GetTaskByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, "task not found")
		return nil, false
	}
	if err != nil {
		s.internalError(c, err)
		return nil, false
	}
	return task, true
}

func (s *Server) snooze(c *gin.Context) {
	if _, ok := s.requireTask(c); !ok {
		return
	}
	if !s.scheduler.Snooze(c.Request.Context(), c.Param("id")) {
		fail(c, http.StatusInternalServerError, "could not snooze reminder")
		return
	}
	message(c, "reminder snoozed")
}

func (s *Server) dismiss(c *gin.Context) {
	if _, ok := s.requireTask(c); !ok {
		return
	}
	if !s.scheduler.Dismiss(c.Request.Context(), c.Param("id")) {
		fail(c, http.StatusInternalServerError, "could not dismiss reminder")
		return
	}
	message(c, "reminder dismissed")
}

func (s *Server) open(c *gin.Context) {
	err := s.scheduler.Open(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	message(c, "reminder opened")
}

type reminderRequest struct {
	DueDate string `json:"due_date" binding:"required"`
	DueTime string `json:"due_time"`
}

func (s *Server) setReminder(c *gin.Context) {
	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	due, err := model.ParseDate(req.DueDate)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.DueTime != "" {
		if _, _, err := model.ParseClock(req.DueTime); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	if _, ok := s.requireTask(c); !ok {
		return
	}

	err = s.scheduler.SetReminderFromDueDate(c.Request.Context(), c.Param("id"), due, req.DueTime)
	if errors.Is(err, reminder.ErrReminderInPast) {
		fail(c, http.StatusUnprocessableEntity, "reminder time has already passed")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}

	task, ok := s.requireTask(c)
	if !ok {
		return
	}
	success(c, task)
}

// taskRequest is the body of POST /tasks. Repeat takes a phrase such as
// "every 2 weeks".
type taskRequest struct {
	Title             string   `json:"title" binding:"required"`
	Notes             string   `json:"notes"`
	ListID            *string  `json:"list_id"`
	Priority          *int     `json:"priority"`
	DueDate           string   `json:"due_date"`
	DueTime           string   `json:"due_time"`
	EstimatedMinutes  *int     `json:"estimated_minutes"`
	Repeat            string   `json:"repeat"`
	RecurrenceEndDate string   `json:"recurrence_end_date"`
	TagIDs            []string `json:"tag_ids"`
}

func (r taskRequest) toTask() (*model.Task, error) {
	task := &model.Task{
		Title:            r.Title,
		Notes:            r.Notes,
		ListID:           r.ListID,
		Priority:         r.Priority,
		DueTime:          r.DueTime,
		EstimatedMinutes: r.EstimatedMinutes,
	}
	if r.DueDate != "" {
		d, err := model.ParseDate(r.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = &d
	}
	if strings.TrimSpace(r.Repeat) != "" {
		rule, err := recurrence.ParsePhrase(r.Repeat)
		if err != nil {
			return nil, err
		}
		task.RecurrenceRule = rule.Encode()
	}
	if r.RecurrenceEndDate != "" {
		d, err := model.ParseDate(r.RecurrenceEndDate)
		if err != nil {
			return nil, err
		}
		task.RecurrenceEndDate = &d
	}
	return task, nil
}

func (s *Server) createTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	task, err := req.toTask()
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := s.store.CreateTask(ctx, task); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.TagIDs) > 0 {
		if err := s.store.SetTaskTags(ctx, task.ID, req.TagIDs); err != nil {
			s.internalError(c, err)
			return
		}
	}

	saved, err := s.store.GetTaskByID(ctx, task.ID)
	if err != nil {
		s.internalError(c, err)
		return
	}
	created(c, saved)
}

func (s *Server) getTask(c *gin.Context) {
	task, ok := s.requireTask(c)
	if !ok {
		return
	}
	success(c, task)
}

func (s *Server) deleteTask(c *gin.Context) {
	err := s.store.DeleteTask(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, "task not found")
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	message(c, "task deleted")
}

// streamEvents relays scheduler events as server-sent events until the
// client disconnects.
func (s *Server) streamEvents(c *gin.Context) {
	events, unsubscribe := s.events.Subscribe()
	defer unsubscribe()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Kind), ev)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func (s *Server) internalError(c *gin.Context, err error) {
	log.Printf("[api] %s %s: %v", c.Request.Method, c.FullPath(), err)
	fail(c, http.StatusInternalServerError, "internal error")
}
