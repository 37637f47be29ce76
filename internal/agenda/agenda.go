// Package agenda builds date-range views of tasks: concrete tasks and
// virtual occurrences of recurring tasks merged into one ordered list,
// plus deadline-risk annotations.
package agenda

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/recurrence"
	"github.com/nhle/planner/internal/risk"
)

// DefaultRiskWindowDays is how far ahead at-risk candidates are looked for
// when no window is configured.
const DefaultRiskWindowDays = 7

// Source is the subset of the store the planner reads from.
type Source interface {
	TasksDueBetween(ctx context.Context, from, to time.Time) ([]model.Task, error)
	RecurringCandidates(ctx context.Context, from, to time.Time) ([]model.Task, error)
	RiskCandidates(ctx context.Context, from, to time.Time) ([]model.Task, error)
}

// Planner answers agenda and at-risk queries.
type Planner struct {
	source     Source
	now        func() time.Time
	riskWindow func() int
}

// Option configures a Planner.
type Option func(*Planner)

// WithClock overrides the planner's notion of now.
func WithClock(now func() time.Time) Option {
	return func(p *Planner) { p.now = now }
}

// WithRiskWindow reads the look-ahead window (in days) from fn on every
// query, so live settings changes take effect immediately.
func WithRiskWindow(fn func() int) Option {
	return func(p *Planner) { p.riskWindow = fn }
}

// NewPlanner creates a planner reading from source.
func NewPlanner(source Source, opts ...Option) *Planner {
	p := &Planner{
		source:     source,
		now:        time.Now,
		riskWindow: func() int { return DefaultRiskWindowDays },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TasksInRange returns the incomplete tasks and recurring occurrences
// falling on [start, end], ordered by date, then due time (untimed last),
// then priority tier (unset last).
func (p *Planner) TasksInRange(ctx context.Context, start, end time.Time) ([]model.Occurrence, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s is before start %s",
			model.FormatDate(end), model.FormatDate(start))
	}

	single, err := p.source.TasksDueBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading tasks for %s..%s: %w",
			model.FormatDate(start), model.FormatDate(end), err)
	}
	recurring, err := p.source.RecurringCandidates(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("loading recurring tasks for %s..%s: %w",
			model.FormatDate(start), model.FormatDate(end), err)
	}

	out := make([]model.Occurrence, 0, len(single)+len(recurring))
	for _, t := range single {
		out = append(out, model.Occurrence{Task: t})
	}
	for _, t := range recurring {
		out = append(out, recurrence.Expand(t, start, end)...)
	}

	SortOccurrences(out)
	return out, nil
}

// AtRiskTasks returns risk annotations for incomplete, estimated tasks due
// between today and the end of the look-ahead window, most urgent first.
func (p *Planner) AtRiskTasks(ctx context.Context) ([]model.RiskAnnotation, error) {
	now := p.now()
	window := p.riskWindow()
	if window <= 0 {
		window = DefaultRiskWindowDays
	}
	today := model.DateOf(now)

	candidates, err := p.source.RiskCandidates(ctx, today, today.AddDate(0, 0, window))
	if err != nil {
		return nil, fmt.Errorf("loading risk candidates: %w", err)
	}

	var annotations []model.RiskAnnotation
	for _, t := range candidates {
		if ann, ok := risk.Annotate(t, now); ok {
			annotations = append(annotations, ann)
		}
	}

	sort.SliceStable(annotations, func(i, j int) bool {
		a, b := annotations[i], annotations[j]
		if a.Level != b.Level {
			return a.Level == model.RiskCritical
		}
		return a.Deadline.Before(b.Deadline)
	})
	return annotations, nil
}

// RiskIndex maps task IDs to their annotation for badge lookups.
func RiskIndex(annotations []model.RiskAnnotation) map[string]model.RiskAnnotation {
	idx := make(map[string]model.RiskAnnotation, len(annotations))
	for _, a := range annotations {
		idx[a.TaskID] = a
	}
	return idx
}

// SortOccurrences orders entries by date ascending, then due time with
// untimed entries last, then priority tier with unset last. The sort is
// stable so equal entries keep their source order.
func SortOccurrences(occ []model.Occurrence) {
	sort.SliceStable(occ, func(i, j int) bool {
		a, b := occ[i], occ[j]

		if da, db := a.Date(), b.Date(); !da.Equal(db) {
			return da.Before(db)
		}

		if a.DueTime != b.DueTime {
			if a.DueTime == "" {
				return false
			}
			if b.DueTime == "" {
				return true
			}
			return a.DueTime < b.DueTime
		}

		return a.Tier() < b.Tier()
	})
}
