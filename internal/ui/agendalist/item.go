package agendalist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/planner/internal/model"
	"github.com/nhle/planner/internal/theme"
)

// OccurrenceItem wraps an agenda occurrence so it can be used in a
// bubbles/list. Risk is set only on the occurrence that carries the
// task's actual deadline.
type OccurrenceItem struct {
	Occurrence model.Occurrence
	Risk       *model.RiskAnnotation
}

// FilterValue returns the string used for fuzzy filtering.
func (i OccurrenceItem) FilterValue() string { return i.Occurrence.Title }

// Title returns the task title.
func (i OccurrenceItem) Title() string { return i.Occurrence.Title }

// Description returns a short summary line for the list.
func (i OccurrenceItem) Description() string {
	parts := []string{model.FormatDate(i.Occurrence.Date())}
	if i.Occurrence.DueTime != "" {
		parts = append(parts, i.Occurrence.DueTime)
	}
	if i.Risk != nil {
		parts = append(parts, riskLabel(*i.Risk))
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate renders one occurrence per line, printing the day only on
// the first entry of each date.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single agenda line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(OccurrenceItem)
	if !ok {
		return
	}
	occ := it.Occurrence

	day := occ.Date().Format("Mon Jan 02")
	if index > 0 {
		if prev, ok := m.Items()[index-1].(OccurrenceItem); ok &&
			model.FormatDate(prev.Occurrence.Date()) == model.FormatDate(occ.Date()) {
			day = strings.Repeat(" ", len(day))
		}
	}

	clock := occ.DueTime
	if clock == "" {
		clock = "     "
	}

	pri := theme.PriorityStyle(occ.Tier()).Render(priorityLabel(occ.Priority))

	repeat := ""
	if occ.Virtual {
		repeat = theme.RepeatBadgeStyle.Render(" ↻")
	}

	bell := ""
	if occ.HasReminder() {
		bell = theme.DimmedStyle.Render(" ⏰")
	}

	badge := ""
	if it.Risk != nil {
		badge = " " + theme.RiskStyle(it.Risk.Level).Render(riskLabel(*it.Risk))
	}

	line := fmt.Sprintf("%s %s %s %s%s%s%s",
		theme.SectionStyle.Render(day),
		theme.DimmedStyle.Render(clock),
		pri, occ.Title, repeat, bell, badge,
	)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// riskLabel returns e.g. "critical 20m left".
func riskLabel(a model.RiskAnnotation) string {
	return fmt.Sprintf("%s %s left", a.Level, shortDuration(a.RemainingMinutes))
}

func shortDuration(minutes int) string {
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm", minutes)
	case minutes%60 == 0:
		return fmt.Sprintf("%dh", minutes/60)
	default:
		return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
	}
}

// priorityLabel returns a short label for the given priority tier.
func priorityLabel(p *int) string {
	if p == nil {
		return "  "
	}
	return fmt.Sprintf("P%d", *p)
}
