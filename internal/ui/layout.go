package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planner/internal/theme"
)

// Layout manages the terminal layout dimensions: a header row, a content
// area split into two panes, and a status bar.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int

	// SideRatio is the share of the content width given to the right pane.
	SideRatio float64
}

// NewLayout creates a Layout with the given terminal dimensions.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
		SideRatio:       0.38,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// PaneWidths splits the content width into main and side pane widths,
// each excluding the two border columns of its frame.
func (l Layout) PaneWidths() (main, side int) {
	side = int(float64(l.Width) * l.SideRatio)
	main = l.Width - side
	return max(main-2, 0), max(side-2, 0)
}

// PaneHeight is the inner height of a framed pane.
func (l Layout) PaneHeight() int {
	return max(l.ContentHeight()-2, 0)
}

// RenderPanes frames both panes, highlighting the focused one, and joins
// them horizontally.
func (l Layout) RenderPanes(main, side string, sideFocused bool) string {
	mw, sw := l.PaneWidths()
	h := l.PaneHeight()

	mainStyle, sideStyle := theme.FocusedPaneStyle, theme.PaneStyle
	if sideFocused {
		mainStyle, sideStyle = theme.PaneStyle, theme.FocusedPaneStyle
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		mainStyle.Width(mw).Height(h).Render(main),
		sideStyle.Width(sw).Height(h).Render(side),
	)
}

// RenderHeader renders the top header bar with a title on the left and
// a status summary on the right.
func (l Layout) RenderHeader(title string, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)
	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(status)

	return titleRendered + l.fill(theme.HeaderStyle,
		lipgloss.Width(titleRendered)+lipgloss.Width(statusRendered)) + statusRendered
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)
	return rendered + l.fill(theme.StatusBarStyle, lipgloss.Width(rendered))
}

// fill pads a bar out to the full width with the bar's background.
func (l Layout) fill(bar lipgloss.Style, used int) string {
	gap := max(l.Width-used, 0)
	return lipgloss.NewStyle().
		Width(gap).
		Background(bar.GetBackground()).
		Render("")
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
