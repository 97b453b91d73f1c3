package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/runoshun/agentdeck/internal/domain"
)

// Colors defines the color palette for the dashboard.
var Colors = struct {
	Primary       lipgloss.Color
	Muted         lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	TitleNormal   lipgloss.Color
	TitleSelected lipgloss.Color

	// Status colors
	Pending     lipgloss.Color
	InProgress  lipgloss.Color
	InReview    lipgloss.Color
	StatusError lipgloss.Color
	Done        lipgloss.Color

	GroupLine lipgloss.Color
}{
	Primary:       lipgloss.Color("#6C5CE7"), // Purple
	Muted:         lipgloss.Color("#636E72"), // Gray
	Error:         lipgloss.Color("#D63031"), // Red
	Warning:       lipgloss.Color("#FDCB6E"), // Yellow
	TitleNormal:   lipgloss.Color("#DFE6E9"), // Light gray
	TitleSelected: lipgloss.Color("#FFEAA7"), // Yellow (selected)

	Pending:     lipgloss.Color("#74B9FF"), // Light blue
	InProgress:  lipgloss.Color("#FDCB6E"), // Yellow
	InReview:    lipgloss.Color("#A29BFE"), // Lavender
	StatusError: lipgloss.Color("#D63031"), // Red
	Done:        lipgloss.Color("#00B894"), // Green

	GroupLine: lipgloss.Color("#636E72"),
}

// Styles contains the lipgloss styles for the dashboard.
type Styles struct {
	App        lipgloss.Style
	Header     lipgloss.Style
	GateOpen   lipgloss.Style
	GateClosed lipgloss.Style

	GroupHeaderLine  lipgloss.Style
	GroupHeaderLabel lipgloss.Style

	TaskNormal     lipgloss.Style
	TaskSelected   lipgloss.Style
	TaskID         lipgloss.Style
	TaskMeta       lipgloss.Style
	CursorSelected lipgloss.Style

	StatusPending    lipgloss.Style
	StatusInProgress lipgloss.Style
	StatusInReview   lipgloss.Style
	StatusError      lipgloss.Style
	StatusDone       lipgloss.Style

	Footer   lipgloss.Style
	Notice   lipgloss.Style
	ErrorMsg lipgloss.Style
}

// DefaultStyles returns the default styles for the dashboard.
func DefaultStyles() Styles {
	return Styles{
		App: lipgloss.NewStyle().
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary),

		GateOpen: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		GateClosed: lipgloss.NewStyle().
			Foreground(Colors.Warning).
			Bold(true),

		GroupHeaderLine: lipgloss.NewStyle().
			Foreground(Colors.GroupLine),

		GroupHeaderLabel: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		TaskNormal: lipgloss.NewStyle().
			Foreground(Colors.TitleNormal),

		TaskSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.TitleSelected),

		TaskID: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			Width(5),

		TaskMeta: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		CursorSelected: lipgloss.NewStyle().
			Foreground(Colors.TitleSelected).
			Bold(true),

		StatusPending: lipgloss.NewStyle().
			Foreground(Colors.Pending),

		StatusInProgress: lipgloss.NewStyle().
			Foreground(Colors.InProgress),

		StatusInReview: lipgloss.NewStyle().
			Foreground(Colors.InReview),

		StatusError: lipgloss.NewStyle().
			Foreground(Colors.StatusError),

		StatusDone: lipgloss.NewStyle().
			Foreground(Colors.Done),

		Footer: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			MarginTop(1),

		Notice: lipgloss.NewStyle().
			Foreground(Colors.Primary),

		ErrorMsg: lipgloss.NewStyle().
			Foreground(Colors.Error).
			Bold(true),
	}
}

// StatusStyle returns the style for a task status.
func (s Styles) StatusStyle(status domain.Status) lipgloss.Style {
	switch status {
	case domain.StatusPending:
		return s.StatusPending
	case domain.StatusInProgress:
		return s.StatusInProgress
	case domain.StatusInReview:
		return s.StatusInReview
	case domain.StatusError:
		return s.StatusError
	case domain.StatusDone:
		return s.StatusDone
	default:
		return s.TaskNormal
	}
}
