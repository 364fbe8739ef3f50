package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/ironvault/internal/events"
	"github.com/existflow/ironvault/internal/model"
)

// Color palette
var (
	// Column colors
	ColBacklog    = lipgloss.Color("#6C757D") // Gray
	ColInProgress = lipgloss.Color("#4ECDC4") // Teal
	ColBlocked    = lipgloss.Color("#FF6B6B") // Red
	ColDone       = lipgloss.Color("#95E1A3") // Green

	// Priority colors
	PriorityHigh   = lipgloss.Color("#FFB347") // Orange
	PriorityMedium = lipgloss.Color("#FFE66D") // Yellow
	PriorityLow    = lipgloss.Color("#4ECDC4") // Blue

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Surface   = lipgloss.Color("#16213e")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
	Success   = lipgloss.Color("#95E1A3")
	Danger    = lipgloss.Color("#FF6B6B")
)

// Styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	SidebarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Border).
			Padding(1, 1)

	BoardStyle = lipgloss.NewStyle().
			Padding(1, 1)

	ColumnStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(0, 1)

	ColumnFocusedStyle = ColumnStyle.
				BorderForeground(Primary)

	ProjectItemStyle = lipgloss.NewStyle().
				Padding(0, 1)

	ProjectItemSelectedStyle = lipgloss.NewStyle().
					Padding(0, 1).
					Background(Surface).
					Bold(true)

	TaskItemStyle = lipgloss.NewStyle()

	TaskItemSelectedStyle = lipgloss.NewStyle().
				Background(Surface).
				Bold(true)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// ColumnColor returns the accent of a board column
func ColumnColor(s model.TaskStatus) lipgloss.Color {
	switch s {
	case model.TaskInProgress:
		return ColInProgress
	case model.TaskBlocked:
		return ColBlocked
	case model.TaskDone:
		return ColDone
	default:
		return ColBacklog
	}
}

// FormatPriority renders a project priority badge
func FormatPriority(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return lipgloss.NewStyle().Foreground(PriorityHigh).Bold(true).Render("▲")
	case model.PriorityMedium:
		return lipgloss.NewStyle().Foreground(PriorityMedium).Render("●")
	default:
		return lipgloss.NewStyle().Foreground(PriorityLow).Render("▽")
	}
}

// messageStyle colors the status bar by toast level
func messageStyle(level events.Level) lipgloss.Style {
	switch level {
	case events.LevelSuccess:
		return lipgloss.NewStyle().Foreground(Success)
	case events.LevelError:
		return lipgloss.NewStyle().Foreground(Danger).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(TextMuted)
	}
}
