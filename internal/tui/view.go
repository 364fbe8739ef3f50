package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/ironvault/internal/model"
)

const sidebarWidth = 26

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), m.renderBoard())

	switch m.mode {
	case ModeAddTask, ModeAddProject, ModeEditTask:
		mainContent = m.place(m.renderModal())
	case ModeConfirmDelete:
		mainContent = m.place(m.renderConfirm())
	case ModeHelp:
		mainContent = m.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, m.renderStatusBar())
}

func (m Model) place(modal string) string {
	return lipgloss.Place(
		m.width, m.height-2,
		lipgloss.Center, lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
	)
}

func (m Model) renderSidebar() string {
	var s strings.Builder

	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("IronVault") + "\n")
	s.WriteString(HelpStyle.Render(time.Now().Format("15:04:05")) + "\n")
	s.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", sidebarWidth-4)) + "\n\n")

	if len(m.projects) == 0 {
		s.WriteString(HelpStyle.Render("No projects yet") + "\n")
	}
	for i, p := range m.projects {
		counts := m.counts[p.ID]

		cursor := "  "
		style := ProjectItemStyle
		if i == m.projCursor {
			cursor = "❯ "
			if m.pane == PaneSidebar {
				style = ProjectItemSelectedStyle
			}
		}

		line := fmt.Sprintf("%s%-13s %d/%d", cursor, truncate(p.Title, 13), counts.Done(), counts.Total)
		s.WriteString(FormatPriority(p.Priority) + style.Render(line) + "\n")
	}

	s.WriteString("\n" + lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", sidebarWidth-4)) + "\n")
	s.WriteString(HelpStyle.Render("p new  A archive"))

	return SidebarStyle.Width(sidebarWidth).Height(m.height - 2).Render(s.String())
}

func (m Model) renderBoard() string {
	width := m.width - sidebarWidth - 2
	proj := m.currentProject()
	if proj == nil {
		return BoardStyle.Width(width).Height(m.height - 2).Render(HelpStyle.Render("No project selected. Press 'p' to create one."))
	}

	header := fmt.Sprintf("%s · %s", proj.Title, proj.Status)
	if m.filterText != "" {
		header += HelpStyle.Render(fmt.Sprintf("  (filter: %s)", m.filterText))
	}

	colWidth := max((width-2)/len(model.TaskStatuses)-2, 12)
	cols := make([]string, len(model.TaskStatuses))
	for i, status := range model.TaskStatuses {
		cols[i] = m.renderColumn(i, status, colWidth)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, cols...)
	return BoardStyle.Width(width).Height(m.height - 2).Render(
		lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(header) + "\n\n" + body)
}

func (m Model) renderColumn(i int, status model.TaskStatus, width int) string {
	var s strings.Builder
	title := fmt.Sprintf("%s (%d)", status, len(m.columns[i]))
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ColumnColor(status)).Render(title) + "\n\n")

	if len(m.columns[i]) == 0 {
		s.WriteString(HelpStyle.Render("—"))
	}
	today := model.DateOf(time.Now())
	for row, t := range m.columns[i] {
		style := TaskItemStyle
		cursor := "  "
		if m.pane == PaneBoard && i == m.col && row == m.rows[i] {
			cursor = "❯ "
			style = TaskItemSelectedStyle
		} else if t.IsDone() {
			style = TaskDoneStyle
		}
		line := cursor + truncate(t.Title, width-4)
		s.WriteString(style.Render(line) + "\n")
		if t.DueDate != nil {
			due := "  due " + t.DueDate.String()
			if t.IsOverdue(today) {
				due = lipgloss.NewStyle().Foreground(Danger).Render(due)
			} else {
				due = HelpStyle.Render(due)
			}
			s.WriteString(due + "\n")
		}
	}

	style := ColumnStyle
	if m.pane == PaneBoard && i == m.col {
		style = ColumnFocusedStyle
	}
	return style.Width(width).Height(m.height - 8).Render(s.String())
}

func (m Model) renderStatusBar() string {
	if m.mode == ModeFilter {
		return StatusBarStyle.Width(m.width).Render("/" + m.input.View())
	}

	help := "a:add  e:edit  H/L:move  x:done  d:del  /:filter  tab:pane  ?:help  q:quit"
	if m.message != "" {
		help = messageStyle(m.messageLevel).Render(m.message)
	}
	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderModal() string {
	title := "Add Task"
	switch m.mode {
	case ModeAddProject:
		title = "New Project"
	case ModeEditTask:
		title = "Edit Task"
	}

	proj := m.currentProject()
	if proj != nil && m.mode == ModeAddTask {
		title = fmt.Sprintf("Add Task to %s · %s", proj.Title, model.TaskStatuses[m.col])
	}

	content := lipgloss.NewStyle().Bold(true).Render(title) + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")

	return ModalStyle.Render(content)
}

func (m Model) renderConfirm() string {
	task := m.currentTask()
	if task == nil {
		return ModalStyle.Render("Nothing selected")
	}
	content := lipgloss.NewStyle().Bold(true).Render("Delete task?") + "\n\n"
	content += truncate(task.Title, 40) + "\n\n"
	content += HelpStyle.Render("y:delete  any other key:cancel")
	return ModalStyle.Render(content)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ────╮
│                           │
│  Navigation               │
│  ──────────               │
│  j/k    Move down/up      │
│  h/l    Previous/next col │
│  Tab    Switch pane       │
│                           │
│  Tasks                    │
│  ─────                    │
│  a      Add to column     │
│  e      Edit title        │
│  H/L    Move left/right   │
│  x      Toggle done       │
│  d      Delete            │
│  /      Filter by title   │
│                           │
│  Projects                 │
│  ────────                 │
│  p      New project       │
│  A      Archive project   │
│                           │
│  ?      Toggle help       │
│  q      Quit              │
│                           │
╰───────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}
