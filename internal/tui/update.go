package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/ironvault/internal/events"
	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
)

// tickMsg is sent every second for the clock and toast expiry
type tickMsg time.Time

// busMsg carries one event from the bus
type busMsg events.Event

// Init initializes the model with a tick command
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.waitForEvent())
}

func tickCmd() tea.Cmd {
	return tea.Every(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEvent listens for the next bus event
func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	ch := m.events
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return busMsg(e)
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.message != "" && time.Since(m.messageAt) > toastTTL {
			m.message = ""
		}
		return m, tickCmd()

	case busMsg:
		switch msg.Kind {
		case events.Refresh:
			m.loadData()
		case events.Toast:
			m.setMessage(msg.Level, msg.Message)
		}
		return m, m.waitForEvent()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAddTask, ModeAddProject, ModeEditTask:
			return m.updateInput(msg)
		case ModeFilter:
			return m.updateFilter(msg)
		case ModeConfirmDelete:
			return m.updateConfirm(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		m.Close()
		return m, tea.Quit

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.Tab):
		if m.pane == PaneSidebar {
			m.pane = PaneBoard
		} else {
			m.pane = PaneSidebar
		}

	case key.Matches(msg, keys.Up):
		m.handleUp()

	case key.Matches(msg, keys.Down):
		m.handleDown()

	case key.Matches(msg, keys.Left):
		if m.pane == PaneBoard {
			if m.col == 0 {
				m.pane = PaneSidebar
			} else {
				m.col--
			}
		}

	case key.Matches(msg, keys.Right), key.Matches(msg, keys.Enter):
		if m.pane == PaneSidebar {
			m.pane = PaneBoard
		} else if key.Matches(msg, keys.Right) && m.col < len(m.columns)-1 {
			m.col++
		}

	case key.Matches(msg, keys.MoveLeft):
		m.moveTask(-1)

	case key.Matches(msg, keys.MoveRight):
		m.moveTask(1)

	case key.Matches(msg, keys.Done):
		m.handleToggleDone()

	case key.Matches(msg, keys.Add):
		return m.startAddTask()

	case key.Matches(msg, keys.Edit):
		return m.startEditTask()

	case key.Matches(msg, keys.Project):
		return m.startAddProject()

	case key.Matches(msg, keys.Archive):
		m.handleArchive()

	case key.Matches(msg, keys.Delete):
		if m.pane == PaneBoard && m.currentTask() != nil {
			if m.confirmDelete {
				m.mode = ModeConfirmDelete
			} else {
				m.handleDelete()
			}
		}

	case key.Matches(msg, keys.Filter):
		return m.startFilter()

	case key.Matches(msg, keys.Escape):
		if m.filterText != "" {
			m.filterText = ""
			m.loadData()
		}

	case key.Matches(msg, keys.Refresh):
		m.loadData()
		m.setMessage(events.LevelInfo, "Reloaded")
	}
	return m, nil
}

func (m *Model) handleUp() {
	if m.pane == PaneSidebar {
		if m.projCursor > 0 {
			m.projCursor--
			m.resetBoardCursor()
			m.loadData()
		}
		return
	}
	if m.rows[m.col] > 0 {
		m.rows[m.col]--
	}
}

func (m *Model) handleDown() {
	if m.pane == PaneSidebar {
		if m.projCursor < len(m.projects)-1 {
			m.projCursor++
			m.resetBoardCursor()
			m.loadData()
		}
		return
	}
	if m.rows[m.col] < len(m.columns[m.col])-1 {
		m.rows[m.col]++
	}
}

func (m *Model) resetBoardCursor() {
	m.col = 0
	for i := range m.rows {
		m.rows[i] = 0
	}
}

// report shows err in the status bar; it returns false when err is set
func (m *Model) report(err error, action string) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, store.ErrConflict) {
		m.setMessage(events.LevelError, action+": vault busy, try again")
	} else {
		m.setMessage(events.LevelError, fmt.Sprintf("%s: %v", action, err))
	}
	return false
}

// moveTask shifts the selected task dir columns and follows it
func (m *Model) moveTask(dir int) {
	if m.pane != PaneBoard {
		return
	}
	task := m.currentTask()
	target := m.col + dir
	if task == nil || target < 0 || target >= len(model.TaskStatuses) {
		return
	}
	status := model.TaskStatuses[target]
	moved, err := m.store.MoveTask(context.Background(), task.ID, status)
	if !m.report(err, "Move failed") {
		return
	}
	m.loadData()
	m.col = target
	m.selectTask(moved.ID)
	m.setMessage(events.LevelSuccess, fmt.Sprintf("Moved to %s", status))
}

func (m *Model) selectTask(id string) {
	for i, t := range m.columns[m.col] {
		if t.ID == id {
			m.rows[m.col] = i
			return
		}
	}
}

func (m *Model) handleToggleDone() {
	if m.pane != PaneBoard {
		return
	}
	task := m.currentTask()
	if task == nil {
		return
	}
	status := model.TaskDone
	if task.IsDone() {
		status = model.TaskBacklog
	}
	_, err := m.store.MoveTask(context.Background(), task.ID, status)
	if m.report(err, "Update failed") {
		m.loadData()
	}
}

func (m *Model) handleDelete() {
	task := m.currentTask()
	if task == nil {
		return
	}
	title := task.Title
	if m.report(m.store.DeleteTask(context.Background(), task.ID), "Delete failed") {
		m.loadData()
		m.setMessage(events.LevelSuccess, "Deleted: "+title)
	}
}

func (m *Model) handleArchive() {
	proj := m.currentProject()
	if m.pane != PaneSidebar || proj == nil {
		return
	}
	title := proj.Title
	if _, err := m.store.ArchiveProject(context.Background(), proj.ID); m.report(err, "Archive failed") {
		m.loadData()
		m.setMessage(events.LevelSuccess, "Archived: "+title)
	}
}

func (m Model) startAddTask() (tea.Model, tea.Cmd) {
	if m.currentProject() == nil {
		m.setMessage(events.LevelInfo, "Create a project first (p)")
		return m, nil
	}
	m.mode = ModeAddTask
	m.input.SetValue("")
	m.input.Placeholder = "Enter task..."
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) startAddProject() (tea.Model, tea.Cmd) {
	m.mode = ModeAddProject
	m.input.SetValue("")
	m.input.Placeholder = "Enter project name..."
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) startEditTask() (tea.Model, tea.Cmd) {
	if m.pane != PaneBoard {
		return m, nil
	}
	task := m.currentTask()
	if task == nil {
		return m, nil
	}
	m.mode = ModeEditTask
	m.input.SetValue(task.Title)
	m.input.Placeholder = "Edit task..."
	m.input.Focus()
	m.input.CursorEnd()
	return m, textinput.Blink
}

func (m Model) startFilter() (tea.Model, tea.Cmd) {
	m.mode = ModeFilter
	m.input.SetValue(m.filterText)
	m.input.Placeholder = "/"
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil

	case msg.Type == tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = ModeNormal
		m.input.Blur()
		if value == "" {
			return m, nil
		}
		ctx := context.Background()

		switch mode {
		case ModeAddTask:
			proj := m.currentProject()
			if proj == nil {
				return m, nil
			}
			t, err := m.store.CreateTask(ctx, model.Task{
				ProjectID: proj.ID,
				Title:     value,
				Status:    model.TaskStatuses[m.col],
			})
			if m.report(err, "Error adding task") {
				m.loadData()
				m.pane = PaneBoard
				m.selectTask(t.ID)
				m.setMessage(events.LevelSuccess, "Added: "+value)
			}
		case ModeAddProject:
			p, err := m.store.CreateProject(ctx, model.Project{Title: value})
			if m.report(err, "Error creating project") {
				m.loadData()
				for i := range m.projects {
					if m.projects[i].ID == p.ID {
						m.projCursor = i
					}
				}
				m.resetBoardCursor()
				m.loadData()
				m.setMessage(events.LevelSuccess, "Created project: "+value)
			}
		case ModeEditTask:
			task := m.currentTask()
			if task == nil {
				return m, nil
			}
			_, err := m.store.UpdateTask(ctx, task.ID, model.TaskPatch{Title: &value})
			if m.report(err, "Error updating task") {
				m.loadData()
				m.setMessage(events.LevelSuccess, "Updated: "+value)
			}
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.filterText = ""
		m.input.Blur()
		m.loadData()
		return m, nil
	case msg.Type == tea.KeyEnter:
		m.mode = ModeNormal
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filterText = m.input.Value()
	m.loadData()
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = ModeNormal
	if key.Matches(msg, keys.Confirm) {
		m.handleDelete()
	}
	return m, nil
}
