package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/ironvault/internal/events"
	"github.com/existflow/ironvault/internal/logger"
	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
)

// Pane represents which pane is focused
type Pane int

const (
	PaneSidebar Pane = iota
	PaneBoard
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeAddProject
	ModeEditTask
	ModeFilter
	ModeConfirmDelete
	ModeHelp
)

// toastTTL is how long a status message stays up
const toastTTL = 5 * time.Second

// Options configure NewModel
type Options struct {
	// Bus delivers refresh and toast events from ingestors and listeners
	Bus *events.Bus
	// ConfirmDelete asks before deleting a task
	ConfirmDelete bool
}

// Model is the kanban board: projects on the left, the selected
// project's tasks in one column per status on the right.
type Model struct {
	store         *store.Store
	events        <-chan events.Event
	unsubscribe   func()
	confirmDelete bool

	projects []model.Project
	counts   map[string]model.TaskCounts
	columns  [][]model.Task // one per model.TaskStatuses entry

	// UI state
	width      int
	height     int
	pane       Pane
	mode       Mode
	projCursor int
	col        int
	rows       []int

	// Input
	input textinput.Model

	// Filter narrows every column to titles containing it
	filterText string

	message      string
	messageLevel events.Level
	messageAt    time.Time
}

// NewModel creates a new TUI model
func NewModel(st *store.Store, opts Options) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.Placeholder = "Enter task..."
	ti.CharLimit = 256
	ti.Width = 50

	m := Model{
		store:         st,
		confirmDelete: opts.ConfirmDelete,
		pane:          PaneSidebar,
		mode:          ModeNormal,
		input:         ti,
		counts:        make(map[string]model.TaskCounts),
		columns:       make([][]model.Task, len(model.TaskStatuses)),
		rows:          make([]int, len(model.TaskStatuses)),
	}
	if opts.Bus != nil {
		m.events, m.unsubscribe = opts.Bus.Subscribe(16)
	}

	m.loadData()
	logger.Debug("TUI model initialized", logger.F("projects", len(m.projects)))
	return m
}

// Close drops the bus subscription
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Model) loadData() {
	ctx := context.Background()
	projects, err := m.store.ListProjects(ctx, store.ProjectFilter{})
	if err != nil {
		m.setMessage(events.LevelError, "Failed to load vault: "+err.Error())
		return
	}
	tasks, err := m.store.ListTasks(ctx, store.TaskFilter{})
	if err != nil {
		m.setMessage(events.LevelError, "Failed to load tasks: "+err.Error())
		return
	}

	m.projects = projects
	if m.projCursor >= len(m.projects) {
		m.projCursor = max(len(m.projects)-1, 0)
	}

	byProject := make(map[string][]model.Task)
	for _, t := range tasks {
		byProject[t.ProjectID] = append(byProject[t.ProjectID], t)
	}
	m.counts = make(map[string]model.TaskCounts, len(projects))
	for _, p := range projects {
		m.counts[p.ID] = model.CountTasks(byProject[p.ID])
	}

	for i := range m.columns {
		m.columns[i] = m.columns[i][:0]
	}
	if proj := m.currentProject(); proj != nil {
		filter := strings.ToLower(m.filterText)
		for _, t := range byProject[proj.ID] {
			if filter != "" && !strings.Contains(strings.ToLower(t.Title), filter) {
				continue
			}
			if c := columnOf(t.Status); c >= 0 {
				m.columns[c] = append(m.columns[c], t)
			}
		}
	}
	for i := range m.rows {
		if m.rows[i] >= len(m.columns[i]) {
			m.rows[i] = max(len(m.columns[i])-1, 0)
		}
	}
}

func columnOf(s model.TaskStatus) int {
	for i, v := range model.TaskStatuses {
		if v == s {
			return i
		}
	}
	return -1
}

func (m *Model) currentProject() *model.Project {
	if m.projCursor < len(m.projects) {
		return &m.projects[m.projCursor]
	}
	return nil
}

func (m *Model) currentTask() *model.Task {
	col := m.columns[m.col]
	if m.rows[m.col] < len(col) {
		return &col[m.rows[m.col]]
	}
	return nil
}

func (m *Model) setMessage(level events.Level, msg string) {
	m.message = msg
	m.messageLevel = level
	m.messageAt = time.Now()
}

// Run opens the board full screen until the user quits
func Run(st *store.Store, opts Options) error {
	m := NewModel(st, opts)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
