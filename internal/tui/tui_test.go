package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/ironvault/internal/events"
	"github.com/existflow/ironvault/internal/kv"
	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func newBoard(t *testing.T, opts Options) (Model, *store.Store, model.Project) {
	t.Helper()
	st := store.New(kv.NewMemory())
	p, err := st.CreateProject(context.Background(), model.Project{Title: "Launch"})
	require.NoError(t, err)
	_, err = st.CreateTask(context.Background(), model.Task{ProjectID: p.ID, Title: "Draft copy"})
	require.NoError(t, err)
	m := NewModel(st, opts)
	m = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, st, p
}

func TestBoardGroupsTasksByStatus(t *testing.T) {
	m, _, _ := newBoard(t, Options{})
	require.Len(t, m.projects, 1)
	assert.Len(t, m.columns[0], 1)
	assert.Equal(t, 1, m.counts[m.projects[0].ID].Total)
	assert.Contains(t, m.View(), "Draft copy")
}

func TestMoveTaskAcrossColumns(t *testing.T) {
	m, st, p := newBoard(t, Options{})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab}, runes("L"), runes("L"))

	tasks, err := st.ListTasks(context.Background(), store.TaskFilter{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, model.TaskBlocked, tasks[0].Status)
	assert.Equal(t, 2, m.col, "cursor follows the task")
	assert.Len(t, m.columns[2], 1)

	m = press(t, m, runes("x"))
	tasks, err = st.ListTasks(context.Background(), store.TaskFilter{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, model.TaskDone, tasks[0].Status)
}

func TestAddTaskToFocusedColumn(t *testing.T) {
	m, st, p := newBoard(t, Options{})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab}, runes("l"), runes("a"))
	require.Equal(t, ModeAddTask, m.mode)
	m = press(t, m, runes("Ship it"), tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ModeNormal, m.mode)
	tasks, err := st.ListTasks(context.Background(), store.TaskFilter{ProjectID: p.ID, Status: model.TaskInProgress})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Ship it", tasks[0].Title)
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	m, st, p := newBoard(t, Options{ConfirmDelete: true})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab}, runes("d"))
	require.Equal(t, ModeConfirmDelete, m.mode)

	m = press(t, m, runes("n"))
	tasks, err := st.ListTasks(context.Background(), store.TaskFilter{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	m = press(t, m, runes("d"), runes("y"))
	tasks, err = st.ListTasks(context.Background(), store.TaskFilter{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Equal(t, ModeNormal, m.mode)
}

func TestFilterNarrowsColumns(t *testing.T) {
	m, st, p := newBoard(t, Options{})
	_, err := st.CreateTask(context.Background(), model.Task{ProjectID: p.ID, Title: "Book venue"})
	require.NoError(t, err)
	m = press(t, m, runes("r"))
	require.Len(t, m.columns[0], 2)

	m = press(t, m, runes("/"), runes("venue"), tea.KeyMsg{Type: tea.KeyEnter})
	require.Len(t, m.columns[0], 1)
	assert.Equal(t, "Book venue", m.columns[0][0].Title)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Len(t, m.columns[0], 2)
}

func TestBusEventsRefreshBoard(t *testing.T) {
	bus := events.New()
	m, st, p := newBoard(t, Options{Bus: bus})
	defer m.Close()

	_, err := st.CreateTask(context.Background(), model.Task{ProjectID: p.ID, Title: "From elsewhere"})
	require.NoError(t, err)
	bus.Refresh()

	msg := m.waitForEvent()()
	m = press(t, m, msg)
	assert.Len(t, m.columns[0], 2)

	bus.Toast(events.LevelSuccess, "Artifact saved to Vault")
	m = press(t, m, m.waitForEvent()())
	assert.Equal(t, "Artifact saved to Vault", m.message)
	assert.Equal(t, events.LevelSuccess, m.messageLevel)
}
