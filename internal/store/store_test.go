package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/ironvault/internal/kv"
	"github.com/existflow/ironvault/internal/model"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// racingStorage runs one queued hook before each compare-and-swap, so a
// test can slip a concurrent write between a read and its write
type racingStorage struct {
	*kv.Memory
	mu    sync.Mutex
	hooks []func()
}

func (r *racingStorage) race(hooks ...func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hooks...)
}

func (r *racingStorage) CompareAndSwap(ctx context.Context, key string, value []byte, rev int64) (int64, error) {
	r.mu.Lock()
	var hook func()
	if len(r.hooks) > 0 {
		hook, r.hooks = r.hooks[0], r.hooks[1:]
	}
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return r.Memory.CompareAndSwap(ctx, key, value, rev)
}

func newTestStore(t *testing.T, opts ...Option) (*Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	return New(mem, opts...), mem
}

func mustProject(t *testing.T, s *Store, title string) model.Project {
	t.Helper()
	p, err := s.CreateProject(context.Background(), model.Project{Title: title})
	require.NoError(t, err)
	return p
}

func mustTask(t *testing.T, s *Store, projectID, title string) model.Task {
	t.Helper()
	task, err := s.CreateTask(context.Background(), model.Task{ProjectID: projectID, Title: title})
	require.NoError(t, err)
	return task
}

func revision(t *testing.T, mem *kv.Memory) int64 {
	t.Helper()
	e, err := mem.Get(context.Background(), DocumentKey)
	require.NoError(t, err)
	return e.Revision
}

func TestLoadSeedsEmptyDocument(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Projects)
	assert.NotNil(t, doc.Decks)
	assert.Equal(t, model.SchemaVersion, doc.SchemaVersion)

	e, err := mem.Get(ctx, DocumentKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"schemaVersion":1,"projects":[],"tasks":[],"notes":[],"artifacts":[],
		"calendarItems":[],"mindmaps":[],"activityLogs":[],"decks":[]}`, string(e.Value))

	// a second load reads the seed back instead of writing again
	rev := e.Revision
	_, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rev, revision(t, mem))
}

func TestLoadMissingCollections(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	_, err := mem.Put(ctx, DocumentKey, []byte(`{"projects":[{"id":"p-1","title":"Old","createdAt":1700000000000}],"tasks":[]}`))
	require.NoError(t, err)

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Projects, 1)
	assert.Equal(t, []string{}, doc.Projects[0].Tags)
	assert.NotNil(t, doc.Mindmaps)
	assert.Empty(t, doc.Mindmaps)
	assert.NotNil(t, doc.Decks)
	assert.Empty(t, doc.Decks)

	decks, err := s.ListDecks(ctx, DeckFilter{})
	require.NoError(t, err)
	assert.Empty(t, decks)
}

func TestLoadCorruptDocumentResets(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	_, err := mem.Put(ctx, DocumentKey, []byte(`{"projects": [`))
	require.NoError(t, err)

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc.Projects)

	kept, err := mem.Get(ctx, DocumentKey+".corrupt")
	require.NoError(t, err)
	assert.Equal(t, `{"projects": [`, string(kept.Value))

	// the store is usable again
	mustProject(t, s, "Fresh")
}

func TestLoadKeepsVaultWithEmptyDates(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	raw := `{"projects":[{"id":"p-1","title":"Keep me","description":"","status":"Planning","priority":"Medium",
		"tags":["ml"],"startDate":"","targetDate":"","createdAt":1700000000000}],
		"tasks":[{"id":"t-1","projectId":"p-1","title":"Ship","status":"Backlog","dueDate":"","createdAt":1700000000000}],
		"notes":[],"artifacts":[],"calendarItems":[],"mindmaps":[],"activityLogs":[],"decks":[]}`
	_, err := mem.Put(ctx, DocumentKey, []byte(raw))
	require.NoError(t, err)
	rev := revision(t, mem)

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Projects, 1)
	assert.Equal(t, "Keep me", doc.Projects[0].Title)
	assert.Nil(t, doc.Projects[0].StartDate)
	assert.Nil(t, doc.Projects[0].TargetDate)
	require.Len(t, doc.Tasks, 1)
	assert.Nil(t, doc.Tasks[0].DueDate)
	assert.Equal(t, rev, revision(t, mem), "loading must not rewrite the vault")

	_, err = mem.Get(ctx, DocumentKey+".corrupt")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestLoadSkipsUnreadableRecords(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	raw := `{"projects":[{"id":"p-1","title":"Keep me","createdAt":1700000000000},{"id":42}],
		"tasks":[{"id":"t-1","projectId":"p-1","title":"Ship","status":"Backlog"}]}`
	_, err := mem.Put(ctx, DocumentKey, []byte(raw))
	require.NoError(t, err)

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Projects, 1)
	assert.Equal(t, "p-1", doc.Projects[0].ID)
	assert.Len(t, doc.Tasks, 1)

	kept, err := mem.Get(ctx, DocumentKey+".corrupt")
	require.NoError(t, err)
	assert.Equal(t, raw, string(kept.Value))

	// the next write persists the readable records
	mustTask(t, s, "p-1", "Follow up")
	tasks, err := s.ListTasks(ctx, TaskFilter{ProjectID: "p-1"})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestSealedVault(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	codec, err := NewSealedCodec("hunter2")
	require.NoError(t, err)
	sealed := New(mem, WithCodec(codec))
	mustProject(t, sealed, "Secret plans")

	raw, err := mem.Get(ctx, DocumentKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw.Value), "Secret plans")

	// without the passphrase the vault is refused, never reset
	_, err = New(mem).Load(ctx)
	assert.ErrorIs(t, err, ErrLocked)
	wrong, err := NewSealedCodec("letmein")
	require.NoError(t, err)
	_, err = New(mem, WithCodec(wrong)).Load(ctx)
	assert.ErrorIs(t, err, ErrLocked)
	assert.Equal(t, raw.Revision, revision(t, mem))

	again, err := NewSealedCodec("hunter2")
	require.NoError(t, err)
	projects, err := New(mem, WithCodec(again)).ListProjects(ctx, ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Secret plans", projects[0].Title)
}

func TestPlainVaultIsSealedOnNextWrite(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	mustProject(t, New(mem), "Before")

	codec, err := NewSealedCodec("pw")
	require.NoError(t, err)
	sealed := New(mem, WithCodec(codec))
	mustProject(t, sealed, "After")

	raw, err := mem.Get(ctx, DocumentKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw.Value), "Before")

	projects, err := sealed.ListProjects(ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestCreateDefaults(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s, _ := newTestStore(t, WithClock(clock.Now))

	p, err := s.CreateProject(ctx, model.Project{})
	require.NoError(t, err)
	assert.Equal(t, "Untitled Project", p.Title)
	assert.Equal(t, model.ProjectPlanning, p.Status)
	assert.Equal(t, model.PriorityMedium, p.Priority)
	assert.Equal(t, []string{}, p.Tags)
	assert.Regexp(t, `^p-[0-9a-f-]{36}$`, p.ID)
	assert.True(t, p.CreatedAt.Equal(clock.Now()))

	task, err := s.CreateTask(ctx, model.Task{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, "Untitled Task", task.Title)
	assert.Equal(t, model.TaskBacklog, task.Status)

	note, err := s.CreateNote(ctx, model.Note{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, "Untitled Note", note.Title)
	assert.Equal(t, "", note.Content)
	assert.False(t, note.Pinned)

	art, err := s.CreateArtifact(ctx, model.Artifact{ProjectID: p.ID, Title: "Report.PDF"})
	require.NoError(t, err)
	assert.Equal(t, model.ArtifactPDF, art.Type)
	assert.Zero(t, art.Size)

	cal, err := s.CreateCalendarItem(ctx, model.CalendarItem{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, "Untitled Event", cal.Title)
	assert.Equal(t, model.KindEvent, cal.Kind)
	assert.False(t, cal.AllDay)
	assert.True(t, cal.Start.Equal(clock.Now()))
	assert.True(t, cal.End.Equal(cal.Start))

	mm, err := s.CreateMindmap(ctx, model.Mindmap{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, "New Mindmap", mm.Title)
	assert.Equal(t, "Central Topic", mm.Root.Label)
	assert.Empty(t, mm.Root.Children)

	deck, err := s.CreateDeck(ctx, model.Deck{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, DefaultDeckSource, deck.Who)
	assert.NotEmpty(t, deck.DeckID)
	assert.NotEqual(t, deck.ID, deck.DeckID)
	assert.Equal(t, []model.Slide{}, deck.Slides)
	assert.Equal(t, "2025-03-14T09:30:00.000Z", deck.Timestamp)
}

func TestCreateRejectsInvalidEnums(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	p := mustProject(t, s, "P")

	_, err := s.CreateProject(ctx, model.Project{Status: "Someday"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.CreateTask(ctx, model.Task{ProjectID: p.ID, Status: "Later"})
	assert.ErrorIs(t, err, ErrInvalid)

	bad := model.TaskStatus("Nope")
	task := mustTask(t, s, p.ID, "T")
	_, err = s.UpdateTask(ctx, task.ID, model.TaskPatch{Status: &bad})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = s.CreateArtifact(ctx, model.Artifact{ProjectID: p.ID})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestReferentialIntegrityOnCreate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.CreateTask(ctx, model.Task{ProjectID: "p-missing"})
	assert.ErrorIs(t, err, ErrProjectNotFound)
	_, err = s.CreateArtifact(ctx, model.Artifact{ProjectID: "p-missing", Title: "a.zip"})
	assert.ErrorIs(t, err, ErrProjectNotFound)
	_, err = s.CreateMindmap(ctx, model.Mindmap{})
	assert.ErrorIs(t, err, ErrProjectNotFound)
	_, err = s.CreateNote(ctx, model.Note{ProjectID: "p-missing"})
	assert.ErrorIs(t, err, ErrProjectNotFound)

	p := mustProject(t, s, "P")
	_, err = s.CreateNote(ctx, model.Note{ProjectID: p.ID, TaskID: "t-missing"})
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.CreateCalendarItem(ctx, model.CalendarItem{ProjectID: p.ID, TaskID: "t-missing"})
	assert.ErrorIs(t, err, ErrTaskNotFound)

	// a loose note needs no project, a task note inherits its task's
	loose, err := s.CreateNote(ctx, model.Note{Title: "Scratch"})
	require.NoError(t, err)
	assert.Empty(t, loose.ProjectID)
	task := mustTask(t, s, p.ID, "T")
	tn, err := s.CreateNote(ctx, model.Note{TaskID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, p.ID, tn.ProjectID)
}

func TestMissingIDWritesNothing(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	mustProject(t, s, "P")
	rev := revision(t, mem)

	title := "x"
	_, err := s.UpdateProject(ctx, "p-nope", model.ProjectPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateTask(ctx, "t-nope", model.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateNote(ctx, "n-nope", model.NotePatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateCalendarItem(ctx, "c-nope", model.CalendarPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateMindmap(ctx, "m-nope", model.MindmapPatch{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteProject(ctx, "p-nope"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteTask(ctx, "t-nope"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteNote(ctx, "n-nope"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteArtifact(ctx, "a-nope"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteCalendarItem(ctx, "c-nope"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteMindmap(ctx, "m-nope"), ErrNotFound)
	assert.ErrorIs(t, s.DeleteDeck(ctx, "deck-nope"), ErrNotFound)
	_, err = s.DuplicateProject(ctx, "p-nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetProject(ctx, "p-nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, rev, revision(t, mem))
}

func TestUpdateMerges(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	p, err := s.CreateProject(ctx, model.Project{Title: "P", Description: "keep", Tags: []string{"a"}})
	require.NoError(t, err)

	status := model.ProjectInProgress
	tags := []string{"b", "B", " ", "c"}
	got, err := s.UpdateProject(ctx, p.ID, model.ProjectPatch{Status: &status, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "P", got.Title)
	assert.Equal(t, "keep", got.Description)
	assert.Equal(t, model.ProjectInProgress, got.Status)
	assert.Equal(t, []string{"b", "c"}, got.Tags)

	stored, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestArchiveHidesProjectOnly(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	p := mustProject(t, s, "Old")
	mustProject(t, s, "Current")
	mustTask(t, s, p.ID, "still here")

	_, err := s.ArchiveProject(ctx, p.ID)
	require.NoError(t, err)

	listed, err := s.ListProjects(ctx, ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Current", listed[0].Title)

	all, err := s.ListProjects(ctx, ProjectFilter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	tasks, err := s.ListTasks(ctx, TaskFilter{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	restored, err := s.UnarchiveProject(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, restored.Archived)
}

func TestDeleteProjectCascades(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	p := mustProject(t, s, "Doomed")
	other := mustProject(t, s, "Survivor")

	for i := 0; i < 3; i++ {
		task := mustTask(t, s, p.ID, "t")
		_, err := s.CreateNote(ctx, model.Note{TaskID: task.ID})
		require.NoError(t, err)
		_, err = s.CreateCalendarItem(ctx, model.CalendarItem{ProjectID: p.ID, TaskID: task.ID})
		require.NoError(t, err)
	}
	_, err := s.CreateNote(ctx, model.Note{ProjectID: p.ID})
	require.NoError(t, err)
	_, err = s.CreateArtifact(ctx, model.Artifact{ProjectID: p.ID, Title: "spec.md"})
	require.NoError(t, err)
	_, err = s.CreateMindmap(ctx, model.Mindmap{ProjectID: p.ID})
	require.NoError(t, err)
	_, err = s.CreateDeck(ctx, model.Deck{ProjectID: p.ID, DeckID: "d-1"})
	require.NoError(t, err)
	keep := mustTask(t, s, other.ID, "keep me")

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	doc.ActivityLogs = append(doc.ActivityLogs,
		model.ActivityLog{ID: "l-1", ProjectID: p.ID, Action: "created"},
		model.ActivityLog{ID: "l-2", ProjectID: other.ID, Action: "created"})
	require.NoError(t, s.Save(ctx, doc))

	require.NoError(t, s.DeleteProject(ctx, p.ID))

	doc, err = s.Load(ctx)
	require.NoError(t, err)
	for _, x := range doc.Projects {
		assert.NotEqual(t, p.ID, x.ID)
	}
	for _, x := range doc.Tasks {
		assert.NotEqual(t, p.ID, x.ProjectID)
	}
	for _, x := range doc.Notes {
		assert.NotEqual(t, p.ID, x.ProjectID)
	}
	assert.Empty(t, doc.Artifacts)
	assert.Empty(t, doc.CalendarItems)
	assert.Empty(t, doc.Mindmaps)
	assert.Empty(t, doc.Decks)
	require.Len(t, doc.ActivityLogs, 1)
	assert.Equal(t, "l-2", doc.ActivityLogs[0].ID)
	require.Len(t, doc.Tasks, 1)
	assert.Equal(t, keep.ID, doc.Tasks[0].ID)
}

func TestDeleteTaskCascades(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	p := mustProject(t, s, "P")
	task := mustTask(t, s, p.ID, "T")
	_, err := s.CreateNote(ctx, model.Note{TaskID: task.ID, Title: "task note"})
	require.NoError(t, err)
	projectNote, err := s.CreateNote(ctx, model.Note{ProjectID: p.ID, Title: "project note"})
	require.NoError(t, err)
	cal, err := s.CreateCalendarItem(ctx, model.CalendarItem{ProjectID: p.ID, TaskID: task.ID, Kind: model.KindTaskDue})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTask(ctx, task.ID))

	notes, err := s.ListNotes(ctx, NoteFilter{ProjectID: p.ID, IncludeTaskNotes: true})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, projectNote.ID, notes[0].ID)

	got, err := s.GetCalendarItem(ctx, cal.ID)
	require.NoError(t, err)
	assert.Empty(t, got.TaskID)
}

func TestDuplicateProject(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s, _ := newTestStore(t, WithClock(clock.Now))

	src, err := s.CreateProject(ctx, model.Project{Title: "Launch", Tags: []string{"x"}})
	require.NoError(t, err)
	const n = 4
	srcTasks := map[string]bool{}
	var firstTask model.Task
	for i := 0; i < n; i++ {
		task := mustTask(t, s, src.ID, "task")
		srcTasks[task.ID] = true
		if i == 0 {
			firstTask = task
		}
	}
	_, err = s.CreateNote(ctx, model.Note{TaskID: firstTask.ID, Title: "on task"})
	require.NoError(t, err)
	_, err = s.CreateArtifact(ctx, model.Artifact{ProjectID: src.ID, Title: "logo.png", Size: 12})
	require.NoError(t, err)
	start := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	srcCal, err := s.CreateCalendarItem(ctx, model.CalendarItem{ProjectID: src.ID, TaskID: firstTask.ID, Start: start, End: start.Add(time.Hour)})
	require.NoError(t, err)
	mm, err := s.CreateMindmap(ctx, model.Mindmap{ProjectID: src.ID})
	require.NoError(t, err)
	_, err = s.CreateDeck(ctx, model.Deck{ProjectID: src.ID, DeckID: "d-1"})
	require.NoError(t, err)

	clock.Advance(time.Hour)
	cp, err := s.DuplicateProject(ctx, src.ID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, cp.ID)
	assert.Equal(t, "Launch (Copy)", cp.Title)
	assert.Equal(t, src.Tags, cp.Tags)
	assert.True(t, cp.CreatedAt.Equal(clock.Now()))

	tasks, err := s.ListTasks(ctx, TaskFilter{ProjectID: cp.ID})
	require.NoError(t, err)
	require.Len(t, tasks, n)
	copied := map[string]bool{}
	for _, task := range tasks {
		assert.False(t, srcTasks[task.ID])
		assert.True(t, task.CreatedAt.Equal(clock.Now()))
		copied[task.ID] = true
	}
	assert.Len(t, copied, n)

	notes, err := s.ListNotes(ctx, NoteFilter{ProjectID: cp.ID, IncludeTaskNotes: true})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.True(t, copied[notes[0].TaskID], "task note must point at the copied task")

	cals, err := s.ListCalendarItems(ctx, CalendarFilter{ProjectID: cp.ID})
	require.NoError(t, err)
	require.Len(t, cals, 1)
	assert.NotEqual(t, srcCal.ID, cals[0].ID)
	assert.True(t, cals[0].Start.Equal(start))
	assert.True(t, copied[cals[0].TaskID])

	arts, err := s.ListArtifacts(ctx, ArtifactFilter{ProjectID: cp.ID})
	require.NoError(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, int64(12), arts[0].Size)

	maps, err := s.ListMindmaps(ctx, cp.ID)
	require.NoError(t, err)
	require.Len(t, maps, 1)
	assert.NotEqual(t, mm.ID, maps[0].ID)
	assert.Equal(t, mm.Root, maps[0].Root)

	decks, err := s.ListDecks(ctx, DeckFilter{ProjectID: cp.ID})
	require.NoError(t, err)
	assert.Empty(t, decks)

	// the source is untouched
	srcList, err := s.ListTasks(ctx, TaskFilter{ProjectID: src.ID})
	require.NoError(t, err)
	assert.Len(t, srcList, n)
}

func TestNoteListing(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	p := mustProject(t, s, "P")
	task := mustTask(t, s, p.ID, "T")
	_, err := s.CreateNote(ctx, model.Note{ProjectID: p.ID, Title: "doc", Pinned: true})
	require.NoError(t, err)
	_, err = s.CreateNote(ctx, model.Note{ProjectID: p.ID, TaskID: task.ID, Title: "task note"})
	require.NoError(t, err)

	project, err := s.ListNotes(ctx, NoteFilter{ProjectID: p.ID})
	require.NoError(t, err)
	require.Len(t, project, 1)
	assert.Equal(t, "doc", project[0].Title)

	byTask, err := s.ListNotes(ctx, NoteFilter{TaskID: task.ID})
	require.NoError(t, err)
	require.Len(t, byTask, 1)
	assert.Equal(t, "task note", byTask[0].Title)

	pinned, err := s.ListNotes(ctx, NoteFilter{ProjectID: p.ID, IncludeTaskNotes: true, PinnedOnly: true})
	require.NoError(t, err)
	assert.Len(t, pinned, 1)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	alpha := mustProject(t, s, "Alpha Launch")
	beta := mustProject(t, s, "Beta")
	mustTask(t, s, beta.ID, "Write copy")
	_, err := s.CreateNote(ctx, model.Note{ProjectID: alpha.ID, Title: "Notes", Content: "launch plan"})
	require.NoError(t, err)

	res, err := s.Search(ctx, "LAUNCH")
	require.NoError(t, err)
	require.Len(t, res.Projects, 1)
	assert.Equal(t, alpha.ID, res.Projects[0].ID)
	assert.Empty(t, res.Tasks)
	assert.Empty(t, res.Notes, "note content is not searched")

	launchTask := mustTask(t, s, beta.ID, "Prepare launch party")
	res, err = s.Search(ctx, "launch")
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1)
	assert.Equal(t, launchTask.ID, res.Tasks[0].ID)

	_, err = s.ArchiveProject(ctx, beta.ID)
	require.NoError(t, err)
	res, err = s.Search(ctx, "launch")
	require.NoError(t, err)
	assert.Len(t, res.Projects, 1)
	assert.Empty(t, res.Tasks)
}

func TestTaskBoardScenario(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	demo := mustProject(t, s, "Demo")
	task := mustTask(t, s, demo.ID, "Write spec")
	assert.Equal(t, model.TaskBacklog, task.Status)

	_, err := s.MoveTask(ctx, task.ID, model.TaskDone)
	require.NoError(t, err)

	done, err := s.ListTasks(ctx, TaskFilter{ProjectID: demo.ID, Status: model.TaskDone})
	require.NoError(t, err)
	assert.Len(t, done, 1)

	stats, err := s.ProjectStats(ctx, demo.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Done())
	assert.Equal(t, 1, stats.Total)
}

func TestEnsureProject(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	tmpl := model.Project{Title: "Incoming", Status: model.ProjectInProgress, Priority: model.PriorityHigh}

	first, created, err := s.EnsureProject(ctx, tmpl)
	require.NoError(t, err)
	assert.True(t, created)
	again, created, err := s.EnsureProject(ctx, tmpl)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	// an archived namesake does not count
	_, err = s.ArchiveProject(ctx, first.ID)
	require.NoError(t, err)
	fresh, created, err := s.EnsureProject(ctx, tmpl)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, fresh.ID)
}

func TestCreateDeckOnce(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	p := mustProject(t, s, "Incoming")
	deck := model.Deck{ProjectID: p.ID, DeckID: "ext-42", Who: model.DeckSource{Tool: "Forge", ID: "f1", Color: "#fff"}}
	note := model.Note{Title: "Forge Deck", Content: "# deck", Pinned: true}

	first, created, err := s.CreateDeckOnce(ctx, deck, note)
	require.NoError(t, err)
	assert.True(t, created)
	second, created, err := s.CreateDeckOnce(ctx, deck, note)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	decks, err := s.ListDecks(ctx, DeckFilter{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Len(t, decks, 1)
	notes, err := s.ListNotes(ctx, NoteFilter{ProjectID: p.ID})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.True(t, notes[0].Pinned)

	// the same deckId under another project is a different deck
	other := mustProject(t, s, "Other")
	deck.ProjectID = other.ID
	_, created, err = s.CreateDeckOnce(ctx, deck, note)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestEditMindmap(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	p := mustProject(t, s, "P")
	mm, err := s.CreateMindmap(ctx, model.Mindmap{ProjectID: p.ID, Title: "Ideas"})
	require.NoError(t, err)

	got, err := s.EditMindmap(ctx, mm.ID, func(root model.MindmapNode) model.MindmapNode {
		root.Label = "Goals"
		return root
	})
	require.NoError(t, err)
	assert.Equal(t, "Goals", got.Root.Label)

	stored, err := s.GetMindmap(ctx, mm.ID)
	require.NoError(t, err)
	assert.Equal(t, "Goals", stored.Root.Label)
	assert.Equal(t, mm.Root.ID, stored.Root.ID)
}

func TestMindmapNodeOperations(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t)
	p := mustProject(t, s, "P")
	mm, err := s.CreateMindmap(ctx, model.Mindmap{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Equal(t, DefaultMindmapTitle, mm.Title)

	child, got, err := s.AddMindmapNode(ctx, mm.ID, "", "Scope")
	require.NoError(t, err)
	require.Len(t, got.Root.Children, 1)
	assert.Equal(t, child.ID, got.Root.Children[0].ID)

	grandchild, _, err := s.AddMindmapNode(ctx, mm.ID, child.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "New Node", grandchild.Label)

	got, err = s.RenameMindmapNode(ctx, mm.ID, grandchild.ID, "Risks")
	require.NoError(t, err)
	assert.Equal(t, "Risks", got.Root.Children[0].Children[0].Label)

	before, err := mem.Get(ctx, DocumentKey)
	require.NoError(t, err)
	_, err = s.RenameMindmapNode(ctx, mm.ID, "node-missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.DeleteMindmapNode(ctx, mm.ID, got.Root.ID)
	assert.ErrorIs(t, err, ErrInvalid)
	after, err := mem.Get(ctx, DocumentKey)
	require.NoError(t, err)
	assert.Equal(t, before.Revision, after.Revision, "failed edits must not write")

	got, err = s.DeleteMindmapNode(ctx, mm.ID, child.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Root.Children)

	_, _, err = s.AddMindmapNode(ctx, mm.ID, "", "Again")
	require.NoError(t, err)
	got, err = s.ResetMindmap(ctx, mm.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Root.Children)
	assert.Equal(t, "Central Topic", got.Root.Label)
	assert.NotEqual(t, mm.Root.ID, got.Root.ID)
}

func TestConcurrentWriterIsNotLost(t *testing.T) {
	ctx := context.Background()
	racing := &racingStorage{Memory: kv.NewMemory()}
	s := New(racing)
	other := New(racing.Memory)
	_, err := s.Load(ctx)
	require.NoError(t, err)

	racing.race(func() { mustProject(t, other, "Theirs") })
	mustProject(t, s, "Mine")

	projects, err := s.ListProjects(ctx, ProjectFilter{})
	require.NoError(t, err)
	var titles []string
	for _, p := range projects {
		titles = append(titles, p.Title)
	}
	assert.ElementsMatch(t, []string{"Theirs", "Mine"}, titles)
}

func TestConflictAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	racing := &racingStorage{Memory: kv.NewMemory()}
	s := New(racing, WithMaxAttempts(3))
	_, err := s.Load(ctx)
	require.NoError(t, err)

	bump := func() {
		e, err := racing.Memory.Get(ctx, DocumentKey)
		require.NoError(t, err)
		_, err = racing.Memory.Put(ctx, DocumentKey, e.Value)
		require.NoError(t, err)
	}
	racing.race(bump, bump, bump)

	_, err = s.CreateProject(ctx, model.Project{Title: "Lost"})
	assert.ErrorIs(t, err, ErrConflict)

	projects, err := s.ListProjects(ctx, ProjectFilter{})
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestIDsAreUniqueWithinOneInstant(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s, _ := newTestStore(t, WithClock(clock.Now))
	p := mustProject(t, s, "P")

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		task, err := s.CreateTask(ctx, model.Task{ProjectID: p.ID})
		require.NoError(t, err)
		assert.False(t, seen[task.ID])
		seen[task.ID] = true
	}
}

func TestCalendarRangeFilter(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	p := mustProject(t, s, "P")
	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	in, err := s.CreateCalendarItem(ctx, model.CalendarItem{ProjectID: p.ID, Start: day.Add(9 * time.Hour), End: day.Add(10 * time.Hour)})
	require.NoError(t, err)
	_, err = s.CreateCalendarItem(ctx, model.CalendarItem{ProjectID: p.ID, Start: day.Add(48 * time.Hour), End: day.Add(49 * time.Hour)})
	require.NoError(t, err)

	got, err := s.ListCalendarItems(ctx, CalendarFilter{From: day, To: day.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, in.ID, got[0].ID)
}

func TestStoreOverSQLite(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/vault.db"
	db, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	s := New(db)
	p := mustProject(t, s, "Persisted")
	require.NoError(t, db.Close())

	db, err = kv.OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()
	got, err := New(db).GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Title)
}
