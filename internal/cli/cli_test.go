package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/existflow/ironvault/internal/ingest"
	"github.com/existflow/ironvault/internal/kv"
	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
	"github.com/existflow/ironvault/internal/vaultcrypto"
)

// newHome points the CLI at a fresh vault directory
func newHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("IRONVAULT_HOME", home)
	return home
}

// resetFlags puts every flag back to its default; flag variables are
// package globals that outlive one Execute
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, "", args...)
	require.NoError(t, err, out)
	return out
}

// openStore opens the vault the CLI writes to
func openStore(t *testing.T, home string) *store.Store {
	t.Helper()
	storage, err := kv.OpenSQLite(filepath.Join(home, "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return store.New(storage)
}

func TestProjectAndTaskCommands(t *testing.T) {
	home := newHome(t)
	ctx := context.Background()

	out := mustRun(t, "project", "new", "Launch Plan", "--priority", "high", "--tag", "q3")
	assert.Contains(t, out, "Created project: Launch Plan")

	mustRun(t, "use", "launch plan")
	out = mustRun(t, "use")
	assert.Contains(t, out, "Current project: Launch Plan")

	mustRun(t, "task", "add", "Write brief", "--due", "2020-01-01")
	mustRun(t, "task", "add", "Book venue", "--status", "blocked")

	out = mustRun(t, "task", "list")
	assert.Contains(t, out, "Write brief")
	assert.Contains(t, out, "overdue")
	assert.Contains(t, out, "BLOCKED (1)")

	st := openStore(t, home)
	projects, err := st.ListProjects(ctx, store.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, model.PriorityHigh, projects[0].Priority)
	assert.Equal(t, []string{"q3"}, projects[0].Tags)

	tasks, err := st.ListTasks(ctx, store.TaskFilter{ProjectID: projects[0].ID})
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	out = mustRun(t, "task", "done", tasks[0].ID[:10])
	assert.Contains(t, out, "Write brief → Done")

	out = mustRun(t, "project", "show")
	assert.Contains(t, out, "2 tasks")
	assert.Contains(t, out, "Done 1")

	mustRun(t, "project", "archive")
	out = mustRun(t, "project", "list")
	assert.Contains(t, out, "No projects yet")
	out = mustRun(t, "project", "list", "--all")
	assert.Contains(t, out, "Launch Plan (archived)")

	mustRun(t, "project", "unarchive")
	mustRun(t, "project", "duplicate")
	projects, err = st.ListProjects(ctx, store.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Launch Plan (Copy)", projects[1].Title)

	mustRun(t, "project", "delete", projects[1].ID, "--yes")
	projects, err = st.ListProjects(ctx, store.ProjectFilter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestProjectDeleteAsksFirst(t *testing.T) {
	home := newHome(t)
	mustRun(t, "project", "new", "Keep me")

	out, err := run(t, "n\n", "project", "delete", "Keep me")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled")

	projects, err := openStore(t, home).ListProjects(context.Background(), store.ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestCommandsNeedAProject(t *testing.T) {
	newHome(t)
	_, err := run(t, "", "task", "add", "Orphan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no project given")

	_, err = run(t, "", "task", "add", "Orphan", "-p", "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestNotesArtifactsAndCalendar(t *testing.T) {
	home := newHome(t)
	ctx := context.Background()
	mustRun(t, "project", "new", "Research")

	mustRun(t, "note", "add", "Kickoff", "-p", "Research", "--content", "# Agenda", "--pin")
	out, err := run(t, "piped body", "note", "add", "From stdin", "-p", "Research", "--file", "-")
	require.NoError(t, err, out)

	out = mustRun(t, "note", "list", "-p", "Research", "--pinned")
	assert.Contains(t, out, "Kickoff")
	assert.NotContains(t, out, "From stdin")

	st := openStore(t, home)
	notes, err := st.ListNotes(ctx, store.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "piped body", notes[1].Content)

	mustRun(t, "note", "pin", notes[0].ID, "--unpin")
	n, err := st.GetNote(ctx, notes[0].ID)
	require.NoError(t, err)
	assert.False(t, n.Pinned)

	out = mustRun(t, "artifact", "add", "brief.pdf", "-p", "Research", "--size", "2048")
	assert.Contains(t, out, "pdf artifact: brief.pdf")
	out = mustRun(t, "artifact", "list", "-p", "Research")
	assert.Contains(t, out, "2.0 KB")

	mustRun(t, "cal", "add", "Beta", "-p", "Research", "--start", "2025-08-01", "--kind", "milestone")
	out = mustRun(t, "cal", "list", "--from", "2025-07-01", "--to", "2025-09-01")
	assert.Contains(t, out, "Beta")
	assert.Contains(t, out, "all day")
	out = mustRun(t, "cal", "list", "--from", "2026-01-01")
	assert.Contains(t, out, "Nothing scheduled")

	_, err = run(t, "", "cal", "add", "Bad", "-p", "Research", "--kind", "party")
	assert.ErrorIs(t, err, store.ErrInvalid)
}

func TestMindmapCommands(t *testing.T) {
	home := newHome(t)
	mustRun(t, "project", "new", "Ideas")
	mustRun(t, "mindmap", "new", "Roadmap", "-p", "Ideas")

	maps, err := openStore(t, home).ListMindmaps(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, maps, 1)
	id := maps[0].ID

	out := mustRun(t, "mindmap", "add", id, "Goals")
	assert.Contains(t, out, "Added node: Goals")

	m, err := openStore(t, home).GetMindmap(context.Background(), id)
	require.NoError(t, err)
	goals := m.Root.Children[0].ID
	mustRun(t, "mindmap", "add", id, "Ship v1", "--parent", goals)

	out = mustRun(t, "mindmap", "show", id)
	assert.Contains(t, out, "Central Topic")
	assert.Contains(t, out, "└── Goals")
	assert.Contains(t, out, "    └── Ship v1")

	_, err = run(t, "", "mindmap", "rm", id, m.Root.ID)
	assert.ErrorIs(t, err, store.ErrInvalid)

	out = mustRun(t, "mindmap", "rm", id, goals)
	assert.Contains(t, out, "Removed 2 nodes")

	mustRun(t, "mindmap", "rename", id, m.Root.ID, "Vision")
	out = mustRun(t, "mindmap", "list", "-p", "Ideas")
	assert.Contains(t, out, "1 nodes")
}

func TestInboxCommands(t *testing.T) {
	home := newHome(t)
	ctx := context.Background()

	out := mustRun(t, "inbox", "commit", "Retry policy", "--tool", "claude", "--content", "use backoff")
	assert.Contains(t, out, "commit: 1 created")

	out = mustRun(t, "inbox", "commit", "Later", "--queue-only")
	assert.Contains(t, out, "Commit queued")

	deck := `[{"deckId":"d-1","who":{"tool":"slides","id":"s"},"slides":[{"type":"cover","title":"Q3 Review"}]}]`
	out, err := run(t, deck, "inbox", "deck", "-", "--queue-only")
	require.NoError(t, err, out)

	out = mustRun(t, "inbox", "drain")
	assert.Contains(t, out, "commit: 1 created")
	assert.Contains(t, out, "deck: 1 created")

	st := openStore(t, home)
	inbox, found, err := st.FindProjectByTitle(ctx, ingest.InboxTitle)
	require.NoError(t, err)
	require.True(t, found)
	decks, err := st.ListDecks(ctx, store.DeckFilter{ProjectID: inbox.ID})
	require.NoError(t, err)
	require.Len(t, decks, 1)

	out = mustRun(t, "deck", "list")
	assert.Contains(t, out, "Q3 Review")

	// the same deck again is not duplicated
	out, err = run(t, deck, "inbox", "deck", "-")
	require.NoError(t, err, out)
	assert.Contains(t, out, "deck: 0 created, 1 skipped")

	_, err = run(t, `"nope"`, "inbox", "deck", "-")
	assert.Error(t, err)
}

func TestListenAppliesOracleEvents(t *testing.T) {
	home := newHome(t)
	stream := `{"type":"SESSION_START","data":{"title":"Deep Dive"}}
not json
{"type":"ARTIFACT_EMITTED","data":{"title":"Finding","content":"cache misses"}}
`
	out, err := run(t, stream, "listen")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Oracle started a new session: Deep Dive")
	assert.Contains(t, out, "Artifact saved to Vault")

	st := openStore(t, home)
	p, found, err := st.FindProjectByTitle(context.Background(), "Deep Dive")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, p.HasTag("Oracle"))
	notes, err := st.ListNotes(context.Background(), store.NoteFilter{ProjectID: p.ID})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "cache misses", notes[0].Content)
}

func TestBackupAndRestore(t *testing.T) {
	home := newHome(t)
	mustRun(t, "project", "new", "Precious")

	out := mustRun(t, "backup")
	assert.Contains(t, out, "Snapshot written: vault-")

	mustRun(t, "project", "delete", "Precious", "-y")
	out = mustRun(t, "restore", "-y")
	assert.Contains(t, out, "Current vault saved as")
	assert.Contains(t, out, "Restored vault-")

	_, found, err := openStore(t, home).FindProjectByTitle(context.Background(), "Precious")
	require.NoError(t, err)
	assert.True(t, found)

	out = mustRun(t, "backup", "list")
	assert.Equal(t, 2, strings.Count(out, ".json.gz"))
	out = mustRun(t, "backup", "prune", "--keep", "1")
	assert.Contains(t, out, "Removed 1 snapshots")
}

func TestEncryptedVault(t *testing.T) {
	home := newHome(t)
	t.Setenv("IRONVAULT_ENCRYPTION", "true")
	t.Setenv("IRONVAULT_PASSPHRASE", "correct horse")

	mustRun(t, "project", "new", "Secret")
	out := mustRun(t, "project", "list")
	assert.Contains(t, out, "Secret")

	storage, err := kv.OpenSQLite(filepath.Join(home, "vault.db"))
	require.NoError(t, err)
	defer storage.Close()
	e, err := storage.Get(context.Background(), store.DocumentKey)
	require.NoError(t, err)
	assert.True(t, vaultcrypto.IsSealed(e.Value))

	t.Setenv("IRONVAULT_PASSPHRASE", "wrong")
	_, err = run(t, "", "project", "list")
	assert.ErrorIs(t, err, store.ErrLocked)
}

func TestSearchCommand(t *testing.T) {
	newHome(t)
	mustRun(t, "project", "new", "Launch")
	mustRun(t, "task", "add", "Launch party", "-p", "Launch")

	out := mustRun(t, "search", "launch")
	assert.Contains(t, out, "2 matches")

	out = mustRun(t, "search", "zebra")
	assert.Contains(t, out, "Nothing matches")
}

func TestMatchID(t *testing.T) {
	ids := []string{"t-abc1", "t-abc2", "t-def"}
	at := func(i int) string { return ids[i] }

	i, err := matchID("t-def", len(ids), at)
	require.NoError(t, err)
	assert.Equal(t, 2, i)

	i, err = matchID("t-abc2", len(ids), at)
	require.NoError(t, err)
	assert.Equal(t, 1, i)

	_, err = matchID("t-abc", len(ids), at)
	assert.ErrorContains(t, err, "ambiguous")

	_, err = matchID("x", len(ids), at)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
