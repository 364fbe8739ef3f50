package cli

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/existflow/ironvault/internal/logger"
	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
	"github.com/spf13/cobra"
)

var noteCmd = &cobra.Command{
	Use:     "note",
	Aliases: []string{"notes"},
	Short:   "Manage markdown notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a note to a project or task",
	Long: `Add a markdown note. Content comes from --content, --file (use - for
stdin), or the configured editor with --edit.

Examples:
  vault note add "Kickoff" --content "# Agenda"
  vault note add "Findings" --file notes.md
  vault note add "Repro steps" --task t-2f9c --edit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runNoteAdd,
}

var noteListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List notes of a project or task",
	RunE:    runNoteList,
}

var noteShowCmd = &cobra.Command{
	Use:   "show [note-id]",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	RunE:  runNoteShow,
}

var notePinCmd = &cobra.Command{
	Use:   "pin [note-id]",
	Short: "Pin a note, or unpin it with --unpin",
	Args:  cobra.ExactArgs(1),
	RunE:  runNotePin,
}

var noteDeleteCmd = &cobra.Command{
	Use:     "delete [note-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a note",
	Args:    cobra.ExactArgs(1),
	RunE:    runNoteDelete,
}

var (
	noteContent string
	noteFile    string
	noteEdit    bool
	noteTask    string
	notePinned  bool
	noteAll     bool
	noteUnpin   bool
)

func init() {
	noteAddCmd.Flags().StringVar(&noteContent, "content", "", "Markdown content")
	noteAddCmd.Flags().StringVarP(&noteFile, "file", "f", "", "Read content from a file, - for stdin")
	noteAddCmd.Flags().BoolVarP(&noteEdit, "edit", "e", false, "Write the content in the configured editor")
	noteAddCmd.Flags().BoolVar(&notePinned, "pin", false, "Pin the note")
	for _, c := range []*cobra.Command{noteAddCmd, noteListCmd} {
		c.Flags().StringVar(&noteTask, "task", "", "Task id the note belongs to")
	}
	noteListCmd.Flags().BoolVar(&notePinned, "pinned", false, "Only pinned notes")
	noteListCmd.Flags().BoolVarP(&noteAll, "all", "a", false, "Include task notes")
	notePinCmd.Flags().BoolVar(&noteUnpin, "unpin", false, "Unpin instead")

	noteCmd.AddCommand(noteAddCmd)
	noteCmd.AddCommand(noteListCmd)
	noteCmd.AddCommand(noteShowCmd)
	noteCmd.AddCommand(notePinCmd)
	noteCmd.AddCommand(noteDeleteCmd)
}

func runNoteAdd(cmd *cobra.Command, args []string) error {
	content, err := noteBody(cmd)
	if err != nil {
		return err
	}

	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	n := model.Note{Title: argOrEmpty(args), Content: content, Pinned: notePinned}
	if noteTask != "" {
		t, err := v.task(cmd.Context(), noteTask)
		if err != nil {
			return err
		}
		n.TaskID = t.ID
	} else {
		p, err := v.project(cmd.Context(), "")
		if err != nil {
			return err
		}
		n.ProjectID = p.ID
	}

	created, err := v.store.CreateNote(cmd.Context(), n)
	if err != nil {
		return fmt.Errorf("failed to add note: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "📝 Added note: %s (%s)\n", created.Title, shortID(created.ID))
	return nil
}

// noteBody picks the content source of note add
func noteBody(cmd *cobra.Command) (string, error) {
	switch {
	case noteFile == "-":
		b, err := io.ReadAll(cmd.InOrStdin())
		return string(b), err
	case noteFile != "":
		b, err := os.ReadFile(noteFile)
		if err != nil {
			return "", fmt.Errorf("failed to read note file: %w", err)
		}
		return string(b), nil
	case noteEdit:
		return editInEditor(noteContent)
	}
	return noteContent, nil
}

// editInEditor opens initial in the configured editor and returns the
// saved text
func editInEditor(initial string) (string, error) {
	f, err := os.CreateTemp("", "ironvault-*.md")
	if err != nil {
		return "", err
	}
	path := f.Name()
	defer os.Remove(path)
	if _, err := f.WriteString(initial); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	parts := strings.Fields(cfg.Editor)
	if len(parts) == 0 {
		return "", fmt.Errorf("no editor configured")
	}
	c := exec.Command(parts[0], append(parts[1:], path)...)
	c.Stdin, c.Stdout, c.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := c.Run(); err != nil {
		logger.Error("Editor failed", logger.Err(err), logger.F("editor", cfg.Editor))
		return "", fmt.Errorf("editor %s failed: %w", parts[0], err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func runNoteList(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	f := store.NoteFilter{IncludeTaskNotes: noteAll, PinnedOnly: notePinned}
	if noteTask != "" {
		t, err := v.task(cmd.Context(), noteTask)
		if err != nil {
			return err
		}
		f.TaskID = t.ID
	} else {
		p, err := v.project(cmd.Context(), "")
		if err != nil {
			return err
		}
		f.ProjectID = p.ID
	}

	notes, err := v.store.ListNotes(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("failed to list notes: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(notes) == 0 {
		fmt.Fprintln(out, "📭 No notes")
		return nil
	}
	for _, n := range notes {
		pin := "  "
		if n.Pinned {
			pin = "📌"
		}
		fmt.Fprintf(out, "%s %-10s  %-32s  %s\n", pin, shortID(n.ID), truncate(n.Title, 32), n.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

func runNoteShow(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	n, err := v.note(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📝 %s\n\n", n.Title)
	fmt.Fprintln(out, n.Content)
	return nil
}

func runNotePin(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	n, err := v.note(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	pinned := !noteUnpin
	if _, err := v.store.UpdateNote(cmd.Context(), n.ID, model.NotePatch{Pinned: &pinned}); err != nil {
		return fmt.Errorf("failed to pin note: %w", err)
	}
	if pinned {
		fmt.Fprintf(cmd.OutOrStdout(), "📌 Pinned: %s\n", n.Title)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Unpinned: %s\n", n.Title)
	}
	return nil
}

func runNoteDelete(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	n, err := v.note(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := v.store.DeleteNote(cmd.Context(), n.ID); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted note: %s\n", n.Title)
	return nil
}
