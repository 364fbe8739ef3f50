package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find projects, tasks and notes by title",
	Long: `Search titles across the vault, ignoring case. Archived projects and
their contents are skipped.

Examples:
  vault search launch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	query := strings.Join(args, " ")
	res, err := v.store.Search(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if res.Total() == 0 {
		fmt.Fprintf(out, "🔍 Nothing matches %q\n", query)
		return nil
	}
	fmt.Fprintf(out, "🔍 %d matches for %q\n", res.Total(), query)
	if len(res.Projects) > 0 {
		fmt.Fprintln(out, "\nProjects")
		for _, p := range res.Projects {
			fmt.Fprintf(out, "  📁 %-10s  %s\n", shortID(p.ID), p.Title)
		}
	}
	if len(res.Tasks) > 0 {
		fmt.Fprintln(out, "\nTasks")
		for _, t := range res.Tasks {
			fmt.Fprintf(out, "  ○ %-10s  %s  [%s]\n", shortID(t.ID), t.Title, t.Status)
		}
	}
	if len(res.Notes) > 0 {
		fmt.Fprintln(out, "\nNotes")
		for _, n := range res.Notes {
			fmt.Fprintf(out, "  📝 %-10s  %s\n", shortID(n.ID), n.Title)
		}
	}
	return nil
}
