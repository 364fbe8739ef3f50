package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/existflow/ironvault/internal/config"
	"github.com/existflow/ironvault/internal/model"
	"github.com/spf13/cobra"
)

var useCmd = &cobra.Command{
	Use:   "use [project]",
	Short: "Show or set the current project",
	Long: `Set or view the current project.

Commands that act on a project use the current one unless --project is
given.

Examples:
  vault use                # Show the current project
  vault use "Launch Plan"  # Switch by title
  vault use p-1a2b         # Switch by id prefix
  vault use --clear        # Forget the current project`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUse,
}

var useClear bool

func init() {
	useCmd.Flags().BoolVar(&useClear, "clear", false, "Clear the current project")
}

func contextFilePath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "context"), nil
}

// GetCurrentContext returns the current project id, empty when unset
func GetCurrentContext() string {
	path, err := contextFilePath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetContext saves the current project id
func SetContext(projectID string) error {
	path, err := contextFilePath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(projectID), 0644)
}

// ClearContext removes the context file
func ClearContext() error {
	path, err := contextFilePath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func runUse(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if useClear {
		if err := ClearContext(); err != nil {
			return fmt.Errorf("failed to clear current project: %w", err)
		}
		fmt.Fprintln(out, "📥 Current project cleared")
		return nil
	}

	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	if len(args) == 0 {
		current := GetCurrentContext()
		if current == "" {
			fmt.Fprintln(out, "📥 No current project. Use 'vault use <project>' to pick one")
			return nil
		}
		p, err := v.store.GetProject(cmd.Context(), current)
		if err != nil {
			fmt.Fprintf(out, "⚠️  Current project %s no longer exists\n", current)
			return nil
		}
		counts, err := v.store.ProjectStats(cmd.Context(), p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "📁 Current project: %s (%d/%d tasks done)\n", p.Title, counts.Done(), counts.Total)
		return nil
	}

	p, err := v.project(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := SetContext(p.ID); err != nil {
		return fmt.Errorf("failed to set current project: %w", err)
	}
	fmt.Fprintf(out, "📁 Switched to: %s\n", projectLabel(p))
	return nil
}

func projectLabel(p model.Project) string {
	if p.Archived {
		return p.Title + " (archived)"
	}
	return p.Title
}
