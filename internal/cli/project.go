package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"projects"},
	Short:   "Manage projects",
	Long:    `Create, list, and manage the projects that hold tasks, notes and the rest.`,
}

var projectNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a new project",
	Long: `Create a new project.

Examples:
  vault project new "Launch Plan"
  vault project new "Research" --status idea --priority high --tag ml --tag q3`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProjectNew,
}

var projectListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List projects",
	RunE:    runProjectList,
}

var projectShowCmd = &cobra.Command{
	Use:   "show [project]",
	Short: "Show a project and its board counts",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectShow,
}

var projectEditCmd = &cobra.Command{
	Use:   "edit [project]",
	Short: "Change fields of a project",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectEdit,
}

var projectArchiveCmd = &cobra.Command{
	Use:   "archive [project]",
	Short: "Hide a project from lists and search",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectArchive(true),
}

var projectUnarchiveCmd = &cobra.Command{
	Use:   "unarchive [project]",
	Short: "Bring an archived project back",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectArchive(false),
}

var projectDeleteCmd = &cobra.Command{
	Use:     "delete [project]",
	Aliases: []string{"rm"},
	Short:   "Delete a project and everything in it",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runProjectDelete,
}

var projectDuplicateCmd = &cobra.Command{
	Use:     "duplicate [project]",
	Aliases: []string{"dup"},
	Short:   "Copy a project with its tasks, notes, artifacts, calendar and mindmaps",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runProjectDuplicate,
}

var (
	projectTitle       string
	projectDescription string
	projectStatus      string
	projectPriority    string
	projectTags        []string
	projectColor       string
	projectStart       string
	projectTarget      string
	projectAll         bool
	projectTag         string
	projectYes         bool
)

func init() {
	for _, c := range []*cobra.Command{projectNewCmd, projectEditCmd} {
		c.Flags().StringVarP(&projectDescription, "description", "d", "", "Project description")
		c.Flags().StringVarP(&projectStatus, "status", "s", "", "Status (idea, planning, in-progress, paused, complete)")
		c.Flags().StringVar(&projectPriority, "priority", "", "Priority (low, medium, high)")
		c.Flags().StringArrayVarP(&projectTags, "tag", "t", nil, "Tag (repeatable)")
		c.Flags().StringVarP(&projectColor, "color", "c", "", "Project color (hex)")
		c.Flags().StringVar(&projectStart, "start", "", "Start date (YYYY-MM-DD)")
		c.Flags().StringVar(&projectTarget, "target", "", "Target date (YYYY-MM-DD)")
	}
	projectEditCmd.Flags().StringVar(&projectTitle, "title", "", "New title")
	projectListCmd.Flags().BoolVarP(&projectAll, "all", "a", false, "Include archived projects")
	projectListCmd.Flags().StringVarP(&projectStatus, "status", "s", "", "Only projects with this status")
	projectListCmd.Flags().StringVar(&projectTag, "tag", "", "Only projects with this tag")
	projectDeleteCmd.Flags().BoolVarP(&projectYes, "yes", "y", false, "Do not ask for confirmation")

	projectCmd.AddCommand(projectNewCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectShowCmd)
	projectCmd.AddCommand(projectEditCmd)
	projectCmd.AddCommand(projectArchiveCmd)
	projectCmd.AddCommand(projectUnarchiveCmd)
	projectCmd.AddCommand(projectDeleteCmd)
	projectCmd.AddCommand(projectDuplicateCmd)
}

func argOrEmpty(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return ""
}

func runProjectNew(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p := model.Project{
		Title:       argOrEmpty(args),
		Description: projectDescription,
		Color:       projectColor,
		Tags:        projectTags,
	}
	if projectStatus != "" {
		if p.Status, err = model.ParseProjectStatus(projectStatus); err != nil {
			return err
		}
	}
	if projectPriority != "" {
		if p.Priority, err = model.ParsePriority(projectPriority); err != nil {
			return err
		}
	}
	if p.StartDate, err = parseDateFlag(projectStart); err != nil {
		return err
	}
	if p.TargetDate, err = parseDateFlag(projectTarget); err != nil {
		return err
	}

	created, err := v.store.CreateProject(cmd.Context(), p)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✅ Created project: %s (%s)\n", created.Title, created.ID)
	return nil
}

func runProjectList(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	f := store.ProjectFilter{IncludeArchived: projectAll, Tag: projectTag}
	if projectStatus != "" {
		if f.Status, err = model.ParseProjectStatus(projectStatus); err != nil {
			return err
		}
	}
	projects, err := v.store.ListProjects(cmd.Context(), f)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(projects) == 0 {
		fmt.Fprintln(out, "📭 No projects yet. Create one with 'vault project new <title>'")
		return nil
	}
	current := GetCurrentContext()
	for _, p := range projects {
		counts, err := v.store.ProjectStats(cmd.Context(), p.ID)
		if err != nil {
			return err
		}
		marker := "  "
		if p.ID == current {
			marker = "❯ "
		}
		fmt.Fprintf(out, "%s%-10s  %-28s  %-11s  %-6s  %d/%d\n",
			marker, shortID(p.ID), truncate(projectLabel(p), 28), p.Status, p.Priority, counts.Done(), counts.Total)
	}
	return nil
}

func runProjectShow(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.project(cmd.Context(), argOrEmpty(args))
	if err != nil {
		return err
	}
	counts, err := v.store.ProjectStats(cmd.Context(), p.ID)
	if err != nil {
		return err
	}
	printProject(cmd.OutOrStdout(), p, counts)
	return nil
}

func printProject(out io.Writer, p model.Project, counts model.TaskCounts) {
	fmt.Fprintf(out, "📁 %s\n", projectLabel(p))
	fmt.Fprintf(out, "   id:       %s\n", p.ID)
	fmt.Fprintf(out, "   status:   %s\n", p.Status)
	fmt.Fprintf(out, "   priority: %s\n", p.Priority)
	if len(p.Tags) > 0 {
		fmt.Fprintf(out, "   tags:     %s\n", strings.Join(p.Tags, ", "))
	}
	if p.StartDate != nil {
		fmt.Fprintf(out, "   start:    %s\n", p.StartDate)
	}
	if p.TargetDate != nil {
		fmt.Fprintf(out, "   target:   %s\n", p.TargetDate)
	}
	if p.Description != "" {
		fmt.Fprintf(out, "\n   %s\n", p.Description)
	}
	fmt.Fprintf(out, "\n   %d tasks:", counts.Total)
	for _, s := range model.TaskStatuses {
		fmt.Fprintf(out, "  %s %d", s, counts.ByStatus[s])
	}
	fmt.Fprintln(out)
}

func runProjectEdit(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.project(cmd.Context(), argOrEmpty(args))
	if err != nil {
		return err
	}

	var patch model.ProjectPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		patch.Title = &projectTitle
	}
	if flags.Changed("description") {
		patch.Description = &projectDescription
	}
	if flags.Changed("status") {
		s, err := model.ParseProjectStatus(projectStatus)
		if err != nil {
			return err
		}
		patch.Status = &s
	}
	if flags.Changed("priority") {
		pr, err := model.ParsePriority(projectPriority)
		if err != nil {
			return err
		}
		patch.Priority = &pr
	}
	if flags.Changed("tag") {
		patch.Tags = &projectTags
	}
	if flags.Changed("color") {
		patch.Color = &projectColor
	}
	if patch.StartDate, err = parseDateFlag(projectStart); err != nil {
		return err
	}
	if patch.TargetDate, err = parseDateFlag(projectTarget); err != nil {
		return err
	}

	updated, err := v.store.UpdateProject(cmd.Context(), p.ID, patch)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✏️  Updated project: %s\n", updated.Title)
	return nil
}

func runProjectArchive(archive bool) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		v, err := openVault(cmd.Context())
		if err != nil {
			return err
		}
		defer v.Close()

		p, err := v.project(cmd.Context(), argOrEmpty(args))
		if err != nil {
			return err
		}
		if archive {
			if _, err := v.store.ArchiveProject(cmd.Context(), p.ID); err != nil {
				return fmt.Errorf("failed to archive project: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🗄️  Archived: %s\n", p.Title)
			return nil
		}
		if _, err := v.store.UnarchiveProject(cmd.Context(), p.ID); err != nil {
			return fmt.Errorf("failed to unarchive project: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "📂 Unarchived: %s\n", p.Title)
		return nil
	}
}

func runProjectDelete(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.project(cmd.Context(), argOrEmpty(args))
	if err != nil {
		return err
	}
	if cfg.ConfirmDelete && !projectYes {
		ok, err := confirm(cmd, fmt.Sprintf("Delete %q and all of its tasks, notes, artifacts, calendar items, mindmaps and decks?", p.Title))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return nil
		}
	}
	if err := v.store.DeleteProject(cmd.Context(), p.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if GetCurrentContext() == p.ID {
		_ = ClearContext()
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted project: %s\n", p.Title)
	return nil
}

func runProjectDuplicate(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.project(cmd.Context(), argOrEmpty(args))
	if err != nil {
		return err
	}
	dup, err := v.store.DuplicateProject(cmd.Context(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to duplicate project: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "📋 Duplicated into: %s (%s)\n", dup.Title, dup.ID)
	return nil
}

// confirm asks a yes/no question on the command's input
func confirm(cmd *cobra.Command, question string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "⚠️  %s (y/N): ", question)
	var response string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &response); err != nil {
		// empty line or closed input means no
		return false, nil
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}

func parseDateFlag(s string) (*model.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD: %w", s, err)
	}
	return &d, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
