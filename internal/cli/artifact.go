package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
	"github.com/spf13/cobra"
)

var artifactCmd = &cobra.Command{
	Use:     "artifact",
	Aliases: []string{"artifacts"},
	Short:   "Track files attached to a project",
}

var artifactAddCmd = &cobra.Command{
	Use:   "add [file]",
	Short: "Record a file as a project artifact",
	Long: `Record the metadata of a file. The type is inferred from the extension
and the size is read from disk when the file exists.

Examples:
  vault artifact add ./brief.pdf
  vault artifact add diagram.png --url https://example.com/diagram.png --size 20480`,
	Args: cobra.ExactArgs(1),
	RunE: runArtifactAdd,
}

var artifactListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List artifacts of a project",
	RunE:    runArtifactList,
}

var artifactDeleteCmd = &cobra.Command{
	Use:     "delete [artifact-id]",
	Aliases: []string{"rm"},
	Short:   "Forget an artifact",
	Args:    cobra.ExactArgs(1),
	RunE:    runArtifactDelete,
}

var (
	artifactURL  string
	artifactSize int64
	artifactType string
)

func init() {
	artifactAddCmd.Flags().StringVar(&artifactURL, "url", "", "Where the file lives (defaults to its absolute path)")
	artifactAddCmd.Flags().Int64Var(&artifactSize, "size", 0, "Size in bytes when the file is not local")
	artifactListCmd.Flags().StringVar(&artifactType, "type", "", "Only artifacts of this type (pdf, markdown, image, zip, generic)")

	artifactCmd.AddCommand(artifactAddCmd)
	artifactCmd.AddCommand(artifactListCmd)
	artifactCmd.AddCommand(artifactDeleteCmd)
}

func runArtifactAdd(cmd *cobra.Command, args []string) error {
	path := args[0]
	a := model.Artifact{Title: filepath.Base(path), Size: artifactSize, URL: artifactURL}
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		a.Size = info.Size()
		if a.URL == "" {
			if abs, err := filepath.Abs(path); err == nil {
				a.URL = "file://" + abs
			}
		}
	}

	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.project(cmd.Context(), "")
	if err != nil {
		return err
	}
	a.ProjectID = p.ID
	created, err := v.store.CreateArtifact(cmd.Context(), a)
	if err != nil {
		return fmt.Errorf("failed to add artifact: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "📎 Added %s artifact: %s (%s)\n", created.Type, created.Title, shortID(created.ID))
	return nil
}

func runArtifactList(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.project(cmd.Context(), "")
	if err != nil {
		return err
	}
	artifacts, err := v.store.ListArtifacts(cmd.Context(), store.ArtifactFilter{ProjectID: p.ID, Type: model.ArtifactType(artifactType)})
	if err != nil {
		return fmt.Errorf("failed to list artifacts: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(artifacts) == 0 {
		fmt.Fprintln(out, "📭 No artifacts")
		return nil
	}
	for _, a := range artifacts {
		fmt.Fprintf(out, "%-10s  %-8s  %-32s  %s\n", shortID(a.ID), a.Type, truncate(a.Title, 32), humanSize(a.Size))
	}
	return nil
}

func runArtifactDelete(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	artifacts, err := v.store.ListArtifacts(cmd.Context(), store.ArtifactFilter{})
	if err != nil {
		return err
	}
	i, err := matchID(args[0], len(artifacts), func(i int) string { return artifacts[i].ID })
	if err != nil {
		return fmt.Errorf("artifact %q: %w", args[0], err)
	}
	if err := v.store.DeleteArtifact(cmd.Context(), artifacts[i].ID); err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted artifact: %s\n", artifacts[i].Title)
	return nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
