package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/existflow/ironvault/internal/mindmap"
	"github.com/existflow/ironvault/internal/model"
	"github.com/spf13/cobra"
)

var mindmapCmd = &cobra.Command{
	Use:     "mindmap",
	Aliases: []string{"mm"},
	Short:   "Manage mindmaps",
	Long: `Create mindmaps and edit their trees. Node ids may be shortened to any
unique prefix, as shown by 'vault mindmap show'.`,
}

var mindmapNewCmd = &cobra.Command{
	Use:   "new [title]",
	Short: "Create a mindmap with a single central topic",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMindmapNew,
}

var mindmapListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List mindmaps",
	RunE:    runMindmapList,
}

var mindmapShowCmd = &cobra.Command{
	Use:   "show [mindmap-id]",
	Short: "Print a mindmap as a tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runMindmapShow,
}

var mindmapAddCmd = &cobra.Command{
	Use:   "add [mindmap-id] [label]",
	Short: "Add a node under --parent, or under the root",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runMindmapAdd,
}

var mindmapRenameCmd = &cobra.Command{
	Use:   "rename [mindmap-id] [node-id] [label]",
	Short: "Relabel a node",
	Args:  cobra.ExactArgs(3),
	RunE:  runMindmapRename,
}

var mindmapRmCmd = &cobra.Command{
	Use:   "rm [mindmap-id] [node-id]",
	Short: "Remove a node and everything under it",
	Args:  cobra.ExactArgs(2),
	RunE:  runMindmapRm,
}

var mindmapResetCmd = &cobra.Command{
	Use:   "reset [mindmap-id]",
	Short: "Replace the tree with a single central topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runMindmapReset,
}

var mindmapDeleteCmd = &cobra.Command{
	Use:   "delete [mindmap-id]",
	Short: "Delete a mindmap",
	Args:  cobra.ExactArgs(1),
	RunE:  runMindmapDelete,
}

var mindmapParent string

func init() {
	mindmapAddCmd.Flags().StringVar(&mindmapParent, "parent", "", "Parent node id (defaults to the root)")

	mindmapCmd.AddCommand(mindmapNewCmd)
	mindmapCmd.AddCommand(mindmapListCmd)
	mindmapCmd.AddCommand(mindmapShowCmd)
	mindmapCmd.AddCommand(mindmapAddCmd)
	mindmapCmd.AddCommand(mindmapRenameCmd)
	mindmapCmd.AddCommand(mindmapRmCmd)
	mindmapCmd.AddCommand(mindmapResetCmd)
	mindmapCmd.AddCommand(mindmapDeleteCmd)
}

func runMindmapNew(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.project(cmd.Context(), "")
	if err != nil {
		return err
	}
	m, err := v.store.CreateMindmap(cmd.Context(), model.Mindmap{ProjectID: p.ID, Title: argOrEmpty(args)})
	if err != nil {
		return fmt.Errorf("failed to create mindmap: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🧠 Created mindmap: %s (%s)\n", m.Title, shortID(m.ID))
	return nil
}

func runMindmapList(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.optionalProject(cmd.Context())
	if err != nil {
		return err
	}
	maps, err := v.store.ListMindmaps(cmd.Context(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to list mindmaps: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(maps) == 0 {
		fmt.Fprintln(out, "📭 No mindmaps")
		return nil
	}
	for _, m := range maps {
		fmt.Fprintf(out, "%-10s  %-32s  %d nodes\n", shortID(m.ID), truncate(m.Title, 32), mindmap.Size(m.Root))
	}
	return nil
}

func runMindmapShow(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	m, err := v.mindmap(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printMindmap(cmd.OutOrStdout(), m)
	return nil
}

func printMindmap(out io.Writer, m model.Mindmap) {
	fmt.Fprintf(out, "🧠 %s\n", m.Title)
	var walk func(n model.MindmapNode, prefix string, last, root bool)
	walk = func(n model.MindmapNode, prefix string, last, root bool) {
		branch, next := "", ""
		if !root {
			branch, next = "├── ", "│   "
			if last {
				branch, next = "└── ", "    "
			}
		}
		fmt.Fprintf(out, "%s%s%s  [%s]\n", prefix, branch, n.Label, shortID(n.ID))
		for i, c := range n.Children {
			walk(c, prefix+next, i == len(n.Children)-1, false)
		}
	}
	walk(m.Root, "", true, true)
}

// nodeID resolves ref to a node of m
func nodeID(m model.Mindmap, ref string) (string, error) {
	ids := mindmap.IDs(m.Root)
	i, err := matchID(ref, len(ids), func(i int) string { return ids[i] })
	if err != nil {
		return "", fmt.Errorf("mindmap node %q: %w", ref, err)
	}
	return ids[i], nil
}

func runMindmapAdd(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	m, err := v.mindmap(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	var parent string
	if mindmapParent != "" {
		if parent, err = nodeID(m, mindmapParent); err != nil {
			return err
		}
	}
	label := ""
	if len(args) > 1 {
		label = strings.TrimSpace(args[1])
	}
	node, _, err := v.store.AddMindmapNode(cmd.Context(), m.ID, parent, label)
	if err != nil {
		return fmt.Errorf("failed to add node: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "➕ Added node: %s [%s]\n", node.Label, shortID(node.ID))
	return nil
}

func runMindmapRename(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	m, err := v.mindmap(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	id, err := nodeID(m, args[1])
	if err != nil {
		return err
	}
	if _, err := v.store.RenameMindmapNode(cmd.Context(), m.ID, id, args[2]); err != nil {
		return fmt.Errorf("failed to rename node: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✏️  Renamed node to: %s\n", args[2])
	return nil
}

func runMindmapRm(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	m, err := v.mindmap(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	id, err := nodeID(m, args[1])
	if err != nil {
		return err
	}
	updated, err := v.store.DeleteMindmapNode(cmd.Context(), m.ID, id)
	if err != nil {
		return fmt.Errorf("failed to remove node: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Removed %d nodes\n", mindmap.Size(m.Root)-mindmap.Size(updated.Root))
	return nil
}

func runMindmapReset(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	m, err := v.mindmap(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if _, err := v.store.ResetMindmap(cmd.Context(), m.ID); err != nil {
		return fmt.Errorf("failed to reset mindmap: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🔄 Reset mindmap: %s\n", m.Title)
	return nil
}

func runMindmapDelete(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	m, err := v.mindmap(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if err := v.store.DeleteMindmap(cmd.Context(), m.ID); err != nil {
		return fmt.Errorf("failed to delete mindmap: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted mindmap: %s\n", m.Title)
	return nil
}
