package cli

import (
	"fmt"

	"github.com/existflow/ironvault/internal/model"
	"github.com/existflow/ironvault/internal/store"
	"github.com/spf13/cobra"
)

var deckCmd = &cobra.Command{
	Use:     "deck",
	Aliases: []string{"decks"},
	Short:   "Inspect slide decks received through the inbox",
}

var deckListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List decks",
	RunE:    runDeckList,
}

var deckShowCmd = &cobra.Command{
	Use:   "show [deck-id]",
	Short: "Show the slides of a deck",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeckShow,
}

var deckDeleteCmd = &cobra.Command{
	Use:     "delete [deck-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a deck record; its companion note stays",
	Args:    cobra.ExactArgs(1),
	RunE:    runDeckDelete,
}

func init() {
	deckCmd.AddCommand(deckListCmd)
	deckCmd.AddCommand(deckShowCmd)
	deckCmd.AddCommand(deckDeleteCmd)
}

func runDeckList(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	p, err := v.optionalProject(cmd.Context())
	if err != nil {
		return err
	}
	decks, err := v.store.ListDecks(cmd.Context(), store.DeckFilter{ProjectID: p.ID})
	if err != nil {
		return fmt.Errorf("failed to list decks: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(decks) == 0 {
		fmt.Fprintln(out, "📭 No decks")
		return nil
	}
	for _, d := range decks {
		title := d.DeckID
		if cover, ok := d.Cover(); ok && cover.Title != "" {
			title = cover.Title
		}
		fmt.Fprintf(out, "%-13s  %-32s  %-12s  %d slides\n", shortID(d.ID), truncate(title, 32), d.Who.Tool, len(d.Slides))
	}
	return nil
}

func findDeckRef(cmd *cobra.Command, v *vault, ref string) (int, []model.Deck, error) {
	decks, err := v.store.ListDecks(cmd.Context(), store.DeckFilter{})
	if err != nil {
		return -1, nil, err
	}
	i, err := matchID(ref, len(decks), func(i int) string { return decks[i].ID })
	if err != nil {
		return -1, nil, fmt.Errorf("deck %q: %w", ref, err)
	}
	return i, decks, nil
}

func runDeckShow(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	i, decks, err := findDeckRef(cmd, v, args[0])
	if err != nil {
		return err
	}
	d := decks[i]
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🎞️  %s from %s (%s)\n", d.DeckID, d.Who.Tool, d.Timestamp)
	for n, s := range d.Slides {
		heading := s.Title
		if heading == "" {
			heading = s.Heading
		}
		fmt.Fprintf(out, "  %2d. [%s] %s\n", n+1, s.Type, heading)
	}
	return nil
}

func runDeckDelete(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	i, decks, err := findDeckRef(cmd, v, args[0])
	if err != nil {
		return err
	}
	if err := v.store.DeleteDeck(cmd.Context(), decks[i].ID); err != nil {
		return fmt.Errorf("failed to delete deck: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted deck: %s\n", decks[i].DeckID)
	return nil
}
