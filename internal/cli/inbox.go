package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/existflow/ironvault/internal/events"
	"github.com/existflow/ironvault/internal/ingest"
	"github.com/existflow/ironvault/internal/logger"
	"github.com/spf13/cobra"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Feed and drain the inbox other tools write to",
	Long: `External tools drop commits and slide decks under well-known vault keys.
Draining turns them into notes and decks of the Incoming project.`,
}

var inboxCommitCmd = &cobra.Command{
	Use:   "commit [title]",
	Short: "Push a solution into the inbox",
	Long: `Queue a commit and ingest it. With --queue-only it is left for a
running board, watcher or server to pick up.

Examples:
  vault inbox commit "Retry policy" --tool claude --file answer.md
  echo "# Notes" | vault inbox commit "Scratch" --file -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInboxCommit,
}

var inboxDeckCmd = &cobra.Command{
	Use:   "deck [file]",
	Short: "Queue a deck (or an array of decks) from a JSON file, - for stdin",
	Args:  cobra.ExactArgs(1),
	RunE:  runInboxDeck,
}

var inboxDrainCmd = &cobra.Command{
	Use:   "drain",
	Short: "Ingest whatever is waiting in the inbox",
	RunE:  runInboxDrain,
}

var inboxWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep ingesting inbox payloads until interrupted",
	RunE:  runInboxWatch,
}

var (
	inboxTool      string
	inboxToolID    string
	inboxType      string
	inboxContent   string
	inboxFile      string
	inboxQueueOnly bool
	inboxInterval  time.Duration
)

func init() {
	inboxCommitCmd.Flags().StringVar(&inboxTool, "tool", "", "Tool the solution comes from")
	inboxCommitCmd.Flags().StringVar(&inboxToolID, "tool-id", "", "Id of the tool instance")
	inboxCommitCmd.Flags().StringVar(&inboxType, "type", "", "Kind of solution")
	inboxCommitCmd.Flags().StringVar(&inboxContent, "content", "", "Markdown content")
	inboxCommitCmd.Flags().StringVarP(&inboxFile, "file", "f", "", "Read content from a file, - for stdin")
	for _, c := range []*cobra.Command{inboxCommitCmd, inboxDeckCmd} {
		c.Flags().BoolVar(&inboxQueueOnly, "queue-only", false, "Only queue, do not ingest now")
	}
	inboxWatchCmd.Flags().DurationVar(&inboxInterval, "interval", 0, "Poll interval (defaults to watch_interval from config)")

	inboxCmd.AddCommand(inboxCommitCmd)
	inboxCmd.AddCommand(inboxDeckCmd)
	inboxCmd.AddCommand(inboxDrainCmd)
	inboxCmd.AddCommand(inboxWatchCmd)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return b, nil
}

func runInboxCommit(cmd *cobra.Command, args []string) error {
	content := inboxContent
	if inboxFile != "" {
		b, err := readInput(cmd, inboxFile)
		if err != nil {
			return err
		}
		content = string(b)
	}
	commit := ingest.Commit{
		Who:       ingest.CommitSource{Tool: inboxTool, ID: inboxToolID},
		What:      ingest.CommitWhat{Title: argOrEmpty(args), Type: inboxType},
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	if err := ingest.EnqueueCommit(cmd.Context(), v.kv, commit); err != nil {
		return err
	}
	if inboxQueueOnly {
		fmt.Fprintln(cmd.OutOrStdout(), "📬 Commit queued")
		return nil
	}
	bus, stop := printToasts(cmd.OutOrStdout())
	res, err := ingest.New(v.store, bus, ingest.CommitHandler{}).Drain(cmd.Context())
	stop()
	if err != nil {
		return fmt.Errorf("failed to ingest commit: %w", err)
	}
	printResult(cmd.OutOrStdout(), "commit", res)
	return nil
}

func runInboxDeck(cmd *cobra.Command, args []string) error {
	raw, err := readInput(cmd, args[0])
	if err != nil {
		return err
	}
	decks, err := ingest.ParseDecks(raw)
	if err != nil {
		return err
	}

	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	if err := ingest.EnqueueDecks(cmd.Context(), v.kv, decks...); err != nil {
		return err
	}
	if inboxQueueOnly {
		fmt.Fprintf(cmd.OutOrStdout(), "📬 %d decks queued\n", len(decks))
		return nil
	}
	bus, stop := printToasts(cmd.OutOrStdout())
	res, err := ingest.New(v.store, bus, ingest.DeckHandler{}).Drain(cmd.Context())
	stop()
	if err != nil {
		return fmt.Errorf("failed to ingest decks: %w", err)
	}
	printResult(cmd.OutOrStdout(), "deck", res)
	return nil
}

func runInboxDrain(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	handlers := []ingest.Handler{ingest.CommitHandler{}, ingest.DeckHandler{}}
	results := make([]ingest.Result, 0, len(handlers))
	bus, stop := printToasts(cmd.OutOrStdout())
	for _, h := range handlers {
		res, err := ingest.New(v.store, bus, h).Drain(cmd.Context())
		if err != nil {
			stop()
			return fmt.Errorf("failed to drain %s inbox: %w", h.Name(), err)
		}
		results = append(results, res)
	}
	stop()
	for i, h := range handlers {
		printResult(cmd.OutOrStdout(), h.Name(), results[i])
	}
	return nil
}

func runInboxWatch(cmd *cobra.Command, args []string) error {
	interval := inboxInterval
	if interval <= 0 {
		interval = cfg.WatchInterval
	}
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "👀 Watching the inbox every %s, Ctrl+C to stop\n", interval)
	bus, stopToasts := printToasts(cmd.OutOrStdout())
	defer stopToasts()

	logger.Info("Inbox watch started", logger.F("interval", interval.String()))
	err = ingest.Run(ctx, v.kv, interval,
		ingest.New(v.store, bus, ingest.CommitHandler{}),
		ingest.New(v.store, bus, ingest.DeckHandler{}))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// printToasts returns a bus whose toasts are written to out. stop waits
// for the pending ones; out must not be written to before it returns.
func printToasts(out io.Writer) (*events.Bus, func()) {
	bus := events.New()
	ch, cancel := bus.Subscribe(64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch {
			if e.Kind != events.Toast {
				continue
			}
			icon := "ℹ️ "
			switch e.Level {
			case events.LevelSuccess:
				icon = "✅"
			case events.LevelError:
				icon = "❌"
			}
			fmt.Fprintf(out, "%s %s\n", icon, e.Message)
		}
	}()
	return bus, func() {
		cancel()
		<-done
	}
}

func printResult(out io.Writer, name string, res ingest.Result) {
	if res.Malformed {
		fmt.Fprintf(out, "⚠️  %s payload was malformed and has been dropped\n", name)
	}
	fmt.Fprintf(out, "📥 %s: %d created, %d skipped, %d failed\n", name, res.Created, res.Skipped, res.Failed)
}
