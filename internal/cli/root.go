package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/existflow/ironvault/internal/config"
	"github.com/existflow/ironvault/internal/events"
	"github.com/existflow/ironvault/internal/ingest"
	"github.com/existflow/ironvault/internal/logger"
	"github.com/existflow/ironvault/internal/tui"
	"github.com/spf13/cobra"
)

var (
	logLevel   string
	logFile    string
	logConsole bool
	projectRef string

	// cfg is loaded once per invocation by the root pre-run hook
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vault",
	Short: "IronVault - local project vault with a terminal board",
	Long: `IronVault keeps projects, tasks, notes, artifacts, calendar items,
mindmaps and slide decks in one local vault. Other tools can drop commits
and decks into its inbox; they show up in the Inbox project.

Run 'vault' without arguments to open the interactive board.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			logger.Warn("Failed to load config, using defaults", logger.Err(err))
			loaded = config.DefaultConfig()
		}

		configChanged := false
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel = logLevel
			configChanged = true
		}
		if cmd.Flags().Changed("log-file") {
			loaded.LogFile = logFile
			configChanged = true
		}
		if cmd.Flags().Changed("log-console") {
			loaded.LogConsole = logConsole
			configChanged = true
		}
		if configChanged {
			if err := loaded.Save(); err != nil {
				logger.Warn("Failed to save config", logger.Err(err))
			}
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded

		logConfig := logger.Config{
			Level:      logger.ParseLevel(cfg.LogLevel),
			FilePath:   cfg.LogFile,
			MaxSize:    10 * 1024 * 1024, // 10MB
			MaxAge:     7,
			MaxBackups: 5,
			Console:    cfg.LogConsole,
		}
		if err := logger.Init(logConfig); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		logger.Info("IronVault started", logger.F("command", cmd.CommandPath()))
		return nil
	},
	RunE: runBoard,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Info("IronVault exiting", logger.F("command", cmd.CommandPath()))
		_ = logger.Close()
	},
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Open the interactive kanban board",
	RunE:  runBoard,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().StringVarP(&projectRef, "project", "p", "", "Project id or title (defaults to the current project)")

	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(taskCmd)
	rootCmd.AddCommand(noteCmd)
	rootCmd.AddCommand(artifactCmd)
	rootCmd.AddCommand(calCmd)
	rootCmd.AddCommand(mindmapCmd)
	rootCmd.AddCommand(deckCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(useCmd)
}

// runBoard opens the TUI while the inbox ingestors run in the background
func runBoard(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	bus := events.New()
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		err := ingest.Run(ctx, v.kv, cfg.WatchInterval,
			ingest.New(v.store, bus, ingest.CommitHandler{}),
			ingest.New(v.store, bus, ingest.DeckHandler{}))
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Inbox watcher stopped", logger.Err(err))
		}
	}()

	logger.Info("Launching board")
	if err := tui.Run(v.store, tui.Options{Bus: bus, ConfirmDelete: cfg.ConfirmDelete}); err != nil {
		logger.Error("TUI error", logger.Err(err))
		return fmt.Errorf("failed to run board: %w", err)
	}
	cancel()
	<-done
	logger.Info("Board exited normally")
	return nil
}
