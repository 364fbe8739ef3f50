package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/existflow/ironvault/internal/logger"
	"github.com/existflow/ironvault/internal/oracle"
	"github.com/spf13/cobra"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Apply Oracle session events read from stdin",
	Long: `Read newline-delimited JSON Oracle events from stdin and apply them.

SESSION_START creates a project and makes it the active session;
ARTIFACT_EMITTED saves a note into data.projectId or the active session.

Example:
  oracle-os stream | vault listen`,
	RunE: runListen,
}

func runListen(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus, stopToasts := printToasts(cmd.OutOrStdout())
	l := oracle.NewListener(v.store, bus)
	logger.Info("Oracle listener started")
	err = l.Run(ctx, cmd.InOrStdin())
	stopToasts()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("oracle listener stopped: %w", err)
	}
	if id := l.ActiveSession(); id != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "🔮 Last active session: %s\n", shortID(id))
	}
	return nil
}
