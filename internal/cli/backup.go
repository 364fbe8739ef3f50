package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/existflow/ironvault/internal/backup"
	"github.com/existflow/ironvault/internal/logger"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the vault to the configured backup sink",
	Long: `Write a gzip snapshot of the vault to a directory or an S3 bucket, as set
by backup.driver in the config. Encrypted vaults stay encrypted in their
snapshots.

Examples:
  vault backup
  vault backup list
  vault backup prune --keep 10`,
	Args: cobra.NoArgs,
	RunE: runBackupCreate,
}

var backupListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List snapshots, newest last",
	RunE:    runBackupList,
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest snapshots",
	RunE:  runBackupPrune,
}

var restoreCmd = &cobra.Command{
	Use:   "restore [snapshot]",
	Short: "Replace the vault with a snapshot, the latest by default",
	Long: `Replace the vault with a snapshot. The current vault is snapshotted
first so a restore can itself be undone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

var (
	backupKeep      int
	restoreYes      bool
	restoreNoSafety bool
)

func init() {
	backupPruneCmd.Flags().IntVar(&backupKeep, "keep", 7, "Number of snapshots to keep")
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Do not ask for confirmation")
	restoreCmd.Flags().BoolVar(&restoreNoSafety, "no-snapshot", false, "Do not snapshot the current vault first")

	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupPruneCmd)
}

// openSink builds the sink named by backup.driver
func openSink(ctx context.Context) (backup.Sink, error) {
	switch cfg.Backup.Driver {
	case "s3":
		return backup.NewS3Sink(ctx, backup.S3Config{
			Bucket:   cfg.Backup.S3.Bucket,
			Prefix:   cfg.Backup.S3.Prefix,
			Region:   cfg.Backup.S3.Region,
			Endpoint: cfg.Backup.S3.Endpoint,
		})
	case "", "fs":
		return backup.NewFSSink(cfg.Backup.Dir)
	default:
		return nil, fmt.Errorf("unknown backup driver %q", cfg.Backup.Driver)
	}
}

func runBackupCreate(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	sink, err := openSink(cmd.Context())
	if err != nil {
		return err
	}
	name, err := backup.Create(cmd.Context(), v.kv, v.store.Key(), sink, time.Now())
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	logger.Info("Backup written", logger.F("snapshot", name), logger.F("driver", cfg.Backup.Driver))
	fmt.Fprintf(cmd.OutOrStdout(), "💾 Snapshot written: %s\n", name)
	return nil
}

func runBackupList(cmd *cobra.Command, args []string) error {
	sink, err := openSink(cmd.Context())
	if err != nil {
		return err
	}
	snaps, err := backup.List(cmd.Context(), sink)
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	out := cmd.OutOrStdout()
	if len(snaps) == 0 {
		fmt.Fprintln(out, "📭 No snapshots")
		return nil
	}
	for _, s := range snaps {
		fmt.Fprintf(out, "%-36s  %9s  %s\n", s.Name, humanSize(s.Size), s.ModTime.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func runBackupPrune(cmd *cobra.Command, args []string) error {
	if backupKeep < 1 {
		return fmt.Errorf("--keep must be at least 1")
	}
	sink, err := openSink(cmd.Context())
	if err != nil {
		return err
	}
	removed, err := backup.Prune(cmd.Context(), sink, backupKeep)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "🧹 Removed %d snapshots\n", len(removed))
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	v, err := openVault(cmd.Context())
	if err != nil {
		return err
	}
	defer v.Close()

	sink, err := openSink(cmd.Context())
	if err != nil {
		return err
	}
	name := argOrEmpty(args)
	if name == "" {
		latest, err := backup.Latest(cmd.Context(), sink)
		if err != nil {
			return err
		}
		name = latest.Name
	}

	if cfg.ConfirmDelete && !restoreYes {
		ok, err := confirm(cmd, fmt.Sprintf("Replace the current vault with %s?", name))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
			return nil
		}
	}

	if !restoreNoSafety {
		safety, err := backup.Create(cmd.Context(), v.kv, v.store.Key(), sink, time.Now())
		switch {
		case errors.Is(err, backup.ErrNothingToBackup):
		case err != nil:
			return fmt.Errorf("failed to snapshot the current vault: %w", err)
		default:
			fmt.Fprintf(cmd.OutOrStdout(), "💾 Current vault saved as %s\n", safety)
		}
	}

	restored, err := backup.Restore(cmd.Context(), v.kv, v.store.Key(), sink, name)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}
	logger.Info("Vault restored", logger.F("snapshot", restored))
	fmt.Fprintf(cmd.OutOrStdout(), "♻️  Restored %s\n", restored)
	return nil
}
