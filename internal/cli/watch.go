package cli

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/distill/internal/ingest"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the capture directory and ingest continuously",
		Long: `Watch the capture clients' event directory and ingest new records as
files grow. Runs until interrupted. Synthesis still happens via
explicit runs; watch only keeps the state store current.

Example:
  distill watch --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	st, _, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing state database", "error", closeErr)
		}
	}()

	ing := ingest.New(st, slog.Default())

	dir := filepath.Join(cfg.Data.Dir, "events")
	slog.Info("watching capture directory", "dir", dir)

	if err := ing.Watch(ctx, dir); err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "watch failed", err)
	}
	slog.Info("watch stopped")
	return nil
}
