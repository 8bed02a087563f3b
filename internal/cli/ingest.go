package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/distill/internal/ingest"
)

// IngestOptions holds flags for the ingest command.
type IngestOptions struct {
	*RootOptions
	Days []string
	From string
	To   string
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IngestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest capture files into the state store",
		Long: `Read new records from the capture clients' JSONL files into the
state store. Ingestion resumes from each file's stored cursor, so
re-running is always safe.

Example:
  distill ingest --day 2026-08-28
  distill ingest --from 2026-08-01 --to 2026-08-28`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(opts, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Days, "day", nil, "day to ingest (YYYY-MM-DD, repeatable; default today)")
	cmd.Flags().StringVar(&opts.From, "from", "", "start of day range (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.To, "to", "", "end of day range (YYYY-MM-DD)")

	return cmd
}

func runIngest(opts *IngestOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	days, err := resolveDays(opts.Days, opts.From, opts.To)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid day selection", err)
	}

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

	paths := make([]string, 0, len(days))
	for _, day := range days {
		paths = append(paths, eventFile(cfg, day))
	}

	ing := ingest.New(st, slog.Default())
	ing.MaxEvents = cfg.Run.MaxEventsPerRun

	n, err := ing.Run(cmd.Context(), paths)
	if err != nil {
		return WrapExitError(ExitFailure, "ingestion failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(map[string]any{"ingested": n, "days": days})
	}
	return out.Success(fmt.Sprintf("Ingested %d events for %d day(s).", n, len(days)))
}
