package cli

import (
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/distill/internal/executor"
	"github.com/roach88/distill/internal/handler"
	"github.com/roach88/distill/internal/ingest"
	"github.com/roach88/distill/internal/plan"
	"github.com/roach88/distill/internal/vault"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Day         string
	Concurrency int
	DryRun      bool
	RebuildOnly bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest, plan, and execute one synthesis pass for a day",
		Long: `Run the full pipeline for one day: ingest new capture records, ask
the planner for a task graph over the day's events, and execute it
with the dependency-aware worker pool. Artifacts whose content is
unchanged are left untouched.

Example:
  distill run --day 2026-08-28
  distill run --dry-run --concurrency 1`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Day, "day", "", "target day (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 0, "max tasks in flight (default from config)")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "plan and execute without writing artifacts")
	cmd.Flags().BoolVar(&opts.RebuildOnly, "rebuild-only", false, "skip ingestion and replan from stored events")

	return cmd
}

func runRun(opts *RunOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var dayFlags []string
	if opts.Day != "" {
		dayFlags = []string{opts.Day}
	}
	days, err := resolveDays(dayFlags, "", "")
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid day", err)
	}
	day := days[0]

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	concurrency := cfg.Run.Concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}

	st, layout, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing state database", "error", closeErr)
		}
	}()

	runID := uuid.Must(uuid.NewV7()).String()
	logger := slog.Default().With("run_id", runID, "day", day)
	logger.Info("starting run", "dry_run", opts.DryRun, "concurrency", concurrency)

	if !opts.RebuildOnly {
		ing := ingest.New(st, logger)
		ing.MaxEvents = cfg.Run.MaxEventsPerRun
		n, err := ing.Run(ctx, []string{eventFile(cfg, day)})
		if err != nil {
			return WrapExitError(ExitFailure, "ingestion failed", err)
		}
		logger.Info("ingestion complete", "new_events", n)
	}

	events, err := st.EventsByDay(ctx, day)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load events", err)
	}
	if len(events) == 0 {
		out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
		if opts.Format == "json" {
			return out.Success(map[string]any{"run_id": runID, "day": day, "tasks": 0})
		}
		return out.Success(fmt.Sprintf("No events for %s; nothing to do.", day))
	}

	client := newProviderClient(cfg)
	builder := plan.NewBuilder(client, logger)
	p, err := builder.CreatePlan(ctx, events)
	if err != nil {
		return WrapExitError(ExitFailure, "planning failed", err)
	}
	logger.Info("plan built", "tasks", len(p.Tasks))

	writer := vault.NewWriter(st, logger)
	writer.DryRun = opts.DryRun

	deps := handler.Deps{
		Store:    st,
		Renderer: vault.NewRenderer(client),
		Writer:   writer,
		Layout:   layout,
		Events:   events,
		DataDir:  cfg.Data.Dir,
		Day:      day,
		Logger:   logger,
	}

	exec := executor.New(handler.Registry(deps), concurrency, logger)
	sum, err := exec.Run(ctx, p)
	if err != nil {
		return WrapExitError(ExitFailure, "run aborted", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		if outErr := out.Success(map[string]any{
			"run_id":    runID,
			"day":       day,
			"dry_run":   opts.DryRun,
			"succeeded": sum.Succeeded,
			"failed":    sum.Failed,
			"skipped":   sum.Skipped,
			"results":   sum.Results,
		}); outErr != nil {
			return outErr
		}
	} else {
		if outErr := out.Success(formatSummary(day, sum)); outErr != nil {
			return outErr
		}
	}

	if sum.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d task(s) failed", sum.Failed))
	}
	return nil
}

// formatSummary renders an execution summary as a task table.
func formatSummary(day string, sum executor.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run for %s: %d succeeded, %d failed, %d skipped.",
		day, sum.Succeeded, sum.Failed, sum.Skipped)
	for _, r := range sum.Results {
		fmt.Fprintf(&b, "\n  %-10s %s", r.State, r.TaskID)
		if r.Error != "" {
			fmt.Fprintf(&b, "  (%s)", r.Error)
		}
	}
	return b.String()
}
