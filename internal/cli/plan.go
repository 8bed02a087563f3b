package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/distill/internal/plan"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Day string
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Build and print the task plan for a day without executing it",
		Long: `Ask the planner to decompose a day's stored events into a task graph
and print the validated result. Nothing is executed and nothing is
written.

Example:
  distill plan --day 2026-08-28 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Day, "day", "", "target day (YYYY-MM-DD, default today)")

	return cmd
}

func runPlan(opts *PlanOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

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

	st, _, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing state database", "error", closeErr)
		}
	}()

	events, err := st.EventsByDay(cmd.Context(), day)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load events", err)
	}
	if len(events) == 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("no events stored for %s", day))
	}

	builder := plan.NewBuilder(newProviderClient(cfg), slog.Default())
	p, err := builder.CreatePlan(cmd.Context(), events)
	if err != nil {
		return WrapExitError(ExitFailure, "planning failed", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(p)
	}
	return out.Success(formatPlan(p))
}

// formatPlan renders a plan as an indented task listing.
func formatPlan(p plan.Plan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Plan with %d task(s):", len(p.Tasks))
	for _, t := range p.Tasks {
		fmt.Fprintf(&b, "\n  %s [%s]", t.ID, t.Type)
		if len(t.Dependencies) > 0 {
			fmt.Fprintf(&b, " after %s", strings.Join(t.Dependencies, ", "))
		}
		if t.Description != "" {
			fmt.Fprintf(&b, "\n    %s", t.Description)
		}
	}
	return b.String()
}
