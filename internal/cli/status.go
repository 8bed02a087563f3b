package cli

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/distill/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
}

// statusReport is the JSON payload for the status command: the summary
// counts plus the individual artifact rows.
type statusReport struct {
	store.Summary
	Files []store.Artifact `json:"artifact_files,omitempty"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show state store counts",
		Long: `Summarize the state store: events per day, ingestion cursors, known
concepts, and recorded artifacts.

Example:
  distill status --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	configureLogging(opts.Verbose)

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

	sum, err := st.Summarize(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to summarize state", err)
	}

	arts, err := st.Artifacts(cmd.Context())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to list artifacts", err)
	}

	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}
	if opts.Format == "json" {
		return out.Success(statusReport{Summary: sum, Files: arts})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Events:    %d", sum.Events)
	days := make([]string, 0, len(sum.EventDays))
	for d := range sum.EventDays {
		days = append(days, d)
	}
	sort.Strings(days)
	for _, d := range days {
		fmt.Fprintf(&b, "\n  %s  %d", d, sum.EventDays[d])
	}
	fmt.Fprintf(&b, "\nCursors:   %d", sum.Cursors)
	fmt.Fprintf(&b, "\nConcepts:  %d", sum.Concepts)
	fmt.Fprintf(&b, "\nArtifacts: %d", sum.Artifacts)
	for _, a := range arts {
		fmt.Fprintf(&b, "\n  %-8s %s", a.Kind, a.Path)
	}
	return out.Success(b.String())
}
