package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/distill/internal/config"
	"github.com/roach88/distill/internal/llm"
	"github.com/roach88/distill/internal/store"
	"github.com/roach88/distill/internal/vault"
)

// dayFormat is the canonical day key used across flags, file names, and
// event rows.
const dayFormat = "2006-01-02"

// configureLogging installs the process-wide slog handler.
func configureLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// loadConfig loads and validates configuration for a command.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	return cfg, nil
}

// openStore opens the state database inside the vault, creating the
// vault state directory if needed.
func openStore(cfg *config.Config) (*store.Store, vault.Layout, error) {
	layout := vault.Layout{Root: cfg.Vault.Path}
	statePath := layout.StatePath()
	if err := os.MkdirAll(filepath.Dir(statePath), 0o755); err != nil {
		return nil, layout, WrapExitError(ExitCommandError, "failed to create state directory", err)
	}
	st, err := store.Open(statePath)
	if err != nil {
		return nil, layout, WrapExitError(ExitCommandError, "failed to open state database", err)
	}
	return st, layout, nil
}

// newProviderClient builds the configured backend wrapped with retry.
func newProviderClient(cfg *config.Config) llm.Client {
	base := llm.NewOpenAIClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model)
	return llm.WithRetry(base, cfg.LLM.MaxRetries, slog.Default())
}

// eventFile returns the capture file for one day.
func eventFile(cfg *config.Config, day string) string {
	return filepath.Join(cfg.Data.Dir, "events", day+".jsonl")
}

// resolveDays expands the --day/--from/--to flags into a sorted list of
// day keys. No flags selects today.
func resolveDays(days []string, from, to string) ([]string, error) {
	if len(days) > 0 && (from != "" || to != "") {
		return nil, fmt.Errorf("--day cannot be combined with --from/--to")
	}

	if len(days) > 0 {
		for _, d := range days {
			if _, err := time.Parse(dayFormat, d); err != nil {
				return nil, fmt.Errorf("invalid day %q: %w", d, err)
			}
		}
		return days, nil
	}

	if from != "" || to != "" {
		if from == "" || to == "" {
			return nil, fmt.Errorf("--from and --to must be given together")
		}
		start, err := time.Parse(dayFormat, from)
		if err != nil {
			return nil, fmt.Errorf("invalid --from %q: %w", from, err)
		}
		end, err := time.Parse(dayFormat, to)
		if err != nil {
			return nil, fmt.Errorf("invalid --to %q: %w", to, err)
		}
		if end.Before(start) {
			return nil, fmt.Errorf("--to %s is before --from %s", to, from)
		}
		var out []string
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			out = append(out, d.Format(dayFormat))
		}
		return out, nil
	}

	return []string{time.Now().Format(dayFormat)}, nil
}
