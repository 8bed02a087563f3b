// Package ingest reads capture-client JSONL files into the state store.
//
// Ingestion is resumable: one cursor row per source file records the last
// consumed line, and each file is committed as a single transaction
// (events plus cursor advance). A crash mid-file re-reads from the last
// committed cursor; the store's duplicate-ID rejection makes the
// at-least-once re-read idempotent.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/roach88/distill/internal/event"
	"github.com/roach88/distill/internal/store"
)

// scanBufSize bounds one JSONL record (page text payloads can be large).
const scanBufSize = 4 * 1024 * 1024

// Ingester reads new JSONL records into the store.
type Ingester struct {
	store  *store.Store
	logger *slog.Logger

	// MaxEvents caps how many events a single Run may ingest across all
	// files. Zero means unbounded. When the cap is hit mid-file the
	// cursor is still advanced consistently to the last consumed line.
	MaxEvents int
}

// New creates an Ingester over the given store.
func New(st *store.Store, logger *slog.Logger) *Ingester {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingester{store: st, logger: logger}
}

// Run ingests all named source files and returns the number of newly
// stored events. Missing files are skipped silently (a day with no
// capture output is normal); malformed records are skipped with a logged
// warning.
func (ing *Ingester) Run(ctx context.Context, paths []string) (int, error) {
	total := 0
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		limit := 0
		if ing.MaxEvents > 0 {
			limit = ing.MaxEvents - total
		}

		n, err := ing.ingestFile(ctx, path, limit)
		if err != nil {
			return total, fmt.Errorf("ingest %s: %w", path, err)
		}
		total += n

		if ing.MaxEvents > 0 && total >= ing.MaxEvents {
			ing.logger.Info("ingestion cap reached", "max_events", ing.MaxEvents)
			break
		}
	}
	return total, nil
}

// ingestFile reads records after the stored cursor, normalizes them, and
// commits events plus the advanced cursor as one transaction.
func (ing *Ingester) ingestFile(ctx context.Context, path string, limit int) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			ing.logger.Debug("source file absent, skipping", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat: %w", err)
	}

	cursor, err := ing.store.CursorFor(ctx, path)
	if err != nil {
		return 0, err
	}

	var (
		events  []event.Event
		lineNo  int64
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), scanBufSize)
	for scanner.Scan() {
		lineNo++
		if lineNo <= cursor.LastLine {
			continue
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		ev, err := event.Normalize([]byte(line), path)
		if err != nil {
			// Malformed records are not fatal for the file.
			skipped++
			ing.logger.Warn("skipping malformed record",
				"path", path, "line", lineNo, "error", err)
			continue
		}
		events = append(events, ev)

		if limit > 0 && len(events) >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("scan: %w", err)
	}

	if lineNo <= cursor.LastLine && len(events) == 0 {
		return 0, nil
	}

	cursor.Path = path
	cursor.MTime = info.ModTime().Unix()
	cursor.Size = info.Size()
	cursor.LastLine = lineNo

	inserted, err := ing.store.AppendEvents(ctx, events, cursor)
	if err != nil {
		return 0, err
	}

	ing.logger.Info("ingested file",
		"path", path, "inserted", inserted, "skipped", skipped, "last_line", lineNo)
	return inserted, nil
}
