package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce coalesces bursts of write events on the same file; capture
// clients append many lines in quick succession.
const debounce = 500 * time.Millisecond

// Watch starts an fsnotify watcher on the events directory and ingests
// changed JSONL files until ctx is cancelled.
//
// Writes and creates schedule a debounced ingestion pass over the dirty
// file set. Cursor resumability means a pass over an unchanged file is a
// no-op, so over-triggering is harmless.
func (ing *Ingester) Watch(ctx context.Context, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	ing.logger.Info("watcher: started", slog.String("dir", dir))

	// Pick up anything written before the watcher started.
	if err := ing.ingestDir(ctx, dir); err != nil {
		return err
	}

	dirty := make(map[string]struct{})
	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func(path string) {
		dirty[path] = struct{}{}
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			ing.logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			paths := make([]string, 0, len(dirty))
			for p := range dirty {
				paths = append(paths, p)
			}
			clear(dirty)

			n, err := ing.Run(ctx, paths)
			if err != nil {
				ing.logger.Error("watcher: ingestion failed", "error", err)
				continue
			}
			if n > 0 {
				ing.logger.Info("watcher: ingested", "events", n)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".jsonl") {
				continue
			}
			schedule(ev.Name)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			ing.logger.Warn("watcher: error", "error", err)
		}
	}
}

// ingestDir runs one ingestion pass over every .jsonl file in dir.
func (ing *Ingester) ingestDir(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		return nil
	}
	_, err = ing.Run(ctx, paths)
	return err
}
