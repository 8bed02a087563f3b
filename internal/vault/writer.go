package vault

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/distill/internal/store"
)

// ContentSHA returns the hex-encoded SHA-256 digest of content. It is
// the content hash recorded for every artifact.
func ContentSHA(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// Writer performs idempotent durable writes: a file is only touched when
// its rendered content differs from the hash recorded in the store.
type Writer struct {
	store  *store.Store
	logger *slog.Logger

	// DryRun suppresses the commit step: no file I/O, no hash rows.
	DryRun bool
}

// NewWriter creates a Writer backed by the given store.
func NewWriter(st *store.Store, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{store: st, logger: logger}
}

// WriteIfChanged writes content to path unless the recorded hash already
// matches. Returns whether a durable write happened.
//
// Crash recovery: the file lands via tmp+rename before the hash row is
// recorded. If the process dies between the two, the next run finds a
// stored hash that disagrees with the rendered content, re-hashes the
// file actually on disk, sees it already matches, and records the row
// without rewriting. The hash is always re-derived from disk, never
// trusted from memory.
func (w *Writer) WriteIfChanged(ctx context.Context, path, kind, content string) (bool, error) {
	sha := ContentSHA(content)

	stored, err := w.store.ArtifactSHA(ctx, path)
	if err != nil {
		return false, err
	}
	if stored == sha {
		w.logger.Debug("artifact unchanged", "path", path)
		return false, nil
	}

	if w.DryRun {
		w.logger.Info("dry-run: would write artifact", "path", path, "kind", kind)
		return false, nil
	}

	if onDisk, err := fileSHA(path); err == nil && onDisk == sha {
		// File already holds this content (crash after rename, before
		// the hash row landed). Record and skip the rewrite.
		if err := w.store.RecordArtifact(ctx, path, kind, sha); err != nil {
			return false, err
		}
		return false, nil
	}

	if err := writeAtomic(path, content); err != nil {
		return false, fmt.Errorf("write artifact %s: %w", path, err)
	}
	if err := w.store.RecordArtifact(ctx, path, kind, sha); err != nil {
		return false, err
	}

	w.logger.Info("wrote artifact", "path", path, "kind", kind)
	return true, nil
}

// fileSHA hashes the current on-disk content of path.
func fileSHA(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return ContentSHA(string(data)), nil
}

// writeAtomic writes content via a temp file and rename so readers never
// observe a partial file.
func writeAtomic(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
