package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Artifact kinds.
const (
	ArtifactConcept  = "concept"
	ArtifactQuestion = "question"
	ArtifactDaily    = "daily"
)

// Artifact records the last durably written state of one output file.
type Artifact struct {
	Path       string `json:"path"`
	Kind       string `json:"kind"`
	ContentSHA string `json:"content_sha"`
	UpdatedTS  string `json:"updated_ts"`
}

// ArtifactSHA returns the recorded content hash for path, or "" if the
// path has never been written.
func (s *Store) ArtifactSHA(ctx context.Context, path string) (string, error) {
	var sha string
	err := s.db.QueryRowContext(ctx, `
		SELECT content_sha FROM artifacts WHERE path = ?
	`, path).Scan(&sha)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read artifact sha for %s: %w", path, err)
	}
	return sha, nil
}

// RecordArtifact upserts the hash row for path. Called by the artifact
// writer after the file content is durably on disk; the upsert itself is
// one transaction, so the row is never half-written.
func (s *Store) RecordArtifact(ctx context.Context, path, kind, contentSHA string) error {
	return s.inTx(ctx, "record artifact", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO artifacts (path, kind, content_sha, updated_ts)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				kind = excluded.kind,
				content_sha = excluded.content_sha,
				updated_ts = excluded.updated_ts
		`, path, kind, contentSHA, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("upsert %s: %w", path, err)
		}
		return nil
	})
}

// Artifacts returns all recorded artifacts ordered by path.
func (s *Store) Artifacts(ctx context.Context) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, kind, content_sha, updated_ts FROM artifacts ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	var out []Artifact
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.Path, &a.Kind, &a.ContentSHA, &a.UpdatedTS); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return out, nil
}

// Summary aggregates store contents for operator-facing status output.
type Summary struct {
	Events    int            `json:"events"`
	EventDays map[string]int `json:"event_days,omitempty"`
	Cursors   int            `json:"cursors"`
	Concepts  int            `json:"concepts"`
	Artifacts int            `json:"artifacts"`
}

// Summarize counts events (total and per day), cursors, concepts, and
// artifacts.
func (s *Store) Summarize(ctx context.Context) (Summary, error) {
	sum := Summary{EventDays: map[string]int{}}

	rows, err := s.db.QueryContext(ctx, `
		SELECT day, COUNT(*) FROM events GROUP BY day ORDER BY day
	`)
	if err != nil {
		return Summary{}, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			day string
			n   int
		)
		if err := rows.Scan(&day, &n); err != nil {
			return Summary{}, fmt.Errorf("scan event count: %w", err)
		}
		sum.EventDays[day] = n
		sum.Events += n
	}
	if err := rows.Err(); err != nil {
		return Summary{}, fmt.Errorf("iterate event counts: %w", err)
	}

	counts := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM ingest_cursors", &sum.Cursors},
		{"SELECT COUNT(*) FROM concepts", &sum.Concepts},
		{"SELECT COUNT(*) FROM artifacts", &sum.Artifacts},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dst); err != nil {
			return Summary{}, fmt.Errorf("summarize: %w", err)
		}
	}

	return sum, nil
}
