package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Concept is one row of the concept registry. Slug is the stable
// identity; it is derived deterministically from the display name, so
// two tasks resolving the same name converge on the same row.
type Concept struct {
	Slug        string
	DisplayName string
	ContentSHA  string
	LastSeenTS  string
}

// UpsertConcept creates or updates the registry row for slug.
// The read-modify-write is a single transaction; racing handlers are
// serialized by the store.
func (s *Store) UpsertConcept(ctx context.Context, c Concept) error {
	return s.inTx(ctx, "upsert concept", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO concepts (slug, display_name, content_sha, last_seen_ts)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(slug) DO UPDATE SET
				display_name = excluded.display_name,
				content_sha = excluded.content_sha,
				last_seen_ts = excluded.last_seen_ts
		`, c.Slug, c.DisplayName, c.ContentSHA, c.LastSeenTS)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", c.Slug, err)
		}
		return nil
	})
}

// ConceptBySlug returns the registry row for slug, or (Concept{}, false)
// if absent.
func (s *Store) ConceptBySlug(ctx context.Context, slug string) (Concept, bool, error) {
	var c Concept
	err := s.db.QueryRowContext(ctx, `
		SELECT slug, display_name, content_sha, last_seen_ts
		FROM concepts WHERE slug = ?
	`, slug).Scan(&c.Slug, &c.DisplayName, &c.ContentSHA, &c.LastSeenTS)
	if err == sql.ErrNoRows {
		return Concept{}, false, nil
	}
	if err != nil {
		return Concept{}, false, fmt.Errorf("read concept %s: %w", slug, err)
	}
	return c, true, nil
}

// ConceptTitles returns all known display names sorted alphabetically.
// Handlers pass these to the renderer so generated notes only link to
// concepts that actually exist.
func (s *Store) ConceptTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT display_name FROM concepts ORDER BY display_name
	`)
	if err != nil {
		return nil, fmt.Errorf("query concept titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan concept title: %w", err)
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate concept titles: %w", err)
	}
	return titles, nil
}
