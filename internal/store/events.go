package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/distill/internal/event"
)

// Cursor records how far ingestion has consumed one source file.
// last_line only ever advances; re-ingesting a file resumes after it.
type Cursor struct {
	Path     string
	MTime    int64
	Size     int64
	LastLine int64
}

// CursorFor returns the ingest cursor for path. A file never seen before
// yields a zero cursor, not an error.
func (s *Store) CursorFor(ctx context.Context, path string) (Cursor, error) {
	c := Cursor{Path: path}
	err := s.db.QueryRowContext(ctx, `
		SELECT mtime, size, last_line FROM ingest_cursors WHERE path = ?
	`, path).Scan(&c.MTime, &c.Size, &c.LastLine)
	if err == sql.ErrNoRows {
		return c, nil
	}
	if err != nil {
		return Cursor{}, fmt.Errorf("read cursor: %w", err)
	}
	return c, nil
}

// AppendEvents stores a batch of events read from one source file and
// advances that file's cursor, atomically.
//
// Duplicate event IDs are silently ignored (ON CONFLICT DO NOTHING), so
// at-least-once re-reads after a crash cannot duplicate rows. Returns the
// number of events actually inserted.
func (s *Store) AppendEvents(ctx context.Context, events []event.Event, cursor Cursor) (int, error) {
	inserted := 0
	err := s.inTx(ctx, "append events", func(tx *sql.Tx) error {
		for _, ev := range events {
			metaJSON, err := json.Marshal(ev.Meta)
			if err != nil {
				return fmt.Errorf("marshal meta for %s: %w", ev.ID, err)
			}
			res, err := tx.ExecContext(ctx, `
				INSERT INTO events (event_id, ts, day, type, source, url, meta_json)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(event_id) DO NOTHING
			`, ev.ID, ev.Timestamp, ev.Day, ev.Type, ev.Source, ev.URL, string(metaJSON))
			if err != nil {
				return fmt.Errorf("insert event %s: %w", ev.ID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			inserted += int(n)
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO ingest_cursors (path, mtime, size, last_line)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				mtime = excluded.mtime,
				size = excluded.size,
				last_line = MAX(last_line, excluded.last_line)
		`, cursor.Path, cursor.MTime, cursor.Size, cursor.LastLine)
		if err != nil {
			return fmt.Errorf("advance cursor for %s: %w", cursor.Path, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// EventsByDay returns all events for a day ordered by timestamp, with the
// event ID as a stable tiebreaker so identical inputs always produce the
// same sequence.
func (s *Store) EventsByDay(ctx context.Context, day string) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, ts, day, type, source, url, meta_json
		FROM events WHERE day = ?
		ORDER BY ts, event_id
	`, day)
	if err != nil {
		return nil, fmt.Errorf("query events for %s: %w", day, err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]event.Event, error) {
	var out []event.Event
	for rows.Next() {
		var (
			ev       event.Event
			metaJSON string
		)
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.Day, &ev.Type, &ev.Source, &ev.URL, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if metaJSON != "" && metaJSON != "{}" && metaJSON != "null" {
			if err := json.Unmarshal([]byte(metaJSON), &ev.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal meta for %s: %w", ev.ID, err)
			}
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}
