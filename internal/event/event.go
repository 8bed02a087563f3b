// Package event defines the immutable activity event model and its
// normalization rules.
//
// Events arrive as JSON lines written by capture clients (browser
// extension, audio transcriber, screen OCR). The core never mutates an
// event after it is stored; superseding information arrives as a new
// event.
package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Well-known event types produced by the capture clients.
const (
	TypePageView = "browser.page_view"
	TypePageText = "browser.page_text"
	TypeAudio    = "audio.segment"
	TypeOCR      = "screen.ocr"
)

// Event is one normalized unit of captured activity.
//
// ID is globally unique. Timestamp and Day are kept as strings: capture
// clients emit RFC 3339 timestamps and the store orders events by the
// lexicographic timestamp, so no parsing round-trip is needed.
type Event struct {
	ID        string         `json:"id"`
	Timestamp string         `json:"ts"`
	Day       string         `json:"day"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	URL       string         `json:"url,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// MetaString returns the string value for key in the event's metadata,
// or "" if absent or not a string.
func (e Event) MetaString(key string) string {
	v, ok := e.Meta[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// rawEvent is the wire shape of one capture-client record.
type rawEvent struct {
	ID     string         `json:"id"`
	TS     string         `json:"ts"`
	Type   string         `json:"type"`
	Source string         `json:"source"`
	Meta   map[string]any `json:"meta"`
}

// Normalize parses one JSONL record into an Event.
//
// Records missing an id get a content-derived fallback (SHA-256 of the
// raw line), so re-reading the same line always yields the same ID and
// the store's duplicate rejection makes re-ingestion idempotent. The day
// is derived from the timestamp prefix, falling back to the source file
// stem when the file is named YYYY-MM-DD.jsonl.
func Normalize(line []byte, sourceFile string) (Event, error) {
	var raw rawEvent
	if err := json.Unmarshal(line, &raw); err != nil {
		return Event{}, fmt.Errorf("parse event record: %w", err)
	}

	ev := Event{
		ID:        strings.TrimSpace(raw.ID),
		Timestamp: strings.TrimSpace(raw.TS),
		Type:      orUnknown(raw.Type),
		Source:    orUnknown(raw.Source),
		Meta:      raw.Meta,
	}
	if ev.ID == "" {
		ev.ID = fallbackID(line)
	}
	ev.Day = deriveDay(ev.Timestamp, sourceFile)
	if url, ok := raw.Meta["url"].(string); ok {
		ev.URL = strings.TrimSpace(url)
	}
	return ev, nil
}

// fallbackID derives a stable event ID from the raw record bytes.
func fallbackID(line []byte) string {
	sum := sha256.Sum256(line)
	return hex.EncodeToString(sum[:])
}

// deriveDay extracts YYYY-MM-DD from the timestamp, else from the source
// file stem, else returns "".
func deriveDay(ts, sourceFile string) string {
	if len(ts) >= 10 && ts[4] == '-' && ts[7] == '-' {
		return ts[:10]
	}
	stem := strings.TrimSuffix(filepath.Base(sourceFile), filepath.Ext(sourceFile))
	if len(stem) == 10 && stem[4] == '-' && stem[7] == '-' {
		return stem
	}
	return ""
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}

// ByID filters events down to those whose ID appears in ids, preserving
// the input order.
func ByID(events []Event, ids []string) []Event {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []Event
	for _, ev := range events {
		if _, ok := want[ev.ID]; ok {
			out = append(out, ev)
		}
	}
	return out
}
