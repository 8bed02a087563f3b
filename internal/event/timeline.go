package event

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// timestampWidth trims timestamps to second precision for timeline lines.
const timestampWidth = 19

// Timeline serializes events into the compact textual form shown to the
// planner. One line per event, in input order:
//
//	- 2026-08-12T09:15:02 [id:ev-1] [browser.page_text] Title -- preview...
//
// Page-text events carry their title and a bounded preview so the planner
// can group related pages without seeing full page bodies.
func Timeline(events []Event) string {
	if len(events) == 0 {
		return "(no events)"
	}
	var b strings.Builder
	for i, ev := range events {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(timelineLine(ev))
	}
	return b.String()
}

func timelineLine(ev Event) string {
	ts := ev.Timestamp
	if len(ts) > timestampWidth {
		ts = ts[:timestampWidth]
	}
	line := fmt.Sprintf("- %s [id:%s] [%s]", ts, ev.ID, ev.Type)

	switch ev.Type {
	case TypePageView:
		line += fmt.Sprintf(" %s | %s", titleOrPlaceholder(ev), ev.URL)
	case TypePageText:
		preview := clip(ev.MetaString("text_preview"), 100)
		line += fmt.Sprintf(" %s -- %s...", titleOrPlaceholder(ev), preview)
	case TypeAudio:
		if txt := clip(ev.MetaString("transcript_text"), 200); txt != "" {
			line += " " + txt + "..."
		}
	case TypeOCR:
		if txt := clip(ev.MetaString("text_preview"), 100); txt != "" {
			line += " " + txt + "..."
		}
	default:
		line += " " + ev.Source
	}
	return line
}

func titleOrPlaceholder(ev Event) string {
	if t := ev.MetaString("title"); t != "" {
		return t
	}
	return "?"
}

// clip bounds s to at most n bytes without splitting a rune, so clipped
// previews stay valid UTF-8 in the planner prompt.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
