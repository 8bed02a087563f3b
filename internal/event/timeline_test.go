package event

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func TestTimeline_Empty(t *testing.T) {
	assert.Equal(t, "(no events)", Timeline(nil))
}

func TestTimeline_Golden(t *testing.T) {
	events := []Event{
		{
			ID:        "ev-1",
			Timestamp: "2026-08-12T09:15:02.123456Z",
			Type:      TypePageView,
			Source:    "extension",
			URL:       "https://go.dev/blog/slog",
			Meta:      map[string]any{"title": "Structured Logging with slog"},
		},
		{
			ID:        "ev-2",
			Timestamp: "2026-08-12T09:15:40Z",
			Type:      TypePageText,
			Source:    "extension",
			Meta: map[string]any{
				"title":        "Structured Logging with slog",
				"text_preview": "The slog package provides structured logging with levels and key-value attributes",
			},
		},
		{
			ID:        "ev-3",
			Timestamp: "2026-08-12T09:20:11Z",
			Type:      TypeAudio,
			Source:    "transcriber",
			Meta:      map[string]any{"transcript_text": "so the nice thing about structured logs is you can query them"},
		},
		{
			ID:        "ev-4",
			Timestamp: "2026-08-12T09:25:00Z",
			Type:      TypeOCR,
			Source:    "ocr",
			Meta:      map[string]any{"text_preview": "func main() { slog.Info(\"hello\") }"},
		},
		{
			ID:        "ev-5",
			Timestamp: "2026-08-12T09:30:00Z",
			Type:      "sensor.heartbeat",
			Source:    "wearable",
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "timeline", []byte(Timeline(events)))
}

func TestTimeline_MissingTitleShowsPlaceholder(t *testing.T) {
	events := []Event{{
		ID:        "ev-1",
		Timestamp: "2026-08-12T09:15:02Z",
		Type:      TypePageView,
		URL:       "https://example.com",
	}}

	assert.Equal(t,
		"- 2026-08-12T09:15:02 [id:ev-1] [browser.page_view] ? | https://example.com",
		Timeline(events))
}

func TestTimeline_LongPreviewClipped(t *testing.T) {
	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	events := []Event{{
		ID:        "ev-1",
		Timestamp: "2026-08-12T09:15:02Z",
		Type:      TypePageText,
		Meta:      map[string]any{"title": "T", "text_preview": string(long)},
	}}

	line := Timeline(events)
	// 100 preview chars plus the trailing ellipsis marker.
	assert.Contains(t, line, string(long[:100])+"...")
	assert.NotContains(t, line, string(long[:101]))
}

func TestTimeline_MultibytePreviewClippedOnRuneBoundary(t *testing.T) {
	events := []Event{{
		ID:        "ev-1",
		Timestamp: "2026-08-12T09:15:02Z",
		Type:      TypePageText,
		Meta: map[string]any{
			"title":        "日本語のページ",
			"text_preview": strings.Repeat("世", 80),
		},
	}}

	line := Timeline(events)
	assert.True(t, utf8.ValidString(line), "clipping must not split a rune")
	assert.LessOrEqual(t, strings.Count(line, "世")*3, 100)
}
