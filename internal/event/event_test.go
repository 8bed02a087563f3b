package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_FullRecord(t *testing.T) {
	line := []byte(`{"id":"ev-1","ts":"2026-08-12T09:15:02.123Z","type":"browser.page_view","source":"extension","meta":{"url":"https://example.com/a","title":"Example"}}`)

	ev, err := Normalize(line, "2026-08-12.jsonl")
	require.NoError(t, err)

	assert.Equal(t, "ev-1", ev.ID)
	assert.Equal(t, "2026-08-12T09:15:02.123Z", ev.Timestamp)
	assert.Equal(t, "2026-08-12", ev.Day)
	assert.Equal(t, TypePageView, ev.Type)
	assert.Equal(t, "extension", ev.Source)
	assert.Equal(t, "https://example.com/a", ev.URL)
	assert.Equal(t, "Example", ev.MetaString("title"))
}

func TestNormalize_MissingIDGetsStableFallback(t *testing.T) {
	line := []byte(`{"ts":"2026-08-12T10:00:00Z","type":"audio.segment","source":"transcriber"}`)

	ev1, err := Normalize(line, "2026-08-12.jsonl")
	require.NoError(t, err)
	ev2, err := Normalize(line, "2026-08-12.jsonl")
	require.NoError(t, err)

	require.NotEmpty(t, ev1.ID)
	assert.Equal(t, ev1.ID, ev2.ID, "fallback ID must be content-derived, not random")
	assert.Len(t, ev1.ID, 64)
}

func TestNormalize_DayFromFileStem(t *testing.T) {
	// No timestamp at all, so the day comes from the file name.
	line := []byte(`{"id":"ev-2","type":"screen.ocr","source":"ocr"}`)

	ev, err := Normalize(line, "/data/events/2026-08-13.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-13", ev.Day)
}

func TestNormalize_NoDayDerivable(t *testing.T) {
	line := []byte(`{"id":"ev-3","type":"screen.ocr","source":"ocr"}`)

	ev, err := Normalize(line, "capture.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "", ev.Day)
}

func TestNormalize_BlankTypeAndSource(t *testing.T) {
	line := []byte(`{"id":"ev-4","ts":"2026-08-12T11:00:00Z","type":"  ","source":""}`)

	ev, err := Normalize(line, "2026-08-12.jsonl")
	require.NoError(t, err)
	assert.Equal(t, "unknown", ev.Type)
	assert.Equal(t, "unknown", ev.Source)
}

func TestNormalize_MalformedJSON(t *testing.T) {
	_, err := Normalize([]byte(`{"id": "ev-5"`), "2026-08-12.jsonl")
	require.Error(t, err)
}

func TestByID_PreservesInputOrder(t *testing.T) {
	events := []Event{
		{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"},
	}

	got := ByID(events, []string{"d", "b"})
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
}

func TestByID_UnknownIDsIgnored(t *testing.T) {
	events := []Event{{ID: "a"}}
	got := ByID(events, []string{"a", "nope"})
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestMetaString_NonStringValue(t *testing.T) {
	ev := Event{Meta: map[string]any{"count": 3.0}}
	assert.Equal(t, "", ev.MetaString("count"))
	assert.Equal(t, "", ev.MetaString("absent"))
}
