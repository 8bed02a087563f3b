package plan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/distill/internal/event"
	"github.com/roach88/distill/internal/llm"
)

func planEvents() []event.Event {
	return []event.Event{
		{
			ID:        "ev-1",
			Timestamp: "2026-08-12T09:00:00Z",
			Type:      event.TypePageText,
			Meta:      map[string]any{"title": "Goroutines", "text_preview": "lightweight threads"},
		},
		{
			ID:        "ev-2",
			Timestamp: "2026-08-12T09:05:00Z",
			Type:      event.TypePageView,
			URL:       "https://go.dev/tour/concurrency/1",
			Meta:      map[string]any{"title": "A Tour of Go"},
		},
	}
}

func TestCreatePlan_EmptyEvents(t *testing.T) {
	b := NewBuilder(llm.NewFake(), nil)

	p, err := b.CreatePlan(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, p.Tasks)
}

func TestCreatePlan_ValidOutput(t *testing.T) {
	fake := llm.NewFake().Respond("timeline of events", `{
		"tasks": [
			{"task_id":"task_1","task_type":"CREATE_OR_UPDATE_NOTE","description":"Note on 'Goroutines'","related_event_ids":["ev-1","ev-2"]},
			{"task_id":"task_2","task_type":"GENERATE_QUESTIONS","description":"Questions for 'Goroutines'","dependencies":["task_1"]}
		]
	}`)
	b := NewBuilder(fake, nil)

	p, err := b.CreatePlan(context.Background(), planEvents())
	require.NoError(t, err)
	require.Len(t, p.Tasks, 2)
	assert.Equal(t, TypeCreateOrUpdateNote, p.Tasks[0].Type)
	assert.Equal(t, []string{"task_1"}, p.Tasks[1].Dependencies)

	// The prompt carries the serialized timeline.
	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].User, "[id:ev-1]")
	assert.Contains(t, calls[0].User, "[id:ev-2]")
}

func TestCreatePlan_ShapeViolationIsFatal(t *testing.T) {
	fake := llm.NewFake().Respond("", `{"tasks":[{"task_id":"t1","task_type":"HACK_THE_PLANET"}]}`)
	b := NewBuilder(fake, nil)

	_, err := b.CreatePlan(context.Background(), planEvents())
	require.Error(t, err)
	assert.True(t, IsInvalidPlan(err))
}

func TestCreatePlan_UnknownEventRejected(t *testing.T) {
	fake := llm.NewFake().Respond("", `{
		"tasks":[{"task_id":"t1","task_type":"CREATE_OR_UPDATE_NOTE","related_event_ids":["ev-99"]}]
	}`)
	b := NewBuilder(fake, nil)

	_, err := b.CreatePlan(context.Background(), planEvents())
	require.Error(t, err)
	assert.True(t, IsInvalidPlan(err))
}

func TestCreatePlan_ProviderErrorPropagates(t *testing.T) {
	boom := &llm.ProviderError{Provider: "fake", Transient: true, Err: errors.New("overloaded")}
	fake := llm.NewFake().Fail("", boom)
	b := NewBuilder(fake, nil)

	_, err := b.CreatePlan(context.Background(), planEvents())
	require.Error(t, err)
	assert.True(t, llm.IsTransient(err))
	assert.False(t, IsInvalidPlan(err))
}

func TestCreatePlan_CycleRejected(t *testing.T) {
	fake := llm.NewFake().Respond("", `{
		"tasks":[
			{"task_id":"t1","task_type":"CREATE_OR_UPDATE_NOTE","dependencies":["t2"]},
			{"task_id":"t2","task_type":"GENERATE_QUESTIONS","dependencies":["t1"]}
		]
	}`)
	b := NewBuilder(fake, nil)

	_, err := b.CreatePlan(context.Background(), planEvents())
	require.Error(t, err)
	assert.True(t, IsInvalidPlan(err))
}
