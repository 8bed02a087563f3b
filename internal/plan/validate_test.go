package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckShape_ValidPlan(t *testing.T) {
	raw := []byte(`{
		"tasks": [
			{
				"task_id": "task_1",
				"task_type": "CREATE_OR_UPDATE_NOTE",
				"description": "Note on 'Goroutines'",
				"related_event_ids": ["ev-1", "ev-2"],
				"dependencies": []
			},
			{
				"task_id": "task_2",
				"task_type": "GENERATE_QUESTIONS",
				"description": "Questions for 'Goroutines'",
				"dependencies": ["task_1"]
			}
		]
	}`)

	assert.NoError(t, CheckShape(raw))
}

func TestCheckShape_EmptyTasks(t *testing.T) {
	assert.NoError(t, CheckShape([]byte(`{"tasks": []}`)))
}

func TestCheckShape_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `this is not json`},
		{"missing tasks key", `{"plan": []}`},
		{"unknown task type", `{"tasks":[{"task_id":"t1","task_type":"DELETE_EVERYTHING"}]}`},
		{"missing task_id", `{"tasks":[{"task_type":"CREATE_OR_UPDATE_NOTE"}]}`},
		{"empty task_id", `{"tasks":[{"task_id":"","task_type":"CREATE_OR_UPDATE_NOTE"}]}`},
		{"unknown field", `{"tasks":[{"task_id":"t1","task_type":"CREATE_OR_UPDATE_NOTE","priority":9}]}`},
		{"tasks not a list", `{"tasks":"t1"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckShape([]byte(tc.raw))
			require.Error(t, err)
			assert.True(t, IsInvalidPlan(err), "want InvalidPlanError, got %T: %v", err, err)
		})
	}
}

func graphPlan(tasks ...Task) Plan { return Plan{Tasks: tasks} }

func TestValidateGraph_Valid(t *testing.T) {
	p := graphPlan(
		Task{ID: "t1", Type: TypeCreateOrUpdateNote},
		Task{ID: "t2", Type: TypeGenerateQuestions, Dependencies: []string{"t1"}},
		Task{ID: "t3", Type: TypeGenerateDailyNote, Dependencies: []string{"t1", "t2"}},
	)
	assert.NoError(t, ValidateGraph(p))
}

func TestValidateGraph_DuplicateID(t *testing.T) {
	p := graphPlan(
		Task{ID: "t1", Type: TypeCreateOrUpdateNote},
		Task{ID: "t1", Type: TypeGenerateQuestions},
	)
	err := ValidateGraph(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate task id")
}

func TestValidateGraph_UnknownDependency(t *testing.T) {
	p := graphPlan(
		Task{ID: "t1", Type: TypeCreateOrUpdateNote, Dependencies: []string{"ghost"}},
	)
	err := ValidateGraph(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown task")
}

func TestValidateGraph_SelfDependency(t *testing.T) {
	p := graphPlan(
		Task{ID: "t1", Type: TypeCreateOrUpdateNote, Dependencies: []string{"t1"}},
	)
	err := ValidateGraph(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depends on itself")
}

func TestValidateGraph_Cycle(t *testing.T) {
	p := graphPlan(
		Task{ID: "a", Type: TypeCreateOrUpdateNote, Dependencies: []string{"c"}},
		Task{ID: "b", Type: TypeGenerateQuestions, Dependencies: []string{"a"}},
		Task{ID: "c", Type: TypeGenerateQuestions, Dependencies: []string{"b"}},
	)
	err := ValidateGraph(p)
	require.Error(t, err)
	require.True(t, IsInvalidPlan(err))
	// Stuck IDs are sorted for a stable message.
	assert.Contains(t, err.Error(), "a -> b -> c")
}

func TestValidateGraph_InvalidType(t *testing.T) {
	p := graphPlan(Task{ID: "t1", Type: "NOT_A_TYPE"})
	err := ValidateGraph(p)
	require.Error(t, err)
	assert.True(t, IsInvalidPlan(err))
}

func TestValidate_UnknownEventID(t *testing.T) {
	p := graphPlan(
		Task{ID: "t1", Type: TypeCreateOrUpdateNote, RelatedEventIDs: []string{"ev-1", "ev-missing"}},
	)
	known := map[string]struct{}{"ev-1": {}}

	err := Validate(p, known)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event")
}

func TestValidate_AllEventsKnown(t *testing.T) {
	p := graphPlan(
		Task{ID: "t1", Type: TypeCreateOrUpdateNote, RelatedEventIDs: []string{"ev-1"}},
	)
	assert.NoError(t, Validate(p, map[string]struct{}{"ev-1": {}}))
}
