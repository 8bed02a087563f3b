// Package plan defines the task-graph data model produced by the
// planning step and owns its validation.
//
// A Plan is transient: it is produced once per planning pass over a
// bounded event set, handed to the executor, and never persisted as an
// independent entity. The planner output comes from a language model and
// is treated as untrusted until it passes both the CUE shape check and
// the structural validation in validate.go.
package plan

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Task types the planner may emit.
const (
	TypeCreateOrUpdateNote = "CREATE_OR_UPDATE_NOTE"
	TypeGenerateQuestions  = "GENERATE_QUESTIONS"
	TypeGenerateDailyNote  = "GENERATE_DAILY_NOTE"
)

// Types lists all valid task types in a fixed order.
var Types = []string{TypeCreateOrUpdateNote, TypeGenerateQuestions, TypeGenerateDailyNote}

// Task is one unit of synthesis work with declared dependencies.
//
// ID is unique within its Plan. Dependencies name other task IDs in the
// same Plan; RelatedEventIDs name events from the planning input set.
type Task struct {
	ID              string   `json:"task_id"`
	Type            string   `json:"task_type"`
	Description     string   `json:"description,omitempty"`
	RelatedEventIDs []string `json:"related_event_ids,omitempty"`
	Dependencies    []string `json:"dependencies,omitempty"`
}

// validateShape checks one task's field-level shape.
func (t Task) validateShape() error {
	typeValues := make([]any, len(Types))
	for i, v := range Types {
		typeValues[i] = v
	}
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Type, validation.Required, validation.In(typeValues...)),
	)
}

// Plan is an ordered collection of tasks for one execution window.
// Task order is significant: it is the executor's dispatch tie-break.
type Plan struct {
	Tasks []Task `json:"tasks"`
}
