// Package handler implements one handler per task type. Each handler
// resolves the events or artifacts it needs, invokes the language-model
// capability, and writes its output through the idempotent artifact
// writer.
package handler

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/distill/internal/event"
	"github.com/roach88/distill/internal/executor"
	"github.com/roach88/distill/internal/plan"
	"github.com/roach88/distill/internal/store"
	"github.com/roach88/distill/internal/vault"
)

// Error is a task-local failure. The executor records it as FAILED and
// skips the task's dependents; sibling branches keep running.
type Error struct {
	TaskID string
	Err    error
}

func (e *Error) Error() string { return fmt.Sprintf("task %s: %v", e.TaskID, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// IsHandlerError reports whether err is (or wraps) a task-local handler
// failure.
func IsHandlerError(err error) bool {
	var he *Error
	return errors.As(err, &he)
}

// Deps carries the collaborators shared by all handlers for one run.
//
// Events is the run's bounded event set: immutable for the duration of
// the run, so handlers resolve related_event_ids against it without
// re-querying. Concept and artifact lookups, by contrast, always go
// through the store, since those rows change as sibling tasks complete.
type Deps struct {
	Store    *store.Store
	Renderer *vault.Renderer
	Writer   *vault.Writer
	Layout   vault.Layout
	Events   []event.Event

	// DataDir is the capture data root that event text_path entries are
	// relative to.
	DataDir string

	// Day is the run's target day, used by the daily-note handler.
	Day string

	Logger *slog.Logger
}

// Registry returns the task-type handler table for one run.
func Registry(d Deps) map[string]executor.Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return map[string]executor.Handler{
		plan.TypeCreateOrUpdateNote: &noteHandler{d},
		plan.TypeGenerateQuestions:  &questionsHandler{d},
		plan.TypeGenerateDailyNote:  &dailyHandler{d},
	}
}

// taskErr wraps a failure with its task identity.
func taskErr(t plan.Task, err error) error {
	return &Error{TaskID: t.ID, Err: err}
}
