package plan

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/roach88/distill/internal/event"
	"github.com/roach88/distill/internal/llm"
)

const planSystemPrompt = `You are an orchestrator. Analyze a timeline of user activity and create a structured plan of tasks.

Goal: build a personal knowledge base (Second Brain). Tasks: create/update concept notes and generate reflection questions.

Rules:
- Each GENERATE_QUESTIONS task must depend on a CREATE_OR_UPDATE_NOTE task.
- Group related page events into one CREATE_OR_UPDATE_NOTE task.
- Output a JSON object with a single key "tasks" containing the list of tasks.
- Each task: task_id, task_type, description, related_event_ids, dependencies.`

func planUserPrompt(timeline string) string {
	return "Here is the timeline of events for the day:\n\n" + timeline
}

// Builder asks the model to decompose an event set into a task graph.
type Builder struct {
	client llm.Client
	logger *slog.Logger
}

// NewBuilder creates a Builder over the given provider client.
func NewBuilder(client llm.Client, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{client: client, logger: logger}
}

// CreatePlan serializes events into a bounded timeline, requests a plan,
// and validates the result. Provider failures propagate unchanged (the
// caller's retry policy applies); validation failures are
// *InvalidPlanError and fatal for the run.
func (b *Builder) CreatePlan(ctx context.Context, events []event.Event) (Plan, error) {
	if len(events) == 0 {
		return Plan{}, nil
	}

	timeline := event.Timeline(events)
	b.logger.Info("requesting task plan", "events", len(events))

	// Raw first: the CUE shape check runs against the untrusted bytes
	// before any Go decoding.
	var raw json.RawMessage
	if err := b.client.Generate(ctx, planSystemPrompt, planUserPrompt(timeline), &raw); err != nil {
		return Plan{}, fmt.Errorf("generate plan: %w", err)
	}
	if err := CheckShape(raw); err != nil {
		return Plan{}, err
	}

	var p Plan
	if err := json.Unmarshal(raw, &p); err != nil {
		return Plan{}, &InvalidPlanError{Reason: "decode plan", Err: err}
	}

	known := make(map[string]struct{}, len(events))
	for _, ev := range events {
		known[ev.ID] = struct{}{}
	}
	if err := Validate(p, known); err != nil {
		return Plan{}, err
	}

	b.logger.Info("plan validated", "tasks", len(p.Tasks))
	return p, nil
}
