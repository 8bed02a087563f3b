package executor

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/distill/internal/plan"
)

// DefaultConcurrency bounds parallel handler invocations when the caller
// does not choose a limit.
const DefaultConcurrency = 4

// Handler executes one task. One handler is registered per task type.
type Handler interface {
	Execute(ctx context.Context, t plan.Task) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, t plan.Task) error

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, t plan.Task) error { return f(ctx, t) }

// completion is a worker's report back to the scheduler loop.
type completion struct {
	taskID string
	err    error
}

// Executor schedules tasks over a bounded worker pool.
type Executor struct {
	handlers       map[string]Handler
	maxConcurrency int
	logger         *slog.Logger
}

// New creates an Executor. handlers maps task type to its handler;
// maxConcurrency <= 0 selects DefaultConcurrency.
func New(handlers map[string]Handler, maxConcurrency int, logger *slog.Logger) *Executor {
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		handlers:       handlers,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
}

// Run executes the plan until every task reaches a terminal state.
//
// Scheduling: tasks become READY when all dependencies SUCCEEDED, and
// are dispatched in plan order (stable tie-break, so output ordering is
// reproducible for identical plans). A failed task marks all transitive
// dependents SKIPPED. A cancelled context stops new dispatch and lets
// in-flight tasks finish or fail naturally; the summary still covers
// every task.
//
// Run re-validates the graph before executing anything; a plan with a
// cycle or dangling dependency never starts.
func (e *Executor) Run(ctx context.Context, p plan.Plan) (Summary, error) {
	if err := plan.ValidateGraph(p); err != nil {
		return Summary{}, err
	}
	if len(p.Tasks) == 0 {
		return Summary{}, nil
	}

	states := make(map[string]State, len(p.Tasks))
	errs := make(map[string]error)
	dependents := make(map[string][]string)
	for _, t := range p.Tasks {
		states[t.ID] = StatePending
		for _, dep := range t.Dependencies {
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}
	refreshReady(p, states)

	// Workers report completions here; the channel is sized for the
	// whole plan so a worker can never block the scheduler.
	results := make(chan completion, len(p.Tasks))

	var g errgroup.Group
	g.SetLimit(e.maxConcurrency)

	var (
		running    int
		dispatched []string
		aborted    bool
	)

	for {
		if ctx.Err() != nil {
			aborted = true
		}

		if aborted {
			// Stop dispatching; everything not yet running is skipped.
			for _, t := range p.Tasks {
				if st := states[t.ID]; st == StatePending || st == StateReady {
					states[t.ID] = StateSkipped
				}
			}
		} else {
			for _, t := range p.Tasks {
				if running >= e.maxConcurrency {
					break
				}
				if states[t.ID] != StateReady {
					continue
				}
				task := t
				states[task.ID] = StateRunning
				running++
				dispatched = append(dispatched, task.ID)
				e.logger.Debug("dispatching task", "task", task.ID, "type", task.Type)
				g.Go(func() error {
					results <- completion{taskID: task.ID, err: e.execute(ctx, task)}
					return nil
				})
			}
		}

		if running == 0 {
			if aborted || allTerminal(states) {
				break
			}
			// ValidateGraph rejects cycles, so a well-formed plan
			// cannot reach this state.
			return Summary{}, fmt.Errorf("scheduler stalled with non-terminal tasks")
		}

		comp := <-results
		running--

		if comp.err != nil {
			states[comp.taskID] = StateFailed
			errs[comp.taskID] = comp.err
			e.logger.Error("task failed", "task", comp.taskID, "error", comp.err)
			skipDependents(comp.taskID, dependents, states)
		} else {
			states[comp.taskID] = StateSucceeded
			e.logger.Info("task succeeded", "task", comp.taskID)
		}
		refreshReady(p, states)
	}

	_ = g.Wait() // workers only report via the results channel

	sum := buildSummary(p, states, errs, dispatched)
	e.logger.Info("plan execution finished",
		"succeeded", sum.Succeeded, "failed", sum.Failed, "skipped", sum.Skipped)

	if aborted {
		return sum, ctx.Err()
	}
	return sum, nil
}

// execute resolves and invokes the handler for one task.
func (e *Executor) execute(ctx context.Context, t plan.Task) error {
	h, ok := e.handlers[t.Type]
	if !ok {
		return fmt.Errorf("no handler registered for task type %q", t.Type)
	}
	return h.Execute(ctx, t)
}

// refreshReady promotes PENDING tasks whose dependencies all SUCCEEDED.
func refreshReady(p plan.Plan, states map[string]State) {
	for _, t := range p.Tasks {
		if states[t.ID] != StatePending {
			continue
		}
		ready := true
		for _, dep := range t.Dependencies {
			if states[dep] != StateSucceeded {
				ready = false
				break
			}
		}
		if ready {
			states[t.ID] = StateReady
		}
	}
}

// skipDependents transitively marks every downstream task of taskID as
// SKIPPED. Tasks already running or terminal are left alone.
func skipDependents(taskID string, dependents map[string][]string, states map[string]State) {
	queue := append([]string(nil), dependents[taskID]...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if st := states[id]; st == StatePending || st == StateReady {
			states[id] = StateSkipped
			queue = append(queue, dependents[id]...)
		}
	}
}

func allTerminal(states map[string]State) bool {
	for _, st := range states {
		if !st.Terminal() {
			return false
		}
	}
	return true
}
