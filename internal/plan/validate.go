package plan

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cuejson "cuelang.org/go/encoding/json"
)

//go:embed schema.cue
var schemaCUE string

// InvalidPlanError marks a plan that failed validation. It is fatal for
// the run: a malformed plan cannot be repaired without risking an
// inconsistent execution order.
type InvalidPlanError struct {
	Reason string
	Err    error
}

func (e *InvalidPlanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid plan: %s: %v", e.Reason, e.Err)
	}
	return "invalid plan: " + e.Reason
}

func (e *InvalidPlanError) Unwrap() error { return e.Err }

// IsInvalidPlan reports whether err is (or wraps) a plan validation
// failure.
func IsInvalidPlan(err error) bool {
	var ipe *InvalidPlanError
	return errors.As(err, &ipe)
}

var (
	schemaOnce sync.Once
	schemaVal  cue.Value
	schemaErr  error
)

// planSchema compiles the embedded CUE schema once.
func planSchema() (cue.Value, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
		if err := v.Err(); err != nil {
			schemaErr = fmt.Errorf("compile plan schema: %w", err)
			return
		}
		schemaVal = v.LookupPath(cue.ParsePath("#Plan"))
		if err := schemaVal.Err(); err != nil {
			schemaErr = fmt.Errorf("lookup #Plan: %w", err)
		}
	})
	return schemaVal, schemaErr
}

// CheckShape validates the model's raw JSON against the embedded CUE
// schema. This is the defensive boundary in front of an untrusted
// producer; it runs before the JSON is decoded into Go types.
func CheckShape(raw []byte) error {
	schema, err := planSchema()
	if err != nil {
		return err
	}

	expr, err := cuejson.Extract("plan.json", raw)
	if err != nil {
		return &InvalidPlanError{Reason: "output is not valid JSON", Err: err}
	}

	val := schema.Context().BuildExpr(expr)
	if err := val.Err(); err != nil {
		return &InvalidPlanError{Reason: "output is not valid JSON", Err: err}
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &InvalidPlanError{Reason: "output does not match plan schema", Err: err}
	}
	return nil
}

// Validate checks a decoded Plan structurally against the planning input:
//
//   - task IDs unique within the plan and shape-valid
//   - every dependency references a task ID in the same plan
//   - every related event ID references an event in the input set
//   - the dependency relation is acyclic
//
// Any violation returns *InvalidPlanError.
func Validate(p Plan, knownEventIDs map[string]struct{}) error {
	if err := ValidateGraph(p); err != nil {
		return err
	}
	for _, t := range p.Tasks {
		for _, evID := range t.RelatedEventIDs {
			if _, ok := knownEventIDs[evID]; !ok {
				return &InvalidPlanError{
					Reason: fmt.Sprintf("task %q references unknown event %q", t.ID, evID),
				}
			}
		}
	}
	return nil
}

// ValidateGraph checks the graph structure alone: ID uniqueness, task
// shape, dependency closure, and acyclicity. The executor re-runs this
// on every plan it receives, so a caller that skipped Validate still
// cannot execute a malformed graph.
func ValidateGraph(p Plan) error {
	seen := make(map[string]struct{}, len(p.Tasks))
	for _, t := range p.Tasks {
		if err := t.validateShape(); err != nil {
			return &InvalidPlanError{Reason: fmt.Sprintf("task %q shape", t.ID), Err: err}
		}
		if _, dup := seen[t.ID]; dup {
			return &InvalidPlanError{Reason: fmt.Sprintf("duplicate task id %q", t.ID)}
		}
		seen[t.ID] = struct{}{}
	}

	for _, t := range p.Tasks {
		for _, dep := range t.Dependencies {
			if _, ok := seen[dep]; !ok {
				return &InvalidPlanError{
					Reason: fmt.Sprintf("task %q depends on unknown task %q", t.ID, dep),
				}
			}
			if dep == t.ID {
				return &InvalidPlanError{Reason: fmt.Sprintf("task %q depends on itself", t.ID)}
			}
		}
	}

	if cycle := findCycle(p); len(cycle) > 0 {
		return &InvalidPlanError{
			Reason: "dependency cycle: " + strings.Join(cycle, " -> "),
		}
	}
	return nil
}

// findCycle runs Kahn's algorithm over the dependency relation and, when
// tasks remain unprocessed, returns their IDs sorted for a stable error
// message. Empty result means the plan is acyclic.
func findCycle(p Plan) []string {
	indeg := make(map[string]int, len(p.Tasks))
	dependents := make(map[string][]string, len(p.Tasks))
	for _, t := range p.Tasks {
		indeg[t.ID] += 0
		for _, dep := range t.Dependencies {
			indeg[t.ID]++
			dependents[dep] = append(dependents[dep], t.ID)
		}
	}

	var ready []string
	for _, t := range p.Tasks {
		if indeg[t.ID] == 0 {
			ready = append(ready, t.ID)
		}
	}

	processed := 0
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		processed++
		for _, dep := range dependents[id] {
			indeg[dep]--
			if indeg[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if processed == len(p.Tasks) {
		return nil
	}

	var stuck []string
	for id, d := range indeg {
		if d > 0 {
			stuck = append(stuck, id)
		}
	}
	sort.Strings(stuck)
	return stuck
}
