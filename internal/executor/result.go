package executor

import "github.com/roach88/distill/internal/plan"

// TaskResult is the recorded outcome of one task.
type TaskResult struct {
	TaskID string `json:"task_id"`
	Type   string `json:"task_type"`
	State  State  `json:"state"`
	Error  string `json:"error,omitempty"`
}

// Summary is the outcome of a whole run. A run completes with a summary
// rather than aborting on first task failure, so partial capability
// outages still produce maximal forward progress.
type Summary struct {
	// Results holds one entry per task, in plan order.
	Results []TaskResult `json:"results"`

	// DispatchOrder records task IDs in the order they were handed to
	// workers. With concurrency 1 this sequence is identical across
	// repeated runs of the same plan.
	DispatchOrder []string `json:"dispatch_order"`

	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// buildSummary assembles a Summary from final states in plan order.
func buildSummary(p plan.Plan, states map[string]State, errs map[string]error, dispatched []string) Summary {
	sum := Summary{DispatchOrder: dispatched}
	for _, t := range p.Tasks {
		st := states[t.ID]
		res := TaskResult{TaskID: t.ID, Type: t.Type, State: st}
		if err := errs[t.ID]; err != nil {
			res.Error = err.Error()
		}
		sum.Results = append(sum.Results, res)

		switch st {
		case StateSucceeded:
			sum.Succeeded++
		case StateFailed:
			sum.Failed++
		case StateSkipped:
			sum.Skipped++
		}
	}
	return sum
}
