// Package track observes long-running server-side operations. Provisioning,
// experiment runs, and deployments are not held on a single request; they
// are watched by polling a status endpoint on a short cadence until a
// terminal state is reached, or by tailing a log stream.
package track

import (
	"context"
	"fmt"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/agentcore/agentcore/pkg/api"
	"github.com/agentcore/agentcore/pkg/operation"
)

// DefaultInterval is the polling cadence.
const DefaultInterval = 3 * time.Second

// State carries the monitor's progress between polls.
type State struct {
	LastStatus string
	Iterations int
}

// StepResult is what one poll produced: the line to render and whether the
// watched operation reached a terminal state.
type StepResult struct {
	Render string
	Done   bool
}

// Step folds one status payload into the monitor state. Pure, so the loop
// logic is testable without a clock or a server.
func Step(prev State, payload map[string]any, statusField string, terminal []string) (State, StepResult) {
	status, _ := payload[statusField].(string)
	next := State{LastStatus: status, Iterations: prev.Iterations + 1}

	result := StepResult{Render: fmt.Sprintf("status: %s", status)}
	if status == "" {
		result.Render = "status: unknown"
		return next, result
	}
	for _, t := range terminal {
		if status == t {
			result.Done = true
			return next, result
		}
	}
	return next, result
}

// Monitor polls a status endpoint until a terminal state, the context ends,
// or an optional exit condition evaluates true against a payload.
type Monitor struct {
	Session *api.Session
	// Path is the status endpoint, relative to the service base.
	Path string
	// StatusField names the payload field holding the state. Default "status".
	StatusField string
	// TerminalStates end the watch.
	TerminalStates []string
	// ExitCondition is an optional boolean expression evaluated against
	// each payload, e.g. `status == "ready" && replicas >= 2`.
	ExitCondition string
	// Interval between polls. Default DefaultInterval.
	Interval time.Duration
	// Progress receives per-poll renders. Optional.
	Progress operation.Progress

	sleep func(time.Duration)
}

// SetSleep replaces the inter-poll sleep. Testing hook.
func (m *Monitor) SetSleep(sleep func(time.Duration)) { m.sleep = sleep }

// Run polls until done. Returns the final payload.
func (m *Monitor) Run(ctx context.Context) (map[string]any, error) {
	statusField := m.StatusField
	if statusField == "" {
		statusField = "status"
	}
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	sleep := m.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var program *vm.Program
	if m.ExitCondition != "" {
		compiled, err := expr.Compile(m.ExitCondition, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return nil, fmt.Errorf("invalid exit condition: %w", err)
		}
		program = compiled
	}

	state := State{}
	for {
		if err := ctx.Err(); err != nil {
			if m.Progress != nil {
				m.Progress.Stop()
			}
			return nil, err
		}

		payload, err := m.Session.Get(ctx, m.Path, nil)
		if err != nil {
			if m.Progress != nil {
				m.Progress.Failure("watch failed")
			}
			return nil, err
		}

		var result StepResult
		state, result = Step(state, payload, statusField, m.TerminalStates)
		if m.Progress != nil {
			m.Progress.Update(result.Render)
		}

		if program != nil {
			met, err := expr.Run(program, payload)
			if err == nil {
				if done, ok := met.(bool); ok && done {
					result.Done = true
				}
			}
		}

		if result.Done {
			if m.Progress != nil {
				m.Progress.Success(result.Render)
			}
			return payload, nil
		}

		sleep(interval)
	}
}
