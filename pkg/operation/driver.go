// Package operation wraps one logical backend call with a progress
// indicator, bounded retry, and uniform error translation.
//
// Retry here is deliberately narrow: only the token-refresh sentinel and the
// "empty result, poll again" signal are retried. Transport congestion is
// retried one layer down in the session; genuine failures propagate to the
// error renderer untouched. Keeping the two retry policies apart avoids
// retry storms on true auth failures.
package operation

import (
	"context"
	"time"

	"github.com/agentcore/agentcore/pkg/api"
)

// DefaultMaxRetries bounds the refresh-sentinel retries per operation.
const DefaultMaxRetries = 3

// Func performs one HTTP operation. A nil result with a nil error means
// "nothing yet, retry" and is subject to the same backoff and cap.
type Func func(ctx context.Context) (map[string]any, error)

// Progress is the indicator shown while an operation runs. Injectable so
// tests can substitute a recording fake.
type Progress interface {
	Start(message string)
	Update(message string)
	Success(message string)
	Failure(message string)
	Stop()
}

// Driver executes operations under a spinner with refresh-aware retry.
type Driver struct {
	progress   Progress
	maxRetries int
	sleep      func(time.Duration)
}

// NewDriver creates a driver with the given progress indicator. A nil
// indicator disables progress display.
func NewDriver(progress Progress) *Driver {
	if progress == nil {
		progress = nopProgress{}
	}
	return &Driver{
		progress:   progress,
		maxRetries: DefaultMaxRetries,
		sleep:      time.Sleep,
	}
}

// SetMaxRetries overrides the retry cap.
func (d *Driver) SetMaxRetries(n int) { d.maxRetries = n }

// SetSleep replaces the backoff sleep. Testing hook.
func (d *Driver) SetSleep(sleep func(time.Duration)) { d.sleep = sleep }

// Execute runs op under a spinner described by description. Retries happen
// only for the refresh sentinel and for empty results, with a backoff of
// attempt*2 seconds and at most maxRetries additional attempts.
func (d *Driver) Execute(ctx context.Context, description string, op Func) (map[string]any, error) {
	d.progress.Start(description)

	var lastErr error
	for attempt := 0; ; attempt++ {
		result, err := op(ctx)
		if err == nil && result != nil {
			d.progress.Success(description)
			return result, nil
		}

		if err != nil {
			if !api.IsRefreshRequired(err) {
				d.progress.Failure(description)
				return nil, err
			}
			lastErr = err
		}

		if attempt >= d.maxRetries {
			d.progress.Failure(description)
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, &api.Error{Kind: api.KindUnknown, Message: "operation produced no result"}
		}

		d.progress.Update(description)
		d.sleep(time.Duration(attempt+1) * 2 * time.Second)
	}
}

type nopProgress struct{}

func (nopProgress) Start(string)   {}
func (nopProgress) Update(string)  {}
func (nopProgress) Success(string) {}
func (nopProgress) Failure(string) {}
func (nopProgress) Stop()          {}
