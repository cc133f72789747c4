package observability

import (
	"context"
	"errors"
	"time"

	lkerrors "github.com/matzehuels/layerkit/pkg/errors"
)

// Monitor tracks one layout run. Cancellation is cooperative: callers poll
// [Monitor.IsCanceled] between phases, never inside an algorithm's loops.
type Monitor struct {
	ctx   context.Context
	hooks PhaseHooks
}

// NewMonitor returns a monitor bound to ctx that reports to the registered
// phase hooks.
func NewMonitor(ctx context.Context) *Monitor {
	return &Monitor{ctx: ctx, hooks: Phases()}
}

// IsCanceled reports whether the run's context is done.
func (m *Monitor) IsCanceled() bool {
	return m.ctx.Err() != nil
}

// Err returns nil while the run may continue. Afterwards it returns a
// TIMEOUT error for an expired deadline and a CANCELED error otherwise.
func (m *Monitor) Err() error {
	err := m.ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return lkerrors.Wrap(lkerrors.ErrCodeTimeout, err, "layout timed out")
	default:
		return lkerrors.Wrap(lkerrors.ErrCodeCanceled, err, "layout canceled")
	}
}

// Phase reports the start of a phase and returns the function that reports
// its completion.
func (m *Monitor) Phase(name string, nodeCount int) func(err error) {
	start := time.Now()
	m.hooks.OnPhaseStart(m.ctx, name, nodeCount)
	return func(err error) {
		m.hooks.OnPhaseComplete(m.ctx, name, time.Since(start), err)
	}
}
