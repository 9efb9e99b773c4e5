// Package progress provides a lightweight tracker that keeps aggregated
// gate counters (proposals, executions, suspensions, ...) for a single agent
// run.  The tracker lives in the run's context - every component receiving
// the context can atomically update the counters via the Delta helper without
// a global registry.
package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the runtime or
// the gate.  Fields are signed and can increment or decrement.
type Delta struct {
	Proposed  int
	Executed  int
	Suspended int
	Edited    int
	Ignored   int
	Responded int
	Rejected  int
}

// Progress keeps aggregated counters for one run.  Safe for concurrent use.
type Progress struct {
	RunID     string
	StartedAt time.Time

	ProposedCalls  int
	ExecutedCalls  int
	Suspensions    int
	EditedCalls    int
	IgnoredCalls   int
	RespondedCalls int
	RejectedCalls  int

	sync.Mutex
	onChange func(Progress)
}

// Update applies the supplied delta.  A registered onChange callback is
// invoked with a copy of the updated tracker outside the critical section so
// slow consumers never block the gate.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}
	p.Lock()
	p.ProposedCalls += d.Proposed
	p.ExecutedCalls += d.Executed
	p.Suspensions += d.Suspended
	p.EditedCalls += d.Edited
	p.IgnoredCalls += d.Ignored
	p.RespondedCalls += d.Responded
	p.RejectedCalls += d.Rejected
	snapshot := *p
	cb := p.onChange
	p.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy suitable for read-only inspection.
func (p *Progress) Snapshot() Progress {
	if p == nil {
		return Progress{}
	}
	p.Lock()
	defer p.Unlock()
	return *p
}

// OnChange registers a callback invoked after every Update.  Passing nil
// disables it; only one callback can be active.
func (p *Progress) OnChange(cb func(Progress)) {
	if p == nil {
		return
	}
	p.Lock()
	p.onChange = cb
	p.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a tracker for the run, embeds it in a derived
// context and returns both.
func WithNewTracker(ctx context.Context, runID string, onChange func(Progress)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := &Progress{
		RunID:     runID,
		StartedAt: time.Now(),
		onChange:  onChange,
	}
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the tracker from ctx; ok is false when absent.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}
