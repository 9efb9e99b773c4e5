// Package run models a single agent run: its conversation history, ambient
// context and lifecycle state.  A run is a serializable checkpoint - together
// with the approval decision store it forms the continuation token that lets
// a suspended run resume after a process restart.
package run

import (
	"sync"
	"time"

	"github.com/stewardai/steward/internal/clock"
	"github.com/stewardai/steward/internal/idgen"
	"github.com/stewardai/steward/model/conversation"
)

// Run state constants
const (
	StateRunning    = "running"
	StateSuspended  = "suspended"
	StateCompleted  = "completed"
	StateTerminated = "terminated"
	StateFailed     = "failed"
)

// Run represents a single agent invocation.
type Run struct {
	ID      string                `json:"id"`
	State   string                `json:"state"`
	History *conversation.History `json:"history"`

	// Context carries ambient, human-readable context for approval requests,
	// e.g. the originating email the agent is acting on.
	Context map[string]interface{} `json:"context,omitempty"`

	// PendingRequestID identifies the approval request the run is suspended
	// on; empty unless State == StateSuspended.
	PendingRequestID string `json:"pendingRequestId,omitempty"`

	Error string `json:"error,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`

	mu sync.Mutex
}

// New creates a running run with the supplied ambient context.
func New(context map[string]interface{}) *Run {
	now := clock.Now()
	return &Run{
		ID:        idgen.New(),
		State:     StateRunning,
		History:   conversation.NewHistory(),
		Context:   context,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Suspend marks the run as waiting on an approval request.
func (r *Run) Suspend(requestID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.State = StateSuspended
	r.PendingRequestID = requestID
	r.UpdatedAt = clock.Now()
}

// Resume clears the pending request and puts the run back in flight.
func (r *Run) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.State = StateRunning
	r.PendingRequestID = ""
	r.UpdatedAt = clock.Now()
}

// Terminate ends the run early (the Ignore decision path).
func (r *Run) Terminate() {
	r.finish(StateTerminated)
}

// Complete marks the run as finished normally.
func (r *Run) Complete() {
	r.finish(StateCompleted)
}

// Fail marks the run as failed with the given cause.
func (r *Run) Fail(err error) {
	r.mu.Lock()
	if err != nil {
		r.Error = err.Error()
	}
	r.mu.Unlock()
	r.finish(StateFailed)
}

// IsFinished reports whether the run reached a terminal state.
func (r *Run) IsFinished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.State {
	case StateCompleted, StateTerminated, StateFailed:
		return true
	}
	return false
}

// IsSuspended reports whether the run is waiting on a decision.
func (r *Run) IsSuspended() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.State == StateSuspended
}

func (r *Run) finish(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.State = state
	r.PendingRequestID = ""
	now := clock.Now()
	r.UpdatedAt = now
	r.FinishedAt = &now
}
