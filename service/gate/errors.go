package gate

import "errors"

var (
	// ErrPolicyNotFound is returned when a tool in the approval set has no
	// policy entry.  Fatal: a tool with no defined policy must never be
	// silently approved or rejected.
	ErrPolicyNotFound = errors.New("gate: policy not found")

	// ErrUnknownDecision is returned when a recorded decision carries a type
	// the gate does not understand.  Fatal: an unknown decision is never
	// silently defaulted.
	ErrUnknownDecision = errors.New("gate: unknown decision type")
)
