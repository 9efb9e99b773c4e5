// Package gate implements the approval gate: the state machine that
// intercepts every proposed tool call, suspends the run when the tool needs
// an external decision, interprets the recorded decision and drives the
// accept/edit/ignore/respond handlers together with their preference-memory
// side effects.
package gate
