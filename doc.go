// Package steward wires the approval gate, preference memory and rejection
// reconciler into a runnable agent service.  A Service owns the tool registry,
// the executor and the run store; its Runtime drives the propose/intercept
// loop, suspending runs on approval-required tool calls and resuming them when
// a decision arrives.
package steward
