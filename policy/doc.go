// Package policy declares the per-tool approval rules consumed by the gate:
// whether a tool call must be held for an external decision, and which of the
// four decision types a reviewer may apply to it.
package policy
