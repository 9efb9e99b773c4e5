// Package approval implements the human-in-the-loop approval layer.  Tool
// calls that match the configured approval set are paused until an explicit
// decision payload is recorded; the gate then resumes the run according to
// the decision type.
package approval
