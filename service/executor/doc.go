// Package executor runs a single tool call to completion: it resolves the
// tool name against the registry, converts the raw argument map into the
// method's typed input and serialises the typed output back into the tool
// result text.  It never inspects tool internals and keeps no state between
// calls.
package executor
