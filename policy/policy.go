// Package policy provides the static, per-tool approval configuration used by
// the gate.  It is deliberately decoupled from the rest of Steward so that a
// table can be embedded in a context and picked up by any component that needs
// it - components that find no table keep the original pass-through behaviour.

package policy

import (
	"context"
	"errors"
	"strings"
)

// Decision action names advertised to the external reviewer.
const (
	ActionAccept  = "accept"
	ActionEdit    = "edit"
	ActionIgnore  = "ignore"
	ActionRespond = "respond"
)

// ErrUnknownTool is returned when a tool requiring approval has no policy
// entry.  The gate treats it as fatal - a tool with no defined policy must
// never be silently approved or rejected.
var ErrUnknownTool = errors.New("policy: unknown tool")

// ToolPolicy captures the approval rules for a single tool name.
//
//   - RequiresApproval routes every call through the gate's suspension path.
//   - The Allow* flags advertise which decision types are meaningful for the
//     tool.  The gate advertises them on the approval request but does not
//     re-validate the chosen decision against them; the external actor owns
//     that responsibility.
type ToolPolicy struct {
	RequiresApproval bool `json:"requiresApproval" yaml:"requiresApproval"`
	AllowAccept      bool `json:"allowAccept" yaml:"allowAccept"`
	AllowEdit        bool `json:"allowEdit" yaml:"allowEdit"`
	AllowIgnore      bool `json:"allowIgnore" yaml:"allowIgnore"`
	AllowRespond     bool `json:"allowRespond" yaml:"allowRespond"`
}

// AllowedActions returns the advertised decision types in a stable order.
func (p ToolPolicy) AllowedActions() []string {
	var out []string
	if p.AllowAccept {
		out = append(out, ActionAccept)
	}
	if p.AllowEdit {
		out = append(out, ActionEdit)
	}
	if p.AllowIgnore {
		out = append(out, ActionIgnore)
	}
	if p.AllowRespond {
		out = append(out, ActionRespond)
	}
	return out
}

// Table maps tool names to their policies.  Lookups are case-insensitive on
// the tool name.
type Table map[string]ToolPolicy

// Lookup returns the policy for the given tool name.
func (t Table) Lookup(toolName string) (ToolPolicy, bool) {
	if t == nil {
		return ToolPolicy{}, false
	}
	if p, ok := t[toolName]; ok {
		return p, true
	}
	normalized := strings.ToLower(toolName)
	for name, p := range t {
		if strings.ToLower(name) == normalized {
			return p, true
		}
	}
	return ToolPolicy{}, false
}

// RequiresApproval reports whether the tool must be held for a decision.  A
// tool with no entry never requires approval.
func (t Table) RequiresApproval(toolName string) bool {
	p, ok := t.Lookup(toolName)
	return ok && p.RequiresApproval
}

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithTable embeds the policy table in ctx.
func WithTable(ctx context.Context, t Table) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, t)
}

// FromContext extracts the policy table, or nil when none is embedded.
func FromContext(ctx context.Context) Table {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(Table); ok {
		return v
	}
	return nil
}
