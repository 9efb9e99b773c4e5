package tool

// Call represents a single tool invocation proposed by the model. A call is
// immutable once issued - the Edit decision produces a new Call rather than
// mutating the proposal in place.
type Call struct {
	ID   string                 `json:"id"`
	Name string                 `json:"name"`
	Args map[string]interface{} `json:"args,omitempty"`
}

// Clone returns a deep-enough copy of the call with replacement arguments.
// The original args map is left untouched.
func (c *Call) Clone(args map[string]interface{}) *Call {
	if args == nil {
		args = make(map[string]interface{}, len(c.Args))
		for k, v := range c.Args {
			args[k] = v
		}
	}
	return &Call{ID: c.ID, Name: c.Name, Args: args}
}

// Status of a tool result as recorded in conversation history.
type Status string

const (
	// StatusOK marks a result produced by a successful execution or by a
	// respond/ignore decision.
	StatusOK Status = "ok"
	// StatusRejected marks a result recorded when the suspension mechanism
	// resumed with an error instead of a structured decision. The reconciler
	// watches for this status.
	StatusRejected Status = "rejected"
)

// Outcome is the result of routing a Call through the approval gate (or of a
// direct pass-through execution).
type Outcome struct {
	// Call is the call as actually executed - on Edit it carries the edited
	// arguments; on Ignore/Respond it is the original, never-executed call.
	Call *Call `json:"call"`
	// Content is the tool result text appended to conversation history.
	Content string `json:"content"`
	// Status is StatusOK unless the result records a rejection.
	Status Status `json:"status"`
	// Terminal indicates the run must stop after this outcome (Ignore).
	Terminal bool `json:"terminal,omitempty"`
	// Executed reports whether the tool executor actually ran.
	Executed bool `json:"executed,omitempty"`
}
