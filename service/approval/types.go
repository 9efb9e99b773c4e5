package approval

import (
	"encoding/json"
	"time"
)

// Decision types understood by the gate.  Any other non-empty value recorded
// in a Decision is treated as a fatal configuration error by the caller.
const (
	TypeAccept  = "accept"
	TypeEdit    = "edit"
	TypeIgnore  = "ignore"
	TypeRespond = "respond"
)

// Event envelope published on the approval queue.
type Event struct {
	Topic   string            // see topic constants below
	Data    interface{}       // *Request | *Decision
	Headers map[string]string `json:"headers,omitempty"` // optional - tenant, correlation-id etc.
}

// Standard event topics.
const (
	TopicRequestCreated  = "request.created"
	TopicRequestExpired  = "request.expired"
	TopicDecisionCreated = "decision.created"
)

// Request represents a suspended tool call awaiting a decision.
type Request struct {
	ID             string                 `json:"id"`    // same as CallID, primary key
	RunID          string                 `json:"runId"` // owning run
	CallID         string                 `json:"callId"`
	Tool           string                 `json:"tool"`                 // "service.method" or bare tool name
	Args           map[string]interface{} `json:"args,omitempty"`       // proposed arguments
	AllowedActions []string               `json:"allowedActions"`       // subset of accept/edit/ignore/respond
	Description    string                 `json:"description,omitempty"` // markdown surfaced to the reviewer
	CreatedAt      time.Time              `json:"createdAt"`
	ExpiresAt      *time.Time             `json:"expiresAt,omitempty"`
	Meta           map[string]interface{} `json:"meta,omitempty"`
}

// Decision represents a recorded resolution for a request.  Type is empty
// when the submitted payload could not be interpreted; the original payload
// is preserved in Raw so that operators can inspect what was sent.
type Decision struct {
	ID        string                 `json:"id"` // same as request.ID
	Type      string                 `json:"type"`
	Args      map[string]interface{} `json:"args,omitempty"`
	Feedback  string                 `json:"feedback,omitempty"`
	Raw       json.RawMessage        `json:"raw,omitempty"`
	DecidedAt time.Time              `json:"decidedAt"`
}

// AcceptPayload builds a raw accept decision payload.
func AcceptPayload() json.RawMessage {
	return json.RawMessage(`{"type":"accept"}`)
}

// EditPayload builds a raw edit decision payload carrying replacement args.
func EditPayload(args map[string]interface{}) json.RawMessage {
	data, _ := json.Marshal(map[string]interface{}{"type": TypeEdit, "args": args})
	return data
}

// IgnorePayload builds a raw ignore decision payload.
func IgnorePayload() json.RawMessage {
	return json.RawMessage(`{"type":"ignore"}`)
}

// RespondPayload builds a raw respond decision payload carrying reviewer
// feedback.
func RespondPayload(feedback string) json.RawMessage {
	data, _ := json.Marshal(map[string]interface{}{"type": TypeRespond, "feedback": feedback})
	return data
}
