package conversation

import (
	"time"

	"github.com/stewardai/steward/internal/clock"
	"github.com/stewardai/steward/model/tool"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single record in a run's conversation history. Assistant
// messages may carry tool-call proposals; tool messages link back to the
// proposal they answer via ToolCallID.
type Message struct {
	Role      Role                   `json:"role"`
	Content   string                 `json:"content,omitempty"`
	ToolCalls []*tool.Call           `json:"toolCalls,omitempty"`
	ToolCallID string                `json:"toolCallId,omitempty"`
	ToolName  string                 `json:"toolName,omitempty"`
	Status    tool.Status            `json:"status,omitempty"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	CreatedAt time.Time              `json:"createdAt"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content, CreatedAt: clock.Now()}
}

// NewAssistantMessage creates an assistant message with optional proposals.
func NewAssistantMessage(content string, calls ...*tool.Call) *Message {
	return &Message{Role: RoleAssistant, Content: content, ToolCalls: calls, CreatedAt: clock.Now()}
}

// NewToolMessage creates a tool-result message linked to a proposal.
func NewToolMessage(callID, toolName, content string, status tool.Status) *Message {
	return &Message{
		Role:       RoleTool,
		Content:    content,
		ToolCallID: callID,
		ToolName:   toolName,
		Status:     status,
		CreatedAt:  clock.Now(),
	}
}

// IsRejectedToolResult reports whether the message records a tool call that
// was terminated as rejected without producing a real result.
func (m *Message) IsRejectedToolResult() bool {
	return m.Role == RoleTool && m.Status == tool.StatusRejected && m.ToolCallID != ""
}
