package conversation

import (
	"encoding/json"
	"sync"

	"github.com/stewardai/steward/model/tool"
)

// History is the append-only conversation record of a single run. It is owned
// by that run; the approval gate only reads a suffix and rewrites proposals in
// place on Edit decisions, and the reconciler appends nothing - it merely
// scans.
type History struct {
	mu       sync.RWMutex
	messages []*Message
}

// NewHistory creates an empty history, optionally pre-seeded with messages.
func NewHistory(messages ...*Message) *History {
	return &History{messages: messages}
}

// Append adds messages at the end of the history.
func (h *History) Append(messages ...*Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, messages...)
}

// Messages returns a snapshot copy of all messages, oldest first.
func (h *History) Messages() []*Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Suffix returns a snapshot of the most recent n messages (all of them when
// n <= 0 or n exceeds the history length).
func (h *History) Suffix(n int) []*Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if n <= 0 || n > len(h.messages) {
		n = len(h.messages)
	}
	out := make([]*Message, n)
	copy(out, h.messages[len(h.messages)-n:])
	return out
}

// FindProposal scans backward for the assistant proposal matching callID and
// returns the proposed call, or nil when no proposal exists.
func (h *History) FindProposal(callID string) *tool.Call {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for i := len(h.messages) - 1; i >= 0; i-- {
		msg := h.messages[i]
		if msg.Role != RoleAssistant {
			continue
		}
		for _, call := range msg.ToolCalls {
			if call.ID == callID {
				return call
			}
		}
	}
	return nil
}

// RewriteProposal replaces the arguments of the most recent proposal with the
// given call ID so that downstream history reflects what actually ran. It
// reports whether a proposal was found.
func (h *History) RewriteProposal(callID string, args map[string]interface{}) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.messages) - 1; i >= 0; i-- {
		msg := h.messages[i]
		if msg.Role != RoleAssistant {
			continue
		}
		for j, call := range msg.ToolCalls {
			if call.ID == callID {
				msg.ToolCalls[j] = call.Clone(args)
				return true
			}
		}
	}
	return false
}

// MarshalJSON serialises the history as a plain message array so run
// checkpoints survive process restarts.
func (h *History) MarshalJSON() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return json.Marshal(h.messages)
}

// UnmarshalJSON restores the history from a message array.
func (h *History) UnmarshalJSON(data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return json.Unmarshal(data, &h.messages)
}
