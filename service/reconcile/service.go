// Package reconcile is the safety net behind the approval gate: it scans a
// run's conversation history for tool results that were terminated as
// rejected without going through the gate's own decision path (for instance
// when the suspension mechanism resumed with an error instead of a structured
// decision) and performs the equivalent triage-preference update.
package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/stewardai/steward/model/conversation"
	"github.com/stewardai/steward/runtime/run"
	"github.com/stewardai/steward/service/preference"
)

// Config carries the static reconciler configuration.
type Config struct {
	// WatchSet lists the tool names whose rejections trigger a triage
	// update.
	WatchSet []string

	// TriageNamespace receives the updates.
	TriageNamespace preference.Namespace

	// TriageDefault is the default profile supplied on first update.
	TriageDefault string
}

// Service detects rejected tool calls post-hoc and updates triage memory.
type Service struct {
	config   Config
	watchSet map[string]bool
	store    preference.Store

	mu        sync.Mutex
	processed map[string]map[string]bool // run ID -> processed call IDs
}

// New creates a reconciler.
func New(config Config, store preference.Store) *Service {
	watch := make(map[string]bool, len(config.WatchSet))
	for _, name := range config.WatchSet {
		watch[strings.ToLower(name)] = true
	}
	return &Service{
		config:    config,
		watchSet:  watch,
		store:     store,
		processed: make(map[string]map[string]bool),
	}
}

// BeforeTurn is the primary hook: it runs once per "before next model turn"
// checkpoint.
func (s *Service) BeforeTurn(ctx context.Context, r *run.Run) {
	s.scan(ctx, r)
}

// AfterExecution is the fallback hook covering the other ordering in which a
// rejection might surface.
func (s *Service) AfterExecution(ctx context.Context, r *run.Run) {
	s.scan(ctx, r)
}

// scan walks the history newest-first for rejected results on watched tools.
// Each distinct rejected call ID triggers at most one memory update; re-scans
// of a growing history are no-ops for already-processed IDs.
func (s *Service) scan(ctx context.Context, r *run.Run) {
	if r == nil || s.store == nil {
		return
	}
	messages := r.History.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if !msg.IsRejectedToolResult() {
			continue
		}
		if !s.watchSet[strings.ToLower(msg.ToolName)] {
			continue
		}
		if !s.markProcessed(r.ID, msg.ToolCallID) {
			continue
		}
		s.updateTriage(ctx, r, msg, messages)
	}
}

// markProcessed records the call ID and reports whether it was unseen.
func (s *Service) markProcessed(runID, callID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := s.processed[runID]
	if seen == nil {
		seen = make(map[string]bool)
		s.processed[runID] = seen
	}
	if seen[callID] {
		return false
	}
	seen[callID] = true
	return true
}

func (s *Service) updateTriage(ctx context.Context, r *run.Run, rejected *conversation.Message, messages []*conversation.Message) {
	var args map[string]interface{}
	if proposal := r.History.FindProposal(rejected.ToolCallID); proposal != nil {
		args = proposal.Args
	}
	rendered, _ := json.MarshalIndent(args, "", "  ")

	feedback := fmt.Sprintf(
		"The user rejected the proposed %v call, meaning this kind of request should not have reached approval. Update the triage preferences so similar requests are filtered earlier.\n\nRejected tool call: %v\nArguments: %s",
		rejected.ToolName, rejected.ToolName, rendered)
	if rejected.Content != "" {
		feedback += fmt.Sprintf("\n\nUser's rejection reason: %v", rejected.Content)
	}
	feedback = transcript(messages) + feedback

	if err := s.store.Update(ctx, s.config.TriageNamespace, s.config.TriageDefault, feedback); err != nil {
		log.Printf("reconcile: triage update for run %v call %v failed: %v", r.ID, rejected.ToolCallID, err)
	}
}

func transcript(messages []*conversation.Message) string {
	var builder strings.Builder
	for _, msg := range messages {
		if msg == nil || msg.Content == "" {
			continue
		}
		builder.WriteString(fmt.Sprintf("%v: %v\n", msg.Role, msg.Content))
	}
	if builder.Len() == 0 {
		return ""
	}
	return "Recent conversation:\n" + builder.String() + "\n"
}
