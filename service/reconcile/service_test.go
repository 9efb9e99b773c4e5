package reconcile

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stewardai/steward/model/conversation"
	"github.com/stewardai/steward/model/tool"
	"github.com/stewardai/steward/runtime/run"
	"github.com/stewardai/steward/service/preference"
)

type countingStore struct {
	mu      sync.Mutex
	updates []string
}

func (s *countingStore) Get(_ context.Context, _ preference.Namespace, defaultValue string) (string, error) {
	return defaultValue, nil
}

func (s *countingStore) Update(_ context.Context, _ preference.Namespace, _, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, feedback)
	return nil
}

func (s *countingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

var triageNS = preference.Namespace{"email_assistant", "triage_preferences"}

func newReconciler(store preference.Store) *Service {
	return New(Config{
		WatchSet:        []string{"send-message", "schedule-meeting"},
		TriageNamespace: triageNS,
	}, store)
}

func rejectedRun(callID, toolName string, args map[string]interface{}) *run.Run {
	r := run.New(nil)
	call := &tool.Call{ID: callID, Name: toolName, Args: args}
	r.History.Append(
		conversation.NewUserMessage("please handle this email"),
		conversation.NewAssistantMessage("", call),
		conversation.NewToolMessage(callID, toolName, "not interested", tool.StatusRejected),
	)
	return r
}

func TestService_detectsRejection(t *testing.T) {
	store := &countingStore{}
	svc := newReconciler(store)
	r := rejectedRun("c1", "send-message", map[string]interface{}{"to": "a@x.com"})

	svc.BeforeTurn(context.Background(), r)
	assert.EqualValues(t, 1, store.count())

	// The feedback carries the original args and the rejection reason.
	feedback := store.updates[0]
	assert.True(t, strings.Contains(feedback, "send-message"))
	assert.True(t, strings.Contains(feedback, "a@x.com"))
	assert.True(t, strings.Contains(feedback, "not interested"))
}

func TestService_idempotentAcrossRescans(t *testing.T) {
	store := &countingStore{}
	svc := newReconciler(store)
	r := rejectedRun("c1", "send-message", nil)

	ctx := context.Background()
	svc.BeforeTurn(ctx, r)
	svc.AfterExecution(ctx, r)
	svc.BeforeTurn(ctx, r)
	assert.EqualValues(t, 1, store.count(), "each rejected call ID updates memory at most once")

	// A new rejection in the same growing history is still picked up.
	r.History.Append(
		conversation.NewAssistantMessage("", &tool.Call{ID: "c2", Name: "schedule-meeting"}),
		conversation.NewToolMessage("c2", "schedule-meeting", "", tool.StatusRejected),
	)
	svc.BeforeTurn(ctx, r)
	assert.EqualValues(t, 2, store.count())
}

func TestService_ignoresUnwatchedAndSuccessful(t *testing.T) {
	store := &countingStore{}
	svc := newReconciler(store)
	ctx := context.Background()

	// Unwatched tool.
	svc.BeforeTurn(ctx, rejectedRun("c1", "search", nil))
	assert.EqualValues(t, 0, store.count())

	// Successful result on a watched tool.
	r := run.New(nil)
	r.History.Append(
		conversation.NewAssistantMessage("", &tool.Call{ID: "c2", Name: "send-message"}),
		conversation.NewToolMessage("c2", "send-message", "sent", tool.StatusOK),
	)
	svc.BeforeTurn(ctx, r)
	assert.EqualValues(t, 0, store.count())
}

func TestService_processedSetIsRunScoped(t *testing.T) {
	store := &countingStore{}
	svc := newReconciler(store)
	ctx := context.Background()

	svc.BeforeTurn(ctx, rejectedRun("c1", "send-message", nil))
	// Same call ID in a different run is a distinct identifier.
	svc.BeforeTurn(ctx, rejectedRun("c1", "send-message", nil))
	assert.EqualValues(t, 2, store.count())
}
