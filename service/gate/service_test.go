package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/stewardai/steward/model/conversation"
	"github.com/stewardai/steward/model/tool"
	"github.com/stewardai/steward/policy"
	"github.com/stewardai/steward/runtime/run"
	"github.com/stewardai/steward/service/approval"
	approvalmem "github.com/stewardai/steward/service/approval/memory"
	"github.com/stewardai/steward/service/messaging"
	"github.com/stewardai/steward/service/preference"
)

// recordingExecutor counts executions and remembers the args it ran with.
type recordingExecutor struct {
	mu    sync.Mutex
	calls []*tool.Call
	err   error
}

func (e *recordingExecutor) Execute(_ context.Context, call *tool.Call) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, call)
	if e.err != nil {
		return "", e.err
	}
	return "executed " + call.Name, nil
}

func (e *recordingExecutor) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.calls)
}

func (e *recordingExecutor) last() *tool.Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.calls) == 0 {
		return nil
	}
	return e.calls[len(e.calls)-1]
}

// recordingStore captures preference updates per namespace key.
type recordingStore struct {
	mu       sync.Mutex
	updates  map[string][]string
	profiles map[string]string
	err      error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{updates: map[string][]string{}, profiles: map[string]string{}}
}

func (s *recordingStore) Get(_ context.Context, ns preference.Namespace, defaultValue string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.profiles[ns.Key()]; ok {
		return v, nil
	}
	return defaultValue, nil
}

func (s *recordingStore) Update(_ context.Context, ns preference.Namespace, _, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.updates[ns.Key()] = append(s.updates[ns.Key()], feedback)
	return nil
}

func (s *recordingStore) updateCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates[key])
}

func (s *recordingStore) lastUpdate(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.updates[key]
	if len(entries) == 0 {
		return ""
	}
	return entries[len(entries)-1]
}

// suspensionCounter wraps an approval service counting gate-created requests.
type suspensionCounter struct {
	approval.Service
	mu       sync.Mutex
	requests int
}

func (c *suspensionCounter) RequestApproval(ctx context.Context, r *approval.Request) error {
	c.mu.Lock()
	c.requests++
	c.mu.Unlock()
	return c.Service.RequestApproval(ctx, r)
}

func (c *suspensionCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests
}

func (c *suspensionCounter) Queue() messaging.Queue[approval.Event] {
	return c.Service.Queue()
}

var (
	responseNS = preference.Namespace{"email_assistant", "response_preferences"}
	triageNS   = preference.Namespace{"email_assistant", "triage_preferences"}
)

type fixture struct {
	gate      *Service
	approvals *suspensionCounter
	executor  *recordingExecutor
	store     *recordingStore
	run       *run.Run
}

func newFixture(t *testing.T, table policy.Table, approvalSet ...string) *fixture {
	t.Helper()
	approvals := &suspensionCounter{Service: approvalmem.New()}
	exec := &recordingExecutor{}
	store := newRecordingStore()
	config := Config{
		ApprovalSet: approvalSet,
		Policies:    table,
		MemoryRoutes: map[string]preference.Namespace{
			"send-message": responseNS,
		},
		TriageNamespace: triageNS,
		DecisionWait:    2 * time.Second,
		PollInterval:    2 * time.Millisecond,
	}
	return &fixture{
		gate:      New(config, approvals, exec, store),
		approvals: approvals,
		executor:  exec,
		store:     store,
		run:       run.New(map[string]interface{}{"subject": "quarterly numbers"}),
	}
}

// preDecide records a decision so Intercept resolves without blocking.
func (f *fixture) preDecide(t *testing.T, call *tool.Call, payload json.RawMessage) {
	t.Helper()
	err := f.approvals.Service.RequestApproval(context.Background(), &approval.Request{
		ID: call.ID, CallID: call.ID, RunID: f.run.ID, Tool: call.Name, Args: call.Args,
	})
	assert.NoError(t, err)
	_, err = f.approvals.Service.Decide(context.Background(), call.ID, payload)
	assert.NoError(t, err)
}

func sendMessagePolicy() policy.Table {
	return policy.Table{
		"send-message": {RequiresApproval: true, AllowAccept: true, AllowEdit: true, AllowIgnore: true, AllowRespond: true},
		"ask-question": {RequiresApproval: true, AllowIgnore: true, AllowRespond: true},
	}
}

func TestIntercept_passThrough(t *testing.T) {
	f := newFixture(t, sendMessagePolicy(), "send-message", "ask-question")
	call := &tool.Call{ID: "c1", Name: "search", Args: map[string]interface{}{"query": "weather"}}

	outcome, err := f.gate.Intercept(context.Background(), f.run, call)
	assert.NoError(t, err)
	assert.True(t, outcome.Executed)
	assert.EqualValues(t, 1, f.executor.count())
	assert.EqualValues(t, 0, f.approvals.count(), "pass-through must not suspend")
}

func TestIntercept_policyNotFound(t *testing.T) {
	f := newFixture(t, sendMessagePolicy(), "wipe-disk")
	call := &tool.Call{ID: "c1", Name: "wipe-disk"}

	_, err := f.gate.Intercept(context.Background(), f.run, call)
	assert.ErrorIs(t, err, ErrPolicyNotFound)
	assert.EqualValues(t, 0, f.executor.count())
}

func TestIntercept_acceptExecutesOriginalArgs(t *testing.T) {
	f := newFixture(t, sendMessagePolicy(), "send-message")
	args := map[string]interface{}{"to": "a@x.com", "body": "draft"}
	call := &tool.Call{ID: "c1", Name: "send-message", Args: args}
	f.run.History.Append(conversation.NewAssistantMessage("", call))
	f.preDecide(t, call, approval.AcceptPayload())

	outcome, err := f.gate.Intercept(context.Background(), f.run, call)
	assert.NoError(t, err)
	assert.True(t, outcome.Executed)
	assert.EqualValues(t, 1, f.executor.count())

	// Byte-identical arguments.
	original, _ := json.Marshal(args)
	executed, _ := json.Marshal(f.executor.last().Args)
	assert.EqualValues(t, string(original), string(executed))

	// Accept has no memory effect.
	assert.EqualValues(t, 0, f.store.updateCount(responseNS.Key()))
	assert.EqualValues(t, 0, f.store.updateCount(triageNS.Key()))
}

func TestIntercept_editRoundTrip(t *testing.T) {
	f := newFixture(t, sendMessagePolicy(), "send-message")
	call := &tool.Call{ID: "c1", Name: "send-message", Args: map[string]interface{}{"to": "a@x.com"}}
	f.run.History.Append(conversation.NewAssistantMessage("", call))
	edited := map[string]interface{}{"to": "b@x.com"}
	f.preDecide(t, call, approval.EditPayload(edited))

	outcome, err := f.gate.Intercept(context.Background(), f.run, call)
	assert.NoError(t, err)
	assert.True(t, outcome.Executed)

	// Executor ran with the edited args.
	assert.EqualValues(t, "b@x.com", f.executor.last().Args["to"])
	// The rewritten proposal in history reflects the same edited args.
	proposal := f.run.History.FindProposal("c1")
	if assert.NotNil(t, proposal) {
		assert.EqualValues(t, "b@x.com", proposal.Args["to"])
	}
	// The outcome carries the edited call.
	assert.EqualValues(t, "b@x.com", outcome.Call.Args["to"])

	// Response preferences updated; triage untouched.
	assert.EqualValues(t, 1, f.store.updateCount(responseNS.Key()))
	assert.EqualValues(t, 0, f.store.updateCount(triageNS.Key()))
	assert.True(t, strings.Contains(f.store.lastUpdate(responseNS.Key()), "b@x.com"))
	assert.False(t, f.run.IsFinished())
}

func TestIntercept_ignoreQuestionTerminatesRun(t *testing.T) {
	f := newFixture(t, sendMessagePolicy(), "ask-question")
	call := &tool.Call{ID: "c1", Name: "ask-question", Args: map[string]interface{}{"question": "ok to send?"}}
	f.run.History.Append(conversation.NewAssistantMessage("", call))
	f.preDecide(t, call, approval.IgnorePayload())

	outcome, err := f.gate.Intercept(context.Background(), f.run, call)
	assert.NoError(t, err)
	assert.True(t, outcome.Terminal)
	assert.False(t, outcome.Executed)
	assert.EqualValues(t, 0, f.executor.count(), "ignore must never execute")
	assert.EqualValues(t, run.StateTerminated, f.run.State)

	// Triage namespace updated, tool route untouched.
	assert.EqualValues(t, 1, f.store.updateCount(triageNS.Key()))
	assert.EqualValues(t, 0, f.store.updateCount(responseNS.Key()))
}

func TestIntercept_respondSurfacesFeedback(t *testing.T) {
	f := newFixture(t, sendMessagePolicy(), "send-message")
	call := &tool.Call{ID: "c1", Name: "send-message", Args: map[string]interface{}{"to": "a@x.com"}}
	f.run.History.Append(conversation.NewAssistantMessage("", call))
	f.preDecide(t, call, approval.RespondPayload("shorten the draft"))

	outcome, err := f.gate.Intercept(context.Background(), f.run, call)
	assert.NoError(t, err)
	assert.False(t, outcome.Executed)
	assert.False(t, outcome.Terminal)
	assert.True(t, strings.Contains(outcome.Content, "shorten the draft"))
	assert.EqualValues(t, 0, f.executor.count(), "respond must never execute")

	// Feedback lands in the tool's routed namespace, verbatim.
	assert.EqualValues(t, 1, f.store.updateCount(responseNS.Key()))
	assert.True(t, strings.Contains(f.store.lastUpdate(responseNS.Key()), "shorten the draft"))
}

func TestIntercept_malformedPayloadFailsOpen(t *testing.T) {
	f := newFixture(t, sendMessagePolicy(), "send-message")
	args := map[string]interface{}{"to": "a@x.com"}
	call := &tool.Call{ID: "c1", Name: "send-message", Args: args}
	f.preDecide(t, call, json.RawMessage(`42`))

	outcome, err := f.gate.Intercept(context.Background(), f.run, call)
	assert.NoError(t, err, "malformed payload must never raise")
	assert.True(t, outcome.Executed)
	assert.EqualValues(t, "a@x.com", f.executor.last().Args["to"])
}

func TestIntercept_unknownDecisionIsFatal(t *testing.T) {
	f := newFixture(t, sendMessagePolicy(), "send-message")
	call := &tool.Call{ID: "c1", Name: "send-message"}
	f.preDecide(t, call, json.RawMessage(`{"type":"escalate"}`))

	_, err := f.gate.Intercept(context.Background(), f.run, call)
	assert.ErrorIs(t, err, ErrUnknownDecision)
	assert.EqualValues(t, 0, f.executor.count())
}

func TestIntercept_liveSuspension(t *testing.T) {
	f := newFixture(t, sendMessagePolicy(), "send-message")
	ctx := context.Background()
	stop := approval.AutoAccept(ctx, f.approvals.Service, 2*time.Millisecond)
	defer stop()

	call := &tool.Call{ID: "c1", Name: "send-message", Args: map[string]interface{}{"to": "a@x.com"}}
	outcome, err := f.gate.Intercept(ctx, f.run, call)
	assert.NoError(t, err)
	assert.True(t, outcome.Executed)
	assert.EqualValues(t, 1, f.approvals.count(), "exactly one suspension per call")
	assert.EqualValues(t, 1, f.executor.count(), "executor at most once per call")
}

func TestIntercept_decisionWaitTimeoutKeepsRunSuspended(t *testing.T) {
	f := newFixture(t, sendMessagePolicy(), "send-message")
	f.gate.config.DecisionWait = 30 * time.Millisecond

	call := &tool.Call{ID: "c1", Name: "send-message"}
	_, err := f.gate.Intercept(context.Background(), f.run, call)
	assert.Error(t, err)
	assert.True(t, f.run.IsSuspended())
	assert.EqualValues(t, "c1", f.run.PendingRequestID)
	assert.EqualValues(t, 0, f.executor.count())
}

func TestIntercept_memoryFailureDoesNotAbortRun(t *testing.T) {
	f := newFixture(t, sendMessagePolicy(), "send-message")
	f.store.err = fmt.Errorf("store unavailable")
	call := &tool.Call{ID: "c1", Name: "send-message", Args: map[string]interface{}{"to": "a@x.com"}}
	f.run.History.Append(conversation.NewAssistantMessage("", call))
	f.preDecide(t, call, approval.RespondPayload("feedback"))

	outcome, err := f.gate.Intercept(context.Background(), f.run, call)
	assert.NoError(t, err, "memory failures are absorbed")
	assert.NotNil(t, outcome)
}

func TestIntercept_toolFailureBecomesResultText(t *testing.T) {
	f := newFixture(t, sendMessagePolicy())
	f.executor.err = errors.New("smtp unreachable")
	call := &tool.Call{ID: "c1", Name: "search"}

	outcome, err := f.gate.Intercept(context.Background(), f.run, call)
	assert.NoError(t, err)
	assert.True(t, strings.Contains(outcome.Content, "smtp unreachable"))
}
