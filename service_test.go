package steward

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/stewardai/steward/service/preference"
)

// scriptProposer replays the supplied assistant turns in order; once
// exhausted it returns a plain closing message.
func scriptProposer(turns ...*conversation.Message) Proposer {
	var index int
	return func(ctx context.Context, _ *run.Run) (*conversation.Message, error) {
		if index >= len(turns) {
			return conversation.NewAssistantMessage("all done"), nil
		}
		message := turns[index]
		index++
		return message, nil
	}
}

// countingStore records preference updates per namespace key.
type countingStore struct {
	mu       sync.Mutex
	profiles map[string]string
	updates  map[string][]string
}

func newCountingStore() *countingStore {
	return &countingStore{profiles: make(map[string]string), updates: make(map[string][]string)}
}

func (s *countingStore) Get(_ context.Context, ns preference.Namespace, defaultValue string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value, ok := s.profiles[ns.Key()]; ok {
		return value, nil
	}
	return defaultValue, nil
}

func (s *countingStore) Update(_ context.Context, ns preference.Namespace, defaultValue, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ns.Key()
	current, ok := s.profiles[key]
	if !ok {
		current = defaultValue
	}
	s.profiles[key] = current + "\n- " + feedback
	s.updates[key] = append(s.updates[key], feedback)
	return nil
}

func (s *countingStore) count(ns preference.Namespace) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates[ns.Key()])
}

// requestCounter counts suspensions published through the approval service.
type requestCounter struct {
	approval.Service
	mu    sync.Mutex
	count int
}

func (c *requestCounter) RequestApproval(ctx context.Context, r *approval.Request) error {
	c.mu.Lock()
	c.count++
	c.mu.Unlock()
	return c.Service.RequestApproval(ctx, r)
}

func (c *requestCounter) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func newTestService(t *testing.T, config *Config, store *countingStore, proposer Proposer) (*Service, *requestCounter) {
	counter := &requestCounter{Service: approvalmem.New()}
	service, err := New(
		WithConfig(config),
		WithApprovalService(counter),
		WithPreferenceStore(store),
		WithProposer(proposer),
	)
	assert.Nil(t, err)
	return service, counter
}

func liveConfig() *Config {
	config := DefaultConfig()
	config.DecisionWaitMs = 2000
	config.PollIntervalMs = 2
	return config
}

func suspendingConfig() *Config {
	config := DefaultConfig()
	config.DecisionWaitMs = 30
	config.PollIntervalMs = 2
	return config
}

func mailCall(id, to string) *tool.Call {
	return &tool.Call{ID: id, Name: "mail.send", Args: map[string]interface{}{
		"to":      to,
		"subject": "Re: project sync",
		"body":    "Tuesday works for me.",
	}}
}

func doneCall(id string) *tool.Call {
	return &tool.Call{ID: id, Name: "interact.done", Args: map[string]interface{}{
		"summary": "Replied to the sync request.",
	}}
}

func TestRuntime_AcceptFlow(t *testing.T) {
	store := newCountingStore()
	service, counter := newTestService(t, liveConfig(), store, scriptProposer(
		conversation.NewAssistantMessage("drafted a reply", mailCall("c1", "a@example.com")),
		conversation.NewAssistantMessage("wrapping up", doneCall("c2")),
	))
	ctx := context.Background()
	stop := approval.AutoAccept(ctx, service.Approvals(), 2*time.Millisecond)
	defer stop()

	aRun, err := service.Runtime().NewRun(ctx, map[string]interface{}{"email": "from: alice"},
		conversation.NewUserMessage("please reply to alice"))
	assert.Nil(t, err)

	aRun, err = service.Runtime().Process(ctx, aRun.ID)
	assert.Nil(t, err)
	assert.True(t, aRun.IsFinished())
	assert.EqualValues(t, 1, counter.total())
	assert.EqualValues(t, 0, store.count(preference.NamespaceResponse))

	var mailResult *conversation.Message
	for _, message := range aRun.History.Messages() {
		if message.Role == conversation.RoleTool && message.ToolCallID == "c1" {
			mailResult = message
		}
	}
	if assert.NotNil(t, mailResult) {
		assert.EqualValues(t, tool.StatusOK, mailResult.Status)
	}
	pending, err := service.Approvals().ListPending(ctx)
	assert.Nil(t, err)
	assert.EqualValues(t, 0, len(pending))
}

func TestRuntime_SuspendAndResumeWithEdit(t *testing.T) {
	store := newCountingStore()
	service, counter := newTestService(t, suspendingConfig(), store, scriptProposer(
		conversation.NewAssistantMessage("drafted a reply", mailCall("c1", "a@example.com")),
		conversation.NewAssistantMessage("wrapping up", doneCall("c2")),
	))
	ctx := context.Background()

	aRun, err := service.Runtime().NewRun(ctx, nil, conversation.NewUserMessage("reply please"))
	assert.Nil(t, err)
	runID := aRun.ID

	_, err = service.Runtime().Process(ctx, runID)
	assert.True(t, errors.Is(err, ErrRunSuspended), "got %v", err)

	suspended, err := service.Runtime().Load(ctx, runID)
	assert.Nil(t, err)
	assert.True(t, suspended.IsSuspended())
	assert.EqualValues(t, "c1", suspended.PendingRequestID)

	edited := map[string]interface{}{
		"to":      "b@example.com",
		"subject": "Re: project sync",
		"body":    "Tuesday works for me.",
	}
	resumed, err := service.Runtime().Resume(ctx, runID, approval.EditPayload(edited))
	assert.Nil(t, err)
	assert.True(t, resumed.IsFinished())
	assert.EqualValues(t, 1, counter.total())

	proposal := resumed.History.FindProposal("c1")
	if assert.NotNil(t, proposal) {
		assert.EqualValues(t, "b@example.com", proposal.Args["to"])
	}
	assert.EqualValues(t, 1, store.count(preference.NamespaceResponse))
	assert.EqualValues(t, 0, store.count(preference.NamespaceTriage))
}

func TestRuntime_ResumeWithIgnoreTerminates(t *testing.T) {
	store := newCountingStore()
	question := &tool.Call{ID: "q1", Name: "interact.question", Args: map[string]interface{}{
		"question": "Should I decline the invite?",
	}}
	service, _ := newTestService(t, suspendingConfig(), store, scriptProposer(
		conversation.NewAssistantMessage("need input", question),
	))
	ctx := context.Background()

	aRun, err := service.Runtime().NewRun(ctx, nil, conversation.NewUserMessage("handle this invite"))
	assert.Nil(t, err)

	_, err = service.Runtime().Process(ctx, aRun.ID)
	assert.True(t, errors.Is(err, ErrRunSuspended), "got %v", err)

	resumed, err := service.Runtime().Resume(ctx, aRun.ID, approval.IgnorePayload())
	assert.Nil(t, err)
	assert.True(t, resumed.IsFinished())
	assert.EqualValues(t, 1, store.count(preference.NamespaceTriage))

	messages := resumed.History.Messages()
	last := messages[len(messages)-1]
	assert.EqualValues(t, conversation.RoleTool, last.Role)
	assert.Contains(t, last.Content, "ignored")
}

func TestRuntime_PassThroughWithoutApproval(t *testing.T) {
	config := liveConfig()
	config.ApprovalSet = nil
	config.Policies = policy.Table{}
	config.MemoryRoutes = nil
	store := newCountingStore()
	service, counter := newTestService(t, config, store, scriptProposer(
		conversation.NewAssistantMessage("drafted a reply", mailCall("c1", "a@example.com")),
		conversation.NewAssistantMessage("wrapping up", doneCall("c2")),
	))
	ctx := context.Background()

	aRun, err := service.Runtime().NewRun(ctx, nil, conversation.NewUserMessage("reply"))
	assert.Nil(t, err)
	aRun, err = service.Runtime().Process(ctx, aRun.ID)
	assert.Nil(t, err)
	assert.True(t, aRun.IsFinished())
	assert.EqualValues(t, 0, counter.total())
}

func TestRuntime_PlainAnswerCompletesRun(t *testing.T) {
	service, _ := newTestService(t, liveConfig(), newCountingStore(), scriptProposer(
		conversation.NewAssistantMessage("nothing to do here"),
	))
	ctx := context.Background()
	aRun, err := service.Runtime().NewRun(ctx, nil, conversation.NewUserMessage("fyi only"))
	assert.Nil(t, err)
	aRun, err = service.Runtime().Process(ctx, aRun.ID)
	assert.Nil(t, err)
	assert.True(t, aRun.IsFinished())
}

func TestRuntime_ResumeRequiresSuspension(t *testing.T) {
	service, _ := newTestService(t, liveConfig(), newCountingStore(), scriptProposer())
	ctx := context.Background()
	aRun, err := service.Runtime().NewRun(ctx, nil, conversation.NewUserMessage("hello"))
	assert.Nil(t, err)
	_, err = service.Runtime().Resume(ctx, aRun.ID, approval.AcceptPayload())
	assert.NotNil(t, err)
}

func TestRuntime_UnknownRun(t *testing.T) {
	service, _ := newTestService(t, liveConfig(), newCountingStore(), scriptProposer())
	_, err := service.Runtime().Process(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestService_DefaultsAreWired(t *testing.T) {
	service, err := New()
	assert.Nil(t, err)
	assert.NotNil(t, service.Approvals())
	assert.NotNil(t, service.Preferences())
	assert.NotNil(t, service.Gate())
	assert.NotNil(t, service.Reconciler())
	assert.NotNil(t, service.Runtime())
	for _, name := range []string{"mail", "calendar", "triage", "interact", "system/exec"} {
		assert.NotNil(t, service.Tools().Lookup(name), fmt.Sprintf("missing %v", name))
	}
}

