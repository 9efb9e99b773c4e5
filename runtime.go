package steward

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/stewardai/steward/model/conversation"
	"github.com/stewardai/steward/model/tool"
	"github.com/stewardai/steward/runtime/run"
	"github.com/stewardai/steward/service/dao"
)

// Proposer produces the next assistant turn for a run.  It typically wraps a
// model call; the returned message may carry tool calls for the gate to
// route.
type Proposer func(ctx context.Context, r *run.Run) (*conversation.Message, error)

var (
	// ErrRunSuspended signals that a run is parked on an approval request;
	// resume it with Runtime.Resume once a decision exists.
	ErrRunSuspended = errors.New("run suspended")

	// ErrRunNotFound signals an unknown run ID.
	ErrRunNotFound = errors.New("run not found")

	// ErrNoProposer signals that Process needs a turn but no proposer is
	// configured.
	ErrNoProposer = errors.New("no proposer configured")
)

// Runtime drives the propose/intercept loop over checkpointed runs.
type Runtime struct {
	service  *Service
	terminal map[string]bool
}

func newRuntime(s *Service) *Runtime {
	terminal := make(map[string]bool, len(s.config.TerminalTools))
	for _, name := range s.config.TerminalTools {
		terminal[strings.ToLower(name)] = true
	}
	return &Runtime{service: s, terminal: terminal}
}

// NewRun creates and persists a run seeded with the supplied ambient context
// and initial messages.
func (rt *Runtime) NewRun(ctx context.Context, runContext map[string]interface{}, messages ...*conversation.Message) (*run.Run, error) {
	aRun := run.New(runContext)
	aRun.History.Append(messages...)
	if err := rt.service.runDAO.Save(ctx, aRun); err != nil {
		return nil, fmt.Errorf("failed to save run %v: %w", aRun.ID, err)
	}
	return aRun, nil
}

// Load returns a previously persisted run.
func (rt *Runtime) Load(ctx context.Context, runID string) (*run.Run, error) {
	aRun, err := rt.service.runDAO.Load(ctx, runID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fmt.Errorf("run %v: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}
	if aRun == nil {
		return nil, fmt.Errorf("run %v: %w", runID, ErrRunNotFound)
	}
	return aRun, nil
}

// Process advances the run until it finishes, suspends or exhausts the turn
// budget.  A suspended run is checkpointed and reported via ErrRunSuspended;
// every other error marks the run failed.
func (rt *Runtime) Process(ctx context.Context, runID string) (*run.Run, error) {
	aRun, err := rt.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	if aRun.IsFinished() {
		return aRun, nil
	}
	maxTurns := rt.service.config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 1
	}
	for turn := 0; turn < maxTurns; turn++ {
		rt.service.reconciler.BeforeTurn(ctx, aRun)
		calls := pendingCalls(aRun.History)
		if len(calls) == 0 {
			var message *conversation.Message
			if message, err = rt.propose(ctx, aRun); err != nil {
				return rt.fail(ctx, aRun, err)
			}
			aRun.History.Append(message)
			if len(message.ToolCalls) == 0 {
				aRun.Complete()
				break
			}
			calls = message.ToolCalls
		}
		var done bool
		if done, err = rt.dispatch(ctx, aRun, calls); err != nil {
			return aRun, err
		}
		rt.service.reconciler.AfterExecution(ctx, aRun)
		if err = rt.service.runDAO.Save(ctx, aRun); err != nil {
			return aRun, fmt.Errorf("failed to checkpoint run %v: %w", aRun.ID, err)
		}
		if done || aRun.IsFinished() {
			break
		}
	}
	if err = rt.service.runDAO.Save(ctx, aRun); err != nil {
		return aRun, fmt.Errorf("failed to checkpoint run %v: %w", aRun.ID, err)
	}
	if !aRun.IsFinished() && !aRun.IsSuspended() {
		return aRun, fmt.Errorf("run %v exceeded %v turns", aRun.ID, maxTurns)
	}
	return aRun, nil
}

// Resume records a decision payload for the approval request the run is
// parked on and continues processing.
func (rt *Runtime) Resume(ctx context.Context, runID string, payload json.RawMessage) (*run.Run, error) {
	aRun, err := rt.Load(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !aRun.IsSuspended() || aRun.PendingRequestID == "" {
		return aRun, fmt.Errorf("run %v is not awaiting a decision", runID)
	}
	if _, err = rt.service.approvals.Decide(ctx, aRun.PendingRequestID, payload); err != nil {
		return aRun, fmt.Errorf("failed to record decision for run %v: %w", runID, err)
	}
	return rt.Process(ctx, runID)
}

// dispatch routes pending calls through the gate; it reports done=true when
// the run must stop after this batch.
func (rt *Runtime) dispatch(ctx context.Context, aRun *run.Run, calls []*tool.Call) (bool, error) {
	for _, call := range calls {
		outcome, err := rt.service.gate.Intercept(ctx, aRun, call)
		if err != nil {
			if aRun.IsSuspended() {
				log.Printf("[steward] run %v suspended on %v: %v", aRun.ID, call.Name, err)
				if saveErr := rt.service.runDAO.Save(ctx, aRun); saveErr != nil {
					return true, fmt.Errorf("failed to checkpoint suspended run %v: %w", aRun.ID, saveErr)
				}
				return true, fmt.Errorf("run %v awaiting approval %v: %w", aRun.ID, aRun.PendingRequestID, ErrRunSuspended)
			}
			rt.failRun(ctx, aRun, err)
			return true, err
		}
		aRun.History.Append(conversation.NewToolMessage(outcome.Call.ID, outcome.Call.Name, outcome.Content, outcome.Status))
		if outcome.Terminal {
			return true, nil
		}
		if outcome.Executed && rt.terminal[strings.ToLower(call.Name)] {
			aRun.Complete()
			return true, nil
		}
	}
	return false, nil
}

func (rt *Runtime) propose(ctx context.Context, aRun *run.Run) (*conversation.Message, error) {
	if rt.service.proposer == nil {
		return nil, ErrNoProposer
	}
	message, err := rt.service.proposer(ctx, aRun)
	if err != nil {
		return nil, fmt.Errorf("proposer failed for run %v: %w", aRun.ID, err)
	}
	if message == nil {
		return nil, fmt.Errorf("proposer returned no message for run %v", aRun.ID)
	}
	return message, nil
}

func (rt *Runtime) fail(ctx context.Context, aRun *run.Run, err error) (*run.Run, error) {
	rt.failRun(ctx, aRun, err)
	return aRun, err
}

func (rt *Runtime) failRun(ctx context.Context, aRun *run.Run, err error) {
	aRun.Fail(err)
	if saveErr := rt.service.runDAO.Save(ctx, aRun); saveErr != nil {
		log.Printf("[steward] failed to checkpoint failed run %v: %v", aRun.ID, saveErr)
	}
}

// pendingCalls returns the tool calls of the latest assistant turn that still
// lack a recorded result.  Replaying them makes resumption idempotent: calls
// answered before a suspension are skipped, the suspended one is retried and
// satisfied from the resolution store.
func pendingCalls(history *conversation.History) []*tool.Call {
	messages := history.Messages()
	answered := make(map[string]bool)
	for _, message := range messages {
		if message.Role == conversation.RoleTool && message.ToolCallID != "" {
			answered[message.ToolCallID] = true
		}
	}
	for i := len(messages) - 1; i >= 0; i-- {
		message := messages[i]
		if message.Role != conversation.RoleAssistant || len(message.ToolCalls) == 0 {
			continue
		}
		var pending []*tool.Call
		for _, call := range message.ToolCalls {
			if !answered[call.ID] {
				pending = append(pending, call)
			}
		}
		return pending
	}
	return nil
}
