package gate

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/stewardai/steward/model/tool"
	"github.com/stewardai/steward/policy"
	"github.com/stewardai/steward/progress"
	"github.com/stewardai/steward/runtime/run"
	"github.com/stewardai/steward/service/approval"
	"github.com/stewardai/steward/service/executor"
	"github.com/stewardai/steward/service/preference"
	"github.com/stewardai/steward/tracing"
)

// historySuffix is how many trailing messages accompany a memory update.
const historySuffix = 12

// Config carries the static gate configuration.
type Config struct {
	// ApprovalSet lists the tool names routed through the suspension path.
	// A tool in the set with no policy entry is a fatal misconfiguration.
	ApprovalSet []string

	// Policies is the per-tool action policy table.
	Policies policy.Table

	// MemoryRoutes maps tool names onto the preference namespace updated on
	// Edit and Respond decisions.
	MemoryRoutes map[string]preference.Namespace

	// TriageNamespace receives updates on Ignore decisions and reconciler
	// detections.
	TriageNamespace preference.Namespace

	// Defaults maps namespace keys onto the default profile text supplied on
	// first read.
	Defaults map[string]string

	// DecisionWait bounds a live wait for a decision; zero waits forever.
	DecisionWait time.Duration

	// PollInterval is the resolution polling cadence during a live wait.
	PollInterval time.Duration
}

// Service is the approval gate.
type Service struct {
	config      Config
	approvalSet map[string]bool
	approvals   approval.Service
	executor    executor.Service
	preferences preference.Store
}

// New creates an approval gate.
func New(config Config, approvals approval.Service, exec executor.Service, preferences preference.Store) *Service {
	set := make(map[string]bool, len(config.ApprovalSet))
	for _, name := range config.ApprovalSet {
		set[strings.ToLower(name)] = true
	}
	return &Service{
		config:      config,
		approvalSet: set,
		approvals:   approvals,
		executor:    exec,
		preferences: preferences,
	}
}

// Intercept routes a proposed tool call through the gate.  Tools outside the
// approval set execute directly.  Tools inside it suspend the run until a
// decision is recorded, then dispatch on the decision type.  An in-context
// policy table (policy.WithTable) overrides the configured one.
func (s *Service) Intercept(ctx context.Context, r *run.Run, call *tool.Call) (*tool.Outcome, error) {
	ctx, span := tracing.StartSpan(ctx, "gate.intercept", "INTERNAL")
	outcome, err := s.intercept(ctx, r, call, span)
	tracing.EndSpan(span, err)
	return outcome, err
}

func (s *Service) intercept(ctx context.Context, r *run.Run, call *tool.Call, span *tracing.Span) (*tool.Outcome, error) {
	span.WithAttributes(map[string]string{"tool": call.Name, "call": call.ID, "run": r.ID})
	s.track(ctx, progress.Delta{Proposed: 1})

	table := s.policies(ctx)
	pol, found := table.Lookup(call.Name)
	if !s.approvalSet[strings.ToLower(call.Name)] {
		if !found || !pol.RequiresApproval {
			return s.execute(ctx, call)
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %v", ErrPolicyNotFound, call.Name)
	}
	if !pol.RequiresApproval {
		return s.execute(ctx, call)
	}

	decision, err := s.resolve(ctx, r, call, pol)
	if err != nil {
		return nil, err
	}
	r.Resume()

	switch decision.Type {
	case "":
		// Malformed payload: fail-open to direct execution with the
		// original arguments rather than deadlocking the run.
		log.Printf("gate: unusable decision payload for call %v, executing original args", call.ID)
		span.AddEvent("fail-open")
		return s.execute(ctx, call)

	case approval.TypeAccept:
		return s.execute(ctx, call)

	case approval.TypeEdit:
		s.track(ctx, progress.Delta{Edited: 1})
		return s.handleEdit(ctx, r, call, decision, span)

	case approval.TypeIgnore:
		s.track(ctx, progress.Delta{Ignored: 1})
		return s.handleIgnore(ctx, r, call, span), nil

	case approval.TypeRespond:
		s.track(ctx, progress.Delta{Responded: 1})
		return s.handleRespond(ctx, r, call, decision, span), nil
	}
	return nil, fmt.Errorf("%w: %q for call %v", ErrUnknownDecision, decision.Type, call.ID)
}

// resolve returns the decision for the call, consulting the decision store
// first so that replaying a suspended run with the decision now available is
// deterministic and does not re-block.
func (s *Service) resolve(ctx context.Context, r *run.Run, call *tool.Call, pol policy.ToolPolicy) (*approval.Decision, error) {
	decision, err := s.approvals.Resolution(ctx, call.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check resolution for call %v: %w", call.ID, err)
	}
	if decision != nil {
		return decision, nil
	}

	request := &approval.Request{
		ID:             call.ID,
		RunID:          r.ID,
		CallID:         call.ID,
		Tool:           call.Name,
		Args:           call.Args,
		AllowedActions: pol.AllowedActions(),
		Description:    formatApprovalCard(r.Context, call, pol.AllowedActions()),
	}
	if err = s.approvals.RequestApproval(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to request approval for call %v: %w", call.ID, err)
	}
	r.Suspend(request.ID)
	s.track(ctx, progress.Delta{Suspended: 1})

	decision, err = approval.WaitForResolution(ctx, s.approvals, request.ID,
		s.config.PollInterval, s.config.DecisionWait)
	if err != nil {
		// The run stays suspended; the caller persists the checkpoint and
		// the run resumes once the decision arrives.
		return nil, fmt.Errorf("suspended on approval request %v: %w", request.ID, err)
	}
	return decision, nil
}

func (s *Service) execute(ctx context.Context, call *tool.Call) (*tool.Outcome, error) {
	s.track(ctx, progress.Delta{Executed: 1})
	content, err := s.executor.Execute(ctx, call)
	if err != nil {
		// Tool failures surface as result text so the agent can react;
		// they do not abort the run.
		log.Printf("gate: tool %v failed: %v", call.Name, err)
		content = fmt.Sprintf("tool %v failed: %v", call.Name, err)
	}
	return &tool.Outcome{Call: call, Content: content, Status: tool.StatusOK, Executed: true}, nil
}

func (s *Service) handleEdit(ctx context.Context, r *run.Run, call *tool.Call, decision *approval.Decision, span *tracing.Span) (*tool.Outcome, error) {
	edited := call.Clone(decision.Args)
	if !r.History.RewriteProposal(call.ID, edited.Args) {
		log.Printf("gate: no proposal found to rewrite for call %v", call.ID)
	}
	outcome, err := s.execute(ctx, edited)
	if err != nil {
		return nil, err
	}

	diff := renderArgsDiff(call.Name, call.Args, edited.Args)
	feedback := fmt.Sprintf(
		"User edited the proposed %v call. Treat the changes as corrections to apply next time.\n%s",
		call.Name, diff)
	s.updateMemory(ctx, r, s.routeFor(call.Name), feedback, span)
	return outcome, nil
}

func (s *Service) handleIgnore(ctx context.Context, r *run.Run, call *tool.Call, span *tracing.Span) *tool.Outcome {
	r.Terminate()
	feedback := fmt.Sprintf(
		"The user ignored the proposed %v call. This category of request should not have reached approval; update the triage preferences so similar requests are filtered earlier.",
		call.Name)
	s.updateMemory(ctx, r, s.config.TriageNamespace, feedback, span)
	return &tool.Outcome{
		Call:     call,
		Content:  fmt.Sprintf("User ignored this %v draft. The run was terminated without executing the tool.", call.Name),
		Status:   tool.StatusOK,
		Terminal: true,
	}
}

func (s *Service) handleRespond(ctx context.Context, r *run.Run, call *tool.Call, decision *approval.Decision, span *tracing.Span) *tool.Outcome {
	feedback := fmt.Sprintf("User gave feedback on the proposed %v call: %v", call.Name, decision.Feedback)
	s.updateMemory(ctx, r, s.routeFor(call.Name), feedback, span)
	return &tool.Outcome{
		Call:    call,
		Content: fmt.Sprintf("User feedback: %v", decision.Feedback),
		Status:  tool.StatusOK,
	}
}

// updateMemory routes feedback plus the recent conversation suffix through
// the preference store.  Best-effort: failures are logged and recorded on the
// span but never abort the run.
func (s *Service) updateMemory(ctx context.Context, r *run.Run, ns preference.Namespace, feedback string, span *tracing.Span) {
	if s.preferences == nil || len(ns) == 0 {
		return
	}
	transcript := renderTranscript(r.History.Suffix(historySuffix))
	if transcript != "" {
		feedback = "Recent conversation:\n" + transcript + "\n" + feedback
	}
	if err := s.preferences.Update(ctx, ns, s.config.Defaults[ns.Key()], feedback); err != nil {
		log.Printf("gate: preference update for %v failed: %v", ns, err)
		span.WithAttributes(map[string]string{"memory.error": err.Error()})
	}
}

// routeFor returns the namespace a tool's edit/respond feedback lands in.
func (s *Service) routeFor(toolName string) preference.Namespace {
	if ns, ok := s.config.MemoryRoutes[toolName]; ok {
		return ns
	}
	normalized := strings.ToLower(toolName)
	for name, ns := range s.config.MemoryRoutes {
		if strings.ToLower(name) == normalized {
			return ns
		}
	}
	return nil
}

func (s *Service) track(ctx context.Context, delta progress.Delta) {
	if tracker, ok := progress.FromContext(ctx); ok {
		tracker.Update(delta)
	}
}

func (s *Service) policies(ctx context.Context) policy.Table {
	if table := policy.FromContext(ctx); table != nil {
		return table
	}
	return s.config.Policies
}
