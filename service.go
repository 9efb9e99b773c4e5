package steward

import (
	"fmt"

	"github.com/viant/x"

	"github.com/stewardai/steward/extension"
	"github.com/stewardai/steward/model/types"
	"github.com/stewardai/steward/runtime/run"
	"github.com/stewardai/steward/service/action/calendar"
	"github.com/stewardai/steward/service/action/interact"
	"github.com/stewardai/steward/service/action/mail"
	"github.com/stewardai/steward/service/action/system/exec"
	"github.com/stewardai/steward/service/action/triage"
	"github.com/stewardai/steward/service/approval"
	approvalmem "github.com/stewardai/steward/service/approval/memory"
	"github.com/stewardai/steward/service/dao"
	"github.com/stewardai/steward/service/dao/store"
	"github.com/stewardai/steward/service/executor"
	"github.com/stewardai/steward/service/gate"
	"github.com/stewardai/steward/service/preference"
	prefmem "github.com/stewardai/steward/service/preference/memory"
	"github.com/stewardai/steward/service/reconcile"
)

// Service assembles the gate, preference memory, reconciler and tool
// executor behind a single entry point.  Use New with options, then Runtime
// to drive runs.
type Service struct {
	config            *Config
	approvals         approval.Service
	preferences       preference.Store
	synthesizer       preference.Synthesizer
	tools             *extension.Tools
	extensionTypes    []*x.Type
	extensionServices []types.Service
	skipBuiltins      bool
	executorOptions   []executor.Option
	executor          executor.Service
	gate              *gate.Service
	reconciler        *reconcile.Service
	runDAO            dao.Service[string, run.Run]
	proposer          Proposer
	runtime           *Runtime
}

// New creates a service with the supplied options; unset collaborators fall
// back to in-memory defaults.
func New(options ...Option) (*Service, error) {
	s := &Service{}
	for _, option := range options {
		option(s)
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) init() error {
	if err := s.ensureBaseSetup(); err != nil {
		return err
	}
	s.gate = gate.New(s.gateConfig(), s.approvals, s.executor, s.preferences)
	s.reconciler = reconcile.New(reconcile.Config{
		WatchSet:        s.config.ReconcileWatch,
		TriageNamespace: s.config.TriageNamespace,
		TriageDefault:   s.config.Defaults[preference.NS(s.config.TriageNamespace...).Key()],
	}, s.preferences)
	s.runtime = newRuntime(s)
	return nil
}

func (s *Service) ensureBaseSetup() error {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if s.synthesizer == nil {
		s.synthesizer = preference.AppendSynthesizer()
	}
	if s.preferences == nil {
		s.preferences = prefmem.New(s.synthesizer)
	}
	if s.approvals == nil {
		s.approvals = approvalmem.New()
	}
	if s.runDAO == nil {
		s.runDAO = store.NewMemoryStore[string, run.Run](func(r *run.Run) string {
			return r.ID
		})
	}
	if s.tools == nil {
		s.tools = extension.NewTools(s.extensionTypes...)
		if !s.skipBuiltins {
			s.tools.Register(mail.New())
			s.tools.Register(calendar.New())
			s.tools.Register(triage.New())
			s.tools.Register(interact.New())
			s.tools.Register(exec.New())
		}
		for _, service := range s.extensionServices {
			s.tools.Register(service)
		}
	}
	if s.executor == nil {
		s.executor = executor.New(s.tools, s.executorOptions...)
	}
	return nil
}

func (s *Service) gateConfig() gate.Config {
	routes := make(map[string]preference.Namespace, len(s.config.MemoryRoutes))
	for toolName, segments := range s.config.MemoryRoutes {
		routes[toolName] = preference.NS(segments...)
	}
	return gate.Config{
		ApprovalSet:     s.config.ApprovalSet,
		Policies:        s.config.Policies,
		MemoryRoutes:    routes,
		TriageNamespace: preference.NS(s.config.TriageNamespace...),
		Defaults:        s.config.Defaults,
		DecisionWait:    s.config.DecisionWait(),
		PollInterval:    s.config.PollInterval(),
	}
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// Approvals exposes the approval service for external deciders.
func (s *Service) Approvals() approval.Service {
	return s.approvals
}

// Preferences exposes the preference store.
func (s *Service) Preferences() preference.Store {
	return s.preferences
}

// Tools exposes the tool registry.
func (s *Service) Tools() *extension.Tools {
	return s.tools
}

// Gate exposes the approval gate.
func (s *Service) Gate() *gate.Service {
	return s.gate
}

// Reconciler exposes the rejection reconciler.
func (s *Service) Reconciler() *reconcile.Service {
	return s.reconciler
}

// Runs exposes the run store.
func (s *Service) Runs() dao.Service[string, run.Run] {
	return s.runDAO
}

// Runtime returns the run loop driver.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}
