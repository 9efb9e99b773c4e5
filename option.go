package steward

import (
	"github.com/viant/x"

	"github.com/stewardai/steward/model/types"
	"github.com/stewardai/steward/runtime/run"
	"github.com/stewardai/steward/service/approval"
	"github.com/stewardai/steward/service/dao"
	"github.com/stewardai/steward/service/executor"
	"github.com/stewardai/steward/service/preference"
)

// Option represents a service option
type Option func(*Service)

// WithConfig sets the service configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) {
		s.config = config
	}
}

// WithApprovalService overrides the default in-memory approval service.
func WithApprovalService(approvals approval.Service) Option {
	return func(s *Service) {
		s.approvals = approvals
	}
}

// WithPreferenceStore overrides the default in-memory preference store.
func WithPreferenceStore(store preference.Store) Option {
	return func(s *Service) {
		s.preferences = store
	}
}

// WithSynthesizer sets the profile synthesizer used by the default store.
// Ignored when WithPreferenceStore supplies a ready store.
func WithSynthesizer(synthesizer preference.Synthesizer) Option {
	return func(s *Service) {
		s.synthesizer = synthesizer
	}
}

// WithExtensionTypes registers additional Go types with the tool registry.
func WithExtensionTypes(types ...*x.Type) Option {
	return func(s *Service) {
		s.extensionTypes = append(s.extensionTypes, types...)
	}
}

// WithExtensionServices registers additional tool services alongside the
// built-in ones.
func WithExtensionServices(services ...types.Service) Option {
	return func(s *Service) {
		s.extensionServices = append(s.extensionServices, services...)
	}
}

// WithoutBuiltinServices suppresses registration of the built-in mail,
// calendar, triage, interact and system/exec services.
func WithoutBuiltinServices() Option {
	return func(s *Service) {
		s.skipBuiltins = true
	}
}

// WithRunDAO overrides the default in-memory run store.
func WithRunDAO(runDAO dao.Service[string, run.Run]) Option {
	return func(s *Service) {
		s.runDAO = runDAO
	}
}

// WithExecutorOptions passes options to the tool executor.
func WithExecutorOptions(options ...executor.Option) Option {
	return func(s *Service) {
		s.executorOptions = append(s.executorOptions, options...)
	}
}

// WithProposer sets the function that produces the next assistant turn.
func WithProposer(proposer Proposer) Option {
	return func(s *Service) {
		s.proposer = proposer
	}
}
