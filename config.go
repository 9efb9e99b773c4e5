package steward

import (
	"context"
	"fmt"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/stewardai/steward/policy"
	"github.com/stewardai/steward/service/preference"
)

// Config is a serialisable representation of the gate configuration.  It can
// be populated from YAML or JSON; the zero value inherits package defaults.
type Config struct {
	// ApprovalSet lists the tool names routed through the suspension path.
	ApprovalSet []string `json:"approvalSet" yaml:"approvalSet"`

	// Policies is the per-tool action policy table.
	Policies policy.Table `json:"policies" yaml:"policies"`

	// MemoryRoutes maps tool names onto the namespace segments updated on
	// Edit and Respond decisions.
	MemoryRoutes map[string][]string `json:"memoryRoutes" yaml:"memoryRoutes"`

	// TriageNamespace receives Ignore and reconciler updates.
	TriageNamespace []string `json:"triageNamespace" yaml:"triageNamespace"`

	// Defaults maps namespace keys onto default profile texts.
	Defaults map[string]string `json:"defaults" yaml:"defaults"`

	// ReconcileWatch lists the tool names the reconciler watches for
	// rejected results.
	ReconcileWatch []string `json:"reconcileWatch" yaml:"reconcileWatch"`

	// TerminalTools lists the tool names that complete a run when executed.
	TerminalTools []string `json:"terminalTools" yaml:"terminalTools"`

	// DecisionWaitMs bounds a live decision wait; zero waits forever.
	DecisionWaitMs int `json:"decisionWaitMs" yaml:"decisionWaitMs"`

	// PollIntervalMs is the decision polling cadence.
	PollIntervalMs int `json:"pollIntervalMs" yaml:"pollIntervalMs"`

	// MaxTurns caps the propose/intercept loop.
	MaxTurns int `json:"maxTurns" yaml:"maxTurns"`
}

// DefaultConfig returns the email-assistant configuration: mail and calendar
// drafts plus questions go through approval, questions advertise only
// ignore/respond, and the three email namespaces get their default profiles.
func DefaultConfig() *Config {
	return &Config{
		ApprovalSet: []string{"mail.send", "calendar.schedule", "interact.question", "system/exec.execute"},
		Policies: policy.Table{
			"mail.send": {
				RequiresApproval: true,
				AllowAccept:      true, AllowEdit: true, AllowIgnore: true, AllowRespond: true,
			},
			"calendar.schedule": {
				RequiresApproval: true,
				AllowAccept:      true, AllowEdit: true, AllowIgnore: true, AllowRespond: true,
			},
			"interact.question": {
				RequiresApproval: true,
				AllowIgnore:      true, AllowRespond: true,
			},
			"system/exec.execute": {
				RequiresApproval: true,
				AllowAccept:      true, AllowEdit: true, AllowIgnore: true, AllowRespond: true,
			},
		},
		MemoryRoutes: map[string][]string{
			"mail.send":         preference.NamespaceResponse,
			"calendar.schedule": preference.NamespaceCalendar,
			"interact.question": preference.NamespaceResponse,
		},
		TriageNamespace: preference.NamespaceTriage,
		Defaults: map[string]string{
			preference.NamespaceTriage.Key():   preference.DefaultTriagePreferences,
			preference.NamespaceResponse.Key(): preference.DefaultResponsePreferences,
			preference.NamespaceCalendar.Key(): preference.DefaultCalendarPreferences,
		},
		ReconcileWatch: []string{"mail.send", "calendar.schedule"},
		TerminalTools:  []string{"interact.done"},
		PollIntervalMs: 20,
		MaxTurns:       20,
	}
}

// Validate returns an aggregated error describing invalid settings, or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	for _, name := range c.ApprovalSet {
		if _, ok := c.Policies.Lookup(name); !ok {
			return fmt.Errorf("tool %v is in the approval set but has no policy", name)
		}
	}
	for toolName, ns := range c.MemoryRoutes {
		if len(ns) == 0 {
			return fmt.Errorf("memory route for %v has an empty namespace", toolName)
		}
	}
	if c.MaxTurns < 0 {
		return fmt.Errorf("maxTurns must be >= 0")
	}
	return nil
}

// DecisionWait returns the configured wait as a duration.
func (c *Config) DecisionWait() time.Duration {
	return time.Duration(c.DecisionWaitMs) * time.Millisecond
}

// PollInterval returns the configured polling cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// LoadConfig reads a YAML (or JSON) config from the given URL via afs.
// Fields absent from the document keep their DefaultConfig values.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}
	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %v: %w", URL, err)
	}
	return config, nil
}
