package steward

import (
	"context"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stewardai/steward/policy"
	"github.com/stewardai/steward/service/preference"
)

func TestDefaultConfig_Validates(t *testing.T) {
	config := DefaultConfig()
	assert.Nil(t, config.Validate())
	for _, name := range config.ApprovalSet {
		_, ok := config.Policies.Lookup(name)
		assert.True(t, ok, name)
	}
	assert.NotEmpty(t, config.Defaults[preference.NamespaceTriage.Key()])
	assert.NotEmpty(t, config.Defaults[preference.NamespaceResponse.Key()])
	assert.NotEmpty(t, config.Defaults[preference.NamespaceCalendar.Key()])
}

func TestConfig_ValidateRejectsPolicylessApproval(t *testing.T) {
	config := &Config{
		ApprovalSet: []string{"wipe-disk"},
		Policies:    policy.Table{},
	}
	err := config.Validate()
	assert.NotNil(t, err)
	assert.Contains(t, err.Error(), "wipe-disk")
}

func TestConfig_ValidateRejectsEmptyRouteNamespace(t *testing.T) {
	config := &Config{
		MemoryRoutes: map[string][]string{"mail.send": {}},
	}
	assert.NotNil(t, config.Validate())
}

func TestLoadConfig(t *testing.T) {
	document := `
approvalSet:
  - mail.send
policies:
  mail.send:
    requiresApproval: true
    allowAccept: true
    allowEdit: true
maxTurns: 5
decisionWaitMs: 250
`
	location := path.Join(t.TempDir(), "steward.yaml")
	err := os.WriteFile(location, []byte(document), 0644)
	assert.Nil(t, err)

	config, err := LoadConfig(context.Background(), location)
	assert.Nil(t, err)
	assert.EqualValues(t, []string{"mail.send"}, config.ApprovalSet)
	assert.EqualValues(t, 5, config.MaxTurns)
	assert.EqualValues(t, 250, config.DecisionWaitMs)
	entry, ok := config.Policies.Lookup("mail.send")
	assert.True(t, ok)
	assert.True(t, entry.RequiresApproval)
	assert.True(t, entry.AllowEdit)
	assert.False(t, entry.AllowIgnore)
	// unset fields keep their defaults
	assert.EqualValues(t, 20, config.PollIntervalMs)
	assert.NotEmpty(t, config.TerminalTools)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(context.Background(), path.Join(t.TempDir(), "absent.yaml"))
	assert.NotNil(t, err)
}
