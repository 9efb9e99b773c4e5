package exec

import "github.com/stewardai/steward/service/action/system"

// Input represents an exec request.
type Input struct {
	Host         *system.Host      `json:"host,omitempty" description:"host to execute commands on" internal:"true"`
	Workdir      string            `json:"workdir,omitempty" description:"directory where commands start"`
	Env          map[string]string `json:"env,omitempty" description:"environment variables set before commands run"`
	Commands     []string          `json:"commands" description:"commands to execute, each an independent shell invocation"`
	TimeoutMs    int               `json:"timeoutMs,omitempty" description:"max wait time before timing out a command"`
	AbortOnError *bool             `json:"abortOnError,omitempty" description:"stop after the first command with a non-zero status"`
}

// Init applies defaults.
func (i *Input) Init() {
	if i.Host == nil {
		i.Host = &system.Host{}
	}
	if i.Host.URL == "" {
		i.Host.URL = "bash://localhost/"
	}
}
