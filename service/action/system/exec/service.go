// Package exec runs shell commands on a local or remote host.  It is the
// canonical dangerous tool behind the approval gate: its policy should
// require approval in any real deployment.
package exec

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs/url"
	"github.com/viant/gosh"
	"github.com/viant/gosh/runner"
	"github.com/viant/gosh/runner/local"
	rssh "github.com/viant/gosh/runner/ssh"
	"github.com/viant/scy/cred/secret"
	"golang.org/x/crypto/ssh"

	"github.com/stewardai/steward/service/action/system"
)

// Service executes shell commands, keeping one session per host.
type Service struct {
	sessions map[string]*gosh.Service
	mux      sync.Mutex
}

// New creates an exec service.
func New() *Service {
	return &Service{sessions: make(map[string]*gosh.Service)}
}

// Execute runs the commands sequentially and aggregates their output.
func (s *Service) Execute(ctx context.Context, input *Input, output *Output) error {
	input.Init()

	session, err := s.session(ctx, input.Host, input.Env)
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	if input.Workdir != "" {
		if _, _, err = session.Run(ctx, fmt.Sprintf("cd %s", input.Workdir)); err != nil {
			return fmt.Errorf("failed to change directory: %w", err)
		}
	}

	abortOnError := true
	if input.AbortOnError != nil {
		abortOnError = *input.AbortOnError
	}
	timeout := time.Duration(input.TimeoutMs) * time.Millisecond
	if timeout == 0 {
		timeout = time.Minute
	}

	var stdout, stderr strings.Builder
	for _, cmd := range input.Commands {
		result := &Command{Input: cmd}
		result.Output, result.Stderr, result.Status = s.run(ctx, session, cmd, timeout)
		output.Commands = append(output.Commands, result)
		if result.Output != "" {
			stdout.WriteString(result.Output)
			stdout.WriteString("\n")
		}
		if result.Stderr != "" {
			stderr.WriteString(result.Stderr)
			stderr.WriteString("\n")
		}
		output.Status = result.Status
		if abortOnError && result.Status != 0 {
			break
		}
	}
	output.Stdout = strings.TrimSpace(stdout.String())
	output.Stderr = strings.TrimSpace(stderr.String())
	return nil
}

func (s *Service) run(ctx context.Context, session *gosh.Service, command string, timeout time.Duration) (string, string, int) {
	started := time.Now()
	stdout, status, err := session.Run(ctx, command, runner.WithTimeout(int(timeout.Milliseconds())))
	if elapsed := time.Since(started); elapsed > timeout && err == nil {
		err = fmt.Errorf("command %v timed out after %s", command, elapsed)
	}
	if status == 0 && err == nil {
		return stdout, "", status
	}
	if stdout == "" && err != nil {
		stdout = err.Error()
	}
	return "", stdout, status
}

func (s *Service) session(ctx context.Context, host *system.Host, env map[string]string) (*gosh.Service, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	if session, ok := s.sessions[host.URL]; ok {
		return session, nil
	}

	var envOptions []runner.Option
	if len(env) > 0 {
		envOptions = append(envOptions, runner.WithEnvironment(env))
	}

	var session *gosh.Service
	var err error
	if url.Host(host.URL) == "localhost" {
		session, err = gosh.New(ctx, local.New(envOptions...))
	} else {
		var config *ssh.ClientConfig
		if config, err = s.sshConfig(ctx, host); err != nil {
			return nil, fmt.Errorf("failed to get SSH config: %w", err)
		}
		sshHost := url.Host(host.URL)
		if !strings.Contains(sshHost, ":") {
			sshHost += ":22"
		}
		session, err = gosh.New(ctx, rssh.New(sshHost, config, envOptions...))
	}
	if err != nil {
		return nil, err
	}
	s.sessions[host.URL] = session
	return session, nil
}

func (s *Service) sshConfig(ctx context.Context, host *system.Host) (*ssh.ClientConfig, error) {
	credentials := host.Credentials
	if credentials == "" {
		credentials = "localhost"
	}
	generic, err := secret.New().GetCredentials(ctx, credentials)
	if err != nil {
		return nil, err
	}
	return generic.SSH.Config(ctx)
}

// Close releases all sessions held by this service.
func (s *Service) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()
	var errs []string
	for id, session := range s.sessions {
		if err := session.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("session %s: %v", id, err))
		}
	}
	s.sessions = make(map[string]*gosh.Service)
	if len(errs) > 0 {
		return fmt.Errorf("errors closing sessions: %s", strings.Join(errs, "; "))
	}
	return nil
}
