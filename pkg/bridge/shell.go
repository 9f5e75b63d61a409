package bridge

import (
	"context"
	"strings"
	"time"

	"agentenv/pkg/backend"
	"agentenv/pkg/logx"
)

// DefaultShellExecutable is used when no executable is given.
const DefaultShellExecutable = "/bin/bash"

// readPollInterval is how often ReadOutput checks for buffered output.
const readPollInterval = 20 * time.Millisecond

// RemoteShell is a local handle on a persistent shell session running on a
// computer. Lifecycle methods report success as a bool and log the underlying
// failure; session state lives remotely and is re-queried, never cached.
type RemoteShell struct {
	computer   backend.Computer
	executable string
	pid        int
	running    bool

	logger *logx.Logger
}

// NewShell returns an unstarted shell handle for the computer. An empty
// executable selects DefaultShellExecutable.
func NewShell(computer backend.Computer, executable string) *RemoteShell {
	if executable == "" {
		executable = DefaultShellExecutable
	}
	return &RemoteShell{
		computer:   computer,
		executable: executable,
		logger:     logx.NewLogger("bridge"),
	}
}

// Executable returns the shell binary this handle launches.
func (s *RemoteShell) Executable() string { return s.executable }

// PID returns the remote process id, or 0 before Start.
func (s *RemoteShell) PID() int { return s.pid }

// Running reports whether the session was started and not yet stopped.
func (s *RemoteShell) Running() bool { return s.running }

// Start launches the shell session. Starting a running session is a no-op
// that reports success.
func (s *RemoteShell) Start(ctx context.Context) bool {
	if s.running {
		return true
	}
	pid, err := s.computer.StartShell(ctx, s.executable)
	if err != nil {
		s.logger.Error("start shell %s: %v", s.executable, err)
		return false
	}
	s.pid = pid
	s.running = true
	s.logger.Debug("shell %d started", pid)
	return true
}

// Stop terminates the shell session. Stopping a stopped session reports
// success.
func (s *RemoteShell) Stop(ctx context.Context) bool {
	if !s.running {
		return true
	}
	if err := s.computer.StopShell(ctx, s.pid); err != nil {
		s.logger.Error("stop shell %d: %v", s.pid, err)
		return false
	}
	s.running = false
	return true
}

// SendInput writes text to the shell's stdin. A trailing newline is added
// when missing so each call submits a command.
func (s *RemoteShell) SendInput(ctx context.Context, text string) bool {
	if !s.running {
		s.logger.Error("send input: shell not running")
		return false
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	if err := s.computer.SendShellInput(ctx, s.pid, text); err != nil {
		s.logger.Error("send input to shell %d: %v", s.pid, err)
		return false
	}
	return true
}

// ReadOutput returns output buffered since the last read, polling until
// something arrives or the timeout elapses. Timeout yields an empty string,
// not an error. A zero or negative timeout polls until output arrives or the
// context is done, so callers that want a bound pass one explicitly.
func (s *RemoteShell) ReadOutput(ctx context.Context, timeout time.Duration) (string, error) {
	if !s.running {
		return "", logx.Errorf("read output: shell not running")
	}
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		out, err := s.computer.ReadShellOutput(ctx, s.pid)
		if err != nil {
			return "", err
		}
		if out != "" {
			return out, nil
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return "", nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(readPollInterval):
		}
	}
}

// Execute submits a command line and returns the output it produces within
// the timeout.
func (s *RemoteShell) Execute(ctx context.Context, command string, timeout time.Duration) (string, error) {
	if !s.SendInput(ctx, command) {
		return "", logx.Errorf("execute %q: send failed", command)
	}
	return s.ReadOutput(ctx, timeout)
}

// Cwd queries the shell's current working directory.
func (s *RemoteShell) Cwd(ctx context.Context) (string, error) {
	out, err := s.Execute(ctx, "pwd", time.Second)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Env queries the shell's environment variables.
func (s *RemoteShell) Env(ctx context.Context) (map[string]string, error) {
	out, err := s.Execute(ctx, "env", time.Second)
	if err != nil {
		return nil, err
	}
	env := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		env[name] = value
	}
	return env, nil
}
