package backend

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"agentenv/pkg/action"
	"agentenv/pkg/input"
	"agentenv/pkg/logx"
)

// SimComputer is an in-memory computer driver. It tracks injected input state,
// serves canned screenshots, stores files in a map, and runs a small set of
// built-in commands. Environments use it for dry runs; tests use it everywhere.
type SimComputer struct {
	mu      sync.Mutex
	started bool

	frame   action.Screenshot
	keys    map[string]bool
	mouseX  int
	mouseY  int
	buttons map[string]bool

	files       map[string][]byte
	transferErr error

	cwd string
	env map[string]string

	shellSeq int
	shells   map[int]*simShell

	// RunHook, when set, handles Run calls instead of the built-ins.
	RunHook func(cmd []string, opts *RunOpts) (Result, error)

	// ShellScript, when set, computes shell output for each input line
	// instead of the built-in pwd/env/echo behavior.
	ShellScript func(line string) string

	logger *logx.Logger
}

type simShell struct {
	executable string
	inputs     []string
	pending    strings.Builder
	stopped    bool
}

// NewSimComputer returns a stopped simulated computer with an empty
// filesystem and a 1x1 placeholder frame.
func NewSimComputer() *SimComputer {
	return &SimComputer{
		frame: action.Screenshot{
			Data:   []byte{0},
			Format: "raw",
			Width:  1,
			Height: 1,
		},
		keys:    make(map[string]bool),
		buttons: make(map[string]bool),
		files:   make(map[string][]byte),
		cwd:     "/root",
		env:     map[string]string{"HOME": "/root", "SHELL": "/bin/bash"},
		shells:  make(map[int]*simShell),
		logger:  logx.NewLogger("sim"),
	}
}

func (s *SimComputer) Name() string { return input.BackendSim }

func (s *SimComputer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("sim computer already started")
	}
	s.started = true
	s.logger.Debug("started")
	return nil
}

func (s *SimComputer) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.started = false
	for _, sh := range s.shells {
		sh.stopped = true
	}
	s.logger.Debug("stopped")
	return nil
}

func (s *SimComputer) checkStarted() error {
	if !s.started {
		return fmt.Errorf("sim computer not started")
	}
	return nil
}

// SetFrame replaces the screenshot returned by CaptureScreenshot.
func (s *SimComputer) SetFrame(frame action.Screenshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = frame
}

func (s *SimComputer) CaptureScreenshot(ctx context.Context) (action.Screenshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStarted(); err != nil {
		return action.Screenshot{}, err
	}
	return s.frame, nil
}

func (s *SimComputer) InjectKeyDown(ctx context.Context, nativeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStarted(); err != nil {
		return err
	}
	s.keys[nativeKey] = true
	return nil
}

func (s *SimComputer) InjectKeyUp(ctx context.Context, nativeKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStarted(); err != nil {
		return err
	}
	delete(s.keys, nativeKey)
	return nil
}

func (s *SimComputer) InjectText(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkStarted()
}

func (s *SimComputer) InjectMouseMove(ctx context.Context, x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStarted(); err != nil {
		return err
	}
	s.mouseX, s.mouseY = x, y
	return nil
}

func (s *SimComputer) InjectButtonDown(ctx context.Context, nativeButton string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStarted(); err != nil {
		return err
	}
	s.buttons[nativeButton] = true
	return nil
}

func (s *SimComputer) InjectButtonUp(ctx context.Context, nativeButton string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStarted(); err != nil {
		return err
	}
	delete(s.buttons, nativeButton)
	return nil
}

func (s *SimComputer) InjectScroll(ctx context.Context, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkStarted()
}

func (s *SimComputer) MouseState(ctx context.Context) (action.MouseState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStarted(); err != nil {
		return action.MouseState{}, err
	}
	state := action.MouseState{
		X:       s.mouseX,
		Y:       s.mouseY,
		Buttons: make(map[input.MouseButton]bool, len(s.buttons)),
	}
	// Native values equal canonical values for the sim backend.
	for b, down := range s.buttons {
		state.Buttons[input.MouseButton(b)] = down
	}
	return state, nil
}

func (s *SimComputer) KeyboardState(ctx context.Context) (action.KeyboardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStarted(); err != nil {
		return action.KeyboardState{}, err
	}
	state := action.KeyboardState{Keys: make(map[input.KeyboardKey]bool, len(s.keys))}
	for k, down := range s.keys {
		state.Keys[input.KeyboardKey(k)] = down
	}
	return state, nil
}

func (s *SimComputer) Run(ctx context.Context, cmd []string, opts *RunOpts) (Result, error) {
	s.mu.Lock()
	hook := s.RunHook
	if err := s.checkStarted(); err != nil {
		s.mu.Unlock()
		return Result{}, err
	}
	s.mu.Unlock()

	if len(cmd) == 0 {
		return Result{}, fmt.Errorf("empty command")
	}
	if hook != nil {
		return hook(cmd, opts)
	}

	start := time.Now()
	res := s.runBuiltin(cmd)
	res.Duration = time.Since(start)
	return res, nil
}

func (s *SimComputer) runBuiltin(cmd []string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd[0] {
	case "pwd":
		return Result{Stdout: s.cwd + "\n"}
	case "env":
		return Result{Stdout: s.envLines()}
	case "echo":
		return Result{Stdout: strings.Join(cmd[1:], " ") + "\n"}
	case "true":
		return Result{}
	case "false":
		return Result{ExitCode: 1}
	default:
		return Result{
			Stderr:   fmt.Sprintf("sim: %s: command not found\n", cmd[0]),
			ExitCode: 127,
		}
	}
}

func (s *SimComputer) envLines() string {
	names := make([]string, 0, len(s.env))
	for name := range s.env {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%s\n", name, s.env[name])
	}
	return b.String()
}

// SetTransferError makes every subsequent CopyTo/CopyFrom fail with err.
// Pass nil to restore transfers.
func (s *SimComputer) SetTransferError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transferErr = err
}

func (s *SimComputer) CopyTo(ctx context.Context, localPath, remotePath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read local file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transferErr != nil {
		return s.transferErr
	}
	s.files[remotePath] = data
	return nil
}

func (s *SimComputer) CopyFrom(ctx context.Context, remotePath, localPath string) error {
	s.mu.Lock()
	if s.transferErr != nil {
		err := s.transferErr
		s.mu.Unlock()
		return err
	}
	data, ok := s.files[remotePath]
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("remote file %q not found", remotePath)
	}
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return fmt.Errorf("write local file: %w", err)
	}
	return nil
}

func (s *SimComputer) Exists(ctx context.Context, remotePath string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[remotePath]
	return ok, nil
}

// WriteRemoteFile seeds the simulated filesystem directly.
func (s *SimComputer) WriteRemoteFile(path string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = append([]byte(nil), data...)
}

// ReadRemoteFile reads from the simulated filesystem directly.
func (s *SimComputer) ReadRemoteFile(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), data...), true
}

func (s *SimComputer) StartShell(ctx context.Context, executable string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStarted(); err != nil {
		return 0, err
	}
	s.shellSeq++
	pid := s.shellSeq
	s.shells[pid] = &simShell{executable: executable}
	s.logger.Debug("shell %d started (%s)", pid, executable)
	return pid, nil
}

func (s *SimComputer) StopShell(ctx context.Context, pid int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shells[pid]
	if !ok {
		return fmt.Errorf("no shell with pid %d", pid)
	}
	sh.stopped = true
	return nil
}

func (s *SimComputer) SendShellInput(ctx context.Context, pid int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shells[pid]
	if !ok || sh.stopped {
		return fmt.Errorf("no running shell with pid %d", pid)
	}
	line := strings.TrimSuffix(text, "\n")
	sh.inputs = append(sh.inputs, line)

	if s.ShellScript != nil {
		sh.pending.WriteString(s.ShellScript(line))
		return nil
	}
	switch {
	case line == "pwd":
		sh.pending.WriteString(s.cwd + "\n")
	case line == "env":
		sh.pending.WriteString(s.envLines())
	case strings.HasPrefix(line, "echo "):
		sh.pending.WriteString(strings.TrimPrefix(line, "echo ") + "\n")
	}
	return nil
}

func (s *SimComputer) ReadShellOutput(ctx context.Context, pid int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shells[pid]
	if !ok {
		return "", fmt.Errorf("no shell with pid %d", pid)
	}
	out := sh.pending.String()
	sh.pending.Reset()
	return out, nil
}

// ShellRunning reports whether the shell with the given pid accepts input.
func (s *SimComputer) ShellRunning(pid int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sh, ok := s.shells[pid]
	return ok && !sh.stopped
}

func init() { //nolint:gochecknoinits // built-in driver registration
	if err := Register(input.BackendSim, func() (Computer, error) {
		return NewSimComputer(), nil
	}); err != nil {
		panic(err)
	}
}
