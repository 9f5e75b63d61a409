// Package backend defines the capability interfaces every computer driver
// must satisfy and the registry that makes drivers substitutable. A driver
// that lacks a required capability fails at construction, not at call time.
//
// Drivers receive backend-native input values; translation from the canonical
// vocabulary happens in the environment layer via pkg/input mapping tables.
package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"agentenv/pkg/action"
)

// ScreenCapturer captures the current display contents.
type ScreenCapturer interface {
	CaptureScreenshot(ctx context.Context) (action.Screenshot, error)
}

// KeyInjector injects keyboard input. Key values are backend-native.
type KeyInjector interface {
	InjectKeyDown(ctx context.Context, nativeKey string) error
	InjectKeyUp(ctx context.Context, nativeKey string) error
	InjectText(ctx context.Context, text string) error
}

// MouseInjector injects pointer input. Button values are backend-native.
type MouseInjector interface {
	InjectMouseMove(ctx context.Context, x, y int) error
	InjectButtonDown(ctx context.Context, nativeButton string) error
	InjectButtonUp(ctx context.Context, nativeButton string) error
	InjectScroll(ctx context.Context, delta float64) error
}

// StateReader reports the current input-device state.
type StateReader interface {
	MouseState(ctx context.Context) (action.MouseState, error)
	KeyboardState(ctx context.Context) (action.KeyboardState, error)
}

// RunOpts contains options for command execution.
type RunOpts struct {
	// Env contains environment variables (KEY=VALUE format).
	Env []string

	// Cwd is the working directory for the command.
	Cwd string

	// Timeout is the maximum duration for command execution; zero means no
	// limit.
	Timeout time.Duration
}

// Result contains the result of command execution.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// CommandRunner executes one-shot commands on the computer.
type CommandRunner interface {
	Run(ctx context.Context, cmd []string, opts *RunOpts) (Result, error)
}

// FileTransfer copies files between the caller's machine and the computer.
// These are the primitives the resource bridge is built on.
type FileTransfer interface {
	CopyTo(ctx context.Context, localPath, remotePath string) error
	CopyFrom(ctx context.Context, remotePath, localPath string) error
	Exists(ctx context.Context, remotePath string) (bool, error)
}

// ShellChannel manages long-lived interactive shell sessions on the computer.
type ShellChannel interface {
	StartShell(ctx context.Context, executable string) (pid int, err error)
	StopShell(ctx context.Context, pid int) error
	SendShellInput(ctx context.Context, pid int, text string) error
	// ReadShellOutput returns output buffered since the last read. An empty
	// string with a nil error means nothing is buffered right now.
	ReadShellOutput(ctx context.Context, pid int) (string, error)
}

// Computer aggregates every capability a backend driver must provide, plus
// lifecycle control. Interface composition makes a missing capability a
// compile-time error in the driver package.
type Computer interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error

	ScreenCapturer
	KeyInjector
	MouseInjector
	StateReader
	CommandRunner
	FileTransfer
	ShellChannel
}

// Factory constructs a computer for one backend.
type Factory func() (Computer, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend driver available by name. The name must match the
// backend's input mapping table so the environment can pair them.
func Register(name string, f Factory) error {
	registryMu.Lock()
	defer registryMu.Unlock()

	if name == "" {
		return fmt.Errorf("backend name cannot be empty")
	}
	if _, exists := registry[name]; exists {
		return fmt.Errorf("backend %q already registered", name)
	}
	registry[name] = f
	return nil
}

// Open constructs a computer for the named backend.
func Open(name string) (Computer, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown backend %q (registered: %v)", name, Registered())
	}
	return f()
}

// Registered returns the names of all registered backends, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
