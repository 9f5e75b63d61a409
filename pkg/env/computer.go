package env

import (
	"context"
	"fmt"
	"time"

	"agentenv/pkg/action"
	"agentenv/pkg/backend"
	"agentenv/pkg/input"
	"agentenv/pkg/logx"
)

type envState int

const (
	stateUninitialized envState = iota
	stateActive
	stateClosed
)

// ComputerEnv drives a computer backend through the Env contract. Canonical
// input values are translated to the backend's native vocabulary per action;
// observations come back as a Snapshot of screen and input-device state.
type ComputerEnv struct {
	computer backend.Computer
	mapping  *input.Mapping
	rewardFn RewardFunc
	doneFn   DoneFunc

	// sleep pauses for action durations; tests stub it out.
	sleep func(time.Duration)

	state  envState
	logger *logx.Logger
}

// Option configures a ComputerEnv.
type Option func(*ComputerEnv)

// WithRewardFunc installs a reward function evaluated after each executed
// action.
func WithRewardFunc(fn RewardFunc) Option {
	return func(e *ComputerEnv) { e.rewardFn = fn }
}

// WithDoneFunc installs a termination check evaluated after each executed
// action.
func WithDoneFunc(fn DoneFunc) Option {
	return func(e *ComputerEnv) { e.doneFn = fn }
}

// NewComputerEnv wraps a computer in the Env contract. The computer's input
// mapping is looked up by its backend name.
func NewComputerEnv(computer backend.Computer, opts ...Option) (*ComputerEnv, error) {
	mapping, err := input.LookupMapping(computer.Name())
	if err != nil {
		return nil, err
	}

	e := &ComputerEnv{
		computer: computer,
		mapping:  mapping,
		rewardFn: zeroReward,
		doneFn:   neverDone,
		sleep:    time.Sleep,
		logger:   logx.NewLogger("env"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Reset starts the computer on first use and returns the initial observation.
func (e *ComputerEnv) Reset(ctx context.Context) (action.Observation, error) {
	switch e.state {
	case stateClosed:
		return nil, fmt.Errorf("env is closed")
	case stateUninitialized:
		if err := e.computer.Start(ctx); err != nil {
			return nil, fmt.Errorf("start computer: %w", err)
		}
		e.state = stateActive
	}
	e.logger.Debug("reset")
	return e.observe(ctx)
}

// Step executes the action, then observes. A failed action returns an
// *ActionError and no observation; the env stays active.
func (e *ComputerEnv) Step(ctx context.Context, a action.Action) (action.Observation, float64, bool, map[string]any, error) {
	switch e.state {
	case stateUninitialized:
		return nil, 0, false, nil, fmt.Errorf("env not reset")
	case stateClosed:
		return nil, 0, false, nil, fmt.Errorf("env is closed")
	}

	if err := action.Validate(a); err != nil {
		return nil, 0, false, nil, &ActionError{Action: a, Err: err}
	}

	info := make(map[string]any)
	if err := e.execute(ctx, a, info); err != nil {
		return nil, 0, false, nil, &ActionError{Action: a, Err: err}
	}

	obs, err := e.observe(ctx)
	if err != nil {
		return nil, 0, false, nil, fmt.Errorf("observe after %s: %w", a.Type(), err)
	}
	return obs, e.rewardFn(a, info), e.doneFn(a, info), info, nil
}

// Close stops the computer. Closing more than once is a no-op.
func (e *ComputerEnv) Close() error {
	if e.state == stateClosed {
		return nil
	}
	prev := e.state
	e.state = stateClosed
	if prev == stateActive {
		if err := e.computer.Stop(context.Background()); err != nil {
			return logx.Wrap(err, "stop computer")
		}
	}
	return nil
}

func (e *ComputerEnv) observe(ctx context.Context) (action.Observation, error) {
	shot, err := e.computer.CaptureScreenshot(ctx)
	if err != nil {
		return nil, err
	}
	mouse, err := e.computer.MouseState(ctx)
	if err != nil {
		return nil, err
	}
	keyboard, err := e.computer.KeyboardState(ctx)
	if err != nil {
		return nil, err
	}
	return &action.Snapshot{
		Screenshot:    &shot,
		MouseState:    &mouse,
		KeyboardState: &keyboard,
	}, nil
}

func (e *ComputerEnv) execute(ctx context.Context, a action.Action, info map[string]any) error {
	switch act := a.(type) {
	case *action.KeyDown:
		return e.computer.InjectKeyDown(ctx, e.mapping.KeyToBackend(act.Key))
	case *action.KeyUp:
		return e.computer.InjectKeyUp(ctx, e.mapping.KeyToBackend(act.Key))
	case *action.KeyPress:
		return e.pressKey(ctx, act.Key, act.Duration)
	case *action.Hotkey:
		return e.hotkey(ctx, act.Keys)
	case *action.TypeText:
		return e.computer.InjectText(ctx, act.Text)
	case *action.MouseMove:
		e.sleep(act.MoveDuration)
		return e.computer.InjectMouseMove(ctx, act.X, act.Y)
	case *action.MouseButtonDown:
		return e.computer.InjectButtonDown(ctx, e.mapping.ButtonToBackend(act.Button))
	case *action.MouseButtonUp:
		return e.computer.InjectButtonUp(ctx, e.mapping.ButtonToBackend(act.Button))
	case *action.MouseScroll:
		return e.computer.InjectScroll(ctx, act.Delta)
	case *action.Click:
		return e.click(ctx, act.X, act.Y, act.Button, act.MoveDuration, act.PressDuration)
	case *action.DoubleClick:
		if err := e.click(ctx, act.X, act.Y, act.Button, act.MoveDuration, act.PressDuration); err != nil {
			return err
		}
		e.sleep(act.Interval)
		return e.click(ctx, act.X, act.Y, act.Button, 0, act.PressDuration)
	case *action.Drag:
		return e.drag(ctx, act)
	case *action.RunCommand:
		return e.runCommand(ctx, act, info)
	default:
		return fmt.Errorf("unsupported action type %s", a.Type())
	}
}

func (e *ComputerEnv) pressKey(ctx context.Context, key input.KeyboardKey, hold time.Duration) error {
	native := e.mapping.KeyToBackend(key)
	if err := e.computer.InjectKeyDown(ctx, native); err != nil {
		return err
	}
	e.sleep(hold)
	return e.computer.InjectKeyUp(ctx, native)
}

// hotkey presses the keys in order and releases them in reverse, so modifier
// chords land the way a human types them.
func (e *ComputerEnv) hotkey(ctx context.Context, keys []input.KeyboardKey) error {
	for _, k := range keys {
		if err := e.computer.InjectKeyDown(ctx, e.mapping.KeyToBackend(k)); err != nil {
			return err
		}
	}
	for i := len(keys) - 1; i >= 0; i-- {
		if err := e.computer.InjectKeyUp(ctx, e.mapping.KeyToBackend(keys[i])); err != nil {
			return err
		}
	}
	return nil
}

func (e *ComputerEnv) click(ctx context.Context, x, y int, button input.MouseButton, move, press time.Duration) error {
	e.sleep(move)
	if err := e.computer.InjectMouseMove(ctx, x, y); err != nil {
		return err
	}
	native := e.mapping.ButtonToBackend(button)
	if err := e.computer.InjectButtonDown(ctx, native); err != nil {
		return err
	}
	e.sleep(press)
	return e.computer.InjectButtonUp(ctx, native)
}

func (e *ComputerEnv) drag(ctx context.Context, act *action.Drag) error {
	if err := e.computer.InjectMouseMove(ctx, act.StartX, act.StartY); err != nil {
		return err
	}
	native := e.mapping.ButtonToBackend(act.Button)
	if err := e.computer.InjectButtonDown(ctx, native); err != nil {
		return err
	}
	e.sleep(act.MoveDuration)
	if err := e.computer.InjectMouseMove(ctx, act.EndX, act.EndY); err != nil {
		return err
	}
	return e.computer.InjectButtonUp(ctx, native)
}

// runCommand executes a one-shot command and records its outcome in the step
// info. A nonzero exit code is not an action failure.
func (e *ComputerEnv) runCommand(ctx context.Context, act *action.RunCommand, info map[string]any) error {
	cmd := append([]string{act.Command}, act.Args...)
	envList := make([]string, 0, len(act.Env))
	for name, value := range act.Env {
		envList = append(envList, name+"="+value)
	}
	res, err := e.computer.Run(ctx, cmd, &backend.RunOpts{
		Env:     envList,
		Cwd:     act.Cwd,
		Timeout: act.Timeout,
	})
	if err != nil {
		return err
	}
	info["exit_code"] = res.ExitCode
	info["stdout"] = res.Stdout
	info["stderr"] = res.Stderr
	return nil
}
