// Package env defines the agent-facing environment contract and implements
// it over a computer backend.
package env

import (
	"context"
	"fmt"

	"agentenv/pkg/action"
)

// Env is the step loop contract. Reset must be called before the first Step;
// Close is idempotent. Implementations are not safe for concurrent use.
type Env interface {
	// Reset prepares a fresh run and returns the initial observation.
	Reset(ctx context.Context) (action.Observation, error)

	// Step executes an action and returns the resulting observation, the
	// reward, whether the run is done, and free-form diagnostic info.
	Step(ctx context.Context, a action.Action) (action.Observation, float64, bool, map[string]any, error)

	Close() error
}

// ActionError reports that an action failed to execute. The environment is
// still usable; the failed action simply had no effect recorded.
type ActionError struct {
	Action action.Action
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %s failed: %v", e.Action.Type(), e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// RewardFunc scores an executed action. The default returns 0.
type RewardFunc func(a action.Action, info map[string]any) float64

// DoneFunc decides whether the run ends after an executed action. The
// default returns false.
type DoneFunc func(a action.Action, info map[string]any) bool

func zeroReward(action.Action, map[string]any) float64 { return 0 }
func neverDone(action.Action, map[string]any) bool     { return false }
