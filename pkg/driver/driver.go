// Package driver runs the agent-environment loop, records the trajectory,
// and fans step events out to registered callbacks.
package driver

import (
	"context"
	"errors"
	"fmt"

	"agentenv/pkg/action"
	"agentenv/pkg/agentpool"
	"agentenv/pkg/env"
	"agentenv/pkg/episode"
	"agentenv/pkg/logx"
)

// Callback receives loop events. Implementations must not block; slow
// consumers should hand off to their own goroutine.
type Callback interface {
	OnEpisodeStart(episodeName string)
	OnStep(obs action.Observation, act action.Action, reward float64, info map[string]any, done bool, stepIdx int)
	OnEpisodeEnd(episodeName string)
}

// EpisodeFactory creates the store for one episode run.
type EpisodeFactory func(episodeName string) (episode.Episode, error)

// MemoryEpisodeFactory backs every run with a fresh in-memory episode.
func MemoryEpisodeFactory(string) (episode.Episode, error) {
	return episode.NewMemoryEpisode(), nil
}

// Driver couples one environment with one agent and records each run as an
// episode. Not safe for concurrent runs.
type Driver struct {
	env        env.Env
	agent      agentpool.Agent
	newEpisode EpisodeFactory
	callbacks  []Callback
	logger     *logx.Logger
}

// NewDriver builds a driver. A nil factory defaults to in-memory episodes.
func NewDriver(e env.Env, agent agentpool.Agent, factory EpisodeFactory) *Driver {
	if factory == nil {
		factory = MemoryEpisodeFactory
	}
	return &Driver{
		env:        e,
		agent:      agent,
		newEpisode: factory,
		logger:     logx.NewLogger("driver"),
	}
}

// Register adds a callback to the fan-out list.
func (d *Driver) Register(cb Callback) {
	d.callbacks = append(d.callbacks, cb)
}

// RunEpisode resets the environment and agent, then loops for up to maxSteps
// steps or until the environment reports done. A failed action is logged and
// skipped: no step is recorded and the agent sees the same observation again.
// The recorded episode is returned even when the run ends on an error.
func (d *Driver) RunEpisode(ctx context.Context, episodeName string, maxSteps int) (episode.Episode, error) {
	ep, err := d.newEpisode(episodeName)
	if err != nil {
		return nil, fmt.Errorf("create episode %s: %w", episodeName, err)
	}

	obs, err := d.env.Reset(ctx)
	if err != nil {
		return ep, fmt.Errorf("reset env: %w", err)
	}
	d.agent.Reset()

	for _, cb := range d.callbacks {
		cb.OnEpisodeStart(episodeName)
	}
	defer func() {
		for _, cb := range d.callbacks {
			cb.OnEpisodeEnd(episodeName)
		}
	}()

	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return ep, err
		}

		act, err := d.agent.Act(ctx, obs)
		if err != nil {
			return ep, fmt.Errorf("agent act at step %d: %w", step, err)
		}

		nextObs, reward, done, info, err := d.env.Step(ctx, act)
		if err != nil {
			var actErr *env.ActionError
			if errors.As(err, &actErr) {
				d.logger.Warn("step %d: %v", step, actErr)
				continue
			}
			return ep, fmt.Errorf("env step %d: %w", step, err)
		}

		d.agent.Update(reward)
		if err := ep.Push(episode.Step{
			Observation: obs,
			Action:      act,
			Reward:      reward,
			Info:        info,
		}); err != nil {
			return ep, fmt.Errorf("record step %d: %w", step, err)
		}

		for _, cb := range d.callbacks {
			cb.OnStep(nextObs, act, reward, info, done, step)
		}

		obs = nextObs
		if done {
			break
		}
	}
	return ep, nil
}
