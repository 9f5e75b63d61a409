package agentpool

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"agentenv/pkg/action"
	"agentenv/pkg/input"
)

// ScriptedAgent replays a fixed action sequence. Reset rewinds to the start;
// running past the end is an error. Rewards are accumulated for inspection.
type ScriptedAgent struct {
	mu      sync.Mutex
	script  []action.Action
	pos     int
	rewards []float64
}

// NewScriptedAgent returns an agent that emits the given actions in order.
func NewScriptedAgent(script []action.Action) *ScriptedAgent {
	return &ScriptedAgent{script: script}
}

func (a *ScriptedAgent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pos = 0
	a.rewards = nil
}

func (a *ScriptedAgent) Act(ctx context.Context, obs action.Observation) (action.Action, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pos >= len(a.script) {
		return nil, fmt.Errorf("script exhausted after %d actions", len(a.script))
	}
	act := a.script[a.pos]
	a.pos++
	return act, nil
}

func (a *ScriptedAgent) Update(reward float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rewards = append(a.rewards, reward)
}

// Rewards returns the rewards received since the last Reset.
func (a *ScriptedAgent) Rewards() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]float64(nil), a.rewards...)
}

// RandomAgent emits uniformly random input actions within a screen region.
// It is a load generator, not a policy.
type RandomAgent struct {
	mu     sync.Mutex
	rng    *rand.Rand
	width  int
	height int
}

// NewRandomAgent returns a random agent for a width x height screen, seeded
// for reproducible sequences.
func NewRandomAgent(width, height int, seed int64) *RandomAgent {
	return &RandomAgent{
		rng:    rand.New(rand.NewSource(seed)),
		width:  width,
		height: height,
	}
}

func (a *RandomAgent) Reset() {}

func (a *RandomAgent) Act(ctx context.Context, obs action.Observation) (action.Action, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.rng.Intn(4) {
	case 0:
		keys := input.AllKeys()
		return &action.KeyPress{Key: keys[a.rng.Intn(len(keys))]}, nil
	case 1:
		return &action.TypeText{Text: string(rune('a' + a.rng.Intn(26)))}, nil
	case 2:
		return &action.MouseMove{X: a.rng.Intn(a.width), Y: a.rng.Intn(a.height)}, nil
	default:
		buttons := input.AllButtons()
		return &action.Click{
			X:      a.rng.Intn(a.width),
			Y:      a.rng.Intn(a.height),
			Button: buttons[a.rng.Intn(len(buttons))],
		}, nil
	}
}

func (a *RandomAgent) Update(reward float64) {}
