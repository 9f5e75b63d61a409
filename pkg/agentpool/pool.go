// Package agentpool runs a keyed set of agents in lockstep: one observation
// in per agent, one action out per agent, with strict key-set checks so a
// missing or extra agent id fails loudly instead of silently desyncing.
package agentpool

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"agentenv/pkg/action"
	"agentenv/pkg/logx"
)

// Agent decides actions from observations. Update feeds back the reward for
// the most recent action.
type Agent interface {
	Reset()
	Act(ctx context.Context, obs action.Observation) (action.Action, error)
	Update(reward float64)
}

// KeyMismatchError reports that a batched call supplied a different id set
// than the pool holds. Both sets are sorted for stable messages.
type KeyMismatchError struct {
	Expected []string
	Actual   []string
}

func (e *KeyMismatchError) Error() string {
	return fmt.Sprintf("agent ids %v do not match pool ids %v", e.Actual, e.Expected)
}

// NotFoundError reports an unknown agent id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no agent with id %q", e.ID)
}

// Factory builds one agent for the pool.
type Factory func() Agent

// Pool holds agents keyed by string id. Ids are allocated numerically:
// one past the highest numeric id in use, or "0" for an empty pool.
// Non-numeric ids (from AddAgentWithID) are ignored by the allocator.
type Pool struct {
	mu      sync.Mutex
	agents  map[string]Agent
	factory Factory
	logger  *logx.Logger
}

// NewPool returns an empty pool that builds agents with the factory.
func NewPool(factory Factory) *Pool {
	return &Pool{
		agents:  make(map[string]Agent),
		factory: factory,
		logger:  logx.NewLogger("agentpool"),
	}
}

// NewPoolWithIDs pre-seeds the pool with one agent per id. Later AddAgent
// calls allocate past the highest seeded numeric id.
func NewPoolWithIDs(factory Factory, ids []string) (*Pool, error) {
	p := NewPool(factory)
	for _, id := range ids {
		if err := p.AddAgentWithID(id, factory()); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// AddAgent creates a new agent and returns its allocated id.
func (p *Pool) AddAgent() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextIDLocked()
	p.agents[id] = p.factory()
	p.logger.Debug("added agent %s (pool size %d)", id, len(p.agents))
	return id
}

// AddAgentWithID registers an agent under a caller-chosen id.
func (p *Pool) AddAgentWithID(id string, agent Agent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.agents[id]; exists {
		return fmt.Errorf("agent id %q already in use", id)
	}
	p.agents[id] = agent
	return nil
}

// RemoveAgent drops the agent with the given id.
func (p *Pool) RemoveAgent(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.agents[id]; !exists {
		return &NotFoundError{ID: id}
	}
	delete(p.agents, id)
	return nil
}

// nextIDLocked returns one past the highest numeric id, or "0" when no
// numeric ids exist.
func (p *Pool) nextIDLocked() string {
	maxID := -1
	for id := range p.agents {
		n, err := strconv.Atoi(id)
		if err != nil || n < 0 {
			continue
		}
		if n > maxID {
			maxID = n
		}
	}
	return strconv.Itoa(maxID + 1)
}

// GetAgent returns the agent registered under id.
func (p *Pool) GetAgent(id string) (Agent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	agent, ok := p.agents[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return agent, nil
}

// IDs returns the pool's agent ids, sorted.
func (p *Pool) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idsLocked()
}

func (p *Pool) idsLocked() []string {
	ids := make([]string, 0, len(p.agents))
	for id := range p.agents {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Size returns the number of agents in the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.agents)
}

// Reset resets every agent in the pool.
func (p *Pool) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, agent := range p.agents {
		agent.Reset()
	}
}

// checkKeysLocked verifies that the supplied ids exactly match the pool's.
func (p *Pool) checkKeysLocked(got []string) error {
	want := p.idsLocked()
	sort.Strings(got)
	if len(got) != len(want) {
		return &KeyMismatchError{Expected: want, Actual: got}
	}
	for i := range want {
		if got[i] != want[i] {
			return &KeyMismatchError{Expected: want, Actual: got}
		}
	}
	return nil
}

// Act asks every agent for an action given its observation. The observation
// id set must exactly match the pool's; on mismatch no agent is invoked.
func (p *Pool) Act(ctx context.Context, obs map[string]action.Observation) (map[string]action.Action, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	got := make([]string, 0, len(obs))
	for id := range obs {
		got = append(got, id)
	}
	if err := p.checkKeysLocked(got); err != nil {
		return nil, err
	}

	actions := make(map[string]action.Action, len(obs))
	for id, agent := range p.agents {
		act, err := agent.Act(ctx, obs[id])
		if err != nil {
			return nil, fmt.Errorf("agent %s act: %w", id, err)
		}
		actions[id] = act
	}
	return actions, nil
}

// Update feeds each agent the reward for its last action. The reward id set
// must exactly match the pool's; on mismatch no agent is updated.
func (p *Pool) Update(rewards map[string]float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	got := make([]string, 0, len(rewards))
	for id := range rewards {
		got = append(got, id)
	}
	if err := p.checkKeysLocked(got); err != nil {
		return err
	}

	for id, agent := range p.agents {
		agent.Update(rewards[id])
	}
	return nil
}
