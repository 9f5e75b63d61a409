package episode

import (
	"fmt"
	"sync"
)

// MemoryEpisode keeps steps in a slice. It is the default store for
// short-lived runs and tests.
type MemoryEpisode struct {
	mu    sync.RWMutex
	steps []Step
}

// NewMemoryEpisode returns an empty in-memory episode.
func NewMemoryEpisode() *MemoryEpisode {
	return &MemoryEpisode{}
}

func (m *MemoryEpisode) NumSteps() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.steps)
}

func (m *MemoryEpisode) Get(i int) (Step, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if i < 0 || i >= len(m.steps) {
		return Step{}, fmt.Errorf("get step %d of %d: %w", i, len(m.steps), ErrIndexOutOfRange)
	}
	return m.steps[i], nil
}

func (m *MemoryEpisode) Set(i int, s Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i >= len(m.steps) {
		return fmt.Errorf("set step %d of %d: %w", i, len(m.steps), ErrIndexOutOfRange)
	}
	m.steps[i] = s
	return nil
}

func (m *MemoryEpisode) Push(s Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, s)
	return nil
}

func (m *MemoryEpisode) Insert(i int, s Step) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i < 0 || i > len(m.steps) {
		return fmt.Errorf("insert step at %d of %d: %w", i, len(m.steps), ErrIndexOutOfRange)
	}
	m.steps = append(m.steps, Step{})
	copy(m.steps[i+1:], m.steps[i:])
	m.steps[i] = s
	return nil
}

func (m *MemoryEpisode) Pop() (Step, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.steps) == 0 {
		return Step{}, ErrEmptyEpisode
	}
	last := m.steps[len(m.steps)-1]
	m.steps = m.steps[:len(m.steps)-1]
	return last, nil
}

func (m *MemoryEpisode) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = nil
	return nil
}

func (m *MemoryEpisode) TotalReward() (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total float64
	for _, s := range m.steps {
		total += s.Reward
	}
	return total, nil
}

func (m *MemoryEpisode) IterSteps() *StepIter {
	return NewStepIter(m)
}
