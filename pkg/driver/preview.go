package driver

import (
	"context"

	"agentenv/pkg/action"
)

// PreviewSlot is a single-slot mailbox carrying the latest observation to a
// viewer. Publishing never blocks; a stale unread observation is replaced.
// It doubles as a Callback so it can hang directly off a driver.
type PreviewSlot struct {
	ch chan action.Observation
}

// NewPreviewSlot returns an empty slot.
func NewPreviewSlot() *PreviewSlot {
	return &PreviewSlot{ch: make(chan action.Observation, 1)}
}

// Publish stores obs as the latest observation, dropping any unread one.
func (p *PreviewSlot) Publish(obs action.Observation) {
	for {
		select {
		case p.ch <- obs:
			return
		default:
			select {
			case <-p.ch:
			default:
			}
		}
	}
}

// TryLatest returns the latest unread observation, if any.
func (p *PreviewSlot) TryLatest() (action.Observation, bool) {
	select {
	case obs := <-p.ch:
		return obs, true
	default:
		return nil, false
	}
}

// Latest blocks until an observation arrives or the context ends.
func (p *PreviewSlot) Latest(ctx context.Context) (action.Observation, error) {
	select {
	case obs := <-p.ch:
		return obs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *PreviewSlot) OnEpisodeStart(string) {}

func (p *PreviewSlot) OnStep(obs action.Observation, _ action.Action, _ float64, _ map[string]any, _ bool, _ int) {
	p.Publish(obs)
}

func (p *PreviewSlot) OnEpisodeEnd(string) {}
