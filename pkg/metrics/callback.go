package metrics

import (
	"time"

	"agentenv/pkg/action"
)

// StepCallback adapts a Recorder to the driver's callback interface so the
// loop feeds the counters without knowing about Prometheus.
type StepCallback struct {
	recorder *Recorder
	lastStep time.Time
}

// NewStepCallback wraps a recorder for registration with a driver.
func NewStepCallback(recorder *Recorder) *StepCallback {
	return &StepCallback{recorder: recorder}
}

func (c *StepCallback) OnEpisodeStart(string) {
	c.lastStep = time.Now()
}

func (c *StepCallback) OnStep(_ action.Observation, act action.Action, reward float64, _ map[string]any, _ bool, _ int) {
	now := time.Now()
	c.recorder.RecordStep(act.Type(), reward, now.Sub(c.lastStep))
	c.lastStep = now
}

func (c *StepCallback) OnEpisodeEnd(string) {
	c.recorder.RecordEpisode()
}
