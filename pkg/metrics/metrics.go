// Package metrics provides Prometheus-based metrics recording for the
// agent-environment loop.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"agentenv/pkg/action"
)

// Recorder holds the loop's Prometheus collectors.
type Recorder struct {
	stepsTotal          *prometheus.CounterVec
	episodesTotal       prometheus.Counter
	actionFailuresTotal *prometheus.CounterVec
	evaluationsTotal    *prometheus.CounterVec
	rewardTotal         prometheus.Counter
	stepDuration        prometheus.Histogram
}

// NewRecorder creates a recorder registered with reg. A nil reg uses the
// default registry.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		stepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentenv_steps_total",
				Help: "Total number of executed steps by action type",
			},
			[]string{"action_type"},
		),
		episodesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "agentenv_episodes_total",
				Help: "Total number of completed episodes",
			},
		),
		actionFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentenv_action_failures_total",
				Help: "Total number of failed actions by action type",
			},
			[]string{"action_type"},
		),
		evaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentenv_evaluations_total",
				Help: "Total number of episode evaluations by verdict",
			},
			[]string{"verdict"},
		),
		rewardTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "agentenv_reward_total",
				Help: "Total reward accumulated across all steps",
			},
		),
		stepDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agentenv_step_duration_seconds",
				Help:    "Duration of environment steps in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

// RecordStep counts one executed step and its reward.
func (r *Recorder) RecordStep(actionType action.ActionType, reward float64, duration time.Duration) {
	r.stepsTotal.WithLabelValues(string(actionType)).Inc()
	r.rewardTotal.Add(reward)
	r.stepDuration.Observe(duration.Seconds())
}

// RecordEpisode counts one completed episode.
func (r *Recorder) RecordEpisode() {
	r.episodesTotal.Inc()
}

// RecordActionFailure counts one failed action.
func (r *Recorder) RecordActionFailure(actionType action.ActionType) {
	r.actionFailuresTotal.WithLabelValues(string(actionType)).Inc()
}

// RecordEvaluation counts one evaluation verdict ("pass" or "fail").
func (r *Recorder) RecordEvaluation(verdict string) {
	r.evaluationsTotal.WithLabelValues(verdict).Inc()
}
