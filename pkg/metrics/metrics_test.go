package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"agentenv/pkg/action"
)

func TestRecorderCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg)

	rec.RecordStep(action.ActionTypeText, 1.5, 10*time.Millisecond)
	rec.RecordStep(action.ActionTypeText, 0.5, 10*time.Millisecond)
	rec.RecordStep(action.ActionClick, 0, 10*time.Millisecond)
	rec.RecordEpisode()
	rec.RecordActionFailure(action.ActionKeyDown)
	rec.RecordEvaluation("pass")
	rec.RecordEvaluation("fail")
	rec.RecordEvaluation("pass")

	if got := testutil.ToFloat64(rec.stepsTotal.WithLabelValues(string(action.ActionTypeText))); got != 2 {
		t.Errorf("type_text steps = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.episodesTotal); got != 1 {
		t.Errorf("episodes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.rewardTotal); got != 2 {
		t.Errorf("reward total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.actionFailuresTotal.WithLabelValues(string(action.ActionKeyDown))); got != 1 {
		t.Errorf("key_down failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.evaluationsTotal.WithLabelValues("pass")); got != 2 {
		t.Errorf("pass evaluations = %v, want 2", got)
	}
}

func TestStepCallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg)
	cb := NewStepCallback(rec)

	cb.OnEpisodeStart("run")
	cb.OnStep(nil, &action.TypeText{Text: "x"}, 1, nil, false, 0)
	cb.OnStep(nil, &action.Click{}, 0, nil, true, 1)
	cb.OnEpisodeEnd("run")

	if got := testutil.ToFloat64(rec.episodesTotal); got != 1 {
		t.Errorf("episodes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.stepsTotal.WithLabelValues(string(action.ActionClick))); got != 1 {
		t.Errorf("click steps = %v, want 1", got)
	}
}
