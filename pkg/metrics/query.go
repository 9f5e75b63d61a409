package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
)

// RunMetrics are aggregated loop metrics scraped back out of Prometheus.
type RunMetrics struct {
	Steps          int64   `json:"steps"`
	Episodes       int64   `json:"episodes"`
	ActionFailures int64   `json:"action_failures"`
	TotalReward    float64 `json:"total_reward"`
	Passed         int64   `json:"evaluations_passed"`
	Failed         int64   `json:"evaluations_failed"`
}

// QueryService reads aggregated loop metrics from a Prometheus server.
type QueryService struct {
	client   api.Client
	queryAPI v1.API
}

// NewQueryService creates a query service against the given Prometheus URL.
func NewQueryService(prometheusURL string) (*QueryService, error) {
	client, err := api.NewClient(api.Config{
		Address: prometheusURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &QueryService{
		client:   client,
		queryAPI: v1.NewAPI(client),
	}, nil
}

// GetRunMetrics aggregates the loop counters across all action types and
// verdicts.
func (q *QueryService) GetRunMetrics(ctx context.Context) (*RunMetrics, error) {
	m := &RunMetrics{}

	steps, err := q.queryScalar(ctx, `sum(agentenv_steps_total)`)
	if err != nil {
		return nil, err
	}
	m.Steps = int64(steps)

	episodes, err := q.queryScalar(ctx, `sum(agentenv_episodes_total)`)
	if err != nil {
		return nil, err
	}
	m.Episodes = int64(episodes)

	failures, err := q.queryScalar(ctx, `sum(agentenv_action_failures_total)`)
	if err != nil {
		return nil, err
	}
	m.ActionFailures = int64(failures)

	reward, err := q.queryScalar(ctx, `sum(agentenv_reward_total)`)
	if err != nil {
		return nil, err
	}
	m.TotalReward = reward

	passed, err := q.queryScalar(ctx, `sum(agentenv_evaluations_total{verdict="pass"})`)
	if err != nil {
		return nil, err
	}
	m.Passed = int64(passed)

	failed, err := q.queryScalar(ctx, `sum(agentenv_evaluations_total{verdict="fail"})`)
	if err != nil {
		return nil, err
	}
	m.Failed = int64(failed)

	return m, nil
}

// queryScalar runs an instant query and returns the first sample, or 0 when
// the series does not exist yet.
func (q *QueryService) queryScalar(ctx context.Context, query string) (float64, error) {
	result, _, err := q.queryAPI.Query(ctx, query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", query, err)
	}
	if vector, ok := result.(model.Vector); ok && len(vector) > 0 {
		return float64(vector[0].Value), nil
	}
	return 0, nil
}
