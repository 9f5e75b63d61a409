package metrics

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// fakePromServer answers instant queries from a fixed table; queries it has
// no entry for return an empty vector, the way a real server answers for a
// series that was never scraped.
func fakePromServer(t *testing.T, values map[string]string) *httptest.Server {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		query := r.FormValue("query")
		w.Header().Set("Content-Type", "application/json")
		value, ok := values[query]
		if !ok {
			fmt.Fprint(w, `{"status":"success","data":{"resultType":"vector","result":[]}}`)
			return
		}
		fmt.Fprintf(w, `{"status":"success","data":{"resultType":"vector","result":[{"metric":{},"value":[1700000000,"%s"]}]}}`, value)
	})
	return httptest.NewServer(handler)
}

func TestGetRunMetrics(t *testing.T) {
	srv := fakePromServer(t, map[string]string{
		`sum(agentenv_steps_total)`:                       "42",
		`sum(agentenv_episodes_total)`:                    "3",
		`sum(agentenv_action_failures_total)`:             "2",
		`sum(agentenv_reward_total)`:                      "17.5",
		`sum(agentenv_evaluations_total{verdict="pass"})`: "2",
		`sum(agentenv_evaluations_total{verdict="fail"})`: "1",
	})
	defer srv.Close()

	qs, err := NewQueryService(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	m, err := qs.GetRunMetrics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if m.Steps != 42 {
		t.Errorf("Steps = %d, want 42", m.Steps)
	}
	if m.Episodes != 3 {
		t.Errorf("Episodes = %d, want 3", m.Episodes)
	}
	if m.ActionFailures != 2 {
		t.Errorf("ActionFailures = %d, want 2", m.ActionFailures)
	}
	if m.TotalReward != 17.5 {
		t.Errorf("TotalReward = %g, want 17.5", m.TotalReward)
	}
	if m.Passed != 2 || m.Failed != 1 {
		t.Errorf("Passed/Failed = %d/%d, want 2/1", m.Passed, m.Failed)
	}
}

func TestGetRunMetricsMissingSeries(t *testing.T) {
	srv := fakePromServer(t, nil)
	defer srv.Close()

	qs, err := NewQueryService(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	m, err := qs.GetRunMetrics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if m.Steps != 0 || m.Episodes != 0 || m.TotalReward != 0 {
		t.Errorf("Expected zeroed metrics for missing series, got %+v", m)
	}
}

func TestNewQueryServiceBadURL(t *testing.T) {
	if _, err := NewQueryService("://not-a-url"); err == nil {
		t.Error("Expected error for malformed URL")
	}
}
