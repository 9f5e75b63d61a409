// Package eval judges recorded episodes against a mandate, using an LLM as
// the judge, and accumulates pass/fail counts across evaluations.
package eval

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"agentenv/pkg/action"
	"agentenv/pkg/episode"
	"agentenv/pkg/llm"
	"agentenv/pkg/logx"
)

// Result is one episode's verdict.
type Result struct {
	Passed bool
	// Raw is the judge's unparsed reply, kept for audit.
	Raw string
}

// Metrics are cumulative verdict counts since the evaluator was created.
type Metrics struct {
	Evaluated int
	Passed    int
	Failed    int
}

// PassRate returns the fraction of evaluated episodes that passed, or 0
// before any evaluation.
func (m Metrics) PassRate() float64 {
	if m.Evaluated == 0 {
		return 0
	}
	return float64(m.Passed) / float64(m.Evaluated)
}

// Evaluator scores episodes against a mandate.
type Evaluator interface {
	EvaluateEpisode(ctx context.Context, ep episode.Episode, mandate string) (Result, error)
	Metrics() Metrics
}

const systemPrompt = `You are judging whether a computer-control agent fulfilled its mandate.
You will receive the mandate and the agent's step-by-step trajectory.
Reply with a single word on the first line: PASS if the mandate was fulfilled, FAIL otherwise.
A short justification may follow on later lines.`

// defaultMaxPromptTokens caps the transcript so the whole prompt fits
// comfortably in the judge's context window.
const defaultMaxPromptTokens = 8000

// LLMEvaluator asks a completion model for a PASS/FAIL verdict per episode.
type LLMEvaluator struct {
	client          llm.Client
	counter         *llm.TokenCounter
	maxPromptTokens int

	mu      sync.Mutex
	metrics Metrics

	logger *logx.Logger
}

// NewLLMEvaluator builds an evaluator over the given judge client.
func NewLLMEvaluator(client llm.Client) (*LLMEvaluator, error) {
	counter, err := llm.NewTokenCounter(client.ModelName())
	if err != nil {
		return nil, err
	}
	return &LLMEvaluator{
		client:          client,
		counter:         counter,
		maxPromptTokens: defaultMaxPromptTokens,
		logger:          logx.NewLogger("eval"),
	}, nil
}

// EvaluateEpisode renders the trajectory, asks the judge, and parses the
// verdict. Every parsed verdict updates the cumulative metrics.
func (e *LLMEvaluator) EvaluateEpisode(ctx context.Context, ep episode.Episode, mandate string) (Result, error) {
	transcript, err := Transcript(ep)
	if err != nil {
		return Result{}, fmt.Errorf("render trajectory: %w", err)
	}
	transcript = e.counter.TruncateToTokenLimit(transcript, e.maxPromptTokens)

	resp, err := e.client.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: fmt.Sprintf("Mandate:\n%s\n\nTrajectory:\n%s", mandate, transcript)},
		},
		MaxTokens: 256,
	})
	if err != nil {
		return Result{}, fmt.Errorf("judge completion: %w", err)
	}

	passed, err := parseVerdict(resp.Content)
	if err != nil {
		return Result{Raw: resp.Content}, err
	}

	e.mu.Lock()
	e.metrics.Evaluated++
	if passed {
		e.metrics.Passed++
	} else {
		e.metrics.Failed++
	}
	e.mu.Unlock()

	e.logger.Debug("verdict passed=%v after %d steps", passed, ep.NumSteps())
	return Result{Passed: passed, Raw: resp.Content}, nil
}

// Metrics returns the cumulative verdict counts.
func (e *LLMEvaluator) Metrics() Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metrics
}

// parseVerdict accepts a reply whose first word is PASS or FAIL.
func parseVerdict(reply string) (bool, error) {
	fields := strings.Fields(strings.ToUpper(reply))
	if len(fields) == 0 {
		return false, fmt.Errorf("empty verdict")
	}
	switch strings.Trim(fields[0], ".:,!") {
	case "PASS":
		return true, nil
	case "FAIL":
		return false, nil
	default:
		return false, fmt.Errorf("unparseable verdict %q", firstLine(reply))
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// Transcript renders an episode as numbered steps for the judge prompt.
func Transcript(ep episode.Episode) (string, error) {
	var b strings.Builder
	it := ep.IterSteps()
	for i := 0; it.Next(); i++ {
		step := it.Step()
		fmt.Fprintf(&b, "Step %d: %s", i+1, describeAction(step.Action))
		if step.Reward != 0 {
			fmt.Fprintf(&b, " (reward %g)", step.Reward)
		}
		if code, ok := step.Info["exit_code"]; ok {
			fmt.Fprintf(&b, " (exit %v)", code)
		}
		b.WriteByte('\n')
	}
	if err := it.Err(); err != nil {
		return "", err
	}
	if b.Len() == 0 {
		return "(no steps recorded)\n", nil
	}
	return b.String(), nil
}

func describeAction(a action.Action) string {
	if a == nil {
		return "no action"
	}
	data, err := action.MarshalAction(a)
	if err != nil {
		return string(a.Type())
	}
	return string(data)
}
