// Command agentenv runs a computer-control agent against a backend, records
// the trajectory, and optionally has an LLM judge score the run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"agentenv/pkg/agentpool"
	"agentenv/pkg/backend"
	"agentenv/pkg/config"
	"agentenv/pkg/driver"
	"agentenv/pkg/env"
	"agentenv/pkg/episode"
	"agentenv/pkg/eval"
	"agentenv/pkg/llm"
	"agentenv/pkg/logx"
	"agentenv/pkg/metrics"
)

func main() {
	var configPath string
	var episodeName string
	var mandate string
	var metricsURL string
	var seed int64
	var debug bool

	flag.StringVar(&configPath, "config", "", "path to YAML config (defaults apply when empty)")
	flag.StringVar(&episodeName, "episode", "episode", "name for the recorded episode")
	flag.StringVar(&mandate, "mandate", "", "mandate to judge the episode against")
	flag.StringVar(&metricsURL, "metrics-url", "", "Prometheus URL to report aggregated run metrics from")
	flag.Int64Var(&seed, "seed", time.Now().UnixNano(), "random agent seed")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	if debug {
		logx.SetDebug(true, nil)
	}
	logger := logx.NewLogger("main")

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			logger.Error("load config: %v", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, episodeName, mandate, metricsURL, seed, logger); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, episodeName, mandate, metricsURL string, seed int64, logger *logx.Logger) error {
	computer, err := backend.Open(cfg.Backend)
	if err != nil {
		return err
	}

	e, err := env.NewComputerEnv(computer)
	if err != nil {
		return err
	}
	defer e.Close()

	agent := agentpool.NewRandomAgent(1920, 1080, seed)
	d := driver.NewDriver(e, agent, episodeFactory(cfg))
	d.Register(metrics.NewStepCallback(metrics.NewRecorder(nil)))

	logger.Info("running episode %s on backend %s (max %d steps)", episodeName, cfg.Backend, cfg.MaxSteps)
	ep, err := d.RunEpisode(ctx, episodeName, cfg.MaxSteps)
	if err != nil {
		return fmt.Errorf("run episode: %w", err)
	}

	total, err := ep.TotalReward()
	if err != nil {
		return err
	}
	logger.Info("episode %s finished: %d steps, total reward %g", episodeName, ep.NumSteps(), total)

	if cfg.Evaluator.Enabled && mandate != "" {
		if err := judge(ctx, cfg, ep, mandate, logger); err != nil {
			return err
		}
	}

	if metricsURL != "" {
		if err := reportMetrics(ctx, metricsURL, logger); err != nil {
			return err
		}
	}
	return nil
}

// reportMetrics scrapes the aggregated loop counters back out of Prometheus
// and logs them, so a run against a scraped registry ends with a summary.
func reportMetrics(ctx context.Context, metricsURL string, logger *logx.Logger) error {
	qs, err := metrics.NewQueryService(metricsURL)
	if err != nil {
		return err
	}
	m, err := qs.GetRunMetrics(ctx)
	if err != nil {
		return fmt.Errorf("query run metrics: %w", err)
	}
	logger.Info("run metrics: %d steps, %d episodes, %d failed actions, total reward %g, evaluations %d pass / %d fail",
		m.Steps, m.Episodes, m.ActionFailures, m.TotalReward, m.Passed, m.Failed)
	return nil
}

func episodeFactory(cfg config.Config) driver.EpisodeFactory {
	switch cfg.Episodes.Store {
	case config.StoreFile:
		return func(name string) (episode.Episode, error) {
			return episode.NewFileEpisode(filepath.Join(cfg.Episodes.Dir, name), episode.Encoding(cfg.Episodes.Encoding))
		}
	case config.StoreSQLite:
		return func(name string) (episode.Episode, error) {
			return episode.NewSQLiteEpisode(filepath.Join(cfg.Episodes.Dir, name+".db"), episode.Encoding(cfg.Episodes.Encoding))
		}
	default:
		return driver.MemoryEpisodeFactory
	}
}

func judge(ctx context.Context, cfg config.Config, ep episode.Episode, mandate string, logger *logx.Logger) error {
	apiKey, err := cfg.APIKey()
	if err != nil {
		return err
	}

	var client llm.Client
	switch cfg.Evaluator.Provider {
	case config.ProviderAnthropic:
		if cfg.Evaluator.Model != "" {
			client = llm.NewClaudeClientWithModel(apiKey, cfg.Evaluator.Model)
		} else {
			client = llm.NewClaudeClient(apiKey)
		}
	default:
		if cfg.Evaluator.Model != "" {
			client = llm.NewOpenAIClientWithModel(apiKey, cfg.Evaluator.Model)
		} else {
			client = llm.NewOpenAIClient(apiKey)
		}
	}

	evaluator, err := eval.NewLLMEvaluator(client)
	if err != nil {
		return err
	}
	result, err := evaluator.EvaluateEpisode(ctx, ep, mandate)
	if err != nil {
		return fmt.Errorf("evaluate episode: %w", err)
	}

	verdict := "FAIL"
	if result.Passed {
		verdict = "PASS"
	}
	logger.Info("mandate verdict: %s (judge: %s)", verdict, client.ModelName())
	return nil
}
