package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/coaching"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/config"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/engine"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/evaluation"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/logging"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/metrics"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/prompts"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/providers"
	"github.com/bartoszgolebiowski/agentic-ai-ostatnie-zadanie/internal/session"
)

// runtimeEnv holds everything a command needs, wired from configuration.
type runtimeEnv struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Coach     *coaching.Coach
	Evaluator *evaluation.Evaluator

	storeCloser io.Closer
	watcher     *prompts.TemplateWatcher
}

func (r *runtimeEnv) Close() {
	if r.watcher != nil {
		_ = r.watcher.Stop()
	}
	if r.storeCloser != nil {
		if err := r.storeCloser.Close(); err != nil {
			r.Logger.Warn("[Store] close failed", zap.Error(err))
		}
	}
	_ = r.Logger.Sync()
}

func prepareRuntimeEnv(ctx context.Context) (*runtimeEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if debug {
		cfg.Debug = true
	}

	logger, err := logging.New(logging.Props{Production: !cfg.IsDevelopment(), Debug: cfg.Debug})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	env := &runtimeEnv{Config: cfg, Logger: logger, Metrics: metrics.New()}

	store, closer, err := session.New(session.Options{
		Backend:     cfg.Persistence.Backend,
		DataDir:     cfg.Persistence.DataDir,
		SQLitePath:  cfg.Persistence.SQLitePath,
		PostgresDSN: cfg.Persistence.PostgresDSN,
		CacheSize:   cfg.Persistence.CacheSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	env.storeCloser = closer
	logger.Info("[Store] session store ready", zap.String("backend", cfg.Persistence.Backend))

	client, model, err := providers.New(ctx, providers.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		env.Close()
		return nil, err
	}
	logger.Info("[Caller] model selected", zap.String("provider", cfg.LLM.Provider), zap.String("model", model))

	policy := engine.DefaultRetryPolicy()
	policy.MaxRetries = cfg.LLM.MaxRetries
	caller := engine.NewCaller(client, model,
		engine.WithChatOptions(engine.ChatOptions{
			Temperature:     cfg.LLM.Temperature,
			MaxOutputTokens: cfg.LLM.MaxTokens,
		}),
		engine.WithRetryPolicy(policy),
		engine.WithMaxConcurrency(cfg.LLM.MaxConcurrency),
		engine.WithLogger(logger),
		engine.WithHook(env.Metrics.CallHook()),
		engine.WithHook(engine.LoggerHook(logger)),
	)

	renderer := prompts.NewCoachRenderer()
	if dir := cfg.PromptTemplateDir; dir != "" {
		loaded, err := renderer.Registry().LoadOverrideDir(dir)
		if err != nil {
			env.Close()
			return nil, err
		}
		if len(loaded) > 0 {
			logger.Info("[Prompts] template overrides loaded", zap.Int("count", len(loaded)), zap.String("dir", dir))
		}
		w, err := prompts.NewTemplateWatcher(dir, renderer.Registry(), func([]string) { renderer.Invalidate() }, logger)
		if err == nil {
			if err = w.Start(); err != nil {
				_ = w.Stop()
			}
		}
		if err != nil {
			logger.Warn("[Prompts] template hot reload disabled", zap.Error(err))
		} else {
			env.watcher = w
		}
	}

	env.Coach = coaching.NewCoach(store, renderer, caller, coaching.Options{
		CoachName:       cfg.Coach.Name,
		DefaultUserID:   cfg.Coach.DefaultUserID,
		DefaultLanguage: cfg.Coach.DefaultLanguage,
		MaxHistory:      cfg.Coach.MaxHistory,
	}, coaching.WithCoachLogger(logger), coaching.WithObserver(env.Metrics))

	env.Evaluator = evaluation.NewEvaluator(caller,
		evaluation.WithEvaluatorLogger(logger),
		evaluation.WithScoreObserver(env.Metrics.ObserveScore))

	return env, nil
}
