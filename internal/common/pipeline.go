package common

import (
	"context"
	stderrors "errors"
	"fmt"

	"neuromatch/internal/ai"
	"neuromatch/internal/cache"
	"neuromatch/internal/config"
	"neuromatch/internal/errors"
	"neuromatch/internal/jobsearch"
	"neuromatch/internal/observability"
	"neuromatch/internal/preanalysis"
	"neuromatch/internal/report"
)

// Pipeline holds the assembled components shared by the CLI and the server
type Pipeline struct {
	Config        *config.Config
	Logger        *errors.Logger
	Observability *observability.ObservabilityManager
	Generator     *ai.Client
	Cache         *cache.ResultCache
	Orchestrator  *report.Orchestrator
	Jobs          *jobsearch.Searcher
	Prompts       *config.PromptStore

	watcher *config.PromptWatcher
}

// NewPipeline wires observability, the generation client, the result cache
// and the orchestrator from configuration. Close must be called when done.
func NewPipeline(ctx context.Context, cfg *config.Config, version string, logger *errors.Logger) (*Pipeline, error) {
	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, version), cfg)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to initialize observability", err)
	}

	p := &Pipeline{
		Config:        cfg,
		Logger:        logger,
		Observability: om,
		Jobs:          jobsearch.NewSearcher(cfg.JobSearch, logger),
	}

	p.Generator, err = ai.NewGenerator(ctx, &cfg.AI, logger, ai.WithRecorder(om))
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}

	p.Cache, err = cache.New(cfg.Report.CacheSize)
	if err != nil {
		_ = p.Close(ctx)
		return nil, errors.NewInternalError(errors.ErrCodeInvalidConfig, "failed to create result cache", err)
	}

	opts := []report.Option{report.WithObserver(om)}
	if dir := cfg.Report.PromptsDir; dir != "" {
		p.Prompts = config.NewPromptStore(dir)
		if err := p.Prompts.Load(); err != nil {
			logger.Warn("Prompt overrides not loaded, using built-in prompts", "dir", dir, "error", err)
		}
		opts = append(opts, report.WithPromptStore(p.Prompts))
	}

	analyzer := preanalysis.NewAnalyzer(preanalysis.Thresholds(cfg.Report.Thresholds))
	p.Orchestrator, err = report.New(p.Generator, p.Cache, analyzer, report.SettingsFromConfig(cfg), logger, opts...)
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}

	return p, nil
}

// WatchPrompts reloads prompt overrides when files in the prompts directory
// change. The result cache is purged after each reload.
func (p *Pipeline) WatchPrompts() error {
	if p.Prompts == nil || !p.Config.Report.WatchPrompts {
		return nil
	}

	watcher, err := config.NewPromptWatcher(p.Prompts, p.Config.Report.PromptDebounce, func(names []string) {
		p.Cache.Purge()
		p.Logger.Info("Prompt overrides reloaded, result cache purged", "prompts", names)
	}, p.Logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to start prompt watcher: %w", err)
	}
	p.watcher = watcher
	return nil
}

// Close stops the watcher, releases the provider and flushes telemetry
func (p *Pipeline) Close(ctx context.Context) error {
	var errs []error
	if p.watcher != nil {
		errs = append(errs, p.watcher.Stop())
	}
	if p.Generator != nil {
		errs = append(errs, p.Generator.Close())
	}
	if p.Observability != nil {
		errs = append(errs, p.Observability.Shutdown(ctx))
	}
	return stderrors.Join(errs...)
}
