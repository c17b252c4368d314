package report

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"neuromatch/internal/ai"
	"neuromatch/internal/cache"
	"neuromatch/internal/config"
	"neuromatch/internal/errors"
	"neuromatch/internal/preanalysis"
	"neuromatch/internal/structured"
	"neuromatch/internal/types"
	"neuromatch/internal/utils"
)

// Settings holds the tunables of a report run
type Settings struct {
	DefaultMode    types.Mode
	SectionTimeout time.Duration
	KeepAlive      time.Duration
	MinResumeChars int
	MaxResumeChars int
	MaxJDChars     int
	MaxFieldChars  int
	Budgets        map[types.Mode]int
	Temperature    float32
	SystemPrompt   string
}

// SettingsFromConfig maps loaded configuration onto Settings
func SettingsFromConfig(cfg *config.Config) Settings {
	mode, ok := types.ParseMode(cfg.Report.DefaultMode)
	if !ok {
		mode = types.ModeBalanced
	}
	return Settings{
		DefaultMode:    mode,
		SectionTimeout: cfg.Report.SectionTimeout,
		KeepAlive:      cfg.Report.KeepAliveInterval,
		MinResumeChars: cfg.Report.MinResumeChars,
		MaxResumeChars: cfg.Report.MaxResumeChars,
		MaxJDChars:     cfg.Report.MaxJobDescriptionChars,
		MaxFieldChars:  cfg.Report.MaxFieldChars,
		Budgets: map[types.Mode]int{
			types.ModeFast:     cfg.Report.Budgets.Fast,
			types.ModeBalanced: cfg.Report.Budgets.Balanced,
			types.ModeDeep:     cfg.Report.Budgets.Deep,
		},
		Temperature:  cfg.AI.Temperature,
		SystemPrompt: cfg.AI.SystemPrompt,
	}
}

func (s Settings) withDefaults() Settings {
	if s.DefaultMode == "" {
		s.DefaultMode = types.ModeBalanced
	}
	if s.SectionTimeout <= 0 {
		s.SectionTimeout = 45 * time.Second
	}
	if s.Budgets == nil {
		s.Budgets = map[types.Mode]int{}
	}
	return s
}

// Observer receives run telemetry. Implementations must be safe for
// concurrent use.
type Observer interface {
	SectionFinished(ctx context.Context, section string, phase int, status types.SectionStatus, elapsed time.Duration)
	CacheLookup(ctx context.Context, section string, hit bool)
	RunFinished(ctx context.Context, mode types.Mode, summary types.Completion)
}

type noopObserver struct{}

func (noopObserver) SectionFinished(context.Context, string, int, types.SectionStatus, time.Duration) {
}
func (noopObserver) CacheLookup(context.Context, string, bool)                  {}
func (noopObserver) RunFinished(context.Context, types.Mode, types.Completion) {}

// Orchestrator produces career reports as event streams
type Orchestrator struct {
	gen      ai.Generator
	cache    *cache.ResultCache
	analyzer *preanalysis.Analyzer
	settings Settings
	store    *config.PromptStore
	prompts  *promptBuilder
	observer Observer
	logger   *errors.Logger
}

// Option customises an Orchestrator
type Option func(*Orchestrator)

// WithPromptStore enables file-based prompt overrides
func WithPromptStore(store *config.PromptStore) Option {
	return func(o *Orchestrator) {
		o.store = store
	}
}

// WithObserver attaches run telemetry
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// New creates an Orchestrator. A nil cache gets a private one of the
// default size.
func New(gen ai.Generator, resultCache *cache.ResultCache, analyzer *preanalysis.Analyzer,
	settings Settings, logger *errors.Logger, opts ...Option) (*Orchestrator, error) {
	if resultCache == nil {
		var err error
		resultCache, err = cache.New(cache.DefaultSize)
		if err != nil {
			return nil, err
		}
	}
	if analyzer == nil {
		analyzer = preanalysis.NewAnalyzer(preanalysis.DefaultThresholds())
	}

	o := &Orchestrator{
		gen:      gen,
		cache:    resultCache,
		analyzer: analyzer,
		settings: settings.withDefaults(),
		observer: noopObserver{},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.prompts = newPromptBuilder(o.store, o.settings.SystemPrompt, logger)
	return o, nil
}

// Cache exposes the result cache for stats reporting
func (o *Orchestrator) Cache() *cache.ResultCache {
	return o.cache
}

// run is the state of one report request
type run struct {
	id     string
	req    types.ReportRequest
	mode   types.Mode
	pre    types.PreAnalysis
	preRaw string
	start  time.Time
	logger *errors.Logger

	mu       sync.Mutex
	results  map[string]sectionOutcome
	emitting chan<- types.Event
}

type sectionOutcome struct {
	status  types.SectionStatus
	data    structured.Object
	err     *types.EventError
	elapsed time.Duration
}

// Run validates req and starts a report. Validation failures are returned
// before anything is dispatched. Otherwise the returned channel yields one
// terminal event per section, keep-alive events while idle and exactly one
// done event last, then closes. If ctx ends, outstanding sections are
// cancelled and undelivered events are dropped.
func (o *Orchestrator) Run(ctx context.Context, req types.ReportRequest) (<-chan types.Event, error) {
	in, mode, err := o.prepare(req)
	if err != nil {
		return nil, err
	}

	pre := o.analyzer.Analyze(in.ResumeText, in.JobDescription)
	r := &run{
		id:      uuid.NewString(),
		req:     in,
		mode:    mode,
		pre:     pre,
		preRaw:  compactJSON(pre),
		start:   time.Now(),
		results: map[string]sectionOutcome{},
	}
	r.logger = o.logger.With("run_id", r.id, "mode", string(mode))
	r.logger.Info("Report run started",
		"resume_chars", utf8.RuneCountInString(in.ResumeText),
		"has_jd", in.JobDescription != "",
		"anchor", string(pre.MinimumLevelAnchor))

	raw := make(chan types.Event)
	out := make(chan types.Event)
	r.emitting = raw

	go o.execute(ctx, r, raw)
	go o.forward(ctx, raw, out, o.settings.KeepAlive)

	return out, nil
}

// prepare normalises the request and rejects invalid input
func (o *Orchestrator) prepare(req types.ReportRequest) (types.ReportRequest, types.Mode, error) {
	s := o.settings
	in := types.ReportRequest{
		ResumeText:     utils.NormalizeText(req.ResumeText, s.MaxResumeChars),
		JobDescription: utils.NormalizeText(req.JobDescription, s.MaxJDChars),
		TargetRole:     utils.NormalizeText(req.TargetRole, s.MaxFieldChars),
		Location:       utils.NormalizeText(req.Location, s.MaxFieldChars),
		Industry:       utils.NormalizeText(req.Industry, s.MaxFieldChars),
	}

	if n := utf8.RuneCountInString(in.ResumeText); n < s.MinResumeChars || n == 0 {
		return in, "", errors.NewValidationError(errors.ErrCodeResumeTooShort,
			fmt.Sprintf("résumé text is too short (%d characters, minimum %d)", n, s.MinResumeChars), nil).
			WithContext("min_chars", s.MinResumeChars)
	}

	mode := s.DefaultMode
	if req.Mode != "" {
		parsed, ok := types.ParseMode(string(req.Mode))
		if !ok {
			return in, "", errors.NewValidationError(errors.ErrCodeInvalidMode,
				fmt.Sprintf("unknown mode %q (must be fast, balanced or deep)", req.Mode), nil)
		}
		mode = parsed
	}
	in.Mode = mode
	return in, mode, nil
}

// execute runs both phases and emits the done event
func (o *Orchestrator) execute(ctx context.Context, r *run, events chan<- types.Event) {
	defer close(events)

	hasJD := r.req.JobDescription != ""
	o.runPhase(ctx, r, 1, SectionsForPhase(1, hasJD), "")
	var phaseCtx string
	if prior := r.phaseContext(); prior != nil {
		phaseCtx = compactJSON(prior)
	}
	o.runPhase(ctx, r, 2, SectionsForPhase(2, hasJD), phaseCtx)

	summary := r.completion()
	o.observer.RunFinished(ctx, r.mode, summary)
	r.logger.Info("Report run completed",
		"elapsed_ms", summary.ElapsedMS,
		"succeeded", summary.Succeeded,
		"degraded", summary.Degraded,
		"failed", summary.Failed,
		"cache_hits", summary.CacheHits)

	r.emit(ctx, types.Event{
		Type:      types.EventDone,
		RunID:     r.id,
		ElapsedMS: summary.ElapsedMS,
		Summary:   &summary,
	})
}

// runPhase dispatches every section of a phase concurrently and returns
// once all of them have emitted their terminal event. Section goroutines
// never return an error so one failure cannot cancel its siblings.
func (o *Orchestrator) runPhase(ctx context.Context, r *run, phase int, specs []SectionSpec, contextJSON string) {
	if len(specs) == 0 {
		return
	}
	r.logger.Debug("Phase started", "phase", phase, "sections", len(specs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(specs))
	for _, spec := range specs {
		g.Go(func() error {
			outcome := o.runSection(gctx, r, spec, contextJSON)
			r.record(spec.ID, outcome)
			o.observer.SectionFinished(gctx, spec.ID, phase, outcome.status, outcome.elapsed)
			r.emit(gctx, sectionEvent(r.id, spec, outcome))
			return nil
		})
	}
	_ = g.Wait()
}

// runSection produces the terminal outcome of one section
func (o *Orchestrator) runSection(ctx context.Context, r *run, spec SectionSpec, contextJSON string) sectionOutcome {
	start := time.Now()
	logger := r.logger.With("section", spec.ID, "phase", spec.Phase)

	data := promptData{
		Resume:         r.req.ResumeText,
		JobDescription: r.req.JobDescription,
		TargetRole:     r.req.TargetRole,
		Location:       r.req.Location,
		Industry:       r.req.Industry,
		PreAnalysis:    r.preRaw,
		Context:        contextJSON,
	}
	messages := o.prompts.messages(spec, data)

	key := cache.Key(r.req.ResumeText, r.req.JobDescription, r.req.TargetRole, r.req.Location,
		r.req.Industry, spec.ID, string(r.mode), contextJSON, messages[0].Content, messages[1].Content)
	if cached, ok := o.cache.Get(key); ok {
		o.observer.CacheLookup(ctx, spec.ID, true)
		logger.Debug("Section served from cache")
		return sectionOutcome{status: types.StatusCached, data: cached, elapsed: time.Since(start)}
	}
	o.observer.CacheLookup(ctx, spec.ID, false)

	if err := ctx.Err(); err != nil {
		return sectionOutcome{
			status:  types.StatusError,
			err:     &types.EventError{Code: errors.ErrCodeSectionCancelled, Message: "report run cancelled"},
			elapsed: time.Since(start),
		}
	}

	sctx, cancel := context.WithTimeout(ctx, o.settings.SectionTimeout)
	defer cancel()

	temperature := spec.Temperature
	if temperature == 0 {
		temperature = o.settings.Temperature
	}
	gen, err := o.gen.Generate(sctx, ai.GenerationRequest{
		Section:         spec.ID,
		Messages:        messages,
		Tier:            spec.Tier(r.mode),
		MaxOutputTokens: o.settings.Budgets[r.mode],
		Temperature:     temperature,
		JSON:            true,
	})
	if err != nil {
		logger.LogError(err, "Section failed", "elapsed_ms", time.Since(start).Milliseconds())
		return sectionOutcome{status: types.StatusError, err: eventError(err), elapsed: time.Since(start)}
	}

	obj, outcome := structured.Resolve(sctx, gen.Text, o.repairFunc(spec, r.mode))
	obj = structured.Backfill(obj, spec.Shape)
	obj = postProcess(spec.ID, obj, r.pre)

	status := types.StatusOK
	switch outcome {
	case structured.Repaired:
		status = types.StatusRepaired
	case structured.Fallback:
		status = types.StatusFallback
	}
	if status != types.StatusFallback {
		o.cache.Set(key, obj)
	}

	logger.Debug("Section completed",
		"status", string(status),
		"model", gen.Model,
		"elapsed_ms", time.Since(start).Milliseconds())
	return sectionOutcome{status: status, data: obj, elapsed: time.Since(start)}
}

// repairFunc issues the single repair request on the light tier
func (o *Orchestrator) repairFunc(spec SectionSpec, mode types.Mode) structured.RepairFunc {
	return func(ctx context.Context, raw string) (string, error) {
		gen, err := o.gen.Generate(ctx, ai.GenerationRequest{
			Section:         spec.ID + "_repair",
			Messages:        repairMessages(raw),
			Tier:            ai.TierLight,
			MaxOutputTokens: o.settings.Budgets[mode],
			JSON:            true,
		})
		if err != nil {
			return "", err
		}
		return gen.Text, nil
	}
}

// forward relays events from in to out, inserting a keep-alive whenever
// nothing was sent for interval
func (o *Orchestrator) forward(ctx context.Context, in <-chan types.Event, out chan<- types.Event, interval time.Duration) {
	defer close(out)

	var ticker *time.Ticker
	var tick <-chan time.Time
	if interval > 0 {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case ev, ok := <-in:
			if !ok {
				return
			}
			if !send(ctx, out, ev) {
				drain(in)
				return
			}
			if ticker != nil {
				ticker.Reset(interval)
			}
		case <-tick:
			if !send(ctx, out, types.Event{Type: types.EventKeepAlive}) {
				drain(in)
				return
			}
		}
	}
}

func send(ctx context.Context, out chan<- types.Event, ev types.Event) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func drain(in <-chan types.Event) {
	for range in {
	}
}

// emit hands an event to the forwarder unless the run was abandoned
func (r *run) emit(ctx context.Context, ev types.Event) {
	select {
	case r.emitting <- ev:
	case <-ctx.Done():
	}
}

func (r *run) record(section string, outcome sectionOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[section] = outcome
}

// phaseContext collects the usable phase-1 outputs that phase 2 builds on
func (r *run) phaseContext() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior := map[string]any{}
	for _, id := range phase2Context {
		res, ok := r.results[id]
		if !ok {
			continue
		}
		switch res.status {
		case types.StatusOK, types.StatusRepaired, types.StatusCached:
			prior[id] = res.data
		}
	}
	if len(prior) == 0 {
		return nil
	}
	return prior
}

func (r *run) completion() types.Completion {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := types.Completion{
		Mode:        r.mode,
		ElapsedMS:   time.Since(r.start).Milliseconds(),
		PreAnalysis: r.pre,
		Sections:    make(map[string]types.SectionStatus, len(r.results)),
	}
	for id, res := range r.results {
		c.Sections[id] = res.status
		switch res.status {
		case types.StatusOK, types.StatusRepaired:
			c.Succeeded++
		case types.StatusCached:
			c.Succeeded++
			c.CacheHits++
		case types.StatusFallback:
			c.Degraded++
		case types.StatusError:
			c.Failed++
		}
	}
	return c
}

func sectionEvent(runID string, spec SectionSpec, outcome sectionOutcome) types.Event {
	ev := types.Event{
		Type:      types.EventSection,
		RunID:     runID,
		Section:   spec.ID,
		Phase:     spec.Phase,
		Status:    outcome.status,
		Data:      outcome.data,
		ElapsedMS: outcome.elapsed.Milliseconds(),
	}
	if outcome.status == types.StatusError {
		ev.Type = types.EventSectionError
		ev.Data = nil
		ev.Error = outcome.err
	}
	return ev
}

// eventError converts a generation failure into its caller-visible form
func eventError(err error) *types.EventError {
	appErr, ok := errors.As(err)
	if !ok {
		return &types.EventError{Code: errors.ErrCodeAIServiceFailed, Message: err.Error()}
	}
	msg := appErr.Message
	if payload, ok := appErr.Context["payload"].(string); ok && payload != "" {
		msg += ": " + payload
	}
	return &types.EventError{Code: appErr.Code, Message: msg}
}
