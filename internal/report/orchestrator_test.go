package report

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuromatch/internal/ai"
	"neuromatch/internal/cache"
	"neuromatch/internal/errors"
	"neuromatch/internal/preanalysis"
	"neuromatch/internal/types"
)

const testResume = `Jane Doe
Software Engineer at Acme Corp 2019 - present
Built payment services in Go and PostgreSQL, cut p99 latency by 40%.
Engineer at Beta Ltd 2015 - 2019
B.Sc. Computer Science`

var defaultResponses = map[string]string{
	SectionSummary:      `{"headline":"Backend engineer","summary_en":"Go engineer","summary_cn":"后端工程师","highlights":["Go"]}`,
	SectionImprovements: `{"skills_keywords_core":["go","postgresql"]}`,
	SectionDiagnosis:    `{"overall":"solid","strengths":["Go"],"risks":[],"gaps":[]}`,
	SectionLevel:        `{"level":"Senior","confidence":0.7,"rationale":"ten years of backend work"}`,
	SectionStrategy:     `{"paths":[{"title":"Staff engineer"}],"next_steps":["lead a migration"]}`,
	SectionInterview:    `{"questions":[{"q":"Why Go?","a":"Talk about concurrency"}],"tips":[]}`,
	SectionSalary:       `{"currency":"USD","range_low":120000,"range_high":160000}`,
	SectionATS:          `{"score":72,"keywords":["kubernetes"]}`,
}

type fakeGenerator struct {
	calls     atomic.Int32
	responses map[string]string
	errs      map[string]error
	delays    map[string]time.Duration

	mu       sync.Mutex
	requests []ai.GenerationRequest
	log      []string
}

func newFakeGenerator() *fakeGenerator {
	responses := make(map[string]string, len(defaultResponses))
	for k, v := range defaultResponses {
		responses[k] = v
	}
	return &fakeGenerator{
		responses: responses,
		errs:      map[string]error{},
		delays:    map[string]time.Duration{},
	}
}

func (f *fakeGenerator) Generate(ctx context.Context, req ai.GenerationRequest) (*ai.Generation, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.log = append(f.log, "start:"+req.Section)
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.log = append(f.log, "end:"+req.Section)
		f.mu.Unlock()
	}()

	if d := f.delays[req.Section]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, errors.NewAIError(errors.ErrCodeAITimeout, "generation timed out", ctx.Err())
		}
	}
	if err := f.errs[req.Section]; err != nil {
		return nil, err
	}
	text, ok := f.responses[req.Section]
	if !ok {
		text = "{}"
	}
	return &ai.Generation{Text: text, Model: "fake-" + string(req.Tier)}, nil
}

func (f *fakeGenerator) ModelInfo(context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Provider: "fake", Available: true}
}

func (f *fakeGenerator) Close() error { return nil }

func (f *fakeGenerator) requestFor(section string) (ai.GenerationRequest, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.Section == section {
			return r, true
		}
	}
	return ai.GenerationRequest{}, false
}

func (f *fakeGenerator) sectionsCalled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.requests))
	for _, r := range f.requests {
		out = append(out, r.Section)
	}
	return out
}

type recordingObserver struct {
	mu       sync.Mutex
	sections map[string]types.SectionStatus
	hits     int
	misses   int
	runs     int
}

func (r *recordingObserver) SectionFinished(_ context.Context, section string, _ int, status types.SectionStatus, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sections == nil {
		r.sections = map[string]types.SectionStatus{}
	}
	r.sections[section] = status
}

func (r *recordingObserver) CacheLookup(_ context.Context, _ string, hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *recordingObserver) RunFinished(context.Context, types.Mode, types.Completion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs++
}

func testSettings() Settings {
	return Settings{
		DefaultMode:    types.ModeBalanced,
		SectionTimeout: 2 * time.Second,
		MinResumeChars: 50,
		MaxResumeChars: 4000,
		MaxJDChars:     4000,
		MaxFieldChars:  200,
		Budgets: map[types.Mode]int{
			types.ModeFast:     900,
			types.ModeBalanced: 1400,
			types.ModeDeep:     2200,
		},
	}
}

func newTestOrchestrator(t *testing.T, gen ai.Generator, settings Settings, opts ...Option) *Orchestrator {
	t.Helper()
	c, err := cache.New(64)
	require.NoError(t, err)
	analyzer := preanalysis.NewAnalyzer(preanalysis.DefaultThresholds(),
		preanalysis.WithClock(func() time.Time { return time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC) }))
	o, err := New(gen, c, analyzer, settings, errors.Discard(), opts...)
	require.NoError(t, err)
	return o
}

func collectEvents(t *testing.T, ch <-chan types.Event) []types.Event {
	t.Helper()
	var events []types.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			require.FailNow(t, "event stream did not close")
		}
	}
}

func terminalEvents(events []types.Event) map[string]types.Event {
	out := map[string]types.Event{}
	for _, ev := range events {
		if ev.Type == types.EventSection || ev.Type == types.EventSectionError {
			out[ev.Section] = ev
		}
	}
	return out
}

func TestRunEmitsEverySectionAndDoneLast(t *testing.T) {
	gen := newFakeGenerator()
	o := newTestOrchestrator(t, gen, testSettings())

	ch, err := o.Run(context.Background(), types.ReportRequest{
		ResumeText:     testResume,
		JobDescription: "Senior Go engineer, Kubernetes experience required.",
		TargetRole:     "Staff Engineer",
	})
	require.NoError(t, err)
	events := collectEvents(t, ch)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, types.EventDone, last.Type)
	require.NotNil(t, last.Summary)
	assert.Equal(t, 8, last.Summary.Succeeded)
	assert.Zero(t, last.Summary.Failed)
	assert.Equal(t, types.ModeBalanced, last.Summary.Mode)

	done := 0
	for _, ev := range events {
		if ev.Type == types.EventDone {
			done++
		}
		assert.Equal(t, last.RunID, ev.RunID)
	}
	assert.Equal(t, 1, done)

	terminal := terminalEvents(events)
	assert.Len(t, terminal, 8)
	for id, ev := range terminal {
		assert.Equal(t, types.StatusOK, ev.Status, id)
	}
	assert.Equal(t, "Backend engineer", terminal[SectionSummary].Data["headline"])
}

func TestRunPhaseOneCompletesBeforePhaseTwo(t *testing.T) {
	gen := newFakeGenerator()
	gen.delays[SectionLevel] = 80 * time.Millisecond
	gen.delays[SectionSummary] = 20 * time.Millisecond
	o := newTestOrchestrator(t, gen, testSettings())

	ch, err := o.Run(context.Background(), types.ReportRequest{ResumeText: testResume})
	require.NoError(t, err)
	events := collectEvents(t, ch)

	lastPhase1, firstPhase2 := -1, len(events)
	for i, ev := range events {
		switch ev.Phase {
		case 1:
			lastPhase1 = i
		case 2:
			if i < firstPhase2 {
				firstPhase2 = i
			}
		}
	}
	require.NotEqual(t, -1, lastPhase1)
	assert.Less(t, lastPhase1, firstPhase2)

	gen.mu.Lock()
	log := append([]string(nil), gen.log...)
	gen.mu.Unlock()

	lastPhase1End, firstPhase2Start := -1, len(log)
	for i, entry := range log {
		section := entry[strings.Index(entry, ":")+1:]
		spec, ok := Lookup(section)
		require.True(t, ok, section)
		if spec.Phase == 1 && strings.HasPrefix(entry, "end:") {
			lastPhase1End = i
		}
		if spec.Phase == 2 && strings.HasPrefix(entry, "start:") && i < firstPhase2Start {
			firstPhase2Start = i
		}
	}
	assert.Less(t, lastPhase1End, firstPhase2Start)
}

func TestRunSkipsATSWithoutJobDescription(t *testing.T) {
	gen := newFakeGenerator()
	o := newTestOrchestrator(t, gen, testSettings())

	ch, err := o.Run(context.Background(), types.ReportRequest{ResumeText: testResume})
	require.NoError(t, err)
	terminal := terminalEvents(collectEvents(t, ch))

	assert.Len(t, terminal, 7)
	assert.NotContains(t, terminal, SectionATS)
	assert.NotContains(t, gen.sectionsCalled(), SectionATS)
}

func TestRunRejectsShortResumeWithoutDispatch(t *testing.T) {
	gen := newFakeGenerator()
	obs := &recordingObserver{}
	o := newTestOrchestrator(t, gen, testSettings(), WithObserver(obs))

	ch, err := o.Run(context.Background(), types.ReportRequest{ResumeText: "  Jane Doe,   engineer  "})
	require.Error(t, err)
	assert.Nil(t, ch)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, errors.ErrCodeResumeTooShort, errors.CodeOf(err))
	assert.Zero(t, gen.calls.Load())
	assert.Zero(t, obs.runs)
}

func TestRunRejectsUnknownMode(t *testing.T) {
	gen := newFakeGenerator()
	o := newTestOrchestrator(t, gen, testSettings())

	_, err := o.Run(context.Background(), types.ReportRequest{ResumeText: testResume, Mode: "turbo"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidMode, errors.CodeOf(err))
	assert.Zero(t, gen.calls.Load())
}

func TestRunModeSelectsTier(t *testing.T) {
	tests := []struct {
		mode  types.Mode
		heavy []string
	}{
		{types.ModeFast, nil},
		{types.ModeBalanced, []string{SectionDiagnosis, SectionLevel, SectionStrategy, SectionInterview}},
		{types.ModeDeep, []string{SectionSummary, SectionImprovements, SectionDiagnosis, SectionLevel,
			SectionStrategy, SectionInterview, SectionSalary, SectionATS}},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			gen := newFakeGenerator()
			o := newTestOrchestrator(t, gen, testSettings())

			ch, err := o.Run(context.Background(), types.ReportRequest{
				ResumeText:     testResume,
				JobDescription: "Go engineer",
				Mode:           tt.mode,
			})
			require.NoError(t, err)
			collectEvents(t, ch)

			for _, spec := range Catalogue {
				req, ok := gen.requestFor(spec.ID)
				require.True(t, ok, spec.ID)
				want := ai.TierLight
				for _, h := range tt.heavy {
					if h == spec.ID {
						want = ai.TierHeavy
					}
				}
				assert.Equal(t, want, req.Tier, spec.ID)
				assert.Equal(t, testSettings().Budgets[tt.mode], req.MaxOutputTokens, spec.ID)
				assert.True(t, req.JSON)
			}
		})
	}
}

func TestRunIdenticalResubmissionIsServedFromCache(t *testing.T) {
	gen := newFakeGenerator()
	obs := &recordingObserver{}
	o := newTestOrchestrator(t, gen, testSettings(), WithObserver(obs))
	req := types.ReportRequest{ResumeText: testResume, JobDescription: "Go engineer", Mode: types.ModeFast}

	first, err := o.Generate(context.Background(), req)
	require.NoError(t, err)
	require.True(t, first.Complete)
	calls := gen.calls.Load()
	assert.Equal(t, int32(8), calls)

	ch, err := o.Run(context.Background(), req)
	require.NoError(t, err)
	events := collectEvents(t, ch)

	assert.Equal(t, calls, gen.calls.Load())
	for id, ev := range terminalEvents(events) {
		assert.Equal(t, types.StatusCached, ev.Status, id)
		assert.Equal(t, first.Sections[id].Data, ev.Data, id)
	}
	done := events[len(events)-1]
	require.NotNil(t, done.Summary)
	assert.Equal(t, 8, done.Summary.CacheHits)
	assert.Equal(t, 8, obs.hits)
}

func TestRunDifferentModeIsNotCached(t *testing.T) {
	gen := newFakeGenerator()
	o := newTestOrchestrator(t, gen, testSettings())
	req := types.ReportRequest{ResumeText: testResume, Mode: types.ModeFast}

	_, err := o.Generate(context.Background(), req)
	require.NoError(t, err)
	req.Mode = types.ModeDeep
	_, err = o.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, int32(14), gen.calls.Load())
}

func TestRunSectionTimeoutDoesNotAffectSiblings(t *testing.T) {
	gen := newFakeGenerator()
	gen.delays[SectionSalary] = time.Second
	settings := testSettings()
	settings.SectionTimeout = 50 * time.Millisecond
	o := newTestOrchestrator(t, gen, settings)

	ch, err := o.Run(context.Background(), types.ReportRequest{ResumeText: testResume})
	require.NoError(t, err)
	events := collectEvents(t, ch)
	terminal := terminalEvents(events)

	salary := terminal[SectionSalary]
	assert.Equal(t, types.EventSectionError, salary.Type)
	assert.Equal(t, types.StatusError, salary.Status)
	require.NotNil(t, salary.Error)
	assert.Equal(t, errors.ErrCodeAITimeout, salary.Error.Code)

	errorsSeen := 0
	for id, ev := range terminal {
		if ev.Type == types.EventSectionError {
			errorsSeen++
			continue
		}
		assert.Equal(t, types.StatusOK, ev.Status, id)
	}
	assert.Equal(t, 1, errorsSeen)

	done := events[len(events)-1]
	require.Equal(t, types.EventDone, done.Type)
	assert.Equal(t, 1, done.Summary.Failed)
	assert.Equal(t, 6, done.Summary.Succeeded)
}

func TestRunGenerationErrorCarriesCode(t *testing.T) {
	gen := newFakeGenerator()
	gen.errs[SectionInterview] = errors.NewAIError(errors.ErrCodeAIBadStatus, "openai returned HTTP 502", nil).
		WithContext("payload", "upstream unavailable")
	o := newTestOrchestrator(t, gen, testSettings())

	rep, err := o.Generate(context.Background(), types.ReportRequest{ResumeText: testResume})
	require.NoError(t, err)

	interview := rep.Sections[SectionInterview]
	assert.Equal(t, types.StatusError, interview.Status)
	require.NotNil(t, interview.Error)
	assert.Equal(t, errors.ErrCodeAIBadStatus, interview.Error.Code)
	assert.Contains(t, interview.Error.Message, "upstream unavailable")
	assert.Equal(t, types.StatusOK, rep.Sections[SectionStrategy].Status)
}

func TestRunFencedJSONNeedsNoRepair(t *testing.T) {
	gen := newFakeGenerator()
	gen.responses[SectionSummary] = "```json\n{\"headline\": \"Platform engineer\",}\n```"
	o := newTestOrchestrator(t, gen, testSettings())

	rep, err := o.Generate(context.Background(), types.ReportRequest{ResumeText: testResume})
	require.NoError(t, err)

	summary := rep.Sections[SectionSummary]
	assert.Equal(t, types.StatusOK, summary.Status)
	assert.Equal(t, "Platform engineer", summary.Data["headline"])
	assert.Equal(t, []any{}, summary.Data["highlights"])
	assert.NotContains(t, gen.sectionsCalled(), SectionSummary+"_repair")
}

func TestRunRepairAndFallback(t *testing.T) {
	gen := newFakeGenerator()
	gen.responses[SectionImprovements] = "Here are my thoughts: add metrics"
	gen.responses[SectionImprovements+"_repair"] = `{"bullets_to_add":["Add metrics"]}`
	gen.responses[SectionSalary] = "I cannot estimate salaries"
	gen.responses[SectionSalary+"_repair"] = "still not json"
	o := newTestOrchestrator(t, gen, testSettings())
	req := types.ReportRequest{ResumeText: testResume}

	rep, err := o.Generate(context.Background(), req)
	require.NoError(t, err)

	improvements := rep.Sections[SectionImprovements]
	assert.Equal(t, types.StatusRepaired, improvements.Status)
	assert.Equal(t, []any{"Add metrics"}, improvements.Data["bullets_to_add"])

	repairReq, ok := gen.requestFor(SectionImprovements + "_repair")
	require.True(t, ok)
	assert.Equal(t, ai.TierLight, repairReq.Tier)

	salary := rep.Sections[SectionSalary]
	assert.Equal(t, types.StatusFallback, salary.Status)
	assert.Equal(t, true, salary.Data["parse_failed"])
	assert.Contains(t, salary.Data["raw_preview"], "I cannot estimate salaries")
	assert.Contains(t, salary.Data, "currency")

	calls := gen.calls.Load()
	rep, err = o.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, types.StatusCached, rep.Sections[SectionImprovements].Status)
	assert.Equal(t, types.StatusFallback, rep.Sections[SectionSalary].Status)
	assert.Equal(t, calls+2, gen.calls.Load())
}

func TestRunPhaseTwoReceivesPhaseOneContext(t *testing.T) {
	gen := newFakeGenerator()
	gen.responses[SectionDiagnosis] = `{"overall":"strong distributed systems background","risks":[]}`
	o := newTestOrchestrator(t, gen, testSettings())

	_, err := o.Generate(context.Background(), types.ReportRequest{ResumeText: testResume})
	require.NoError(t, err)

	strategy, ok := gen.requestFor(SectionStrategy)
	require.True(t, ok)
	user := strategy.Messages[len(strategy.Messages)-1].Content
	assert.Contains(t, user, "Findings from earlier sections")
	assert.Contains(t, user, "strong distributed systems background")

	summary, ok := gen.requestFor(SectionSummary)
	require.True(t, ok)
	assert.NotContains(t, summary.Messages[len(summary.Messages)-1].Content, "Findings from earlier sections")
}

func TestRunPhaseTwoRunsWithEmptyContextWhenPhaseOneFails(t *testing.T) {
	gen := newFakeGenerator()
	gen.errs[SectionDiagnosis] = errors.NewAIError(errors.ErrCodeAIServiceFailed, "boom", nil)
	gen.errs[SectionLevel] = errors.NewAIError(errors.ErrCodeAIServiceFailed, "boom", nil)
	o := newTestOrchestrator(t, gen, testSettings())

	rep, err := o.Generate(context.Background(), types.ReportRequest{ResumeText: testResume})
	require.NoError(t, err)

	assert.Equal(t, types.StatusOK, rep.Sections[SectionStrategy].Status)
	strategy, ok := gen.requestFor(SectionStrategy)
	require.True(t, ok)
	assert.NotContains(t, strategy.Messages[1].Content, "Findings from earlier sections")
}

func TestRunLevelNeverBelowAnchor(t *testing.T) {
	gen := newFakeGenerator()
	gen.responses[SectionLevel] = `{"level":"Senior","confidence":0.6,"rationale":"strong IC","notes":["ok"]}`
	o := newTestOrchestrator(t, gen, testSettings())

	resume := "John Smith\nVice President of Engineering, Gamma Inc.\nOwns platform roadmap and budget for the organisation."
	rep, err := o.Generate(context.Background(), types.ReportRequest{ResumeText: resume})
	require.NoError(t, err)

	assert.Equal(t, types.LevelExecutive, rep.PreAnalysis.MinimumLevelAnchor)
	level := rep.Sections[SectionLevel]
	assert.Equal(t, "Executive", level.Data["level"])
	assert.Equal(t, "Senior", level.Data["model_level"])
	assert.Equal(t, true, level.Data["level_overridden"])
	notes, ok := level.Data["notes"].([]any)
	require.True(t, ok)
	assert.Len(t, notes, 2)
}

func TestRunJobHopRiskFollowsSignal(t *testing.T) {
	diagnosis := `{"overall":"ok","risks":[{"type":"job_hop","detail":"frequent moves","severity":"high"},"Limited cloud exposure"]}`

	t.Run("old ranges drop job hop risk", func(t *testing.T) {
		gen := newFakeGenerator()
		gen.responses[SectionDiagnosis] = diagnosis
		o := newTestOrchestrator(t, gen, testSettings())

		resume := "Alex Chen, backend developer with payments background.\nAcme 2010 - 2014\nBeta 2014 - 2018"
		rep, err := o.Generate(context.Background(), types.ReportRequest{ResumeText: resume})
		require.NoError(t, err)

		assert.False(t, rep.PreAnalysis.JobHop.Suspect)
		assert.Equal(t, []any{"Limited cloud exposure"}, rep.Sections[SectionDiagnosis].Data["risks"])
	})

	t.Run("suspect signal adds job hop risk", func(t *testing.T) {
		gen := newFakeGenerator()
		o := newTestOrchestrator(t, gen, testSettings())

		resume := "Alex Chen, backend developer with payments background.\nAcme 2021 - 2022\nBeta 2022 - 2023\nGamma 2023 - present"
		rep, err := o.Generate(context.Background(), types.ReportRequest{ResumeText: resume})
		require.NoError(t, err)

		assert.True(t, rep.PreAnalysis.JobHop.Suspect)
		risks, ok := rep.Sections[SectionDiagnosis].Data["risks"].([]any)
		require.True(t, ok)
		require.Len(t, risks, 1)
		assert.Equal(t, "job_hop", risks[0].(map[string]any)["type"])
	})

	t.Run("month dated ranges keep reported job hop risk", func(t *testing.T) {
		gen := newFakeGenerator()
		gen.responses[SectionDiagnosis] = diagnosis
		o := newTestOrchestrator(t, gen, testSettings())

		resume := "Alex Chen, backend developer with payments background.\n" +
			"Gamma, Jan 2023 – Present\nBeta, Mar 2022 – Dec 2022\nAcme, Feb 2021 – Feb 2022"
		rep, err := o.Generate(context.Background(), types.ReportRequest{ResumeText: resume})
		require.NoError(t, err)

		assert.Equal(t, 3, rep.PreAnalysis.JobHop.TotalRanges)
		assert.True(t, rep.PreAnalysis.JobHop.Suspect)
		risks, ok := rep.Sections[SectionDiagnosis].Data["risks"].([]any)
		require.True(t, ok)
		assert.Len(t, risks, 2)
		assert.Equal(t, "job_hop", risks[0].(map[string]any)["type"])
	})
}

func TestRunEmitsKeepAliveWhileIdle(t *testing.T) {
	gen := newFakeGenerator()
	for _, spec := range Catalogue {
		gen.delays[spec.ID] = 60 * time.Millisecond
	}
	settings := testSettings()
	settings.KeepAlive = 10 * time.Millisecond
	o := newTestOrchestrator(t, gen, settings)

	ch, err := o.Run(context.Background(), types.ReportRequest{ResumeText: testResume})
	require.NoError(t, err)
	events := collectEvents(t, ch)

	keepAlives := 0
	for _, ev := range events {
		if ev.Type == types.EventKeepAlive {
			keepAlives++
		}
	}
	assert.Positive(t, keepAlives)
	assert.Equal(t, types.EventDone, events[len(events)-1].Type)
}

func TestRunCancelledContextClosesStream(t *testing.T) {
	gen := newFakeGenerator()
	for _, spec := range Catalogue {
		gen.delays[spec.ID] = 10 * time.Second
	}
	o := newTestOrchestrator(t, gen, testSettings())

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := o.Run(ctx, types.ReportRequest{ResumeText: testResume})
	require.NoError(t, err)
	cancel()

	collectEvents(t, ch)
	for _, id := range gen.sectionsCalled() {
		spec, ok := Lookup(id)
		require.True(t, ok)
		assert.Equal(t, 1, spec.Phase)
	}
}

func TestCollectWithoutDoneIsIncomplete(t *testing.T) {
	ch := make(chan types.Event, 2)
	ch <- types.Event{Type: types.EventSection, RunID: "r1", Section: SectionSummary, Phase: 1, Status: types.StatusOK}
	ch <- types.Event{Type: types.EventKeepAlive}
	close(ch)

	rep := Collect(ch)
	assert.Equal(t, "r1", rep.RunID)
	assert.False(t, rep.Complete)
	assert.Len(t, rep.Sections, 1)
}
