package preanalysis

import (
	"regexp"
	"strconv"
	"time"

	"neuromatch/internal/types"
)

// Thresholds tune the heuristics. The zero Thresholds value means
// DefaultThresholds. Otherwise a negative field takes its default and zero is
// kept as configured, except for JobHopMinRecent and MaxTenureSpan which
// must be positive.
type Thresholds struct {
	RecentWindowYears  int
	JobHopMinRecent    int
	StabilityMinTenure int
	StabilityMaxRecent int
	StabilityMaxRanges int
	StabilitySpanYears int
	MiddleTenureYears  int
	MaxTenureSpan      int
}

// DefaultThresholds returns the stock heuristic thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RecentWindowYears:  5,
		JobHopMinRecent:    3,
		StabilityMinTenure: 3,
		StabilityMaxRecent: 1,
		StabilityMaxRanges: 2,
		StabilitySpanYears: 6,
		MiddleTenureYears:  3,
		MaxTenureSpan:      40,
	}
}

func (t Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if t == (Thresholds{}) {
		return d
	}

	unset := func(v *int, def int) {
		if *v < 0 {
			*v = def
		}
	}
	unset(&t.RecentWindowYears, d.RecentWindowYears)
	unset(&t.StabilityMinTenure, d.StabilityMinTenure)
	unset(&t.StabilityMaxRecent, d.StabilityMaxRecent)
	unset(&t.StabilityMaxRanges, d.StabilityMaxRanges)
	unset(&t.StabilitySpanYears, d.StabilitySpanYears)
	unset(&t.MiddleTenureYears, d.MiddleTenureYears)

	if t.JobHopMinRecent <= 0 {
		t.JobHopMinRecent = d.JobHopMinRecent
	}
	if t.MaxTenureSpan <= 0 {
		t.MaxTenureSpan = d.MaxTenureSpan
	}
	return t
}

// Analyzer derives deterministic signals from résumé and job description text
type Analyzer struct {
	thresholds Thresholds
	now        func() time.Time
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithClock overrides the clock used to resolve open-ended date ranges.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAnalyzer creates an analyzer with the given thresholds
func NewAnalyzer(thresholds Thresholds, opts ...Option) *Analyzer {
	a := &Analyzer{
		thresholds: thresholds.withDefaults(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Thresholds returns the effective thresholds.
func (a *Analyzer) Thresholds() Thresholds {
	return a.thresholds
}

// Analyze computes the pre-analysis for one request. It never fails.
func (a *Analyzer) Analyze(resume, jobDescription string) types.PreAnalysis {
	currentYear := a.now().Year()

	span := a.tenureSpan(resume)
	jobHop := a.jobHopSignal(resume, span, currentYear)
	education := educationSignal(resume)

	return types.PreAnalysis{
		TenureSpanYears:    span,
		JobHop:             jobHop,
		Education:          education,
		Management:         managementSignal(resume),
		JDRequirements:     jdRequirements(jobDescription),
		MinimumLevelAnchor: a.anchor(resume, span, education),
	}
}

var yearPattern = regexp.MustCompile(`\b((?:19|20)[0-9]{2})\b`)

// tenureSpan is max minus min four-digit year, clamped to [1, MaxTenureSpan].
// Text without any year yields 0.
func (a *Analyzer) tenureSpan(text string) int {
	matches := yearPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return 0
	}

	lo, hi := 0, 0
	for i, m := range matches {
		y, _ := strconv.Atoi(m[1])
		if i == 0 || y < lo {
			lo = y
		}
		if i == 0 || y > hi {
			hi = y
		}
	}

	return clamp(hi-lo, 1, a.thresholds.MaxTenureSpan)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
