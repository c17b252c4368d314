package types

import (
	"strings"
	"time"
)

// Mode selects model tiers and token budgets for a report run
type Mode string

const (
	ModeFast     Mode = "fast"
	ModeBalanced Mode = "balanced"
	ModeDeep     Mode = "deep"
)

// ParseMode resolves a caller-supplied mode. Empty input is not a valid mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeFast:
		return ModeFast, true
	case ModeBalanced:
		return ModeBalanced, true
	case ModeDeep:
		return ModeDeep, true
	}
	return "", false
}

// ReportRequest is the caller input for one career report
type ReportRequest struct {
	ResumeText     string `json:"resume_text"`
	JobDescription string `json:"jd_text,omitempty"`
	TargetRole     string `json:"target_role,omitempty"`
	Location       string `json:"location,omitempty"`
	Industry       string `json:"industry,omitempty"`
	Mode           Mode   `json:"mode,omitempty"`
}

// Level is a career-level classification
type Level string

const (
	LevelJunior    Level = "Junior"
	LevelMiddle    Level = "Middle"
	LevelSenior    Level = "Senior"
	LevelExecutive Level = "Executive"
)

// Rank orders levels; unknown levels rank 0.
func (l Level) Rank() int {
	switch l {
	case LevelJunior:
		return 1
	case LevelMiddle:
		return 2
	case LevelSenior:
		return 3
	case LevelExecutive:
		return 4
	}
	return 0
}

// ParseLevel maps free-form level labels onto the canonical ladder.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "junior", "entry", "entry-level", "初级":
		return LevelJunior, true
	case "middle", "mid", "mid-level", "intermediate", "中级":
		return LevelMiddle, true
	case "senior", "lead", "staff", "principal", "高级", "资深":
		return LevelSenior, true
	case "executive", "exec", "vp", "c-level", "高管":
		return LevelExecutive, true
	}
	return "", false
}

// PreAnalysis holds deterministic signals derived from the input text.
// It is computed once per request and never mutated afterwards.
type PreAnalysis struct {
	TenureSpanYears    int              `json:"tenure_span_years"`
	JobHop             JobHopSignal     `json:"job_hop_signal"`
	Education          EducationSignal  `json:"education_signal"`
	Management         ManagementSignal `json:"management_signal"`
	JDRequirements     JDRequirements   `json:"jd_requirements"`
	MinimumLevelAnchor Level            `json:"minimum_level_anchor"`
}

// JobHopSignal summarises employment date ranges
type JobHopSignal struct {
	TotalRanges       int  `json:"total_ranges"`
	RecentWindowCount int  `json:"recent_window_count"`
	LongestTenure     int  `json:"longest_tenure"`
	Suspect           bool `json:"suspect"`
	StabilityBonus    bool `json:"stability_bonus"`
}

// EducationSignal carries the highest degree and elite-school detection
type EducationSignal struct {
	Tier    string `json:"tier"`
	IsElite bool   `json:"is_elite"`
}

// ManagementSignal carries leadership claims and stated team size
type ManagementSignal struct {
	ClaimsManagement bool `json:"claims_management"`
	Headcount        int  `json:"headcount"`
	SpanSuspect      bool `json:"span_suspect"`
}

// JDRequirements are requirement flags found in the job description
type JDRequirements struct {
	NeedsAdvancedDegree bool `json:"needs_advanced_degree"`
	NeedsEliteSchool    bool `json:"needs_elite_school"`
	EliteThreshold      int  `json:"elite_threshold,omitempty"`
}

// EventType names a streamed report event
type EventType string

const (
	EventSection      EventType = "section"
	EventSectionError EventType = "section_error"
	EventKeepAlive    EventType = "keepalive"
	EventDone         EventType = "done"
)

// SectionStatus describes how a section's terminal event was produced
type SectionStatus string

const (
	StatusOK       SectionStatus = "ok"
	StatusRepaired SectionStatus = "repaired"
	StatusFallback SectionStatus = "fallback"
	StatusCached   SectionStatus = "cached"
	StatusError    SectionStatus = "error"
)

// Event is one item of a report stream
type Event struct {
	Type      EventType      `json:"type"`
	RunID     string         `json:"run_id,omitempty"`
	Section   string         `json:"section,omitempty"`
	Phase     int            `json:"phase,omitempty"`
	Status    SectionStatus  `json:"status,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Error     *EventError    `json:"error,omitempty"`
	ElapsedMS int64          `json:"elapsed_ms,omitempty"`
	Summary   *Completion    `json:"summary,omitempty"`
}

// EventError is the caller-visible description of a failed section
type EventError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Completion is carried by the final event of a stream
type Completion struct {
	Mode        Mode                     `json:"mode"`
	ElapsedMS   int64                    `json:"elapsed_ms"`
	PreAnalysis PreAnalysis              `json:"pre_analysis"`
	Sections    map[string]SectionStatus `json:"sections"`
	Succeeded   int                      `json:"succeeded"`
	Degraded    int                      `json:"degraded"`
	Failed      int                      `json:"failed"`
	CacheHits   int                      `json:"cache_hits"`
}

// SectionResult is one section of an assembled report
type SectionResult struct {
	Phase  int            `json:"phase"`
	Status SectionStatus  `json:"status"`
	Data   map[string]any `json:"data,omitempty"`
	Error  *EventError    `json:"error,omitempty"`
}

// Report is the assembled form of a finished stream
type Report struct {
	RunID       string                   `json:"run_id"`
	Mode        Mode                     `json:"mode"`
	GeneratedAt time.Time                `json:"generated_at"`
	ElapsedMS   int64                    `json:"elapsed_ms"`
	PreAnalysis PreAnalysis              `json:"pre_analysis"`
	Sections    map[string]SectionResult `json:"sections"`
	Complete    bool                     `json:"complete"`
}

// Job is one scored posting returned by job search
type Job struct {
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Location    string  `json:"location"`
	Link        string  `json:"link"`
	Source      string  `json:"source"`
	Description string  `json:"desc"`
	Score       float64 `json:"score"`
}

// JobSearchRequest mirrors the job search endpoint body
type JobSearchRequest struct {
	ResumeStruct ResumeStruct `json:"resume_struct"`
	TargetRole   string       `json:"target_role"`
	Location     string       `json:"location"`
	Industry     string       `json:"industry"`
	Limit        int          `json:"limit"`
}

// ResumeStruct carries keyword hints extracted from a report
type ResumeStruct struct {
	SkillsCore []string `json:"skills_core"`
	Keywords   []string `json:"keywords"`
}
