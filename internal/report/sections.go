package report

import (
	"slices"

	"neuromatch/internal/ai"
	"neuromatch/internal/structured"
	"neuromatch/internal/types"
)

// Section identifiers
const (
	SectionSummary      = "summary"
	SectionImprovements = "improvements"
	SectionDiagnosis    = "diagnosis"
	SectionLevel        = "level"
	SectionStrategy     = "strategy"
	SectionInterview    = "interview"
	SectionSalary       = "salary"
	SectionATS          = "ats"
)

// SectionSpec is the static description of one report section
type SectionSpec struct {
	ID    string
	Phase int
	// ContextKeys names the phase-1 sections whose output is passed to
	// this section's prompt.
	ContextKeys []string
	// HeavyIn lists the modes that route this section to the heavy tier.
	HeavyIn []types.Mode
	// RequiresJD skips the section when no job description was supplied.
	RequiresJD  bool
	Temperature float32
	Template    string
	Shape       structured.Object
}

// Tier returns the model tier for mode
func (s SectionSpec) Tier(mode types.Mode) ai.ModelTier {
	if slices.Contains(s.HeavyIn, mode) {
		return ai.TierHeavy
	}
	return ai.TierLight
}

var (
	heavyBalanced = []types.Mode{types.ModeBalanced, types.ModeDeep}
	heavyDeep     = []types.Mode{types.ModeDeep}
	phase2Context = []string{SectionDiagnosis, SectionLevel}
)

// Catalogue lists every section in dispatch order
var Catalogue = []SectionSpec{
	{
		ID:          SectionSummary,
		Phase:       1,
		HeavyIn:     heavyDeep,
		Temperature: 0.3,
		Template:    summaryTemplate,
		Shape: structured.Object{
			"headline":   "",
			"summary_en": "",
			"summary_cn": "",
			"highlights": []any{},
		},
	},
	{
		ID:          SectionImprovements,
		Phase:       1,
		HeavyIn:     heavyDeep,
		Temperature: 0.3,
		Template:    improvementsTemplate,
		Shape: structured.Object{
			"section_order":            []any{},
			"skills_keywords_core":     []any{},
			"skills_keywords_optional": []any{},
			"bullets_to_add":           []any{},
			"bullets_to_tighten":       []any{},
			"title_suggestions":        []any{},
		},
	},
	{
		ID:          SectionDiagnosis,
		Phase:       1,
		HeavyIn:     heavyBalanced,
		Temperature: 0.2,
		Template:    diagnosisTemplate,
		Shape: structured.Object{
			"overall":   "",
			"strengths": []any{},
			"risks":     []any{},
			"gaps":      []any{},
		},
	},
	{
		ID:          SectionLevel,
		Phase:       1,
		HeavyIn:     heavyBalanced,
		Temperature: 0.1,
		Template:    levelTemplate,
		Shape: structured.Object{
			"level":      "",
			"confidence": 0,
			"rationale":  "",
			"notes":      []any{},
		},
	},
	{
		ID:          SectionStrategy,
		Phase:       2,
		ContextKeys: phase2Context,
		HeavyIn:     heavyBalanced,
		Temperature: 0.4,
		Template:    strategyTemplate,
		Shape: structured.Object{
			"paths":      []any{},
			"next_steps": []any{},
		},
	},
	{
		ID:          SectionInterview,
		Phase:       2,
		ContextKeys: phase2Context,
		HeavyIn:     heavyBalanced,
		Temperature: 0.4,
		Template:    interviewTemplate,
		Shape: structured.Object{
			"questions": []any{},
			"tips":      []any{},
		},
	},
	{
		ID:          SectionSalary,
		Phase:       2,
		ContextKeys: phase2Context,
		HeavyIn:     heavyDeep,
		Temperature: 0.2,
		Template:    salaryTemplate,
		Shape: structured.Object{
			"currency":         "",
			"range_low":        0,
			"range_high":       0,
			"basis":            "",
			"negotiation_tips": []any{},
		},
	},
	{
		ID:          SectionATS,
		Phase:       2,
		ContextKeys: phase2Context,
		HeavyIn:     heavyDeep,
		RequiresJD:  true,
		Temperature: 0.1,
		Template:    atsTemplate,
		Shape: structured.Object{
			"score":      0,
			"highlights": []any{},
			"mismatch":   []any{},
			"keywords":   []any{},
		},
	},
}

// SectionsForPhase returns the sections dispatched in phase for a request
// with or without a job description
func SectionsForPhase(phase int, hasJD bool) []SectionSpec {
	var out []SectionSpec
	for _, s := range Catalogue {
		if s.Phase != phase || (s.RequiresJD && !hasJD) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Lookup returns the section definition for id
func Lookup(id string) (SectionSpec, bool) {
	for _, s := range Catalogue {
		if s.ID == id {
			return s, true
		}
	}
	return SectionSpec{}, false
}
