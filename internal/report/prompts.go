package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"text/template"

	"neuromatch/internal/ai"
	"neuromatch/internal/config"
	"neuromatch/internal/errors"
	"neuromatch/internal/structured"
)

// promptData is the value every section template is executed against
type promptData struct {
	Section        string
	Resume         string
	JobDescription string
	TargetRole     string
	Location       string
	Industry       string
	PreAnalysis    string
	Context        string
	Schema         string
}

const inputsBlock = `Candidate résumé:
{{.Resume}}

Target role: {{or .TargetRole "not specified"}}
Preferred location: {{or .Location "not specified"}}
Target industry: {{or .Industry "not specified"}}
{{if .JobDescription}}
Job description:
{{.JobDescription}}
{{end}}
Deterministic pre-analysis (authoritative, do not contradict):
{{.PreAnalysis}}
{{if .Context}}
Findings from earlier sections:
{{.Context}}
{{end}}`

const outputBlock = `
Return one JSON object with exactly these top-level keys (values show the expected types):
{{.Schema}}
Output JSON only.`

var (
	summaryTemplate = `Write a concise professional summary for the candidate below, once in English (summary_en) and once in Chinese (summary_cn), plus a one-line headline and up to five highlights grounded in the résumé.

` + inputsBlock + outputBlock

	improvementsTemplate = `Suggest concrete résumé improvements: the best section order, core and optional skill keywords, bullets to add, bullets to tighten and alternative titles. Never invent experience that the résumé does not support.

` + inputsBlock + outputBlock

	diagnosisTemplate = `Diagnose the candidate's profile. List strengths, risks and gaps. Each risk is an object {"type", "detail", "severity"} where severity is low, medium or high. Only report a "job_hop" risk when the pre-analysis marks job hopping as suspect.

` + inputsBlock + outputBlock

	levelTemplate = `Classify the candidate's career level as one of Junior, Middle, Senior or Executive, with a confidence between 0 and 1 and a short rationale. The level must not be below minimum_level_anchor from the pre-analysis.

` + inputsBlock + outputBlock

	strategyTemplate = `Propose two or three career paths for the next three to five years. Each path is an object {"title", "why_now", "90_day_plan", "gap_to_fill", "network_to_build", "skills_to_learn"}. Build on the diagnosis and level findings.

` + inputsBlock + outputBlock

	interviewTemplate = `Prepare the candidate for interviews for the target role. Give likely questions as objects {"q", "a"} where a is answer guidance, and general tips. Address the risks found in the diagnosis.

` + inputsBlock + outputBlock

	salaryTemplate = `Estimate a realistic annual salary range for the target role and location at the assessed level. Use the local currency code, explain the basis and give negotiation tips.

` + inputsBlock + outputBlock

	atsTemplate = `Score how well the résumé matches the job description for an applicant tracking system on a 0-100 scale. List matching highlights, mismatches and the job description keywords the résumé should contain.

` + inputsBlock + outputBlock

	repairSystemPrompt = "You repair malformed JSON. Output the corrected JSON object only."
)

// promptBuilder renders section prompts, preferring file overrides from the
// prompt store over the built-in templates
type promptBuilder struct {
	store        *config.PromptStore
	systemPrompt string
	logger       *errors.Logger

	mu     sync.Mutex
	parsed map[string]*template.Template
}

func newPromptBuilder(store *config.PromptStore, systemPrompt string, logger *errors.Logger) *promptBuilder {
	if systemPrompt == "" {
		systemPrompt = config.DefaultSystemPrompt
	}
	return &promptBuilder{
		store:        store,
		systemPrompt: systemPrompt,
		logger:       logger,
		parsed:       map[string]*template.Template{},
	}
}

// system returns the system instruction
func (b *promptBuilder) system() string {
	if b.store != nil {
		if s, ok := b.store.System(); ok {
			return s
		}
	}
	return b.systemPrompt
}

// template returns the active template text for a section
func (b *promptBuilder) template(spec SectionSpec) string {
	if b.store != nil {
		if t, ok := b.store.Template(spec.ID); ok {
			return t
		}
	}
	return spec.Template
}

// messages renders the system and user messages for a section
func (b *promptBuilder) messages(spec SectionSpec, data promptData) []ai.Message {
	data.Section = spec.ID
	data.Schema = schemaOf(spec.Shape)

	user, err := b.render(b.template(spec), data)
	if err != nil {
		b.logger.LogError(err, "Prompt override failed to render, using built-in template", "section", spec.ID)
		user, _ = b.render(spec.Template, data)
	}

	return []ai.Message{
		{Role: ai.RoleSystem, Content: b.system()},
		{Role: ai.RoleUser, Content: strings.TrimSpace(user)},
	}
}

// render executes text, parsing it once per distinct template text
func (b *promptBuilder) render(text string, data promptData) (string, error) {
	b.mu.Lock()
	tmpl, ok := b.parsed[text]
	if !ok {
		var err error
		tmpl, err = template.New("prompt").Option("missingkey=zero").Parse(text)
		if err != nil {
			b.mu.Unlock()
			return "", err
		}
		b.parsed[text] = tmpl
	}
	b.mu.Unlock()

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// repairMessages builds the single repair request for raw
func repairMessages(raw string) []ai.Message {
	return []ai.Message{
		{Role: ai.RoleSystem, Content: repairSystemPrompt},
		{Role: ai.RoleUser, Content: structured.RepairPrompt(raw)},
	}
}

func schemaOf(shape structured.Object) string {
	b, err := json.MarshalIndent(shape, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
