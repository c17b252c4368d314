package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"neuromatch/internal/types"
)

// ReportTitle heads rendered reports
const ReportTitle = "Alsos NeuroMatch · Career Report"

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry is the registry used by the CLI and the export endpoint
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "Report", &ReportTextFormatter{})
	registry.RegisterFormatter("markdown", "Report", &ReportMarkdownFormatter{})
	registry.RegisterFormatter("text", "Jobs", &JobsTextFormatter{})
	registry.RegisterFormatter("markdown", "Jobs", &JobsMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats in sorted order
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

// FileExtension maps an output format to the extension of an exported file
func FileExtension(format string) string {
	switch format {
	case "markdown":
		return "md"
	case "text":
		return "txt"
	default:
		return "json"
	}
}

// ContentType maps an output format to its MIME type
func ContentType(format string) string {
	switch format {
	case "markdown":
		return "text/markdown; charset=utf-8"
	case "text":
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

func getDataType(data any) string {
	switch data.(type) {
	case *types.Report, types.Report:
		return "Report"
	case []types.Job:
		return "Jobs"
	default:
		return "any"
	}
}

func asReport(data any) (*types.Report, error) {
	switch r := data.(type) {
	case *types.Report:
		if r == nil {
			return nil, fmt.Errorf("report is nil")
		}
		return r, nil
	case types.Report:
		return &r, nil
	}
	return nil, fmt.Errorf("expected Report, got %T", data)
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// sectionTitles fixes the rendering order and headings of report sections
var sectionTitles = []struct {
	id    string
	title string
}{
	{"summary", "Professional Summary"},
	{"improvements", "Résumé Optimisation"},
	{"diagnosis", "Profile Diagnosis"},
	{"level", "Career Level"},
	{"ats", "ATS Match"},
	{"interview", "Interview Q&A"},
	{"strategy", "Career Advice (3-5 years)"},
	{"salary", "Salary Outlook"},
}

// ReportTextFormatter renders a report as plain text
type ReportTextFormatter struct{}

func (rtf *ReportTextFormatter) Format(data any) (string, error) {
	rep, err := asReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("=== " + strings.ToUpper(ReportTitle) + " ===\n")
	output.WriteString(fmt.Sprintf("Generated: %s | Mode: %s | Run: %s\n", rep.GeneratedAt.Format("2006-01-02 15:04:05 MST"), rep.Mode, rep.RunID))
	output.WriteString(fmt.Sprintf("Minimum level: %s | Tenure span: %d years\n\n", rep.PreAnalysis.MinimumLevelAnchor, rep.PreAnalysis.TenureSpanYears))

	for _, s := range sectionTitles {
		res, ok := rep.Sections[s.id]
		if !ok {
			continue
		}
		output.WriteString("=== " + strings.ToUpper(s.title) + " ===\n")
		writeSection(&output, res, false)
		output.WriteString("\n")
	}

	if !rep.Complete {
		output.WriteString("(report incomplete)\n")
	}
	return output.String(), nil
}

func (rtf *ReportTextFormatter) SupportedType() string {
	return "Report"
}

// ReportMarkdownFormatter renders a report as markdown
type ReportMarkdownFormatter struct{}

func (rmf *ReportMarkdownFormatter) Format(data any) (string, error) {
	rep, err := asReport(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("# " + ReportTitle + "\n\n")
	output.WriteString(fmt.Sprintf("_Generated %s · mode %s_\n\n", rep.GeneratedAt.Format("2006-01-02 15:04 MST"), rep.Mode))
	output.WriteString(fmt.Sprintf("**Minimum level:** %s  \n**Tenure span:** %d years\n\n", rep.PreAnalysis.MinimumLevelAnchor, rep.PreAnalysis.TenureSpanYears))

	for _, s := range sectionTitles {
		res, ok := rep.Sections[s.id]
		if !ok {
			continue
		}
		output.WriteString("## " + s.title + "\n\n")
		writeSection(&output, res, true)
		output.WriteString("\n")
	}

	if !rep.Complete {
		output.WriteString("> Report incomplete.\n")
	}
	return output.String(), nil
}

func (rmf *ReportMarkdownFormatter) SupportedType() string {
	return "Report"
}

func writeSection(w *strings.Builder, res types.SectionResult, markdown bool) {
	switch res.Status {
	case types.StatusError:
		if res.Error != nil {
			w.WriteString(fmt.Sprintf("Unavailable (%s): %s\n", res.Error.Code, res.Error.Message))
		} else {
			w.WriteString("Unavailable.\n")
		}
		return
	case types.StatusFallback:
		if note, ok := res.Data["note"].(string); ok {
			w.WriteString(note + "\n")
		}
		if raw, ok := res.Data["raw_preview"].(string); ok && raw != "" {
			if markdown {
				w.WriteString("\n```\n" + raw + "\n```\n")
			} else {
				w.WriteString(raw + "\n")
			}
		}
		return
	}

	keys := make([]string, 0, len(res.Data))
	for k := range res.Data {
		if isEmpty(res.Data[k]) {
			continue
		}
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		label := humanize(k)
		v := res.Data[k]
		if s, ok := scalar(v); ok {
			if markdown {
				w.WriteString(fmt.Sprintf("**%s:** %s\n\n", label, s))
			} else {
				w.WriteString(fmt.Sprintf("%s: %s\n", label, s))
			}
			continue
		}
		if markdown {
			w.WriteString("### " + label + "\n\n")
		} else {
			w.WriteString(label + ":\n")
		}
		writeValue(w, v, 0, markdown)
		if markdown {
			w.WriteString("\n")
		}
	}
}

// writeValue renders nested lists and objects as indented bullets
func writeValue(w *strings.Builder, v any, depth int, markdown bool) {
	indent := strings.Repeat("  ", depth)
	bullet := "- "
	if !markdown {
		bullet = "  - "
	}

	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if s, ok := scalar(item); ok {
				w.WriteString(indent + bullet + s + "\n")
				continue
			}
			if m, ok := item.(map[string]any); ok {
				writeObjectItem(w, m, depth, markdown)
				continue
			}
			writeValue(w, item, depth+1, markdown)
		}
	case map[string]any:
		writeObjectItem(w, t, depth, markdown)
	default:
		if s, ok := scalar(v); ok {
			w.WriteString(indent + bullet + s + "\n")
		}
	}
}

// writeObjectItem prints one list entry made of several fields, with the
// q/a and title fields first
func writeObjectItem(w *strings.Builder, m map[string]any, depth int, markdown bool) {
	indent := strings.Repeat("  ", depth)
	bullet := "- "
	if !markdown {
		bullet = "  - "
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if pa, pb := fieldPriority(a), fieldPriority(b); pa != pb {
			return pa - pb
		}
		return strings.Compare(a, b)
	})

	first := true
	for _, k := range keys {
		if isEmpty(m[k]) {
			continue
		}
		prefix := indent + "    "
		if first {
			prefix = indent + bullet
			first = false
		}
		if s, ok := scalar(m[k]); ok {
			w.WriteString(fmt.Sprintf("%s%s: %s\n", prefix, humanize(k), s))
			continue
		}
		w.WriteString(fmt.Sprintf("%s%s:\n", prefix, humanize(k)))
		writeValue(w, m[k], depth+2, markdown)
	}
}

func fieldPriority(k string) int {
	switch k {
	case "q", "title", "type":
		return 0
	case "a", "why_now", "detail":
		return 1
	}
	return 2
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case json.Number:
		return t.String(), true
	}
	return "", false
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

var labels = map[string]string{
	"q":           "Q",
	"a":           "A",
	"summary_en":  "Summary (EN)",
	"summary_cn":  "Summary (CN)",
	"90_day_plan": "90-day plan",
}

func humanize(key string) string {
	if l, ok := labels[key]; ok {
		return l
	}
	s := strings.ReplaceAll(key, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// JobsTextFormatter renders job search results as plain text
type JobsTextFormatter struct{}

func (jtf *JobsTextFormatter) Format(data any) (string, error) {
	jobs, ok := data.([]types.Job)
	if !ok {
		return "", fmt.Errorf("expected []Job, got %T", data)
	}
	if len(jobs) == 0 {
		return "No matching jobs found.\n", nil
	}

	var output strings.Builder
	output.WriteString("=== JOB MATCHES ===\n\n")
	for i, j := range jobs {
		output.WriteString(fmt.Sprintf("%d. [%.1f] %s - %s\n", i+1, j.Score, j.Title, j.Company))
		output.WriteString(fmt.Sprintf("   %s | %s\n", j.Location, j.Source))
		output.WriteString("   " + j.Link + "\n\n")
	}
	return output.String(), nil
}

func (jtf *JobsTextFormatter) SupportedType() string {
	return "Jobs"
}

// JobsMarkdownFormatter renders job search results as a markdown table
type JobsMarkdownFormatter struct{}

func (jmf *JobsMarkdownFormatter) Format(data any) (string, error) {
	jobs, ok := data.([]types.Job)
	if !ok {
		return "", fmt.Errorf("expected []Job, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Job Matches\n\n")
	if len(jobs) == 0 {
		output.WriteString("No matching jobs found.\n")
		return output.String(), nil
	}
	output.WriteString("| Score | Title | Company | Location | Source |\n")
	output.WriteString("|---|---|---|---|---|\n")
	for _, j := range jobs {
		output.WriteString(fmt.Sprintf("| %.1f | [%s](%s) | %s | %s | %s |\n",
			j.Score, cell(j.Title), j.Link, cell(j.Company), cell(j.Location), j.Source))
	}
	return output.String(), nil
}

func (jmf *JobsMarkdownFormatter) SupportedType() string {
	return "Jobs"
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
