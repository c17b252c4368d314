package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"neuromatch/internal/structured"
	"neuromatch/internal/types"
)

// levelPaths are the places models put the classification, most specific first
var levelPaths = []string{"level", "career_level", "assessment.level", "result.level"}

// postProcess applies the deterministic corrections each section is subject to
func postProcess(section string, obj structured.Object, pre types.PreAnalysis) structured.Object {
	switch section {
	case SectionLevel:
		return enforceLevelFloor(obj, pre.MinimumLevelAnchor)
	case SectionDiagnosis:
		return reconcileJobHop(obj, pre.JobHop)
	}
	return obj
}

// enforceLevelFloor makes sure the reported level is never below anchor.
// A lower or unrecognised proposal is replaced, the original is kept under
// model_level and a note explains the change.
func enforceLevelFloor(obj structured.Object, anchor types.Level) structured.Object {
	if anchor.Rank() == 0 {
		anchor = types.LevelJunior
	}

	proposed := proposedLevel(obj)
	level, ok := parseLevelLabel(proposed)
	if ok && level.Rank() >= anchor.Rank() {
		obj["level"] = string(level)
		return obj
	}

	var note string
	if ok {
		note = fmt.Sprintf("Level raised from %s to %s: the résumé shows evidence that sets %s as the minimum.",
			level, anchor, anchor)
	} else {
		note = fmt.Sprintf("Level set to %s from résumé evidence because no recognisable level was returned.", anchor)
	}

	if proposed != "" {
		obj["model_level"] = proposed
	}
	obj["level"] = string(anchor)
	obj["level_overridden"] = true
	obj["notes"] = appendNote(obj["notes"], note)
	return obj
}

// proposedLevel reads the model's level label wherever it was put
func proposedLevel(obj structured.Object) string {
	raw, err := json.Marshal(obj)
	if err != nil {
		return ""
	}
	for _, path := range levelPaths {
		if v := gjson.GetBytes(raw, path); v.Exists() && v.Type == gjson.String {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

// parseLevelLabel accepts canonical labels and phrases such as
// "Senior Engineer", taking the highest level mentioned
func parseLevelLabel(s string) (types.Level, bool) {
	if level, ok := types.ParseLevel(s); ok {
		return level, true
	}

	lower := strings.ToLower(s)
	if strings.Contains(lower, "vice president") || strings.Contains(lower, "c-suite") {
		return types.LevelExecutive, true
	}

	var best types.Level
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return r == ' ' || r == '/' || r == ',' || r == '(' || r == ')' || r == '-'
	}) {
		if level, ok := types.ParseLevel(word); ok && level.Rank() > best.Rank() {
			best = level
		}
	}
	return best, best != ""
}

func appendNote(existing any, note string) []any {
	var notes []any
	switch v := existing.(type) {
	case []any:
		notes = append(notes, v...)
	case string:
		if v != "" {
			notes = append(notes, v)
		}
	}
	return append(notes, note)
}
