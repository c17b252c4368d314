package report

import (
	"fmt"
	"strings"

	"neuromatch/internal/structured"
	"neuromatch/internal/types"
)

const jobHopRisk = "job_hop"

var jobHopPhrases = []string{"job hop", "job-hop", "job_hop", "frequent job change", "跳槽"}

// reconcileJobHop keeps the diagnosis consistent with the job-hop signal:
// job-hopping risks are removed unless the signal is suspect, and one is
// added when it is suspect but the model did not mention it
func reconcileJobHop(obj structured.Object, signal types.JobHopSignal) structured.Object {
	risks, _ := obj["risks"].([]any)

	kept := make([]any, 0, len(risks))
	found := false
	for _, item := range risks {
		if isJobHopRisk(item) {
			if !signal.Suspect {
				continue
			}
			found = true
		}
		kept = append(kept, item)
	}

	if signal.Suspect && !found {
		kept = append(kept, map[string]any{
			"type": jobHopRisk,
			"detail": fmt.Sprintf("%d positions ended within the recent window; the longest tenure is %d years.",
				signal.RecentWindowCount, signal.LongestTenure),
			"severity": "medium",
		})
	}

	obj["risks"] = kept
	return obj
}

func isJobHopRisk(item any) bool {
	switch v := item.(type) {
	case string:
		return mentionsJobHop(v)
	case map[string]any:
		if t, ok := v["type"].(string); ok && strings.EqualFold(strings.TrimSpace(t), jobHopRisk) {
			return true
		}
		for _, key := range []string{"type", "title", "detail", "risk"} {
			if s, ok := v[key].(string); ok && mentionsJobHop(s) {
				return true
			}
		}
	}
	return false
}

func mentionsJobHop(s string) bool {
	lower := strings.ToLower(s)
	for _, phrase := range jobHopPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
