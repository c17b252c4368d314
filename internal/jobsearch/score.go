package jobsearch

import (
	"math"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"neuromatch/internal/types"
)

const (
	maxQueryKeywords = 8
	maxKeywordRunes  = 30
)

var roleSeparators = regexp.MustCompile(`[ /,;、，]+`)

// Keywords collects lower-cased skill keywords and target role words,
// deduplicated in first-seen order
func Keywords(rs types.ResumeStruct, targetRole string) []string {
	var out []string
	add := func(k string) {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || slices.Contains(out, k) {
			return
		}
		out = append(out, k)
	}

	for _, k := range append(append([]string{}, rs.SkillsCore...), rs.Keywords...) {
		if n := utf8.RuneCountInString(k); n >= 1 && n <= maxKeywordRunes {
			add(k)
		}
	}
	for _, part := range roleSeparators.Split(strings.TrimSpace(targetRole), -1) {
		add(part)
	}
	return out
}

// queryKeywords bounds the keywords sent to a job board
func queryKeywords(keywords []string) []string {
	if len(keywords) > maxQueryKeywords {
		return keywords[:maxQueryKeywords]
	}
	return keywords
}

// Score rates how well a posting matches on a 0-100 scale: keyword hit
// ratio up to 60, plus 15 when the target role appears in the title or
// description, plus 10 when the location matches
func Score(job types.Job, keywords []string, targetRole, location string) float64 {
	text := strings.ToLower(job.Title + " " + job.Description)

	hits := 0
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			hits++
		}
	}
	score := 60 * float64(hits) / float64(max(len(keywords), 1))

	if role := strings.ToLower(strings.TrimSpace(targetRole)); role != "" && strings.Contains(text, role) {
		score += 15
	}
	if loc := strings.ToLower(strings.TrimSpace(location)); loc != "" && strings.Contains(strings.ToLower(job.Location), loc) {
		score += 10
	}

	return math.Round(math.Min(100, score)*10) / 10
}

// Rank scores jobs, sorts them by descending score and keeps the first limit
func Rank(jobs []types.Job, keywords []string, targetRole, location string, limit int) []types.Job {
	ranked := make([]types.Job, len(jobs))
	copy(ranked, jobs)
	for i := range ranked {
		ranked[i].Score = Score(ranked[i], keywords, targetRole, location)
	}
	slices.SortStableFunc(ranked, func(a, b types.Job) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// htmlToText renders an HTML description or snippet as markdown, falling
// back to the raw string when conversion fails
func htmlToText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return html
	}
	return strings.TrimSpace(md)
}
