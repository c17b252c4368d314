package preanalysis

import (
	"regexp"
	"strconv"
	"strings"

	"neuromatch/internal/types"
)

const (
	TierDoctorate = "doctorate"
	TierMaster    = "master"
	TierBachelor  = "bachelor"
)

// monthToken is an optional month before a year: "Jan ", "Sept. ", "03/", "3."
const monthToken = `(?:(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)[.,]?\s*|[0-9]{1,2}\s*[./]\s*)?`

var (
	dateRangePattern = regexp.MustCompile(`(?i)\b` + monthToken + `((?:19|20)[0-9]{2})\b(?:\s*[./年]\s*[0-9]{1,2}\s*月?)?\s*(?:-|–|—|~|～|to|至|到|until)\s*(?:` +
		monthToken + `((?:19|20)[0-9]{2})\b|(present|now|current|today|至今|现在|今))`)

	doctoratePattern = regexp.MustCompile(`(?i)\bph\.?\s?d\b|\bdoctorate\b|\bdoctor of\b|\bd\.phil\b|博士`)
	masterPattern    = regexp.MustCompile(`(?i)\bmaster(?:'s)?\s+(?:of|degree|in)\b|\bm\.?sc\b|\bmba\b|\bm\.?eng\b|\bm\.s\.|硕士|研究生`)
	elitePattern     = regexp.MustCompile(`(?i)\b985\b|\b211\b|双一流|\bivy league\b|\bqs\s*(?:top\s*)?[0-9]+|\btop\s*[0-9]+\s*(?:university|universities|school|schools)\b|清华|北大|北京大学|复旦|上海交通大学|浙江大学|\bMIT\b|\bstanford\b|\bharvard\b|\boxford\b|\bcambridge\b|\bprinceton\b|\byale\b|\bberkeley\b`)

	managementPattern = regexp.MustCompile(`(?i)\b(?:managed|manager|management|led|leading|supervised|mentored|head of|director|team lead)\b|带领|管理|主管|经理|团队负责人`)
	headcountPattern  = regexp.MustCompile(`(?i)\b(?:team of|managed|led|leading|supervised|overseeing)\s+(?:a\s+team\s+of\s+)?([0-9]{1,4})\b|\b([0-9]{1,4})\s*\+?\s*(?:-?\s*person|people|engineers|members|reports|direct reports|staff)\b|([0-9]{1,4})\s*\+?\s*(?:人|名)`)

	jdDegreePattern    = regexp.MustCompile(`(?i)\bph\.?\s?d\b|\bdoctorate\b|\bmaster(?:'s)?\b|硕士|博士|研究生`)
	jdElitePattern     = regexp.MustCompile(`(?i)\b985\b|\b211\b|双一流|名校|\bivy league\b|\belite (?:university|universities|school|schools)\b|\btop\s*[0-9]+\b|\bqs\b`)
	jdThresholdPattern = regexp.MustCompile(`(?i)(?:\btop|\bqs|前)\s*([0-9]{1,4})`)

	seniorPattern    = regexp.MustCompile(`(?i)\bdirector\b|\bhead of\b|总监`)
	executivePattern = regexp.MustCompile(`(?i)\bvice[\s-]+president\b|\bVP\b|\bchief\b|\bC[ETFO]O\b|\bpartner\b|副总裁|合伙人|首席`)
)

type dateRange struct {
	start int
	end   int
}

func parseRanges(text string, currentYear int) []dateRange {
	var ranges []dateRange
	for _, m := range dateRangePattern.FindAllStringSubmatch(text, -1) {
		start, _ := strconv.Atoi(m[1])
		end := currentYear
		if m[2] != "" {
			end, _ = strconv.Atoi(m[2])
		}
		if end < start {
			continue
		}
		ranges = append(ranges, dateRange{start: start, end: end})
	}
	return ranges
}

func (a *Analyzer) jobHopSignal(text string, span, currentYear int) types.JobHopSignal {
	t := a.thresholds
	ranges := parseRanges(text, currentYear)

	sig := types.JobHopSignal{TotalRanges: len(ranges)}
	for _, r := range ranges {
		if r.end >= currentYear-t.RecentWindowYears {
			sig.RecentWindowCount++
		}
		if d := r.end - r.start; d > sig.LongestTenure {
			sig.LongestTenure = d
		}
	}

	sig.Suspect = sig.RecentWindowCount >= t.JobHopMinRecent
	sig.StabilityBonus = (sig.LongestTenure >= t.StabilityMinTenure && sig.RecentWindowCount <= t.StabilityMaxRecent) ||
		(sig.TotalRanges <= t.StabilityMaxRanges && span >= t.StabilitySpanYears)
	return sig
}

func educationSignal(text string) types.EducationSignal {
	tier := TierBachelor
	switch {
	case doctoratePattern.MatchString(text):
		tier = TierDoctorate
	case masterPattern.MatchString(text):
		tier = TierMaster
	}
	return types.EducationSignal{
		Tier:    tier,
		IsElite: elitePattern.MatchString(text),
	}
}

func managementSignal(text string) types.ManagementSignal {
	sig := types.ManagementSignal{ClaimsManagement: managementPattern.MatchString(text)}
	for _, m := range headcountPattern.FindAllStringSubmatch(text, -1) {
		for i, g := range m[1:] {
			if g == "" {
				continue
			}
			n, err := strconv.Atoi(g)
			if err != nil {
				continue
			}
			// "led 2020 migration": a bare number after the verb is a year
			if i == 0 && isYear(n) {
				continue
			}
			if n > sig.Headcount {
				sig.Headcount = n
			}
		}
	}
	sig.SpanSuspect = !sig.ClaimsManagement || sig.Headcount == 0
	return sig
}

func isYear(n int) bool {
	return n >= 1900 && n <= 2099
}

func jdRequirements(jd string) types.JDRequirements {
	if strings.TrimSpace(jd) == "" {
		return types.JDRequirements{}
	}
	req := types.JDRequirements{
		NeedsAdvancedDegree: jdDegreePattern.MatchString(jd),
		NeedsEliteSchool:    jdElitePattern.MatchString(jd),
	}
	if m := jdThresholdPattern.FindStringSubmatch(jd); m != nil {
		req.EliteThreshold, _ = strconv.Atoi(m[1])
	}
	return req
}

// anchor walks the level ladder upwards; executive markers are checked last
// so they win over every other rule.
func (a *Analyzer) anchor(text string, span int, edu types.EducationSignal) types.Level {
	level := types.LevelJunior
	if span >= a.thresholds.MiddleTenureYears {
		level = types.LevelMiddle
	}
	if edu.Tier == TierDoctorate || seniorPattern.MatchString(text) {
		level = types.LevelSenior
	}
	if executivePattern.MatchString(text) {
		level = types.LevelExecutive
	}
	return level
}
