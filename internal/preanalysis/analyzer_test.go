package preanalysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"neuromatch/internal/types"
)

func fixedAnalyzer() *Analyzer {
	return NewAnalyzer(Thresholds{}, WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	}))
}

func TestTenureSpan(t *testing.T) {
	a := fixedAnalyzer()

	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "no years", text: "Software engineer with Go experience", want: 0},
		{name: "single year clamps to one", text: "Graduated 2020", want: 1},
		{name: "span across years", text: "2012 BSc, 2015-2019 Acme, 2019-2024 Globex", want: 12},
		{name: "clamped to forty", text: "1950 founded, 2024 retired", want: 40},
		{name: "ignores longer numbers", text: "ID 120195 and 2019", want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Analyze(tt.text, "").TenureSpanYears)
		})
	}
}

func TestJobHopSignal(t *testing.T) {
	a := fixedAnalyzer()

	t.Run("three recent ranges are suspect", func(t *testing.T) {
		got := a.Analyze("Acme 2021-2022\nGlobex 2022-2023\nInitech 2023 - present", "").JobHop
		assert.Equal(t, 3, got.TotalRanges)
		assert.Equal(t, 3, got.RecentWindowCount)
		assert.True(t, got.Suspect)
		assert.False(t, got.StabilityBonus)
	})

	t.Run("old ranges are not recent", func(t *testing.T) {
		got := a.Analyze("Acme 2008-2012\nGlobex 2013-2016", "").JobHop
		assert.Equal(t, 2, got.TotalRanges)
		assert.Zero(t, got.RecentWindowCount)
		assert.False(t, got.Suspect)
		assert.True(t, got.StabilityBonus)
	})

	t.Run("chinese open range resolves to current year", func(t *testing.T) {
		got := a.Analyze("2019年3月 - 至今 某公司 高级工程师", "").JobHop
		assert.Equal(t, 1, got.TotalRanges)
		assert.Equal(t, 7, got.LongestTenure)
		assert.True(t, got.StabilityBonus)
	})

	t.Run("inverted range ignored", func(t *testing.T) {
		got := a.Analyze("2020-2018", "").JobHop
		assert.Zero(t, got.TotalRanges)
	})

	monthFormats := []struct {
		name string
		text string
	}{
		{name: "month names", text: "Jan 2023 – Present\nMar 2022 – Dec 2022\nFeb 2021 – Feb 2022"},
		{name: "full month names", text: "January 2023 to present, March 2022 - December 2022, Sept. 2021 - February 2022"},
		{name: "mm/yyyy", text: "03/2023 - 12/2025\n01/2022 - 02/2023\n06/2021 - 12/2021"},
		{name: "mm.yyyy", text: "3.2023 - 12.2025 | 1.2022 - 2.2023 | 6.2021 - 12.2021"},
		{name: "yyyy.mm", text: "2023.03 - 2025.12\n2022.01 - 2023.02\n2021.06 - 2021.12"},
	}
	for _, tt := range monthFormats {
		t.Run(tt.name+" are three recent ranges", func(t *testing.T) {
			got := a.Analyze(tt.text, "").JobHop
			assert.Equal(t, 3, got.TotalRanges)
			assert.Equal(t, 3, got.RecentWindowCount)
			assert.True(t, got.Suspect)
			assert.False(t, got.StabilityBonus)
		})
	}
}

func TestEducationSignal(t *testing.T) {
	a := fixedAnalyzer()

	assert.Equal(t, TierDoctorate, a.Analyze("PhD in Physics, MIT", "").Education.Tier)
	assert.True(t, a.Analyze("PhD in Physics, MIT", "").Education.IsElite)
	assert.Equal(t, TierMaster, a.Analyze("Master of Science, Uni Leeds", "").Education.Tier)
	assert.Equal(t, TierMaster, a.Analyze("复旦大学 硕士", "").Education.Tier)
	assert.Equal(t, TierBachelor, a.Analyze("Scrum Master certified", "").Education.Tier)
	assert.False(t, a.Analyze("State College", "").Education.IsElite)
	assert.True(t, a.Analyze("本科 985 院校", "").Education.IsElite)
}

func TestManagementSignal(t *testing.T) {
	a := fixedAnalyzer()

	got := a.Analyze("Led a team of 12 engineers", "").Management
	assert.True(t, got.ClaimsManagement)
	assert.Equal(t, 12, got.Headcount)
	assert.False(t, got.SpanSuspect)

	got = a.Analyze("Managed the migration to Kubernetes", "").Management
	assert.True(t, got.ClaimsManagement)
	assert.True(t, got.SpanSuspect)

	got = a.Analyze("带领8人团队完成交付", "").Management
	assert.Equal(t, 8, got.Headcount)
	assert.False(t, got.SpanSuspect)

	got = a.Analyze("Wrote code", "").Management
	assert.False(t, got.ClaimsManagement)
	assert.True(t, got.SpanSuspect)

	got = a.Analyze("Led 2020 platform migration", "").Management
	assert.True(t, got.ClaimsManagement)
	assert.Zero(t, got.Headcount)
	assert.True(t, got.SpanSuspect)

	got = a.Analyze("Managed 40 engineers across 2019-2023", "").Management
	assert.Equal(t, 40, got.Headcount)
}

func TestJDRequirements(t *testing.T) {
	a := fixedAnalyzer()

	got := a.Analyze("resume", "Master's degree required, graduates of QS top 100 preferred").JDRequirements
	assert.True(t, got.NeedsAdvancedDegree)
	assert.True(t, got.NeedsEliteSchool)
	assert.Equal(t, 100, got.EliteThreshold)

	got = a.Analyze("resume", "要求985/211院校博士").JDRequirements
	assert.True(t, got.NeedsAdvancedDegree)
	assert.True(t, got.NeedsEliteSchool)
	assert.Zero(t, got.EliteThreshold)

	assert.Equal(t, types.JDRequirements{}, a.Analyze("resume", "   ").JDRequirements)
}

func TestMinimumLevelAnchor(t *testing.T) {
	a := fixedAnalyzer()

	tests := []struct {
		name string
		text string
		want types.Level
	}{
		{name: "no signals", text: "Intern", want: types.LevelJunior},
		{name: "tenure promotes to middle", text: "2018-2022 Engineer", want: types.LevelMiddle},
		{name: "director is senior", text: "Director of Engineering", want: types.LevelSenior},
		{name: "doctorate is senior", text: "PhD candidate 2024", want: types.LevelSenior},
		{name: "vice president alone is executive", text: "Vice President", want: types.LevelExecutive},
		{name: "executive wins over other rules", text: "2001-2024 Director, then CTO", want: types.LevelExecutive},
		{name: "partnered is not partner", text: "Partnered with design", want: types.LevelJunior},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, a.Analyze(tt.text, "").MinimumLevelAnchor)
		})
	}
}

func TestThresholdsOverride(t *testing.T) {
	th := DefaultThresholds()
	th.JobHopMinRecent = 2
	a := NewAnalyzer(th, WithClock(func() time.Time {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}))

	assert.Equal(t, 2, a.Thresholds().JobHopMinRecent)
	assert.Equal(t, 5, a.Thresholds().RecentWindowYears)
	assert.True(t, a.Analyze("2022-2023, 2023-2025", "").JobHop.Suspect)
}

func TestThresholdsDefaults(t *testing.T) {
	tests := []struct {
		name  string
		given Thresholds
		check func(t *testing.T, got Thresholds)
	}{
		{
			name:  "zero value means defaults",
			given: Thresholds{},
			check: func(t *testing.T, got Thresholds) {
				assert.Equal(t, DefaultThresholds(), got)
			},
		},
		{
			name: "explicit zero is kept",
			given: func() Thresholds {
				th := DefaultThresholds()
				th.StabilityMaxRecent = 0
				return th
			}(),
			check: func(t *testing.T, got Thresholds) {
				assert.Equal(t, 0, got.StabilityMaxRecent)
				assert.Equal(t, 3, got.StabilityMinTenure)
			},
		},
		{
			name: "negative takes the default",
			given: func() Thresholds {
				th := DefaultThresholds()
				th.RecentWindowYears = -1
				th.StabilityMaxRanges = -1
				return th
			}(),
			check: func(t *testing.T, got Thresholds) {
				assert.Equal(t, 5, got.RecentWindowYears)
				assert.Equal(t, 2, got.StabilityMaxRanges)
			},
		},
		{
			name: "non-positive job hop and span limits take defaults",
			given: func() Thresholds {
				th := DefaultThresholds()
				th.JobHopMinRecent = 0
				th.MaxTenureSpan = 0
				return th
			}(),
			check: func(t *testing.T, got Thresholds) {
				assert.Equal(t, 3, got.JobHopMinRecent)
				assert.Equal(t, 40, got.MaxTenureSpan)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, NewAnalyzer(tt.given).Thresholds())
		})
	}
}

func TestStabilityMaxRecentZero(t *testing.T) {
	th := DefaultThresholds()
	th.StabilityMaxRecent = 0
	a := NewAnalyzer(th, WithClock(func() time.Time {
		return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	}))

	// one long current role: recent count 1 exceeds the configured 0, and the
	// range count rule needs a 6 year span
	got := a.Analyze("Acme 2022 - present", "").JobHop
	assert.Equal(t, 1, got.RecentWindowCount)
	assert.False(t, got.StabilityBonus)

	assert.True(t, fixedAnalyzer().Analyze("Acme 2022 - present", "").JobHop.StabilityBonus)
}
