package jobsearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neuromatch/internal/config"
	"neuromatch/internal/errors"
	"neuromatch/internal/types"
)

const arbeitnowSample = `{
  "data": [
    {"title": "Backend Engineer (Go)", "company_name": "Acme", "location": "Berlin", "remote": true,
     "url": "https://example.com/1", "description": "<p>We use <strong>Go</strong> and PostgreSQL.</p>"},
    {"title": "Marketing Manager", "company_name": "Beta", "location": "Munich", "remote": false,
     "url": "https://example.com/2", "description": "<p>Brand campaigns.</p>"}
  ],
  "links": {}
}`

func TestKeywords(t *testing.T) {
	got := Keywords(types.ResumeStruct{
		SkillsCore: []string{"Go", "PostgreSQL", "go", ""},
		Keywords:   []string{"Kubernetes", strings.Repeat("x", 31)},
	}, "Backend Engineer/SRE，平台")

	assert.Equal(t, []string{"go", "postgresql", "kubernetes", "backend", "engineer", "sre", "平台"}, got)
}

func TestScore(t *testing.T) {
	job := types.Job{
		Title:       "Senior Backend Engineer",
		Description: "Go, PostgreSQL and Kubernetes on AWS",
		Location:    "Berlin | Remote",
	}

	tests := []struct {
		name     string
		keywords []string
		role     string
		location string
		want     float64
	}{
		{"no keywords", nil, "", "", 0},
		{"all keywords", []string{"go", "kubernetes"}, "", "", 60},
		{"partial keywords", []string{"go", "rust", "java"}, "", "", 20},
		{"role bonus", []string{"go"}, "Backend Engineer", "", 75},
		{"location bonus", []string{"go"}, "", "berlin", 70},
		{"all bonuses", []string{"go"}, "backend engineer", "Remote", 85},
		{"rounded", []string{"go", "a1", "b2", "c3", "d4", "e5", "f6"}, "", "", 8.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(job, tt.keywords, tt.role, tt.location))
		})
	}
}

func TestRankSortsAndLimits(t *testing.T) {
	jobs := []types.Job{
		{Title: "Accountant"},
		{Title: "Go developer"},
		{Title: "Go and Kubernetes engineer"},
	}
	ranked := Rank(jobs, []string{"go", "kubernetes"}, "", "", 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, "Go and Kubernetes engineer", ranked[0].Title)
	assert.Equal(t, 60.0, ranked[0].Score)
	assert.Equal(t, "Go developer", ranked[1].Title)
	assert.Zero(t, jobs[0].Score)
}

func TestParseArbeitnow(t *testing.T) {
	jobs, err := parseArbeitnow([]byte(arbeitnowSample), 500)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "Acme", jobs[0].Company)
	assert.Equal(t, "Berlin | Remote", jobs[0].Location)
	assert.Equal(t, SourceArbeitnow, jobs[0].Source)
	assert.NotContains(t, jobs[0].Description, "<p>")
	assert.Contains(t, jobs[0].Description, "PostgreSQL")
	assert.Equal(t, "Munich", jobs[1].Location)

	_, err = parseArbeitnow([]byte("<html>"), 500)
	assert.Error(t, err)
}

func TestParseJoobleLimitsAndTruncates(t *testing.T) {
	var items []map[string]string
	for i := 0; i < 45; i++ {
		items = append(items, map[string]string{
			"title":   "Go engineer",
			"company": "Acme",
			"snippet": "<b>Go</b> developer for <span>payments</span> " + strings.Repeat("x", 600),
		})
	}
	body, err := json.Marshal(map[string]any{"totalCount": 45, "jobs": items})
	require.NoError(t, err)

	jobs, err := parseJooble(body, 500)
	require.NoError(t, err)
	assert.Len(t, jobs, 40)
	desc := jobs[0].Description
	assert.NotContains(t, desc, "<b>")
	assert.NotContains(t, desc, "<span>")
	assert.Contains(t, desc, "Go")
	assert.Contains(t, desc, "developer for payments")
	assert.Len(t, []rune(desc), 500)
}

func testConfig(jooble, arbeitnow string) config.JobSearchConfig {
	return config.JobSearchConfig{
		JoobleEndpoint: jooble,
		ArbeitnowURL:   arbeitnow,
		Timeout:        2 * time.Second,
		DefaultLimit:   10,
		MaxDescChars:   500,
	}
}

func TestSearchUsesJoobleWhenConfigured(t *testing.T) {
	var arbeitnowCalls atomic.Int32
	jooble := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/secret-key", r.URL.Path)

		var q joobleQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, "Backend Engineer", q.Keywords)
		assert.Equal(t, "Berlin", q.Location)
		assert.Equal(t, 40, q.Radius)

		_, _ = w.Write([]byte(`{"jobs":[{"title":"Backend Engineer","company":"Acme","location":"Berlin","link":"https://j/1","snippet":"Go services"}]}`))
	}))
	defer jooble.Close()
	arbeitnow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arbeitnowCalls.Add(1)
		_, _ = w.Write([]byte(arbeitnowSample))
	}))
	defer arbeitnow.Close()

	cfg := testConfig(jooble.URL, arbeitnow.URL)
	cfg.JoobleKey = "secret-key"
	s := NewSearcher(cfg, errors.Discard())

	jobs, err := s.Search(context.Background(), types.JobSearchRequest{
		ResumeStruct: types.ResumeStruct{SkillsCore: []string{"Go"}},
		TargetRole:   "Backend Engineer",
		Location:     "Berlin",
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, SourceJooble, jobs[0].Source)
	assert.Equal(t, 85.0, jobs[0].Score)
	assert.Zero(t, arbeitnowCalls.Load())
}

func TestSearchFallsBackToArbeitnow(t *testing.T) {
	jooble := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer jooble.Close()
	arbeitnow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(arbeitnowSample))
	}))
	defer arbeitnow.Close()

	cfg := testConfig(jooble.URL, arbeitnow.URL)
	cfg.JoobleKey = "bad-key"
	s := NewSearcher(cfg, errors.Discard())

	jobs, err := s.Search(context.Background(), types.JobSearchRequest{
		ResumeStruct: types.ResumeStruct{Keywords: []string{"PostgreSQL"}},
		Limit:        1,
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Backend Engineer (Go)", jobs[0].Title)
	assert.Equal(t, SourceArbeitnow, jobs[0].Source)
}

func TestSearchWithoutKeyOrResultsIsRejected(t *testing.T) {
	arbeitnow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer arbeitnow.Close()

	s := NewSearcher(testConfig("", arbeitnow.URL), errors.Discard())
	_, err := s.Search(context.Background(), types.JobSearchRequest{TargetRole: "Engineer"})

	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, errors.ErrCodeMissingAPIKey, errors.CodeOf(err))
}
