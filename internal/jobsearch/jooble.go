package jobsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"neuromatch/internal/errors"
	"neuromatch/internal/types"
	"neuromatch/internal/utils"
)

const joobleMaxJobs = 40

type joobleQuery struct {
	Keywords   string `json:"keywords"`
	Location   string `json:"location"`
	Page       int    `json:"page"`
	SearchMode int    `json:"searchMode"`
	Radius     int    `json:"radius"`
}

// joobleKeywords prefers the target role, then the joined keyword list
func joobleKeywords(targetRole string, keywords []string) string {
	if targetRole != "" {
		return targetRole
	}
	if len(keywords) > 0 {
		return strings.Join(keywords, " ")
	}
	return "engineer"
}

func (s *Searcher) searchJooble(ctx context.Context, req types.JobSearchRequest, keywords []string) ([]types.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(joobleQuery{
		Keywords:   joobleKeywords(req.TargetRole, queryKeywords(keywords)),
		Location:   req.Location,
		Page:       1,
		SearchMode: 1,
		Radius:     40,
	})
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeJobSearchFailed, "failed to encode Jooble query", err)
	}

	endpoint := strings.TrimRight(s.cfg.JoobleEndpoint, "/") + "/" + s.cfg.JoobleKey
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeJobSearchFailed, "failed to build Jooble request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	body, err := s.fetch(httpReq, SourceJooble)
	if err != nil {
		return nil, err
	}
	return parseJooble(body, s.cfg.MaxDescChars)
}

// parseJooble reads up to 40 postings from a Jooble response
func parseJooble(body []byte, maxDesc int) ([]types.Job, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.NewNetworkError(errors.ErrCodeJobSearchFailed, "Jooble returned invalid JSON", nil)
	}

	var jobs []types.Job
	gjson.GetBytes(body, "jobs").ForEach(func(_, item gjson.Result) bool {
		jobs = append(jobs, types.Job{
			Title:       item.Get("title").String(),
			Company:     item.Get("company").String(),
			Location:    item.Get("location").String(),
			Link:        item.Get("link").String(),
			Source:      SourceJooble,
			Description: utils.Truncate(htmlToText(item.Get("snippet").String()), maxDesc),
		})
		return len(jobs) < joobleMaxJobs
	})
	return jobs, nil
}
