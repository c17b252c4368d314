package jobsearch

import (
	"context"
	"net/http"

	"github.com/tidwall/gjson"

	"neuromatch/internal/errors"
	"neuromatch/internal/types"
	"neuromatch/internal/utils"
)

const arbeitnowMaxJobs = 50

func (s *Searcher) searchArbeitnow(ctx context.Context) ([]types.Job, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.ArbeitnowURL, nil)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeJobSearchFailed, "failed to build Arbeitnow request", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	body, err := s.fetch(httpReq, SourceArbeitnow)
	if err != nil {
		return nil, err
	}
	return parseArbeitnow(body, s.cfg.MaxDescChars)
}

// parseArbeitnow reads up to 50 postings from the job board API. Remote
// postings get a " | Remote" location suffix.
func parseArbeitnow(body []byte, maxDesc int) ([]types.Job, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.NewNetworkError(errors.ErrCodeJobSearchFailed, "Arbeitnow returned invalid JSON", nil)
	}

	var jobs []types.Job
	gjson.GetBytes(body, "data").ForEach(func(_, item gjson.Result) bool {
		location := item.Get("location").String()
		if item.Get("remote").Bool() {
			location += " | Remote"
		}
		jobs = append(jobs, types.Job{
			Title:       item.Get("title").String(),
			Company:     item.Get("company_name").String(),
			Location:    location,
			Link:        item.Get("url").String(),
			Source:      SourceArbeitnow,
			Description: utils.Truncate(htmlToText(item.Get("description").String()), maxDesc),
		})
		return len(jobs) < arbeitnowMaxJobs
	})
	return jobs, nil
}
