package jobsearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"neuromatch/internal/config"
	"neuromatch/internal/errors"
	"neuromatch/internal/types"
	"neuromatch/internal/utils"
)

const (
	SourceJooble    = "Jooble"
	SourceArbeitnow = "Arbeitnow"

	maxBodyBytes = 4 << 20
)

// Searcher finds postings on public job boards and scores them against
// résumé keywords
type Searcher struct {
	httpClient *http.Client
	cfg        config.JobSearchConfig
	logger     *errors.Logger
}

// NewSearcher creates a Searcher. Jooble is queried only when a key is set.
func NewSearcher(cfg config.JobSearchConfig, logger *errors.Logger) *Searcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 10
	}
	if cfg.MaxDescChars <= 0 {
		cfg.MaxDescChars = 500
	}
	return &Searcher{
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		cfg:        cfg,
		logger:     logger,
	}
}

// Search queries Jooble first and falls back to Arbeitnow when Jooble is
// not configured or returned nothing. Results are scored, sorted by score
// and cut to the requested limit.
func (s *Searcher) Search(ctx context.Context, req types.JobSearchRequest) ([]types.Job, error) {
	keywords := Keywords(req.ResumeStruct, req.TargetRole)
	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	var jobs []types.Job
	if s.cfg.JoobleKey != "" {
		found, err := s.searchJooble(ctx, req, keywords)
		if err != nil {
			s.logger.LogError(err, "Jooble search failed, trying fallback source")
		}
		jobs = found
	}

	if len(jobs) == 0 {
		found, err := s.searchArbeitnow(ctx)
		if err != nil {
			s.logger.LogError(err, "Arbeitnow search failed")
		}
		jobs = found
	}

	ranked := Rank(jobs, keywords, req.TargetRole, req.Location, limit)
	if len(ranked) == 0 && s.cfg.JoobleKey == "" {
		return nil, errors.NewValidationError(errors.ErrCodeMissingAPIKey,
			"JOOBLE_API_KEY is not configured and the fallback source returned no jobs", nil)
	}

	s.logger.Info("Job search completed",
		"keywords", len(keywords),
		"fetched", len(jobs),
		"returned", len(ranked))
	return ranked, nil
}

// fetch performs one request and returns the body of a 200 response
func (s *Searcher) fetch(req *http.Request, source string) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeJobSearchFailed,
			fmt.Sprintf("%s request failed", source), err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewNetworkError(errors.ErrCodeJobSearchFailed,
			fmt.Sprintf("failed to read %s response", source), err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewNetworkError(errors.ErrCodeJobSearchFailed,
			fmt.Sprintf("%s returned HTTP %d", source, resp.StatusCode), nil).
			WithContext("status", resp.StatusCode).
			WithContext("payload", utils.Truncate(string(body), 200))
	}
	return body, nil
}
