// Package gateway provides a gateway to the GitHub REST API,
// abstracting away the underlying client and its error types.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v84/github"

	"github.com/naka-gawa/github-stats-exporter/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching repository stats from GitHub.
type Fetcher interface {
	Fetch(ctx context.Context) (*domain.RepositoryStats, error)
}

// StatsFetcher is the concrete implementation of the Fetcher interface.
// It reads the public metadata of a single repository.
type StatsFetcher struct {
	repo   domain.Repository
	client *github.Client
	logger *log.Logger
}

// NewStatsFetcher creates a StatsFetcher for repo that sends its requests through httpClient.
func NewStatsFetcher(repo domain.Repository, httpClient *http.Client, logger *log.Logger) *StatsFetcher {
	client := github.NewClient(httpClient)
	client.UserAgent = UserAgent
	return &StatsFetcher{
		repo:   repo,
		client: client,
		logger: logger,
	}
}

// WithBaseURL points the fetcher at another API root, e.g. a GitHub Enterprise host.
// The URL must end with a trailing slash.
func (f *StatsFetcher) WithBaseURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse base URL: %w", err)
	}
	f.client.BaseURL = u
	return nil
}

// URL returns the resolved endpoint the fetcher reads from.
func (f *StatsFetcher) URL() string {
	return fmt.Sprintf("%srepos/%s/%s", f.client.BaseURL.String(), f.repo.Owner, f.repo.Name)
}

// Fetch performs a single request for the repository metadata.
// It returns a RequestError, DecodeError or StatusError on failure and never retries.
func (f *StatsFetcher) Fetch(ctx context.Context) (*domain.RepositoryStats, error) {
	endpoint := f.URL()
	f.logger.Info("fetching stats", "url", endpoint)

	req, err := f.client.NewRequest(http.MethodGet, fmt.Sprintf("repos/%v/%v", f.repo.Owner, f.repo.Name), nil)
	if err != nil {
		return nil, &RequestError{URL: endpoint, Err: err}
	}

	var payload statsPayload
	resp, err := f.client.Do(ctx, req, &payload)
	if err != nil {
		return nil, classify(endpoint, resp, err)
	}

	stats, err := toStats(&payload)
	if err != nil {
		return nil, &DecodeError{URL: endpoint, Err: err}
	}

	f.logger.Info("stats fetched", "open_issues_count", stats.OpenIssuesCount, "stargazers_count", stats.StargazersCount)
	return stats, nil
}

// statsPayload holds the only fields read from the repository metadata; everything else is ignored.
type statsPayload struct {
	OpenIssuesCount *int64 `json:"open_issues_count"`
	StargazersCount *int64 `json:"stargazers_count"`
}

func toStats(p *statsPayload) (*domain.RepositoryStats, error) {
	if p.OpenIssuesCount == nil {
		return nil, fmt.Errorf("%w: open_issues_count", ErrMissingField)
	}
	if p.StargazersCount == nil {
		return nil, fmt.Errorf("%w: stargazers_count", ErrMissingField)
	}
	if *p.OpenIssuesCount < 0 {
		return nil, fmt.Errorf("%w: open_issues_count=%d", ErrNegativeValue, *p.OpenIssuesCount)
	}
	if *p.StargazersCount < 0 {
		return nil, fmt.Errorf("%w: stargazers_count=%d", ErrNegativeValue, *p.StargazersCount)
	}
	return &domain.RepositoryStats{
		OpenIssuesCount: int(*p.OpenIssuesCount),
		StargazersCount: int(*p.StargazersCount),
	}, nil
}

// classify maps an error from the go-github client onto the fetch error taxonomy.
func classify(endpoint string, resp *github.Response, err error) error {
	var (
		errorResp   *github.ErrorResponse
		rateErr     *github.RateLimitError
		abuseErr    *github.AbuseRateLimitError
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
		netErr      net.Error
		rawResponse *http.Response
	)
	if resp != nil {
		rawResponse = resp.Response
	}

	switch {
	case errors.As(err, &rateErr):
		return &StatusError{URL: endpoint, StatusCode: statusCode(rateErr.Response), Message: rateErr.Message, Err: err}
	case errors.As(err, &abuseErr):
		return &StatusError{URL: endpoint, StatusCode: statusCode(abuseErr.Response), Message: abuseErr.Message, Err: err}
	case errors.As(err, &errorResp):
		return &StatusError{URL: endpoint, StatusCode: statusCode(errorResp.Response), Message: errorResp.Message, Err: err}
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return &DecodeError{URL: endpoint, Err: err}
	case rawResponse == nil,
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr):
		return &RequestError{URL: endpoint, Err: err}
	case rawResponse.StatusCode < 200 || rawResponse.StatusCode > 299:
		return &StatusError{URL: endpoint, StatusCode: rawResponse.StatusCode, Message: http.StatusText(rawResponse.StatusCode), Err: err}
	default:
		return &DecodeError{URL: endpoint, Err: err}
	}
}

func statusCode(resp *http.Response) int {
	if resp == nil {
		return 0
	}
	return resp.StatusCode
}
