package gateway

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

// UserAgent is sent with every request to the GitHub API.
const UserAgent = "github-stats-fetcher"

// ClientConfig configures the shared HTTP client used to talk to GitHub.
type ClientConfig struct {
	ConnectTimeout time.Duration
	Timeout        time.Duration

	// OnRateLimited is invoked when GitHub answers with a secondary rate limit.
	// The request is never delayed; the limited response is returned as is.
	OnRateLimited func()
}

// NewHTTPClient builds the HTTP client shared by all fetch cycles.
func NewHTTPClient(cfg ClientConfig) (*http.Client, error) {
	if cfg.ConnectTimeout <= 0 {
		return nil, errors.New("connect timeout must be positive")
	}
	if cfg.Timeout <= 0 {
		return nil, errors.New("timeout must be positive")
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout

	// A zero single sleep limit turns the waiter into a detector: every
	// limit exceeds it, so the callback fires and the response passes through.
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(transport,
		github_ratelimit.WithSingleSleepLimit(0, func(*github_ratelimit.CallbackContext) {
			if cfg.OnRateLimited != nil {
				cfg.OnRateLimited()
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	return &http.Client{
		Transport: &userAgentTransport{base: rateLimitWaiter},
		Timeout:   cfg.Timeout,
	}, nil
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(req)
}
