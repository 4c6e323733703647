package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"locaudit/internal/config"
)

// FetchResult is the raw outcome of one page retrieval.
type FetchResult struct {
	Body       []byte
	StatusCode int
	FinalURL   string
}

// Fetcher retrieves page HTML with bounded retries.
type Fetcher struct {
	cfg        config.Fetch
	httpClient *http.Client
	sleeper    func(time.Duration)
}

// FetcherOption customizes the fetcher.
type FetcherOption func(*Fetcher)

// WithFetchHTTPClient overrides the default HTTP client.
func WithFetchHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithFetchSleeper overrides how retry sleeps are performed (useful for tests).
func WithFetchSleeper(sleeper func(time.Duration)) FetcherOption {
	return func(f *Fetcher) {
		f.sleeper = sleeper
	}
}

// NewFetcher constructs a Fetcher from configuration.
func NewFetcher(cfg config.Fetch, opts ...FetcherOption) *Fetcher {
	timeout := 30 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 4 << 20
	}
	fetcher := &Fetcher{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch retrieves a page. Challenge status codes (403, 429, 503) return the
// body without error so callers can run block detection on the response;
// other failures retry with backoff before reporting the last error.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*FetchResult, error) {
	return f.fetch(ctx, pageURL, true)
}

// FetchStrict retrieves a page treating every non-2xx status as a failure,
// including the challenge codes Fetch lets through for block detection.
func (f *Fetcher) FetchStrict(ctx context.Context, pageURL string) (*FetchResult, error) {
	return f.fetch(ctx, pageURL, false)
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string, allowChallenge bool) (*FetchResult, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return nil, errors.New("fetch: url required")
	}
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("fetch: invalid url %q", pageURL)
	}

	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		result, err := f.fetchOnce(ctx, pageURL, allowChallenge)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		if attempt < f.cfg.MaxAttempts {
			if sleepErr := f.sleep(ctx, f.backoff(attempt)); sleepErr != nil {
				return nil, sleepErr
			}
		}
	}
	return nil, fmt.Errorf("fetch %s: failed after %d attempts: %w", pageURL, f.cfg.MaxAttempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, pageURL string, allowChallenge bool) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: new request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}

	result := &FetchResult{
		Body:       body,
		StatusCode: resp.StatusCode,
		FinalURL:   pageURL,
	}
	if resp.Request != nil && resp.Request.URL != nil {
		result.FinalURL = resp.Request.URL.String()
	}

	switch {
	case resp.StatusCode < http.StatusBadRequest:
		return result, nil
	case allowChallenge &&
		(resp.StatusCode == http.StatusForbidden ||
			resp.StatusCode == http.StatusTooManyRequests ||
			resp.StatusCode == http.StatusServiceUnavailable):
		// Challenge pages frequently respond with these codes; the caller
		// decides whether this is a block or a hard failure.
		return result, nil
	default:
		return nil, fmt.Errorf("fetch %s: http %d", pageURL, resp.StatusCode)
	}
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	base := time.Duration(f.cfg.BackoffSeconds) * time.Second
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

func (f *Fetcher) sleep(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	if f.sleeper != nil {
		f.sleeper(delay)
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
