// Package catalog wraps the Spotify Web API calls the sync engine needs:
// token exchange, top-artist listing and related-artist listing.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

const (
	accountsBaseURL = "https://accounts.spotify.com"
	apiBaseURL      = "https://api.spotify.com/v1"

	// DefaultTopArtistLimit is the page size for top-artist listings.
	DefaultTopArtistLimit = 50

	// maxServerRetries is the number of additional attempts after a
	// 5xx response.
	maxServerRetries = 3

	// rateLimitPadding is added on top of the Retry-After value before
	// retrying a rate-limited request.
	rateLimitPadding = 5 * time.Second

	// defaultRetryAfter is used when a 429 carries no Retry-After header.
	defaultRetryAfter = 2 * time.Second
)

// Sentinel errors.
var (
	// ErrInvalidGrant is returned when the upstream reports a refresh
	// token as revoked or expired. This is a terminal condition for the
	// stored credential, not a retryable fault.
	ErrInvalidGrant = errors.New("refresh token revoked")
)

// StatusError is an unexpected HTTP status from the catalog service,
// surfaced after the retry policy is exhausted.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog status %d: %s", e.StatusCode, e.Body)
}

// Client is a Spotify Web API client with rate-limit backoff and
// transient-failure retry built in.
type Client struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client

	accountsURL string
	apiURL      string

	// sleep is replaced in tests to avoid real waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a catalog client with the given application credentials.
func New(clientID, clientSecret string) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		accountsURL: accountsBaseURL,
		apiURL:      apiBaseURL,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// do executes a request with the client's retry policy: a 429 is retried
// once after (Retry-After + padding); a 5xx is retried up to
// maxServerRetries additional times with no backoff; anything else
// propagates unchanged. newRequest is called per attempt because request
// bodies cannot be replayed.
func (c *Client) do(ctx context.Context, newRequest func() (*http.Request, error)) ([]byte, error) {
	rateLimitRetried := false
	serverRetries := 0

	for {
		req, err := newRequest()
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req = req.WithContext(ctx)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("executing request: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading response body: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && !rateLimitRetried {
			rateLimitRetried = true
			if err := c.sleep(ctx, retryAfter(resp)+rateLimitPadding); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 500 && serverRetries < maxServerRetries {
			serverRetries++
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		return body, nil
	}
}

// retryAfter reads the Retry-After header from a 429 response.
func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return defaultRetryAfter
	}
	seconds, err := strconv.Atoi(header)
	if err != nil {
		return defaultRetryAfter
	}
	return time.Duration(seconds) * time.Second
}
