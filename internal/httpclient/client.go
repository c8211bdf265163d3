// Package httpclient wraps net/http with the retry behavior reddit and its
// media hosts expect: exponential backoff on transport errors, 429 and 5xx.
package httpclient

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	defaultAttempts = 3
	baseBackoff     = 500 * time.Millisecond
	maxBackoff      = 10 * time.Second
)

type Client struct {
	hc        *http.Client
	userAgent string
	attempts  int
	log       *slog.Logger
}

func New(timeout time.Duration, userAgent string, attempts int, log *slog.Logger) *Client {
	if attempts < 1 {
		attempts = defaultAttempts
	}

	return &Client{
		hc:        &http.Client{Timeout: timeout},
		userAgent: userAgent,
		attempts:  attempts,
		log:       log.With(slog.String("item", "HTTPClient")),
	}
}

// Do sends req, filling in the configured user agent when the caller set
// none. Retryable failures are re-sent with exponential backoff, the body
// of a retried response is always closed.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	var lastErr error
	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			backoff := baseBackoff << (attempt - 1)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}

			c.log.Debug("Retry request",
				slog.String("url", req.URL.String()),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)

			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(backoff):
			}

			if req.Body != nil {
				if req.GetBody == nil {
					return nil, fmt.Errorf("cannot retry request with unrepeatable body: %w", lastErr)
				}

				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("cannot rewind request body: %w", err)
				}
				req.Body = body
			}
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			lastErr = err

			continue
		}

		if isRetryableStatus(resp.StatusCode) && attempt < c.attempts-1 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server returned %s", resp.Status)

			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("cannot do request after %d attempts: %w", c.attempts, lastErr)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
