package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/yihu111/tech-europe-hackathon/internal/utils"

	"go.uber.org/zap"
)

const acceptHeader = "application/vnd.github+json"

// getJSON makes a GET request and decodes the response body into target.
// Rate-limited and transport failures are retried with backoff up to
// MaxRetries; the final failure is returned as the taxonomy error.
func (c *Client) getJSON(ctx context.Context, rawURL string, q url.Values, target interface{}) error {
	attempts := c.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := c.getJSONOnce(ctx, rawURL, q, target)
		if err == nil {
			return nil
		}

		lastErr = err

		backoff, retryable := retryHint(err, attempt)
		if !retryable {
			return err
		}

		c.logger.Debug("retrying request",
			zap.String("url", rawURL),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		if err := utils.WaitFor(ctx, backoff); err != nil {
			return err
		}
	}

	return lastErr
}

// retryHint reports whether the error warrants a retry and with what backoff.
func retryHint(err error, attempt int) (time.Duration, bool) {
	var limited *RateLimitedError
	if errors.As(err, &limited) {
		backoff := limited.RetryAfter
		if backoff <= 0 {
			backoff = time.Second << attempt
		}
		return backoff, true
	}

	if errors.Is(err, ErrUpstreamUnavailable) {
		return time.Second << attempt, true
	}

	return 0, false
}

func (c *Client) getJSONOnce(ctx context.Context, rawURL string, q url.Values, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	c.setHeaders(req)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// Cancellation is not an upstream failure.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusToError(resp); err != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<12))
		return err
	}

	if target == nil {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body: %v", ErrUpstreamUnavailable, err)
	}

	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}

	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", acceptHeader)
}

// statusToError maps an HTTP response status to the error taxonomy.
func statusToError(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", resp.Request.URL.Path, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && rateLimitExhausted(resp):
		return &RateLimitedError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %s", ErrUpstreamUnavailable, resp.Status)
	default:
		return fmt.Errorf("bad status: %s", resp.Status)
	}
}

func rateLimitExhausted(resp *http.Response) bool {
	return resp.Header.Get("X-RateLimit-Remaining") == "0"
}

// retryAfter extracts the backoff hint from Retry-After seconds or the
// X-RateLimit-Reset epoch. Zero means no hint was provided.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}

	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			if d := time.Until(time.Unix(epoch, 0)); d > 0 {
				return d
			}
		}
	}

	return 0
}

// addPage sets the page parameter on the query values.
func addPage(q url.Values, page int) url.Values {
	next := url.Values{}
	for k, v := range q {
		next[k] = v
	}
	next.Set("page", strconv.Itoa(page))
	return next
}
