package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/iptv-italy/iptv-italy/metrics"
)

// Client is the shared HTTP client for provider API calls. Requests are
// rate limited so that a large registry does not hammer a provider, and
// every call is bounded by the configured timeout.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Client with the given per-request timeout and a
// sustained requests-per-second limit
func NewClient(timeout time.Duration, rps float64) *Client {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Get issues a GET request and returns the response status and body.
// The status and body are returned for any well-formed HTTP response,
// success or not; err is non-nil only for transport-level failures.
func (c *Client) Get(ctx context.Context, rawURL string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("warning: failed to close response body: %v", closeErr)
		}
	}()

	metrics.ObserveUpstreamRequest(req.URL.Host, time.Since(start).Seconds())

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// GetJSON issues a GET request and decodes the JSON body into v.
// Non-success statuses are mapped to UpstreamError, undecodable bodies to
// ErrMalformedResponse.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v interface{}) error {
	status, body, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}

	if status < 200 || status >= 300 {
		return &UpstreamError{Status: status}
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return nil
}
