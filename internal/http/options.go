package http

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/cardcast/internal/constants"
)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug and warning output.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug logs every request and response through the configured logger.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithDefaultHeaders adds headers sent with every request. Request headers
// with the same name win.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for key, value := range headers {
			c.headers.Set(key, value)
		}
	}
}

// WithRetryConfig enables retries on connection errors, 5xx and 429 responses.
// Zero waits fall back to the package defaults.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		if waitMin <= 0 {
			waitMin = constants.DefaultRetryWaitMin
		}

		if waitMax <= 0 {
			waitMax = constants.DefaultRetryWaitMax
		}

		c.httpClient.RetryMax = retryMax
		c.httpClient.RetryWaitMin = waitMin
		c.httpClient.RetryWaitMax = waitMax
		c.httpClient.CheckRetry = retryablehttp.DefaultRetryPolicy
		c.httpClient.Backoff = retryablehttp.DefaultBackoff
	}
}

// WithTimeout sets the overall timeout of a single attempt.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithGzip negotiates gzip content encoding and decodes compressed bodies.
func WithGzip(enabled bool) Option {
	return func(c *Client) {
		c.gzip = enabled
	}
}

// WithHTTPClient replaces the underlying *http.Client, e.g. to inject a test
// transport. The client is copied, so later options such as WithTimeout and
// WithThrottle never modify hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			copied := *hc
			c.httpClient.HTTPClient = &copied
		}
	}
}

// WithThrottle limits outgoing requests with a token bucket. Non-positive
// values leave the client unthrottled.
func WithThrottle(rps, burst int) Option {
	return func(c *Client) {
		if rps <= 0 || burst <= 0 {
			return
		}

		base := c.httpClient.HTTPClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}

		c.httpClient.HTTPClient.Transport = &throttledTransport{
			limiter: rate.NewLimiter(rate.Limit(rps), burst),
			base:    base,
		}
	}
}

// throttledTransport waits on a rate limiter before each round trip.
type throttledTransport struct {
	limiter *rate.Limiter
	base    http.RoundTripper
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	err := t.limiter.Wait(req.Context())
	if err != nil {
		return nil, err
	}

	return t.base.RoundTrip(req)
}
