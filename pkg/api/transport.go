package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fivetwenty-io/cardcast/internal/auth"
	cchttp "github.com/fivetwenty-io/cardcast/internal/http"
)

// Request is a fully resolved request handed to a Transport. Path is relative
// to the transport's base URL. At most one of JSON, Form and Body is set.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Headers  map[string]string
	JSON     interface{}
	Form     url.Values
	Body     io.Reader

	Version  string
	Endpoint string
	Action   string
	Metadata map[string]interface{}
}

// Response is the raw result of a dispatched request.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v interface{}) error {
	err := json.Unmarshal(r.Body, v)
	if err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	return nil
}

// Transport performs one request. Failures are returned as they are; the
// builder never retries or reinterprets them.
type Transport interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// TransportOptions are the transport-level settings fixed at client creation.
type TransportOptions struct {
	Timeout       time.Duration
	RetryMax      int
	RetryWaitMin  time.Duration
	RetryWaitMax  time.Duration
	ThrottleRPS   int
	ThrottleBurst int
	Token         string
	Debug         bool
	HTTPClient    *http.Client
}

// TransportConfig is what a client is built from: one per API version.
type TransportConfig struct {
	BaseURL string
	Headers map[string]string
	Gzip    bool
	Options TransportOptions
	Logger  Logger
}

// TransportFactory builds a Transport for one version.
type TransportFactory func(cfg TransportConfig) (Transport, error)

// NewHTTPTransport is the default TransportFactory, backed by a retryable
// HTTP client.
func NewHTTPTransport(cfg TransportConfig) (Transport, error) {
	opts := []cchttp.Option{
		cchttp.WithDefaultHeaders(cfg.Headers),
		cchttp.WithGzip(cfg.Gzip),
		cchttp.WithDebug(cfg.Options.Debug),
	}

	if cfg.Logger != nil {
		opts = append(opts, cchttp.WithLogger(cfg.Logger))
	}

	if cfg.Options.HTTPClient != nil {
		opts = append(opts, cchttp.WithHTTPClient(cfg.Options.HTTPClient))
	}

	if cfg.Options.Timeout > 0 {
		opts = append(opts, cchttp.WithTimeout(cfg.Options.Timeout))
	}

	if cfg.Options.RetryMax > 0 {
		opts = append(opts, cchttp.WithRetryConfig(cfg.Options.RetryMax, cfg.Options.RetryWaitMin, cfg.Options.RetryWaitMax))
	}

	if cfg.Options.ThrottleRPS > 0 {
		opts = append(opts, cchttp.WithThrottle(cfg.Options.ThrottleRPS, cfg.Options.ThrottleBurst))
	}

	var tokenManager auth.TokenManager
	if cfg.Options.Token != "" {
		tokenManager = auth.NewStaticTokenManager(cfg.Options.Token)
	}

	return &httpTransport{client: cchttp.NewClient(cfg.BaseURL, tokenManager, opts...)}, nil
}

type httpTransport struct {
	client *cchttp.Client
}

func (t *httpTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := t.client.Do(ctx, &cchttp.Request{
		Method:   req.Method,
		Path:     req.Path,
		RawQuery: req.RawQuery,
		Headers:  req.Headers,
		Body:     req.JSON,
		Form:     req.Form,
		RawBody:  req.Body,
	})
	if resp == nil {
		return nil, err
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
		Error:      err,
	}, err
}
