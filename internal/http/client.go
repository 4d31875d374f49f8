// Package http is the transport used by the API builder. It owns the
// underlying retryable HTTP client, default headers, authentication and
// response decoding; callers hand it a fully-formed Request.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/cardcast/internal/auth"
	"github.com/fivetwenty-io/cardcast/internal/constants"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/klauspost/compress/gzip"
)

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Client is an HTTP client bound to one base URL.
type Client struct {
	baseURL      string
	httpClient   *retryablehttp.Client
	tokenManager auth.TokenManager
	headers      http.Header
	userAgent    string
	logger       Logger
	debug        bool
	gzip         bool
}

// Request describes one outgoing call. Path is resolved against the client's
// base URL unless it is already absolute. At most one of Body, Form and
// RawBody is sent, in that order of preference.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	RawQuery string
	Headers  map[string]string
	Body     interface{}
	Form     url.Values
	RawBody  io.Reader
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// NewClient creates a client for baseURL. tokenManager may be nil.
func NewClient(baseURL string, tokenManager auth.TokenManager, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   retryClient,
		tokenManager: tokenManager,
		headers:      make(http.Header),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// BaseURL returns the URL every relative path is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// DefaultHeaders returns a copy of the headers sent with every request.
func (c *Client) DefaultHeaders() http.Header {
	return c.headers.Clone()
}

// Do sends the request. A non-2xx status returns both the response and a
// *TransportError wrapping ErrUnexpectedStatus. A 401 refreshes the token
// through the token manager and resends the request once.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	fullURL, err := c.resolveURL(req)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	err = c.applyHeaders(ctx, httpReq.Request, req, contentType)
	if err != nil {
		return nil, err
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method": req.Method,
			"url":    fullURL,
		})
	}

	resp, err := c.send(httpReq, req.Method, fullURL)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized && c.tokenManager != nil {
		resp, err = c.retryUnauthorized(ctx, httpReq, req.Method, fullURL, resp)
		if err != nil {
			return nil, err
		}
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"method":      req.Method,
			"url":         fullURL,
			"status_code": resp.StatusCode,
			"bytes":       len(resp.Body),
		})
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return resp, &TransportError{
			Method:     req.Method,
			URL:        fullURL,
			StatusCode: resp.StatusCode,
			Body:       truncate(resp.Body),
			Err:        ErrUnexpectedStatus,
		}
	}

	return resp, nil
}

// retryUnauthorized refreshes the token and resends once. When the token
// cannot be refreshed the original 401 response is kept.
func (c *Client) retryUnauthorized(ctx context.Context, httpReq *retryablehttp.Request, method, fullURL string, resp *Response) (*Response, error) {
	err := c.tokenManager.RefreshToken(ctx)
	if err != nil {
		if c.logger != nil {
			c.logger.Debug("token refresh failed", map[string]interface{}{"error": err.Error()})
		}

		return resp, nil
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting access token: %w", err)
	}

	httpReq.Header.Set("Authorization", "Bearer "+token)

	return c.send(httpReq, method, fullURL)
}

func (c *Client) send(httpReq *retryablehttp.Request, method, fullURL string) (*Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: method, URL: fullURL, Err: err}
	}

	defer func() {
		closeErr := httpResp.Body.Close()
		if closeErr != nil && c.logger != nil {
			c.logger.Warn("failed to close response body", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	data, err := c.readBody(httpResp)
	if err != nil {
		return nil, &TransportError{Method: method, URL: fullURL, StatusCode: httpResp.StatusCode, Err: err}
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       data,
	}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPut, Path: path, Body: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) resolveURL(req *Request) (string, error) {
	var full string

	if strings.HasPrefix(req.Path, "http://") || strings.HasPrefix(req.Path, "https://") {
		full = req.Path
	} else {
		full = c.baseURL + "/" + strings.TrimPrefix(req.Path, "/")
	}

	parsed, err := url.Parse(full)
	if err != nil {
		return "", fmt.Errorf("parsing request URL %q: %w", full, err)
	}

	switch {
	case req.RawQuery != "":
		parsed.RawQuery = req.RawQuery
	case len(req.Query) > 0:
		parsed.RawQuery = req.Query.Encode()
	}

	return parsed.String(), nil
}

func (c *Client) applyHeaders(ctx context.Context, httpReq *http.Request, req *Request, contentType string) error {
	for key, values := range c.headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	if c.gzip {
		httpReq.Header.Set("Accept-Encoding", "gzip")
	}

	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if c.tokenManager != nil {
		token, err := c.tokenManager.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("getting access token: %w", err)
		}

		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	return nil
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	reader := io.Reader(resp.Body)

	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("opening gzip body: %w", err)
		}
		defer gz.Close()

		reader = gz
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return data, nil
}

func encodeBody(req *Request) (interface{}, string, error) {
	switch {
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling JSON body: %w", err)
		}

		return bytes.NewReader(data), "application/json", nil
	case req.Form != nil:
		return strings.NewReader(req.Form.Encode()), "application/x-www-form-urlencoded", nil
	case req.RawBody != nil:
		return req.RawBody, "", nil
	default:
		return nil, "", nil
	}
}

func truncate(data []byte) string {
	if len(data) > constants.MaxErrorBodySize {
		data = data[:constants.MaxErrorBodySize]
	}

	return string(data)
}
