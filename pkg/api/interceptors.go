package api

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// RequestInterceptor is called before a request is dispatched. Returning an
// error aborts the dispatch.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor is called after a request was dispatched, whatever its
// outcome. resp.Error holds the transport error, if any.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain holds the interceptors of an API. Each interceptor is
// registered for a scope: "" matches every request, "deck" every action of
// that endpoint and "deck.get" one endpoint action. Action aliases in a scope
// are resolved, so "deck.show" and "deck.get" are the same scope.
type InterceptorChain struct {
	requestInterceptors  []scoped[RequestInterceptor]
	responseInterceptors []scoped[ResponseInterceptor]
}

type scoped[T any] struct {
	endpoint string
	action   string
	fn       T
}

func newScoped[T any](scope string, fn T) scoped[T] {
	endpoint, action, found := strings.Cut(scope, ".")
	if found {
		action = ResolveAction(action)
	}

	return scoped[T]{endpoint: endpoint, action: action, fn: fn}
}

func (s scoped[T]) matches(req *Request) bool {
	if s.endpoint == "" {
		return true
	}

	return s.endpoint == req.Endpoint && (s.action == "" || s.action == req.Action)
}

// NewInterceptorChain creates an empty interceptor chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor adds a request interceptor for every request.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.AddRequestInterceptorFor("", interceptor)
}

// AddRequestInterceptorFor adds a request interceptor for scope.
func (c *InterceptorChain) AddRequestInterceptorFor(scope string, interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, newScoped(scope, interceptor))
}

// AddResponseInterceptor adds a response interceptor for every request.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.AddResponseInterceptorFor("", interceptor)
}

// AddResponseInterceptorFor adds a response interceptor for scope.
func (c *InterceptorChain) AddResponseInterceptorFor(scope string, interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, newScoped(scope, interceptor))
}

// ExecuteRequestInterceptors stamps req.Metadata["start_time"], unless already
// set, then runs the matching request interceptors in registration order.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	if req.Metadata == nil {
		req.Metadata = make(map[string]interface{})
	}

	if _, ok := req.Metadata["start_time"]; !ok {
		req.Metadata["start_time"] = time.Now()
	}

	for _, interceptor := range c.requestInterceptors {
		if !interceptor.matches(req) {
			continue
		}

		err := interceptor.fn(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor for %s.%s failed: %w", req.Endpoint, req.Action, err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs the matching response interceptors in
// registration order.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	for _, interceptor := range c.responseInterceptors {
		if !interceptor.matches(req) {
			continue
		}

		err := interceptor.fn(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor for %s.%s failed: %w", req.Endpoint, req.Action, err)
		}
	}

	return nil
}

// LoggingInterceptor logs every outgoing request.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		logger.Debug("API Request", map[string]interface{}{
			"method":   req.Method,
			"path":     req.Path,
			"query":    req.RawQuery,
			"endpoint": req.Endpoint,
			"action":   req.Action,
		})

		return nil
	}
}

// LoggingResponseInterceptor logs every response, at error level on failure.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(_ context.Context, req *Request, resp *Response) error {
		fields := map[string]interface{}{
			"method":      req.Method,
			"path":        req.Path,
			"status_code": resp.StatusCode,
		}

		if resp.Error != nil {
			fields["error"] = resp.Error.Error()
			logger.Error("API Response Error", fields)
		} else {
			logger.Debug("API Response", fields)
		}

		return nil
	}
}

// HeaderInterceptor sets headers on every request.
func HeaderInterceptor(headers map[string]string) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		if req.Headers == nil {
			req.Headers = make(map[string]string, len(headers))
		}

		for key, value := range headers {
			req.Headers[key] = value
		}

		return nil
	}
}

// Metrics aggregates calls to one endpoint action.
type Metrics struct {
	TotalRequests   int64
	TotalErrors     int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector collects per endpoint action metrics. Keys look like
// "decks.index".
type MetricsCollector struct {
	mu       sync.Mutex
	metrics  map[string]*Metrics
	onChange func(key string, metrics Metrics)
}

// NewMetricsCollector creates a new metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metrics),
	}
}

// SetOnChange sets a callback for when metrics change.
func (m *MetricsCollector) SetOnChange(fn func(key string, metrics Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onChange = fn
}

// GetMetrics returns a snapshot of the metrics for key.
func (m *MetricsCollector) GetMetrics(key string) (Metrics, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	metrics, ok := m.metrics[key]
	if !ok {
		return Metrics{}, false
	}

	return *metrics, true
}

func (m *MetricsCollector) record(key string, latency time.Duration, failed bool) {
	m.mu.Lock()

	metrics, ok := m.metrics[key]
	if !ok {
		metrics = &Metrics{}
		m.metrics[key] = metrics
	}

	metrics.TotalRequests++
	metrics.LastRequestTime = time.Now()

	if latency > 0 {
		metrics.TotalLatency += latency
		metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.TotalRequests)
	}

	if failed {
		metrics.TotalErrors++
	}

	snapshot := *metrics
	onChange := m.onChange
	m.mu.Unlock()

	if onChange != nil {
		onChange(key, snapshot)
	}
}

// MetricsResponseInterceptor records the outcome of every request. Latency is
// measured from the request's "start_time" metadata.
func MetricsResponseInterceptor(collector *MetricsCollector) ResponseInterceptor {
	return func(_ context.Context, req *Request, resp *Response) error {
		var latency time.Duration
		if startTime, ok := req.Metadata["start_time"].(time.Time); ok {
			latency = time.Since(startTime)
		}

		collector.record(req.Endpoint+"."+req.Action, latency, resp.Error != nil || resp.StatusCode >= 400)

		return nil
	}
}
