package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/cardcast/internal/auth"
	cchttp "github.com/fivetwenty-io/cardcast/internal/http"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()

	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/v1/decks/ABC12", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))

			_ = json.NewEncoder(writer).Encode(map[string]string{"code": "ABC12", "name": "Test Deck"})
		}))
		defer server.Close()

		client := cchttp.NewClient(server.URL+"/v1", auth.NewStaticTokenManager("test-token"),
			cchttp.WithDefaultHeaders(map[string]string{"Accept": "application/json"}))

		resp, err := client.Do(context.Background(), &cchttp.Request{Method: "GET", Path: "decks/ABC12"})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result map[string]string

		require.NoError(t, json.Unmarshal(resp.Body, &result))
		assert.Equal(t, "ABC12", result["code"])
	})

	t.Run("raw query takes precedence", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "limit=10&category=funny", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := cchttp.NewClient(server.URL, nil)

		resp, err := client.Do(context.Background(), &cchttp.Request{
			Method:   "GET",
			Path:     "/decks",
			Query:    url.Values{"ignored": []string{"1"}},
			RawQuery: "limit=10&category=funny",
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("request with query values", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "offset=2", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := cchttp.NewClient(server.URL, nil)

		_, err := client.Get(context.Background(), "/decks", url.Values{"offset": []string{"2"}})
		require.NoError(t, err)
	})

	t.Run("json body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "Party Deck", body["name"])

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := cchttp.NewClient(server.URL, nil)

		resp, err := client.Post(context.Background(), "/decks", map[string]string{"name": "Party Deck"})
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)
	})

	t.Run("form body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "application/x-www-form-urlencoded", request.Header.Get("Content-Type"))
			assert.NoError(t, request.ParseForm())
			assert.Equal(t, "Party Deck", request.PostForm.Get("name"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := cchttp.NewClient(server.URL, nil)

		_, err := client.Do(context.Background(), &cchttp.Request{
			Method: "PUT",
			Path:   "/decks/ABC12",
			Form:   url.Values{"name": []string{"Party Deck"}},
		})
		require.NoError(t, err)
	})

	t.Run("raw body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			var buf bytes.Buffer

			_, _ = buf.ReadFrom(request.Body)
			assert.Equal(t, "plain text", buf.String())
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := cchttp.NewClient(server.URL, nil)

		_, err := client.Do(context.Background(), &cchttp.Request{
			Method:  "POST",
			Path:    "/notes",
			RawBody: bytes.NewBufferString("plain text"),
		})
		require.NoError(t, err)
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"message":"deck not found"}`))
		}))
		defer server.Close()

		client := cchttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/decks/NOPE", nil)
		require.Error(t, err)
		assert.Equal(t, 404, resp.StatusCode)
		assert.True(t, cchttp.IsNotFound(err))
		require.ErrorIs(t, err, cchttp.ErrUnexpectedStatus)

		transportErr := &cchttp.TransportError{}
		require.True(t, errors.As(err, &transportErr))
		assert.Contains(t, transportErr.Body, "deck not found")
	})

	t.Run("connection failure", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
		serverURL := server.URL
		server.Close()

		client := cchttp.NewClient(serverURL, nil)

		resp, err := client.Get(context.Background(), "/decks", nil)
		require.Error(t, err)
		assert.Nil(t, resp)

		transportErr := &cchttp.TransportError{}
		require.True(t, errors.As(err, &transportErr))
		assert.Equal(t, 0, transportErr.StatusCode)
	})

	t.Run("request headers override defaults", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "text/plain", request.Header.Get("Accept"))
			assert.Equal(t, "cardcast-test", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := cchttp.NewClient(server.URL, nil,
			cchttp.WithUserAgent("cardcast-test"),
			cchttp.WithDefaultHeaders(map[string]string{"Accept": "application/json"}))

		_, err := client.Do(context.Background(), &cchttp.Request{
			Method: "GET",
			Path:   "/decks",
			Headers: map[string]string{
				"X-Custom-Header": "custom-value",
				"Accept":          "text/plain",
			},
		})
		require.NoError(t, err)
	})

	t.Run("gzip response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "gzip", request.Header.Get("Accept-Encoding"))
			writer.Header().Set("Content-Encoding", "gzip")

			gz := gzip.NewWriter(writer)
			_, _ = gz.Write([]byte(`{"code":"ABC12"}`))
			_ = gz.Close()
		}))
		defer server.Close()

		client := cchttp.NewClient(server.URL, nil, cchttp.WithGzip(true))

		resp, err := client.Get(context.Background(), "/decks/ABC12", nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"code":"ABC12"}`, string(resp.Body))
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := cchttp.NewClient(server.URL, nil, cchttp.WithLogger(logger), cchttp.WithDebug(true))

		_, err := client.Get(context.Background(), "/decks", nil)
		require.NoError(t, err)

		require.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})
}

func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		fn     func(*cchttp.Client, context.Context) (*cchttp.Response, error)
	}{
		{
			name:   "GET",
			method: "GET",
			fn: func(c *cchttp.Client, ctx context.Context) (*cchttp.Response, error) {
				return c.Get(ctx, "/test", nil)
			},
		},
		{
			name:   "POST",
			method: "POST",
			fn: func(c *cchttp.Client, ctx context.Context) (*cchttp.Response, error) {
				return c.Post(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PUT",
			method: "PUT",
			fn: func(c *cchttp.Client, ctx context.Context) (*cchttp.Response, error) {
				return c.Put(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PATCH",
			method: "PATCH",
			fn: func(c *cchttp.Client, ctx context.Context) (*cchttp.Response, error) {
				return c.Patch(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: "DELETE",
			fn: func(c *cchttp.Client, ctx context.Context) (*cchttp.Response, error) {
				return c.Delete(ctx, "/test")
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := cchttp.NewClient(server.URL, nil)
			resp, err := testCase.fn(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()

	t.Run("single attempt by default", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := cchttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("retries on 5xx errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := cchttp.NewClient(server.URL, nil, cchttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := cchttp.NewClient(server.URL, nil, cchttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})
}

func TestClient_Throttle(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := cchttp.NewClient(server.URL, nil, cchttp.WithThrottle(1, 1))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, "/test", nil)
	require.NoError(t, err)

	// The bucket is empty and refills after one second, past the deadline.
	_, err = client.Get(ctx, "/test", nil)
	require.Error(t, err)
}

// rotatingTokenManager hands out "stale" until refreshed.
type rotatingTokenManager struct {
	refreshed  atomic.Bool
	refreshErr error
}

func (m *rotatingTokenManager) GetToken(context.Context) (string, error) {
	if m.refreshed.Load() {
		return "fresh", nil
	}

	return "stale", nil
}

func (m *rotatingTokenManager) RefreshToken(context.Context) error {
	if m.refreshErr != nil {
		return m.refreshErr
	}

	m.refreshed.Store(true)

	return nil
}

func TestClient_RefreshOnUnauthorized(t *testing.T) {
	t.Parallel()

	newServer := func(attempts *atomic.Int32) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)

			body, _ := io.ReadAll(request.Body)
			assert.JSONEq(t, `{"name":"Party Deck"}`, string(body))

			if request.Header.Get("Authorization") != "Bearer fresh" {
				writer.WriteHeader(http.StatusUnauthorized)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
	}

	t.Run("resends with refreshed token", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := newServer(&attempts)
		defer server.Close()

		client := cchttp.NewClient(server.URL, &rotatingTokenManager{})

		resp, err := client.Post(context.Background(), "/decks", map[string]string{"name": "Party Deck"})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("keeps 401 when refresh fails", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := newServer(&attempts)
		defer server.Close()

		client := cchttp.NewClient(server.URL, &rotatingTokenManager{refreshErr: auth.ErrStaticTokenCannotRefresh})

		resp, err := client.Post(context.Background(), "/decks", map[string]string{"name": "Party Deck"})
		require.ErrorIs(t, err, cchttp.ErrUnexpectedStatus)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})
}

func TestWithHTTPClient_CopiesClient(t *testing.T) {
	t.Parallel()

	shared := &http.Client{}

	for range 2 {
		_ = cchttp.NewClient("http://example.com", nil,
			cchttp.WithHTTPClient(shared),
			cchttp.WithTimeout(time.Second),
			cchttp.WithThrottle(10, 1))
	}

	assert.Nil(t, shared.Transport)
	assert.Zero(t, shared.Timeout)
}
