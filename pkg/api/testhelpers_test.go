package api_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/fivetwenty-io/cardcast/pkg/api"
	"github.com/stretchr/testify/require"
)

// recorder is a transport factory that records every created client and the
// requests dispatched through them.
type recorder struct {
	mu       sync.Mutex
	configs  []api.TransportConfig
	requests []*api.Request
	status   int
	body     []byte
	err      error
}

func (r *recorder) factory(cfg api.TransportConfig) (api.Transport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs = append(r.configs, cfg)

	return &recordingTransport{recorder: r, baseURL: cfg.BaseURL}, nil
}

func (r *recorder) last(t *testing.T) *api.Request {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	require.NotEmpty(t, r.requests, "no request dispatched")

	return r.requests[len(r.requests)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.requests)
}

type recordingTransport struct {
	recorder *recorder
	baseURL  string
}

func (t *recordingTransport) Do(_ context.Context, req *api.Request) (*api.Response, error) {
	t.recorder.mu.Lock()
	defer t.recorder.mu.Unlock()

	t.recorder.requests = append(t.recorder.requests, req)

	if t.recorder.err != nil {
		return nil, t.recorder.err
	}

	status := t.recorder.status
	if status == 0 {
		status = http.StatusOK
	}

	return &api.Response{StatusCode: status, Body: t.recorder.body}, nil
}

func cardcastDefinition() *api.Definition {
	return &api.Definition{
		Base:     "https://api.example.com",
		Versions: []string{"v1"},
		Endpoints: map[string]map[string]string{
			"v1": {
				"decks.{index}":    "decks",
				"deck.{get, show}": "decks/:playcode",
				"cards":            "decks/:playcode/cards",
				"calls":            "decks/:playcode/calls",
				"responses":        "decks/:playcode/responses",
			},
		},
		Properties: map[string]map[string][]string{
			"v1": {
				"offset":   {"decks.index"},
				"limit":    {"decks.index"},
				"author":   {"decks.index"},
				"category": {"decks.index"},
				"search":   {"decks.index"},
			},
		},
	}
}

func newRecordedAPI(t *testing.T, def *api.Definition, opts ...api.Option) (*api.API, *recorder) {
	t.Helper()

	rec := &recorder{}
	client, err := api.New(def, append([]api.Option{api.WithTransportFactory(rec.factory)}, opts...)...)
	require.NoError(t, err)

	return client, rec
}
