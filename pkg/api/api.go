package api

import (
	"fmt"
	"net/http"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
)

const transportModule = "github.com/hashicorp/go-retryablehttp"

// API is a configured REST API. It owns its definition, the version requests
// are addressed to and one transport per version, created on first use.
// Requests are composed with chains obtained from Select or Chain.
//
// An API is safe for concurrent use. Chains are not; give each goroutine its
// own.
type API struct {
	definition *Definition
	opts       options
	logger     Logger
	actions    ActionTable

	mu      sync.RWMutex
	version string
	clients map[string]Transport
	epoch   atomic.Uint64
}

// New builds an API from a copy of def. An empty version defaults to the
// last supported version.
func New(def *Definition, opts ...Option) (*API, error) {
	if def == nil {
		return nil, &DefinitionError{Field: KeyBase, Reason: "required field missing"}
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	owned := def.Clone()
	if owned.Version == "" && len(owned.Versions) > 0 {
		owned.Version = owned.Versions[len(owned.Versions)-1]
	}

	err := owned.Validate()
	if err != nil {
		return nil, err
	}

	actions := DefaultActionTable()
	for action, method := range o.actionMethods {
		actions[ResolveAction(action)] = strings.ToUpper(method)
	}

	a := &API{
		definition: owned,
		opts:       o,
		logger:     o.logger,
		actions:    actions,
		version:    owned.Version,
		clients:    make(map[string]Transport),
	}

	if o.boot != nil {
		err = o.boot(a)
		if err != nil {
			return nil, fmt.Errorf("booting %s: %w", o.name, err)
		}
	}

	a.logger.Debug("API initialized", map[string]interface{}{
		"name":    o.name,
		"base":    owned.Base,
		"version": owned.Version,
	})

	return a, nil
}

// Name returns the API's identity as used in the User-Agent.
func (a *API) Name() string {
	return a.opts.name
}

// Definition returns a copy of the API's definition.
func (a *API) Definition() *Definition {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.definition.Clone()
}

// Actions returns the action to HTTP method table in use.
func (a *API) Actions() ActionTable {
	return ActionTable(lo.Assign(map[string]string(a.actions)))
}

// IsVersioned reports whether the definition lists supported versions.
func (a *API) IsVersioned() bool {
	return len(a.definition.Versions) > 0
}

// Versions returns the supported versions.
func (a *API) Versions() []string {
	return append([]string(nil), a.definition.Versions...)
}

// HasVersion reports whether version appears in the supported versions
// exactly as given. Only SetVersion adds a missing leading "v".
func (a *API) HasVersion(version string) bool {
	return lo.Contains(a.definition.Versions, version)
}

// Version returns the version requests are addressed to.
func (a *API) Version() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.version
}

// SetVersion switches the version subsequent requests use. "1" and "v1" name
// the same version. Every chain in progress is reset on its next call, even
// when the version does not change. It is a no-op for unversioned APIs.
func (a *API) SetVersion(version string) error {
	if !a.IsVersioned() {
		return nil
	}

	version = normalizeVersion(version)
	if !a.HasVersion(version) {
		return &InvalidVersionError{Version: version, Supported: a.Versions()}
	}

	a.mu.Lock()
	previous := a.version
	a.version = version
	a.definition.Version = version
	a.mu.Unlock()

	a.epoch.Add(1)

	if previous != version {
		a.logger.Debug("API version changed", map[string]interface{}{
			"from": previous,
			"to":   version,
		})
	}

	return nil
}

// BaseURL returns the base URL for version, with the version appended as a
// path segment for versioned APIs.
func (a *API) BaseURL(version string) string {
	base := strings.TrimRight(a.definition.Base, "/")
	if !a.IsVersioned() || version == "" {
		return base
	}

	return base + "/" + version
}

// UserAgent returns the fingerprint sent with every request: the API name,
// the transport library and the Go runtime, plus "gzip" when compressed
// responses are negotiated.
func (a *API) UserAgent() string {
	parts := []string{a.opts.name, transportIdentity(), "Go/" + strings.TrimPrefix(runtime.Version(), "go")}
	if a.opts.gzip {
		parts = append(parts, "gzip")
	}

	return strings.Join(parts, " ")
}

// Headers returns the default headers sent with every request. Configured
// headers override the built-in ones.
func (a *API) Headers() map[string]string {
	headers := map[string]string{
		"Accept":     "application/json",
		"User-Agent": a.UserAgent(),
	}

	for key, value := range a.opts.headers {
		headers[http.CanonicalHeaderKey(key)] = value
	}

	return headers
}

// Chain starts an empty request chain.
func (a *API) Chain() *Chain {
	return newChain(a)
}

// Select starts a chain with endpoint selected and filters as its initial
// query.
func (a *API) Select(endpoint string, filters ...Params) *Chain {
	return newChain(a).Select(endpoint, filters...)
}

// Transport returns the client for version, creating it on first use. Later
// calls for the same version return the same client.
func (a *API) Transport(version string) (Transport, error) {
	if !a.IsVersioned() {
		version = ""
	}

	a.mu.RLock()
	client, ok := a.clients[version]
	a.mu.RUnlock()

	if ok {
		return client, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if client, ok := a.clients[version]; ok {
		return client, nil
	}

	cfg := TransportConfig{
		BaseURL: a.BaseURL(version),
		Headers: a.Headers(),
		Gzip:    a.opts.gzip,
		Options: a.opts.transport,
		Logger:  a.logger,
	}

	client, err := a.opts.factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating client for %s: %w", cfg.BaseURL, err)
	}

	a.clients[version] = client

	a.logger.Debug("API client created", map[string]interface{}{
		"base_url": cfg.BaseURL,
		"version":  version,
	})

	return client, nil
}

func (a *API) currentEpoch() uint64 {
	return a.epoch.Load()
}

func normalizeVersion(version string) string {
	if version == "" || strings.HasPrefix(version, "v") {
		return version
	}

	return "v" + version
}

func transportIdentity() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if dep.Path == transportModule {
				return "go-retryablehttp/" + strings.TrimPrefix(dep.Version, "v")
			}
		}
	}

	return "go-retryablehttp"
}
