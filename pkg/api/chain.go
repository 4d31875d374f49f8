package api

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"sort"
	"strings"

	"github.com/samber/lo"
)

type chainState int

const (
	stateEmpty chainState = iota
	stateSelected
)

// Chain composes one request: select an endpoint, add query filters, then
// invoke an action. Invoking an action dispatches the request and leaves the
// chain empty again, whether or not it succeeded. A chain started before a
// version change is reset on its next call.
//
//	resp, err := api.Select("deck", api.Params{"playcode": "X"}).Get(ctx)
//
// A Chain must not be shared between goroutines.
type Chain struct {
	api      *API
	epoch    uint64
	state    chainState
	endpoint string
	query    *Query
}

func newChain(a *API) *Chain {
	return &Chain{api: a, epoch: a.currentEpoch(), query: NewQuery()}
}

// Reset drops the selected endpoint and the accumulated query.
func (c *Chain) Reset() {
	c.state = stateEmpty
	c.endpoint = ""
	c.query = NewQuery()
	c.epoch = c.api.currentEpoch()
}

// Endpoint returns the selected endpoint, or "".
func (c *Chain) Endpoint() string {
	c.sync()

	return c.endpoint
}

// Selected reports whether an endpoint is selected.
func (c *Chain) Selected() bool {
	c.sync()

	return c.state == stateSelected
}

// Query returns a copy of the accumulated query.
func (c *Chain) Query() *Query {
	c.sync()

	return c.query.Clone()
}

// Select makes endpoint the chain's endpoint and applies filters in sorted
// key order.
func (c *Chain) Select(endpoint string, filters ...Params) *Chain {
	c.sync()

	c.endpoint = endpoint
	c.state = stateSelected

	for _, params := range filters {
		c.Where(params)
	}

	return c
}

// Filter sets one query parameter. Without a value the parameter is set to
// true. Booleans are sent as the API's boolean values.
func (c *Chain) Filter(key string, value ...interface{}) *Chain {
	c.sync()

	var v interface{} = true
	if len(value) > 0 {
		v = value[0]
	}

	c.set(c.query, key, v)

	return c
}

// Where sets every entry of params, in sorted key order.
func (c *Chain) Where(params Params) *Chain {
	c.sync()

	for _, key := range sortedKeys(params) {
		c.set(c.query, key, params[key])
	}

	return c
}

// Call dispatches name dynamically. On an empty chain name selects an
// endpoint and args[0], if given, holds its filters. Once an endpoint is
// selected an action name performs the action and anything else sets a
// filter to args[0], or true. A nil response with a nil error means the
// chain is still being composed.
func (c *Chain) Call(ctx context.Context, name string, args ...interface{}) (*Response, error) {
	c.sync()

	switch {
	case c.state == stateEmpty:
		filters, err := paramsArg(args, 0, "filters")
		if err != nil {
			return nil, err
		}

		c.Select(name, filters)

		return nil, nil
	case c.api.actions.IsAction(name):
		return c.Action(ctx, name, args...)
	default:
		var value interface{} = true
		if len(args) > 0 {
			value = args[0]
		}

		c.set(c.query, name, value)

		return nil, nil
	}
}

// Action builds the request for action and dispatches it. args are
// positional: URI parameters, then the body for POST and PUT, then extra
// query parameters. URI parameters are a mapping, or a value or slice
// filling the template's placeholders in order. Transport errors are
// returned unchanged.
func (c *Chain) Action(ctx context.Context, action string, args ...interface{}) (*Response, error) {
	c.sync()
	defer c.Reset()

	version := c.api.Version()

	err := c.check(action)
	if err != nil {
		return nil, err
	}

	client, err := c.api.Transport(version)
	if err != nil {
		return nil, err
	}

	req, err := c.build(version, action, c.query, args)
	if err != nil {
		return nil, err
	}

	return c.api.dispatch(ctx, client, req)
}

// Build returns the request Action would dispatch, without dispatching it or
// resetting the chain.
func (c *Chain) Build(action string, args ...interface{}) (*Request, error) {
	c.sync()

	err := c.check(action)
	if err != nil {
		return nil, err
	}

	return c.build(c.api.Version(), action, c.query.Clone(), args)
}

// Index performs the index action.
func (c *Chain) Index(ctx context.Context, args ...interface{}) (*Response, error) {
	return c.Action(ctx, ActionIndex, args...)
}

// Get performs the get action.
func (c *Chain) Get(ctx context.Context, args ...interface{}) (*Response, error) {
	return c.Action(ctx, ActionGet, args...)
}

// Create performs the create action.
func (c *Chain) Create(ctx context.Context, args ...interface{}) (*Response, error) {
	return c.Action(ctx, ActionCreate, args...)
}

// Edit performs the edit action.
func (c *Chain) Edit(ctx context.Context, args ...interface{}) (*Response, error) {
	return c.Action(ctx, ActionEdit, args...)
}

// Delete performs the delete action.
func (c *Chain) Delete(ctx context.Context, args ...interface{}) (*Response, error) {
	return c.Action(ctx, ActionDelete, args...)
}

func (c *Chain) sync() {
	epoch := c.api.currentEpoch()
	if c.epoch == epoch {
		return
	}

	if c.state != stateEmpty {
		c.api.logger.Debug("discarding chain after version change", map[string]interface{}{
			"endpoint": c.endpoint,
		})
	}

	c.Reset()
}

func (c *Chain) check(action string) error {
	if !c.api.actions.IsAction(action) {
		return fmt.Errorf("%w: %s", ErrNotAnAction, action)
	}

	if c.state == stateEmpty {
		return fmt.Errorf("%w for action %s", ErrNoEndpoint, action)
	}

	return nil
}

func (c *Chain) set(query *Query, key string, value interface{}) {
	value = Resolve(value)
	if b, ok := value.(bool); ok {
		value = c.booleanValue(b)
	}

	query.Set(key, value)
}

func (c *Chain) booleanValue(b bool) interface{} {
	if b {
		return c.api.opts.trueValue
	}

	return c.api.opts.falseValue
}

func (c *Chain) build(version, name string, query *Query, args []interface{}) (*Request, error) {
	action := ResolveAction(name)
	method := c.api.actions.Method(action)

	route, ok := c.api.definition.Route(version, c.endpoint, action)
	if !ok {
		return nil, &EndpointResolutionError{Endpoint: c.endpoint, Version: version, Action: action}
	}

	uriParams, err := uriParamsArg(args, route)
	if err != nil {
		return nil, err
	}

	var body interface{}

	extraIndex := 1
	if SendsBody(method) {
		if len(args) > 1 {
			body = args[1]
		}

		extraIndex = 2
	}

	extra, err := paramsArg(args, extraIndex, "query")
	if err != nil {
		return nil, err
	}

	path, err := c.expand(route, version, action, uriParams, query)
	if err != nil {
		return nil, err
	}

	for _, key := range sortedKeys(extra) {
		c.set(query, key, extra[key])
	}

	if c.api.opts.strictProperties && c.api.definition.HasProperties(version) {
		for _, key := range query.Keys() {
			if !c.api.definition.PropertyAllowed(version, c.endpoint, action, key) {
				return nil, &EndpointResolutionError{Endpoint: c.endpoint, Version: version, Action: action, Property: key}
			}
		}
	}

	req := &Request{
		Method:   method,
		Path:     path,
		RawQuery: query.Encode(),
		Version:  version,
		Endpoint: c.endpoint,
		Action:   action,
		Metadata: make(map[string]interface{}),
	}

	if SendsBody(method) {
		c.attachBody(req, body)
	}

	return req, nil
}

// expand substitutes every :placeholder of the route's template. A value
// missing from uriParams is taken from the query and removed from it.
func (c *Chain) expand(route Route, version, action string, uriParams Params, query *Query) (string, error) {
	var missing string

	path := placeholderPattern.ReplaceAllStringFunc(route.Template, func(match string) string {
		name := match[1:]

		value, ok := uriParams[name]
		if !ok {
			value, ok = query.Get(name)
			if ok {
				query.Delete(name)
			}
		}

		if !ok {
			if missing == "" {
				missing = name
			}

			return match
		}

		return url.PathEscape(formatValue(Resolve(value)))
	})

	if missing != "" {
		return "", &EndpointResolutionError{Endpoint: c.endpoint, Version: version, Action: action, Placeholder: missing}
	}

	return strings.TrimLeft(path, "/"), nil
}

func (c *Chain) attachBody(req *Request, body interface{}) {
	switch b := Resolve(body).(type) {
	case nil:
	case Params:
		c.attachParams(req, b)
	case map[string]interface{}:
		c.attachParams(req, b)
	case map[string]string:
		params := make(Params, len(b))
		for key, value := range b {
			params[key] = value
		}

		c.attachParams(req, params)
	case url.Values:
		req.Form = b
	case io.Reader:
		req.Body = b
	default:
		kind := reflect.Indirect(reflect.ValueOf(b)).Kind()
		if kind == reflect.Struct || kind == reflect.Map {
			req.JSON = b

			return
		}

		c.api.logger.Debug("omitting non-structured request body", map[string]interface{}{
			"endpoint": req.Endpoint,
			"type":     fmt.Sprintf("%T", b),
		})
	}
}

func (c *Chain) attachParams(req *Request, params map[string]interface{}) {
	if c.api.opts.bodyEncoding == BodyForm {
		form := make(url.Values, len(params))
		for key, value := range params {
			value = Resolve(value)
			if b, ok := value.(bool); ok {
				value = c.booleanValue(b)
			}

			form[key] = formatValues(value)
		}

		req.Form = form

		return
	}

	payload := make(map[string]interface{}, len(params))
	for key, value := range params {
		payload[key] = Resolve(value)
	}

	req.JSON = payload
}

func (a *API) dispatch(ctx context.Context, client Transport, req *Request) (*Response, error) {
	err := a.opts.interceptors.ExecuteRequestInterceptors(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(ctx, req)

	observed := resp
	if observed == nil {
		observed = &Response{}
	}

	if observed.Error == nil {
		observed.Error = err
	}

	interceptErr := a.opts.interceptors.ExecuteResponseInterceptors(ctx, req, observed)
	if interceptErr != nil && err == nil {
		return resp, interceptErr
	}

	return resp, err
}

func paramsArg(args []interface{}, index int, what string) (Params, error) {
	if index >= len(args) || args[index] == nil {
		return nil, nil
	}

	switch v := Resolve(args[index]).(type) {
	case Params:
		return v, nil
	case map[string]interface{}:
		return v, nil
	case map[string]string:
		params := make(Params, len(v))
		for key, value := range v {
			params[key] = value
		}

		return params, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a mapping, got %T", ErrInvalidArgument, what, v)
	}
}

// uriParamsArg reads the first action argument. A mapping names placeholders
// directly; a scalar or a slice fills the route's placeholders in template
// order.
func uriParamsArg(args []interface{}, route Route) (Params, error) {
	if len(args) == 0 || args[0] == nil {
		return nil, nil
	}

	value := Resolve(args[0])

	values, positional := positionalValues(value)
	if !positional {
		return paramsArg([]interface{}{value}, 0, "URI parameters")
	}

	names := lo.Uniq(route.Placeholders())
	if len(values) > len(names) {
		return nil, fmt.Errorf("%w: %d URI parameters given, template %q has %d placeholders",
			ErrInvalidArgument, len(values), route.Template, len(names))
	}

	params := make(Params, len(values))
	for i, v := range values {
		params[names[i]] = v
	}

	return params, nil
}

// positionalValues unpacks slices and scalars. Mappings and structs are not
// positional.
func positionalValues(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case []interface{}:
		return v, true
	case []string:
		return lo.ToAnySlice(v), true
	case []byte:
		return []interface{}{string(v)}, true
	case string, fmt.Stringer:
		return []interface{}{v}, true
	}

	rv := reflect.ValueOf(value)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		values := make([]interface{}, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}

		return values, true
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return []interface{}{value}, true
	default:
		return nil, false
	}
}

func sortedKeys(params map[string]interface{}) []string {
	keys := lo.Keys(params)
	sort.Strings(keys)

	return keys
}
