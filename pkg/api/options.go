package api

import (
	"time"

	"github.com/fivetwenty-io/cardcast/internal/constants"
)

// BodyEncoding selects how mapping bodies are serialized.
type BodyEncoding int

const (
	// BodyJSON sends mapping bodies as application/json.
	BodyJSON BodyEncoding = iota
	// BodyForm sends mapping bodies as application/x-www-form-urlencoded.
	BodyForm
)

// Option configures an API.
type Option func(*options)

type options struct {
	name             string
	headers          map[string]string
	bodyEncoding     BodyEncoding
	trueValue        interface{}
	falseValue       interface{}
	gzip             bool
	logger           Logger
	transport        TransportOptions
	factory          TransportFactory
	actionMethods    map[string]string
	strictProperties bool
	interceptors     *InterceptorChain
	boot             func(*API) error
}

func defaultOptions() options {
	return options{
		name:         "cardcast-api",
		headers:      map[string]string{},
		bodyEncoding: BodyJSON,
		trueValue:    constants.DefaultTrueValue,
		falseValue:   constants.DefaultFalseValue,
		logger:       NoopLogger{},
		factory:      NewHTTPTransport,
		interceptors: NewInterceptorChain(),
	}
}

// WithName sets the identity leading the User-Agent fingerprint.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithHeader overrides or adds a default header. Overrides win over the
// built-in Accept and User-Agent values.
func WithHeader(key, value string) Option {
	return func(o *options) {
		o.headers[key] = value
	}
}

// WithHeaders applies WithHeader for every entry.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		for key, value := range headers {
			o.headers[key] = value
		}
	}
}

// WithFormBody serializes mapping bodies as form data instead of JSON.
func WithFormBody() Option {
	return func(o *options) {
		o.bodyEncoding = BodyForm
	}
}

// WithBooleanValues sets the values booleans are replaced with in query strings.
func WithBooleanValues(trueValue, falseValue interface{}) Option {
	return func(o *options) {
		o.trueValue = trueValue
		o.falseValue = falseValue
	}
}

// WithGzip negotiates gzip content encoding with the server.
func WithGzip(enabled bool) Option {
	return func(o *options) {
		o.gzip = enabled
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger{}
		}

		o.logger = logger
	}
}

// WithTransportOptions sets the transport-level options used for every client.
func WithTransportOptions(transport TransportOptions) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// WithTimeout sets the per-request timeout of created clients.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.transport.Timeout = timeout
	}
}

// WithToken sends the token as a bearer Authorization header.
func WithToken(token string) Option {
	return func(o *options) {
		o.transport.Token = token
	}
}

// WithTransportFactory replaces how per-version clients are created.
func WithTransportFactory(factory TransportFactory) Option {
	return func(o *options) {
		if factory != nil {
			o.factory = factory
		}
	}
}

// WithActionMethod maps an additional action name to an HTTP method, or
// changes the method of a canonical action.
func WithActionMethod(action, method string) Option {
	return func(o *options) {
		if o.actionMethods == nil {
			o.actionMethods = map[string]string{}
		}

		o.actionMethods[action] = method
	}
}

// WithStrictProperties rejects query keys that the definition's properties
// table does not list for the endpoint. Versions without a properties table
// are not checked.
func WithStrictProperties() Option {
	return func(o *options) {
		o.strictProperties = true
	}
}

// WithRequestInterceptor runs fn on every request before dispatch.
func WithRequestInterceptor(fn RequestInterceptor) Option {
	return func(o *options) {
		o.interceptors.AddRequestInterceptor(fn)
	}
}

// WithResponseInterceptor runs fn on every dispatched request's outcome.
func WithResponseInterceptor(fn ResponseInterceptor) Option {
	return func(o *options) {
		o.interceptors.AddResponseInterceptor(fn)
	}
}

// WithRequestInterceptorFor runs fn on requests to scope, either an endpoint
// ("deck") or an endpoint action ("deck.get").
func WithRequestInterceptorFor(scope string, fn RequestInterceptor) Option {
	return func(o *options) {
		o.interceptors.AddRequestInterceptorFor(scope, fn)
	}
}

// WithResponseInterceptorFor runs fn on the outcome of requests to scope.
func WithResponseInterceptorFor(scope string, fn ResponseInterceptor) Option {
	return func(o *options) {
		o.interceptors.AddResponseInterceptorFor(scope, fn)
	}
}

// WithBoot runs fn once, after the API is constructed.
func WithBoot(fn func(*API) error) Option {
	return func(o *options) {
		o.boot = fn
	}
}
