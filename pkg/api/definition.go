package api

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/stoewer/go-strcase"
)

// Definition keys.
const (
	KeyBase       = "base"
	KeyVersion    = "version"
	KeyVersions   = "versions"
	KeyEndpoints  = "endpoints"
	KeyProperties = "properties"
)

var validate = newValidator()

var placeholderPattern = regexp.MustCompile(`:([A-Za-z_][A-Za-z0-9_]*)`)

// Definition is the declarative description of one API: where it lives,
// which versions it serves and the URI template behind every endpoint.
//
// Endpoints are keyed by version, then by endpoint-name pattern. A pattern is
// either a bare name ("cards"), which serves every action, or a name followed
// by an action list ("deck.{index, show}" or "deck {index, get}"), which
// serves only the listed actions. Properties are keyed by version, then by
// query parameter, listing the endpoints ("decks" or "decks.index") that
// accept it.
type Definition struct {
	Base       string                         `json:"base"                 yaml:"base"                 validate:"required,url"`
	Version    string                         `json:"version,omitempty"    yaml:"version,omitempty"`
	Versions   []string                       `json:"versions,omitempty"   yaml:"versions,omitempty"   validate:"dive,required"`
	Endpoints  map[string]map[string]string   `json:"endpoints,omitempty"  yaml:"endpoints,omitempty"`
	Properties map[string]map[string][]string `json:"properties,omitempty" yaml:"properties,omitempty"`

	extra map[string]interface{}
}

// Route is one parsed endpoint pattern.
type Route struct {
	Pattern  string
	Name     string
	Actions  []string
	Template string
}

// Serves reports whether the route handles the canonical action.
func (r Route) Serves(action string) bool {
	return len(r.Actions) == 0 || lo.Contains(r.Actions, ResolveAction(action))
}

// Placeholders returns the :placeholder names of the template in order.
func (r Route) Placeholders() []string {
	return Placeholders(r.Template)
}

// NormalizeKey canonicalizes a definition key to snake_case, so "Base",
// "base" and "BASE_URL"-style spellings address the same entry.
func NormalizeKey(key string) string {
	return strcase.SnakeCase(key)
}

// Validate checks that the definition can drive an API.
func (d *Definition) Validate() error {
	err := validate.Struct(d)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return definitionErrorFrom(validationErrs[0])
		}

		return fmt.Errorf("validating definition: %w", err)
	}

	if d.Version != "" && len(d.Versions) > 0 && !lo.Contains(d.Versions, d.Version) {
		return &DefinitionError{Field: KeyVersion, Reason: "unsupported version " + d.Version}
	}

	return nil
}

// Get returns the value stored under key, or nil. It never fails.
func (d *Definition) Get(key string) interface{} {
	switch NormalizeKey(key) {
	case KeyBase:
		return d.Base
	case KeyVersion:
		return d.Version
	case KeyVersions:
		return d.Versions
	case KeyEndpoints:
		return d.Endpoints
	case KeyProperties:
		return d.Properties
	default:
		return d.extra[NormalizeKey(key)]
	}
}

// Set stores value under key. Deferred values are evaluated first. Known
// keys must receive values of their field type.
func (d *Definition) Set(key string, value interface{}) error {
	key = NormalizeKey(key)
	value = Resolve(value)

	switch key {
	case KeyBase, KeyVersion:
		str, ok := value.(string)
		if !ok {
			return &DefinitionError{Field: key, Reason: "expected a string"}
		}

		if key == KeyBase {
			d.Base = str
		} else {
			d.Version = str
		}
	case KeyVersions:
		versions, ok := toStringSlice(value)
		if !ok {
			return &DefinitionError{Field: key, Reason: "expected a list of strings"}
		}

		d.Versions = versions
	case KeyEndpoints:
		endpoints, ok := value.(map[string]map[string]string)
		if !ok {
			return &DefinitionError{Field: key, Reason: "expected a version to template mapping"}
		}

		d.Endpoints = endpoints
	case KeyProperties:
		properties, ok := value.(map[string]map[string][]string)
		if !ok {
			return &DefinitionError{Field: key, Reason: "expected a version to property mapping"}
		}

		d.Properties = properties
	default:
		if d.extra == nil {
			d.extra = make(map[string]interface{})
		}

		d.extra[key] = value
	}

	return nil
}

// Has reports whether key holds a non-empty value.
func (d *Definition) Has(key string) bool {
	switch NormalizeKey(key) {
	case KeyBase:
		return d.Base != ""
	case KeyVersion:
		return d.Version != ""
	case KeyVersions:
		return len(d.Versions) > 0
	case KeyEndpoints:
		return len(d.Endpoints) > 0
	case KeyProperties:
		return len(d.Properties) > 0
	default:
		_, ok := d.extra[NormalizeKey(key)]

		return ok
	}
}

// Unset clears key.
func (d *Definition) Unset(key string) {
	switch NormalizeKey(key) {
	case KeyBase:
		d.Base = ""
	case KeyVersion:
		d.Version = ""
	case KeyVersions:
		d.Versions = nil
	case KeyEndpoints:
		d.Endpoints = nil
	case KeyProperties:
		d.Properties = nil
	default:
		delete(d.extra, NormalizeKey(key))
	}
}

// Clone returns a deep copy.
func (d *Definition) Clone() *Definition {
	clone := &Definition{
		Base:     d.Base,
		Version:  d.Version,
		Versions: append([]string(nil), d.Versions...),
	}

	if d.Endpoints != nil {
		clone.Endpoints = make(map[string]map[string]string, len(d.Endpoints))
		for version, routes := range d.Endpoints {
			clone.Endpoints[version] = lo.Assign(routes)
		}
	}

	if d.Properties != nil {
		clone.Properties = make(map[string]map[string][]string, len(d.Properties))
		for version, props := range d.Properties {
			copied := make(map[string][]string, len(props))
			for name, refs := range props {
				copied[name] = append([]string(nil), refs...)
			}

			clone.Properties[version] = copied
		}
	}

	if d.extra != nil {
		clone.extra = lo.Assign(d.extra)
	}

	return clone
}

// Routes returns the parsed endpoint patterns for version, sorted by pattern.
// An unversioned definition may key its endpoints by "" or by a single
// arbitrary key.
func (d *Definition) Routes(version string) []Route {
	table, ok := d.Endpoints[version]
	if !ok && version == "" && len(d.Endpoints) == 1 {
		for _, only := range d.Endpoints {
			table = only
		}
	}

	routes := make([]Route, 0, len(table))
	for pattern, template := range table {
		name, actions := ParsePattern(pattern)
		routes = append(routes, Route{Pattern: pattern, Name: name, Actions: actions, Template: template})
	}

	sort.Slice(routes, func(i, j int) bool { return routes[i].Pattern < routes[j].Pattern })

	return routes
}

// Route finds the route serving endpoint and action in version. Patterns
// with an explicit action list take precedence over bare names.
func (d *Definition) Route(version, endpoint, action string) (Route, bool) {
	action = ResolveAction(action)

	var fallback *Route

	for _, route := range d.Routes(version) {
		if route.Name != endpoint {
			continue
		}

		if len(route.Actions) == 0 {
			if fallback == nil {
				fallback = &route
			}

			continue
		}

		if route.Serves(action) {
			return route, true
		}
	}

	if fallback != nil {
		return *fallback, true
	}

	return Route{}, false
}

// AllowedProperties lists the query parameters declared for endpoint and
// action in version, sorted.
func (d *Definition) AllowedProperties(version, endpoint, action string) []string {
	var allowed []string

	for name := range d.Properties[version] {
		if d.PropertyAllowed(version, endpoint, action, name) {
			allowed = append(allowed, name)
		}
	}

	sort.Strings(allowed)

	return allowed
}

// PropertyAllowed reports whether property is declared for endpoint and action.
func (d *Definition) PropertyAllowed(version, endpoint, action, property string) bool {
	action = ResolveAction(action)

	return lo.ContainsBy(d.Properties[version][property], func(ref string) bool {
		name, refAction, found := strings.Cut(ref, ".")
		if name != endpoint {
			return false
		}

		return !found || ResolveAction(refAction) == action
	})
}

// HasProperties reports whether version declares any query properties.
func (d *Definition) HasProperties(version string) bool {
	return len(d.Properties[version]) > 0
}

// ParsePattern splits an endpoint-name pattern into its name and the
// canonical actions it serves. A bare name serves every action.
func ParsePattern(pattern string) (string, []string) {
	open := strings.IndexByte(pattern, '{')
	if open < 0 {
		return strings.TrimSpace(pattern), nil
	}

	name := strings.TrimRight(strings.TrimSpace(pattern[:open]), ". ")

	inner := pattern[open+1:]
	if end := strings.IndexByte(inner, '}'); end >= 0 {
		inner = inner[:end]
	}

	var actions []string

	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			actions = append(actions, ResolveAction(part))
		}
	}

	return name, lo.Uniq(actions)
}

// Placeholders returns the :placeholder names of template in order.
func Placeholders(template string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)

	return lo.Map(matches, func(match []string, _ int) string { return match[1] })
}

func definitionErrorFrom(fieldErr validator.FieldError) *DefinitionError {
	field := fieldErr.Field()

	switch fieldErr.Tag() {
	case "required":
		return &DefinitionError{Field: field, Reason: "required field missing"}
	case "url":
		return &DefinitionError{Field: field, Reason: "invalid URL"}
	default:
		return &DefinitionError{Field: field, Reason: "failed " + fieldErr.Tag() + " check"}
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	return v
}

func toStringSlice(value interface{}) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), true
	case []interface{}:
		out := make([]string, 0, len(v))

		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, false
			}

			out = append(out, str)
		}

		return out, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}
