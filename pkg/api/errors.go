package api

import (
	"errors"
	"fmt"
	"strings"

	cchttp "github.com/fivetwenty-io/cardcast/internal/http"
)

// Static errors for err113 compliance.
var (
	ErrDefinition         = errors.New("invalid API definition")
	ErrInvalidVersion     = errors.New("invalid API version")
	ErrEndpointResolution = errors.New("endpoint resolution failed")
	ErrNoEndpoint         = errors.New("no endpoint selected")
	ErrNotAnAction        = errors.New("not an action")
	ErrInvalidArgument    = errors.New("invalid argument")

	// ErrUnexpectedStatus is wrapped by a TransportError for non-2xx responses.
	ErrUnexpectedStatus = cchttp.ErrUnexpectedStatus
)

// TransportError is returned unchanged from the HTTP transport for connection
// failures and non-2xx responses.
type TransportError = cchttp.TransportError

// DefinitionError reports a structurally invalid definition.
type DefinitionError struct {
	Field  string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Field)
}

func (e *DefinitionError) Unwrap() error {
	return ErrDefinition
}

// InvalidVersionError is returned by SetVersion for an unsupported version.
type InvalidVersionError struct {
	Version   string
	Supported []string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("there is no version %s (supported: %s)", e.Version, strings.Join(e.Supported, ", "))
}

func (e *InvalidVersionError) Unwrap() error {
	return ErrInvalidVersion
}

// EndpointResolutionError is returned before dispatch when a request cannot be
// built: no template for the endpoint, a missing placeholder value, or a
// rejected query property.
type EndpointResolutionError struct {
	Endpoint    string
	Version     string
	Action      string
	Placeholder string
	Property    string
}

func (e *EndpointResolutionError) Error() string {
	target := e.Endpoint
	if e.Action != "" {
		target += "." + e.Action
	}

	if e.Version != "" {
		target += " (" + e.Version + ")"
	}

	switch {
	case e.Placeholder != "":
		return fmt.Sprintf("no value for placeholder :%s of endpoint %s", e.Placeholder, target)
	case e.Property != "":
		return fmt.Sprintf("query property %q is not allowed for endpoint %s", e.Property, target)
	default:
		return "no URI template for endpoint " + target
	}
}

func (e *EndpointResolutionError) Unwrap() error {
	return ErrEndpointResolution
}

// IsNotFound reports whether err is a 404 from the transport.
func IsNotFound(err error) bool {
	return cchttp.IsNotFound(err)
}

// StatusCode returns the HTTP status carried by a TransportError, or 0.
func StatusCode(err error) int {
	return cchttp.StatusCode(err)
}
