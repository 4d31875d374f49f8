// Package api builds REST API clients from a declarative definition.
//
// # Overview
//
// A Definition names the API's base URL, its supported versions and, per
// version, the URI template behind each endpoint. New turns a definition into
// an API; requests are then composed on a Chain by selecting an endpoint,
// adding query filters and invoking an action:
//
//	def := &api.Definition{
//	  Base:     "https://api.example.com",
//	  Versions: []string{"v1"},
//	  Endpoints: map[string]map[string]string{
//	    "v1": {"deck.{get}": "decks/:playcode"},
//	  },
//	}
//
//	client, err := api.New(def)
//	if err != nil { log.Fatal(err) }
//
//	resp, err := client.Select("deck", api.Params{"playcode": "X"}).Get(ctx)
//
// The request above is GET https://api.example.com/v1/decks/X.
//
// # Actions
//
// Actions are index, create, get, edit and delete, mapped to GET, POST, GET,
// PUT and DELETE. Aliases such as list, show, update and destroy resolve to
// them. WithActionMethod adds further actions.
//
// # Dynamic dispatch
//
// Chain.Call classifies a name the way a fluent interface would: the first
// name selects the endpoint, action names dispatch, any other name becomes a
// query filter.
//
//	chain := client.Chain()
//	chain.Call(ctx, "decks")
//	chain.Call(ctx, "limit", 10)
//	resp, err := chain.Call(ctx, "index")
//
// # Errors
//
// Definition problems are reported as DefinitionError, unsupported versions as
// InvalidVersionError and requests that cannot be built as
// EndpointResolutionError. Transport failures, including non-2xx responses,
// are returned unchanged as TransportError.
package api
