package cardcast

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fivetwenty-io/cardcast/pkg/api"
)

// Version of the client, reported in the User-Agent.
const Version = "0.1.0"

// Name is the client's User-Agent identity.
const Name = "cardcast-go/" + Version

// DefaultBaseURL is where the CardCast API is served.
const DefaultBaseURL = "https://api.cardcastgame.com"

// Endpoint names.
const (
	EndpointDecks     = "decks"
	EndpointDeck      = "deck"
	EndpointCards     = "cards"
	EndpointCalls     = "calls"
	EndpointResponses = "responses"
)

// ErrPlaycodeRequired is returned when a deck operation gets an empty playcode.
var ErrPlaycodeRequired = errors.New("playcode is required")

// Config configures a Client. The zero value talks to the public API.
type Config struct {
	// BaseURL overrides DefaultBaseURL. "https://" is added when no scheme is present.
	BaseURL string
	// Version selects the API version. Empty means the latest.
	Version string
	// AccessToken, if set, is sent as a Bearer token.
	AccessToken string
	// HTTPTimeout bounds each request.
	HTTPTimeout time.Duration
	// RetryMax enables retries of 5xx and connection failures.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	// Debug logs every HTTP request and response through Logger.
	Debug  bool
	Logger api.Logger
	// Definition replaces the built-in definition table.
	Definition *api.Definition
}

// Client is a CardCast API client.
type Client struct {
	*api.API
}

// Definition returns the CardCast definition table.
func Definition() *api.Definition {
	return &api.Definition{
		Base:     DefaultBaseURL,
		Version:  "v1",
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

// New creates a client. cfg may be nil. opts are applied after the options
// derived from cfg.
func New(cfg *Config, opts ...api.Option) (*Client, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	def := cfg.Definition
	if def == nil {
		def = Definition()
	} else {
		def = def.Clone()
	}

	if cfg.BaseURL != "" {
		def.Base = normalizeBaseURL(cfg.BaseURL)
	}

	apiOpts := []api.Option{
		api.WithName(Name),
		api.WithGzip(true),
		api.WithTransportOptions(api.TransportOptions{
			Timeout:      cfg.HTTPTimeout,
			RetryMax:     cfg.RetryMax,
			RetryWaitMin: cfg.RetryWaitMin,
			RetryWaitMax: cfg.RetryWaitMax,
			Token:        cfg.AccessToken,
			Debug:        cfg.Debug,
		}),
	}

	if cfg.Logger != nil {
		apiOpts = append(apiOpts, api.WithLogger(cfg.Logger))
	}

	if cfg.Version != "" {
		version := cfg.Version
		apiOpts = append(apiOpts, api.WithBoot(func(a *api.API) error {
			return a.SetVersion(version)
		}))
	}

	client, err := api.New(def, append(apiOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("creating CardCast client: %w", err)
	}

	return &Client{API: client}, nil
}

// Decks starts a deck search chain.
func (c *Client) Decks(filters ...api.Params) *api.Chain {
	return c.Select(EndpointDecks, filters...)
}

// Deck starts a chain on one deck.
func (c *Client) Deck(playcode string) *api.Chain {
	return c.Select(EndpointDeck, api.Params{"playcode": playcode})
}

// Cards starts a chain on a deck's cards.
func (c *Client) Cards(playcode string) *api.Chain {
	return c.Select(EndpointCards, api.Params{"playcode": playcode})
}

// Calls starts a chain on a deck's call cards.
func (c *Client) Calls(playcode string) *api.Chain {
	return c.Select(EndpointCalls, api.Params{"playcode": playcode})
}

// Responses starts a chain on a deck's response cards.
func (c *Client) Responses(playcode string) *api.Chain {
	return c.Select(EndpointResponses, api.Params{"playcode": playcode})
}

// ListDecks searches published decks.
func (c *Client) ListDecks(ctx context.Context, opts ListOptions) (*DeckList, error) {
	resp, err := c.Decks(opts.params()).Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing decks: %w", err)
	}

	return decode[DeckList](resp)
}

// GetDeck fetches one deck by playcode.
func (c *Client) GetDeck(ctx context.Context, playcode string) (*Deck, error) {
	playcode, err := checkPlaycode(playcode)
	if err != nil {
		return nil, err
	}

	resp, err := c.Deck(playcode).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting deck %s: %w", playcode, err)
	}

	return decode[Deck](resp)
}

// GetCards fetches every card of a deck.
func (c *Client) GetCards(ctx context.Context, playcode string) (*CardSet, error) {
	playcode, err := checkPlaycode(playcode)
	if err != nil {
		return nil, err
	}

	resp, err := c.Cards(playcode).Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting cards of deck %s: %w", playcode, err)
	}

	return decode[CardSet](resp)
}

// GetCalls fetches the call cards of a deck.
func (c *Client) GetCalls(ctx context.Context, playcode string) ([]Card, error) {
	return c.cardList(ctx, EndpointCalls, playcode)
}

// GetResponses fetches the response cards of a deck.
func (c *Client) GetResponses(ctx context.Context, playcode string) ([]Card, error) {
	return c.cardList(ctx, EndpointResponses, playcode)
}

func (c *Client) cardList(ctx context.Context, endpoint, playcode string) ([]Card, error) {
	playcode, err := checkPlaycode(playcode)
	if err != nil {
		return nil, err
	}

	resp, err := c.Select(endpoint, api.Params{"playcode": playcode}).Index(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting %s of deck %s: %w", endpoint, playcode, err)
	}

	cards, err := decode[[]Card](resp)
	if err != nil {
		return nil, err
	}

	return *cards, nil
}

func decode[T any](resp *api.Response) (*T, error) {
	var out T

	err := resp.Decode(&out)
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func checkPlaycode(playcode string) (string, error) {
	playcode = strings.ToUpper(strings.TrimSpace(playcode))
	if playcode == "" {
		return "", ErrPlaycodeRequired
	}

	return playcode, nil
}

func normalizeBaseURL(base string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	return base
}
