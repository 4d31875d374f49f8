package cardcast

import (
	"strings"
	"time"

	"github.com/fivetwenty-io/cardcast/pkg/api"
)

// Author is the user who published a deck.
type Author struct {
	ID       string `json:"id"       yaml:"id"`
	Username string `json:"username" yaml:"username"`
}

// Deck is a published card deck. Code is its playcode.
type Deck struct {
	Code              string    `json:"code"                           yaml:"code"`
	Name              string    `json:"name"                           yaml:"name"`
	Description       string    `json:"description,omitempty"          yaml:"description,omitempty"`
	Category          string    `json:"category"                       yaml:"category"`
	Author            Author    `json:"author"                         yaml:"author"`
	CallCount         int       `json:"call_count"                     yaml:"call_count"`
	ResponseCount     int       `json:"response_count"                 yaml:"response_count"`
	Rating            float64   `json:"rating"                         yaml:"rating"`
	Unlisted          bool      `json:"unlisted"                       yaml:"unlisted"`
	ExternalCopyright bool      `json:"external_copyright"             yaml:"external_copyright"`
	CopyrightHolder   string    `json:"copyright_holder_url,omitempty" yaml:"copyright_holder_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"                     yaml:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"                     yaml:"updated_at"`
}

// DeckResults is one page of a deck search.
type DeckResults struct {
	Count int    `json:"count" yaml:"count"`
	Data  []Deck `json:"data"  yaml:"data"`
}

// DeckList is the response of a deck search.
type DeckList struct {
	Results DeckResults `json:"results" yaml:"results"`
}

// Card is a call (prompt) or response card. A call's Text holds the segments
// around its blanks; a response has a single segment.
type Card struct {
	ID        string    `json:"id"         yaml:"id"`
	Text      []string  `json:"text"       yaml:"text"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	NSFW      bool      `json:"nsfw"       yaml:"nsfw"`
}

// Blanks returns the number of blanks in a call card.
func (c Card) Blanks() int {
	if len(c.Text) == 0 {
		return 0
	}

	return len(c.Text) - 1
}

func (c Card) String() string {
	return strings.Join(c.Text, "____")
}

// CardSet holds every card of a deck.
type CardSet struct {
	Calls     []Card `json:"calls"     yaml:"calls"`
	Responses []Card `json:"responses" yaml:"responses"`
}

// ListOptions filter a deck search. Zero values are not sent.
type ListOptions struct {
	Offset   int
	Limit    int
	Author   string
	Category string
	Search   string
}

func (o ListOptions) params() api.Params {
	params := make(api.Params)

	if o.Offset > 0 {
		params["offset"] = o.Offset
	}

	if o.Limit > 0 {
		params["limit"] = o.Limit
	}

	if o.Author != "" {
		params["author"] = o.Author
	}

	if o.Category != "" {
		params["category"] = o.Category
	}

	if o.Search != "" {
		params["search"] = o.Search
	}

	return params
}
