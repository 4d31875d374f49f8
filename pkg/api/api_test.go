package api_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/fivetwenty-io/cardcast/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoot = errors.New("boot failed")

func TestNew_RequiresBase(t *testing.T) {
	t.Parallel()

	_, err := api.New(&api.Definition{Versions: []string{"v1"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrDefinition))
	assert.Equal(t, "required field missing: base", err.Error())

	_, err = api.New(nil)
	assert.True(t, errors.Is(err, api.ErrDefinition))
}

func TestNew_DefaultsToLatestVersion(t *testing.T) {
	t.Parallel()

	def := cardcastDefinition()
	def.Versions = []string{"v1", "v2"}

	client, _ := newRecordedAPI(t, def)
	assert.Equal(t, "v2", client.Version())
	assert.True(t, client.IsVersioned())
	assert.Equal(t, []string{"v1", "v2"}, client.Versions())
}

func TestNew_OwnsDefinition(t *testing.T) {
	t.Parallel()

	def := cardcastDefinition()
	client, _ := newRecordedAPI(t, def)

	def.Base = "https://other.example.com"
	def.Endpoints["v1"]["decks.{index}"] = "changed"

	owned := client.Definition()
	assert.Equal(t, "https://api.example.com", owned.Base)
	assert.Equal(t, "decks", owned.Endpoints["v1"]["decks.{index}"])

	owned.Base = "https://mutated.example.com"
	assert.Equal(t, "https://api.example.com", client.Definition().Base)
}

func TestAPI_SetVersion(t *testing.T) {
	t.Parallel()

	def := cardcastDefinition()
	def.Versions = []string{"v1", "v2"}
	client, _ := newRecordedAPI(t, def)

	require.NoError(t, client.SetVersion("1"))
	assert.Equal(t, "v1", client.Version())

	require.NoError(t, client.SetVersion("v2"))
	assert.Equal(t, "v2", client.Version())
	assert.True(t, client.HasVersion("v1"))
	assert.False(t, client.HasVersion("1"))
	assert.False(t, client.HasVersion("3"))

	err := client.SetVersion("v3")
	require.Error(t, err)
	assert.True(t, errors.Is(err, api.ErrInvalidVersion))
	assert.Equal(t, "there is no version v3 (supported: v1, v2)", err.Error())

	var versionErr *api.InvalidVersionError
	require.ErrorAs(t, err, &versionErr)
	assert.Equal(t, "v3", versionErr.Version)
	assert.Equal(t, "v2", client.Version())
}

func TestAPI_SetVersionUnversioned(t *testing.T) {
	t.Parallel()

	client, _ := newRecordedAPI(t, &api.Definition{Base: "https://api.example.com"})

	assert.False(t, client.IsVersioned())
	require.NoError(t, client.SetVersion("v7"))
	assert.Empty(t, client.Version())
	assert.Equal(t, "https://api.example.com", client.BaseURL("v7"))
}

func TestAPI_TransportPerVersion(t *testing.T) {
	t.Parallel()

	def := cardcastDefinition()
	def.Base = "https://api.example.com/"
	def.Versions = []string{"v1", "v2"}
	client, rec := newRecordedAPI(t, def)

	first, err := client.Transport("v1")
	require.NoError(t, err)

	again, err := client.Transport("v1")
	require.NoError(t, err)
	assert.Same(t, first, again)

	other, err := client.Transport("v2")
	require.NoError(t, err)
	assert.NotSame(t, first, other)

	require.Len(t, rec.configs, 2)
	assert.Equal(t, "https://api.example.com/v1", rec.configs[0].BaseURL)
	assert.Equal(t, "https://api.example.com/v2", rec.configs[1].BaseURL)
	assert.Equal(t, "application/json", rec.configs[0].Headers["Accept"])
}

func TestAPI_TransportConcurrentCreation(t *testing.T) {
	t.Parallel()

	client, rec := newRecordedAPI(t, cardcastDefinition())

	var wg sync.WaitGroup

	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := client.Transport("v1")
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	assert.Len(t, rec.configs, 1)
}

func TestAPI_Headers(t *testing.T) {
	t.Parallel()

	client, _ := newRecordedAPI(t, cardcastDefinition(),
		api.WithName("deckbot"),
		api.WithHeader("accept", "application/vnd.cardcast+json"),
		api.WithHeaders(map[string]string{"X-Request-Source": "tests"}),
	)

	headers := client.Headers()
	assert.Equal(t, "application/vnd.cardcast+json", headers["Accept"])
	assert.Equal(t, "tests", headers["X-Request-Source"])
	assert.True(t, strings.HasPrefix(headers["User-Agent"], "deckbot go-retryablehttp"))
	assert.Equal(t, "deckbot", client.Name())
}

func TestAPI_UserAgent(t *testing.T) {
	t.Parallel()

	plain, _ := newRecordedAPI(t, cardcastDefinition())
	assert.Contains(t, plain.UserAgent(), " Go/")
	assert.False(t, strings.HasSuffix(plain.UserAgent(), " gzip"))

	compressed, _ := newRecordedAPI(t, cardcastDefinition(), api.WithGzip(true))
	assert.True(t, strings.HasSuffix(compressed.UserAgent(), " gzip"))
}

func TestNew_Boot(t *testing.T) {
	t.Parallel()

	var booted *api.API

	client, _ := newRecordedAPI(t, cardcastDefinition(), api.WithBoot(func(a *api.API) error {
		booted = a

		return a.SetVersion("v1")
	}))
	assert.Same(t, client, booted)

	_, err := api.New(cardcastDefinition(), api.WithBoot(func(*api.API) error { return errBoot }))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBoot))
}

func TestAPI_ActionMethods(t *testing.T) {
	t.Parallel()

	client, _ := newRecordedAPI(t, cardcastDefinition(), api.WithActionMethod("search", "post"))

	actions := client.Actions()
	assert.Equal(t, "POST", actions.Method("search"))

	actions["search"] = "GET"
	assert.Equal(t, "POST", client.Actions().Method("search"))
}
