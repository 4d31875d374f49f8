package api_test

import (
	"net/http"
	"testing"

	"github.com/fivetwenty-io/cardcast/pkg/api"
	"github.com/stretchr/testify/assert"
)

func TestResolveAction(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"all":     "index",
		"list":    "index",
		"index":   "index",
		"store":   "create",
		"create":  "create",
		"show":    "get",
		"get":     "get",
		"put":     "edit",
		"patch":   "edit",
		"update":  "edit",
		"destroy": "delete",
		"delete":  "delete",
		"Show":    "Show",
		"limit":   "limit",
	}

	for name, want := range tests {
		assert.Equal(t, want, api.ResolveAction(name), name)
	}
}

func TestActionTable(t *testing.T) {
	t.Parallel()

	table := api.DefaultActionTable()

	assert.Equal(t, http.MethodPost, table.Method("store"))
	assert.Equal(t, http.MethodPost, table.Method("create"))
	assert.Equal(t, http.MethodGet, table.Method("show"))
	assert.Equal(t, http.MethodGet, table.Method("get"))
	assert.Equal(t, http.MethodPut, table.Method("update"))
	assert.Equal(t, http.MethodDelete, table.Method("destroy"))
	assert.Equal(t, http.MethodGet, table.Method("unknown"))

	assert.True(t, table.IsAction("list"))
	assert.False(t, table.IsAction("category"))

	table["search"] = http.MethodPost
	assert.True(t, table.IsAction("search"))
	assert.Equal(t, []string{"create", "delete", "edit", "get", "index", "search"}, table.Actions())

	fresh := api.DefaultActionTable()
	assert.False(t, fresh.IsAction("search"))
}

func TestSendsBody(t *testing.T) {
	t.Parallel()

	assert.True(t, api.SendsBody(http.MethodPost))
	assert.True(t, api.SendsBody(http.MethodPut))
	assert.False(t, api.SendsBody(http.MethodGet))
	assert.False(t, api.SendsBody(http.MethodDelete))
	assert.False(t, api.SendsBody(http.MethodPatch))
}
