package api

import (
	"net/http"
	"sort"

	"github.com/samber/lo"
)

// Canonical actions every alias resolves to.
const (
	ActionIndex  = "index"
	ActionCreate = "create"
	ActionGet    = "get"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// CanonicalActions lists the built-in action vocabulary.
var CanonicalActions = []string{ActionIndex, ActionCreate, ActionGet, ActionEdit, ActionDelete}

var actionAliases = map[string]string{
	"all":     ActionIndex,
	"list":    ActionIndex,
	"store":   ActionCreate,
	"show":    ActionGet,
	"put":     ActionEdit,
	"patch":   ActionEdit,
	"update":  ActionEdit,
	"destroy": ActionDelete,
}

var defaultActionMethods = map[string]string{
	ActionIndex:  http.MethodGet,
	ActionCreate: http.MethodPost,
	ActionGet:    http.MethodGet,
	ActionEdit:   http.MethodPut,
	ActionDelete: http.MethodDelete,
}

// ResolveAction maps an alias to its canonical action. Unknown names are
// returned unchanged. Matching is case-sensitive.
func ResolveAction(name string) string {
	if canonical, ok := actionAliases[name]; ok {
		return canonical
	}

	return name
}

// ActionTable maps canonical actions to HTTP methods.
type ActionTable map[string]string

// DefaultActionTable returns a fresh copy of the built-in verb mapping.
func DefaultActionTable() ActionTable {
	table := make(ActionTable, len(defaultActionMethods))
	for action, method := range defaultActionMethods {
		table[action] = method
	}

	return table
}

// IsAction reports whether name, after alias resolution, is a canonical
// action or has a verb mapping.
func (t ActionTable) IsAction(name string) bool {
	action := ResolveAction(name)
	if lo.Contains(CanonicalActions, action) {
		return true
	}

	_, ok := t[action]

	return ok
}

// Method returns the HTTP method for name, defaulting to GET.
func (t ActionTable) Method(name string) string {
	if method, ok := t[ResolveAction(name)]; ok {
		return method
	}

	return http.MethodGet
}

// Actions returns every action the table recognizes, sorted.
func (t ActionTable) Actions() []string {
	actions := lo.Uniq(append(lo.Keys(map[string]string(t)), CanonicalActions...))
	sort.Strings(actions)

	return actions
}

// SendsBody reports whether actions using method take a body argument before
// the extra query argument.
func SendsBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut
}
