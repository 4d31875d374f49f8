package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Params is a mapping of names to values, used for filters, URI parameters
// and bodies. Entries are applied in sorted key order.
type Params map[string]interface{}

// Query holds query parameters in the order they were first set. Setting an
// existing key replaces its value in place.
type Query struct {
	keys   []string
	values map[string]interface{}
}

// NewQuery creates an empty query.
func NewQuery() *Query {
	return &Query{values: make(map[string]interface{})}
}

// Set stores value under key.
func (q *Query) Set(key string, value interface{}) {
	if _, ok := q.values[key]; !ok {
		q.keys = append(q.keys, key)
	}

	q.values[key] = value
}

// Get returns the value stored under key.
func (q *Query) Get(key string) (interface{}, bool) {
	value, ok := q.values[key]

	return value, ok
}

// Delete removes key.
func (q *Query) Delete(key string) {
	if _, ok := q.values[key]; !ok {
		return
	}

	delete(q.values, key)
	q.keys = lo.Without(q.keys, key)
}

// Len returns the number of keys.
func (q *Query) Len() int {
	return len(q.keys)
}

// Keys returns the keys in insertion order.
func (q *Query) Keys() []string {
	return append([]string(nil), q.keys...)
}

// Map returns a copy of the stored values.
func (q *Query) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(q.values))
	for key, value := range q.values {
		out[key] = value
	}

	return out
}

// Clone returns an independent copy.
func (q *Query) Clone() *Query {
	clone := NewQuery()
	for _, key := range q.keys {
		clone.Set(key, q.values[key])
	}

	return clone
}

// Encode renders the query string in insertion order. Slice values repeat the key.
func (q *Query) Encode() string {
	var sb strings.Builder

	for _, key := range q.keys {
		for _, value := range formatValues(q.values[key]) {
			if sb.Len() > 0 {
				sb.WriteByte('&')
			}

			sb.WriteString(url.QueryEscape(key))
			sb.WriteByte('=')
			sb.WriteString(url.QueryEscape(value))
		}
	}

	return sb.String()
}

// Values converts the query to url.Values.
func (q *Query) Values() url.Values {
	values := make(url.Values, len(q.keys))
	for _, key := range q.keys {
		values[key] = formatValues(q.values[key])
	}

	return values
}

func formatValues(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		return lo.Map(v, func(item interface{}, _ int) string { return formatValue(item) })
	case []int:
		return lo.Map(v, func(item int, _ int) string { return strconv.Itoa(item) })
	default:
		return []string{formatValue(value)}
	}
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
