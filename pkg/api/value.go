package api

// Value is a configuration or query value that is either known now or
// produced on demand. Deferred values are evaluated once, at the moment they
// are stored.
type Value interface {
	resolve() interface{}
}

type literal struct {
	value interface{}
}

func (l literal) resolve() interface{} {
	return l.value
}

type deferred func() interface{}

func (d deferred) resolve() interface{} {
	return d()
}

// Literal wraps a value that needs no evaluation.
func Literal(value interface{}) Value {
	return literal{value: value}
}

// Deferred wraps a zero-argument producer.
func Deferred(fn func() interface{}) Value {
	return deferred(fn)
}

// Resolve evaluates value if it is a Value or a zero-argument producer and
// returns everything else unchanged.
func Resolve(value interface{}) interface{} {
	switch v := value.(type) {
	case Value:
		return v.resolve()
	case func() interface{}:
		return v()
	case func() string:
		return v()
	case func() bool:
		return v()
	case func() int:
		return v()
	default:
		return value
	}
}
