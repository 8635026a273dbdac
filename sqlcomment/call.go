package sqlcomment

// Shape identifies the calling convention of a query invocation.
type Shape uint8

const (
	// ShapeUnknown is any invocation that is not recognized. It is passed
	// through untouched.
	ShapeUnknown Shape = iota
	// ShapeText is (text, [values...], [callback]).
	ShapeText
	// ShapeConfig is (QueryConfig, [values...], [callback]).
	ShapeConfig
)

// String implements fmt.Stringer.
func (s Shape) String() string {
	switch s {
	case ShapeText:
		return "text"
	case ShapeConfig:
		return "config"
	default:
		return "unknown"
	}
}

// QueryConfig is a statement object holding the SQL text and its bind values.
type QueryConfig struct {
	Text   string
	Values []any
}

// Callback receives the outcome of a callback-style query.
type Callback[R any] func(R, error)

// Call is the canonical form of a query invocation.
type Call[R any] struct {
	Shape    Shape
	Text     string
	Values   []any
	Callback Callback[R]

	// callbackArg is the callback exactly as the caller passed it.
	callbackArg any

	// config is the caller's statement object, never modified.
	config   QueryConfig
	byValue  bool
	original any
}

// Normalize reduces the supported calling conventions to a Call:
//
//	(text, values..., callback)
//	(text, callback)
//	(QueryConfig or *QueryConfig, [values...], [callback])
//
// A trailing Callback[R] or func(R, error) argument is the callback; the
// remaining arguments are the bind values. For a QueryConfig, explicit values
// take precedence over QueryConfig.Values. The boolean is false for any other
// shape, including a QueryConfig with empty Text.
func Normalize[R any](query any, args []any) (Call[R], bool) {
	call := Call[R]{original: query}

	values := args
	if n := len(args); n > 0 {
		switch cb := args[n-1].(type) {
		case Callback[R]:
			call.Callback = cb
			call.callbackArg = args[n-1]
			values = args[:n-1]
		case func(R, error):
			call.Callback = cb
			call.callbackArg = args[n-1]
			values = args[:n-1]
		}
	}
	if len(values) > 0 {
		call.Values = values
	}

	switch q := query.(type) {
	case string:
		call.Shape = ShapeText
		call.Text = q
	case QueryConfig:
		call.setConfig(q, true)
	case *QueryConfig:
		if q == nil {
			return call, false
		}
		call.setConfig(*q, false)
	default:
		return call, false
	}

	if call.Shape == ShapeConfig && call.Text == "" {
		call.Shape = ShapeUnknown
		return call, false
	}
	return call, true
}

func (c *Call[R]) setConfig(q QueryConfig, byValue bool) {
	c.Shape = ShapeConfig
	c.Text = q.Text
	c.config = q
	c.byValue = byValue
	if c.Values == nil {
		c.Values = q.Values
	}
}

// Payload returns the query argument to forward with text as the statement.
// A string stays a string. A statement object becomes a shallow copy of the
// caller's object with only Text replaced, in the same value or pointer form.
func (c Call[R]) Payload(text string) any {
	switch c.Shape {
	case ShapeText:
		return text
	case ShapeConfig:
		cfg := c.config
		cfg.Text = text
		if c.byValue {
			return cfg
		}
		return &cfg
	default:
		return c.original
	}
}

// Args returns the arguments to forward: the values followed by the callback
// when there is one. The callback keeps the dynamic type it was passed with.
func (c Call[R]) Args() []any {
	if c.callbackArg == nil {
		return c.Values
	}
	args := make([]any, 0, len(c.Values)+1)
	args = append(args, c.Values...)
	return append(args, c.callbackArg)
}
