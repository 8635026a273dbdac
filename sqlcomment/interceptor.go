package sqlcomment

import (
	"context"
	"errors"
	"fmt"
)

// ErrConfiguration is returned when an interceptor cannot be installed.
var ErrConfiguration = errors.New("sqlcomment: invalid configuration")

// QueryFunc is a query entry point. query is SQL text or a QueryConfig, args
// are bind values optionally followed by a Callback.
type QueryFunc[R any] func(ctx context.Context, query any, args ...any) (R, error)

// Intercept wraps next so every recognized call is forwarded with an
// annotated statement. Unrecognized calls and calls with empty text are
// forwarded with their original arguments, without computing any tag.
// Whatever next returns is returned unchanged.
//
// Example:
//
//	query, err := sqlcomment.Intercept(commenter, originalQuery)
//	if err != nil {
//	    return err
//	}
//	rows, err := query(ctx, "SELECT * FROM users WHERE id = $1", id)
func Intercept[R any](c *Commenter, next QueryFunc[R]) (QueryFunc[R], error) {
	if c == nil {
		return nil, fmt.Errorf("%w: nil commenter", ErrConfiguration)
	}
	if next == nil {
		return nil, fmt.Errorf("%w: missing query entry point", ErrConfiguration)
	}

	return func(ctx context.Context, query any, args ...any) (R, error) {
		call, ok := Normalize[R](query, args)
		if !ok || call.Text == "" {
			c.cfg.Logger.Debug().
				Str("shape", call.Shape.String()).
				Str("type", fmt.Sprintf("%T", query)).
				Msg("sqlcomment: passing call through")
			return next(ctx, query, args...)
		}

		text := c.Comment(ctx, call.Text)
		return next(ctx, call.Payload(text), call.Args()...)
	}, nil
}
