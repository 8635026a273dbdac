package sqlcomment

import (
	"context"
	"fmt"
	"strings"
)

// Commenter annotates SQL statements with a tag comment.
// It is immutable and safe for concurrent use.
type Commenter struct {
	cfg *config
}

// New creates a Commenter.
//
// Example:
//
//	c := sqlcomment.New(sqlcomment.WithFramework("billing-api"))
//	query := c.Comment(ctx, "SELECT * FROM invoices;")
//	// SELECT * FROM invoices /*traceparent=00-...-01 framework=billing-api file=internal%2Fstore%2Finvoices.go*/;
func New(opts ...Option) *Commenter {
	return &Commenter{cfg: newConfig(opts...)}
}

// Framework returns the framework tag value.
func (c *Commenter) Framework() string {
	return c.cfg.Framework
}

// Tags collects the tags for a query issued with ctx, in this order: trace
// context, framework, static tags, configured taggers, context tags, file.
func (c *Commenter) Tags(ctx context.Context) Tags {
	var tags Tags

	if c.cfg.Propagator != nil {
		NewTraceTagger(c.cfg.Propagator).Tag(ctx, &tags)
	}
	if c.cfg.Framework != "" {
		tags.Set(KeyFramework, c.cfg.Framework)
	}
	tags.Merge(c.cfg.Tags)
	for _, t := range c.cfg.Taggers {
		t.Tag(ctx, &tags)
	}
	contextTagger(ctx, &tags)

	if c.cfg.Locator != nil {
		tags.Set(KeyFile, c.caller(ctx))
	}
	return tags
}

// Comment returns query with the tag comment appended. Blank queries, and
// queries already annotated by a Commenter with the same framework, are
// returned unchanged.
func (c *Commenter) Comment(ctx context.Context, query string) string {
	if strings.TrimSpace(query) == "" || c.annotated(query) {
		return query
	}
	return Splice(query, Compose(c.Tags(ctx).Encode()))
}

func (c *Commenter) annotated(query string) bool {
	if c.cfg.Framework == "" {
		return false
	}
	tags, ok, err := ParseComment(query)
	if !ok || err != nil {
		return false
	}
	framework, _ := tags.Get(KeyFramework)
	return framework == c.cfg.Framework
}

// caller resolves the file tag. Locator errors and panics never reach the
// query path; they degrade to Unknown.
func (c *Commenter) caller(ctx context.Context) (file string) {
	defer func() {
		if r := recover(); r != nil {
			c.cfg.Logger.Warn().
				Str("panic", fmt.Sprint(r)).
				Msg("sqlcomment: caller locator panicked")
			file = Unknown
		}
	}()

	file, err := c.cfg.Locator.Locate(ctx)
	if err != nil {
		c.cfg.Logger.Debug().Err(err).Msg("sqlcomment: caller not resolved")
		return Unknown
	}
	if file == "" {
		return Unknown
	}
	return file
}
