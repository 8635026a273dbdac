// Package fiber provides middleware for Fiber framework.
//
// Fiber uses fasthttp, not net/http, and hands handlers their context through
// Ctx.UserContext. The middleware here store the request tags there, so
// statements must be issued with c.UserContext():
//
//	app := fiber.New()
//	app.Use(fibercomment.RequestID())
//	app.Use(fibercomment.Route())
//
//	app.Get("/users/:id", func(c *fiber.Ctx) error {
//	    rows, err := db.QueryContext(c.UserContext(), "SELECT ...")
//	    ...
//	})
package fiber

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/kroma-labs/sqlcommenter-go/httpserver"
	"github.com/kroma-labs/sqlcommenter-go/sqlcomment"
)

// RequestID returns Fiber middleware that generates/forwards X-Request-ID and
// tags statements with it.
//
//	app.Use(fibercomment.RequestID())
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := utils.CopyString(c.Get(httpserver.RequestIDHeader))
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(httpserver.RequestIDHeader, id)
		c.SetUserContext(sqlcomment.ContextWithTags(c.UserContext(),
			sqlcomment.NewTags(httpserver.KeyRequestID, id)))

		return c.Next()
	}
}

// Route returns Fiber middleware that tags statements with the route of the
// handler issuing them, e.g. /users/:id.
//
// Middleware registered with Use run under their own route, so the tag is
// read from the Ctx when a statement is annotated. It is only valid while the
// request is being handled.
//
//	app.Use(fibercomment.Route())
func Route() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.SetUserContext(sqlcomment.ContextWithTagger(c.UserContext(),
			sqlcomment.TaggerFunc(func(_ context.Context, tags *sqlcomment.Tags) {
				tags.Set(httpserver.KeyRoute, utils.CopyString(c.Route().Path))
			}),
		))

		return c.Next()
	}
}
