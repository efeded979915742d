package middleware

import (
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// BearerTokenAuthorizationMiddleware returns a fiber.Handler that only lets requests
// carrying expectedToken as Bearer token through.
func BearerTokenAuthorizationMiddleware(expectedToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := app.CheckBearerToken(c.Get(fiber.HeaderAuthorization), expectedToken); err != nil {
			return err
		}
		return c.Next()
	}
}
