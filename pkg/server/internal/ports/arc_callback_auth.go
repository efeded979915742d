package ports

import (
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// ARCCallbackConfig configures which ARC callbacks reach the ingest endpoint.
type ARCCallbackConfig struct {
	APIKey        string // Callbacks are disabled when empty.
	CallbackToken string // Bearer token ARC sends back with every callback.
}

// Enabled reports whether the oracle broadcasts through ARC and so expects callbacks.
func (c ARCCallbackConfig) Enabled() bool { return c.APIKey != "" }

// RequireARCCallbackToken only lets requests carrying the configured callback token
// through to next.
func RequireARCCallbackToken(cfg ARCCallbackConfig, next fiber.Handler) fiber.Handler {
	if next == nil {
		panic("arc callback handler cannot be nil")
	}

	return func(c *fiber.Ctx) error {
		if !cfg.Enabled() {
			return app.NewARCCallbacksDisabledError()
		}
		if err := app.CheckBearerToken(c.Get(fiber.HeaderAuthorization), cfg.CallbackToken); err != nil {
			return err
		}
		return next(c)
	}
}
