package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/idempotency"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/pprof"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// HealthEndpoint is the liveness check path.
const HealthEndpoint = "/api/v1/health"

// BasicMiddlewareGroupConfig defines configuration options for building the middleware group.
type BasicMiddlewareGroupConfig struct {
	JSONBodyLimit    int64 // Max allowed size of JSON request bodies.
	EnableStackTrace bool  // Enable stack traces in panic recovery middleware.
}

// BasicMiddlewareGroup returns the middleware applied to every request: request ids,
// idempotency, CORS, panic recovery, access log, liveness check, pprof and the JSON
// body size limit.
func BasicMiddlewareGroup(cfg BasicMiddlewareGroupConfig) []fiber.Handler {
	return []fiber.Handler{
		requestid.New(),
		idempotency.New(),
		cors.New(),
		recover.New(recover.Config{EnableStackTrace: cfg.EnableStackTrace}),
		logger.New(logger.Config{
			Format:     "date=${time} request_id=${locals:requestid} status=${status} method=${method} path=${path} err=${error}\n",
			TimeFormat: "02-Jan-2006 15:04:05",
		}),
		healthcheck.New(healthcheck.Config{LivenessEndpoint: HealthEndpoint}),
		pprof.New(pprof.Config{Prefix: "/api/v1"}),
		LimitJSONBodyMiddleware(cfg.JSONBodyLimit),
	}
}
