// Package server exposes the oracle over HTTP: requester queries and publication
// requests, ARC merkle proof callbacks and the operator API.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/adapters"
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/ports"
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/ports/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/google/uuid"
)

// APIPrefix is the path prefix of every oracle endpoint.
const APIPrefix = "/api/v1"

// OracleProvider is the oracle behind the HTTP API.
type OracleProvider interface {
	ports.OracleProvider
}

// Config holds the configuration settings for the HTTP server
type Config struct {
	// AppName is the name of the application.
	AppName string `mapstructure:"app_name"`

	// Port is the TCP port on which the server will listen.
	Port int `mapstructure:"port"`

	// Addr is the address the server will bind to.
	Addr string `mapstructure:"addr"`

	// ServerHeader is the value of the Server header returned in HTTP responses.
	ServerHeader string `mapstructure:"server_header"`

	// AdminBearerToken is the token required to access the operator endpoints.
	AdminBearerToken string `mapstructure:"admin_bearer_token"`

	// JSONBodyLimit is the maximum size of a JSON request body, in bytes.
	JSONBodyLimit int64 `mapstructure:"json_body_limit"`

	// ConnectionReadTimeout defines the maximum duration an active connection is allowed to stay open.
	ConnectionReadTimeout time.Duration `mapstructure:"connection_read_timeout"`

	// ARCAPIKey is the API key of the ARC service. ARC callbacks are rejected when empty.
	// It is taken from the ledger configuration.
	ARCAPIKey string `mapstructure:"-"`

	// ARCCallbackToken is the token ARC must present on merkle proof callbacks.
	ARCCallbackToken string `mapstructure:"arc_callback_token"`
}

// DefaultConfig returns a configuration with reasonable values for local development.
// The admin and callback tokens are random for every call.
func DefaultConfig() Config {
	return Config{
		AppName:               "Feed Oracle API v0.0.0",
		Port:                  3000,
		Addr:                  "localhost",
		ServerHeader:          "Feed Oracle API",
		AdminBearerToken:      uuid.NewString(),
		JSONBodyLimit:         middleware.ReadBodyLimit1MB,
		ConnectionReadTimeout: 10 * time.Second,
		ARCAPIKey:             "",
		ARCCallbackToken:      uuid.NewString(),
	}
}

// ServerOption defines a functional option for configuring an HTTP server.
type ServerOption func(*ServerHTTP)

// WithARCAPIKey sets the ARC API key. ARC callbacks are only accepted when it is set.
func WithARCAPIKey(apiKey string) ServerOption {
	return func(s *ServerHTTP) {
		s.cfg.ARCAPIKey = apiKey
	}
}

// WithARCCallbackToken sets the token expected on ARC callbacks.
func WithARCCallbackToken(token string) ServerOption {
	return func(s *ServerHTTP) {
		s.cfg.ARCCallbackToken = token
	}
}

// WithMiddleware adds a Fiber middleware handler applied before the basic middleware group.
func WithMiddleware(f fiber.Handler) ServerOption {
	return func(s *ServerHTTP) {
		s.middleware = append(s.middleware, f)
	}
}

// WithOracle sets the oracle served by the HTTP server.
func WithOracle(provider OracleProvider) ServerOption {
	return func(s *ServerHTTP) {
		s.oracle = provider
	}
}

// WithAdminBearerToken sets the token required by the operator endpoints.
func WithAdminBearerToken(token string) ServerOption {
	return func(s *ServerHTTP) {
		s.cfg.AdminBearerToken = token
	}
}

// WithJSONBodyLimit sets the maximum size of a JSON request body, in bytes.
func WithJSONBodyLimit(limit int64) ServerOption {
	return func(s *ServerHTTP) {
		s.cfg.JSONBodyLimit = limit
	}
}

// WithConfig replaces the whole server configuration.
func WithConfig(cfg Config) ServerOption {
	return func(s *ServerHTTP) {
		s.cfg = cfg
	}
}

// ServerHTTP represents the HTTP server instance, including configuration,
// Fiber app instance, middleware stack and the oracle it serves.
type ServerHTTP struct {
	cfg        Config          // cfg holds the server configuration settings.
	app        *fiber.App      // app is the Fiber application instance serving HTTP requests.
	middleware []fiber.Handler // middleware is a list of Fiber middleware functions to be applied globally.
	oracle     OracleProvider
}

// SocketAddr builds the address string for binding.
func (s *ServerHTTP) SocketAddr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Addr, s.cfg.Port)
}

// ListenAndServe starts the HTTP server and blocks until it is stopped or fails.
func (s *ServerHTTP) ListenAndServe(ctx context.Context) error {
	return s.app.Listen(s.SocketAddr())
}

// Shutdown gracefully shuts down the HTTP server, letting ongoing requests complete
// within the context's deadline.
func (s *ServerHTTP) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// New creates and configures a new instance of ServerHTTP. Without WithOracle the
// server answers with a noop oracle that refuses every mutating request.
func New(opts ...ServerOption) *ServerHTTP {
	srv := &ServerHTTP{
		cfg:    DefaultConfig(),
		oracle: adapters.NewNoopOracleProvider(),
	}

	for _, o := range opts {
		o(srv)
	}

	srv.app = newFiberApp(srv.cfg)
	for _, m := range srv.middleware {
		srv.app.Use(m)
	}
	for _, m := range middleware.BasicMiddlewareGroup(middleware.BasicMiddlewareGroupConfig{
		EnableStackTrace: true,
		JSONBodyLimit:    srv.cfg.JSONBodyLimit,
	}) {
		srv.app.Use(m)
	}

	srv.app.Get("/metrics", monitor.New(monitor.Config{Title: "Feed Oracle API"}))

	registry := ports.NewHandlerRegistryService(srv.oracle, ports.ARCCallbackConfig{
		APIKey:        srv.cfg.ARCAPIKey,
		CallbackToken: srv.cfg.ARCCallbackToken,
	})
	registry.Register(
		srv.app.Group(APIPrefix),
		middleware.BearerTokenAuthorizationMiddleware(srv.cfg.AdminBearerToken),
	)

	return srv
}

// newFiberApp creates a fiber.App with case-sensitive strict routing, the configured
// server header and read timeout, and the application error handler.
func newFiberApp(cfg Config) *fiber.App {
	return fiber.New(fiber.Config{
		CaseSensitive: true,
		StrictRouting: true,
		ServerHeader:  cfg.ServerHeader,
		AppName:       cfg.AppName,
		ReadTimeout:   cfg.ConnectionReadTimeout,
		ErrorHandler:  ports.ErrorHandler(),
	})
}
