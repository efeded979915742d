package ports

import (
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// OracleProvider is the set of oracle operations exposed over HTTP.
type OracleProvider interface {
	app.FactStatusProvider
	app.FactPublicationProvider
	app.ARCIngestProvider
	app.PoolStatusProvider
	app.FundingProvider
}

// HandlerRegistryService maps the API endpoints to their handler implementations.
type HandlerRegistryService struct {
	factStatus      *FactStatusHandler
	factPublication *FactPublicationHandler
	arcIngest       fiber.Handler
	poolStatus      *PoolStatusHandler
	funding         *FundingHandler
}

// Register mounts the requester endpoints on api and the operator endpoints on api/admin.
// admin is applied to the operator endpoints only.
func (h *HandlerRegistryService) Register(api fiber.Router, admin ...fiber.Handler) {
	api.Get("/facts/:key", h.factStatus.Handle)
	api.Post("/facts", h.factPublication.Handle)
	api.Post("/arc-ingest", h.arcIngest)

	group := api.Group("/admin", admin...)
	group.Get("/pool", h.poolStatus.Handle)
	group.Post("/funding", h.funding.Handle)
}

// NewHandlerRegistryService creates the handlers of every endpoint around provider.
// The ARC ingest handler only accepts callbacks carrying the ARC callback token.
func NewHandlerRegistryService(provider OracleProvider, arcCfg ARCCallbackConfig) *HandlerRegistryService {
	return &HandlerRegistryService{
		factStatus:      NewFactStatusHandler(provider),
		factPublication: NewFactPublicationHandler(provider),
		arcIngest:       RequireARCCallbackToken(arcCfg, NewARCIngestHandler(provider).Handle),
		poolStatus:      NewPoolStatusHandler(provider),
		funding:         NewFundingHandler(provider),
	}
}
