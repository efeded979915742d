package ports

import (
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// RequesterIDQuery names the query parameter identifying the requester.
const RequesterIDQuery = "requester_id"

// FactStatusHandler answers whether a fact exists and is stable.
type FactStatusHandler struct {
	service *app.FactStatusService
}

// Handle processes GET /facts/:key. When requester_id is set and the fact exists
// but is not stable yet, the requester is notified once it becomes stable.
func (h *FactStatusHandler) Handle(c *fiber.Ctx) error {
	dto, err := h.service.ResolveFactStatus(c.UserContext(), c.Params("key"), c.Query(RequesterIDQuery))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(FactStatusResponse{
		FactKey:  dto.FactKey,
		Exists:   dto.Exists,
		IsStable: dto.IsStable,
	})
}

// NewFactStatusHandler creates a new FactStatusHandler. Panics if the provider is nil.
func NewFactStatusHandler(provider app.FactStatusProvider) *FactStatusHandler {
	if provider == nil {
		panic("fact status provider is nil")
	}
	return &FactStatusHandler{service: app.NewFactStatusService(provider)}
}
