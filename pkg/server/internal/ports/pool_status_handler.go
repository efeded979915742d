package ports

import (
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// PoolStatusHandler reports the resource pool and queue counters to operators.
type PoolStatusHandler struct {
	service *app.PoolStatusService
}

// Handle processes GET /admin/pool.
func (h *PoolStatusHandler) Handle(c *fiber.Ctx) error {
	status, err := h.service.PoolStatus(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(status)
}

// NewPoolStatusHandler creates a new PoolStatusHandler. Panics if the provider is nil.
func NewPoolStatusHandler(provider app.PoolStatusProvider) *PoolStatusHandler {
	if provider == nil {
		panic("pool status provider is nil")
	}
	return &PoolStatusHandler{service: app.NewPoolStatusService(provider)}
}
