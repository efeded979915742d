package ports

import (
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// FactPublicationHandler accepts requests to publish a fact.
type FactPublicationHandler struct {
	service *app.FactPublicationService
}

// Handle processes POST /facts. It answers 202 Accepted when the fact was queued for
// publication and 200 OK when the fact already exists.
func (h *FactPublicationHandler) Handle(c *fiber.Ctx) error {
	var body FactPublicationRequest
	if err := c.BodyParser(&body); err != nil {
		return NewRequestBodyParserError(err)
	}

	dto, err := h.service.RequestFactPublication(c.UserContext(), body.FactKey, body.Payload, body.RequesterID)
	if err != nil {
		return err
	}

	status := fiber.StatusOK
	if dto.Queued {
		status = fiber.StatusAccepted
	}
	return c.Status(status).JSON(FactPublicationResponse{
		FactKey:  dto.FactKey,
		Exists:   dto.Exists,
		IsStable: dto.IsStable,
		Queued:   dto.Queued,
	})
}

// NewFactPublicationHandler creates a new FactPublicationHandler. Panics if the provider is nil.
func NewFactPublicationHandler(provider app.FactPublicationProvider) *FactPublicationHandler {
	if provider == nil {
		panic("fact publication provider is nil")
	}
	return &FactPublicationHandler{service: app.NewFactPublicationService(provider)}
}
