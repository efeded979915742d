package ports

import (
	"fmt"

	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// FundingHandler registers confirmed payments to the oracle address.
type FundingHandler struct {
	service *app.FundingService
}

// Handle processes POST /admin/funding.
func (h *FundingHandler) Handle(c *fiber.Ctx) error {
	var body FundingRequest
	if err := c.BodyParser(&body); err != nil {
		return NewRequestBodyParserError(err)
	}

	err := h.service.RegisterFunding(c.UserContext(), body.Kind, body.Txid, body.Vout, body.Satoshis)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(StatusResponse{
		Status:  "success",
		Message: fmt.Sprintf("Funding of %d satoshis registered.", body.Satoshis),
	})
}

// NewFundingHandler creates a new FundingHandler. Panics if the provider is nil.
func NewFundingHandler(provider app.FundingProvider) *FundingHandler {
	if provider == nil {
		panic("funding provider is nil")
	}
	return &FundingHandler{service: app.NewFundingService(provider)}
}
