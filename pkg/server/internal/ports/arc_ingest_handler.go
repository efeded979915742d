package ports

import (
	"fmt"

	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/gofiber/fiber/v2"
)

// ARCIngestHandler accepts merkle proofs pushed by ARC for broadcast units.
type ARCIngestHandler struct {
	service *app.ARCIngestService
}

// Handle processes POST /arc-ingest. Request body decoding errors return a request
// parsing error, everything else is validated by the ARCIngestService.
func (h *ARCIngestHandler) Handle(c *fiber.Ctx) error {
	var body ARCIngestRequest
	if err := c.BodyParser(&body); err != nil {
		return NewRequestBodyParserError(err)
	}

	err := h.service.ProcessIngest(c.UserContext(), body.Txid, body.MerklePath, body.BlockHeight)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(NewARCIngestSuccessResponse(body.Txid))
}

// NewARCIngestHandler creates a new ARCIngestHandler. Panics if the provider is nil.
func NewARCIngestHandler(provider app.ARCIngestProvider) *ARCIngestHandler {
	if provider == nil {
		panic("arc ingest provider is nil")
	}
	return &ARCIngestHandler{service: app.NewARCIngestService(provider)}
}

// NewARCIngestSuccessResponse returns the response sent once a merkle proof is ingested.
func NewARCIngestSuccessResponse(txID string) StatusResponse {
	return StatusResponse{
		Status:  "success",
		Message: fmt.Sprintf("Transaction with ID:%s successfully ingested.", txID),
	}
}
