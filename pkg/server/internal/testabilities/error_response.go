package testabilities

import (
	"testing"

	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/ports"
)

// NewTestErrorResponse creates the response body the error handler returns for err.
func NewTestErrorResponse(t *testing.T, err app.Error) ports.ErrorResponse {
	t.Helper()
	return ports.ErrorResponse{Message: err.Slug()}
}
