package testabilities

import (
	"context"
	"testing"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/stretchr/testify/require"
)

// FactPublicationProviderMockExpectations defines the expected behavior of the FactPublicationProviderMock.
type FactPublicationProviderMockExpectations struct {
	Status                     oracle.PublicationStatus
	Error                      error
	RequestFactPublicationCall bool

	// Payload is the expected payload argument. Ignored when nil.
	Payload fact.Payload
}

// FactPublicationProviderMock is a mock implementation of app.FactPublicationProvider.
type FactPublicationProviderMock struct {
	t            *testing.T
	expectations FactPublicationProviderMockExpectations
	called       bool
}

// RequestFactPublication records the call and returns the configured status or error.
func (m *FactPublicationProviderMock) RequestFactPublication(ctx context.Context, key fact.Key, payload fact.Payload, requester string) (oracle.PublicationStatus, error) {
	m.t.Helper()
	m.called = true

	if m.expectations.Payload != nil {
		require.Equal(m.t, m.expectations.Payload, payload)
	}
	if m.expectations.Error != nil {
		return oracle.PublicationStatus{}, m.expectations.Error
	}
	return m.expectations.Status, nil
}

// AssertCalled verifies that RequestFactPublication was called if it was expected to be.
func (m *FactPublicationProviderMock) AssertCalled() {
	m.t.Helper()
	require.Equal(m.t, m.expectations.RequestFactPublicationCall, m.called, "Discrepancy between expected and actual RequestFactPublication call")
}

// NewFactPublicationProviderMock creates a new FactPublicationProviderMock with the given expectations.
func NewFactPublicationProviderMock(t *testing.T, expectations FactPublicationProviderMockExpectations) *FactPublicationProviderMock {
	return &FactPublicationProviderMock{t: t, expectations: expectations}
}
