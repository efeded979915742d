package testabilities

import (
	"context"
	"testing"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/stretchr/testify/require"
)

// FundingProviderMockExpectations defines the expected behavior of the FundingProviderMock.
type FundingProviderMockExpectations struct {
	Error               error
	RegisterFundingCall bool

	// Funding is the expected call argument. Ignored when zero.
	Funding oracle.Funding
}

// FundingProviderMock is a mock implementation of app.FundingProvider.
type FundingProviderMock struct {
	t            *testing.T
	expectations FundingProviderMockExpectations
	called       bool
}

// RegisterFunding records the call and returns the configured error.
func (m *FundingProviderMock) RegisterFunding(ctx context.Context, f oracle.Funding) error {
	m.t.Helper()
	m.called = true

	if m.expectations.Funding != (oracle.Funding{}) {
		require.Equal(m.t, m.expectations.Funding, f)
	}
	return m.expectations.Error
}

// AssertCalled verifies that RegisterFunding was called if it was expected to be.
func (m *FundingProviderMock) AssertCalled() {
	m.t.Helper()
	require.Equal(m.t, m.expectations.RegisterFundingCall, m.called, "Discrepancy between expected and actual RegisterFunding call")
}

// NewFundingProviderMock creates a new FundingProviderMock with the given expectations.
func NewFundingProviderMock(t *testing.T, expectations FundingProviderMockExpectations) *FundingProviderMock {
	return &FundingProviderMock{t: t, expectations: expectations}
}
