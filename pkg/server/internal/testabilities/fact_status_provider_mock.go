package testabilities

import (
	"context"
	"testing"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/stretchr/testify/require"
)

// FactStatusProviderMockExpectations defines the expected behavior of the FactStatusProviderMock.
type FactStatusProviderMockExpectations struct {
	// Status is returned from ResolveFactStatus when Error is nil.
	Status oracle.Status

	// Error is returned from ResolveFactStatus when set.
	Error error

	// ResolveFactStatusCall indicates whether ResolveFactStatus is expected to be called.
	ResolveFactStatusCall bool

	// Key and Requester are the expected call arguments. Ignored when empty.
	Key       fact.Key
	Requester string
}

// FactStatusProviderMock is a mock implementation of app.FactStatusProvider.
type FactStatusProviderMock struct {
	t            *testing.T
	expectations FactStatusProviderMockExpectations
	called       bool
}

// ResolveFactStatus records the call and returns the configured status or error.
func (m *FactStatusProviderMock) ResolveFactStatus(ctx context.Context, key fact.Key, requester string) (oracle.Status, error) {
	m.t.Helper()
	m.called = true

	if m.expectations.Key != "" {
		require.Equal(m.t, m.expectations.Key, key)
	}
	if m.expectations.Requester != "" {
		require.Equal(m.t, m.expectations.Requester, requester)
	}
	if m.expectations.Error != nil {
		return oracle.Status{}, m.expectations.Error
	}
	return m.expectations.Status, nil
}

// AssertCalled verifies that ResolveFactStatus was called if it was expected to be.
func (m *FactStatusProviderMock) AssertCalled() {
	m.t.Helper()
	require.Equal(m.t, m.expectations.ResolveFactStatusCall, m.called, "Discrepancy between expected and actual ResolveFactStatus call")
}

// NewFactStatusProviderMock creates a new FactStatusProviderMock with the given expectations.
func NewFactStatusProviderMock(t *testing.T, expectations FactStatusProviderMockExpectations) *FactStatusProviderMock {
	return &FactStatusProviderMock{t: t, expectations: expectations}
}
