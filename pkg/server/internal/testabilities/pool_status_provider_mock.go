package testabilities

import (
	"context"
	"testing"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/stretchr/testify/require"
)

// PoolStatusProviderMockExpectations defines the expected behavior of the PoolStatusProviderMock.
type PoolStatusProviderMockExpectations struct {
	Status         oracle.PoolStatus
	Error          error
	PoolStatusCall bool
}

// PoolStatusProviderMock is a mock implementation of app.PoolStatusProvider.
type PoolStatusProviderMock struct {
	t            *testing.T
	expectations PoolStatusProviderMockExpectations
	called       bool
}

// PoolStatus records the call and returns the configured status or error.
func (m *PoolStatusProviderMock) PoolStatus(ctx context.Context) (oracle.PoolStatus, error) {
	m.t.Helper()
	m.called = true

	if m.expectations.Error != nil {
		return oracle.PoolStatus{}, m.expectations.Error
	}
	return m.expectations.Status, nil
}

// AssertCalled verifies that PoolStatus was called if it was expected to be.
func (m *PoolStatusProviderMock) AssertCalled() {
	m.t.Helper()
	require.Equal(m.t, m.expectations.PoolStatusCall, m.called, "Discrepancy between expected and actual PoolStatus call")
}

// NewPoolStatusProviderMock creates a new PoolStatusProviderMock with the given expectations.
func NewPoolStatusProviderMock(t *testing.T, expectations PoolStatusProviderMockExpectations) *PoolStatusProviderMock {
	return &PoolStatusProviderMock{t: t, expectations: expectations}
}
