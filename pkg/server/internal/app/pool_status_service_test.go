package app_test

import (
	"testing"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/testabilities"
	"github.com/stretchr/testify/require"
)

func TestPoolStatusService_ProviderFailure(t *testing.T) {
	// given:
	mock := testabilities.NewPoolStatusProviderMock(t, testabilities.PoolStatusProviderMockExpectations{
		PoolStatusCall: true,
		Error:          testabilities.ErrTestNoopOpFailure,
	})
	service := app.NewPoolStatusService(mock)

	// when:
	status, err := service.PoolStatus(t.Context())

	// then:
	var actualErr app.Error
	require.ErrorAs(t, err, &actualErr)
	require.Equal(t, app.ErrorTypeProviderFailure, actualErr.ErrorType())
	require.Nil(t, status)
	mock.AssertCalled()
}

func TestPoolStatusService_ValidCase(t *testing.T) {
	// given:
	expected := oracle.PoolStatus{
		Address:        "1Oracle",
		PayableOutputs: 42,
		Threshold:      10,
		Queue:          oracle.QueueStats{Pending: 1, Attempts: 3},
	}
	mock := testabilities.NewPoolStatusProviderMock(t, testabilities.PoolStatusProviderMockExpectations{
		PoolStatusCall: true,
		Status:         expected,
	})
	service := app.NewPoolStatusService(mock)

	// when:
	status, err := service.PoolStatus(t.Context())

	// then:
	require.NoError(t, err)
	require.Equal(t, &expected, status)
	mock.AssertCalled()
}
