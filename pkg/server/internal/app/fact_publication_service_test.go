package app_test

import (
	"fmt"
	"testing"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/4chain-ag/go-feed-oracle/pkg/core/oracle"
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/app"
	"github.com/4chain-ag/go-feed-oracle/pkg/server/internal/testabilities"
	"github.com/stretchr/testify/require"
)

func TestFactPublicationService_InvalidCases(t *testing.T) {
	tests := map[string]struct {
		key             string
		payload         map[string]any
		requester       string
		expectedErrType app.ErrorType
		expectations    testabilities.FactPublicationProviderMockExpectations
	}{
		"Publication service returns error for an empty fact key": {
			payload:         map[string]any{"_TEAMA_TEAMB_01-01-2025": "TEAMA"},
			requester:       "deviceX",
			expectedErrType: app.ErrorTypeIncorrectInput,
		},
		"Publication service returns error for a missing requester": {
			key:             "TEAMA_TEAMB_01-01-2025",
			payload:         map[string]any{"_TEAMA_TEAMB_01-01-2025": "TEAMA"},
			expectedErrType: app.ErrorTypeIncorrectInput,
		},
		"Publication service returns error for an empty payload": {
			key:             "TEAMA_TEAMB_01-01-2025",
			requester:       "deviceX",
			expectedErrType: app.ErrorTypeIncorrectInput,
		},
		"Publication service returns error when the provider rejects the fact": {
			key:             "TEAMA_TEAMB_01-01-2025",
			payload:         map[string]any{"_TEAMA_TEAMB_01-01-2025": "TEAMA"},
			requester:       "deviceX",
			expectedErrType: app.ErrorTypeIncorrectInput,
			expectations: testabilities.FactPublicationProviderMockExpectations{
				RequestFactPublicationCall: true,
				Error:                      fmt.Errorf("%w: payload", fact.ErrMalformedFact),
			},
		},
		"Publication service returns error when the queue is closed": {
			key:             "TEAMA_TEAMB_01-01-2025",
			payload:         map[string]any{"_TEAMA_TEAMB_01-01-2025": "TEAMA"},
			requester:       "deviceX",
			expectedErrType: app.ErrorTypeProviderFailure,
			expectations: testabilities.FactPublicationProviderMockExpectations{
				RequestFactPublicationCall: true,
				Error:                      oracle.ErrQueueClosed,
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			// given:
			mock := testabilities.NewFactPublicationProviderMock(t, tc.expectations)
			service := app.NewFactPublicationService(mock)

			// when:
			dto, err := service.RequestFactPublication(t.Context(), tc.key, tc.payload, tc.requester)

			// then:
			var actualErr app.Error
			require.ErrorAs(t, err, &actualErr)
			require.Equal(t, tc.expectedErrType, actualErr.ErrorType())
			require.Nil(t, dto)

			mock.AssertCalled()
		})
	}
}

func TestFactPublicationService_ValidCases(t *testing.T) {
	tests := map[string]struct {
		status   oracle.PublicationStatus
		expected *app.FactPublicationDTO
	}{
		"Unknown fact is queued for publication": {
			status:   oracle.PublicationStatus{Queued: true},
			expected: &app.FactPublicationDTO{FactKey: "TEAMA_TEAMB_01-01-2025", Queued: true},
		},
		"Existing stable fact is reported without publication": {
			status:   oracle.PublicationStatus{Status: oracle.Status{Exists: true, IsStable: true}},
			expected: &app.FactPublicationDTO{FactKey: "TEAMA_TEAMB_01-01-2025", Exists: true, IsStable: true},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			// given:
			payload := map[string]any{"_TEAMA_TEAMB_01-01-2025": "TEAMA"}
			mock := testabilities.NewFactPublicationProviderMock(t, testabilities.FactPublicationProviderMockExpectations{
				RequestFactPublicationCall: true,
				Status:                     tc.status,
				Payload:                    payload,
			})
			service := app.NewFactPublicationService(mock)

			// when:
			dto, err := service.RequestFactPublication(t.Context(), "TEAMA_TEAMB_01-01-2025", payload, "deviceX")

			// then:
			require.NoError(t, err)
			require.Equal(t, tc.expected, dto)
			mock.AssertCalled()
		})
	}
}
