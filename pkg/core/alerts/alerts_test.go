package alerts_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/alerts"
	"github.com/stretchr/testify/require"
)

type webhookRecorder struct {
	mu     sync.Mutex
	bodies []map[string]any
	status int
}

func newWebhook(t *testing.T, status int) (*webhookRecorder, string) {
	t.Helper()

	rec := &webhookRecorder{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		rec.mu.Lock()
		rec.bodies = append(rec.bodies, body)
		rec.mu.Unlock()

		w.WriteHeader(rec.status)
	}))
	t.Cleanup(srv.Close)
	return rec, srv.URL
}

func (r *webhookRecorder) Bodies() []map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bodies
}

func TestDeviceNotifier_NotifyFactConfirmed(t *testing.T) {
	tests := map[string]struct {
		status      int
		expectedErr error
	}{
		"webhook accepts the notice": {
			status: http.StatusNoContent,
		},
		"webhook rejects the notice": {
			status:      http.StatusBadGateway,
			expectedErr: alerts.ErrDeliveryFailed,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			// given:
			rec, url := newWebhook(t, tc.status)
			notifier := alerts.NewDeviceNotifier(alerts.Config{DeviceWebhookURL: url})

			// when:
			err := notifier.NotifyFactConfirmed(context.Background(), "TEAMA_TEAMB_01-01-2025", "deviceX")

			// then:
			require.ErrorIs(t, err, tc.expectedErr)
			require.Equal(t, []map[string]any{{
				"requester_id": "deviceX",
				"fact_key":     "TEAMA_TEAMB_01-01-2025",
				"message":      "The data about your fact TEAMA_TEAMB_01-01-2025 is now in the database, you can unlock your contract.",
			}}, rec.Bodies())
		})
	}
}

func TestDeviceNotifier_WithoutWebhookOnlyLogs(t *testing.T) {
	// given:
	notifier := alerts.NewDeviceNotifier(alerts.DefaultConfig())

	// when:
	err := notifier.NotifyFactConfirmed(context.Background(), "TEAMA_TEAMB_01-01-2025", "deviceX")

	// then:
	require.NoError(t, err)
}

func TestOperatorAlerter_NotifyOperator(t *testing.T) {
	// given:
	rec, url := newWebhook(t, http.StatusOK)
	alerter := alerts.NewOperatorAlerter("feed-oracle", alerts.Config{OperatorWebhookURL: url})

	// when:
	alerter.NotifyOperator(context.Background(), "only 3 spendable outputs left, and can't add more")

	// then:
	bodies := rec.Bodies()
	require.Len(t, bodies, 1)
	require.Equal(t, "feed-oracle", bodies[0]["source"])
	require.Equal(t, "only 3 spendable outputs left, and can't add more", bodies[0]["message"])
	require.NotEmpty(t, bodies[0]["sent_at"])
}

func TestOperatorAlerter_DeliveryFailureIsSwallowed(t *testing.T) {
	// given:
	rec, url := newWebhook(t, http.StatusInternalServerError)
	alerter := alerts.NewOperatorAlerter("feed-oracle", alerts.Config{OperatorWebhookURL: url})

	// when:
	alerter.NotifyOperator(context.Background(), "posting data feed failed")

	// then:
	require.Len(t, rec.Bodies(), 1)
}
