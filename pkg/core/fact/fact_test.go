package fact_test

import (
	"testing"
	"time"

	"github.com/4chain-ag/go-feed-oracle/pkg/core/fact"
	"github.com/stretchr/testify/require"
)

func TestKey_Validate(t *testing.T) {
	tests := map[string]struct {
		key         fact.Key
		expectedErr error
	}{
		"valid key":      {key: "TEAMA_TEAMB_01-01-2025"},
		"empty key":      {key: "", expectedErr: fact.ErrMalformedFact},
		"whitespace key": {key: "  \t", expectedErr: fact.ErrMalformedFact},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			// when:
			err := tc.key.Validate()

			// then:
			require.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestNewMatchKey(t *testing.T) {
	date := time.Date(2025, time.January, 1, 20, 45, 0, 0, time.UTC)

	tests := map[string]struct {
		home, away  string
		expectedKey fact.Key
		expectedErr error
	}{
		"abbreviations and spaces are stripped": {
			home:        "Manchester City FC",
			away:        "West Bromwich Albion",
			expectedKey: "_MANCHESTERCITY_WESTBROMWICHALBION_01-01-2025",
		},
		"case is normalized": {
			home:        "as roma",
			away:        "Rc Lens",
			expectedKey: "_ROMA_LENS_01-01-2025",
		},
		"missing away team": {
			home:        "Chelsea",
			away:        " FC ",
			expectedErr: fact.ErrMalformedFact,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			// when:
			key, err := fact.NewMatchKey(tc.home, tc.away, date)

			// then:
			require.ErrorIs(t, err, tc.expectedErr)
			require.Equal(t, tc.expectedKey, key)
		})
	}
}

func TestWaiters_DeduplicatesAndKeepsOrder(t *testing.T) {
	// given:
	w := fact.NewWaiters("r1", "r2", "r1")

	// when:
	w.Add("r3", "", "r2")
	w.Merge(fact.NewWaiters("r4", "r1"))

	// then:
	require.Equal(t, []string{"r1", "r2", "r3", "r4"}, w.IDs())
	require.Equal(t, 4, w.Len())
}

func TestNewDataFeedMessage(t *testing.T) {
	// given:
	payload := fact.Payload{"_TEAMA_TEAMB_01-01-2025": "TEAMA"}

	// when:
	msg, err := fact.NewDataFeedMessage(payload)

	// then:
	require.NoError(t, err)
	require.Equal(t, fact.AppDataFeed, msg.App)
	require.Equal(t, fact.PayloadLocationInline, msg.PayloadLocation)
	require.Equal(t, payload, msg.Payload)

	ok, err := msg.Verify()
	require.NoError(t, err)
	require.True(t, ok)

	// and when the payload is tampered with:
	msg.Payload = fact.Payload{"_TEAMA_TEAMB_01-01-2025": "TEAMB"}
	ok, err = msg.Verify()

	// then:
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNewDataFeedMessage_EmptyPayload(t *testing.T) {
	// when:
	_, err := fact.NewDataFeedMessage(fact.Payload{})

	// then:
	require.ErrorIs(t, err, fact.ErrMalformedFact)
}

func TestPayload_WithTimestamp(t *testing.T) {
	// given:
	payload := fact.Payload{"feed": "value"}
	now := time.UnixMilli(1735689600000)

	// when:
	stamped := payload.WithTimestamp(now)

	// then:
	require.Equal(t, int64(1735689600000), stamped[fact.TimestampField])
	require.NotContains(t, payload, fact.TimestampField)
}
