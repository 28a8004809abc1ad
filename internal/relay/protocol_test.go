package relay_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/relay/internal/domain"
	"github.com/nfrund/relay/internal/relay"
)

func TestEncode(t *testing.T) {
	t.Run("message envelope", func(t *testing.T) {
		raw, err := relay.Encode(relay.EventMessage, domain.ChatMessage{
			UserID: "u1",
			From:   domain.FromUser,
			Text:   "hello",
			At:     1724800000000,
		})
		require.NoError(t, err)
		assert.JSONEq(t,
			`{"event":"message","data":{"userId":"u1","from":"user","text":"hello","at":1724800000000}}`,
			string(raw))
	})

	t.Run("auth error carries a bare reason string", func(t *testing.T) {
		raw, err := relay.Encode(relay.EventAuthError, domain.ErrInvalidToken.Error())
		require.NoError(t, err)
		assert.JSONEq(t, `{"event":"auth:error","data":"invalid_token"}`, string(raw))
	})

	t.Run("wire field names are camelCase", func(t *testing.T) {
		raw, err := relay.Encode(relay.EventHistoryGet, relay.HistoryGetPayload{UserID: "u7"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"event":"history:get","data":{"userId":"u7"}}`, string(raw))
	})
}

func TestEnvelopeDecoding(t *testing.T) {
	var env relay.Envelope
	require.NoError(t, json.Unmarshal([]byte(`{"event":"auth","data":{"token":"t"}}`), &env))
	assert.Equal(t, relay.EventAuth, env.Event)

	var payload relay.AuthPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "t", payload.Token)
}
