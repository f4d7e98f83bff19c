package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeChatEnvelope(t *testing.T) {
	raw := []byte(`{"msg_type":"text","message":"hi there","username":"alice"}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)

	assert.Equal(t, KindText, env.MsgType)
	assert.Equal(t, "hi there", env.Message)
	assert.Equal(t, "alice", env.Username)
	assert.Empty(t, env.MediaURL)
	assert.Empty(t, env.Extra)
	assert.False(t, env.Signal())
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	for _, raw := range [][]byte{
		[]byte(`not json`),
		[]byte(`[1,2,3]`),
		[]byte(`"just a string"`),
		[]byte(``),
	} {
		_, err := DecodeEnvelope(raw)
		require.ErrorIs(t, err, ErrMalformedPayload, "input %q", raw)
	}
}

func TestDecodeRejectsMissingType(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"message":"hi","username":"alice"}`))
	require.ErrorIs(t, err, ErrMissingType)
}

func TestDecodeRejectsNonStringKnownField(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"msg_type":"text","message":42}`))
	require.ErrorIs(t, err, ErrMalformedPayload)

	_, err = DecodeEnvelope([]byte(`{"msg_type":123}`))
	require.ErrorIs(t, err, ErrMalformedPayload)
}

func TestDecodeSignalingLeavesChatKeysOpaque(t *testing.T) {
	// Signaling payloads may reuse chat field names with arbitrary
	// shapes; only the discriminator is interpreted.
	raw := []byte(`{"msg_type":"rtc_offer","message":{"nested":true},"username":42}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)

	assert.True(t, env.Signal())
	assert.Empty(t, env.Message)
	assert.Empty(t, env.Username)
	assert.JSONEq(t, `{"nested":true}`, string(env.Extra["message"]))
	assert.JSONEq(t, `42`, string(env.Extra["username"]))
}

func TestDecodePreservesUnknownFields(t *testing.T) {
	raw := []byte(`{"msg_type":"rtc_offer","username":"bob","sdp":{"type":"offer","v":1},"target":"alice"}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)

	assert.True(t, env.Signal())
	require.Contains(t, env.Extra, "sdp")
	require.Contains(t, env.Extra, "target")
	assert.JSONEq(t, `{"type":"offer","v":1}`, string(env.Extra["sdp"]))
}

func TestEncodeRoundTripsSignalingFields(t *testing.T) {
	raw := []byte(`{"msg_type":"rtc_candidate","candidate":{"sdpMid":"0","foo":[1,2]},"username":"bob"}`)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)

	out, err := env.Encode()
	require.NoError(t, err)

	again, err := DecodeEnvelope(out)
	require.NoError(t, err)

	assert.Equal(t, env.MsgType, again.MsgType)
	assert.Equal(t, env.Username, again.Username)
	// Opaque payload bytes survive the round trip untouched.
	assert.Equal(t, string(env.Extra["candidate"]), string(again.Extra["candidate"]))
}

func TestEncodeChatCarriesAllChatFields(t *testing.T) {
	env := &Envelope{
		MsgType:   KindMedia,
		Username:  "alice",
		MediaURL:  "/media/uploads/x.png",
		Timestamp: "Today, 10:00:00",
	}

	out, err := env.Encode()
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &fields))

	for _, key := range []string{"msg_type", "message", "username", "media_url", "timestamp"} {
		assert.Contains(t, fields, key)
	}
}

func TestIsSignalKind(t *testing.T) {
	assert.True(t, IsSignalKind(KindRTCOffer))
	assert.True(t, IsSignalKind(KindRTCAnswer))
	assert.True(t, IsSignalKind(KindRTCCandidate))
	assert.False(t, IsSignalKind(KindText))
	assert.False(t, IsSignalKind(KindMedia))
	assert.False(t, IsSignalKind("rtc_offer2"))
}
