package relay

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChamsBouzaiene/skyfinder/internal/engine"
	"github.com/ChamsBouzaiene/skyfinder/internal/geometry"
)

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope([]byte(`{"event":"chat_message","data":{"text":"hello","target":"alien"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventChatMessage, env.Event)

	var p ChatMessagePayload
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "hello", p.Text)
	assert.Equal(t, "alien", p.Target)
}

func TestDecodeEnvelopeTargetAnyCase(t *testing.T) {
	for _, raw := range []string{"Iss", "iSS", "Alien", " alien ", ""} {
		env, err := DecodeEnvelope([]byte(`{"event":"chat_message","data":{"text":"hi","target":"` + raw + `"}}`))
		require.NoError(t, err, raw)

		var p ChatMessagePayload
		require.NoError(t, json.Unmarshal(env.Data, &p))
		if raw == "" {
			continue
		}
		_, err = engine.ParseTarget(p.Target)
		assert.NoError(t, err, raw)
	}
}

func TestDecodeEnvelopeRejects(t *testing.T) {
	cases := map[string]string{
		"not json":       `garbage`,
		"no event":       `{"data":{}}`,
		"unknown event":  `{"event":"teleport","data":{}}`,
		"missing data":   `{"event":"sensor"}`,
		"nested sensor":  `{"event":"sensor","data":{"alpha":{"x":1}}}`,
		"sensor array":   `{"event":"sensor","data":[1,2,3]}`,
		"blank text":     `{"event":"chat_message","data":{"text":"   "}}`,
		"missing text":   `{"event":"chat_message","data":{"target":"iss"}}`,
		"unknown target": `{"event":"chat_message","data":{"text":"hi","target":"mars"}}`,
		"target prefix":  `{"event":"chat_message","data":{"text":"hi","target":"issx"}}`,
	}
	for name, frame := range cases {
		_, err := DecodeEnvelope([]byte(frame))
		assert.Error(t, err, name)
	}

	_, err := DecodeEnvelope([]byte(`{"event":"teleport","data":{}}`))
	var perr *PayloadError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, EventType("teleport"), perr.Event)
	assert.Contains(t, perr.Error(), "unknown event")
}

func TestDecodeOrientation(t *testing.T) {
	o, ok := DecodeOrientation(json.RawMessage(`{"alpha":370,"beta":45,"gamma":-3}`))
	require.True(t, ok)
	assert.Equal(t, geometry.Orientation{CompassAngle: 370, TiltForward: 45, TiltSide: -3}, o)
	assert.InDelta(t, 10, o.Angles().Alpha, 1e-9)

	o, ok = DecodeOrientation(json.RawMessage(`{"a":"180.5","b":"12","g":0,"z":9.8}`))
	require.True(t, ok)
	assert.Equal(t, 180.5, o.CompassAngle)
	assert.Equal(t, 12.0, o.TiltForward)

	_, ok = DecodeOrientation(json.RawMessage(`{"z":9.8}`))
	assert.False(t, ok)

	_, ok = DecodeOrientation(json.RawMessage(`{"alpha":"north","beta":1}`))
	assert.False(t, ok)
}

func TestEncodeRawKeepsPayloadBytes(t *testing.T) {
	payload := json.RawMessage(`{ "alpha" : 1.50, "custom":"x" }`)
	msg, err := EncodeRaw(EventSensorUpdate, payload)
	require.NoError(t, err)
	assert.Equal(t, `{"event":"sensor_update","data":{ "alpha" : 1.50, "custom":"x" }}`, string(msg))

	msg, err = Encode(EventChatBroadcast, ChatBroadcastPayload{Text: "hi", Role: ChatRoleBot})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"chat_broadcast","data":{"text":"hi","role":"bot"}}`, string(msg))
}
