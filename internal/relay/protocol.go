// Package relay fans realtime events out to every connected browser over
// websockets and feeds sensor samples to the alignment monitor.
package relay

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ChamsBouzaiene/skyfinder/internal/geometry"
)

// EventType names a websocket event.
type EventType string

const (
	// client -> server
	EventSensor      EventType = "sensor"
	EventChatMessage EventType = "chat_message"

	// server -> client
	EventSensorUpdate    EventType = "sensor_update"
	EventChatBroadcast   EventType = "chat_broadcast"
	EventAlignmentUpdate EventType = "alignment_update"
)

// ChatRole labels a chat_broadcast line in the UI.
type ChatRole string

const (
	ChatRoleUser   ChatRole = "user"
	ChatRoleBot    ChatRole = "bot"
	ChatRoleSystem ChatRole = "system"
)

// Envelope is the frame every websocket message travels in.
type Envelope struct {
	Event EventType       `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChatMessagePayload is sent by a client to talk to the persona.
type ChatMessagePayload struct {
	Text   string `json:"text"`
	Target string `json:"target,omitempty"`
}

// ChatBroadcastPayload is one chat line shown to every client.
type ChatBroadcastPayload struct {
	Text string   `json:"text"`
	Role ChatRole `json:"role"`
}

// AlignmentPayload announces that a device started or stopped pointing at
// a target.
type AlignmentPayload struct {
	Target  string `json:"target"`
	Aligned bool   `json:"aligned"`
}

// sensorKeys lists, per axis, the accepted field names: the
// DeviceOrientation names first, then the short {a, b, g} form older
// clients send. Their z field is acceleration and plays no part.
var sensorKeys = [3][2]string{
	{"alpha", "a"},
	{"beta", "b"},
	{"gamma", "g"},
}

// DecodeOrientation extracts the device orientation from a sensor payload.
// ok is false when the sample lacks a usable compass angle or forward tilt.
func DecodeOrientation(data json.RawMessage) (geometry.Orientation, bool) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return geometry.Orientation{}, false
	}

	var axes [3]float64
	var found [3]bool
	for i, keys := range sensorKeys {
		for _, k := range keys {
			if v, ok := number(fields[k]); ok {
				axes[i], found[i] = v, true
				break
			}
		}
	}
	if !found[0] || !found[1] {
		return geometry.Orientation{}, false
	}
	return geometry.Orientation{CompassAngle: axes[0], TiltForward: axes[1], TiltSide: axes[2]}, true
}

func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

const envelopeSchemaJSON = `{
	"type": "object",
	"required": ["event"],
	"properties": {
		"event": {"type": "string", "minLength": 1}
	}
}`

// Sensor payloads are forwarded untouched, so only the shape is checked:
// a flat object of scalars.
const sensorSchemaJSON = `{
	"type": "object",
	"additionalProperties": {"type": ["number", "string", "boolean", "null"]}
}`

const chatSchemaJSON = `{
	"type": "object",
	"required": ["text"],
	"properties": {
		"text": {"type": "string", "pattern": "\\S"},
		"target": {"type": "string", "pattern": "(?i)^\\s*(iss|alien)?\\s*$"}
	}
}`

var (
	envelopeSchema = mustSchema(envelopeSchemaJSON)
	payloadSchemas = map[EventType]*gojsonschema.Schema{
		EventSensor:      mustSchema(sensorSchemaJSON),
		EventChatMessage: mustSchema(chatSchemaJSON),
	}
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("relay: invalid schema: %v", err))
	}
	return s
}

// PayloadError is an inbound event that failed structural validation.
type PayloadError struct {
	Event  EventType
	Errors []string
}

func (e *PayloadError) Error() string {
	name := string(e.Event)
	if name == "" {
		name = "envelope"
	}
	return fmt.Sprintf("invalid %s payload: %s", name, strings.Join(e.Errors, "; "))
}

// DecodeEnvelope parses and validates an inbound frame. Unknown events are
// rejected; the payload of known events is checked against its schema.
func DecodeEnvelope(data []byte) (Envelope, error) {
	if err := validate(envelopeSchema, "", data); err != nil {
		return Envelope{}, err
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}

	schema, ok := payloadSchemas[env.Event]
	if !ok {
		return Envelope{}, &PayloadError{Event: env.Event, Errors: []string{"unknown event"}}
	}
	if len(env.Data) == 0 {
		return Envelope{}, &PayloadError{Event: env.Event, Errors: []string{"data is required"}}
	}
	if err := validate(schema, env.Event, env.Data); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func validate(schema *gojsonschema.Schema, event EventType, data []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return &PayloadError{Event: event, Errors: []string{err.Error()}}
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return &PayloadError{Event: event, Errors: msgs}
	}
	return nil
}

// Encode builds an outbound frame.
func Encode(event EventType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return EncodeRaw(event, data)
}

// EncodeRaw wraps an already-encoded payload without touching its bytes.
func EncodeRaw(event EventType, data json.RawMessage) ([]byte, error) {
	name, err := json.Marshal(string(event))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(name)+len(data)+20)
	out = append(out, `{"event":`...)
	out = append(out, name...)
	out = append(out, `,"data":`...)
	out = append(out, data...)
	out = append(out, '}')
	return out, nil
}
