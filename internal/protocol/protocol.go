package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

const maxPayloadSize = 1 * 1024 * 1024 // 1MB max frame size

// Envelope is the wire form of every message: an event name plus a
// structured payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode marshals an event name and payload into a JSON envelope.
func Encode(event string, data any) ([]byte, error) {
	if event == "" {
		return nil, errors.New("empty event name")
	}

	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal payload for %q: %w", event, err)
		}
		raw = b
	}

	out, err := json.Marshal(Envelope{Event: event, Data: raw})
	if err != nil {
		return nil, err
	}
	if len(out) > maxPayloadSize {
		return nil, fmt.Errorf("frame size %d exceeds maximum %d bytes", len(out), maxPayloadSize)
	}
	return out, nil
}

// Decode parses a JSON envelope and returns the event name and the raw
// payload. The payload is returned undecoded so each handler can apply its
// own shape validation.
func Decode(data []byte) (string, json.RawMessage, error) {
	if len(data) > maxPayloadSize {
		return "", nil, fmt.Errorf("frame size %d exceeds maximum %d bytes", len(data), maxPayloadSize)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("malformed envelope: %w", err)
	}
	if env.Event == "" {
		return "", nil, errors.New("envelope missing event name")
	}
	return env.Event, env.Data, nil
}
