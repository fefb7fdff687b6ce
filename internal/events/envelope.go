// Package events defines the wire protocol: the {event, data} envelope, the
// client and server event catalogs, and the typed payload structs for every
// message the router understands.
package events

import (
	"encoding/json"
	"fmt"
)

// Envelope is the framing for every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Decode parses a raw frame into an Envelope.
//
// Postcondition: Returns an error for malformed JSON or an empty event name.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decoding frame: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("frame has no event name")
	}
	return env, nil
}

// Encode marshals an event and payload into a wire frame.
func Encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", event, err)
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encoding %s frame: %w", event, err)
	}
	return frame, nil
}

// Stamp carries the server timestamp every outbound event must include.
// Server payload structs embed it; the emit path fills it in.
type Stamp struct {
	Timestamp int64 `json:"timestamp"`
}

// SetTimestamp records the emit time in ms since epoch.
func (s *Stamp) SetTimestamp(ms int64) { s.Timestamp = ms }

// Stamped is implemented by all server payloads via the embedded Stamp.
type Stamped interface {
	SetTimestamp(ms int64)
}

// StampRaw injects a timestamp field into a raw JSON object payload. Used for
// pass-through events whose bodies the server does not model.
//
// Postcondition: Returns an error when raw is not a JSON object.
func StampRaw(raw json.RawMessage, ms int64) (json.RawMessage, error) {
	var body map[string]any
	if len(raw) == 0 {
		body = make(map[string]any)
	} else if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("stamping payload: %w", err)
	}
	if body == nil {
		body = make(map[string]any)
	}
	body["timestamp"] = ms
	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("stamping payload: %w", err)
	}
	return out, nil
}
