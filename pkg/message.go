package pkg

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mtaylor91/bingo-server/pkg/game"
)

// MaxMessageLength bounds inbound frames. The largest legitimate request is a
// join with a long display name.
const MaxMessageLength = 4096

const malformedMessage = "Malformed message."

// Message is the envelope for every frame in both directions.
type Message struct {
	Event game.EventType  `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func decodeMessage(message []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(message, &m); err != nil {
		return nil, fmt.Errorf("failed to decode envelope: %w", err)
	}

	if m.Event == "" {
		return nil, errors.New("message has no event")
	}

	return &m, nil
}

func (m *Message) decodePayload(v any) error {
	if len(m.Data) == 0 || string(m.Data) == "null" {
		return fmt.Errorf("event %q has no payload", m.Event)
	}

	if err := json.Unmarshal(m.Data, v); err != nil {
		return fmt.Errorf("failed to decode %q payload: %w", m.Event, err)
	}

	return nil
}

func encodeMessage(event game.EventType, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %q payload: %w", event, err)
	}

	return json.Marshal(Message{
		Event: event,
		Data:  data,
	})
}
