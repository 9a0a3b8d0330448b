package event

import (
	"context"
	"encoding/json"
)

// Event is the contract shared by everything travelling through the pipeline.
// Key returns the partition/ordering key for the event, or an empty string when
// the event has no ordering requirement. The key is carried only as the broker
// message key and must never be written into the serialized body, so any
// dedicated key field on an implementation should be tagged `json:"-"`.
type Event interface {
	EventType() string
	Key() string
}

// Handler processes a batch of one or more decoded events. All events in a
// single call share the same resolved type. Handlers must tolerate being
// invoked more than once for the same logical event.
type Handler interface {
	Handle(ctx context.Context, events []Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, events []Event) error

func (fn HandlerFunc) Handle(ctx context.Context, events []Event) error {
	return fn(ctx, events)
}

// Envelope is the keyed message contract used at the pipeline boundaries: the
// type tag resolves the payload schema and its handler, the payload is the
// JSON body, and the key is the broker partition key ("" means none).
type Envelope struct {
	Type    string
	Payload []byte
	Key     string
}

func NewEnvelope(e Event) (Envelope, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		Type:    e.EventType(),
		Payload: body,
		Key:     e.Key(),
	}, nil
}
