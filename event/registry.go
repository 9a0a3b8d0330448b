package event

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownEventType means the type tag does not resolve to a registered
	// payload schema.
	ErrUnknownEventType = errors.New("event: unknown event type")
	// ErrNoHandler means the type is known but no handler has been bound to it.
	ErrNoHandler = errors.New("event: no handler bound for event type")
)

// DecodeFunc turns a serialized payload into a concrete event.
type DecodeFunc func(payload []byte) (Event, error)

// Registry maps a stable string tag to a decode closure and a handler. It is
// built once at startup and then only read, so it needs no locking; the outbox
// processor and the consumer handling loop share one mapping of
// "event type -> action" across processes.
type Registry struct {
	decoders map[string]DecodeFunc
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{
		decoders: map[string]DecodeFunc{},
		handlers: map[string]Handler{},
	}
}

// RegisterType installs the decode closure for the given type tag.
func (r *Registry) RegisterType(name string, decode DecodeFunc) {
	r.decoders[name] = decode
}

// Bind attaches a handler to a previously registered type tag.
func (r *Registry) Bind(name string, h Handler) error {
	if _, ok := r.decoders[name]; !ok {
		return errors.Wrap(ErrUnknownEventType, name)
	}

	r.handlers[name] = h

	return nil
}

// Decode resolves the type tag and decodes the payload into a concrete event.
func (r *Registry) Decode(name string, payload []byte) (Event, error) {
	decode, ok := r.decoders[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownEventType, name)
	}

	return decode(payload)
}

// Handler returns the handler bound to the type tag. It distinguishes an
// unknown type from a known type with no consumer.
func (r *Registry) Handler(name string) (Handler, error) {
	if _, ok := r.decoders[name]; !ok {
		return nil, errors.Wrap(ErrUnknownEventType, name)
	}

	h, ok := r.handlers[name]
	if !ok {
		return nil, errors.Wrap(ErrNoHandler, name)
	}

	return h, nil
}

// Dispatch resolves, decodes and hands a single envelope to its handler.
func (r *Registry) Dispatch(ctx context.Context, env Envelope) error {
	e, err := r.Decode(env.Type, env.Payload)
	if err != nil {
		return err
	}

	h, err := r.Handler(env.Type)
	if err != nil {
		return err
	}

	return h.Handle(ctx, []Event{e})
}

// Register installs a JSON decode closure for T along with a typed handler in
// one step, avoiding any reflection at dispatch time.
func Register[T Event](r *Registry, handle func(ctx context.Context, events []T) error) error {
	var zero T
	name := zero.EventType()

	r.RegisterType(name, func(payload []byte) (Event, error) {
		var e T
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, errors.Wrapf(err, "event: unable to decode %s payload", name)
		}
		return e, nil
	})

	if handle == nil {
		return nil
	}

	return r.Bind(name, HandlerFunc(func(ctx context.Context, events []Event) error {
		typed := make([]T, 0, len(events))
		for _, e := range events {
			te, ok := e.(T)
			if !ok {
				return errors.Wrapf(ErrUnknownEventType, "expected %s", name)
			}
			typed = append(typed, te)
		}
		return handle(ctx, typed)
	}))
}
