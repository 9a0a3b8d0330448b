package test

import (
	"context"
	"errors"
	"reflect"
	"sync"

	"docshelf/event-pipeline/event"
)

type mockDispatcher struct {
	sync.RWMutex
	dispatched []event.Envelope
	errors     map[string]error
	failTimes  map[string]int
	failures   map[string]int
}

func NewMockDispatcher() *mockDispatcher {
	return &mockDispatcher{
		dispatched: []event.Envelope{},
		errors:     map[string]error{},
		failTimes:  map[string]int{},
		failures:   map[string]int{},
	}
}

func (d *mockDispatcher) Dispatch(ctx context.Context, env event.Envelope) error {
	d.Lock()
	defer d.Unlock()

	if n, ok := d.failTimes[env.Type]; ok && n > 0 {
		d.failTimes[env.Type] = n - 1
		d.failures[env.Type]++
		return errors.New("transient failure")
	}

	if err, ok := d.errors[env.Type]; ok {
		d.failures[env.Type]++
		return err
	}

	d.dispatched = append(d.dispatched, env)

	return nil
}

func (d *mockDispatcher) EnvelopeWasDispatched(exp event.Envelope) bool {
	d.RLock()
	defer d.RUnlock()
	for _, env := range d.dispatched {
		if reflect.DeepEqual(env, exp) {
			return true
		}
	}

	return false
}

func (d *mockDispatcher) ErrorForType(name string) {
	d.Lock()
	defer d.Unlock()
	d.errors[name] = errors.New("foo")
}

// ErrorForTypeTimes fails the first n dispatches for the type and then lets
// them succeed, simulating a transient downstream failure.
func (d *mockDispatcher) ErrorForTypeTimes(name string, n int) {
	d.Lock()
	defer d.Unlock()
	d.failTimes[name] = n
}

func (d *mockDispatcher) FailureCount(name string) int {
	d.RLock()
	defer d.RUnlock()
	return d.failures[name]
}
