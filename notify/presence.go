// Package notify provides the process-wide server-presence flag and
// desktop notification delivery.
// This file contains the ServerPresence observable: a single boolean,
// mutated only by the persistence collaborator, with synchronous
// subscriber callbacks.
package notify

import (
	"sync"

	"github.com/google/uuid"
)

// Handle identifies one subscription for later removal.
type Handle string

// ServerPresence signals whether any server has been added. Mutations
// come only from the persistence collaborator; everything else
// subscribes and reads.
type ServerPresence struct {
	mu         sync.Mutex
	hasServers bool
	order      []Handle
	callbacks  map[Handle]func(bool)
}

// NewServerPresence creates a presence flag with no subscribers.
func NewServerPresence() *ServerPresence {
	return &ServerPresence{
		callbacks: make(map[Handle]func(bool)),
	}
}

// HasServers returns the current flag value.
func (p *ServerPresence) HasServers() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hasServers
}

// SetHasServers mutates the flag and synchronously invokes every
// registered subscriber with the new value, in subscription order.
// Each mutation fires at most once per subscriber; there is no queuing
// or debouncing.
func (p *ServerPresence) SetHasServers(value bool) {
	p.mu.Lock()
	p.hasServers = value
	listeners := make([]func(bool), 0, len(p.order))
	for _, h := range p.order {
		if cb, ok := p.callbacks[h]; ok {
			listeners = append(listeners, cb)
		}
	}
	p.mu.Unlock()

	for _, cb := range listeners {
		cb(value)
	}
}

// Subscribe registers a callback for flag mutations and returns a
// handle for Unsubscribe.
func (p *ServerPresence) Subscribe(callback func(bool)) Handle {
	h := Handle(uuid.NewString())
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = append(p.order, h)
	p.callbacks[h] = callback
	return h
}

// Unsubscribe removes a subscription. Unknown handles are ignored.
func (p *ServerPresence) Unsubscribe(h Handle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.callbacks, h)
	for i, existing := range p.order {
		if existing == h {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}
