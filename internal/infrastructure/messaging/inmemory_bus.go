package messaging

import (
	"context"
	"fmt"
	"sync"
)

// InMemoryBus implements MessageBus with synchronous in-process dispatch.
// Suitable for single-node deployments and tests; Publish calls every
// subscribed handler before returning.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	seq      int64
}

var _ MessageBus = (*InMemoryBus)(nil)

// NewInMemoryBus creates a new in-memory bus
func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{handlers: make(map[string][]Handler)}
}

// Publish dispatches the payload synchronously to every handler subscribed
// to the stream
func (b *InMemoryBus) Publish(ctx context.Context, stream string, payload []byte) error {
	b.mu.Lock()
	b.seq++
	id := fmt.Sprintf("%d-0", b.seq)
	handlers := append([]Handler(nil), b.handlers[stream]...)
	b.mu.Unlock()

	for _, handler := range handlers {
		// handler errors are the handler's problem, matching the redis
		// bus's ack-regardless contract
		_ = handler(ctx, Message{ID: id, Stream: stream, Payload: payload})
	}
	return nil
}

// Subscribe registers a handler for a stream and returns immediately
func (b *InMemoryBus) Subscribe(_ context.Context, stream string, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[stream] = append(b.handlers[stream], handler)
	return nil
}

// Close is a no-op
func (b *InMemoryBus) Close() error {
	return nil
}
