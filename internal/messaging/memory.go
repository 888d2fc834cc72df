package messaging

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// MemoryBus delivers changes to every consumer of the same process. It is
// used when no Service Bus is configured.
type MemoryBus struct {
	mu        sync.RWMutex
	consumers map[int]chan Change
	nextID    int
	buffer    int
}

// NewMemoryBus creates an in-process bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{consumers: make(map[int]chan Change), buffer: 64}
}

// Publish fans the change out to all consumers. A consumer whose buffer is
// full misses the change.
func (b *MemoryBus) Publish(_ context.Context, change Change) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.consumers {
		select {
		case ch <- change:
		default:
			log.Warn().Int("consumer", id).Str("change", change.ID).Msg("Change notification dropped, consumer is behind")
		}
	}
	return nil
}

// Consume runs handler for every published change until ctx is done.
func (b *MemoryBus) Consume(ctx context.Context, handler Handler) error {
	ch := make(chan Change, b.buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.consumers[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.consumers, id)
		b.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-ch:
			if err := handler(ctx, change); err != nil {
				log.Error().Err(err).Str("change", change.ID).Msg("Error processing change notification")
			}
		}
	}
}

// Consumers returns the number of active consumers
func (b *MemoryBus) Consumers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.consumers)
}

// Close is a no-op
func (b *MemoryBus) Close() error {
	return nil
}
