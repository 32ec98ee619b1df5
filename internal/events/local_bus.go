package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const localBufferSize = 64

// LocalBus is the in-process Publisher/Subscriber used when Redis is
// disabled. A slow subscriber loses events rather than blocking publishers.
type LocalBus struct {
	mu   sync.RWMutex
	subs map[string][]chan Event
	log  *zap.Logger
}

func NewLocalBus(log *zap.Logger) *LocalBus {
	return &LocalBus{subs: make(map[string][]chan Event), log: log}
}

func (b *LocalBus) Publish(_ context.Context, stream string, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[stream] {
		select {
		case ch <- event:
		default:
			b.log.Warn("local bus subscriber full, event dropped",
				zap.String("stream", stream),
				zap.String("type", event.Type),
			)
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context, stream string, handler func(Event)) error {
	ch := make(chan Event, localBufferSize)

	b.mu.Lock()
	b.subs[stream] = append(b.subs[stream], ch)
	b.mu.Unlock()

	go func() {
		defer b.unsubscribe(stream, ch)
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-ch:
				handler(event)
			}
		}
	}()

	return nil
}

func (b *LocalBus) unsubscribe(stream string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[stream]
	for i, c := range subs {
		if c == ch {
			b.subs[stream] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
}
