package broker

import (
	"context"
	"sync"
)

// Broker fans settings and other panel-wide notifications out to every
// subscriber, locally or across daemon instances.
type Broker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string, handler func(payload []byte)) error
	Close() error
}

type MemoryBroker struct {
	mu       sync.RWMutex
	handlers map[string][]*subscription
}

type subscription struct {
	fn func([]byte)
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{handlers: make(map[string][]*subscription)}
}

func (b *MemoryBroker) Publish(_ context.Context, topic string, payload []byte) error {
	b.mu.RLock()
	subs := append([]*subscription(nil), b.handlers[topic]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(append([]byte(nil), payload...))
	}
	return nil
}

// Subscribe registers handler until ctx is cancelled.
func (b *MemoryBroker) Subscribe(ctx context.Context, topic string, handler func([]byte)) error {
	sub := &subscription{fn: handler}

	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], sub)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.handlers[topic]
		for i, s := range list {
			if s == sub {
				b.handlers[topic] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}()
	return nil
}

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	b.handlers = make(map[string][]*subscription)
	b.mu.Unlock()
	return nil
}
