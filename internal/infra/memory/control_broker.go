package memory

import (
	"context"
	"sync"

	"quizrush/internal/domain"
)

// ControlBroker is an in-process live control channel. Every subscriber gets
// every event; a subscriber that falls behind loses its oldest queued event.
type ControlBroker struct {
	mu          sync.Mutex
	subscribers map[chan domain.ControlEvent]struct{}
}

func NewControlBroker() *ControlBroker {
	return &ControlBroker{subscribers: make(map[chan domain.ControlEvent]struct{})}
}

func (b *ControlBroker) Publish(_ context.Context, event domain.ControlEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
	return nil
}

func (b *ControlBroker) Subscribe(ctx context.Context) (<-chan domain.ControlEvent, func(), error) {
	ch := make(chan domain.ControlEvent, 16)
	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	done := make(chan struct{})
	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			delete(b.subscribers, ch)
			close(ch)
			b.mu.Unlock()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return ch, cancel, nil
}

// Subscribers returns the number of live subscriptions.
func (b *ControlBroker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
