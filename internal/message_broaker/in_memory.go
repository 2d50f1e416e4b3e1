package message_broaker

import (
	"context"
	"errors"
	"sync"
)

// InMemory is a process-local broker with one buffered channel per queue.
type InMemory struct {
	mu     sync.Mutex
	queues map[string]chan []byte
	closed bool
	size   int
}

func NewInMemory(bufferSize int) *InMemory {
	if bufferSize < 1 {
		bufferSize = 1000
	}
	return &InMemory{queues: make(map[string]chan []byte), size: bufferSize}
}

func (b *InMemory) Publish(ctx context.Context, queue string, message []byte) error {
	ch, err := b.queue(queue)
	if err != nil {
		return err
	}
	msg := append([]byte(nil), message...)
	select {
	case ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *InMemory) Consume(ctx context.Context, queue string) (<-chan []byte, error) {
	ch, err := b.queue(queue)
	if err != nil {
		return nil, err
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		for {
			select {
			case msg := <-ch:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (b *InMemory) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *InMemory) queue(name string) (chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errors.New("broker closed")
	}
	ch, ok := b.queues[name]
	if !ok {
		ch = make(chan []byte, b.size)
		b.queues[name] = ch
	}
	return ch, nil
}
