// Package memory provides a channel-backed queue used for approval event
// fan-out inside a single process.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stewardai/steward/internal/clock"
	"github.com/stewardai/steward/internal/idgen"
	"github.com/stewardai/steward/service/messaging"
)

// Config tunes redelivery and buffering of the in-memory queue.
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	DeadLetter  bool
	QueueBuffer int
}

// DefaultConfig returns the standard queue configuration.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		RetryDelay:  100 * time.Millisecond,
		DeadLetter:  true,
		QueueBuffer: 100,
	}
}

// Message is an in-flight queue entry. A message settles exactly once, via
// Ack or Nack.
type Message[T any] struct {
	id        string
	payload   T
	owner     *Queue[T]
	attempt   int
	mu        sync.Mutex
	settled   bool
	createdAt time.Time
}

// T returns the message payload.
func (m *Message[T]) T() *T {
	return &m.payload
}

// Ack marks the message as processed.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled {
		return fmt.Errorf("message %v already settled", m.id)
	}
	m.settled = true
	return nil
}

// Nack reports failed processing. The message is redelivered after
// RetryDelay until MaxRetries is exhausted, then parked on the dead letter
// list when enabled.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled {
		return fmt.Errorf("message %v already settled", m.id)
	}
	m.settled = true
	m.attempt++

	if m.attempt <= m.owner.config.MaxRetries {
		go m.owner.redeliver(m)
		return nil
	}
	if m.owner.config.DeadLetter {
		m.owner.park(m)
	}
	return nil
}

// Queue is a channel-backed messaging.Queue implementation.
type Queue[T any] struct {
	pending chan *Message[T]
	config  Config

	deadMu sync.Mutex
	dead   []*Message[T]
}

// NewQueue creates an in-memory queue.
func NewQueue[T any](config Config) *Queue[T] {
	if config.QueueBuffer <= 0 {
		config.QueueBuffer = DefaultConfig().QueueBuffer
	}
	return &Queue[T]{
		pending: make(chan *Message[T], config.QueueBuffer),
		config:  config,
	}
}

// Publish enqueues a payload; it blocks only when the buffer is full.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	message := &Message[T]{
		id:        idgen.New(),
		payload:   *t,
		owner:     q,
		createdAt: clock.Now(),
	}
	select {
	case q.pending <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume blocks until a message is available or ctx is done.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	select {
	case message := <-q.pending:
		return message, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Size returns the number of buffered messages.
func (q *Queue[T]) Size() int {
	return len(q.pending)
}

// DLQSize returns the number of dead-lettered messages.
func (q *Queue[T]) DLQSize() int {
	q.deadMu.Lock()
	defer q.deadMu.Unlock()
	return len(q.dead)
}

func (q *Queue[T]) redeliver(m *Message[T]) {
	time.Sleep(q.config.RetryDelay)
	q.pending <- &Message[T]{
		id:        m.id,
		payload:   m.payload,
		owner:     q,
		attempt:   m.attempt,
		createdAt: clock.Now(),
	}
}

func (q *Queue[T]) park(m *Message[T]) {
	q.deadMu.Lock()
	q.dead = append(q.dead, m)
	q.deadMu.Unlock()
}

var _ messaging.Queue[any] = (*Queue[any])(nil)
