// Package messaging defines the queue contract that carries approval
// lifecycle events to external consumers (UIs, inboxes, webhooks).
package messaging

import (
	"context"
)

// Queue is an abstract message queue for a single payload type.
type Queue[T any] interface {
	// Publish enqueues a payload.
	Publish(ctx context.Context, t *T) error

	// Consume blocks until a message is available or ctx is done.
	Consume(ctx context.Context) (Message[T], error)
}

// Message is a consumed queue entry awaiting acknowledgement.
type Message[T any] interface {
	// T returns the payload.
	T() *T

	// Ack acknowledges successful processing.
	Ack() error

	// Nack reports failed processing; the queue may redeliver.
	Nack(err error) error
}
