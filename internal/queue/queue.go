// Package queue abstracts the work queue feeding the batch consumer.
// Delivery is at-least-once with no ordering guarantee; a received message
// stays invisible to other consumers for the queue's visibility window and
// reappears unless deleted.
package queue

import (
	"context"
	"time"
)

// Message is one received work item. ReceiptHandle is the opaque delivery
// token required to delete this particular delivery.
type Message struct {
	ID            string
	Body          string
	ReceiptHandle string
	ReceivedAt    time.Time
}

// Queue is the capability face-tagger needs from the message queue.
type Queue interface {
	// Send enqueues one payload.
	Send(ctx context.Context, body string) error
	// Receive long-polls for up to maxMessages, waiting at most waitSeconds.
	// Returns an empty slice when the wait elapses with nothing to deliver.
	Receive(ctx context.Context, maxMessages, waitSeconds int) ([]Message, error)
	// Delete acknowledges one delivery. Never called for failed items; the
	// visibility timeout handles redelivery.
	Delete(ctx context.Context, receiptHandle string) error
	// Depth returns the approximate number of visible messages.
	Depth(ctx context.Context) (int, error)
}
