package batch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kozaktomas/face-tagger/internal/config"
	"github.com/kozaktomas/face-tagger/internal/pipeline"
	"github.com/kozaktomas/face-tagger/internal/queue"
	"github.com/kozaktomas/face-tagger/internal/storage"
)

// ConsumerStats counts item outcomes across the lifetime of a consumer.
type ConsumerStats struct {
	mu        sync.Mutex
	Processed int
	Skipped   int
	Failed    int
}

func (s *ConsumerStats) add(field *int) {
	s.mu.Lock()
	*field++
	s.mu.Unlock()
}

// Snapshot returns a copy of the counters.
func (s *ConsumerStats) Snapshot() (processed, skipped, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Processed, s.Skipped, s.Failed
}

// ConsumerOptions controls one consumer run.
type ConsumerOptions struct {
	// Drain exits once the queue reports zero visible messages instead of
	// polling forever.
	Drain bool
}

// Consumer long-polls the work queue and runs each item through the
// pipeline. Multiple consumers may poll the same queue; the queue's
// visibility window, not application locking, prevents duplicate concurrent
// ownership of one item.
type Consumer struct {
	queue    queue.Queue
	pipeline *pipeline.Pipeline
	store    storage.ObjectStore
	queueCfg config.QueueConfig
	itemWait time.Duration

	Stats ConsumerStats
}

// NewConsumer creates a consumer.
func NewConsumer(q queue.Queue, p *pipeline.Pipeline, store storage.ObjectStore, cfg *config.Config) *Consumer {
	return &Consumer{
		queue:    q,
		pipeline: p,
		store:    store,
		queueCfg: cfg.Queue,
		itemWait: cfg.Worker.ItemTimeout,
	}
}

// Run polls until the context is cancelled (or the queue drains, with
// Drain). Cancellation stops accepting new items; items already received
// keep processing on a detached context so they end up either deleted or
// cleanly left for redelivery, never half-done and lost.
func (c *Consumer) Run(ctx context.Context, opts ConsumerOptions) error {
	// In-flight work must survive cancellation.
	workCtx := context.WithoutCancel(ctx)

	for {
		if ctx.Err() != nil {
			return nil
		}

		messages, err := c.queue.Receive(ctx, c.queueCfg.MaxMessages, c.queueCfg.WaitSeconds)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Error("could not receive work items", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, msg := range messages {
			c.processMessage(workCtx, msg)
		}

		if opts.Drain && len(messages) == 0 {
			depth, err := c.queue.Depth(ctx)
			if err != nil {
				slog.Error("could not read queue depth", "error", err)
				continue
			}
			if depth == 0 {
				slog.Info("queue drained, stopping consumer")
				return nil
			}
		}
	}
}

// processMessage handles one delivery. Success and permanent failures delete
// the message; transient failures leave it for the visibility timeout.
// Duplicate deliveries are safe because the result write replaces wholesale.
func (c *Consumer) processMessage(ctx context.Context, msg queue.Message) {
	item, err := queue.DecodeWorkItem(msg)
	if err != nil {
		slog.Error("malformed work item, dropping", "message", msg.ID, "error", err)
		c.deleteMessage(ctx, msg)
		c.Stats.add(&c.Stats.Skipped)
		return
	}

	itemCtx, cancel := context.WithTimeout(ctx, c.itemWait)
	defer cancel()

	result, err := c.pipeline.Process(itemCtx, item.DocUID)
	if err != nil {
		if pipeline.IsPermanent(err) {
			slog.Warn("skipping work item", "doc", item.DocUID, "key", item.Key, "error", err)
			c.deleteMessage(ctx, msg)
			c.markObject(ctx, item, storage.StateSkipped)
			c.Stats.add(&c.Stats.Skipped)
			return
		}
		slog.Error("work item failed, leaving for redelivery", "doc", item.DocUID, "key", item.Key, "error", err)
		c.Stats.add(&c.Stats.Failed)
		return
	}

	c.deleteMessage(ctx, msg)
	c.markObject(ctx, item, storage.StateProcessed)
	c.Stats.add(&c.Stats.Processed)
	slog.Info("work item processed",
		"item", item.ID, "doc", item.DocUID, "outcome", string(result.Outcome), "matches", len(result.Matches))
}

func (c *Consumer) deleteMessage(ctx context.Context, msg queue.Message) {
	if err := c.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		// Redelivery reprocesses the item; the replace-write keeps that safe.
		slog.Error("could not delete message", "message", msg.ID, "error", err)
	}
}

func (c *Consumer) markObject(ctx context.Context, item queue.WorkItem, state string) {
	if err := c.store.SetTag(ctx, item.Bucket, item.Key, storage.StateTag, state); err != nil {
		slog.Error("could not update object marker", "key", item.Key, "state", state, "error", err)
	}
}
