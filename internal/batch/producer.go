// Package batch contains the queue-driven processing layer: the producer
// that turns a storage listing into work items, the consumer that processes
// them, and the runner that brackets a batch run with the model lifecycle.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kozaktomas/face-tagger/internal/config"
	"github.com/kozaktomas/face-tagger/internal/nuxeo"
	"github.com/kozaktomas/face-tagger/internal/queue"
	"github.com/kozaktomas/face-tagger/internal/storage"
)

// DigestLookup resolves the document owning a binary by its content digest.
// *nuxeo.Client satisfies it.
type DigestLookup interface {
	FindByDigest(ctx context.Context, digest string) (*nuxeo.Document, error)
}

// EnqueueStats summarizes one producer run.
type EnqueueStats struct {
	Listed        int // objects found under the prefix
	Enqueued      int // work items sent
	AlreadyMarked int // skipped, pending or processed marker present
	NoDocument    int // skipped, no document references the digest
	Failed        int // send failures
}

// ProducerOptions controls one enumeration run.
type ProducerOptions struct {
	Limit int  // stop after enqueueing this many items (0 = no limit)
	Reset bool // ignore and overwrite existing markers
	// OnProgress is called after each listed object (for CLI progress bars).
	OnProgress func(current, total int)
}

// Producer lists unprocessed objects under the configured prefix and
// enqueues one work item per object.
type Producer struct {
	store storage.ObjectStore
	queue queue.Queue
	docs  DigestLookup
	cfg   config.StorageConfig
}

// NewProducer creates a producer.
func NewProducer(store storage.ObjectStore, q queue.Queue, docs DigestLookup, cfg config.StorageConfig) *Producer {
	return &Producer{store: store, queue: q, docs: docs, cfg: cfg}
}

// EnumerateAndEnqueue lists the bucket prefix and enqueues every object that
// is not already marked. The pending marker is set before the send, so a
// repeated run can never enqueue the same object twice. An observed send
// failure clears the marker again; only a crash between marking and sending
// leaves a marked-but-unqueued object, repaired by running again with Reset.
func (p *Producer) EnumerateAndEnqueue(ctx context.Context, opts ProducerOptions) (*EnqueueStats, error) {
	keys, err := p.store.List(ctx, p.cfg.Bucket, p.cfg.KeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("could not list objects: %w", err)
	}

	stats := &EnqueueStats{Listed: len(keys)}
	for i, key := range keys {
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(keys))
		}

		if !opts.Reset {
			state, err := p.store.GetTag(ctx, p.cfg.Bucket, key, storage.StateTag)
			if err != nil {
				return stats, fmt.Errorf("could not read marker of %s: %w", key, err)
			}
			if state == storage.StatePending || state == storage.StateProcessed {
				stats.AlreadyMarked++
				continue
			}
		}

		digest := strings.TrimPrefix(key, p.cfg.KeyPrefix)
		doc, err := p.docs.FindByDigest(ctx, digest)
		if err != nil {
			return stats, fmt.Errorf("could not look up document for %s: %w", key, err)
		}
		if doc == nil {
			slog.Warn("no document references object, skipping", "key", key)
			stats.NoDocument++
			continue
		}

		// Marker first, send second.
		if err := p.store.SetTag(ctx, p.cfg.Bucket, key, storage.StateTag, storage.StatePending); err != nil {
			return stats, fmt.Errorf("could not mark %s pending: %w", key, err)
		}

		item := queue.NewWorkItem(p.cfg.Bucket, key, doc.UID)
		body, err := item.Encode()
		if err != nil {
			return stats, err
		}
		if err := p.queue.Send(ctx, body); err != nil {
			slog.Error("could not enqueue work item", "item", item.ID, "key", key, "doc", doc.UID, "error", err)
			// Clear the marker so the next run retries the object.
			if tagErr := p.store.SetTag(ctx, p.cfg.Bucket, key, storage.StateTag, ""); tagErr != nil {
				slog.Error("could not clear marker after failed send", "key", key, "error", tagErr)
			}
			stats.Failed++
			continue
		}

		slog.Debug("enqueued work item", "item", item.ID, "key", key, "doc", doc.UID)
		stats.Enqueued++
		if opts.Limit > 0 && stats.Enqueued >= opts.Limit {
			break
		}
	}
	return stats, nil
}
