package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/kozaktomas/face-tagger/internal/config"
	"github.com/kozaktomas/face-tagger/internal/nuxeo"
	"github.com/kozaktomas/face-tagger/internal/pipeline"
	"github.com/kozaktomas/face-tagger/internal/queue"
	"github.com/kozaktomas/face-tagger/internal/recognition"
	"github.com/kozaktomas/face-tagger/internal/storage"
)

// fakeDocs backs the pipeline with in-memory documents.
type fakeDocs struct {
	docs   map[string]*nuxeo.Document
	setErr error
}

func (f *fakeDocs) GetDocument(ctx context.Context, uid string) (*nuxeo.Document, error) {
	doc, ok := f.docs[uid]
	if !ok {
		return nil, fmt.Errorf("request failed with status 404: no such document")
	}
	return doc, nil
}

func (f *fakeDocs) SetProperty(ctx context.Context, uid, xpath, value string) error {
	return f.setErr
}

type fakeDetector struct{}

func (fakeDetector) DetectFaces(ctx context.Context, image []byte) ([]recognition.FaceRegion, error) {
	return nil, nil
}

type fakeIndex struct{}

func (fakeIndex) SearchIdentity(ctx context.Context, faceCrop []byte) (*recognition.IdentityMatch, error) {
	return nil, nil
}

func consumerTestConfig() *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{
			Bucket:           "photo-bucket",
			KeyPrefix:        "binaries/",
			AllowedMimeTypes: []string{"image/png"},
		},
		Queue:  config.QueueConfig{MaxMessages: 10, WaitSeconds: 0},
		Worker: config.WorkerConfig{FaceConcurrency: 1},
	}
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	img.Set(5, 5, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

// enqueueItem puts one encoded work item on the fake queue.
func enqueueItem(t *testing.T, q *fakeQueue, bucket, key, docUID string) {
	t.Helper()
	body, err := queue.NewWorkItem(bucket, key, docUID).Encode()
	if err != nil {
		t.Fatalf("failed to encode work item: %v", err)
	}
	if err := q.Send(context.Background(), body); err != nil {
		t.Fatalf("failed to enqueue work item: %v", err)
	}
}

func newConsumerUnderTest(t *testing.T, docs *fakeDocs, store *fakeStore, q *fakeQueue) *Consumer {
	t.Helper()
	cfg := consumerTestConfig()
	cfg.Worker.ItemTimeout = 30 * time.Second
	p := pipeline.New(docs, store, fakeDetector{}, fakeIndex{}, cfg)
	return NewConsumer(q, p, store, cfg)
}

func TestConsumerProcessesAndDeletes(t *testing.T) {
	docs := &fakeDocs{docs: map[string]*nuxeo.Document{
		"doc-1": {
			UID: "doc-1",
			Properties: map[string]any{
				"file:content": map[string]any{"mime-type": "image/png", "digest": "d1"},
			},
		},
	}}
	store := newFakeStore("binaries/d1")
	store.objects["binaries/d1"] = testPNG(t)
	q := &fakeQueue{}
	enqueueItem(t, q, "photo-bucket", "binaries/d1", "doc-1")

	consumer := newConsumerUnderTest(t, docs, store, q)
	if err := consumer.Run(context.Background(), ConsumerOptions{Drain: true}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	processed, skipped, failed := consumer.Stats.Snapshot()
	if processed != 1 || skipped != 0 || failed != 0 {
		t.Errorf("expected 1/0/0, got %d/%d/%d", processed, skipped, failed)
	}
	if len(q.deleted) != 1 {
		t.Errorf("expected exactly 1 delete call, got %d", len(q.deleted))
	}
	if state := store.tags["binaries/d1/"+storage.StateTag]; state != storage.StateProcessed {
		t.Errorf("expected processed marker, got %q", state)
	}
}

func TestConsumerLeavesTransientFailuresForRedelivery(t *testing.T) {
	docs := &fakeDocs{
		docs: map[string]*nuxeo.Document{
			"doc-1": {
				UID: "doc-1",
				Properties: map[string]any{
					"file:content": map[string]any{"mime-type": "image/png", "digest": "d1"},
				},
			},
		},
		setErr: errors.New("repository unavailable"),
	}
	store := newFakeStore("binaries/d1")
	store.objects["binaries/d1"] = testPNG(t)
	q := &fakeQueue{}
	enqueueItem(t, q, "photo-bucket", "binaries/d1", "doc-1")

	consumer := newConsumerUnderTest(t, docs, store, q)
	if err := consumer.Run(context.Background(), ConsumerOptions{Drain: true}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	_, _, failed := consumer.Stats.Snapshot()
	if failed != 1 {
		t.Errorf("expected 1 failed item, got %d", failed)
	}
	if len(q.deleted) != 0 {
		t.Errorf("expected zero delete calls for a transient failure, got %d", len(q.deleted))
	}
}

func TestConsumerSkipsPermanentFailures(t *testing.T) {
	// Document does not exist; retrying cannot fix that.
	docs := &fakeDocs{docs: map[string]*nuxeo.Document{}}
	store := newFakeStore("binaries/d1")
	q := &fakeQueue{}
	enqueueItem(t, q, "photo-bucket", "binaries/d1", "doc-gone")

	consumer := newConsumerUnderTest(t, docs, store, q)
	if err := consumer.Run(context.Background(), ConsumerOptions{Drain: true}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	_, skipped, _ := consumer.Stats.Snapshot()
	if skipped != 1 {
		t.Errorf("expected 1 skipped item, got %d", skipped)
	}
	if len(q.deleted) != 1 {
		t.Errorf("expected the message acknowledged, got %d delete calls", len(q.deleted))
	}
	if state := store.tags["binaries/d1/"+storage.StateTag]; state != storage.StateSkipped {
		t.Errorf("expected skipped marker, got %q", state)
	}
}

func TestConsumerDropsMalformedMessages(t *testing.T) {
	store := newFakeStore()
	q := &fakeQueue{}
	if err := q.Send(context.Background(), "not a work item"); err != nil {
		t.Fatalf("failed to enqueue: %v", err)
	}

	consumer := newConsumerUnderTest(t, &fakeDocs{docs: map[string]*nuxeo.Document{}}, store, q)
	if err := consumer.Run(context.Background(), ConsumerOptions{Drain: true}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	_, skipped, _ := consumer.Stats.Snapshot()
	if skipped != 1 {
		t.Errorf("expected 1 skipped item, got %d", skipped)
	}
	if len(q.deleted) != 1 {
		t.Errorf("expected the malformed message dropped, got %d delete calls", len(q.deleted))
	}
}

func TestConsumerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	consumer := newConsumerUnderTest(t, &fakeDocs{}, newFakeStore(), &fakeQueue{})
	if err := consumer.Run(ctx, ConsumerOptions{}); err != nil {
		t.Fatalf("expected clean exit on cancelled context, got: %v", err)
	}
}
