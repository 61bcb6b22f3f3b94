package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kozaktomas/face-tagger/internal/recognition"
)

// fakeAdmin scripts the remote model for runner tests.
type fakeAdmin struct {
	mu         sync.Mutex
	statuses   []string
	stopCalls  int
	startCalls int
}

func (f *fakeAdmin) StartModel(ctx context.Context, versionArn string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startCalls++
	return nil
}

func (f *fakeAdmin) StopModel(ctx context.Context, versionArn string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopCalls++
	return nil
}

func (f *fakeAdmin) ModelStatus(ctx context.Context, projectArn, versionName string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statuses) == 0 {
		return "STOPPED", nil
	}
	status := f.statuses[0]
	if len(f.statuses) > 1 {
		f.statuses = f.statuses[1:]
	}
	return status, nil
}

// fakeProcessor records whether the work phase ran.
type fakeProcessor struct {
	ran bool
	err error
}

func (f *fakeProcessor) Run(ctx context.Context, opts ConsumerOptions) error {
	f.ran = true
	return f.err
}

const runnerVersionArn = "arn:aws:rekognition:eu-west-1:123456789:project/faces/version/faces.01/1704100000000"

func newRunnerModel(admin *fakeAdmin, startTimeout time.Duration) *recognition.ModelRunner {
	return recognition.NewModelRunner(admin, "arn:project", runnerVersionArn, startTimeout, time.Millisecond)
}

func TestRunnerStopsModelAfterWork(t *testing.T) {
	admin := &fakeAdmin{statuses: []string{"STOPPED", "RUNNING"}}
	work := &fakeProcessor{}
	runner := NewRunner(newRunnerModel(admin, time.Second), work, ConsumerOptions{})

	if err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !work.ran {
		t.Error("expected work phase to run")
	}
	if admin.stopCalls != 1 {
		t.Errorf("expected 1 stop call, got %d", admin.stopCalls)
	}
}

func TestRunnerStopsModelWhenWorkFails(t *testing.T) {
	admin := &fakeAdmin{statuses: []string{"STOPPED", "RUNNING"}}
	work := &fakeProcessor{err: errors.New("consumer blew up")}
	runner := NewRunner(newRunnerModel(admin, time.Second), work, ConsumerOptions{})

	if err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected work error to surface")
	}
	if admin.stopCalls != 1 {
		t.Errorf("expected 1 stop call even after work failure, got %d", admin.stopCalls)
	}
}

func TestRunnerStartTimeoutStopsModelWithoutWork(t *testing.T) {
	// Model never reaches RUNNING; the runner must not consume a single
	// item and must still issue the remote stop for the starting model.
	admin := &fakeAdmin{statuses: []string{"STOPPED", "STARTING"}}
	work := &fakeProcessor{}
	runner := NewRunner(newRunnerModel(admin, 10*time.Millisecond), work, ConsumerOptions{})

	err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected start timeout error")
	}
	if !errors.Is(err, recognition.ErrModelLifecycle) {
		t.Errorf("expected lifecycle error, got: %v", err)
	}
	if work.ran {
		t.Error("expected no work after failed start")
	}
	if admin.stopCalls != 1 {
		t.Errorf("expected exactly 1 stop call, got %d", admin.stopCalls)
	}
}

func TestRunnerFailedStartNeedsNoRemoteStop(t *testing.T) {
	// The service reported FAILED, so the model is not billing; the local
	// stop is a no-op.
	admin := &fakeAdmin{statuses: []string{"STOPPED", "FAILED"}}
	work := &fakeProcessor{}
	runner := NewRunner(newRunnerModel(admin, time.Second), work, ConsumerOptions{})

	if err := runner.Run(context.Background()); err == nil {
		t.Fatal("expected start failure")
	}
	if work.ran {
		t.Error("expected no work after failed start")
	}
	if admin.stopCalls != 0 {
		t.Errorf("expected no remote stop call, got %d", admin.stopCalls)
	}
}
