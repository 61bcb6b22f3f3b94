package recognition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ModelState is the local view of the billable model lifecycle.
type ModelState string

// Lifecycle states. Every batch run must end in StateStopped.
const (
	StateStopped  ModelState = "STOPPED"
	StateStarting ModelState = "STARTING"
	StateRunning  ModelState = "RUNNING"
	StateStopping ModelState = "STOPPING"
)

// ErrModelLifecycle marks start/stop failures. These are fatal to the whole
// batch run, unlike per-item errors.
var ErrModelLifecycle = errors.New("model lifecycle error")

// Remote status values (Rekognition project version statuses).
const (
	remoteRunning  = "RUNNING"
	remoteStarting = "STARTING"
	remoteFailed   = "FAILED"
)

// ModelRunner drives the remote model through STOPPED → STARTING → RUNNING
// and back. It is the only component allowed to mutate the model state.
type ModelRunner struct {
	admin        ModelAdmin
	projectArn   string
	versionArn   string
	startTimeout time.Duration
	pollInterval time.Duration

	mu    sync.Mutex
	state ModelState
}

// NewModelRunner creates a runner for one project version. Non-positive poll
// intervals are raised to one second; the ticker cannot run on zero.
func NewModelRunner(admin ModelAdmin, projectArn, versionArn string, startTimeout, pollInterval time.Duration) *ModelRunner {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &ModelRunner{
		admin:        admin,
		projectArn:   projectArn,
		versionArn:   versionArn,
		startTimeout: startTimeout,
		pollInterval: pollInterval,
		state:        StateStopped,
	}
}

// State returns the current lifecycle state. It reflects only this process;
// a model started elsewhere still reads as STOPPED here.
func (r *ModelRunner) State() ModelState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// RemoteStatus reports the service-side status of the model version,
// independent of the local lifecycle state.
func (r *ModelRunner) RemoteStatus(ctx context.Context) (string, error) {
	versionName, err := VersionName(r.versionArn)
	if err != nil {
		return "", err
	}
	return r.admin.ModelStatus(ctx, r.projectArn, versionName)
}

func (r *ModelRunner) setState(s ModelState) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Start brings the model to RUNNING. Valid only from STOPPED. On a
// service-reported failure the state returns to STOPPED; on a timeout the
// state stays STARTING because the remote model may still be spinning up and
// billing - the caller's guaranteed Stop cleans that up.
func (r *ModelRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateStopped {
		state := r.state
		r.mu.Unlock()
		return fmt.Errorf("%w: start is only valid from STOPPED, current state %s", ErrModelLifecycle, state)
	}
	r.state = StateStarting
	r.mu.Unlock()

	versionName, err := VersionName(r.versionArn)
	if err != nil {
		r.setState(StateStopped)
		return fmt.Errorf("%w: %v", ErrModelLifecycle, err)
	}

	status, err := r.admin.ModelStatus(ctx, r.projectArn, versionName)
	if err != nil {
		r.setState(StateStopped)
		return fmt.Errorf("%w: could not check model status: %v", ErrModelLifecycle, err)
	}

	// An already running or starting model is adopted, not restarted;
	// start requests are rate limited.
	switch status {
	case remoteRunning:
		r.setState(StateRunning)
		return nil
	case remoteStarting:
		return r.waitUntilRunning(ctx, versionName)
	}

	if err := r.admin.StartModel(ctx, r.versionArn); err != nil {
		r.setState(StateStopped)
		return fmt.Errorf("%w: could not start model: %v", ErrModelLifecycle, err)
	}
	return r.waitUntilRunning(ctx, versionName)
}

// waitUntilRunning polls the remote status until RUNNING, a reported failure,
// or the start deadline.
func (r *ModelRunner) waitUntilRunning(ctx context.Context, versionName string) error {
	deadline := time.Now().Add(r.startTimeout)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		status, err := r.admin.ModelStatus(ctx, r.projectArn, versionName)
		if err == nil {
			switch status {
			case remoteRunning:
				r.setState(StateRunning)
				return nil
			case remoteFailed:
				r.setState(StateStopped)
				return fmt.Errorf("%w: model reported FAILED during start", ErrModelLifecycle)
			}
		}

		if time.Now().After(deadline) {
			// Still STARTING remotely; Stop must follow.
			return fmt.Errorf("%w: model did not reach RUNNING within %s", ErrModelLifecycle, r.startTimeout)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: start cancelled: %v", ErrModelLifecycle, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Stop brings the model back to STOPPED. A no-op from STOPPED so callers can
// defer it unconditionally; from any other state it issues the remote stop.
// The local state always lands in STOPPED, even when the remote call fails.
func (r *ModelRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.state == StateStopped {
		r.mu.Unlock()
		return nil
	}
	r.state = StateStopping
	r.mu.Unlock()

	err := r.admin.StopModel(ctx, r.versionArn)
	r.setState(StateStopped)
	if err != nil {
		return fmt.Errorf("%w: could not stop model: %v", ErrModelLifecycle, err)
	}
	return nil
}
