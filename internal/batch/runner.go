package batch

import (
	"context"
	"log/slog"

	"github.com/kozaktomas/face-tagger/internal/recognition"
)

// Processor is the work the runner brackets with the model lifecycle.
type Processor interface {
	Run(ctx context.Context, opts ConsumerOptions) error
}

// Runner starts the billable recognition model, runs the consumer, and
// guarantees the model is stopped afterwards - also when starting or
// consuming fails.
type Runner struct {
	model *recognition.ModelRunner
	work  Processor
	opts  ConsumerOptions
}

// NewRunner creates a runner.
func NewRunner(model *recognition.ModelRunner, work Processor, opts ConsumerOptions) *Runner {
	return &Runner{model: model, work: work, opts: opts}
}

// Run executes one batch run. The stop uses a detached context so a
// cancelled run still shuts the model down; a lifecycle error from start
// aborts before any work item is consumed.
func (r *Runner) Run(ctx context.Context) error {
	cleanupCtx := context.WithoutCancel(ctx)

	slog.Info("starting recognition model")
	if err := r.model.Start(ctx); err != nil {
		if stopErr := r.model.Stop(cleanupCtx); stopErr != nil {
			slog.Error("could not stop model after failed start", "error", stopErr)
		}
		return err
	}

	defer func() {
		slog.Info("stopping recognition model")
		if err := r.model.Stop(cleanupCtx); err != nil {
			slog.Error("could not stop model", "error", err)
		}
	}()

	slog.Info("model running, consuming work items")
	return r.work.Run(ctx, r.opts)
}
