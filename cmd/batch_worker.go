package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kozaktomas/face-tagger/internal/batch"
	"github.com/kozaktomas/face-tagger/internal/config"
	"github.com/spf13/cobra"
)

var batchWorkerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued images and tag faces",
	Long: `Start a worker that receives queued work items, runs face tagging on
each referenced image, and writes the matched identities back to Nuxeo.

The worker starts the custom recognition model before consuming and always
stops it on exit, including after a start failure, so the model never keeps
billing after the worker is gone.

Examples:
  # Run until interrupted (Ctrl+C)
  face-tagger batch worker

  # Process the backlog and exit when the queue is empty
  face-tagger batch worker --drain`,
	RunE: runBatchWorker,
}

func init() {
	batchCmd.AddCommand(batchWorkerCmd)

	batchWorkerCmd.Flags().Bool("drain", false, "Exit once the queue is empty")
}

func runBatchWorker(cmd *cobra.Command, args []string) error {
	drain := mustGetBool(cmd, "drain")

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cl, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.Queue.URL == "" {
		return fmt.Errorf("FACETAG_QUEUE_URL environment variable is required")
	}

	model, err := cl.newModelRunner(cfg)
	if err != nil {
		return err
	}

	consumer := batch.NewConsumer(cl.queue, cl.newPipeline(cfg), cl.store, cfg)
	runner := batch.NewRunner(model, consumer, batch.ConsumerOptions{Drain: drain})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		cancel()
	}()

	fmt.Println("Starting recognition model (this can take a few minutes)...")
	fmt.Println("Press Ctrl+C to stop")

	err = runner.Run(ctx)

	processed, skipped, failed := consumer.Stats.Snapshot()
	fmt.Printf("\nCompleted: %d processed, %d skipped, %d failed\n", processed, skipped, failed)

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("worker failed: %w", err)
	}
	return nil
}
