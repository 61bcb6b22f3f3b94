package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-tagger/internal/batch"
	"github.com/kozaktomas/face-tagger/internal/config"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var batchEnqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Enqueue stored images for face tagging",
	Long: `List image binaries under the configured S3 prefix and enqueue a work
item for each one that has not been tagged yet.

Objects already marked as pending or processed are skipped, so the command
can be re-run safely - a second run enqueues nothing new unless --reset is
given.

Examples:
  # Enqueue all untagged images
  face-tagger batch enqueue

  # Enqueue at most 100 images
  face-tagger batch enqueue --limit 100

  # Re-enqueue everything, ignoring previous markers
  face-tagger batch enqueue --reset`,
	RunE: runBatchEnqueue,
}

func init() {
	batchCmd.AddCommand(batchEnqueueCmd)

	batchEnqueueCmd.Flags().Int("limit", 0, "Limit number of images to enqueue (0 = no limit)")
	batchEnqueueCmd.Flags().Bool("reset", false, "Ignore existing markers and re-enqueue")
}

func runBatchEnqueue(cmd *cobra.Command, args []string) error {
	limit := mustGetInt(cmd, "limit")
	reset := mustGetBool(cmd, "reset")

	ctx := context.Background()
	cfg := config.Load()

	cl, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	if cfg.Queue.URL == "" {
		return fmt.Errorf("FACETAG_QUEUE_URL environment variable is required")
	}

	producer := batch.NewProducer(cl.store, cl.queue, cl.nuxeo, cfg.Storage)

	fmt.Printf("Listing objects in s3://%s/%s...\n", cfg.Storage.Bucket, cfg.Storage.KeyPrefix)

	var bar *progressbar.ProgressBar
	stats, err := producer.EnumerateAndEnqueue(ctx, batch.ProducerOptions{
		Limit: limit,
		Reset: reset,
		OnProgress: func(current, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("Enqueueing"),
					progressbar.OptionShowCount(),
					progressbar.OptionShowIts(),
					progressbar.OptionSetItsString("images"),
					progressbar.OptionShowElapsedTimeOnFinish(),
					progressbar.OptionFullWidth(),
				)
			}
			_ = bar.Set(current)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue images: %w", err)
	}
	fmt.Println()

	fmt.Printf("\nListed:          %d objects\n", stats.Listed)
	fmt.Printf("Enqueued:        %d\n", stats.Enqueued)
	fmt.Printf("Already marked:  %d\n", stats.AlreadyMarked)
	fmt.Printf("No document:     %d\n", stats.NoDocument)
	fmt.Printf("Failed:          %d\n", stats.Failed)

	return nil
}
