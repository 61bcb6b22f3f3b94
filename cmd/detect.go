package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/kozaktomas/face-tagger/internal/config"
	"github.com/kozaktomas/face-tagger/internal/pipeline"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect <document-uid>",
	Short: "Detect and tag faces in a single document",
	Long: `Detect faces in a single Nuxeo document and write the matched
identities back to the document.

The document's primary binary is fetched from S3, faces are detected and
cropped, and each crop is searched against the identity collection. Matches
above the confidence threshold are written to the document as a
comma-separated identity list.

Examples:
  # Tag a document by its UID
  face-tagger detect 3f2a6c1e-9b4d-4f2e-8a77-0c1d2e3f4a5b`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	docUID := args[0]

	ctx := context.Background()
	cfg := config.Load()

	cl, err := connect(ctx, cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Processing document %s...\n", docUID)
	result, err := cl.newPipeline(cfg).Process(ctx, docUID)
	if err != nil {
		return fmt.Errorf("failed to process document: %w", err)
	}

	switch result.Outcome {
	case pipeline.OutcomeNoFace:
		fmt.Println("No faces found in the image")
	case pipeline.OutcomeNotDetected:
		fmt.Println("Faces found, but none matched a known identity")
	default:
		names := make([]string, 0, len(result.Matches))
		for _, m := range result.Matches {
			names = append(names, fmt.Sprintf("%s (%.1f%%)", cfg.Identities.Name(m.ID), m.Confidence))
		}
		pipeline.SortNames(names)
		fmt.Printf("Matched identities: %s\n", strings.Join(names, ", "))
	}

	return nil
}
