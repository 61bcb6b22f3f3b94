package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-tagger/internal/config"
	"github.com/spf13/cobra"
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage the custom recognition model",
	Long: `Start, stop, and inspect the custom face recognition model.

The model bills for every hour it runs, so it should only be started for
the duration of a tagging run. The batch worker manages the lifecycle
itself; these commands exist for manual control and for recovery when a
model was left running.`,
}

var modelStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the recognition model and wait until it is running",
	RunE:  runModelStart,
}

var modelStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the recognition model",
	RunE:  runModelStop,
}

var modelStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the recognition model status",
	RunE:  runModelStatus,
}

func init() {
	rootCmd.AddCommand(modelCmd)
	modelCmd.AddCommand(modelStartCmd)
	modelCmd.AddCommand(modelStopCmd)
	modelCmd.AddCommand(modelStatusCmd)
}

func runModelStart(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	cl, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	model, err := cl.newModelRunner(cfg)
	if err != nil {
		return err
	}

	fmt.Println("Starting recognition model (this can take a few minutes)...")
	if err := model.Start(ctx); err != nil {
		return fmt.Errorf("failed to start model: %w", err)
	}
	fmt.Println("Model is running")
	fmt.Println("Remember to stop it when you are done: face-tagger model stop")
	return nil
}

func runModelStop(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	cl, err := connect(ctx, cfg)
	if err != nil {
		return err
	}

	status, err := remoteModelStatus(ctx, cl, cfg)
	if err != nil {
		return err
	}
	if status == "STOPPED" || status == "STOPPING" {
		fmt.Printf("Model is already %s, nothing to do\n", status)
		return nil
	}

	fmt.Println("Stopping recognition model...")
	if err := cl.recognition.StopModel(ctx, cfg.Recognition.ProjectVersionArn); err != nil {
		return fmt.Errorf("failed to stop model: %w", err)
	}
	fmt.Println("Stop requested; the model winds down in the background")
	return nil
}

func runModelStatus(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := config.Load()

	cl, err := connect(ctx, cfg)
	if err != nil {
		return err
	}

	status, err := remoteModelStatus(ctx, cl, cfg)
	if err != nil {
		return err
	}
	fmt.Printf("Model status: %s\n", status)
	return nil
}

func remoteModelStatus(ctx context.Context, cl *clients, cfg *config.Config) (string, error) {
	model, err := cl.newModelRunner(cfg)
	if err != nil {
		return "", err
	}
	status, err := model.RemoteStatus(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to describe model: %w", err)
	}
	return status, nil
}
