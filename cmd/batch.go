package cmd

import (
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch face tagging operations",
	Long:  `Enqueue images for face tagging and run queue workers.`,
}

func init() {
	rootCmd.AddCommand(batchCmd)
}
