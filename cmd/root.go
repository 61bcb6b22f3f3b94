package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-tagger",
	Short: "A CLI tool for tagging Nuxeo pictures with recognized identities",
	Long: `Face Tagger connects a Nuxeo content repository to AWS Rekognition.
It detects faces in picture documents, searches each face against an identity
collection, and stores the accepted matches back on the document - one image
at a time or as a queued batch run bracketed by the billable model lifecycle.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
