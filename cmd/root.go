package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	captureDir string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "best-smile",
	Short: "Pick the best smile of the main person in a set of photos",
	Long: `Best Smile detects faces in a set of images with a remote face API,
groups them by identity and returns the face of the person who appears most
often, taken from the image where that face is the largest.

It runs as an HTTP service (serve) or as a one-shot command (pick).`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save face API responses for testing")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
