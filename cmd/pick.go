package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var pickCmd = &cobra.Command{
	Use:   "pick <image>...",
	Short: "Pick the best smile from the given images",
	Long: `Run a single best-smile selection over images given as arguments
(relative to the base path) and print the result as JSON.

Examples:
  best-smile pick -b ./photos -k $FACE_API_KEY a.jpg b.jpg c.jpg
  best-smile pick -b ./photos --no-progress party/*.jpg`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPick,
}

func init() {
	rootCmd.AddCommand(pickCmd)

	addFaceAPIFlags(pickCmd)
	pickCmd.Flags().Bool("no-progress", false, "Hide the progress bar")
}

func newPickProgressBar(count int, hidden bool) *progressbar.ProgressBar {
	if hidden {
		return nil
	}
	return progressbar.NewOptions(count,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("Detecting faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

func runPick(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) > cfg.Images.MaxPerRequest {
		return fmt.Errorf("too many images: %d, at most %d per run", len(args), cfg.Images.MaxPerRequest)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	bar := newPickProgressBar(len(args), mustGetBool(cmd, "no-progress"))
	var onImageDone func(string, int)
	if bar != nil {
		onImageDone = func(string, int) { bar.Add(1) }
	}

	picker, err := newPicker(cfg, log, onImageDone)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := picker.Pick(ctx, args)
	if bar != nil {
		bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return fmt.Errorf("picking best smile: %w", err)
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
