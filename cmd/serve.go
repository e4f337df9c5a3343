package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/best-smile/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the best-smile HTTP service",
	Long: `Start the best-smile HTTP service.

POST / with a JSON list of image paths relative to the base path returns
{"data": <face metadata>, "path": <image>} for the best smile.

Examples:
  best-smile serve -b ./photos -k $FACE_API_KEY
  best-smile serve -b /srv/photos -l 0.0.0.0 -p 9000`,
	RunE: runServe,
}

// shutdownTimeout bounds how long in-flight requests may take to finish.
const shutdownTimeout = 30 * time.Second

func init() {
	rootCmd.AddCommand(serveCmd)

	addFaceAPIFlags(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (env WEB_PORT, default 8080)")
	serveCmd.Flags().StringP("local-ip", "l", "", "Address to bind to (env WEB_HOST, default 127.0.0.1)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "local-ip"); host != "" {
		cfg.Web.Host = host
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	picker, err := newPicker(cfg, log, nil)
	if err != nil {
		return err
	}

	srv := web.NewServer(cfg, picker, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	log.WithField("base_path", cfg.Images.BasePath).Infof("serving best smiles on http://%s:%d", cfg.Web.Host, cfg.Web.Port)

	return serveUntilSignal(srv, sigChan, shutdownTimeout, log)
}

// gracefulServer is the part of web.Server the serve loop drives.
type gracefulServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// serveUntilSignal runs srv until a signal arrives, then waits for in-flight
// requests to drain for at most timeout.
func serveUntilSignal(srv gracefulServer, sigChan <-chan os.Signal, timeout time.Duration, log logrus.FieldLogger) error {
	done := make(chan error, 1)
	go func() {
		<-sigChan
		log.Info("shutting down, waiting for in-flight requests")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	if err := srv.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	if err := <-done; err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	log.Info("server stopped")
	return nil
}
