package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/best-smile/internal/config"
	"github.com/kozaktomas/best-smile/internal/faceapi"
	"github.com/kozaktomas/best-smile/internal/logging"
	"github.com/kozaktomas/best-smile/internal/smile"
)

// loadConfig reads the environment and applies the face API flags on top.
// The base path is made absolute and must be an existing directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()

	if v := mustGetString(cmd, "base-path"); v != "" {
		cfg.Images.BasePath = v
	}
	if v := mustGetString(cmd, "key"); v != "" {
		cfg.FaceAPI.Key = v
	}
	if v := mustGetString(cmd, "endpoint"); v != "" {
		cfg.FaceAPI.Endpoint = v
	}
	if v := mustGetInt(cmd, "concurrency"); v > 0 {
		cfg.Images.DetectConcurrency = v
	}

	if cfg.Images.BasePath == "" || cfg.FaceAPI.Key == "" {
		return nil, errors.New("invalid usage: --base-path and --key (or IMAGES_BASE_PATH and FACE_API_KEY) are required")
	}

	abs, err := filepath.Abs(cfg.Images.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolving base path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("base path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base path %s is not a directory", abs)
	}
	cfg.Images.BasePath = abs

	return cfg, nil
}

func newLogger(cfg *config.Config) (*logrus.Logger, error) {
	return logging.New(logging.Options{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		Debug: debug,
	})
}

// newPicker wires the face API client into the best-smile core.
func newPicker(cfg *config.Config, log logrus.FieldLogger, onImageDone func(name string, faces int)) (*smile.Picker, error) {
	client, err := faceapi.NewClient(cfg.FaceAPI.Endpoint, cfg.FaceAPI.Key,
		faceapi.WithHTTPClient(&http.Client{Timeout: cfg.FaceAPI.Timeout()}),
		faceapi.WithRateLimit(cfg.FaceAPI.RequestsPerSecond, int(cfg.FaceAPI.RequestsPerSecond)+1),
		faceapi.WithDetectParams(cfg.FaceAPI.DetectParams),
		faceapi.WithCaptureDir(captureDir),
		faceapi.WithLogger(log.WithField("component", "faceapi")),
	)
	if err != nil {
		return nil, fmt.Errorf("creating face API client: %w", err)
	}

	return smile.NewPicker(faceapi.NewService(client), smile.Options{
		BasePath:    cfg.Images.BasePath,
		Concurrency: cfg.Images.DetectConcurrency,
		MaxGroupIDs: cfg.FaceAPI.MaxGroupIDs,
		OnImageDone: onImageDone,
	}, log.WithField("component", "smile")), nil
}
