package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/kozaktomas/best-smile/internal/smile"
)

// fakePicker records the names it was asked about and returns a canned answer.
type fakePicker struct {
	result *smile.Result
	err    error
	calls  [][]string
}

func (f *fakePicker) Pick(_ context.Context, names []string) (*smile.Result, error) {
	f.calls = append(f.calls, names)
	return f.result, f.err
}

// setupImageDir creates a base directory holding empty files with the given names.
func setupImageDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		full := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("failed to create directory: %v", err)
		}
		if err := os.WriteFile(full, []byte("img"), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

// newTestSmileHandler builds a handler over dir with a limit of maxImages.
func newTestSmileHandler(dir string, maxImages int, picker Picker) *SmileHandler {
	logger, _ := test.NewNullLogger()
	return NewSmileHandler(dir, maxImages, picker, validator.New(), logger)
}

// jsonRequest creates a POST request with a JSON content type.
func jsonRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}

// blockingPicker waits for the request context to end and fails the way the
// core does when a remote call is cut short.
type blockingPicker struct{}

func (blockingPicker) Pick(ctx context.Context, names []string) (*smile.Result, error) {
	<-ctx.Done()
	return nil, &smile.DetectionError{Image: names[0], Err: ctx.Err()}
}
