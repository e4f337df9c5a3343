package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/best-smile/internal/smile"
)

// maxRequestBody caps the JSON body of a best-smile request.
const maxRequestBody = 1 << 20

// Picker selects the best face among a list of images.
type Picker interface {
	Pick(ctx context.Context, names []string) (*smile.Result, error)
}

// SmileHandler serves the best-smile endpoint.
type SmileHandler struct {
	basePath  string
	maxImages int
	picker    Picker
	validate  *validator.Validate
	log       logrus.FieldLogger
}

// NewSmileHandler creates the handler. basePath must already be absolute.
func NewSmileHandler(basePath string, maxImages int, picker Picker, validate *validator.Validate, log logrus.FieldLogger) *SmileHandler {
	return &SmileHandler{
		basePath:  filepath.Clean(basePath),
		maxImages: maxImages,
		picker:    picker,
		validate:  validate,
		log:       log,
	}
}

// Pick handles POST / with a JSON list of image paths relative to the base path.
func (h *SmileHandler) Pick(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.EqualFold(mediaType, "application/json") {
		respondError(w, http.StatusUnsupportedMediaType, "content-type should be application/json")
		return
	}

	names, msg := h.decodeNames(w, r)
	if msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.validate.Var(names, "min=1"); err != nil {
		respondError(w, http.StatusBadRequest, "the request is empty")
		return
	}
	if err := h.validate.Var(names, fmt.Sprintf("max=%d", h.maxImages)); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("the request is too big >%d", h.maxImages))
		return
	}
	if err := h.validate.Var(names, "dive,required"); err != nil {
		respondError(w, http.StatusBadRequest, "request contains invalid path")
		return
	}

	for _, name := range names {
		full, ok := h.resolve(name)
		if !ok {
			h.log.WithField("path", sanitizeForLog(name)).Warn("rejected path outside base directory")
			respondError(w, http.StatusBadRequest, "request contains invalid path")
			return
		}
		if info, err := os.Stat(full); err != nil || !info.Mode().IsRegular() {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("file %s does not exist", name))
			return
		}
	}

	result, err := h.picker.Pick(r.Context(), names)
	if err != nil {
		h.respondPickError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// decodeNames reads the body as a JSON list of strings. A non-empty second
// return value is the client-facing error message.
func (h *SmileHandler) decodeNames(w http.ResponseWriter, r *http.Request) ([]string, string) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "the request is too big"
		}
		return nil, "error reading request body"
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, "Api requires a Json list of images paths"
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, "error decoding json"
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, "unexpected json: list expected"
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		name, ok := item.(string)
		if !ok {
			return nil, "request contains invalid path"
		}
		names = append(names, name)
	}
	return names, ""
}

// resolve joins name onto the base path and reports whether the result
// stays inside it.
func (h *SmileHandler) resolve(name string) (string, bool) {
	full := filepath.Join(h.basePath, name)
	rel, err := filepath.Rel(h.basePath, full)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

// respondPickError maps core failures to HTTP status codes.
func (h *SmileHandler) respondPickError(w http.ResponseWriter, err error) {
	var (
		readErr    *smile.ImageReadError
		detectErr  *smile.DetectionError
		groupErr   *smile.GroupingError
		tooManyErr *smile.GroupingBatchTooLargeError
	)

	switch {
	case errors.Is(err, context.Canceled):
		// client went away, nothing useful to send
		h.log.Debug("request canceled")
	case errors.Is(err, context.DeadlineExceeded):
		// the timeout middleware answers with 504
		h.log.WithError(err).Warn("request timed out")
	case errors.As(err, &readErr):
		respondError(w, http.StatusBadRequest, fmt.Sprintf("file %s cannot be read", readErr.Image))
	case errors.As(err, &tooManyErr):
		respondError(w, http.StatusBadRequest, tooManyErr.Error())
	case errors.Is(err, smile.ErrNoClusters):
		respondError(w, http.StatusUnprocessableEntity, "no faces found")
	case errors.As(err, &detectErr):
		h.log.WithError(err).Error("face detection failed")
		respondError(w, http.StatusBadGateway, fmt.Sprintf("face detection failed for %s", detectErr.Image))
	case errors.As(err, &groupErr):
		h.log.WithError(err).Error("face grouping failed")
		respondError(w, http.StatusBadGateway, "face grouping failed")
	default:
		h.log.WithError(err).Error("best smile selection failed")
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
