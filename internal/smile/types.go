// Package smile picks the most prominent face of the person who appears most
// often across a set of images.
//
// Faces are detected and grouped by a remote face service; this package turns
// the detections into per-face records, folds the grouping result into a
// cluster table and selects the best face of the largest cluster.
package smile

import (
	"context"
	"encoding/json"
)

// FaceRecord describes one detected face.
type FaceRecord struct {
	FaceID    string
	ImageName string
	// Ratio is the face box area divided by the image area.
	Ratio float64
	// Metadata is the raw detection payload, returned to callers verbatim.
	Metadata json.RawMessage
}

// Rectangle is a face bounding box in pixels.
type Rectangle struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// Area returns the box area in square pixels.
func (r Rectangle) Area() int {
	return r.Width * r.Height
}

// Detection is a single face returned by FaceService.Detect.
type Detection struct {
	FaceID    string
	Rectangle Rectangle
	Raw       json.RawMessage
}

// Partition is the result of a grouping call: groups of faces judged to be the
// same person plus the faces that matched nobody.
type Partition struct {
	Groups    [][]string
	Ungrouped []string
}

// FaceService is the remote face detection and grouping capability.
type FaceService interface {
	Detect(ctx context.Context, image []byte) ([]Detection, error)
	Group(ctx context.Context, faceIDs []string) (*Partition, error)
}

// Result is the outcome of a pick: the winning face's metadata and the image it
// was found in.
type Result struct {
	Data json.RawMessage `json:"data"`
	Path string          `json:"path"`
}

type requestIDKey struct{}

// ContextWithRequestID attaches a request ID used to correlate log lines.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID stored by ContextWithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}
