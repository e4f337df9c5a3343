package smile

import (
	"errors"
	"fmt"
)

// ErrNoClusters is returned when there is no face to choose from, e.g. none of
// the requested images contained a detectable face.
var ErrNoClusters = errors.New("no face clusters to choose from")

// ImageReadError means a local image could not be read or decoded.
type ImageReadError struct {
	Image string
	Err   error
}

func (e *ImageReadError) Error() string {
	return fmt.Sprintf("reading image %s: %v", e.Image, e.Err)
}

func (e *ImageReadError) Unwrap() error { return e.Err }

// DetectionError means the remote detection call failed or returned malformed data.
type DetectionError struct {
	Image string
	Err   error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("detecting faces in %s: %v", e.Image, e.Err)
}

func (e *DetectionError) Unwrap() error { return e.Err }

// GroupingError means the remote grouping call failed.
type GroupingError struct {
	FaceCount int
	Err       error
}

func (e *GroupingError) Error() string {
	return fmt.Sprintf("grouping %d faces: %v", e.FaceCount, e.Err)
}

func (e *GroupingError) Unwrap() error { return e.Err }

// GroupingBatchTooLargeError means there are more face IDs than a single
// grouping call accepts. It is raised before any network call is made.
type GroupingBatchTooLargeError struct {
	Count int
	Max   int
}

func (e *GroupingBatchTooLargeError) Error() string {
	return fmt.Sprintf("too many faces to group: %d exceeds the limit of %d", e.Count, e.Max)
}
