// Package faceapi is a client for a cloud face API offering the
// detect and group operations (Azure Face API v1.0 wire format).
package faceapi

import (
	"encoding/json"
	"fmt"
)

// FaceRectangle is the bounding box of a detected face in pixels.
type FaceRectangle struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	Top    int `json:"top"`
	Left   int `json:"left"`
}

// DetectedFace is one element of the detect response. Raw holds the complete
// JSON object as returned by the service.
type DetectedFace struct {
	FaceID        string          `json:"faceId"`
	FaceRectangle *FaceRectangle  `json:"faceRectangle"`
	Raw           json.RawMessage `json:"-"`
}

// groupRequest is the body of the group call.
type groupRequest struct {
	FaceIDs []string `json:"faceIds"`
}

// GroupResult is the response of the group call.
type GroupResult struct {
	Groups     [][]string `json:"groups"`
	MessyGroup []string   `json:"messyGroup"`
}

// APIError is returned when the service answers with a non-success status.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("face API request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("face API request failed with status %d: %s: %s", e.StatusCode, e.Code, e.Message)
}

// errorEnvelope is the service's error body: {"error": {"code": ..., "message": ...}}.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// parseAPIError builds an APIError from a failed response body.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Message: string(body)}
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
	}
	return apiErr
}
