package faceapi

import (
	"context"
	"fmt"

	"github.com/kozaktomas/best-smile/internal/smile"
)

// Service adapts a Client to smile.FaceService.
type Service struct {
	client *Client
}

// NewService wraps a client.
func NewService(client *Client) *Service {
	return &Service{client: client}
}

// Detect implements smile.FaceService.
func (s *Service) Detect(ctx context.Context, image []byte) ([]smile.Detection, error) {
	faces, err := s.client.Detect(ctx, image)
	if err != nil {
		return nil, err
	}

	detections := make([]smile.Detection, 0, len(faces))
	for i, f := range faces {
		if f.FaceRectangle == nil {
			return nil, fmt.Errorf("detected face %d (%q) has no faceRectangle", i, f.FaceID)
		}
		detections = append(detections, smile.Detection{
			FaceID: f.FaceID,
			Rectangle: smile.Rectangle{
				Left:   f.FaceRectangle.Left,
				Top:    f.FaceRectangle.Top,
				Width:  f.FaceRectangle.Width,
				Height: f.FaceRectangle.Height,
			},
			Raw: f.Raw,
		})
	}
	return detections, nil
}

// Group implements smile.FaceService.
func (s *Service) Group(ctx context.Context, faceIDs []string) (*smile.Partition, error) {
	res, err := s.client.Group(ctx, faceIDs)
	if err != nil {
		return nil, err
	}
	return &smile.Partition{Groups: res.Groups, Ungrouped: res.MessyGroup}, nil
}
