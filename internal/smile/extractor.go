package smile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Extractor turns one image into face records.
type Extractor struct {
	service FaceService
	log     logrus.FieldLogger
}

// NewExtractor creates an extractor backed by the given face service.
func NewExtractor(service FaceService, log logrus.FieldLogger) *Extractor {
	return &Extractor{service: service, log: log}
}

// Extract reads the image at path, detects its faces and computes each face's
// ratio of the image area. name is recorded as the records' image name.
// An image without faces yields no records and no error.
func (e *Extractor) Extract(ctx context.Context, path, name string) ([]FaceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ImageReadError{Image: name, Err: err}
	}

	area, err := imageArea(data)
	if err != nil {
		return nil, &ImageReadError{Image: name, Err: err}
	}

	detections, err := e.service.Detect(ctx, data)
	if err != nil {
		return nil, &DetectionError{Image: name, Err: err}
	}

	records := make([]FaceRecord, 0, len(detections))
	for i, d := range detections {
		if d.FaceID == "" {
			return nil, &DetectionError{Image: name, Err: fmt.Errorf("detection %d has no face id", i)}
		}
		if d.Rectangle.Width <= 0 || d.Rectangle.Height <= 0 {
			return nil, &DetectionError{Image: name, Err: fmt.Errorf("face %s has an empty rectangle", d.FaceID)}
		}
		if d.Rectangle.Area() > area {
			return nil, &DetectionError{Image: name, Err: fmt.Errorf("face %s is larger than the image", d.FaceID)}
		}
		records = append(records, FaceRecord{
			FaceID:    d.FaceID,
			ImageName: name,
			Ratio:     float64(d.Rectangle.Area()) / float64(area),
			Metadata:  d.Raw,
		})
	}

	e.log.WithFields(logrus.Fields{
		"image": name,
		"area":  area,
		"faces": len(records),
	}).Debug("image processed")
	return records, nil
}

// imageArea returns width*height of an encoded image without decoding pixels.
func imageArea(data []byte) (int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, errors.New("image has no pixels")
	}
	return cfg.Width * cfg.Height, nil
}
