package smile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakeService is an in-memory FaceService keyed by image width, which lets
// tests tell generated images apart without inspecting pixels.
type fakeService struct {
	mu         sync.Mutex
	detections map[int][]Detection
	detectErr  map[int]error
	partition  *Partition
	groupErr   error
	groupCalls [][]string
}

func newFakeService() *fakeService {
	return &fakeService{
		detections: make(map[int][]Detection),
		detectErr:  make(map[int]error),
	}
}

func (f *fakeService) Detect(ctx context.Context, data []byte) ([]Detection, error) {
	width, err := imageWidth(data)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.detectErr[width]; err != nil {
		return nil, err
	}
	return f.detections[width], nil
}

func (f *fakeService) Group(_ context.Context, ids []string) (*Partition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupCalls = append(f.groupCalls, ids)
	if f.groupErr != nil {
		return nil, f.groupErr
	}
	return f.partition, nil
}

func imageWidth(data []byte) (int, error) {
	img, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("fake detector: %w", err)
	}
	return img.Width, nil
}

// writePNG writes a blank PNG of the given size into dir and returns its name.
func writePNG(t *testing.T, dir, name string, width, height int) string {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, width, height))); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return name
}

// detection builds a detection whose raw payload mirrors the remote API shape.
func detection(id string, width, height int) Detection {
	raw, _ := json.Marshal(map[string]any{
		"faceId": id,
		"faceRectangle": map[string]int{
			"width": width, "height": height, "top": 0, "left": 0,
		},
	})
	return Detection{
		FaceID:    id,
		Rectangle: Rectangle{Width: width, Height: height},
		Raw:       raw,
	}
}

func record(id string, ratio float64) FaceRecord {
	return FaceRecord{FaceID: id, ImageName: id + ".jpg", Ratio: ratio}
}

func snapshotOf(records ...FaceRecord) *Snapshot {
	r := NewRegistry()
	r.AddAll(records)
	return r.Snapshot()
}

func nullLogger() (logrus.FieldLogger, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}
