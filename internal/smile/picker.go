package smile

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of images processed in parallel when
// Options.Concurrency is not set.
const DefaultConcurrency = 4

// Options configures a Picker.
type Options struct {
	// BasePath is the directory image names are resolved against.
	BasePath string
	// Concurrency limits parallel detection calls per request.
	Concurrency int
	// MaxGroupIDs caps the number of faces sent to one grouping call.
	MaxGroupIDs int
	// OnImageDone, if set, is called after each image has been processed.
	// It may be called from several goroutines at once.
	OnImageDone func(name string, faces int)
}

// Picker runs a whole request: detection over every image, grouping, and
// selection of the best face.
type Picker struct {
	basePath    string
	concurrency int
	maxGroupIDs int
	onImageDone func(name string, faces int)
	service     FaceService
	log         logrus.FieldLogger
}

// NewPicker creates a picker backed by the given face service.
func NewPicker(service FaceService, opts Options, log logrus.FieldLogger) *Picker {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Picker{
		basePath:    opts.BasePath,
		concurrency: concurrency,
		maxGroupIDs: opts.MaxGroupIDs,
		onImageDone: opts.OnImageDone,
		service:     service,
		log:         log,
	}
}

// Pick returns the best face of the person seen most often in the named
// images. Any failure aborts the whole request and is returned unchanged.
func (p *Picker) Pick(ctx context.Context, names []string) (*Result, error) {
	requestID, ok := RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
		ctx = ContextWithRequestID(ctx, requestID)
	}
	log := p.log.WithField("request_id", requestID)
	log.WithField("images", len(names)).Info("processing request")

	extractor := NewExtractor(p.service, log)
	results := make([][]FaceRecord, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			records, err := extractor.Extract(gctx, filepath.Join(p.basePath, name), name)
			if err != nil {
				return err
			}
			results[i] = records
			if p.onImageDone != nil {
				p.onImageDone(name, len(records))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("image processing failed")
		return nil, err
	}

	registry := NewRegistry()
	for _, records := range results {
		registry.AddAll(records)
	}
	log.WithField("faces", registry.Len()).Debug("faces collected")

	resolver := NewResolver(p.service, p.maxGroupIDs, log)
	table, err := resolver.Resolve(ctx, registry.Snapshot())
	if err != nil {
		log.WithError(err).Warn("grouping failed")
		return nil, err
	}

	best, err := SelectBest(table)
	if err != nil {
		log.WithError(err).Info("nothing to pick")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"face_id":  best.Best.FaceID,
		"image":    best.Best.ImageName,
		"ratio":    best.Best.Ratio,
		"members":  best.Members,
		"clusters": table.Len(),
	}).Info("best smile selected")

	return &Result{Data: best.Best.Metadata, Path: best.Best.ImageName}, nil
}
