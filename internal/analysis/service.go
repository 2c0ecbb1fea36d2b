// Package analysis runs uploaded water images through the vision API and
// the coverage model.
package analysis

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/hyacinth-monitor/internal/artifacts"
	"github.com/i474232898/hyacinth-monitor/internal/telemetry"
)

// MaxImageBytes caps the size of an analysed image.
const MaxImageBytes = 5 << 20

var supportedTypes = []string{"image/png", "image/jpeg"}

// VisionAnalyzer is the generative vision collaborator.
type VisionAnalyzer interface {
	Analyze(ctx context.Context, image []byte, mimeType string) (Vision, error)
}

// CoverageModel is the locally hosted model collaborator.
type CoverageModel interface {
	Predict(ctx context.Context, image []byte) (ModelOutput, error)
}

// Analysis is the combined result for one image.
type Analysis struct {
	ID        string       `json:"id"`
	Filename  string       `json:"filename"`
	MimeType  string       `json:"mimeType"`
	Location  string       `json:"location,omitempty"`
	Vision    Vision       `json:"vision"`
	Model     *ModelOutput `json:"model,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Service orchestrates storage and the two collaborators.
type Service struct {
	vision VisionAnalyzer
	model  CoverageModel
	store  artifacts.Store
	now    func() time.Time
}

// NewService creates a new Service. model and store may be nil, in which
// case that step is skipped.
func NewService(vision VisionAnalyzer, model CoverageModel, store artifacts.Store) *Service {
	return &Service{
		vision: vision,
		model:  model,
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Analyze validates the image, archives it and runs the collaborators
// concurrently.
func (s *Service) Analyze(ctx context.Context, filename string, image []byte) (Analysis, error) {
	if len(image) == 0 {
		return Analysis{}, fmt.Errorf("%w: empty image", telemetry.ErrInvalidArgument)
	}
	if len(image) > MaxImageBytes {
		return Analysis{}, fmt.Errorf("%w: image exceeds %d bytes", telemetry.ErrInvalidArgument, MaxImageBytes)
	}
	mt := mimetype.Detect(image)
	if !mimetype.EqualsAny(mt.String(), supportedTypes...) {
		return Analysis{}, fmt.Errorf("%w: unsupported image type %s", telemetry.ErrInvalidArgument, mt.String())
	}
	if s.vision == nil {
		return Analysis{}, fmt.Errorf("%w: vision analyzer not configured", telemetry.ErrUpstreamUnavailable)
	}

	now := s.now()
	result := Analysis{
		ID:        uuid.NewString(),
		Filename:  artifacts.BaseName(filename),
		MimeType:  mt.String(),
		CreatedAt: now,
	}

	g, gctx := errgroup.WithContext(ctx)

	if s.store != nil {
		key := fmt.Sprintf("predictions/%d-%s", now.UnixMilli(), result.Filename)
		g.Go(func() error {
			loc, err := s.store.Put(gctx, key, bytes.NewReader(image), int64(len(image)), mt.String())
			if err != nil {
				return fmt.Errorf("archive image: %w", err)
			}
			result.Location = loc
			return nil
		})
	}

	g.Go(func() error {
		v, err := s.vision.Analyze(gctx, image, mt.String())
		if err != nil {
			return fmt.Errorf("%w: vision: %v", telemetry.ErrUpstreamUnavailable, err)
		}
		result.Vision = v
		return nil
	})

	if s.model != nil {
		g.Go(func() error {
			out, err := s.model.Predict(gctx, image)
			if err != nil {
				return fmt.Errorf("%w: model: %v", telemetry.ErrUpstreamUnavailable, err)
			}
			result.Model = &out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Printf("ERROR: analysis %s failed: %v", result.ID, err)
		return Analysis{}, err
	}

	log.Printf("INFO: analysis %s complete: coverage=%.1f growth=%.1f", result.ID, result.Vision.Coverage, result.Vision.GrowthRate)
	return result, nil
}
