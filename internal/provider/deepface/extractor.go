package deepface

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
)

const (
	// minFaceArea is the minimum face area (in pixels²) for reliable detection
	minFaceArea = 2500 // 50x50 pixels
	// maxFaceArea is used for confidence scaling
	maxFaceArea = 250000 // 500x500 pixels
)

// Extractor implements provider.FaceExtractor using the DeepFace API
type Extractor struct {
	client *Client
}

var _ provider.FaceExtractor = (*Extractor)(nil)

// NewExtractor creates a new DeepFace extractor
func NewExtractor(config Config) *Extractor {
	return &Extractor{client: NewClient(config)}
}

// Client exposes the underlying HTTP client for health checks.
func (e *Extractor) Client() *Client {
	return e.client
}

// Ping reports whether the DeepFace server answers.
func (e *Extractor) Ping(ctx context.Context) error {
	return e.client.Health(ctx)
}

// Extract returns the descriptor of the largest face in the image.
func (e *Extractor) Extract(ctx context.Context, image []byte) (provider.Extraction, bool, error) {
	resp, err := e.client.Represent(ctx, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		if isNoFace(err) {
			return provider.Extraction{}, false, nil
		}
		return provider.Extraction{}, false, fmt.Errorf("represent: %w", err)
	}

	if len(resp.Results) == 0 {
		return provider.Extraction{}, false, nil
	}

	best := resp.Results[0]
	for _, r := range resp.Results[1:] {
		if r.FacialArea.area() > best.FacialArea.area() {
			best = r
		}
	}

	if len(best.Embedding) != domain.DescriptorDimension {
		return provider.Extraction{}, false, fmt.Errorf("%w: got %d, want %d",
			ErrUnexpectedDimension, len(best.Embedding), domain.DescriptorDimension)
	}

	descriptor := make(domain.Descriptor, len(best.Embedding))
	for i, v := range best.Embedding {
		descriptor[i] = float32(v)
	}

	confidence := estimateConfidence(best.FacialArea.area())
	if best.FaceConfidence != nil && *best.FaceConfidence > 0 {
		confidence = *best.FaceConfidence
	}

	box := domain.BoundingBox{
		X:      float64(best.FacialArea.X),
		Y:      float64(best.FacialArea.Y),
		Width:  float64(best.FacialArea.W),
		Height: float64(best.FacialArea.H),
	}
	return provider.Extraction{
		Detection: provider.Detection{
			Confidence: confidence,
			Box:        box,
			Frame:      provider.CaptureFrame(image),
		},
		Descriptor: descriptor,
	}, true, nil
}

// isNoFace recognises the 400 DeepFace answers with when enforce_detection
// finds nothing.
func isNoFace(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 400 {
		return false
	}
	return strings.Contains(strings.ToLower(statusErr.Body), "could not be detected")
}

// estimateConfidence is used when DeepFace omits face_confidence.
// Larger faces are more likely to be accurately detected.
func estimateConfidence(faceArea float64) float64 {
	if faceArea < minFaceArea {
		return 0.5
	}
	normalized := math.Min(1.0, (faceArea-minFaceArea)/(maxFaceArea-minFaceArea))
	return 0.7 + (normalized * 0.29)
}
