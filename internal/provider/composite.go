package provider

import (
	"context"
	"fmt"
)

// Composite takes confidence and box from a dedicated detector and the
// descriptor from an extractor.
type Composite struct {
	detector  FaceDetector
	extractor FaceExtractor
}

var _ FaceExtractor = (*Composite)(nil)

func NewComposite(detector FaceDetector, extractor FaceExtractor) *Composite {
	return &Composite{detector: detector, extractor: extractor}
}

// Ping checks the extractor when it can be checked. The detector is a
// managed cloud API and is assumed reachable.
func (c *Composite) Ping(ctx context.Context) error {
	if p, ok := c.extractor.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *Composite) Extract(ctx context.Context, image []byte) (Extraction, bool, error) {
	det, found, err := c.detector.Detect(ctx, image)
	if err != nil {
		return Extraction{}, false, fmt.Errorf("detect: %w", err)
	}
	if !found {
		return Extraction{}, false, nil
	}

	ex, found, err := c.extractor.Extract(ctx, image)
	if err != nil {
		return Extraction{}, false, fmt.Errorf("extract: %w", err)
	}
	if !found {
		return Extraction{}, false, nil
	}

	ex.Detection = det
	return ex, true, nil
}
