package service

import (
	"context"
	"time"

	"github.com/saturnino-fabrica-de-software/presenca/internal/metrics"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
)

// DefaultExtractTimeout bounds a single extractor call.
const DefaultExtractTimeout = 10 * time.Second

func extractWithTimeout(ctx context.Context, extractor provider.FaceExtractor, timeout time.Duration, image []byte) (provider.Extraction, bool, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	ex, found, err := extractor.Extract(ctx, image)
	metrics.ExtractDuration.Observe(time.Since(start).Seconds())

	return ex, found, err
}
