package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/presenca/internal/biometric"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/metrics"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
)

// VerificationService matches a live capture against an enrolled set.
type VerificationService struct {
	extractor provider.FaceExtractor
	threshold float64
	timeout   time.Duration
	logger    *slog.Logger
}

func NewVerificationService(extractor provider.FaceExtractor, logger *slog.Logger) *VerificationService {
	return &VerificationService{
		extractor: extractor,
		threshold: biometric.DefaultMatchThreshold,
		timeout:   DefaultExtractTimeout,
		logger:    logger,
	}
}

func (s *VerificationService) WithThreshold(threshold float64) *VerificationService {
	s.threshold = threshold
	return s
}

func (s *VerificationService) WithTimeout(timeout time.Duration) *VerificationService {
	s.timeout = timeout
	return s
}

// Verify reports whether image shows the owner of candidates. A capture
// without a face is not an error: it yields domain.NoFaceResult.
func (s *VerificationService) Verify(ctx context.Context, image []byte, candidates domain.DescriptorSet) (domain.VerificationResult, error) {
	if len(candidates) == 0 {
		return domain.VerificationResult{}, domain.ErrEmptySet
	}

	ex, found, err := extractWithTimeout(ctx, s.extractor, s.timeout, image)
	if err != nil {
		metrics.Verifications.WithLabelValues(metrics.ResultError).Inc()
		if ctx.Err() != nil {
			return domain.VerificationResult{}, fmt.Errorf("verify: %w", ctx.Err())
		}
		s.logger.WarnContext(ctx, "face extraction failed", slog.String("error", err.Error()))
		return domain.VerificationResult{}, domain.ErrDependencyUnavailable.WithError(err)
	}

	if !found {
		metrics.Verifications.WithLabelValues(metrics.ResultNoFace).Inc()
		return domain.NoFaceResult, nil
	}

	s.logger.DebugContext(ctx, "face extracted for verification",
		slog.Float64("confidence", ex.Confidence),
	)

	result, err := biometric.MatchBest(ex.Descriptor, candidates, s.threshold)
	if err != nil {
		metrics.Verifications.WithLabelValues(metrics.ResultError).Inc()
		return domain.VerificationResult{}, fmt.Errorf("match descriptors: %w", err)
	}

	metrics.VerificationDistance.Observe(result.Distance)
	if result.Match {
		metrics.Verifications.WithLabelValues(metrics.ResultMatch).Inc()
	} else {
		metrics.Verifications.WithLabelValues(metrics.ResultMismatch).Inc()
	}

	return result, nil
}
