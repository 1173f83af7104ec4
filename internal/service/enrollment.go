package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/saturnino-fabrica-de-software/presenca/internal/biometric"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/metrics"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
)

const DefaultEnrollConcurrency = 4

// EnrollmentService turns a batch of captures into a consistent DescriptorSet.
// It persists nothing.
type EnrollmentService struct {
	extractor   provider.FaceExtractor
	policy      biometric.QualityPolicy
	consistency float64
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

func NewEnrollmentService(extractor provider.FaceExtractor, logger *slog.Logger) *EnrollmentService {
	return &EnrollmentService{
		extractor:   extractor,
		policy:      biometric.DefaultQualityPolicy(),
		consistency: biometric.DefaultConsistencyThreshold,
		timeout:     DefaultExtractTimeout,
		concurrency: DefaultEnrollConcurrency,
		logger:      logger,
	}
}

func (s *EnrollmentService) WithConsistencyThreshold(threshold float64) *EnrollmentService {
	s.consistency = threshold
	return s
}

func (s *EnrollmentService) WithQualityPolicy(policy biometric.QualityPolicy) *EnrollmentService {
	s.policy = policy
	return s
}

func (s *EnrollmentService) WithTimeout(timeout time.Duration) *EnrollmentService {
	s.timeout = timeout
	return s
}

func (s *EnrollmentService) WithConcurrency(n int) *EnrollmentService {
	if n < 1 {
		n = 1
	}
	s.concurrency = n
	return s
}

type captureResult struct {
	extraction provider.Extraction
	found      bool
	err        error
	skipped    bool
}

func (r captureResult) failed() bool {
	return r.err != nil || !r.found
}

// Enroll extracts one descriptor per capture, gates each on quality and
// checks the set for consistency. Failures are reported for the lowest
// failing capture index, as if captures were processed one by one.
func (s *EnrollmentService) Enroll(ctx context.Context, images [][]byte) (domain.DescriptorSet, error) {
	if len(images) < domain.MinEnrollCaptures {
		metrics.Enrollments.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, domain.ErrInsufficientCaptures
	}
	if len(images) > domain.MaxEnrollCaptures {
		metrics.Enrollments.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, domain.ErrTooManyCaptures
	}

	results := s.extractAll(ctx, images)

	set := make(domain.DescriptorSet, 0, len(images))
	for i, res := range results {
		if err := s.evaluate(ctx, i, res); err != nil {
			metrics.Enrollments.WithLabelValues(resultLabel(err)).Inc()
			return nil, err
		}
		set = append(set, res.extraction.Descriptor)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("enroll: %w", err)
	}

	consistent, err := biometric.CheckConsistency(set, s.consistency)
	if err != nil {
		metrics.Enrollments.WithLabelValues(metrics.ResultError).Inc()
		return nil, fmt.Errorf("check consistency: %w", err)
	}
	if !consistent {
		metrics.Enrollments.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, domain.ErrInconsistentCaptures
	}

	metrics.Enrollments.WithLabelValues(metrics.ResultSuccess).Inc()
	s.logger.DebugContext(ctx, "captures enrolled", slog.Int("count", len(set)))

	return set, nil
}

// extractAll runs the extractor over every capture with bounded parallelism.
// Captures after a known failure are skipped since their outcome cannot be reported.
func (s *EnrollmentService) extractAll(ctx context.Context, images [][]byte) []captureResult {
	results := make([]captureResult, len(images))

	var firstFailure atomic.Int64
	firstFailure.Store(int64(len(images)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, img := range images {
		g.Go(func() error {
			if int64(i) > firstFailure.Load() {
				results[i] = captureResult{skipped: true}
				return nil
			}

			ex, found, err := extractWithTimeout(gctx, s.extractor, s.timeout, img)
			res := captureResult{extraction: ex, found: found, err: err}
			if res.failed() || !s.policy.CheckQuality(ex.Confidence, ex.Box, ex.Frame).Valid {
				lowerFailure(&firstFailure, int64(i))
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func lowerFailure(v *atomic.Int64, i int64) {
	for {
		cur := v.Load()
		if i >= cur || v.CompareAndSwap(cur, i) {
			return
		}
	}
}

func (s *EnrollmentService) evaluate(ctx context.Context, index int, res captureResult) error {
	if res.skipped {
		// unreachable: a lower index failed first
		return domain.ErrInternal
	}

	if res.err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("enroll capture %d: %w", index+1, ctx.Err())
		}
		s.logger.WarnContext(ctx, "face extraction failed",
			slog.Int("capture", index+1),
			slog.String("error", res.err.Error()),
		)
		return domain.ErrDependencyUnavailable.WithError(res.err)
	}

	if !res.found {
		return domain.ErrNoFaceDetected.
			WithError(&domain.CaptureError{Index: index}).
			WithMessage(fmt.Sprintf("No face detected in capture %d. Please try again.", index+1))
	}

	if len(res.extraction.Descriptor) != domain.DescriptorDimension {
		return domain.ErrDimensionMismatch.WithError(
			fmt.Errorf("capture %d: got %d dimensions", index+1, len(res.extraction.Descriptor)))
	}

	quality := s.policy.CheckQuality(res.extraction.Confidence, res.extraction.Box, res.extraction.Frame)
	if !quality.Valid {
		return domain.ErrQualityRejected.
			WithError(&domain.CaptureError{Index: index, Reason: string(quality.Reason)}).
			WithMessage(fmt.Sprintf("Capture %d: %s", index+1, quality.Message))
	}

	return nil
}

func resultLabel(err error) string {
	if appErr, ok := asAppError(err); ok && appErr.StatusCode < 500 {
		return metrics.ResultRejected
	}
	return metrics.ResultError
}
