package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/saturnino-fabrica-de-software/presenca/internal/audit"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// verifyIdentity requires image to match the identity's enrolled set.
// Rejected faces are audited.
func verifyIdentity(ctx context.Context, descriptors DescriptorStore, verification *VerificationService, auditLog audit.Logger, logger *slog.Logger, identity domain.Identity, image []byte) error {
	set, err := descriptors.Get(ctx, identity)
	if err != nil {
		if _, ok := asAppError(err); ok {
			return err
		}
		return fmt.Errorf("%s: get descriptors: %w", identity.Key(), err)
	}

	result, err := verification.Verify(ctx, image, set)
	if err != nil {
		return err
	}
	if !result.Match {
		if err := auditLog.Log(ctx, audit.Event{
			Type:    audit.EventFaceRejected,
			Subject: identity,
			Err:     domain.ErrFaceMismatch,
			Details: map[string]string{"distance": strconv.FormatFloat(result.Distance, 'f', 2, 64)},
		}); err != nil {
			logger.WarnContext(ctx, "audit log failed",
				slog.String("identity", identity.Key()),
				slog.String("error", err.Error()),
			)
		}
		return domain.ErrFaceMismatch
	}
	return nil
}
