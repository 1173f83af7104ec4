package service

import (
	"errors"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

func asAppError(err error) (*domain.AppError, bool) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
