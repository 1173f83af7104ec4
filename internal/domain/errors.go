package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`

	base *AppError
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches copies produced by WithError/WithMessage against their sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.root() == t.root()
}

func (e *AppError) root() *AppError {
	if e.base != nil {
		return e.base
	}
	return e
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
		base:       e.root(),
	}
}

// WithMessage returns a copy carrying a caller-facing message.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Err:        e.Err,
		base:       e.root(),
	}
}

// CaptureError identifies the enrollment capture that was rejected.
// Index is zero-based; Error reports it one-based.
type CaptureError struct {
	Index  int
	Reason string
}

func (e *CaptureError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("capture %d: %s", e.Index+1, e.Reason)
	}
	return fmt.Sprintf("capture %d", e.Index+1)
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing credentials",
		StatusCode: 401,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "Access denied",
		StatusCode: 403,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests, please retry later",
		StatusCode: 429,
	}

	ErrDependencyUnavailable = &AppError{
		Code:       "DEPENDENCY_UNAVAILABLE",
		Message:    "A required service is temporarily unavailable, please retry",
		StatusCode: 503,
	}

	// Enrollment
	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrQualityRejected = &AppError{
		Code:       "QUALITY_REJECTED",
		Message:    "Image quality too low for reliable recognition",
		StatusCode: 422,
	}

	ErrInconsistentCaptures = &AppError{
		Code:       "INCONSISTENT_CAPTURES",
		Message:    "Face captures are inconsistent. Please recapture all images under uniform lighting.",
		StatusCode: 422,
	}

	ErrInsufficientCaptures = &AppError{
		Code:       "INSUFFICIENT_CAPTURES",
		Message:    "At least 5 face captures are required",
		StatusCode: 422,
	}

	ErrTooManyCaptures = &AppError{
		Code:       "TOO_MANY_CAPTURES",
		Message:    "At most 10 face captures are accepted",
		StatusCode: 422,
	}

	ErrNotEnrolled = &AppError{
		Code:       "NOT_ENROLLED",
		Message:    "No face enrolled for this identity",
		StatusCode: 404,
	}

	ErrFaceMismatch = &AppError{
		Code:       "FACE_MISMATCH",
		Message:    "Face verification failed",
		StatusCode: 401,
	}

	// Attendance
	ErrAlreadyCheckedIn = &AppError{
		Code:       "ALREADY_CHECKED_IN",
		Message:    "Already checked in today",
		StatusCode: 409,
	}

	ErrNoCheckIn = &AppError{
		Code:       "NO_CHECK_IN",
		Message:    "No check-in found for today",
		StatusCode: 409,
	}

	ErrAlreadyCheckedOut = &AppError{
		Code:       "ALREADY_CHECKED_OUT",
		Message:    "Already checked out today",
		StatusCode: 409,
	}

	// Both token errors render identically so callers cannot tell an
	// unknown token from an expired one.
	ErrInvalidToken = &AppError{
		Code:       "INVALID_TOKEN",
		Message:    "Invalid or expired token",
		StatusCode: 401,
	}

	ErrTokenExpired = &AppError{
		Code:       "INVALID_TOKEN",
		Message:    "Invalid or expired token",
		StatusCode: 401,
	}

	// Matcher
	ErrDimensionMismatch = &AppError{
		Code:       "DIMENSION_MISMATCH",
		Message:    "Descriptor dimensions do not match",
		StatusCode: 500,
	}

	ErrEmptySet = &AppError{
		Code:       "EMPTY_DESCRIPTOR_SET",
		Message:    "Descriptor set is empty",
		StatusCode: 500,
	}

	// Guests
	ErrConsentRequired = &AppError{
		Code:       "CONSENT_REQUIRED",
		Message:    "Consent is required to store biometric data",
		StatusCode: 400,
	}

	ErrGuestNotFound = &AppError{
		Code:       "GUEST_NOT_FOUND",
		Message:    "Guest not found",
		StatusCode: 404,
	}

	ErrUserNotFound = &AppError{
		Code:       "USER_NOT_FOUND",
		Message:    "User not found",
		StatusCode: 404,
	}
)
