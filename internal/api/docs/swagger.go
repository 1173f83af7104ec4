package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// GuestData represents a guest profile
type GuestData struct {
	ID             string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Name           string `json:"name" example:"Bruna Lima"`
	Email          string `json:"email" example:"bruna@example.com"`
	Purpose        string `json:"purpose,omitempty" example:"Vendor meeting"`
	Consent        bool   `json:"consent" example:"true"`
	ConsentAt      string `json:"consent_at,omitempty" example:"2026-03-02T08:40:00Z"`
	CreatedAt      string `json:"created_at" example:"2026-03-02T08:40:00Z"`
	LastActivityAt string `json:"last_activity_at" example:"2026-03-02T08:45:00Z"`
	ExpiresAt      string `json:"expires_at" example:"2026-03-09T08:45:00Z"`
}

// GuestSessionResponse is returned whenever a guest token is issued
type GuestSessionResponse struct {
	Guest          GuestData `json:"guest"`
	Token          string    `json:"token" example:"kq3N0pYw3l9yq4iH2yRrjT3bVQ4mYzQ0b2kzZk1n8xA"`
	TokenExpiresAt string    `json:"token_expires_at" example:"2026-03-02T20:40:00Z"`
}

// AttendanceRecordData represents one day of attendance
type AttendanceRecordData struct {
	ID           string  `json:"id" example:"6ba7b810-9dad-11d1-80b4-00c04fd430c8"`
	IdentityKind string  `json:"identity_kind" example:"guest"`
	IdentityID   string  `json:"identity_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Date         string  `json:"date" example:"2026-03-02"`
	CheckInTime  string  `json:"check_in_time" example:"2026-03-02T08:45:00Z"`
	CheckOutTime string  `json:"check_out_time,omitempty" example:"2026-03-02T17:15:00Z"`
	Status       string  `json:"status" example:"present"`
	HoursWorked  float64 `json:"hours_worked" example:"8.5"`
	CreatedAt    string  `json:"created_at" example:"2026-03-02T08:45:00Z"`
	UpdatedAt    string  `json:"updated_at" example:"2026-03-02T17:15:00Z"`
}

// GuestStatusResponse is a guest profile with today's record
type GuestStatusResponse struct {
	Guest GuestData             `json:"guest"`
	Today *AttendanceRecordData `json:"today"`
}

// TodayResponse carries today's record of a registered user
type TodayResponse struct {
	Record *AttendanceRecordData `json:"record"`
}

// HistoryResponse wraps an attendance listing
type HistoryResponse struct {
	Records []AttendanceRecordData `json:"records"`
	Count   int                    `json:"count" example:"1"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

var (
	multipartForm = []mime.MIME{mime.MIME("multipart/form-data")}
	jsonOnly      = []mime.MIME{mime.JSON}

	staffAuth = []map[string][]string{{"BearerAuth": {}}}
	guestAuth = []map[string][]string{{"GuestToken": {}}}

	errInternal      = response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	errUnavailable   = response.New(ErrorResponse{Code: "DEPENDENCY_UNAVAILABLE", Message: "A required service is temporarily unavailable, please retry"}, "503", "Service Unavailable")
	errUnauthorized  = response.New(ErrorResponse{Code: "UNAUTHORIZED", Message: "Invalid or missing credentials"}, "401", "Unauthorized")
	errInvalidToken  = response.New(ErrorResponse{Code: "INVALID_TOKEN", Message: "Invalid or expired token"}, "401", "Unauthorized")
	errFaceMismatch  = response.New(ErrorResponse{Code: "FACE_MISMATCH", Message: "Face verification failed"}, "401", "Unauthorized")
	errInvalidImage  = response.New(ErrorResponse{Code: "INVALID_IMAGE", Message: "Invalid image format or corrupted file"}, "422", "Unprocessable Entity")
	errNoFace        = response.New(ErrorResponse{Code: "NO_FACE_DETECTED", Message: "No face detected in the image"}, "422", "Unprocessable Entity")
	errRateLimit     = response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Too many requests, please retry later"}, "429", "Too Many Requests")
	errCheckedIn     = response.New(ErrorResponse{Code: "ALREADY_CHECKED_IN", Message: "Already checked in today"}, "409", "Conflict")
	errNoCheckIn     = response.New(ErrorResponse{Code: "NO_CHECK_IN", Message: "No check-in found for today"}, "409", "Conflict")
	errCheckedOut    = response.New(ErrorResponse{Code: "ALREADY_CHECKED_OUT", Message: "Already checked out today"}, "409", "Conflict")
	errNotEnrolled   = response.New(ErrorResponse{Code: "NOT_ENROLLED", Message: "No face enrolled for this identity"}, "404", "Not Found")
	errInconsistent  = response.New(ErrorResponse{Code: "INCONSISTENT_CAPTURES", Message: "Face captures are inconsistent. Please recapture all images under uniform lighting."}, "422", "Unprocessable Entity")
	errInsufficient  = response.New(ErrorResponse{Code: "INSUFFICIENT_CAPTURES", Message: "At least 5 face captures are required"}, "422", "Unprocessable Entity")
	errTooMany       = response.New(ErrorResponse{Code: "TOO_MANY_CAPTURES", Message: "At most 10 face captures are accepted"}, "422", "Unprocessable Entity")
	errQuality       = response.New(ErrorResponse{Code: "QUALITY_REJECTED", Message: "Image quality too low for reliable recognition"}, "422", "Unprocessable Entity")
	errValidation    = response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity")
	errConsent       = response.New(ErrorResponse{Code: "CONSENT_REQUIRED", Message: "Consent is required to store biometric data"}, "400", "Bad Request")
	errForbidden     = response.New(ErrorResponse{Code: "FORBIDDEN", Message: "Access denied"}, "403", "Forbidden")
	enrollmentErrors = []response.Response{errValidation, errInvalidImage, errNoFace, errQuality, errInconsistent, errInsufficient, errTooMany, errUnavailable, errInternal}
)

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Presenca Attendance API",
		Version:     "v1.0.0",
		Description: "Face-verified attendance for registered staff and self-enrolled guests",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	endpoints := []*endpoint.EndPoint{
		// Guest endpoints

		// POST /v1/guests/enroll
		endpoint.New(
			endpoint.POST,
			"/guests/enroll",
			endpoint.WithTags("Guests"),
			endpoint.WithSummary("Self-enroll a guest"),
			endpoint.WithDescription("Registers a guest from 5 to 10 face captures (form field images) and issues a bearer token. Enrolling an existing email re-enrolls that guest only when the new captures match the face on file."),
			endpoint.WithConsume(multipartForm),
			endpoint.WithProduce(jsonOnly),
			endpoint.WithParams(
				parameter.StrParam("name", parameter.Form, parameter.WithRequired()),
				parameter.StrParam("email", parameter.Form, parameter.WithRequired()),
				parameter.StrParam("purpose", parameter.Form),
				parameter.StrParam("consent", parameter.Form, parameter.WithRequired(), parameter.WithDescription("true, 1, on or yes to consent to biometric storage")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(GuestSessionResponse{}, "201", "Guest enrolled"),
			}),
			endpoint.WithErrors(append([]response.Response{errConsent, errFaceMismatch, errRateLimit}, enrollmentErrors...)),
		),

		// POST /v1/guests/resume
		endpoint.New(
			endpoint.POST,
			"/guests/resume",
			endpoint.WithTags("Guests"),
			endpoint.WithSummary("Resume a guest session"),
			endpoint.WithDescription("Issues a fresh token to a returning guest whose face (form field image) matches the enrolled one. The previous token is revoked."),
			endpoint.WithConsume(multipartForm),
			endpoint.WithProduce(jsonOnly),
			endpoint.WithParams(
				parameter.StrParam("email", parameter.Form, parameter.WithRequired()),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(GuestSessionResponse{}, "200", "Token issued"),
			}),
			endpoint.WithErrors([]response.Response{errValidation, errFaceMismatch, errInvalidImage, errNoFace, errRateLimit, errUnavailable, errInternal}),
		),

		// POST /v1/guests/check-in
		endpoint.New(
			endpoint.POST,
			"/guests/check-in",
			endpoint.WithTags("Guests"),
			endpoint.WithSummary("Guest check-in"),
			endpoint.WithDescription("Verifies the guest's face and opens today's attendance record"),
			endpoint.WithConsume(multipartForm),
			endpoint.WithProduce(jsonOnly),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceRecordData{}, "201", "Checked in"),
			}),
			endpoint.WithErrors([]response.Response{errInvalidToken, errCheckedIn, errInvalidImage, errNoFace, errUnavailable, errInternal}),
			endpoint.WithSecurity(guestAuth),
		),

		// POST /v1/guests/check-out
		endpoint.New(
			endpoint.POST,
			"/guests/check-out",
			endpoint.WithTags("Guests"),
			endpoint.WithSummary("Guest check-out"),
			endpoint.WithDescription("Verifies the guest's face and closes today's attendance record"),
			endpoint.WithConsume(multipartForm),
			endpoint.WithProduce(jsonOnly),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceRecordData{}, "200", "Checked out"),
			}),
			endpoint.WithErrors([]response.Response{errInvalidToken, errNoCheckIn, errCheckedOut, errInvalidImage, errNoFace, errUnavailable, errInternal}),
			endpoint.WithSecurity(guestAuth),
		),

		// GET /v1/guests/status
		endpoint.New(
			endpoint.GET,
			"/guests/status",
			endpoint.WithTags("Guests"),
			endpoint.WithSummary("Guest status"),
			endpoint.WithDescription("Returns the guest profile and today's attendance record, if any"),
			endpoint.WithProduce(jsonOnly),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(GuestStatusResponse{}, "200", "Status retrieved"),
			}),
			endpoint.WithErrors([]response.Response{errInvalidToken, errInternal}),
			endpoint.WithSecurity(guestAuth),
		),

		// GET /v1/guests/history
		endpoint.New(
			endpoint.GET,
			"/guests/history",
			endpoint.WithTags("Guests"),
			endpoint.WithSummary("Guest attendance history"),
			endpoint.WithDescription("Lists the guest's attendance records, newest first"),
			endpoint.WithProduce(jsonOnly),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of records (default 30, max 366)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HistoryResponse{}, "200", "History retrieved"),
			}),
			endpoint.WithErrors([]response.Response{errInvalidToken, errInternal}),
			endpoint.WithSecurity(guestAuth),
		),

		// POST /v1/guests/logout
		endpoint.New(
			endpoint.POST,
			"/guests/logout",
			endpoint.WithTags("Guests"),
			endpoint.WithSummary("Revoke the guest token"),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Token revoked"),
			}),
			endpoint.WithErrors([]response.Response{errInvalidToken, errInternal}),
			endpoint.WithSecurity(guestAuth),
		),

		// Staff endpoints

		// PUT /v1/users/me/face
		endpoint.New(
			endpoint.PUT,
			"/users/me/face",
			endpoint.WithTags("Users"),
			endpoint.WithSummary("Enroll the caller's face"),
			endpoint.WithDescription("Replaces the caller's enrolled face with 5 to 10 captures (form field images)"),
			endpoint.WithConsume(multipartForm),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Face enrolled"),
			}),
			endpoint.WithErrors(append([]response.Response{errUnauthorized}, enrollmentErrors...)),
			endpoint.WithSecurity(staffAuth),
		),

		// POST /v1/attendance/check-in
		endpoint.New(
			endpoint.POST,
			"/attendance/check-in",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Staff check-in"),
			endpoint.WithDescription("Verifies the caller's face (form field image) and opens today's attendance record"),
			endpoint.WithConsume(multipartForm),
			endpoint.WithProduce(jsonOnly),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceRecordData{}, "201", "Checked in"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errFaceMismatch, errNotEnrolled, errCheckedIn, errInvalidImage, errNoFace, errUnavailable, errInternal}),
			endpoint.WithSecurity(staffAuth),
		),

		// POST /v1/attendance/check-out
		endpoint.New(
			endpoint.POST,
			"/attendance/check-out",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Staff check-out"),
			endpoint.WithDescription("Verifies the caller's face (form field image) and closes today's attendance record"),
			endpoint.WithConsume(multipartForm),
			endpoint.WithProduce(jsonOnly),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(AttendanceRecordData{}, "200", "Checked out"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errFaceMismatch, errNotEnrolled, errNoCheckIn, errCheckedOut, errInvalidImage, errNoFace, errUnavailable, errInternal}),
			endpoint.WithSecurity(staffAuth),
		),

		// GET /v1/attendance/today
		endpoint.New(
			endpoint.GET,
			"/attendance/today",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Today's record"),
			endpoint.WithProduce(jsonOnly),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(TodayResponse{}, "200", "Record retrieved; null when not checked in"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errInternal}),
			endpoint.WithSecurity(staffAuth),
		),

		// GET /v1/attendance/my-records
		endpoint.New(
			endpoint.GET,
			"/attendance/my-records",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("Caller's attendance history"),
			endpoint.WithProduce(jsonOnly),
			endpoint.WithParams(
				parameter.IntParam("limit", parameter.Query, parameter.WithDescription("Maximum number of records (default 30, max 366)")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HistoryResponse{}, "200", "History retrieved"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errInternal}),
			endpoint.WithSecurity(staffAuth),
		),

		// GET /v1/attendance/date/:date
		endpoint.New(
			endpoint.GET,
			"/attendance/date/{date}",
			endpoint.WithTags("Attendance"),
			endpoint.WithSummary("All records of a date"),
			endpoint.WithDescription("Lists every attendance record of the date, staff and guests alike. Requires the admin role."),
			endpoint.WithProduce(jsonOnly),
			endpoint.WithParams(
				parameter.StrParam("date", parameter.Path, parameter.WithRequired(), parameter.WithDescription("Date as YYYY-MM-DD")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HistoryResponse{}, "200", "Records retrieved"),
			}),
			endpoint.WithErrors([]response.Response{errUnauthorized, errForbidden, errValidation, errInternal}),
			endpoint.WithSecurity(staffAuth),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
