package rekognition

import "errors"

var (
	// ErrInvalidCredentials indicates that AWS credentials are invalid or missing
	ErrInvalidCredentials = errors.New("invalid or missing AWS credentials")

	// ErrInvalidImage indicates the image was rejected before reaching AWS
	ErrInvalidImage = errors.New("invalid image for rekognition")

	// ErrThrottled indicates AWS throttled the request
	ErrThrottled = errors.New("rekognition request throttled")
)
