package rekognition

import (
	"context"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/smithy-go"
)

const (
	errCodeAccessDenied     = "AccessDeniedException"
	errCodeInvalidParameter = "InvalidParameterException"
	errCodeInvalidImage     = "InvalidImageFormatException"
	errCodeThrottling       = "ThrottlingException"
	errCodeThroughput       = "ProvisionedThroughputExceededException"
)

// API is the subset of the Rekognition client the detector uses.
type API interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

// NewClient creates a Rekognition client using the AWS default credential chain
func NewClient(ctx context.Context, cfg Config) (*rekognition.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return rekognition.NewFromConfig(awsCfg), nil
}

// parseAPIError maps AWS error codes to package errors.
// noFace is true when AWS rejected the image because it holds no usable face.
func parseAPIError(err error) (noFace bool, mapped error) {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false, err
	}

	switch apiErr.ErrorCode() {
	case errCodeAccessDenied:
		return false, fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.ErrorMessage())
	case errCodeInvalidImage:
		return false, fmt.Errorf("%w: %s", ErrInvalidImage, apiErr.ErrorMessage())
	case errCodeInvalidParameter:
		return true, nil
	case errCodeThrottling, errCodeThroughput:
		return false, fmt.Errorf("%w: %s", ErrThrottled, apiErr.ErrorMessage())
	}

	return false, err
}
