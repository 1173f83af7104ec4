package face

import (
	"context"
	"fmt"

	"github.com/saturnino-fabrica-de-software/presenca/internal/config"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider/mock"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider/rekognition"
)

// ProviderType defines supported face extractor backends
type ProviderType string

const (
	// ProviderTypeDeepFace extracts detection and descriptor from a DeepFace server
	ProviderTypeDeepFace ProviderType = "deepface"
	// ProviderTypeRekognition detects with AWS Rekognition and takes descriptors from DeepFace
	ProviderTypeRekognition ProviderType = "rekognition"
	// ProviderTypeMock is the deterministic in-process extractor for dev and tests
	ProviderTypeMock ProviderType = "mock"
)

// NewFaceExtractor creates a FaceExtractor based on configuration.
//
// Environment variables:
//   - PROVIDER_TYPE: "deepface", "rekognition" or "mock" (default: "deepface")
//   - DEEPFACE_URL, DEEPFACE_MODEL, DEEPFACE_DETECTOR: DeepFace server settings
//   - AWS_REGION: AWS region for Rekognition (credentials via the AWS SDK chain)
func NewFaceExtractor(ctx context.Context, cfg *config.Config) (provider.FaceExtractor, error) {
	switch ProviderType(cfg.ProviderType) {
	case ProviderTypeDeepFace, "":
		return createDeepFaceExtractor(cfg), nil

	case ProviderTypeRekognition:
		return createRekognitionExtractor(ctx, cfg)

	case ProviderTypeMock:
		return mock.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider type: %s (supported: %s, %s, %s)",
			cfg.ProviderType, ProviderTypeDeepFace, ProviderTypeRekognition, ProviderTypeMock)
	}
}

// createRekognitionExtractor pairs a Rekognition detector with DeepFace descriptors.
// Rekognition does not expose raw embeddings.
func createRekognitionExtractor(ctx context.Context, cfg *config.Config) (provider.FaceExtractor, error) {
	rekogConfig := rekognition.DefaultConfig()
	if cfg.AWSRegion != "" {
		rekogConfig.Region = cfg.AWSRegion
	}

	client, err := rekognition.NewClient(ctx, rekogConfig)
	if err != nil {
		return nil, fmt.Errorf("create rekognition client: %w", err)
	}

	return provider.NewComposite(rekognition.NewDetector(client), createDeepFaceExtractor(cfg)), nil
}

func createDeepFaceExtractor(cfg *config.Config) *deepface.Extractor {
	deepfaceConfig := deepface.DefaultConfig()

	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = cfg.DeepFaceDetector
	}
	if cfg.ExtractTimeout > 0 {
		deepfaceConfig.Timeout = cfg.ExtractTimeout
	}

	return deepface.NewExtractor(deepfaceConfig)
}
