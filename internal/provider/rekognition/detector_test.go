package rekognition

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// mockRekognitionAPI is a mock implementation of API for testing
type mockRekognitionAPI struct {
	detectFacesFunc func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

func (m *mockRekognitionAPI) DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
	if m.detectFacesFunc != nil {
		return m.detectFacesFunc(ctx, params, optFns...)
	}
	return &rekognition.DetectFacesOutput{}, nil
}

func face(confidence, left, top, width, height float32) types.FaceDetail {
	return types.FaceDetail{
		Confidence: aws.Float32(confidence),
		BoundingBox: &types.BoundingBox{
			Left:   aws.Float32(left),
			Top:    aws.Float32(top),
			Width:  aws.Float32(width),
			Height: aws.Float32(height),
		},
	}
}

func TestDetector_Detect(t *testing.T) {
	validImage := bytes.Repeat([]byte{0xff}, 1024)

	tests := []struct {
		name      string
		image     []byte
		output    *rekognition.DetectFacesOutput
		apiErr    error
		wantFound bool
		wantDet   func(*testing.T, float64, domain.BoundingBox)
		wantErr   error
	}{
		{
			name:  "most confident face in the assumed frame",
			image: validImage,
			output: &rekognition.DetectFacesOutput{FaceDetails: []types.FaceDetail{
				face(80, 0, 0, 0.1, 0.1),
				face(99.5, 0.25, 0.25, 0.5, 0.5),
			}},
			wantFound: true,
			wantDet: func(t *testing.T, conf float64, box domain.BoundingBox) {
				assert.InDelta(t, 0.995, conf, 1e-6)
				assert.InDelta(t, 160, box.X, 1e-3)
				assert.InDelta(t, 120, box.Y, 1e-3)
				assert.InDelta(t, 320, box.Width, 1e-3)
				assert.InDelta(t, 240, box.Height, 1e-3)
			},
		},
		{
			name:   "no faces",
			image:  validImage,
			output: &rekognition.DetectFacesOutput{},
		},
		{
			name:   "invalid parameter means no usable face",
			image:  validImage,
			apiErr: &smithy.GenericAPIError{Code: errCodeInvalidParameter, Message: "no face"},
		},
		{
			name:    "access denied",
			image:   validImage,
			apiErr:  &smithy.GenericAPIError{Code: errCodeAccessDenied, Message: "denied"},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:    "throttled",
			image:   validImage,
			apiErr:  &smithy.GenericAPIError{Code: errCodeThrottling, Message: "slow down"},
			wantErr: ErrThrottled,
		},
		{
			name:    "image too small",
			image:   []byte{1, 2, 3},
			wantErr: ErrInvalidImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockRekognitionAPI{
				detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
					assert.Equal(t, tt.image, params.Image.Bytes)
					if tt.apiErr != nil {
						return nil, tt.apiErr
					}
					return tt.output, nil
				},
			}

			det, found, err := NewDetector(api).Detect(context.Background(), tt.image)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantDet != nil {
				tt.wantDet(t, det.Confidence, det.Box)
			}
		})
	}
}

func TestDetector_DetectUsesCapturePixels(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1920, 1080))))

	api := &mockRekognitionAPI{
		detectFacesFunc: func(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
			return &rekognition.DetectFacesOutput{FaceDetails: []types.FaceDetail{
				face(99, 0.25, 0.1, 0.5, 0.8),
			}}, nil
		},
	}

	det, found, err := NewDetector(api).Detect(context.Background(), buf.Bytes())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, domain.Frame{Width: 1920, Height: 1080}, det.Frame)
	assert.InDelta(t, 480, det.Box.X, 1e-3)
	assert.InDelta(t, 108, det.Box.Y, 1e-3)
	assert.InDelta(t, 960, det.Box.Width, 1e-3)
	assert.InDelta(t, 864, det.Box.Height, 1e-3)
	assert.Greater(t, det.Box.Area(), 640000.0)
}
