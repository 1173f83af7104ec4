package rekognition

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"

	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
)

const (
	// maxImageSize is the maximum image size supported by AWS Rekognition (5MB)
	maxImageSize = 5 * 1024 * 1024
	// minImageSize is the minimum image size for valid processing
	minImageSize = 100
)

// Detector implements provider.FaceDetector with AWS Rekognition DetectFaces.
// Rekognition does not expose embeddings, so it is paired with a descriptor
// extractor through provider.Composite.
type Detector struct {
	api API
}

var _ provider.FaceDetector = (*Detector)(nil)

func NewDetector(api API) *Detector {
	return &Detector{api: api}
}

func validateImage(image []byte) error {
	if len(image) < minImageSize {
		return fmt.Errorf("%w: image too small (%d bytes, minimum %d)", ErrInvalidImage, len(image), minImageSize)
	}
	if len(image) > maxImageSize {
		return fmt.Errorf("%w: image too large (%d bytes, maximum %d)", ErrInvalidImage, len(image), maxImageSize)
	}
	return nil
}

// Detect returns the most confident face. Rekognition reports confidence as a
// percentage and the box as fractions of the image. Confidence is normalized
// to [0,1] and the box converted to pixels of the capture.
func (d *Detector) Detect(ctx context.Context, image []byte) (provider.Detection, bool, error) {
	if err := validateImage(image); err != nil {
		return provider.Detection{}, false, err
	}

	output, err := d.api.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeDefault},
	})
	if err != nil {
		noFace, mapped := parseAPIError(err)
		if noFace {
			return provider.Detection{}, false, nil
		}
		return provider.Detection{}, false, fmt.Errorf("detect faces: %w", mapped)
	}

	var best *types.FaceDetail
	for i := range output.FaceDetails {
		detail := &output.FaceDetails[i]
		if detail.BoundingBox == nil {
			continue
		}
		if best == nil || aws.ToFloat32(detail.Confidence) > aws.ToFloat32(best.Confidence) {
			best = detail
		}
	}

	if best == nil {
		return provider.Detection{}, false, nil
	}

	frame := provider.CaptureFrame(image)
	if !frame.Known() {
		frame = provider.ReferenceFrame
	}
	box := best.BoundingBox
	return provider.Detection{
		Confidence: float64(aws.ToFloat32(best.Confidence)) / 100,
		Box: provider.PixelBox(
			float64(aws.ToFloat32(box.Left)),
			float64(aws.ToFloat32(box.Top)),
			float64(aws.ToFloat32(box.Width)),
			float64(aws.ToFloat32(box.Height)),
			frame,
		),
		Frame: frame,
	}, true, nil
}
