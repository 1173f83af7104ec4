package provider

import (
	"context"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// ReferenceFrame is the capture size providers assume when the image
// header cannot be read.
var ReferenceFrame = domain.Frame{Width: 640, Height: 480}

// FaceExtractor turns a capture into a face descriptor.
type FaceExtractor interface {
	// Extract returns found=false with a nil error when the image holds no
	// face. Errors are reserved for transport and decoding failures.
	Extract(ctx context.Context, image []byte) (ex Extraction, found bool, err error)
}

// FaceDetector locates a face without producing a descriptor.
type FaceDetector interface {
	Detect(ctx context.Context, image []byte) (det Detection, found bool, err error)
}

// Detection is the confidence and box of the most prominent face. Box is
// in pixels of the capture; Frame is the capture size, zero when unknown.
type Detection struct {
	Confidence float64
	Box        domain.BoundingBox
	Frame      domain.Frame
}

// Extraction is a detection plus its descriptor.
type Extraction struct {
	Detection
	Descriptor domain.Descriptor
}

// PixelBox maps a box given as fractions of the capture into pixels of frame.
func PixelBox(left, top, width, height float64, frame domain.Frame) domain.BoundingBox {
	return domain.BoundingBox{
		X:      left * frame.Width,
		Y:      top * frame.Height,
		Width:  width * frame.Width,
		Height: height * frame.Height,
	}
}
