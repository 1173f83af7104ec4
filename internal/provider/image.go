package provider

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// FrameSize decodes only the image header and returns its pixel size.
func FrameSize(img []byte) (width, height int, ok bool) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}

// CaptureFrame returns the pixel size of img, or the zero Frame when its
// header cannot be decoded.
func CaptureFrame(img []byte) domain.Frame {
	w, h, ok := FrameSize(img)
	if !ok {
		return domain.Frame{}
	}
	return domain.Frame{Width: float64(w), Height: float64(h)}
}

// ImageFormat reports the registered decoder name for img, or "" if the
// bytes are not a supported image.
func ImageFormat(img []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return ""
	}
	return format
}
