package mock

import (
	"bytes"
	"context"
	"crypto/sha256"
	"math"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
)

const (
	// minImageSize below which the mock reports no face
	minImageSize = 1000
	// noiseScale bounds the per-capture jitter around a subject's descriptor
	noiseScale = 0.02
)

var subjectPrefix = []byte("subject:")

// Extractor implements provider.FaceExtractor for tests and local development.
//
// Captures starting with "subject:<name>\n" produce descriptors clustered
// around a point derived from name, so captures of the same subject match and
// captures of different subjects do not. Any other capture belongs to a
// single anonymous subject.
type Extractor struct{}

var _ provider.FaceExtractor = (*Extractor)(nil)

func New() *Extractor {
	return &Extractor{}
}

func (e *Extractor) Extract(ctx context.Context, image []byte) (provider.Extraction, bool, error) {
	if err := ctx.Err(); err != nil {
		return provider.Extraction{}, false, err
	}

	if len(image) < minImageSize {
		return provider.Extraction{}, false, nil
	}

	return provider.Extraction{
		Detection: provider.Detection{
			Confidence: 0.99,
			Box: domain.BoundingBox{
				X:      220,
				Y:      140,
				Width:  200,
				Height: 200,
			},
		},
		Descriptor: generateDescriptor(subject(image), image),
	}, true, nil
}

// Capture builds a mock capture for subject padded to a detectable size.
// seed varies the jitter between captures of the same subject.
func Capture(subject string, seed byte) []byte {
	buf := make([]byte, 0, minImageSize+len(subject)+16)
	buf = append(buf, subjectPrefix...)
	buf = append(buf, subject...)
	buf = append(buf, '\n')
	for len(buf) < minImageSize {
		buf = append(buf, seed)
	}
	return buf
}

func subject(image []byte) []byte {
	if !bytes.HasPrefix(image, subjectPrefix) {
		return nil
	}
	rest := image[len(subjectPrefix):]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		return rest[:i]
	}
	return nil
}

// generateDescriptor places the capture near the subject's unit vector.
func generateDescriptor(subject, image []byte) domain.Descriptor {
	base := unitVector(sha256.Sum256(append([]byte("base:"), subject...)))
	jitter := sha256.Sum256(image)

	d := make(domain.Descriptor, domain.DescriptorDimension)
	for i := range d {
		//nolint:gosec // index is bounded by modulo
		noise := (float64(jitter[i%len(jitter)])/255.0*2 - 1) * noiseScale / 2
		d[i] = float32(base[i] + noise)
	}
	return d
}

func unitVector(seed [32]byte) []float64 {
	v := make([]float64, domain.DescriptorDimension)
	h := seed
	for i := range v {
		if i > 0 && i%len(h) == 0 {
			h = sha256.Sum256(h[:])
		}
		v[i] = float64(h[i%len(h)])/255.0*2 - 1
	}

	norm := 0.0
	for _, x := range v {
		norm += x * x
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}
