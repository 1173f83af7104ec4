package biometric

import (
	"fmt"
	"math"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// QualityPolicy holds the capture gates. Areas are raw pixels of the
// capture. Offsets are measured from the center of the reference frame.
type QualityPolicy struct {
	MinConfidence float64
	MinArea       float64
	MaxArea       float64
	FrameWidth    float64
	FrameHeight   float64
	MaxOffsetX    float64
	MaxOffsetY    float64
}

// DefaultQualityPolicy returns the gates tuned for a 640x480 capture.
func DefaultQualityPolicy() QualityPolicy {
	return QualityPolicy{
		MinConfidence: 0.90,
		MinArea:       10000,
		MaxArea:       640000,
		FrameWidth:    640,
		FrameHeight:   480,
		MaxOffsetX:    150,
		MaxOffsetY:    120,
	}
}

type QualityReason string

const (
	QualityOK            QualityReason = ""
	QualityLowConfidence QualityReason = "low_confidence"
	QualityTooSmall      QualityReason = "too_small"
	QualityTooClose      QualityReason = "too_close"
	QualityNotCentered   QualityReason = "not_centered"
)

// QualityResult describes a capture gate decision. Score is diagnostic only.
type QualityResult struct {
	Valid   bool
	Reason  QualityReason
	Message string
	Score   float64
}

// CheckQuality applies the gates in order: confidence, minimum area,
// maximum area, centering. The first failing gate decides the result.
// box is in pixels of a capture of size frame. The box center is mapped
// into the reference frame when frame is known and taken as is otherwise.
func (p QualityPolicy) CheckQuality(confidence float64, box domain.BoundingBox, frame domain.Frame) QualityResult {
	if confidence < p.MinConfidence {
		return QualityResult{
			Reason:  QualityLowConfidence,
			Message: fmt.Sprintf("Face detection confidence too low: %.1f%%. Please improve lighting.", confidence*100),
			Score:   clamp01(confidence),
		}
	}

	area := box.Area()
	if area < p.MinArea {
		return QualityResult{
			Reason:  QualityTooSmall,
			Message: "Face too small. Please move closer to the camera.",
			Score:   math.Min(area/p.MinArea, 1),
		}
	}

	if area > p.MaxArea {
		return QualityResult{
			Reason:  QualityTooClose,
			Message: "Face too close. Please move back slightly.",
			Score:   math.Max(1-(area-p.MaxArea)/p.MaxArea, 0),
		}
	}

	cx, cy := box.Center()
	if frame.Known() {
		cx *= p.FrameWidth / frame.Width
		cy *= p.FrameHeight / frame.Height
	}
	offX := math.Abs(cx - p.FrameWidth/2)
	offY := math.Abs(cy - p.FrameHeight/2)
	if offX > p.MaxOffsetX || offY > p.MaxOffsetY {
		score := math.Max(1-offX/(p.FrameWidth/2), 1-offY/(p.FrameHeight/2))
		return QualityResult{
			Reason:  QualityNotCentered,
			Message: "Please center your face in the frame.",
			Score:   clamp01(score),
		}
	}

	return QualityResult{Valid: true, Score: clamp01(confidence)}
}

// CheckQuality applies DefaultQualityPolicy.
func CheckQuality(confidence float64, box domain.BoundingBox, frame domain.Frame) QualityResult {
	return DefaultQualityPolicy().CheckQuality(confidence, box, frame)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
