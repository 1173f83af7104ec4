package domain

import "github.com/pgvector/pgvector-go"

// DescriptorDimension is the length of descriptors produced by the extraction model.
const DescriptorDimension = 128

const (
	MinEnrollCaptures = 5
	MaxEnrollCaptures = 10
)

// Descriptor is a face embedding. Treat it as immutable once produced.
type Descriptor []float32

// DescriptorSet holds the descriptors enrolled for one identity.
type DescriptorSet []Descriptor

// Vector converts the descriptor for storage in a pgvector column.
func (d Descriptor) Vector() pgvector.Vector {
	return pgvector.NewVector(d)
}

// DescriptorFromVector copies a pgvector value into a Descriptor.
func DescriptorFromVector(v pgvector.Vector) Descriptor {
	src := v.Slice()
	out := make(Descriptor, len(src))
	copy(out, src)
	return out
}

// Clone returns a deep copy of the set.
func (s DescriptorSet) Clone() DescriptorSet {
	out := make(DescriptorSet, len(s))
	for i, d := range s {
		c := make(Descriptor, len(d))
		copy(c, d)
		out[i] = c
	}
	return out
}

// BoundingBox is the detected face region in pixels of the capture.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// Center returns the center point of the box.
func (b BoundingBox) Center() (float64, float64) {
	return b.X + b.Width/2, b.Y + b.Height/2
}

// Frame is the pixel size of the capture a box was measured on. The zero
// value means the size is unknown.
type Frame struct {
	Width  float64
	Height float64
}

func (f Frame) Known() bool {
	return f.Width > 0 && f.Height > 0
}

// VerificationResult is the outcome of matching a live capture.
type VerificationResult struct {
	Match      bool    `json:"match"`
	Distance   float64 `json:"distance"`
	Confidence float64 `json:"confidence"`
}

// NoFaceResult is reported when the live capture contains no face.
var NoFaceResult = VerificationResult{Match: false, Confidence: 0, Distance: 1.0}
