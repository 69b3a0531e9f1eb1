package postprocess

import (
	"math"
)

// Anchor is a reference box centred on the origin in the padded model input
// frame.  It is tiled over every cell of a stride's feature map.
type Anchor struct {
	X0, Y0 float32
	X1, Y1 float32
}

// Width returns the anchor width
func (a Anchor) Width() float32 {
	return a.X1 - a.X0
}

// Height returns the anchor height
func (a Anchor) Height() float32 {
	return a.Y1 - a.Y0
}

// StrideConfig defines the anchors used by a single detector output level
type StrideConfig struct {
	// Stride is the number of model input pixels per feature map cell
	Stride int
	// BaseSize is the anchor side length before ratio and scale are applied
	BaseSize int
	// Ratios are the height to width aspect ratios
	Ratios []float32
	// Scales are the multipliers applied to the base anchor size
	Scales []float32
}

// Anchors generates the anchor set for this stride
func (s StrideConfig) Anchors() []Anchor {
	return GenerateAnchors(s.BaseSize, s.Ratios, s.Scales)
}

// DefaultStrides returns the three output levels of the SCRFD detector
// featuring:
// - Stride 8, base size 16
// - Stride 16, base size 64
// - Stride 32, base size 256
// each with ratio 1 and scales 1 and 2, giving two anchors per cell
func DefaultStrides() []StrideConfig {
	return []StrideConfig{
		{Stride: 8, BaseSize: 16, Ratios: []float32{1}, Scales: []float32{1, 2}},
		{Stride: 16, BaseSize: 64, Ratios: []float32{1}, Scales: []float32{1, 2}},
		{Stride: 32, BaseSize: 256, Ratios: []float32{1}, Scales: []float32{1, 2}},
	}
}

// GenerateAnchors builds len(ratios)*len(scales) anchors centred on the
// origin, ordered ratio-major then scale.  For each ratio the base width is
// round(baseSize/sqrt(ratio)) and the base height round(width*ratio), both
// then multiplied by each scale.
func GenerateAnchors(baseSize int, ratios, scales []float32) []Anchor {

	anchors := make([]Anchor, 0, len(ratios)*len(scales))

	for _, ar := range ratios {

		rw := math.Round(float64(baseSize) / math.Sqrt(float64(ar)))
		rh := math.Round(rw * float64(ar))

		for _, scale := range scales {

			w := float32(rw) * scale
			h := float32(rh) * scale

			anchors = append(anchors, Anchor{
				X0: -w * 0.5,
				Y0: -h * 0.5,
				X1: w * 0.5,
				Y1: h * 0.5,
			})
		}
	}

	return anchors
}
