/*
Package geometry holds the coordinate frames used through the face detection
pipeline and the transforms between them.

Three frames exist and each has its own point and rect type so a value can not
silently cross from one frame to another:

  - Model: the padded, resized detector input
  - Image: the caller's original image
  - Crop: the canonical square face crop fed to the landmark model

Frame changes only happen through Letterbox (Model <-> Image) and the crop
transforms (Image <-> Crop).
*/
package geometry

import (
	"image"
	"math"
)

// ModelPoint is a point in the padded model input frame
type ModelPoint struct {
	X, Y float32
}

// ImagePoint is a point in the original image frame
type ImagePoint struct {
	X, Y float32
}

// Pt returns the point rounded down to integer pixel coordinates
func (p ImagePoint) Pt() image.Point {
	return image.Pt(int(p.X), int(p.Y))
}

// CropPoint is a point in the canonical face crop frame
type CropPoint struct {
	X, Y float32
}

// ModelRect is an axis aligned box in the padded model input frame
type ModelRect struct {
	X, Y          float32
	Width, Height float32
}

// Area returns the rect area, zero for empty or inverted rects
func (r ModelRect) Area() float32 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}

	return r.Width * r.Height
}

// Intersect returns the overlapping region of r and o, or the zero rect when
// they do not overlap
func (r ModelRect) Intersect(o ModelRect) ModelRect {

	x0 := max32(r.X, o.X)
	y0 := max32(r.Y, o.Y)
	x1 := min32(r.X+r.Width, o.X+o.Width)
	y1 := min32(r.Y+r.Height, o.Y+o.Height)

	if x1 <= x0 || y1 <= y0 {
		return ModelRect{}
	}

	return ModelRect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Center returns the rect center point
func (r ModelRect) Center() ModelPoint {
	return ModelPoint{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// ImageRect is an axis aligned box in the original image frame
type ImageRect struct {
	X, Y          float32
	Width, Height float32
}

// Center returns the rect center point
func (r ImageRect) Center() ImagePoint {
	return ImagePoint{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Right returns the x coordinate of the right edge
func (r ImageRect) Right() float32 {
	return r.X + r.Width
}

// Bottom returns the y coordinate of the bottom edge
func (r ImageRect) Bottom() float32 {
	return r.Y + r.Height
}

// Empty reports whether the rect has no area
func (r ImageRect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Rect returns the rect as integer pixel bounds
func (r ImageRect) Rect() image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.Right()), int(r.Bottom()))
}

// clamp restricts val to be within the range min and max
func clamp(val, min, max float32) float32 {

	if val > min {

		if val < max {
			return val
		}

		return max
	}

	return min
}

func max32(a, b float32) float32 {
	return float32(math.Max(float64(a), float64(b)))
}

func min32(a, b float32) float32 {
	return float32(math.Min(float64(a), float64(b)))
}
