package geometry

import (
	"errors"
	"fmt"
)

// PadAlign is the multiple both padded model input dimensions are rounded up
// to, matching the coarsest detector stride
const PadAlign = 32

var (
	// ErrInvalidSize is returned for non-positive image or target dimensions
	ErrInvalidSize = errors.New("invalid size")
)

// Letterbox defines the resize and pad transform between an original image
// and the detector input.  The longer image side is scaled to the target size
// preserving aspect, then each side is padded up to a multiple of PadAlign
// with the padding split evenly, any odd pixel going to the trailing side.
type Letterbox struct {
	// SrcWidth is the width of the original image
	SrcWidth int
	// SrcHeight is the height of the original image
	SrcHeight int
	// ResizeWidth is the width of the image after scaling, before padding
	ResizeWidth int
	// ResizeHeight is the height of the image after scaling, before padding
	ResizeHeight int
	// Width is the padded model input width
	Width int
	// Height is the padded model input height
	Height int
	// padding added to each side of the resized image
	PadLeft   int
	PadTop    int
	PadRight  int
	PadBottom int
	// Scale is the factor applied to the original image
	Scale float32
}

// NewLetterbox calculates the letterbox for an image of srcWidth x srcHeight
// whose longer side is scaled to targetSize
func NewLetterbox(srcWidth, srcHeight, targetSize int) (Letterbox, error) {

	if srcWidth <= 0 || srcHeight <= 0 || targetSize <= 0 {
		return Letterbox{}, fmt.Errorf("%w: source %dx%d, target %d",
			ErrInvalidSize, srcWidth, srcHeight, targetSize)
	}

	l := Letterbox{
		SrcWidth:  srcWidth,
		SrcHeight: srcHeight,
	}

	if srcWidth > srcHeight {
		l.Scale = float32(targetSize) / float32(srcWidth)
		l.ResizeWidth = targetSize
		l.ResizeHeight = int(float32(srcHeight) * l.Scale)
	} else {
		l.Scale = float32(targetSize) / float32(srcHeight)
		l.ResizeHeight = targetSize
		l.ResizeWidth = int(float32(srcWidth) * l.Scale)
	}

	// a sliver image can truncate to zero pixels on its short side
	if l.ResizeWidth < 1 {
		l.ResizeWidth = 1
	}

	if l.ResizeHeight < 1 {
		l.ResizeHeight = 1
	}

	wpad := alignUp(l.ResizeWidth) - l.ResizeWidth
	hpad := alignUp(l.ResizeHeight) - l.ResizeHeight

	l.PadLeft = wpad / 2
	l.PadRight = wpad - l.PadLeft
	l.PadTop = hpad / 2
	l.PadBottom = hpad - l.PadTop

	l.Width = l.ResizeWidth + wpad
	l.Height = l.ResizeHeight + hpad

	return l, nil
}

// alignUp rounds n up to the next multiple of PadAlign
func alignUp(n int) int {
	return (n + PadAlign - 1) / PadAlign * PadAlign
}

// ToModel maps an original image point into the padded model input frame
func (l Letterbox) ToModel(p ImagePoint) ModelPoint {
	return ModelPoint{
		X: p.X*l.Scale + float32(l.PadLeft),
		Y: p.Y*l.Scale + float32(l.PadTop),
	}
}

// ToImage maps a padded model input point back to the original image frame,
// clamped to the image bounds
func (l Letterbox) ToImage(p ModelPoint) ImagePoint {

	x := (p.X - float32(l.PadLeft)) / l.Scale
	y := (p.Y - float32(l.PadTop)) / l.Scale

	return ImagePoint{
		X: clamp(x, 0, float32(l.SrcWidth-1)),
		Y: clamp(y, 0, float32(l.SrcHeight-1)),
	}
}

// ToImageRect maps both corners of a padded model input rect back to the
// original image frame.  The resulting width and height are never negative.
func (l Letterbox) ToImageRect(r ModelRect) ImageRect {

	tl := l.ToImage(ModelPoint{X: r.X, Y: r.Y})
	br := l.ToImage(ModelPoint{X: r.X + r.Width, Y: r.Y + r.Height})

	return ImageRect{
		X:      tl.X,
		Y:      tl.Y,
		Width:  max32(br.X-tl.X, 0),
		Height: max32(br.Y-tl.Y, 0),
	}
}
