package preprocess

import (
	"image"
	"image/color"

	"github.com/swdee/go-scrfd/geometry"
	"gocv.io/x/gocv"
)

var (
	// Black is the letterbox padding color
	Black = color.RGBA{R: 0, G: 0, B: 0, A: 255}
)

// Resizer defines the struct used for letterbox resizing a source image to
// the detector input dimensions
type Resizer struct {
	// box holds the scale and padding of the resize
	box geometry.Letterbox
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
}

// NewResizer returns a resizer used for scaling an image of srcWidth x
// srcHeight so its longer side is targetSize, padded up to the stride
// alignment of the detector
func NewResizer(srcWidth, srcHeight, targetSize int) (*Resizer, error) {

	box, err := geometry.NewLetterbox(srcWidth, srcHeight, targetSize)

	if err != nil {
		return nil, err
	}

	return &Resizer{
		box:     box,
		tempMat: gocv.NewMat(),
	}, nil
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// LetterBoxResize resizes the input image to the padded model input size
// whilst maintaining image aspect.  Color is that used for letter box
// padding.
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	gocv.Resize(src, &r.tempMat, image.Pt(r.box.ResizeWidth, r.box.ResizeHeight),
		0, 0, gocv.InterpolationLinear)

	gocv.CopyMakeBorder(r.tempMat, dest, r.box.PadTop, r.box.PadBottom,
		r.box.PadLeft, r.box.PadRight, gocv.BorderConstant, color)
}

// Letterbox returns the transform between the source image and the resized
// model input
func (r *Resizer) Letterbox() geometry.Letterbox {
	return r.box
}

// ScaleFactor returns the scale factor used in letterbox resize
func (r *Resizer) ScaleFactor() float32 {
	return r.box.Scale
}

// XPad returns the left padding used in letterbox resize
func (r *Resizer) XPad() int {
	return r.box.PadLeft
}

// YPad returns the top padding used in letterbox resize
func (r *Resizer) YPad() int {
	return r.box.PadTop
}

// SrcWidth returns the width of the source image
func (r *Resizer) SrcWidth() int {
	return r.box.SrcWidth
}

// SrcHeight returns the height of the source image
func (r *Resizer) SrcHeight() int {
	return r.box.SrcHeight
}

// Width returns the padded model input width
func (r *Resizer) Width() int {
	return r.box.Width
}

// Height returns the padded model input height
func (r *Resizer) Height() int {
	return r.box.Height
}
