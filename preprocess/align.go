package preprocess

import (
	"image"

	"github.com/swdee/go-scrfd/geometry"
	"gocv.io/x/gocv"
)

// Aligner warps face regions of an image into the square crop used as
// landmark model input
type Aligner struct {
	// matrix is the 2x3 CV64F transform reused between crops
	matrix gocv.Mat
}

// NewAligner returns an Aligner.  Close must be called to free it.
func NewAligner() *Aligner {
	return &Aligner{
		matrix: gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F),
	}
}

// Close frees the transform matrix
func (a *Aligner) Close() error {
	return a.matrix.Close()
}

// Crop warps src through the crop transform into dest, which ends up as a
// t.Size x t.Size image of the same type as src.  Pixels outside of src are
// black.
func (a *Aligner) Crop(src gocv.Mat, dest *gocv.Mat, t geometry.CropTransform) {

	for i, v := range t.M {
		a.matrix.SetDoubleAt(i/3, i%3, v)
	}

	gocv.WarpAffine(src, dest, a.matrix, image.Pt(t.Size, t.Size))
}
