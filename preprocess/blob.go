package preprocess

import (
	"fmt"
	"image"

	"github.com/swdee/go-scrfd/inference"
	"gocv.io/x/gocv"
)

// Normalization defines the per pixel transform (x - Mean) * Norm applied
// when converting an image into a model input tensor
type Normalization struct {
	Mean float64
	Norm float64
}

var (
	// DetectorNorm is the SCRFD detector input normalization
	DetectorNorm = Normalization{Mean: 127.5, Norm: 1.0 / 128.0}
	// LandmarkNorm is the 2d106det landmark model input normalization, raw
	// pixel values
	LandmarkNorm = Normalization{Mean: 0, Norm: 1}
)

// ToTensor converts a 3 channel 8 bit image into a normalized planar
// 3 x rows x cols tensor.  Channel order is kept as is.
func ToTensor(img gocv.Mat, n Normalization) (inference.Tensor, error) {

	if img.Empty() || img.Channels() != 3 {
		return inference.Tensor{}, fmt.Errorf("%w: expected 3 channel image, got %d channels",
			inference.ErrTensorShape, img.Channels())
	}

	rows := img.Rows()
	cols := img.Cols()

	blob := gocv.BlobFromImage(img, n.Norm, image.Pt(cols, rows),
		gocv.NewScalar(n.Mean, n.Mean, n.Mean, 0), false, false)
	defer blob.Close()

	data, err := blob.DataPtrFloat32()

	if err != nil {
		return inference.Tensor{}, fmt.Errorf("error getting data pointer to blob: %w", err)
	}

	// the blob memory is released on return
	buf := make([]float32, len(data))
	copy(buf, data)

	return inference.NewTensor(3, rows, cols, buf)
}
