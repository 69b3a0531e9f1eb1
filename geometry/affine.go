package geometry

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/image/math/f64"
	"gonum.org/v1/gonum/mat"
)

// CropMargin is the factor the longer side of a face box is enlarged by so the
// canonical crop includes context around the face
const CropMargin = 1.5

var (
	// ErrDegenerateRect is returned when building a crop for a face box with no
	// width and height
	ErrDegenerateRect = errors.New("degenerate face rect")
	// ErrSingular is returned when inverting a non invertible transform
	ErrSingular = errors.New("affine transform is not invertible")
	// ErrLandmarkCount is returned when raw landmark output does not hold
	// whole (x,y) pairs
	ErrLandmarkCount = errors.New("landmark output is not a list of x,y pairs")
)

// Affine is a 2x3 affine matrix in row-major order
//
//	| m[0] m[1] m[2] |
//	| m[3] m[4] m[5] |
type Affine f64.Aff3

// Apply maps the point (x, y) through the transform
func (a Affine) Apply(x, y float64) (float64, float64) {
	return a[0]*x + a[1]*y + a[2], a[3]*x + a[4]*y + a[5]
}

// Invert returns the inverse transform
func (a Affine) Invert() (Affine, error) {

	if det := a[0]*a[4] - a[1]*a[3]; det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Affine{}, ErrSingular
	}

	h := mat.NewDense(3, 3, []float64{
		a[0], a[1], a[2],
		a[3], a[4], a[5],
		0, 0, 1,
	})

	var inv mat.Dense

	if err := inv.Inverse(h); err != nil {
		// an ill conditioned but finite result is still usable
		var cond mat.Condition

		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return Affine{}, fmt.Errorf("%w: %v", ErrSingular, err)
		}
	}

	return Affine{
		inv.At(0, 0), inv.At(0, 1), inv.At(0, 2),
		inv.At(1, 0), inv.At(1, 1), inv.At(1, 2),
	}, nil
}

// CropTransform maps the original image frame into the canonical Size x Size
// face crop.  It is scale and translate only.
type CropTransform struct {
	// Size is the side length of the square crop
	Size int
	// M is the image to crop matrix
	M Affine
}

// NewCropTransform builds the crop transform centering face in a size x size
// square with the longer face side scaled to size/CropMargin
func NewCropTransform(face ImageRect, size int) (CropTransform, error) {

	if size <= 0 {
		return CropTransform{}, fmt.Errorf("%w: crop size %d", ErrInvalidSize, size)
	}

	longSide := math.Max(float64(face.Width), float64(face.Height))

	if longSide <= 0 {
		return CropTransform{}, fmt.Errorf("%w: %vx%v", ErrDegenerateRect,
			face.Width, face.Height)
	}

	center := face.Center()
	scale := float64(size) / (longSide * CropMargin)
	half := float64(size) / 2

	return CropTransform{
		Size: size,
		M: Affine{
			scale, 0, -float64(center.X)*scale + half,
			0, scale, -float64(center.Y)*scale + half,
		},
	}, nil
}

// ToCrop maps an original image point into the crop frame
func (t CropTransform) ToCrop(p ImagePoint) CropPoint {
	x, y := t.M.Apply(float64(p.X), float64(p.Y))
	return CropPoint{X: float32(x), Y: float32(y)}
}

// Inverse returns the transform mapping crop points back to the original
// image frame
func (t CropTransform) Inverse() (CropInverse, error) {

	inv, err := t.M.Invert()

	if err != nil {
		return CropInverse{}, err
	}

	return CropInverse{Size: t.Size, M: inv}, nil
}

// CropInverse maps the canonical face crop frame back to the original image
// frame.  It belongs to the single face its CropTransform was built from.
type CropInverse struct {
	// Size is the side length of the square crop
	Size int
	// M is the crop to image matrix
	M Affine
}

// ToImage maps a crop point back to the original image frame
func (t CropInverse) ToImage(p CropPoint) ImagePoint {
	x, y := t.M.Apply(float64(p.X), float64(p.Y))
	return ImagePoint{X: float32(x), Y: float32(y)}
}

// Landmarks converts raw landmark network output, a flat list of (x,y) pairs
// normalized to [-1,1] over the crop, into original image points
func (t CropInverse) Landmarks(raw []float32) ([]ImagePoint, error) {

	if len(raw) == 0 || len(raw)%2 != 0 {
		return nil, fmt.Errorf("%w: got %d values", ErrLandmarkCount, len(raw))
	}

	n := len(raw) / 2
	half := float64(t.Size) / 2

	// homogeneous crop coordinates, one row per point
	pts := mat.NewDense(n, 3, nil)

	for i := 0; i < n; i++ {
		pts.Set(i, 0, (float64(raw[i*2])+1)*half)
		pts.Set(i, 1, (float64(raw[i*2+1])+1)*half)
		pts.Set(i, 2, 1)
	}

	// transposed inverse matrix
	mt := mat.NewDense(3, 2, []float64{
		t.M[0], t.M[3],
		t.M[1], t.M[4],
		t.M[2], t.M[5],
	})

	var coord mat.Dense
	coord.Mul(pts, mt)

	out := make([]ImagePoint, n)

	for i := range out {
		out[i] = ImagePoint{X: float32(coord.At(i, 0)), Y: float32(coord.At(i, 1))}
	}

	return out, nil
}
