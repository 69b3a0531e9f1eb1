package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrTensorShape is returned when a tensor's dimensions do not match the
	// number of values it holds or the layout a caller expects
	ErrTensorShape = errors.New("tensor shape mismatch")
)

// Tensor is a dense 3D array of float32 values laid out as channels x height x
// width in row-major order.  Model outputs are read-only once returned from a
// Session.
type Tensor struct {
	// C is the number of channels
	C int
	// H is the height of each channel
	H int
	// W is the width of each channel
	W int
	// Data holds C*H*W values, channel by channel
	Data []float32
}

// NewTensor returns a Tensor over the given data after checking its length
// matches the dimensions
func NewTensor(c, h, w int, data []float32) (Tensor, error) {

	if c <= 0 || h <= 0 || w <= 0 {
		return Tensor{}, fmt.Errorf("%w: invalid dimensions %dx%dx%d",
			ErrTensorShape, c, h, w)
	}

	if len(data) != c*h*w {
		return Tensor{}, fmt.Errorf("%w: %dx%dx%d needs %d values, got %d",
			ErrTensorShape, c, h, w, c*h*w, len(data))
	}

	return Tensor{C: c, H: h, W: w, Data: data}, nil
}

// FromShape builds a Tensor from a backend reported shape.  Leading batch
// dimensions of size 1 are dropped until three remain, a 2D shape [N, K]
// becomes N channels of K x 1 and a 1D shape [N] becomes N channels of 1 x 1.
func FromShape(shape []int64, data []float32) (Tensor, error) {

	dims := make([]int, len(shape))

	for i, d := range shape {
		dims[i] = int(d)
	}

	for len(dims) > 3 && dims[0] == 1 {
		dims = dims[1:]
	}

	switch len(dims) {
	case 3:
		return NewTensor(dims[0], dims[1], dims[2], data)
	case 2:
		return NewTensor(dims[0], dims[1], 1, data)
	case 1:
		return NewTensor(dims[0], 1, 1, data)
	}

	return Tensor{}, fmt.Errorf("%w: unsupported shape %v", ErrTensorShape, shape)
}

// Len returns the number of values in the tensor
func (t Tensor) Len() int {
	return t.C * t.H * t.W
}

// Channel returns the H*W values of channel c
func (t Tensor) Channel(c int) []float32 {
	size := t.H * t.W
	return t.Data[c*size : (c+1)*size]
}

// At returns the value at channel c, row y, column x
func (t Tensor) At(c, y, x int) float32 {
	return t.Data[(c*t.H+y)*t.W+x]
}

// FeatureMap returns the tensor as a feature map of anchors*perAnchor channels
// over an h x w grid.  A tensor already in that layout is returned as is.  A
// tensor holding the same number of values as rows of perAnchor values, one
// row per (cell, anchor) pair with the anchor varying fastest, is transposed
// into the channel layout.
func (t Tensor) FeatureMap(h, w, anchors, perAnchor int) (Tensor, error) {

	channels := anchors * perAnchor

	if t.C == channels && t.H == h && t.W == w {
		return t, nil
	}

	if t.Len() != channels*h*w || len(t.Data) != t.Len() {
		return Tensor{}, fmt.Errorf("%w: got %dx%dx%d, want %dx%dx%d",
			ErrTensorShape, t.C, t.H, t.W, channels, h, w)
	}

	out := make([]float32, len(t.Data))
	cells := h * w

	for cell := 0; cell < cells; cell++ {
		src := t.Data[cell*channels : (cell+1)*channels]

		for c, v := range src {
			out[c*cells+cell] = v
		}
	}

	return Tensor{C: channels, H: h, W: w, Data: out}, nil
}
