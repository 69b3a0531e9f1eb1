package geometry

import (
	"errors"
	"math"
	"testing"
)

// near compares two float values within epsilon
func near(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

func TestNewCropTransform(t *testing.T) {

	face := ImageRect{X: 40, Y: 20, Width: 40, Height: 60}

	ct, err := NewCropTransform(face, 192)

	if err != nil {
		t.Fatal(err)
	}

	// longer side 60 * 1.5 = 90 maps onto 192 pixels
	scale := 192.0 / 90.0

	want := Affine{
		scale, 0, -60*scale + 96,
		0, scale, -50*scale + 96,
	}

	for i := range want {
		if !near(ct.M[i], want[i], 1e-9) {
			t.Errorf("matrix element %d: expected %f, got %f", i, want[i], ct.M[i])
		}
	}

	// the face center lands in the middle of the crop
	c := ct.ToCrop(face.Center())

	if !near(float64(c.X), 96, 1e-4) || !near(float64(c.Y), 96, 1e-4) {
		t.Errorf("expected face center at crop center, got %v", c)
	}
}

func TestNewCropTransformDegenerate(t *testing.T) {

	_, err := NewCropTransform(ImageRect{X: 10, Y: 10}, 192)

	if !errors.Is(err, ErrDegenerateRect) {
		t.Errorf("expected ErrDegenerateRect, got %v", err)
	}

	_, err = NewCropTransform(ImageRect{Width: 10, Height: 10}, 0)

	if !errors.Is(err, ErrInvalidSize) {
		t.Errorf("expected ErrInvalidSize, got %v", err)
	}
}

func TestAffineInvertClosedForm(t *testing.T) {

	faces := []ImageRect{
		{X: 40, Y: 20, Width: 40, Height: 60},
		{X: 0, Y: 0, Width: 119, Height: 89},
		{X: 500.5, Y: 310.25, Width: 12, Height: 9},
	}

	for _, face := range faces {
		ct, err := NewCropTransform(face, 192)

		if err != nil {
			t.Fatal(err)
		}

		inv, err := ct.M.Invert()

		if err != nil {
			t.Fatalf("face %v: invert failed: %v", face, err)
		}

		// scale+translate inverse is [1/a, 0, -tx/a; 0, 1/a, -ty/a]
		a := ct.M[0]
		want := Affine{1 / a, 0, -ct.M[2] / a, 0, 1 / a, -ct.M[5] / a}

		for i := range want {
			if !near(inv[i], want[i], 1e-9*math.Max(1, math.Abs(want[i]))) {
				t.Errorf("face %v element %d: expected %f, got %f", face, i, want[i], inv[i])
			}
		}
	}
}

func TestAffineInvertSingular(t *testing.T) {

	_, err := Affine{0, 0, 5, 0, 0, 5}.Invert()

	if !errors.Is(err, ErrSingular) {
		t.Errorf("expected ErrSingular, got %v", err)
	}
}

func TestCropRoundTrip(t *testing.T) {

	face := ImageRect{X: 33.5, Y: 12, Width: 51, Height: 47}

	ct, err := NewCropTransform(face, 192)

	if err != nil {
		t.Fatal(err)
	}

	inv, err := ct.Inverse()

	if err != nil {
		t.Fatal(err)
	}

	// every crop pixel maps back to where it came from
	for y := float32(0); y < 192; y += 7.5 {
		for x := float32(0); x < 192; x += 7.5 {
			cp := CropPoint{X: x, Y: y}
			back := ct.ToCrop(inv.ToImage(cp))

			if !near(float64(back.X), float64(x), 1e-3) || !near(float64(back.Y), float64(y), 1e-3) {
				t.Errorf("crop point %v round tripped to %v", cp, back)
			}
		}
	}
}

func TestCropInverseLandmarks(t *testing.T) {

	face := ImageRect{X: 40, Y: 20, Width: 40, Height: 60}

	ct, _ := NewCropTransform(face, 192)
	inv, err := ct.Inverse()

	if err != nil {
		t.Fatal(err)
	}

	// center, top left corner and bottom right corner of the crop
	raw := []float32{0, 0, -1, -1, 1, 1}

	pts, err := inv.Landmarks(raw)

	if err != nil {
		t.Fatal(err)
	}

	if len(pts) != 3 {
		t.Fatalf("expected 3 points, got %d", len(pts))
	}

	center := face.Center()

	if !near(float64(pts[0].X), float64(center.X), 1e-3) || !near(float64(pts[0].Y), float64(center.Y), 1e-3) {
		t.Errorf("expected crop center to map to face center %v, got %v", center, pts[0])
	}

	// the crop spans 1.5x the longer face side around the center
	halfSpan := float64(60*CropMargin) / 2

	if !near(float64(pts[1].X), float64(center.X)-halfSpan, 1e-3) ||
		!near(float64(pts[1].Y), float64(center.Y)-halfSpan, 1e-3) {
		t.Errorf("unexpected top left corner %v", pts[1])
	}

	if !near(float64(pts[2].X), float64(center.X)+halfSpan, 1e-3) ||
		!near(float64(pts[2].Y), float64(center.Y)+halfSpan, 1e-3) {
		t.Errorf("unexpected bottom right corner %v", pts[2])
	}

	// agrees with the single point mapping
	single := inv.ToImage(CropPoint{X: 96, Y: 96})

	if !near(float64(single.X), float64(pts[0].X), 1e-4) {
		t.Errorf("ToImage %v disagrees with Landmarks %v", single, pts[0])
	}
}

func TestCropInverseLandmarksOdd(t *testing.T) {

	inv := CropInverse{Size: 192, M: Affine{1, 0, 0, 0, 1, 0}}

	if _, err := inv.Landmarks([]float32{1, 2, 3}); !errors.Is(err, ErrLandmarkCount) {
		t.Errorf("expected ErrLandmarkCount, got %v", err)
	}
}
