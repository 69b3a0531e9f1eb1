package preprocess

import (
	"testing"

	"gocv.io/x/gocv"
)

func TestLetterBoxResize(t *testing.T) {

	tests := []struct {
		srcWidth       int
		srcHeight      int
		targetSize     int
		expectedWidth  int
		expectedHeight int
		expectedXPad   int
		expectedYPad   int
		expectedScale  float32
	}{
		{120, 90, 120, 128, 96, 4, 3, 1},
		{1280, 720, 640, 640, 384, 0, 12, 0.50},
		{800, 1000, 640, 512, 640, 0, 0, 0.64},
		{800, 800, 640, 640, 640, 0, 0, 0.8},
	}

	for _, tc := range tests {
		img := gocv.NewMatWithSize(tc.srcHeight, tc.srcWidth, gocv.MatTypeCV8UC3)

		resizedImg := gocv.NewMat()

		resizer, err := NewResizer(tc.srcWidth, tc.srcHeight, tc.targetSize)

		if err != nil {
			t.Fatalf("src (%d, %d): unexpected error %v", tc.srcWidth, tc.srcHeight, err)
		}

		resizer.LetterBoxResize(img, &resizedImg, Black)

		if resizer.XPad() != tc.expectedXPad || resizer.YPad() != tc.expectedYPad {
			t.Errorf("Test failed for src (%d, %d): Padding values wrong, expected XPad=%d, YPad=%d, got xPad=%d, yPad=%d",
				tc.srcWidth, tc.srcHeight, tc.expectedXPad, tc.expectedYPad, resizer.XPad(), resizer.YPad())
		}

		if resizer.ScaleFactor() != tc.expectedScale {
			t.Errorf("Test failed for src (%d, %d): Scalefactor incorrect, expected %f, got %f",
				tc.srcWidth, tc.srcHeight, tc.expectedScale, resizer.ScaleFactor())
		}

		if resizer.SrcWidth() != tc.srcWidth || resizer.SrcHeight() != tc.srcHeight {
			t.Errorf("Test failed for src (%d, %d): got source size %dx%d",
				tc.srcWidth, tc.srcHeight, resizer.SrcWidth(), resizer.SrcHeight())
		}

		if resizer.Width() != tc.expectedWidth || resizer.Height() != tc.expectedHeight {
			t.Errorf("Test failed for src (%d, %d): expected input size %dx%d, got %dx%d",
				tc.srcWidth, tc.srcHeight, tc.expectedWidth, tc.expectedHeight,
				resizer.Width(), resizer.Height())
		}

		if resizedImg.Cols() != tc.expectedWidth || resizedImg.Rows() != tc.expectedHeight {
			t.Errorf("Test failed for src (%d, %d): expected output %dx%d, got %dx%d",
				tc.srcWidth, tc.srcHeight, tc.expectedWidth, tc.expectedHeight,
				resizedImg.Cols(), resizedImg.Rows())
		}

		img.Close()
		resizedImg.Close()
		resizer.Close()
	}
}

func TestLetterBoxResizePadding(t *testing.T) {

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(200, 200, 200, 0), 90, 120, gocv.MatTypeCV8UC3)
	defer img.Close()

	resizedImg := gocv.NewMat()
	defer resizedImg.Close()

	resizer, err := NewResizer(120, 90, 120)

	if err != nil {
		t.Fatal(err)
	}

	defer resizer.Close()

	resizer.LetterBoxResize(img, &resizedImg, Black)

	// padding is black, the image keeps its color
	if v := resizedImg.GetVecbAt(0, 0); v[0] != 0 || v[1] != 0 || v[2] != 0 {
		t.Errorf("expected black padding, got %v", v)
	}

	if v := resizedImg.GetVecbAt(48, 64); v[0] != 200 {
		t.Errorf("expected image pixel value 200, got %v", v)
	}
}

func TestNewResizerInvalid(t *testing.T) {

	if _, err := NewResizer(0, 90, 120); err == nil {
		t.Error("expected error for zero width source")
	}
}
