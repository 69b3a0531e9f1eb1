package dnn

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/swdee/go-scrfd/inference"
)

func TestBlobRoundTrip(t *testing.T) {

	data := make([]float32, 3*4*5)

	for i := range data {
		data[i] = float32(i) * 0.5
	}

	in, err := inference.NewTensor(3, 4, 5, data)

	if err != nil {
		t.Fatal(err)
	}

	blob, err := toBlob(in)

	if err != nil {
		t.Fatal(err)
	}

	defer blob.Close()

	if sizes := blob.Size(); len(sizes) != 4 || sizes[0] != 1 || sizes[1] != 3 ||
		sizes[2] != 4 || sizes[3] != 5 {
		t.Fatalf("expected blob 1x3x4x5, got %v", sizes)
	}

	out, err := fromBlob(blob)

	if err != nil {
		t.Fatal(err)
	}

	if out.C != 3 || out.H != 4 || out.W != 5 {
		t.Fatalf("expected 3x4x5 tensor, got %dx%dx%d", out.C, out.H, out.W)
	}

	for i := range data {
		if out.Data[i] != data[i] {
			t.Fatalf("value %d: expected %v, got %v", i, data[i], out.Data[i])
		}
	}

	// the tensor owns a copy of the blob memory
	out.Data[0] = 99

	if in.Data[0] == 99 {
		t.Error("expected output tensor not to alias the input")
	}
}

func TestLoadMissingFile(t *testing.T) {

	_, err := Load(filepath.Join(t.TempDir(), "missing.onnx"), "", DefaultOptions())

	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not exist error, got %v", err)
	}
}
