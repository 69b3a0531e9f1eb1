package report

import (
	"strings"
	"testing"

	scrfd "github.com/swdee/go-scrfd"
	"github.com/swdee/go-scrfd/geometry"
)

func TestNew(t *testing.T) {

	faces := []scrfd.Face{
		{ID: 7, Rect: geometry.ImageRect{X: 1, Y: 2, Width: 3, Height: 4}, Prob: 0.5},
	}

	landmarks := make([]scrfd.Landmarks106, 1)

	res := New(120, 90, faces, landmarks)

	if len(res.Faces) != 1 || res.Faces[0].ID != 7 || res.Faces[0].Box != [4]float32{1, 2, 3, 4} {
		t.Fatalf("unexpected result %+v", res)
	}

	if res.Faces[0].KeyPoints != nil {
		t.Error("expected no keypoints for a face without them")
	}

	if len(res.Faces[0].Landmarks) != scrfd.NumLandmarks {
		t.Errorf("expected %d landmarks, got %d", scrfd.NumLandmarks, len(res.Faces[0].Landmarks))
	}

	out, err := res.Marshal()

	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(out), `"box":[1,2,3,4]`) || strings.Contains(string(out), "keypoints") {
		t.Errorf("unexpected JSON %s", out)
	}
}

func TestNewEmpty(t *testing.T) {

	out, err := New(10, 10, []scrfd.Face{}, []scrfd.Landmarks106{}).Marshal()

	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(out), `"faces":[]`) {
		t.Errorf("expected empty face list, got %s", out)
	}
}
