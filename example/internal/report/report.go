// Package report converts detection results into JSON documents
package report

import (
	jsoniter "github.com/json-iterator/go"
	scrfd "github.com/swdee/go-scrfd"
	"github.com/swdee/go-scrfd/geometry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Face is the JSON form of a single detected face
type Face struct {
	ID int64 `json:"id"`
	// Box is x, y, width, height
	Box       [4]float32   `json:"box"`
	Prob      float32      `json:"prob"`
	KeyPoints [][2]float32 `json:"keypoints,omitempty"`
	Landmarks [][2]float32 `json:"landmarks"`
}

// Result is the JSON document for one image
type Result struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Faces  []Face `json:"faces"`
}

// New builds the Result for index aligned faces and landmarks
func New(width, height int, faces []scrfd.Face, landmarks []scrfd.Landmarks106) Result {

	res := Result{
		Width:  width,
		Height: height,
		Faces:  make([]Face, len(faces)),
	}

	for i, f := range faces {
		res.Faces[i] = Face{
			ID:        f.ID,
			Box:       [4]float32{f.Rect.X, f.Rect.Y, f.Rect.Width, f.Rect.Height},
			Prob:      f.Prob,
			KeyPoints: points(f.Landmarks),
		}

		if i < len(landmarks) {
			res.Faces[i].Landmarks = points(landmarks[i][:])
		}
	}

	return res
}

// Marshal encodes the result as JSON
func (r Result) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

func points(pts []geometry.ImagePoint) [][2]float32 {

	if len(pts) == 0 {
		return nil
	}

	out := make([][2]float32, len(pts))

	for i, p := range pts {
		out[i] = [2]float32{p.X, p.Y}
	}

	return out
}
