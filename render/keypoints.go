package render

import (
	scrfd "github.com/swdee/go-scrfd"
	"gocv.io/x/gocv"
)

// FaceKeyPoints renders the five detector keypoints of each face, eyes,
// nose and mouth corners in their own colors.  Faces without keypoints are
// skipped.
func FaceKeyPoints(img *gocv.Mat, faces []scrfd.Face, radius int) {

	for _, face := range faces {
		for j, kp := range face.Landmarks {
			gocv.Circle(img, kp.Pt(), radius,
				faceLandmarkColors[j%len(faceLandmarkColors)], -1)
		}
	}
}

// FaceLandmarks renders the 106 landmark points of each face as filled
// circles
func FaceLandmarks(img *gocv.Mat, landmarks []scrfd.Landmarks106, style LandmarkStyle) {

	for _, set := range landmarks {
		for _, pt := range set {
			gocv.Circle(img, pt.Pt(), style.Radius, style.Color, -1)
		}
	}
}
