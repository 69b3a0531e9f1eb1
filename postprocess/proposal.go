package postprocess

import (
	"fmt"

	"github.com/swdee/go-scrfd/geometry"
	"github.com/swdee/go-scrfd/inference"
)

// NumKeyPoints is the number of facial keypoints the detector regresses per
// anchor: left eye, right eye, nose, left and right mouth corner
const NumKeyPoints = 5

// Proposal is a candidate face produced by a single anchor at a single
// feature map cell, in the padded model input frame
type Proposal struct {
	// Rect is the decoded face box
	Rect geometry.ModelRect
	// Landmarks are the five keypoints, only valid when HasLandmarks is set
	Landmarks [NumKeyPoints]geometry.ModelPoint
	// HasLandmarks is set when the detector produced a keypoint output
	HasLandmarks bool
	// Prob is the face confidence score
	Prob float32
}

// GenerateProposals decodes every anchor and feature map cell of one stride
// whose score is at least probThreshold.  score holds one channel per anchor,
// bbox four channels per anchor of left, top, right and bottom distances and
// kps, when not nil, ten channels per anchor of keypoint x,y offsets.  All
// offsets are in units of stride.  Proposals are returned anchor by anchor,
// then row by row, then column by column.
func GenerateProposals(anchors []Anchor, stride int, score, bbox inference.Tensor,
	kps *inference.Tensor, probThreshold float32) ([]Proposal, error) {

	numAnchors := len(anchors)

	if score.C != numAnchors {
		return nil, fmt.Errorf("%w: score has %d channels for %d anchors",
			inference.ErrTensorShape, score.C, numAnchors)
	}

	if bbox.C != numAnchors*4 || bbox.H != score.H || bbox.W != score.W {
		return nil, fmt.Errorf("%w: bbox %dx%dx%d does not match score %dx%dx%d",
			inference.ErrTensorShape, bbox.C, bbox.H, bbox.W, score.C, score.H, score.W)
	}

	if kps != nil && (kps.C != numAnchors*NumKeyPoints*2 || kps.H != score.H || kps.W != score.W) {
		return nil, fmt.Errorf("%w: kps %dx%dx%d does not match score %dx%dx%d",
			inference.ErrTensorShape, kps.C, kps.H, kps.W, score.C, score.H, score.W)
	}

	h := score.H
	w := score.W
	fstride := float32(stride)

	props := make([]Proposal, 0)

	for q, anchor := range anchors {

		scores := score.Channel(q)

		anchorW := anchor.Width()
		anchorH := anchor.Height()

		for i := 0; i < h; i++ {

			// shifted anchor
			anchorY := anchor.Y0 + float32(i)*fstride

			for j := 0; j < w; j++ {

				index := i*w + j
				prob := scores[index]

				// NaN scores never pass
				if !(prob >= probThreshold) {
					continue
				}

				anchorX := anchor.X0 + float32(j)*fstride

				cx := anchorX + anchorW*0.5
				cy := anchorY + anchorH*0.5

				// distances from the anchor center to each edge
				dx := bbox.Channel(q*4 + 0)[index] * fstride
				dy := bbox.Channel(q*4 + 1)[index] * fstride
				dw := bbox.Channel(q*4 + 2)[index] * fstride
				dh := bbox.Channel(q*4 + 3)[index] * fstride

				x0 := cx - dx
				y0 := cy - dy
				x1 := cx + dw
				y1 := cy + dh

				p := Proposal{
					Rect: geometry.ModelRect{
						X:      x0,
						Y:      y0,
						Width:  x1 - x0 + 1,
						Height: y1 - y0 + 1,
					},
					Prob: prob,
				}

				if kps != nil {
					base := q * NumKeyPoints * 2

					for k := 0; k < NumKeyPoints; k++ {
						p.Landmarks[k] = geometry.ModelPoint{
							X: cx + kps.Channel(base + k*2)[index]*fstride,
							Y: cy + kps.Channel(base + k*2 + 1)[index]*fstride,
						}
					}

					p.HasLandmarks = true
				}

				props = append(props, p)
			}
		}
	}

	return props, nil
}
