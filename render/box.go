package render

import (
	"fmt"
	"image"

	scrfd "github.com/swdee/go-scrfd"
	"gocv.io/x/gocv"
)

// FaceBoxes renders the bounding box around each face detected with a label
// of its confidence as a percentage
func FaceBoxes(img *gocv.Mat, faces []scrfd.Face, font Font, lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(faces))

	for i, face := range faces {

		useClr := classColors[i%len(classColors)]

		rect := face.Rect.Rect()
		gocv.Rectangle(img, rect, useClr, lineThickness)

		text := fmt.Sprintf("%.1f%%", face.Prob*100)
		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (rect.Min.X + rect.Max.X) / 2

		case Right:
			centerX = rect.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = rect.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		labelHeight := textSize.Y + font.TopPad + font.BottomPad
		top := rect.Min.Y

		// faces at the top edge get their label inside the box
		if top-labelHeight < 0 {
			top = labelHeight
		}

		// keep the label on the image at the right edge
		if overflow := centerX + textSize.X/2 + font.RightPad - img.Cols(); overflow > 0 {
			centerX -= overflow
		}

		boxLabels = append(boxLabels, boxLabel{
			rect: image.Rect(centerX-textSize.X/2-font.LeftPad, top-labelHeight,
				centerX+textSize.X/2+font.RightPad, top),
			clr:     useClr,
			text:    text,
			textPos: image.Pt(centerX-textSize.X/2, top-font.BottomPad),
		})
	}

	// draw labels last so they are the top most layer on the image and don't
	// get overlapped by landmarks or neighbouring boxes
	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}
