package analyzer

import (
	"image"

	"go-body-analyzer/pkg/models"

	"gocv.io/x/gocv"
)

// Contour is the outer boundary of one foreground region. Box and Area are
// measured when the contour is extracted so it outlives the native buffer.
type Contour struct {
	Points []image.Point
	Box    models.BoundingBox
	Area   float64
}

func newContour(pv gocv.PointVector) Contour {
	rect := gocv.BoundingRect(pv)
	return Contour{
		Points: pv.ToPoints(),
		Box: models.BoundingBox{
			X:      rect.Min.X,
			Y:      rect.Min.Y,
			Width:  rect.Dx(),
			Height: rect.Dy(),
		},
		Area: gocv.ContourArea(pv),
	}
}

// externalContours copies every outer contour out of a binary mask in the
// order they are found.
func externalContours(binary gocv.Mat) []Contour {
	found := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	if found.Size() == 0 {
		return nil
	}
	contours := make([]Contour, 0, found.Size())
	for i := 0; i < found.Size(); i++ {
		contours = append(contours, newContour(found.At(i)))
	}
	return contours
}
