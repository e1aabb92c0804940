package analyzer

import (
	"image"
	"math"
	"testing"

	"go-body-analyzer/pkg/models"
)

// rectContour returns the contour of a filled w x h block at (x, y) as
// FindContours reports it: four corners enclosing (w-1)*(h-1).
func rectContour(x, y, w, h int) Contour {
	return Contour{
		Points: []image.Point{
			image.Pt(x, y),
			image.Pt(x, y+h-1),
			image.Pt(x+w-1, y+h-1),
			image.Pt(x+w-1, y),
		},
		Box:  models.BoundingBox{X: x, Y: y, Width: w, Height: h},
		Area: float64((w - 1) * (h - 1)),
	}
}

func TestSelectSilhouette_EmptyUsesFallback(t *testing.T) {
	sel := SelectSilhouette(nil, 256, 256)

	if !sel.FallbackUsed {
		t.Error("Expected fallback to be used for empty contour list")
	}
	if sel.Metrics != FallbackMetrics {
		t.Errorf("Expected fallback metrics, got %+v", sel.Metrics)
	}
	if sel.Features != FallbackFeatures {
		t.Errorf("Expected fallback features, got %v", sel.Features)
	}
	if sel.Box != nil {
		t.Error("Expected no selected box")
	}
}

func TestSelectSilhouette_PrefersPersonShape(t *testing.T) {
	// A 2:1 standing shape against a wide blob filling most of the frame
	person := rectContour(100, 40, 60, 120)
	blob := rectContour(0, 0, 250, 200)

	sel := SelectSilhouette([]Contour{blob, person}, 256, 256)

	if sel.CandidateCount != 2 {
		t.Errorf("Expected 2 candidates, got %d", sel.CandidateCount)
	}
	if sel.Box == nil || sel.Box.X != 100 || sel.Box.Width != 60 {
		t.Fatalf("Expected person box to be selected, got %+v", sel.Box)
	}
	if math.Abs(sel.Metrics.AspectRatio-2.0) > 1e-4 {
		t.Errorf("Expected aspect ratio near 2, got %f", sel.Metrics.AspectRatio)
	}
}

func TestSelectSilhouette_TieKeepsFirst(t *testing.T) {
	first := rectContour(10, 10, 60, 120)
	second := rectContour(150, 10, 60, 120)

	sel := SelectSilhouette([]Contour{first, second}, 256, 256)
	if sel.Box.X != 10 {
		t.Errorf("Expected first of equally scored candidates, got box at x=%d", sel.Box.X)
	}
}

func TestShapeMetrics_Ratios(t *testing.T) {
	box := models.BoundingBox{Width: 64, Height: 128}
	m := computeShapeMetrics(box, 4096, 256, 256)

	if math.Abs(m.AspectRatio-2.0) > 1e-6 {
		t.Errorf("aspect: got %f", m.AspectRatio)
	}
	if math.Abs(m.WidthRatio-0.25) > 1e-6 {
		t.Errorf("width: got %f", m.WidthRatio)
	}
	if math.Abs(m.AreaRatio-0.0625) > 1e-6 {
		t.Errorf("area: got %f", m.AreaRatio)
	}
}

func TestShapeMetrics_ZeroDimensionsStayFinite(t *testing.T) {
	m := computeShapeMetrics(models.BoundingBox{Width: 0, Height: 5}, 0, 0, 0)
	for _, v := range []float64{m.AspectRatio, m.AreaRatio, m.WidthRatio} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("expected finite ratios, got %+v", m)
		}
	}
}

func TestHumanLikenessScore(t *testing.T) {
	ideal := models.ShapeMetrics{AspectRatio: 2.0, WidthRatio: 0.3, AreaRatio: 0.2}
	if got := HumanLikenessScore(ideal); got != 0 {
		t.Errorf("Expected zero penalty for ideal shape, got %f", got)
	}

	wide := models.ShapeMetrics{AspectRatio: 2.0, WidthRatio: 0.8, AreaRatio: 0.2}
	if got := HumanLikenessScore(wide); math.Abs(got+0.4) > 1e-9 {
		t.Errorf("Expected -0.4 for over-wide shape, got %f", got)
	}

	speck := models.ShapeMetrics{AspectRatio: 1.0, WidthRatio: 0.1, AreaRatio: 0.01}
	if got := HumanLikenessScore(speck); math.Abs(got-(-1-0.16-0.06)) > 1e-9 {
		t.Errorf("unexpected speck score %f", got)
	}
}

func TestBestScoring_NaNFallsBackToLargest(t *testing.T) {
	candidates := []Candidate{
		{Area: 10, Score: math.NaN(), Box: models.BoundingBox{X: 1}},
		{Area: 50, Score: math.NaN(), Box: models.BoundingBox{X: 2}},
		{Area: 20, Score: math.NaN(), Box: models.BoundingBox{X: 3}},
	}

	if _, ok := bestScoring(candidates); ok {
		t.Fatal("Expected no candidate to beat negative infinity")
	}
	if got := largestCandidate(candidates); got.Box.X != 2 {
		t.Errorf("Expected the largest candidate, got %+v", got.Box)
	}
}
