package analyzer

import "go-body-analyzer/pkg/models"

// Width bands: the share of the frame width the silhouette takes drives the base estimate.
var widthBands = []struct {
	below   float64
	bodyFat float64
}{
	{0.22, 11.0},
	{0.30, 17.0},
	{0.38, 25.0},
	{0.48, 30.0},
}

const (
	widestBandBodyFat = 36.0

	smallAreaRatio  = 0.06
	smallAreaAdjust = -1.0
	largeAreaRatio  = 0.40
	largeAreaAdjust = 3.0

	// Mid-width, mid-area silhouettes read low from width alone.
	midWidthMin = 0.28
	midWidthMax = 0.40
	midAreaMin  = 0.08
	midAreaMax  = 0.18
	midBump     = 5.0

	tallAspect    = 2.2
	tallAdjust    = -1.0
	slenderAspect = 1.8
	slenderAdjust = -0.5
	stockyAspect  = 1.4
	stockyAdjust  = 2.0

	heuristicMinBodyFat = 5.0
	heuristicMaxBodyFat = 45.0
)

// HeuristicBodyFat maps shape metrics to a body-fat percentage in [5, 45].
// It is deterministic and has no side effects.
func HeuristicBodyFat(m models.ShapeMetrics) float64 {
	bf := baseFromWidth(m.WidthRatio)

	if m.AreaRatio < smallAreaRatio {
		bf += smallAreaAdjust
	} else if m.AreaRatio > largeAreaRatio {
		bf += largeAreaAdjust
	}

	if m.WidthRatio >= midWidthMin && m.WidthRatio <= midWidthMax &&
		m.AreaRatio >= midAreaMin && m.AreaRatio <= midAreaMax {
		bf += midBump
	}

	switch {
	case m.AspectRatio > tallAspect:
		bf += tallAdjust
	case m.AspectRatio > slenderAspect:
		bf += slenderAdjust
	case m.AspectRatio < stockyAspect:
		bf += stockyAdjust
	}

	return clamp(bf, heuristicMinBodyFat, heuristicMaxBodyFat)
}

func baseFromWidth(widthRatio float64) float64 {
	for _, band := range widthBands {
		if widthRatio < band.below {
			return band.bodyFat
		}
	}
	return widestBandBodyFat
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
