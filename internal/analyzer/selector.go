package analyzer

import (
	"math"

	"go-body-analyzer/pkg/models"
)

// ratioEpsilon keeps zero-width boxes and empty frames from dividing by zero.
const ratioEpsilon = 1e-6

// Human-likeness scoring. A standing person is roughly twice as tall as wide,
// neither a sliver nor wider than most of the frame, and neither a speck nor
// filling the frame.
const (
	idealAspectRatio  = 2.0
	maxWidthRatio     = 0.6
	minWidthRatio     = 0.18
	maxAreaRatio      = 0.7
	minAreaRatio      = 0.04
	proportionPenalty = 2.0
)

// Candidate is one contour together with its geometry and score.
type Candidate struct {
	Contour Contour
	Box     models.BoundingBox
	Area    float64
	Metrics models.ShapeMetrics
	Score   float64
}

// Selection is the outcome of choosing a silhouette among the candidates.
type Selection struct {
	Metrics        models.ShapeMetrics
	Features       models.FeatureVector
	Box            *models.BoundingBox
	CandidateCount int
	// FallbackUsed is set when there were no contours and neutral metrics were used.
	FallbackUsed bool
	// LargestArea is set when scoring chose nothing and the largest contour was used.
	LargestArea bool
}

// SelectSilhouette picks the contour most likely to be a standing person and
// derives its metrics and feature vector. An empty contour list yields the
// fixed neutral metrics.
func SelectSilhouette(contours []Contour, imgW, imgH int) Selection {
	if len(contours) == 0 {
		return Selection{
			Metrics:      FallbackMetrics,
			Features:     FallbackFeatures,
			FallbackUsed: true,
		}
	}

	candidates := make([]Candidate, 0, len(contours))
	for _, c := range contours {
		candidates = append(candidates, newCandidate(c, imgW, imgH))
	}

	best, ok := bestScoring(candidates)
	largest := false
	if !ok {
		best = largestCandidate(candidates)
		largest = true
	}

	box := best.Box
	return Selection{
		Metrics:        best.Metrics,
		Features:       DeriveFeatures(best.Metrics),
		Box:            &box,
		CandidateCount: len(candidates),
		LargestArea:    largest,
	}
}

func newCandidate(c Contour, imgW, imgH int) Candidate {
	metrics := computeShapeMetrics(c.Box, c.Area, imgW, imgH)
	return Candidate{
		Contour: c,
		Box:     c.Box,
		Area:    c.Area,
		Metrics: metrics,
		Score:   HumanLikenessScore(metrics),
	}
}

func computeShapeMetrics(box models.BoundingBox, area float64, imgW, imgH int) models.ShapeMetrics {
	return models.ShapeMetrics{
		AspectRatio: float64(box.Height) / (float64(box.Width) + ratioEpsilon),
		AreaRatio:   area / (float64(imgW*imgH) + ratioEpsilon),
		WidthRatio:  float64(box.Width) / (float64(imgW) + ratioEpsilon),
	}
}

// HumanLikenessScore sums non-positive penalty terms; higher is more person-like.
func HumanLikenessScore(m models.ShapeMetrics) float64 {
	score := -math.Abs(m.AspectRatio - idealAspectRatio)
	score -= proportionPenalty * math.Max(0, m.WidthRatio-maxWidthRatio)
	score -= proportionPenalty * math.Max(0, minWidthRatio-m.WidthRatio)
	score -= proportionPenalty * math.Max(0, m.AreaRatio-maxAreaRatio)
	score -= proportionPenalty * math.Max(0, minAreaRatio-m.AreaRatio)
	return score
}

// bestScoring folds over the candidates keeping the strictly highest score,
// so the first of equal scores wins. It reports false when no score beats
// negative infinity (only possible with NaN scores).
func bestScoring(candidates []Candidate) (Candidate, bool) {
	var best Candidate
	bestScore := math.Inf(-1)
	found := false
	for _, c := range candidates {
		if c.Score > bestScore {
			best, bestScore, found = c, c.Score, true
		}
	}
	return best, found
}

func largestCandidate(candidates []Candidate) Candidate {
	largest := candidates[0]
	for _, c := range candidates[1:] {
		if c.Area > largest.Area {
			largest = c
		}
	}
	return largest
}
