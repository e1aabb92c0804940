package analyzer

import "go-body-analyzer/pkg/models"

// FallbackMetrics are used when segmentation finds no contour at all.
var FallbackMetrics = models.ShapeMetrics{
	AspectRatio: 1.6,
	AreaRatio:   0.3,
	WidthRatio:  0.35,
}

// FallbackFeatures pairs with FallbackMetrics.
var FallbackFeatures = models.FeatureVector{170, 75, 85, 38, 95}

// Proxy measurement formulas. These are monotonic stand-ins shaped like the
// regression model's training features, not anthropometric estimates.
const (
	assumedHeightCM = 170.0

	baseWeightKG     = 70.0
	weightAreaPivot  = 0.25
	weightAreaFactor = 80.0

	baseWaistCM       = 80.0
	waistAspectPivot  = 1.8
	waistAspectFactor = 15.0

	baseNeckCM       = 38.0
	neckAspectPivot  = 1.5
	neckAspectFactor = 4.0

	hipOverWaistCM = 5.0
)

// DeriveFeatures synthesizes the model feature vector from shape metrics.
func DeriveFeatures(m models.ShapeMetrics) models.FeatureVector {
	weight := baseWeightKG + (m.AreaRatio-weightAreaPivot)*weightAreaFactor
	waist := baseWaistCM + (waistAspectPivot-m.AspectRatio)*waistAspectFactor
	neck := baseNeckCM - (m.AspectRatio-neckAspectPivot)*neckAspectFactor
	hip := waist + hipOverWaistCM
	return models.FeatureVector{assumedHeightCM, weight, waist, neck, hip}
}
