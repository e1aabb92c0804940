package analyzer

import (
	"fmt"
	"math"

	"go-body-analyzer/pkg/models"
)

// Predictor is a trained regressor mapping the feature vector to a body-fat
// percentage. Implementations may fail; the blender never propagates it.
type Predictor interface {
	Predict(features models.FeatureVector) (float64, error)
}

const (
	heuristicWeight = 0.7
	modelWeight     = 0.3

	finalMinBodyFat = 4.0
	finalMaxBodyFat = 45.0
)

// BlendResult records the final estimate and how it was reached.
type BlendResult struct {
	BodyFat   float64
	Heuristic float64
	// Model is the predictor output when one was produced and usable.
	Model  *float64
	Source models.EstimateSource
	// Err is the predictor failure that forced a fallback, if any.
	Err error
}

// Blend combines the heuristic with the model prediction (70/30) when a
// predictor is present and succeeds, otherwise it falls back to the
// heuristic. The result is always clamped to [4, 45].
func Blend(heuristic float64, features models.FeatureVector, predictor Predictor) BlendResult {
	res := BlendResult{Heuristic: heuristic}
	if predictor == nil {
		res.Source = models.SourceHeuristic
		res.BodyFat = clamp(heuristic, finalMinBodyFat, finalMaxBodyFat)
		return res
	}

	pred, err := safePredict(predictor, features)
	if err != nil {
		res.Source = models.SourceFallback
		res.Err = err
		res.BodyFat = clamp(heuristic, finalMinBodyFat, finalMaxBodyFat)
		return res
	}

	res.Model = &pred
	res.Source = models.SourceBlended
	res.BodyFat = clamp(heuristicWeight*heuristic+modelWeight*pred, finalMinBodyFat, finalMaxBodyFat)
	return res
}

func safePredict(p Predictor, features models.FeatureVector) (pred float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predictor panicked: %v", r)
		}
	}()
	pred, err = p.Predict(features)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(pred) || math.IsInf(pred, 0) {
		return 0, fmt.Errorf("predictor returned non-finite value %v", pred)
	}
	return pred, nil
}
