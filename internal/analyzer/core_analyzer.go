package analyzer

import (
	"fmt"
	"image"
	"time"
)

// coreAnalyzer implements BodyAnalyzer and orchestrates the pipeline stages
type coreAnalyzer struct {
	predictor Predictor
	options   AnalysisOptions
}

// NewBodyAnalyzer creates an analyzer. predictor may be nil, in which case
// estimates come from the heuristic alone.
func NewBodyAnalyzer(predictor Predictor, options AnalysisOptions) BodyAnalyzer {
	return &coreAnalyzer{
		predictor: predictor,
		options:   options,
	}
}

// Analyze runs the pipeline with the analyzer's configured options
func (ca *coreAnalyzer) Analyze(img image.Image) (Analysis, error) {
	return ca.AnalyzeWithOptions(img, ca.options)
}

// AnalyzeBytes decodes data honoring the AutoOrient and MaxImagePixels
// options and analyzes it. Decode failures wrap ErrUndecodable.
func (ca *coreAnalyzer) AnalyzeBytes(data []byte) (Analysis, error) {
	img, err := DecodeImage(data, ca.options.AutoOrient, ca.options.MaxImagePixels)
	if err != nil {
		return Analysis{}, fmt.Errorf("%w: %w", ErrUndecodable, err)
	}
	return ca.Analyze(img)
}

func (ca *coreAnalyzer) ModelLoaded() bool {
	return ca.predictor != nil
}

// AnalyzeWithOptions extracts the silhouette, selects the best candidate,
// scores it heuristically, blends in the model if any and interprets the result.
func (ca *coreAnalyzer) AnalyzeWithOptions(img image.Image, options AnalysisOptions) (Analysis, error) {
	start := time.Now()

	size := options.CanonicalSize
	if size <= 0 {
		size = DefaultCanonicalSize
	}

	silhouette, err := ExtractSilhouette(img, size, options.BlurKernel)
	if err != nil {
		return Analysis{}, err
	}
	selection := SelectSilhouette(silhouette.Contours, silhouette.Width, silhouette.Height)
	heuristic := HeuristicBodyFat(selection.Metrics)

	var predictor Predictor
	if !options.SkipModel {
		predictor = ca.predictor
	}
	blend := Blend(heuristic, selection.Features, predictor)

	return Analysis{
		Result:         Interpret(blend.BodyFat),
		Silhouette:     silhouette,
		Selection:      selection,
		Blend:          blend,
		ProcessingTime: time.Since(start),
	}, nil
}
