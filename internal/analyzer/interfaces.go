package analyzer

import (
	"errors"
	"image"
)

// ErrUndecodable marks AnalyzeBytes failures caused by the input bytes
// rather than by the pipeline.
var ErrUndecodable = errors.New("undecodable image")

// BodyAnalyzer defines the main interface for body-fat analysis
type BodyAnalyzer interface {
	// Analyze runs the pipeline on an already decoded image
	Analyze(img image.Image) (Analysis, error)

	// AnalyzeBytes decodes JPEG or PNG data and runs the pipeline
	AnalyzeBytes(data []byte) (Analysis, error)

	// AnalyzeWithOptions runs the pipeline with explicit configuration
	AnalyzeWithOptions(img image.Image, options AnalysisOptions) (Analysis, error)

	// ModelLoaded reports whether a regression model takes part in estimates
	ModelLoaded() bool
}
