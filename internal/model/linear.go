package model

import (
	"encoding/json"
	"fmt"
	"math"

	"go-body-analyzer/pkg/models"

	"gonum.org/v1/gonum/mat"
)

const (
	// KindLinear identifies a z-scored ordinary least squares model.
	KindLinear = "linear"
	// ArtifactVersion is the artifact format understood by this package.
	ArtifactVersion = 1
)

// Metrics are the holdout scores recorded at training time.
type Metrics struct {
	R2           float64 `json:"r2"`
	MAE          float64 `json:"mae"`
	TrainSamples int     `json:"train_samples"`
	TestSamples  int     `json:"test_samples"`
}

// Artifact is the serialized form of a trained model.
type Artifact struct {
	Kind         string        `json:"kind"`
	Version      int           `json:"version"`
	Features     []string      `json:"features"`
	Intercept    float64       `json:"intercept"`
	Coefficients []float64     `json:"coefficients"`
	Scaler       FeatureScaler `json:"scaler"`
	Metrics      Metrics       `json:"metrics"`
}

// LinearModel predicts body fat as intercept + coefficients . zscore(features).
// It is immutable after construction and safe for concurrent use.
type LinearModel struct {
	artifact Artifact
	coef     *mat.VecDense
}

// Parse decodes and validates an artifact.
func Parse(data []byte) (*LinearModel, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("invalid model artifact: %w", err)
	}
	return NewLinearModel(a)
}

// NewLinearModel validates the artifact and builds a model from it. The
// feature count is not checked against the pipeline here; a mismatch shows
// up as a prediction error.
func NewLinearModel(a Artifact) (*LinearModel, error) {
	if a.Kind != KindLinear {
		return nil, fmt.Errorf("unsupported model kind %q", a.Kind)
	}
	if a.Version != ArtifactVersion {
		return nil, fmt.Errorf("unsupported model version %d", a.Version)
	}
	n := len(a.Coefficients)
	if n == 0 {
		return nil, fmt.Errorf("model has no coefficients")
	}
	if len(a.Features) != 0 && len(a.Features) != n {
		return nil, fmt.Errorf("model lists %d features but has %d coefficients", len(a.Features), n)
	}
	if err := a.Scaler.Validate(n); err != nil {
		return nil, err
	}
	for _, c := range append([]float64{a.Intercept}, a.Coefficients...) {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("model has non-finite parameters")
		}
	}

	coef := make([]float64, n)
	copy(coef, a.Coefficients)
	return &LinearModel{artifact: a, coef: mat.NewVecDense(n, coef)}, nil
}

// Predict implements the analyzer's predictor contract.
func (m *LinearModel) Predict(features models.FeatureVector) (float64, error) {
	if m.coef.Len() != models.FeatureVectorLen {
		return 0, fmt.Errorf("model expects %d features, pipeline provides %d", m.coef.Len(), models.FeatureVectorLen)
	}
	return m.predictRaw(features.Slice())
}

// Artifact returns a copy of the model's serialized form.
func (m *LinearModel) Artifact() Artifact {
	a := m.artifact
	a.Features = append([]string(nil), a.Features...)
	a.Coefficients = append([]float64(nil), a.Coefficients...)
	a.Scaler.Mean = append([]float64(nil), a.Scaler.Mean...)
	a.Scaler.Stddev = append([]float64(nil), a.Scaler.Stddev...)
	return a
}

// Marshal serializes the model as an indented JSON artifact.
func (m *LinearModel) Marshal() ([]byte, error) {
	return json.MarshalIndent(m.artifact, "", "  ")
}
