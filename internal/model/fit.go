package model

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Fit trains a linear model by ordinary least squares on z-scored features.
func Fit(names []string, x [][]float64, y []float64) (*LinearModel, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("%d rows but %d targets", len(x), len(y))
	}
	if len(x) == 0 {
		return nil, errors.New("no training rows")
	}
	n := len(x[0])
	if len(x) <= n {
		return nil, fmt.Errorf("need more than %d rows to fit %d features", n, n)
	}

	scaler, err := NewFeatureScaler(x)
	if err != nil {
		return nil, err
	}

	// design matrix with a leading intercept column
	design := mat.NewDense(len(x), n+1, nil)
	for i, row := range x {
		scaled, err := scaler.Transform(row)
		if err != nil {
			return nil, err
		}
		design.Set(i, 0, 1)
		for j, v := range scaled {
			design.Set(i, j+1, v)
		}
	}

	var beta mat.VecDense
	if err := beta.SolveVec(design, mat.NewVecDense(len(y), append([]float64(nil), y...))); err != nil {
		return nil, fmt.Errorf("least squares fit failed: %w", err)
	}

	coef := make([]float64, n)
	for j := range coef {
		coef[j] = beta.AtVec(j + 1)
	}

	return NewLinearModel(Artifact{
		Kind:         KindLinear,
		Version:      ArtifactVersion,
		Features:     append([]string(nil), names...),
		Intercept:    beta.AtVec(0),
		Coefficients: coef,
		Scaler:       *scaler,
	})
}

// Evaluate scores raw predictions of m on held-out rows.
func Evaluate(m *LinearModel, x [][]float64, y []float64) (Metrics, error) {
	if len(x) != len(y) || len(x) == 0 {
		return Metrics{}, errors.New("evaluation needs matching, non-empty rows and targets")
	}

	pred := make([]float64, len(x))
	absErr := make([]float64, len(x))
	for i, row := range x {
		p, err := m.predictRaw(row)
		if err != nil {
			return Metrics{}, err
		}
		pred[i] = p
		absErr[i] = math.Abs(p - y[i])
	}

	return Metrics{
		R2:          stat.RSquaredFrom(pred, y, nil),
		MAE:         stat.Mean(absErr, nil),
		TestSamples: len(x),
	}, nil
}

// WithMetrics returns a copy of m carrying the given training metrics.
func (m *LinearModel) WithMetrics(metrics Metrics) *LinearModel {
	a := m.Artifact()
	a.Metrics = metrics
	return &LinearModel{artifact: a, coef: mat.VecDenseCopyOf(m.coef)}
}

func (m *LinearModel) predictRaw(features []float64) (float64, error) {
	scaled, err := m.artifact.Scaler.Transform(features)
	if err != nil {
		return 0, err
	}
	return m.artifact.Intercept + mat.Dot(m.coef, mat.NewVecDense(len(scaled), scaled)), nil
}
