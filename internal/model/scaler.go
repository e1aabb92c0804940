package model

import (
	"errors"

	"gonum.org/v1/gonum/stat"
)

// FeatureScaler standardizes features using z-score normalization.
// Each feature dimension is transformed to have mean=0 and std=1.
type FeatureScaler struct {
	Mean   []float64 `json:"mean"`
	Stddev []float64 `json:"stddev"`
}

// NewFeatureScaler computes scaling parameters from training rows
func NewFeatureScaler(rows [][]float64) (*FeatureScaler, error) {
	if len(rows) == 0 {
		return nil, errors.New("no rows provided")
	}
	featureCount := len(rows[0])
	if featureCount == 0 {
		return nil, errors.New("rows have no features")
	}

	column := make([]float64, len(rows))
	mean := make([]float64, featureCount)
	stddev := make([]float64, featureCount)
	for j := 0; j < featureCount; j++ {
		for i, row := range rows {
			if len(row) != featureCount {
				return nil, errors.New("inconsistent feature dimensions")
			}
			column[i] = row[j]
		}
		mean[j], stddev[j] = stat.PopMeanStdDev(column, nil)
		// constant features would divide by zero
		if stddev[j] < 1e-10 {
			stddev[j] = 1.0
		}
	}

	return &FeatureScaler{Mean: mean, Stddev: stddev}, nil
}

// Validate checks the scaler is usable for n features
func (fs *FeatureScaler) Validate(n int) error {
	if len(fs.Mean) != n || len(fs.Stddev) != n {
		return errors.New("scaler dimensions do not match features")
	}
	for _, s := range fs.Stddev {
		if s <= 0 {
			return errors.New("scaler stddev must be positive")
		}
	}
	return nil
}

// Transform applies z-score standardization to a feature vector
func (fs *FeatureScaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(fs.Mean) {
		return nil, errors.New("feature dimensions do not match scaler")
	}
	scaled := make([]float64, len(features))
	for i, val := range features {
		scaled[i] = (val - fs.Mean[i]) / fs.Stddev[i]
	}
	return scaled, nil
}
