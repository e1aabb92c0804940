// Command train-model fits the linear body-fat model over the five pipeline
// features and writes it as a JSON artifact the API can load.
package main

import (
	"flag"
	"fmt"
	"os"

	"go-body-analyzer/internal/logger"
	"go-body-analyzer/internal/model"
	"go-body-analyzer/pkg/models"

	"github.com/sirupsen/logrus"
)

func main() {
	var (
		dataPath     = flag.String("data", "", "CSV with height_cm, weight_kg, waist_cm, neck_cm, hip_cm and bodyfat_pct columns; synthetic data when empty")
		outPath      = flag.String("out", "bodyfat_model.json", "where to write the model artifact")
		samples      = flag.Int("n", 800, "synthetic sample count")
		seed         = flag.Int64("seed", 42, "random seed for data generation and the holdout split")
		testFraction = flag.Float64("test-fraction", 0.2, "share of rows held out for evaluation")
	)
	flag.Parse()

	data, err := loadDataset(*dataPath, *samples, *seed)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load training data")
	}

	m, err := train(data, *testFraction, *seed)
	if err != nil {
		logger.WithError(err).Fatal("Training failed")
	}

	out, err := m.Marshal()
	if err != nil {
		logger.WithError(err).Fatal("Failed to encode model")
	}
	if err := os.WriteFile(*outPath, out, 0o644); err != nil {
		logger.WithError(err).Fatal("Failed to write model")
	}

	metrics := m.Artifact().Metrics
	logger.WithFields(logrus.Fields{
		"r2":            fmt.Sprintf("%.3f", metrics.R2),
		"mae":           fmt.Sprintf("%.2f", metrics.MAE),
		"train_samples": metrics.TrainSamples,
		"test_samples":  metrics.TestSamples,
		"path":          *outPath,
	}).Info("Saved model")
}

func loadDataset(path string, n int, seed int64) (dataset, error) {
	if path == "" {
		logger.WithField("samples", n).Info("No dataset given, generating synthetic data")
		return syntheticDataset(n, seed), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return dataset{}, err
	}
	defer f.Close()

	logger.WithField("path", path).Info("Loading dataset")
	return readCSV(f)
}

// train fits on the training split and records holdout metrics on the model.
func train(data dataset, testFraction float64, seed int64) (*model.LinearModel, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, fmt.Errorf("test fraction must be in (0, 1), got %g", testFraction)
	}

	trainSet, testSet := data.split(testFraction, seed)
	if testSet.len() == 0 {
		return nil, fmt.Errorf("holdout is empty with %d rows", data.len())
	}

	m, err := model.Fit(models.FeatureNames[:], trainSet.x, trainSet.y)
	if err != nil {
		return nil, err
	}

	metrics, err := model.Evaluate(m, testSet.x, testSet.y)
	if err != nil {
		return nil, err
	}
	metrics.TrainSamples = trainSet.len()
	return m.WithMetrics(metrics), nil
}
