package factory

import (
	"fmt"

	"go-body-analyzer/internal/analyzer"
	"go-body-analyzer/internal/config"
	"go-body-analyzer/internal/model"
	"go-body-analyzer/internal/storage"
	"go-body-analyzer/pkg/validation"
)

// AnalyzerType represents different types of body analyzers
type AnalyzerType string

const (
	// StandardAnalyzer blends the heuristic with the model when one is loaded
	StandardAnalyzer AnalyzerType = "standard"
	// HeuristicAnalyzer never consults a model
	HeuristicAnalyzer AnalyzerType = "heuristic"
)

// AnalyzerFactory creates body analyzers
type AnalyzerFactory interface {
	CreateAnalyzer(analyzerType AnalyzerType, predictor analyzer.Predictor) (analyzer.BodyAnalyzer, error)
}

// StorageFactory creates artifact fetchers for a model source
type StorageFactory interface {
	CreateStorage(source config.ModelSource) (storage.ArtifactFetcher, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	cfg *config.Config
}

// NewAnalyzerFactory creates a new analyzer factory. Segmentation settings
// come from cfg.
func NewAnalyzerFactory(cfg *config.Config) AnalyzerFactory {
	return &analyzerFactory{cfg: cfg}
}

// CreateAnalyzer creates an analyzer based on the specified type. predictor
// may be nil.
func (f *analyzerFactory) CreateAnalyzer(analyzerType AnalyzerType, predictor analyzer.Predictor) (analyzer.BodyAnalyzer, error) {
	opts := analyzer.DefaultOptions().
		WithCanonicalSize(f.cfg.CanonicalSize).
		WithAutoOrient(f.cfg.AutoOrient).
		WithMaxImagePixels(f.cfg.MaxImagePixels)

	switch analyzerType {
	case StandardAnalyzer:
		return analyzer.NewBodyAnalyzer(predictor, opts), nil
	case HeuristicAnalyzer:
		return analyzer.NewBodyAnalyzer(nil, opts.WithoutModel()), nil
	default:
		return nil, fmt.Errorf("unsupported analyzer type: %s", analyzerType)
	}
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified source
func (f *storageFactory) CreateStorage(source config.ModelSource) (storage.ArtifactFetcher, error) {
	switch source {
	case config.ModelSourceHTTP:
		return storage.NewHTTPArtifactFetcher(f.cfg.ModelFetchTimeout), nil
	case config.ModelSourceAzure:
		return storage.NewAzureStorage(f.cfg.AzureAccount, f.cfg.AzureKey)
	case config.ModelSourceLocal:
		return storage.NewLocalStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", source)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory

	cfg       *config.Config
	modelURLs *validation.ModelURLPolicy
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(cfg),
		StorageFactory:  NewStorageFactory(cfg),
		cfg:             cfg,
		modelURLs:       validation.NewModelURLPolicy(cfg.ModelURLHosts...),
	}
}

// CreateModelLoader returns the loader for the configured model source.
// It returns nil without error when no model is configured.
func (f *ComponentFactory) CreateModelLoader() (*model.Loader, error) {
	var location string
	switch f.cfg.ModelSource {
	case config.ModelSourceNone, "":
		return nil, nil
	case config.ModelSourceLocal:
		location = f.cfg.ModelPath
	case config.ModelSourceHTTP:
		if err := f.modelURLs.Check(f.cfg.ModelURL); err != nil {
			return nil, fmt.Errorf("invalid MODEL_URL: %w", err)
		}
		location = f.cfg.ModelURL
	case config.ModelSourceAzure:
		location = storage.BlobLocation(f.cfg.ModelContainer, f.cfg.ModelBlob)
	}

	fetcher, err := f.StorageFactory.CreateStorage(f.cfg.ModelSource)
	if err != nil {
		return nil, err
	}
	return &model.Loader{Fetcher: fetcher, Location: location}, nil
}
