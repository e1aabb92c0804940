package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go-body-analyzer/internal/analyzer"
	"go-body-analyzer/internal/config"
	"go-body-analyzer/internal/factory"
	"go-body-analyzer/internal/logger"
	"go-body-analyzer/internal/model"
	"go-body-analyzer/internal/observer"
	"go-body-analyzer/internal/repository"
	"go-body-analyzer/internal/service"
	"go-body-analyzer/internal/transport"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config              *config.Config
	modelHandle         *model.Handle
	bodyAnalyzer        analyzer.BodyAnalyzer
	publisher           observer.Subject
	metrics             *observer.MetricsObserver
	analysisRepository  repository.AnalysisRepository
	bodyAnalysisService service.BodyAnalysisService
	handler             http.Handler
	logCloser           io.Closer
}

// NewContainer builds the dependency graph. A model that cannot be loaded is
// logged and left out; analyses then use the heuristic alone.
func NewContainer(cfg *config.Config) (*Container, error) {
	logger.SetLevel(cfg.LogLevel)

	var logCloser io.Closer
	if cfg.LogFile != "" {
		logCloser = logger.EnableFileOutput(logger.FileOptions{
			Path:       cfg.LogFile,
			MaxSizeMB:  cfg.LogMaxSizeMB,
			MaxBackups: cfg.LogMaxBackups,
			MaxAgeDays: cfg.LogMaxAgeDays,
		})
	}

	components := factory.NewComponentFactory(cfg)
	modelHandle := loadModel(cfg, components)

	// only a loaded model may become the predictor; a nil *LinearModel must not
	var predictor analyzer.Predictor
	if m, ok := modelHandle.Model(); ok {
		predictor = m
	}

	bodyAnalyzer, err := components.AnalyzerFactory.CreateAnalyzer(factory.StandardAnalyzer, predictor)
	if err != nil {
		return nil, err
	}

	publisher := observer.NewEventPublisher()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(metrics)

	var analysisRepository repository.AnalysisRepository
	if cfg.HistoryEnabled() {
		repo, err := repository.NewSQLiteAnalysisRepository(cfg.HistoryDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		analysisRepository = repo
		publisher.Subscribe(observer.NewHistoryObserver(repo, logger.Logger))
		logger.WithField("path", cfg.HistoryDBPath).Info("Analysis history enabled")
	}

	bodyAnalysisService := service.NewBodyAnalysisService(bodyAnalyzer, publisher)
	handler := transport.NewHandler(transport.Dependencies{
		Service: bodyAnalysisService,
		Metrics: metrics,
		History: analysisRepository,
	}, cfg)

	return &Container{
		config:              cfg,
		modelHandle:         modelHandle,
		bodyAnalyzer:        bodyAnalyzer,
		publisher:           publisher,
		metrics:             metrics,
		analysisRepository:  analysisRepository,
		bodyAnalysisService: bodyAnalysisService,
		handler:             handler,
		logCloser:           logCloser,
	}, nil
}

func loadModel(cfg *config.Config, components *factory.ComponentFactory) *model.Handle {
	fields := logrus.Fields{"model_source": cfg.ModelSource}

	loader, err := components.CreateModelLoader()
	if err != nil {
		logger.WithError(err).WithFields(fields).Warn("Model source misconfigured, using heuristic estimates only")
		return model.NewHandle(nil)
	}
	if loader == nil {
		logger.WithFields(fields).Info("No model configured, using heuristic estimates only")
		return model.NewHandle(nil)
	}

	fields["location"] = loader.Location
	handle := model.NewHandle(loader)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ModelFetchTimeout)
	defer cancel()
	if err := handle.Load(ctx); err != nil {
		logger.WithError(err).WithFields(fields).Warn("Model unavailable, using heuristic estimates only")
		return handle
	}

	m, _ := handle.Model()
	metrics := m.Artifact().Metrics
	fields["r2"] = metrics.R2
	fields["mae"] = metrics.MAE
	logger.WithFields(fields).Info("Model loaded")
	return handle
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Service returns the body analysis service
func (c *Container) Service() service.BodyAnalysisService {
	return c.bodyAnalysisService
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// ModelLoaded reports whether a model was loaded at startup
func (c *Container) ModelLoaded() bool {
	_, ok := c.modelHandle.Model()
	return ok
}

// Close waits for pending observer work, then releases the history
// database and log file.
func (c *Container) Close() error {
	c.publisher.Wait()

	var errs []error
	if c.analysisRepository != nil {
		errs = append(errs, c.analysisRepository.Close())
	}
	if c.logCloser != nil {
		errs = append(errs, c.logCloser.Close())
	}
	return errors.Join(errs...)
}
