package observer

import (
	"context"
	"sync"
	"time"

	"go-body-analyzer/internal/repository"
	"go-body-analyzer/pkg/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AnalysisEvent represents an analysis event
type AnalysisEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id,omitempty"`
	ContentType    string                 `json:"content_type,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Result         *models.AnalysisResult `json:"result,omitempty"`
	Metrics        *models.ShapeMetrics   `json:"metrics,omitempty"`
	EstimateSource models.EstimateSource  `json:"estimate_source,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of analysis event
type EventType string

const (
	// AnalysisStarted when an upload is accepted for analysis
	AnalysisStarted EventType = "analysis_started"
	// AnalysisCompleted when analysis finishes successfully
	AnalysisCompleted EventType = "analysis_completed"
	// AnalysisRejected when the upload has the wrong type or cannot be decoded
	AnalysisRejected EventType = "analysis_rejected"
	// ModelFallback when a loaded model failed and the heuristic was used alone
	ModelFallback EventType = "model_fallback"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event AnalysisEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event AnalysisEvent)
	// Wait blocks until every notification sent so far has been handled
	Wait()
}

// LoggingObserver logs analysis events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles analysis events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"request_id":      event.RequestID,
		"content_type":    event.ContentType,
		"processing_time": event.ProcessingTime,
		"success":         event.Success,
	}

	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	if event.Result != nil {
		fields["bodyfat"] = event.Result.BodyFat
		fields["category"] = event.Result.Category
	}
	if event.EstimateSource != "" {
		fields["estimate_source"] = event.EstimateSource
	}

	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case AnalysisStarted:
		o.logger.WithFields(fields).Debug("Body analysis started")
	case AnalysisCompleted:
		o.logger.WithFields(fields).Info("Body analysis completed")
	case AnalysisRejected:
		o.logger.WithFields(fields).Warn("Body analysis rejected")
	case ModelFallback:
		o.logger.WithFields(fields).Warn("Model prediction failed, using heuristic estimate")
	default:
		o.logger.WithFields(fields).Info("Analysis event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects metrics from analysis events
type MetricsObserver struct {
	mu                  sync.RWMutex
	totalAnalyses       int64
	successfulAnalyses  int64
	rejectedAnalyses    int64
	modelFallbacks      int64
	bySource            map[models.EstimateSource]int64
	byCategory          map[string]int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		bySource:   make(map[models.EstimateSource]int64),
		byCategory: make(map[string]int64),
	}
}

// OnEvent handles analysis events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case AnalysisStarted:
		o.totalAnalyses++
	case AnalysisCompleted:
		o.successfulAnalyses++
		o.totalProcessingTime += event.ProcessingTime
		if event.EstimateSource != "" {
			o.bySource[event.EstimateSource]++
		}
		if event.Result != nil {
			o.byCategory[event.Result.Category]++
		}
	case AnalysisRejected:
		o.rejectedAnalyses++
	case ModelFallback:
		o.modelFallbacks++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.successfulAnalyses > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.successfulAnalyses)
	}

	bySource := make(map[string]int64, len(o.bySource))
	for k, v := range o.bySource {
		bySource[string(k)] = v
	}
	byCategory := make(map[string]int64, len(o.byCategory))
	for k, v := range o.byCategory {
		byCategory[k] = v
	}

	return map[string]interface{}{
		"total_analyses":          o.totalAnalyses,
		"successful_analyses":     o.successfulAnalyses,
		"rejected_analyses":       o.rejectedAnalyses,
		"model_fallbacks":         o.modelFallbacks,
		"by_estimate_source":      bySource,
		"by_category":             byCategory,
		"total_processing_time":   o.totalProcessingTime.String(),
		"avg_processing_time":     avgProcessingTime.String(),
		"avg_processing_time_sec": avgProcessingTime.Seconds(),
	}
}

// HistoryObserver persists completed analyses. Images are never part of an
// event, so only results reach the repository.
type HistoryObserver struct {
	repo   repository.AnalysisRepository
	logger *logrus.Logger
	now    func() time.Time
}

// NewHistoryObserver creates an observer writing to repo
func NewHistoryObserver(repo repository.AnalysisRepository, logger *logrus.Logger) *HistoryObserver {
	return &HistoryObserver{repo: repo, logger: logger, now: time.Now}
}

// OnEvent stores completed analyses and ignores every other event
func (o *HistoryObserver) OnEvent(ctx context.Context, event AnalysisEvent) {
	if event.EventType != AnalysisCompleted || event.Result == nil {
		return
	}

	// request IDs come from clients and may repeat, so records get their own
	record := &models.HistoryRecord{
		ID:             uuid.NewString(),
		RequestID:      event.RequestID,
		Timestamp:      event.Timestamp,
		ContentType:    event.ContentType,
		Result:         *event.Result,
		EstimateSource: event.EstimateSource,
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = o.now()
	}
	if event.Metrics != nil {
		record.Metrics = *event.Metrics
	}

	// the request context may already be cancelled once the response is written
	if err := o.repo.SaveAnalysisResult(context.WithoutCancel(ctx), record); err != nil {
		o.logger.WithError(err).WithField("request_id", event.RequestID).Error("Failed to save analysis history")
	}
}

// GetObserverName returns the observer name
func (o *HistoryObserver) GetObserverName() string {
	return "history_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	pending   sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event AnalysisEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Notify observers concurrently
	p.pending.Add(len(observers))
	for _, observer := range observers {
		go func(obs Observer) {
			defer p.pending.Done()
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until in-flight notifications finish
func (p *EventPublisher) Wait() {
	p.pending.Wait()
}
