package service

import (
	"context"
	"errors"
	"time"

	"go-body-analyzer/internal/analyzer"
	apperrors "go-body-analyzer/internal/errors"
	"go-body-analyzer/internal/observer"
	"go-body-analyzer/pkg/models"
	"go-body-analyzer/pkg/validation"
)

// DecodeFailureMessage is returned when an accepted upload cannot be decoded
const DecodeFailureMessage = "Could not read the uploaded image."

// BodyAnalysisService defines the interface for analyzing uploaded photos
type BodyAnalysisService interface {
	// Analyze validates the content type, decodes the image and estimates body fat
	Analyze(ctx context.Context, data []byte, contentType string) (*models.AnalysisResult, error)

	// AnalyzeDetailed is Analyze plus the intermediate values
	AnalyzeDetailed(ctx context.Context, data []byte, contentType string) (*models.DetailedAnalysisResponse, error)

	// ModelLoaded reports whether estimates blend in a regression model
	ModelLoaded() bool
}

// bodyAnalysisService implements BodyAnalysisService with a single analyzer
type bodyAnalysisService struct {
	analyzer  analyzer.BodyAnalyzer
	publisher observer.Subject
}

// NewBodyAnalysisService creates a new body analysis service
func NewBodyAnalysisService(bodyAnalyzer analyzer.BodyAnalyzer, publisher observer.Subject) BodyAnalysisService {
	return &bodyAnalysisService{
		analyzer:  bodyAnalyzer,
		publisher: publisher,
	}
}

func (s *bodyAnalysisService) Analyze(ctx context.Context, data []byte, contentType string) (*models.AnalysisResult, error) {
	analysis, err := s.run(ctx, data, contentType)
	if err != nil {
		return nil, err
	}
	return &analysis.Result, nil
}

func (s *bodyAnalysisService) AnalyzeDetailed(ctx context.Context, data []byte, contentType string) (*models.DetailedAnalysisResponse, error) {
	analysis, err := s.run(ctx, data, contentType)
	if err != nil {
		return nil, err
	}
	detailed := analysis.Detailed()
	return &detailed, nil
}

func (s *bodyAnalysisService) ModelLoaded() bool {
	return s.analyzer.ModelLoaded()
}

// run rejects unsupported content types before touching the bytes, then
// decodes and analyzes. Model failures never surface as errors.
func (s *bodyAnalysisService) run(ctx context.Context, data []byte, contentType string) (analyzer.Analysis, error) {
	requestID := RequestIDFromContext(ctx)
	normalized := validation.NormalizeContentType(contentType)

	if err := validation.ValidateImageContentType(contentType); err != nil {
		s.notify(ctx, observer.AnalysisEvent{
			EventType:    observer.AnalysisRejected,
			RequestID:    requestID,
			ContentType:  normalized,
			ErrorMessage: err.Error(),
		})
		return analyzer.Analysis{}, err
	}

	if err := ctx.Err(); err != nil {
		return analyzer.Analysis{}, contextError(err)
	}

	s.notify(ctx, observer.AnalysisEvent{
		EventType:   observer.AnalysisStarted,
		RequestID:   requestID,
		ContentType: normalized,
		Metadata:    map[string]interface{}{"size_bytes": len(data)},
	})

	analysis, err := s.analyzer.AnalyzeBytes(data)
	if errors.Is(err, analyzer.ErrUndecodable) {
		decodeErr := apperrors.NewDecodeError(DecodeFailureMessage, err)
		s.notify(ctx, observer.AnalysisEvent{
			EventType:    observer.AnalysisRejected,
			RequestID:    requestID,
			ContentType:  normalized,
			ErrorMessage: decodeErr.Error(),
		})
		return analyzer.Analysis{}, decodeErr
	}
	if err != nil {
		return analyzer.Analysis{}, apperrors.NewInternalError("Analysis failed", err)
	}

	if analysis.Blend.Source == models.SourceFallback {
		s.notify(ctx, observer.AnalysisEvent{
			EventType:    observer.ModelFallback,
			RequestID:    requestID,
			ContentType:  normalized,
			ErrorMessage: analysis.Blend.Err.Error(),
		})
	}

	result := analysis.Result
	metrics := analysis.Selection.Metrics
	s.notify(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		RequestID:      requestID,
		ContentType:    normalized,
		ProcessingTime: analysis.ProcessingTime,
		Success:        true,
		Result:         &result,
		Metrics:        &metrics,
		EstimateSource: analysis.Blend.Source,
		Metadata: map[string]interface{}{
			"candidate_count": analysis.Selection.CandidateCount,
			"fallback_used":   analysis.Selection.FallbackUsed,
		},
	})

	return analysis, nil
}

func (s *bodyAnalysisService) notify(ctx context.Context, event observer.AnalysisEvent) {
	if s.publisher == nil {
		return
	}
	event.Timestamp = time.Now()
	s.publisher.NotifyObservers(ctx, event)
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("analysis timed out", err)
	}
	return apperrors.NewInternalError("request cancelled", err)
}
