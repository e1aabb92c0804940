package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"sync"
	"testing"

	"go-body-analyzer/internal/analyzer"
	apperrors "go-body-analyzer/internal/errors"
	"go-body-analyzer/internal/observer"
	"go-body-analyzer/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureObserver struct {
	mu     sync.Mutex
	events []observer.AnalysisEvent
}

func (o *captureObserver) OnEvent(_ context.Context, event observer.AnalysisEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *captureObserver) GetObserverName() string { return "capture" }

func (o *captureObserver) types() []observer.EventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []observer.EventType
	for _, e := range o.events {
		out = append(out, e.EventType)
	}
	return out
}

type failingPredictor struct{}

func (failingPredictor) Predict(models.FeatureVector) (float64, error) {
	return 0, errors.New("model expects 6 features")
}

type countingPredictor struct {
	mu    sync.Mutex
	calls int
}

func (p *countingPredictor) Predict(models.FeatureVector) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return 15, nil
}

func figureImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			c := color.RGBA{0, 0, 0, 255}
			if x >= 96 && x < 160 && y >= 32 && y < 224 {
				c = color.RGBA{230, 230, 230, 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, figureImage()))
	return buf.Bytes()
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, figureImage(), &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func newTestService(predictor analyzer.Predictor) (BodyAnalysisService, *captureObserver, observer.Subject) {
	capture := &captureObserver{}
	publisher := observer.NewEventPublisher()
	publisher.Subscribe(capture)
	return NewBodyAnalysisService(analyzer.NewBodyAnalyzer(predictor, analyzer.DefaultOptions()), publisher), capture, publisher
}

func TestAnalyze_AcceptedContentTypes(t *testing.T) {
	svc, _, _ := newTestService(nil)

	for _, tc := range []struct {
		contentType string
		data        []byte
	}{
		{"image/png", pngBytes(t)},
		{"image/jpeg", jpegBytes(t)},
		{"image/jpg", jpegBytes(t)},
	} {
		result, err := svc.Analyze(context.Background(), tc.data, tc.contentType)
		require.NoError(t, err, tc.contentType)
		assert.Equal(t, 16.0, result.BodyFat, tc.contentType)
		assert.Equal(t, "Average to fit", result.Category)
		assert.Equal(t, 2300, result.SuggestedCalories)
		assert.Len(t, result.Notes, 3)
	}
}

func TestAnalyze_RejectsUnsupportedTypeBeforeDecoding(t *testing.T) {
	predictor := &countingPredictor{}
	svc, capture, publisher := newTestService(predictor)

	// valid PNG bytes, but the declared type is not accepted
	_, err := svc.Analyze(context.Background(), pngBytes(t), "image/gif")
	publisher.Wait()

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRejectedInput))
	assert.Equal(t, http.StatusBadRequest, apperrors.GetStatusCode(err))
	assert.Equal(t, []observer.EventType{observer.AnalysisRejected}, capture.types())
	assert.Zero(t, predictor.calls)
}

func TestAnalyze_RejectsContentTypeVariants(t *testing.T) {
	svc, _, _ := newTestService(nil)

	for _, ct := range []string{"IMAGE/PNG", "image/png; charset=binary", "image/jpeg "} {
		_, err := svc.Analyze(context.Background(), pngBytes(t), ct)
		require.Error(t, err, ct)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRejectedInput), ct)
	}
}

func TestAnalyze_OversizedImageIsDecodeFailure(t *testing.T) {
	capped := analyzer.NewBodyAnalyzer(nil, analyzer.DefaultOptions().WithMaxImagePixels(255*255))
	svc := NewBodyAnalysisService(capped, nil)

	_, err := svc.Analyze(context.Background(), pngBytes(t), "image/png")

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDecode))
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.GetStatusCode(err))
}

func TestAnalyze_DecodeFailure(t *testing.T) {
	svc, capture, publisher := newTestService(nil)

	_, err := svc.Analyze(context.Background(), []byte("this is not a png"), "image/png")
	publisher.Wait()

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeDecode))
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.GetStatusCode(err))
	assert.Contains(t, capture.types(), observer.AnalysisRejected)
	assert.NotContains(t, capture.types(), observer.AnalysisCompleted)
}

func TestAnalyze_ModelFailureFallsBackToHeuristic(t *testing.T) {
	svc, capture, publisher := newTestService(failingPredictor{})

	detailed, err := svc.AnalyzeDetailed(context.Background(), pngBytes(t), "image/png")
	publisher.Wait()

	require.NoError(t, err)
	assert.Equal(t, detailed.Breakdown.HeuristicBodyFat, detailed.BodyFat)
	assert.Equal(t, models.SourceFallback, detailed.Breakdown.EstimateSource)
	assert.Contains(t, detailed.Breakdown.ModelError, "6 features")
	assert.Nil(t, detailed.Breakdown.ModelBodyFat)
	assert.ElementsMatch(t,
		[]observer.EventType{observer.AnalysisStarted, observer.ModelFallback, observer.AnalysisCompleted},
		capture.types())
	assert.True(t, svc.ModelLoaded())
}

func TestAnalyzeDetailed_Blended(t *testing.T) {
	svc, _, _ := newTestService(&countingPredictor{})

	detailed, err := svc.AnalyzeDetailed(context.Background(), pngBytes(t), "image/png")
	require.NoError(t, err)

	// 0.7 * 16 + 0.3 * 15
	assert.InDelta(t, 15.7, detailed.BodyFat, 1e-9)
	assert.Equal(t, models.SourceBlended, detailed.Breakdown.EstimateSource)
	require.NotNil(t, detailed.Breakdown.ModelBodyFat)
	assert.Equal(t, 15.0, *detailed.Breakdown.ModelBodyFat)
	assert.Equal(t, 1, detailed.Breakdown.CandidateCount)
	assert.NotNil(t, detailed.Breakdown.SelectedBox)
	assert.GreaterOrEqual(t, detailed.ProcessingTimeSec, 0.0)
}

func TestAnalyze_CompletedEventCarriesRequestID(t *testing.T) {
	svc, capture, publisher := newTestService(nil)

	ctx := WithRequestID(context.Background(), "req-42")
	_, err := svc.Analyze(ctx, pngBytes(t), "image/png")
	publisher.Wait()
	require.NoError(t, err)

	capture.mu.Lock()
	defer capture.mu.Unlock()
	var completed *observer.AnalysisEvent
	for i := range capture.events {
		if capture.events[i].EventType == observer.AnalysisCompleted {
			completed = &capture.events[i]
		}
	}
	require.NotNil(t, completed)
	assert.Equal(t, "req-42", completed.RequestID)
	assert.Equal(t, "image/png", completed.ContentType)
	assert.Equal(t, models.SourceHeuristic, completed.EstimateSource)
	require.NotNil(t, completed.Result)
	assert.Equal(t, 16.0, completed.Result.BodyFat)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	svc, _, _ := newTestService(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Analyze(ctx, pngBytes(t), "image/png")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInternal))
}
