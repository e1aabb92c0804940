package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"testing"
	"time"

	"go-body-analyzer/internal/analyzer"
	"go-body-analyzer/internal/config"
	"go-body-analyzer/internal/observer"
	"go-body-analyzer/internal/repository"
	"go-body-analyzer/internal/service"
	"go-body-analyzer/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	handler   http.Handler
	publisher observer.Subject
	repo      repository.AnalysisRepository
}

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout:     5 * time.Second,
		MaxRequestBodySize: 1 << 20,
		CORSOrigins:        []string{"*"},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, withHistory bool) *testServer {
	t.Helper()

	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(metrics)

	deps := Dependencies{Metrics: metrics}
	if withHistory {
		repo, err := repository.NewSQLiteAnalysisRepository(filepath.Join(t.TempDir(), "history.db"))
		require.NoError(t, err)
		t.Cleanup(func() { repo.Close() })
		publisher.Subscribe(observer.NewHistoryObserver(repo, logrus.New()))
		deps.History = repo
	}

	bodyAnalyzer := analyzer.NewBodyAnalyzer(nil, analyzer.DefaultOptions())
	deps.Service = service.NewBodyAnalysisService(bodyAnalyzer, publisher)

	return &testServer{
		handler:   NewHandler(deps, cfg),
		publisher: publisher,
		repo:      deps.History,
	}
}

func figurePNG(t *testing.T) []byte {
	t.Helper()
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
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, target, field, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename="photo"`, field))
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRootAndHealth(t *testing.T) {
	srv := newTestServer(t, testConfig(), false)

	rec := serve(srv.handler, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"AI Body Analyzer backend is running"}`, rec.Body.String())

	rec = serve(srv.handler, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "available", health.Status)
	assert.Equal(t, Version, health.Version)
	assert.False(t, health.ModelLoaded)
	assert.False(t, health.HistoryEnabled)
}

func TestAnalyzeImage_Success(t *testing.T) {
	srv := newTestServer(t, testConfig(), false)

	req := uploadRequest(t, "/analyze-image", "file", "image/png", figurePNG(t))
	req.Header.Set("Origin", "http://localhost:3000")
	rec := serve(srv.handler, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.AnalysisResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 16.0, result.BodyFat)
	assert.Equal(t, "Average to fit", result.Category)
	assert.Equal(t, "Mild cut or recomposition", result.GoalSuggestion)
	assert.Equal(t, 2300, result.SuggestedCalories)
	assert.Len(t, result.Notes, 3)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAnalyzeImage_Detail(t *testing.T) {
	srv := newTestServer(t, testConfig(), false)

	rec := serve(srv.handler, uploadRequest(t, "/analyze-image?detail=true", "file", "image/png", figurePNG(t)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var detailed models.DetailedAnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detailed))
	assert.Equal(t, 16.0, detailed.BodyFat)
	assert.Equal(t, models.SourceHeuristic, detailed.Breakdown.EstimateSource)
	assert.Equal(t, 16.0, detailed.Breakdown.HeuristicBodyFat)
	assert.InDelta(t, 0.25, detailed.Breakdown.Metrics.WidthRatio, 0.02)
	assert.False(t, detailed.Breakdown.FallbackUsed)
}

func TestAnalyzeImage_Errors(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		contentType string
		data        []byte
		wantCode    int
		wantDetail  string
	}{
		{
			name:        "unsupported content type",
			field:       "file",
			contentType: "image/gif",
			data:        []byte("GIF89a"),
			wantCode:    http.StatusBadRequest,
			wantDetail:  "Please upload a JPG or PNG image.",
		},
		{
			name:        "undecodable bytes",
			field:       "file",
			contentType: "image/png",
			data:        []byte("definitely not a png"),
			wantCode:    http.StatusUnprocessableEntity,
			wantDetail:  "Could not read the uploaded image.",
		},
		{
			name:        "missing file field",
			field:       "photo",
			contentType: "image/png",
			data:        []byte("x"),
			wantCode:    http.StatusBadRequest,
			wantDetail:  "No image file was uploaded.",
		},
	}

	srv := newTestServer(t, testConfig(), false)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv.handler, uploadRequest(t, "/analyze-image", tt.field, tt.contentType, tt.data))
			assert.Equal(t, tt.wantCode, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tt.wantDetail, resp.Detail)
			assert.Equal(t, http.StatusText(tt.wantCode), resp.Error)
		})
	}
}

func TestAnalyzeImage_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestBodySize = 512
	srv := newTestServer(t, cfg, false)

	rec := serve(srv.handler, uploadRequest(t, "/analyze-image", "file", "image/png", bytes.Repeat([]byte{0x42}, 4096)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestAnalyzeImage_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	srv := newTestServer(t, cfg, false)

	first := serve(srv.handler, uploadRequest(t, "/analyze-image", "file", "image/png", figurePNG(t)))
	assert.Equal(t, http.StatusOK, first.Code)

	second := serve(srv.handler, uploadRequest(t, "/analyze-image", "file", "image/png", figurePNG(t)))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// other routes are not limited
	health := serve(srv.handler, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, health.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, testConfig(), false)

	req := httptest.NewRequest(http.MethodOptions, "/analyze-image", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	rec := serve(srv.handler, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSAllowList(t *testing.T) {
	cfg := testConfig()
	cfg.CORSOrigins = []string{"https://app.example.com"}
	srv := newTestServer(t, cfg, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := serve(srv.handler, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = serve(srv.handler, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	// requests without an Origin header are not cross-origin
	rec = serve(srv.handler, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHistoryDisabled(t *testing.T) {
	srv := newTestServer(t, testConfig(), false)

	rec := serve(srv.handler, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(srv.handler, httptest.NewRequest(http.MethodGet, "/history/abc", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryRecordsCompletedAnalyses(t *testing.T) {
	srv := newTestServer(t, testConfig(), true)

	for i := 0; i < 2; i++ {
		req := uploadRequest(t, "/analyze-image", "file", "image/jpeg", figurePNG(t))
		req.Header.Set(RequestIDHeader, "req-abc")
		rec := serve(srv.handler, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "req-abc", rec.Header().Get(RequestIDHeader))
	}

	// rejected uploads are not stored
	serve(srv.handler, uploadRequest(t, "/analyze-image", "file", "image/gif", []byte("GIF89a")))
	srv.publisher.Wait()

	rec := serve(srv.handler, httptest.NewRequest(http.MethodGet, "/history?limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var history models.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	// a repeated client request ID still yields one record per analysis
	require.Equal(t, 2, history.Count)
	assert.NotEqual(t, history.Records[0].ID, history.Records[1].ID)
	assert.Equal(t, "req-abc", history.Records[0].RequestID)
	assert.Equal(t, "image/jpeg", history.Records[0].ContentType)
	assert.Equal(t, 16.0, history.Records[0].Result.BodyFat)

	rec = serve(srv.handler, httptest.NewRequest(http.MethodGet, "/history/"+history.Records[1].ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var record models.HistoryRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "Average to fit", record.Result.Category)

	rec = serve(srv.handler, httptest.NewRequest(http.MethodGet, "/history/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(srv.handler, httptest.NewRequest(http.MethodGet, "/history?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(srv.handler, httptest.NewRequest(http.MethodGet, "/health", nil))
	var health models.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.True(t, health.HistoryEnabled)
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, testConfig(), false)

	serve(srv.handler, uploadRequest(t, "/analyze-image", "file", "image/png", figurePNG(t)))
	serve(srv.handler, uploadRequest(t, "/analyze-image", "file", "image/gif", []byte("GIF89a")))
	srv.publisher.Wait()

	rec := serve(srv.handler, httptest.NewRequest(http.MethodGet, "/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1.0, stats["total_analyses"])
	assert.Equal(t, 1.0, stats["successful_analyses"])
	assert.Equal(t, 1.0, stats["rejected_analyses"])
	assert.Equal(t, map[string]interface{}{"heuristic": 1.0}, stats["by_estimate_source"])
}
