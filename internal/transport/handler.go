package transport

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"go-body-analyzer/internal/config"
	apperrors "go-body-analyzer/internal/errors"
	"go-body-analyzer/internal/logger"
	"go-body-analyzer/internal/observer"
	"go-body-analyzer/internal/repository"
	"go-body-analyzer/internal/service"
	"go-body-analyzer/pkg/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	// Version is reported by the health endpoint
	Version = "1.0.0"

	// RootMessage is served at GET /
	RootMessage = "AI Body Analyzer backend is running"

	// RequestIDHeader carries the request ID in both directions
	RequestIDHeader = "X-Request-ID"

	uploadField = "file"
)

// Dependencies are the collaborators served over HTTP. Metrics and History
// may be nil; history routes then answer 404.
type Dependencies struct {
	Service service.BodyAnalysisService
	Metrics *observer.MetricsObserver
	History repository.AnalysisRepository
}

func NewHandler(deps Dependencies, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		corsPolicy(cfg.CORSOrigins),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/", root)
	r.GET("/health", healthCheck(deps))
	r.GET("/stats", stats(deps.Metrics))
	r.POST("/analyze-image", rateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst), analyzeImage(deps.Service, cfg))
	r.GET("/history", listHistory(deps.History))
	r.GET("/history/:id", getHistory(deps.History))

	return r
}

func root(c *gin.Context) {
	c.JSON(http.StatusOK, models.RootResponse{Message: RootMessage})
}

func healthCheck(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, models.HealthResponse{
			Status:         "available",
			Version:        Version,
			Time:           time.Now().UTC().Format(time.RFC3339),
			ModelLoaded:    deps.Service.ModelLoaded(),
			HistoryEnabled: deps.History != nil,
		})
	}
}

func stats(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func analyzeImage(svc service.BodyAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		fileHeader, err := c.FormFile(uploadField)
		if err != nil {
			if isBodyTooLarge(err) {
				respondError(c, apperrors.NewTooLargeError("Uploaded file is too large.", err))
				return
			}
			respondError(c, apperrors.NewValidationError("No image file was uploaded.", err))
			return
		}

		contentType := fileHeader.Header.Get("Content-Type")
		data, err := readUpload(fileHeader)
		if err != nil {
			respondError(c, apperrors.NewValidationError("Could not read the uploaded file.", err))
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id":   service.RequestIDFromContext(ctx),
			"filename":     fileHeader.Filename,
			"content_type": contentType,
			"size_bytes":   len(data),
		}).Debug("Received image upload")

		if detail, _ := strconv.ParseBool(c.Query("detail")); detail {
			result, err := svc.AnalyzeDetailed(ctx, data, contentType)
			if err != nil {
				respondError(c, err)
				return
			}
			c.JSON(http.StatusOK, result)
			return
		}

		result, err := svc.Analyze(ctx, data, contentType)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func listHistory(repo repository.AnalysisRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if repo == nil {
			respondError(c, apperrors.NewNotFoundError("Analysis history is disabled.", nil))
			return
		}

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				respondError(c, apperrors.NewValidationError("limit must be a positive integer", err))
				return
			}
			limit = n
		}

		records, err := repo.GetAnalysisHistory(c.Request.Context(), limit)
		if err != nil {
			respondError(c, apperrors.NewInternalError("Could not load analysis history.", err))
			return
		}
		c.JSON(http.StatusOK, models.HistoryResponse{Count: len(records), Records: records})
	}
}

func getHistory(repo repository.AnalysisRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if repo == nil {
			respondError(c, apperrors.NewNotFoundError("Analysis history is disabled.", nil))
			return
		}

		record, err := repo.GetAnalysisResult(c.Request.Context(), c.Param("id"))
		switch {
		case errors.Is(err, repository.ErrAnalysisNotFound):
			respondError(c, apperrors.NewNotFoundError("Analysis not found.", err))
			return
		case err != nil:
			respondError(c, apperrors.NewInternalError("Could not load analysis.", err))
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return true
	}
	// multipart parsing does not always wrap the reader error
	return strings.Contains(err.Error(), "request body too large")
}

// requestID reuses the caller's X-Request-ID or issues a new one and puts it
// on the request context for the observer events.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Set("request_id", id)
		c.Request = c.Request.WithContext(service.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id":  c.GetString("request_id"),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"user_agent":  c.Request.UserAgent(),
			"ip":          c.ClientIP(),
		}).Info("Request handled")
	}
}

// corsPolicy allows any listed origin, or every origin when the list holds
// "*". Credentials are never allowed.
func corsPolicy(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           10 * time.Minute,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// rateLimiter applies one token bucket to every caller. rps <= 0 disables it.
func rateLimiter(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			respondError(c, apperrors.NewRateLimitedError("Too many requests, please retry shortly."))
			return
		}
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			respondError(c, c.Errors.Last().Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body. AppError messages are client-facing
// and go out as-is; anything else is reported generically.
func respondError(c *gin.Context, err error) {
	code := determineStatusCode(err)
	message := http.StatusText(code)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}

	entry := logger.WithError(err).WithFields(logrus.Fields{
		"request_id":  c.GetString("request_id"),
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Detail:  message,
	})
}
