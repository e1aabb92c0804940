package repository

import (
	"context"

	"go-body-analyzer/pkg/models"
)

// DefaultHistoryLimit bounds history queries that do not set a limit
const DefaultHistoryLimit = 50

// MaxHistoryLimit is the largest page GetAnalysisHistory returns
const MaxHistoryLimit = 500

// AnalysisRepository defines the interface for analysis result operations.
// Only results are stored; uploaded images never reach the repository.
type AnalysisRepository interface {
	// SaveAnalysisResult stores an analysis result
	SaveAnalysisResult(ctx context.Context, record *models.HistoryRecord) error

	// GetAnalysisResult retrieves a stored analysis result
	GetAnalysisResult(ctx context.Context, id string) (*models.HistoryRecord, error)

	// GetAnalysisHistory retrieves the most recent results, newest first
	GetAnalysisHistory(ctx context.Context, limit int) ([]*models.HistoryRecord, error)

	// Close releases the underlying storage
	Close() error
}

// NormalizeLimit maps a requested page size into [1, MaxHistoryLimit]
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		return MaxHistoryLimit
	}
	return limit
}
