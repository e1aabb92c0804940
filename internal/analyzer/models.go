package analyzer

import (
	"time"

	"go-body-analyzer/pkg/models"
)

// Analysis is the full outcome of one pipeline run.
type Analysis struct {
	Result         models.AnalysisResult
	Silhouette     Silhouette
	Selection      Selection
	Blend          BlendResult
	ProcessingTime time.Duration
}

// Breakdown flattens the intermediate values for reporting.
func (a Analysis) Breakdown() models.AnalysisBreakdown {
	b := models.AnalysisBreakdown{
		Metrics:          a.Selection.Metrics,
		Features:         a.Selection.Features,
		HeuristicBodyFat: roundTenth(a.Blend.Heuristic),
		EstimateSource:   a.Blend.Source,
		CandidateCount:   a.Selection.CandidateCount,
		SelectedBox:      a.Selection.Box,
		Threshold:        a.Silhouette.Threshold,
		FallbackUsed:     a.Selection.FallbackUsed,
	}
	if a.Blend.Model != nil {
		v := roundTenth(*a.Blend.Model)
		b.ModelBodyFat = &v
	}
	if a.Blend.Err != nil {
		b.ModelError = a.Blend.Err.Error()
	}
	return b
}

// Detailed builds the detailed response for this analysis.
func (a Analysis) Detailed() models.DetailedAnalysisResponse {
	return models.DetailedAnalysisResponse{
		AnalysisResult:    a.Result,
		Breakdown:         a.Breakdown(),
		ProcessingTimeSec: a.ProcessingTime.Seconds(),
	}
}
