package models

import "time"

// ShapeMetrics holds the normalized bounding geometry of the selected silhouette.
// It is the contract between silhouette extraction and estimation.
type ShapeMetrics struct {
	AspectRatio float64 `json:"aspect_ratio"` // box height / box width
	AreaRatio   float64 `json:"area_ratio"`   // contour area / image area
	WidthRatio  float64 `json:"width_ratio"`  // box width / image width
}

// FeatureVectorLen is the number of synthetic measurements handed to a regression model.
const FeatureVectorLen = 5

// FeatureVector is the ordered set of pseudo-measurements
// (height_cm, weight_kg, waist_cm, neck_cm, hip_cm). The values are proxies
// synthesized from ShapeMetrics, not real measurements.
type FeatureVector [FeatureVectorLen]float64

// FeatureNames lists the FeatureVector fields in order.
var FeatureNames = [FeatureVectorLen]string{"height_cm", "weight_kg", "waist_cm", "neck_cm", "hip_cm"}

func (v FeatureVector) HeightCM() float64 { return v[0] }
func (v FeatureVector) WeightKG() float64 { return v[1] }
func (v FeatureVector) WaistCM() float64  { return v[2] }
func (v FeatureVector) NeckCM() float64   { return v[3] }
func (v FeatureVector) HipCM() float64    { return v[4] }

// Slice returns a copy of the vector as a slice.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, FeatureVectorLen)
	copy(out, v[:])
	return out
}

// BoundingBox is an integer rectangle enclosing a contour.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// AnalysisResult is the externally visible outcome of one analysis.
type AnalysisResult struct {
	BodyFat           float64  `json:"bodyfat"`
	Category          string   `json:"category"`
	GoalSuggestion    string   `json:"goal_suggestion"`
	SuggestedCalories int      `json:"suggested_calories"`
	Notes             []string `json:"notes"`
}

// EstimateSource records which path produced the final estimate.
type EstimateSource string

const (
	// SourceHeuristic means no model was available.
	SourceHeuristic EstimateSource = "heuristic"
	// SourceBlended means the heuristic was blended with a model prediction.
	SourceBlended EstimateSource = "blended"
	// SourceFallback means a model was available but failed, so the heuristic was used.
	SourceFallback EstimateSource = "fallback"
)

// AnalysisBreakdown exposes the intermediate values of one analysis.
type AnalysisBreakdown struct {
	Metrics          ShapeMetrics   `json:"metrics"`
	Features         FeatureVector  `json:"features"`
	HeuristicBodyFat float64        `json:"heuristic_bodyfat"`
	ModelBodyFat     *float64       `json:"model_bodyfat,omitempty"`
	ModelError       string         `json:"model_error,omitempty"`
	EstimateSource   EstimateSource `json:"estimate_source"`
	CandidateCount   int            `json:"candidate_count"`
	SelectedBox      *BoundingBox   `json:"selected_box,omitempty"`
	Threshold        uint8          `json:"threshold"`
	FallbackUsed     bool           `json:"fallback_used"`
}

// DetailedAnalysisResponse pairs the result with its breakdown.
type DetailedAnalysisResponse struct {
	AnalysisResult
	Breakdown         AnalysisBreakdown `json:"breakdown"`
	ProcessingTimeSec float64           `json:"processing_time_sec"`
}

// HistoryRecord is a stored analysis result. Images are never stored.
type HistoryRecord struct {
	ID             string         `json:"id"`
	RequestID      string         `json:"request_id,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	ContentType    string         `json:"content_type"`
	Result         AnalysisResult `json:"result"`
	Metrics        ShapeMetrics   `json:"metrics"`
	EstimateSource EstimateSource `json:"estimate_source"`
}
