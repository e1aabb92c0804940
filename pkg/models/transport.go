package models

// ErrorResponse represents an error response. Detail repeats the
// client-facing message under the key browser clients already read.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// RootResponse is served at the service root
type RootResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports service liveness and model availability
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Time           string `json:"time"`
	ModelLoaded    bool   `json:"model_loaded"`
	HistoryEnabled bool   `json:"history_enabled"`
}

// HistoryResponse wraps a page of stored analyses
type HistoryResponse struct {
	Count   int              `json:"count"`
	Records []*HistoryRecord `json:"records"`
}
