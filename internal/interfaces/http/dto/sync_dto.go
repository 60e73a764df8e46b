package dto

import "github.com/erp/catalogsync/internal/domain/syncrun"

// DefaultListLimit is used when a listing omits limit
const DefaultListLimit = 20

// SyncTableRequest is the path of POST /sync/:table
type SyncTableRequest struct {
	Table string `uri:"table" binding:"required"`
}

// ListRunsRequest is the query of GET /sync/runs
type ListRunsRequest struct {
	Table string `form:"table"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=200"`
}

// ListJobsRequest is the query of GET /sync/jobs
type ListJobsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=200"`
}

// EffectiveLimit returns the requested limit or the default
func EffectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}

// SyncReportResponse is a sync report plus its wall time
type SyncReportResponse struct {
	syncrun.Report
	DurationMs int64 `json:"duration_ms"`
}

// NewSyncReportResponse converts a report for the API
func NewSyncReportResponse(r syncrun.Report) SyncReportResponse {
	if r.Issues == nil {
		r.Issues = []syncrun.Issue{}
	}
	return SyncReportResponse{Report: r, DurationMs: r.Duration().Milliseconds()}
}

// SyncRunResponse is one audit row
type SyncRunResponse struct {
	SyncReportResponse
	Trigger syncrun.Trigger `json:"trigger"`
}

// NewSyncRunResponses converts audit rows for the API
func NewSyncRunResponses(runs []syncrun.Run) []SyncRunResponse {
	out := make([]SyncRunResponse, 0, len(runs))
	for _, run := range runs {
		out = append(out, SyncRunResponse{
			SyncReportResponse: NewSyncReportResponse(run.Report),
			Trigger:            run.Trigger,
		})
	}
	return out
}
