package handler

import (
	"context"

	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/erp/catalogsync/internal/infrastructure/scheduler"
	"github.com/erp/catalogsync/internal/interfaces/http/dto"
	"github.com/erp/catalogsync/internal/interfaces/http/middleware"
	"github.com/erp/catalogsync/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Syncer runs and lists sync passes; satisfied by catalogsync.SyncService
type Syncer interface {
	Sync(ctx context.Context, tenantID uuid.UUID, table string, trigger syncrun.Trigger) (syncrun.Report, error)
	ListRuns(ctx context.Context, tenantID uuid.UUID, filter syncrun.RunFilter) ([]syncrun.Run, error)
}

// JobLister exposes scheduled job attempts; satisfied by scheduler.JobHistory
type JobLister interface {
	ListForTenant(tenantID uuid.UUID, limit int) []scheduler.Job
}

// SyncHandler serves the catalog sync trigger and its audit listings
type SyncHandler struct {
	BaseHandler
	syncer Syncer
	jobs   JobLister
}

// NewSyncHandler creates a new SyncHandler. jobs may be nil when the scheduler is disabled.
func NewSyncHandler(syncer Syncer, jobs JobLister) *SyncHandler {
	return &SyncHandler{syncer: syncer, jobs: jobs}
}

// Routes returns the /sync route group
func (h *SyncHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("sync", "/sync").
		GET("/runs", h.ListRuns).
		GET("/jobs", h.ListJobs).
		POST("/:table", h.Trigger)
}

// Trigger runs one sync pass over the table in the path.
// A run that completed, with or without row errors, answers 200 with the
// report. An aborted run answers with the status of its error code and still
// carries the report.
//
//	@Summary		Sync a catalog table
//	@Description	Reconciles the tenant's source file for the table against the stored catalog
//	@Tags			sync
//	@ID				triggerSync
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	true	"Tenant ID"
//	@Param			table		path		string	true	"Logical table"	Enums(articles, clients, providers)
//	@Success		200			{object}	APIResponse[dto.SyncReportResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		500			{object}	APIResponse[dto.SyncReportResponse]
//	@Failure		502			{object}	APIResponse[dto.SyncReportResponse]
//	@Failure		503			{object}	APIResponse[dto.SyncReportResponse]
//	@Router			/api/v1/sync/{table} [post]
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req dto.SyncTableRequest
	if err := c.ShouldBindUri(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	report, err := h.syncer.Sync(c.Request.Context(), middleware.GetTenantID(c), req.Table, syncrun.TriggerHTTP)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	body := dto.NewSyncReportResponse(report)
	if report.Aborted() {
		c.JSON(dto.GetHTTPStatus(report.ErrorCode), dto.NewErrorResponseWithData(
			report.ErrorCode, report.Error, getRequestID(c), body,
		))
		return
	}
	h.Success(c, body)
}

// ListRuns lists the tenant's recent runs, newest first, optionally for one table
//
//	@Summary		List sync runs
//	@Tags			sync
//	@ID				listSyncRuns
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	true	"Tenant ID"
//	@Param			table		query		string	false	"Logical table"
//	@Param			limit		query		int		false	"Page size"	minimum(1)	maximum(200)	default(20)
//	@Success		200			{object}	APIResponse[[]dto.SyncRunResponse]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/v1/sync/runs [get]
func (h *SyncHandler) ListRuns(c *gin.Context) {
	var req dto.ListRunsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	limit := dto.EffectiveLimit(req.Limit)
	runs, err := h.syncer.ListRuns(c.Request.Context(), middleware.GetTenantID(c), syncrun.RunFilter{
		Table: syncrun.LogicalTable(req.Table),
		Limit: limit,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, dto.NewSyncRunResponses(runs), len(runs), limit)
}

// ListJobs lists the tenant's scheduled job attempts, newest first
//
//	@Summary		List scheduled sync jobs
//	@Tags			sync
//	@ID				listSyncJobs
//	@Produce		json
//	@Param			X-Tenant-ID	header		string	true	"Tenant ID"
//	@Param			limit		query		int		false	"Page size"	minimum(1)	maximum(200)	default(20)
//	@Success		200			{object}	APIResponse[[]scheduler.Job]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/api/v1/sync/jobs [get]
func (h *SyncHandler) ListJobs(c *gin.Context) {
	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	limit := dto.EffectiveLimit(req.Limit)
	jobs := []scheduler.Job{}
	if h.jobs != nil {
		jobs = h.jobs.ListForTenant(middleware.GetTenantID(c), limit)
	}
	h.SuccessList(c, jobs, len(jobs), limit)
}
